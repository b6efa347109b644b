package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/worstlover/telegrambot/internal/infra/metrics"
	tginfra "github.com/worstlover/telegrambot/internal/infra/telegram"
	identitysvc "github.com/worstlover/telegrambot/internal/services/identity"
	pipelinesvc "github.com/worstlover/telegrambot/internal/services/pipeline"
)

// Handlers catch their own failures and always return nil: one user's
// error must not stop the update loop for everyone else.

func (a *App) handleCommand(ctx context.Context, upd tginfra.CommandUpdate) error {
	switch upd.Command {
	case "start":
		user, err := a.identity.ResolveOrCreate(ctx, upd.UserID)
		if err != nil {
			a.logger.Error("resolve identity on /start", zap.Int64("telegram_id", upd.UserID), zap.Error(err))
			a.reply(ctx, upd.ChatID, msgServiceDown)
			return nil
		}
		a.reply(ctx, upd.ChatID, msgWelcome+"\n\n"+msgCurrentName(user.DisplayName))

	case "help":
		a.reply(ctx, upd.ChatID, msgHelp)

	case "setname":
		if upd.Args == "" {
			a.sessions.set(upd.ChatID, inputSetName)
			a.reply(ctx, upd.ChatID, msgAskName)
			return nil
		}
		a.doSetName(ctx, upd.ChatID, upd.UserID, upd.Args)

	case "admin":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		a.reply(ctx, upd.ChatID, msgAdminHelp)

	case "settings":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		settings := a.policy.Current()
		depth, err := a.approval.QueueDepth(ctx)
		if err != nil {
			a.logger.Warn("read queue depth", zap.Error(err))
		}
		a.reply(ctx, upd.ChatID, msgSettings(
			settings.RequireApproval, settings.RateLimitMinutes,
			settings.ActivityStartHour, settings.ActivityEndHour, depth))

	case "toggleapproval":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		next, err := a.policy.ToggleRequireApproval(ctx)
		if err != nil {
			a.logger.Error("toggle approval", zap.Error(err))
			a.reply(ctx, upd.ChatID, msgServiceDown)
			return nil
		}
		a.reply(ctx, upd.ChatID, fmt.Sprintf("Approval requirement is now %t.", next))

	case "setratelimit":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		minutes, err := strconv.Atoi(upd.Args)
		if err != nil || minutes < 0 {
			a.reply(ctx, upd.ChatID, "Usage: /setratelimit <minutes>")
			return nil
		}
		if err := a.policy.SetRateLimitMinutes(ctx, minutes); err != nil {
			a.logger.Error("set rate limit", zap.Error(err))
			a.reply(ctx, upd.ChatID, msgServiceDown)
			return nil
		}
		a.reply(ctx, upd.ChatID, fmt.Sprintf("Rate limit set to %d minutes.", minutes))

	case "setactivityhours":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		fields := strings.Fields(upd.Args)
		if len(fields) != 2 {
			a.reply(ctx, upd.ChatID, "Usage: /setactivityhours <start> <end>")
			return nil
		}
		start, err1 := strconv.Atoi(fields[0])
		end, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			a.reply(ctx, upd.ChatID, "Usage: /setactivityhours <start> <end>")
			return nil
		}
		if err := a.policy.SetActivityHours(ctx, start, end); err != nil {
			a.reply(ctx, upd.ChatID, "Hours must be between 0 and 23.")
			return nil
		}
		a.reply(ctx, upd.ChatID, fmt.Sprintf("Active hours set to %02d:00-%02d:59.", start, end))

	case "addword":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		if upd.Args == "" {
			a.sessions.set(upd.ChatID, inputAddWord)
			a.reply(ctx, upd.ChatID, msgAskWord)
			return nil
		}
		a.doAddWord(ctx, upd.ChatID, upd.UserID, upd.Args)

	case "removeword":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		if upd.Args == "" {
			a.sessions.set(upd.ChatID, inputRemoveWord)
			a.reply(ctx, upd.ChatID, msgAskWord)
			return nil
		}
		a.doRemoveWord(ctx, upd.ChatID, upd.Args)

	case "listwords":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		words, err := a.policy.ListBannedWords(ctx)
		if err != nil {
			a.logger.Error("list banned words", zap.Error(err))
			a.reply(ctx, upd.ChatID, msgServiceDown)
			return nil
		}
		if len(words) == 0 {
			a.reply(ctx, upd.ChatID, "The banned-word list is empty.")
			return nil
		}
		a.reply(ctx, upd.ChatID, "Banned words:\n"+strings.Join(words, "\n"))

	case "addadmin":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		if upd.Args == "" {
			a.sessions.set(upd.ChatID, inputAddAdmin)
			a.reply(ctx, upd.ChatID, msgAskAdminID)
			return nil
		}
		a.doAddAdmin(ctx, upd.ChatID, upd.UserID, upd.Args)

	case "removeadmin":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		if upd.Args == "" {
			a.sessions.set(upd.ChatID, inputRemoveAdmin)
			a.reply(ctx, upd.ChatID, msgAskAdminID)
			return nil
		}
		a.doRemoveAdmin(ctx, upd.ChatID, upd.Args)

	case "listadmins":
		if !a.requireAdmin(ctx, upd.ChatID, upd.UserID) {
			return nil
		}
		adminIDs, err := a.policy.ListAdmins(ctx)
		if err != nil {
			a.logger.Error("list admins", zap.Error(err))
			a.reply(ctx, upd.ChatID, msgServiceDown)
			return nil
		}
		lines := make([]string, 0, len(adminIDs))
		for _, id := range adminIDs {
			lines = append(lines, strconv.FormatInt(id, 10))
		}
		a.reply(ctx, upd.ChatID, "Admins:\n"+strings.Join(lines, "\n"))

	default:
		a.reply(ctx, upd.ChatID, msgUnknownCommand)
	}

	return nil
}

func (a *App) handleText(ctx context.Context, upd tginfra.TextUpdate) error {
	switch a.sessions.take(upd.ChatID) {
	case inputSetName:
		a.doSetName(ctx, upd.ChatID, upd.UserID, upd.Text)
	case inputAddWord:
		a.doAddWord(ctx, upd.ChatID, upd.UserID, upd.Text)
	case inputRemoveWord:
		a.doRemoveWord(ctx, upd.ChatID, upd.Text)
	case inputAddAdmin:
		a.doAddAdmin(ctx, upd.ChatID, upd.UserID, upd.Text)
	case inputRemoveAdmin:
		a.doRemoveAdmin(ctx, upd.ChatID, upd.Text)
	default:
		a.submit(ctx, upd.ChatID, pipelinesvc.Submission{
			SenderTelegramID: upd.UserID,
			Body:             upd.Text,
		})
	}
	return nil
}

func (a *App) handleMedia(ctx context.Context, upd tginfra.MediaUpdate) error {
	if !upd.Kind.Relayable() {
		a.reply(ctx, upd.ChatID, msgUnsupported)
		return nil
	}
	a.submit(ctx, upd.ChatID, pipelinesvc.Submission{
		SenderTelegramID: upd.UserID,
		Kind:             upd.Kind,
		Body:             upd.Caption,
		FileID:           upd.FileID,
	})
	return nil
}

func (a *App) handleCallback(ctx context.Context, upd tginfra.CallbackUpdate) error {
	action, itemID, ok := parseModerationCallback(upd.Data)
	if !ok {
		a.answerCallback(ctx, upd.CallbackID, "")
		return nil
	}

	isAdmin, err := a.policy.IsAdmin(ctx, upd.UserID)
	if err != nil {
		a.logger.Error("check admin on callback", zap.Int64("telegram_id", upd.UserID), zap.Error(err))
		a.answerCallback(ctx, upd.CallbackID, msgServiceDown)
		return nil
	}
	if !isAdmin {
		a.answerCallback(ctx, upd.CallbackID, msgNotAdmin)
		return nil
	}

	var done bool
	var outcome string
	switch action {
	case "approve":
		done, err = a.approval.Approve(ctx, itemID)
		outcome = fmt.Sprintf("Item #%d approved and published.", itemID)
	case "reject":
		done, err = a.approval.Reject(ctx, itemID, a.cfg.Moderation.RejectReason)
		outcome = fmt.Sprintf("Item #%d rejected.", itemID)
	}
	if err != nil {
		a.logger.Error("apply moderation decision",
			zap.String("action", action),
			zap.Int64("pending_id", itemID),
			zap.Error(err))
		a.answerCallback(ctx, upd.CallbackID, msgServiceDown)
		return nil
	}
	if !done {
		outcome = msgDecisionHandled
	} else {
		metrics.ObserveAdminDecision(action)
	}

	a.answerCallback(ctx, upd.CallbackID, outcome)
	if upd.ChatID != 0 && upd.MessageID != 0 {
		if err := a.bot.EditMessageText(ctx, upd.ChatID, upd.MessageID, outcome); err != nil {
			a.logger.Warn("edit review message", zap.Int64("pending_id", itemID), zap.Error(err))
		}
	}
	return nil
}

// submit pushes one submission through the pipeline and words the reply
// from the decision.
func (a *App) submit(ctx context.Context, chatID int64, sub pipelinesvc.Submission) {
	result, err := a.pipeline.Submit(ctx, sub)

	switch result.Decision {
	case pipelinesvc.DecisionPublished:
		a.replyWithChannelLink(ctx, chatID, msgPublished)
	case pipelinesvc.DecisionQueued:
		a.reply(ctx, chatID, msgQueued)
	case pipelinesvc.DecisionFiltered:
		a.reply(ctx, chatID, msgFiltered)
	case pipelinesvc.DecisionRateLimited:
		a.reply(ctx, chatID, msgRateLimited(result.Wait))
	case pipelinesvc.DecisionInactive:
		a.reply(ctx, chatID, msgInactiveHours(result.StartHour, result.EndHour))
	case pipelinesvc.DecisionPublishError:
		a.reply(ctx, chatID, msgPublishFailed)
	default:
		if err != nil {
			a.logger.Error("submission failed", zap.Int64("telegram_id", sub.SenderTelegramID), zap.Error(err))
		}
		a.reply(ctx, chatID, msgServiceDown)
	}
}

func (a *App) doSetName(ctx context.Context, chatID, userID int64, name string) {
	if _, err := a.identity.ResolveOrCreate(ctx, userID); err != nil {
		a.logger.Error("resolve identity for rename", zap.Int64("telegram_id", userID), zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return
	}

	err := a.identity.SetDisplayName(ctx, userID, strings.TrimSpace(name))
	switch {
	case err == nil:
		a.reply(ctx, chatID, msgNameSet)
	case errors.Is(err, identitysvc.ErrNameAlreadySet):
		a.reply(ctx, chatID, msgNameAlreadySet)
	case errors.Is(err, identitysvc.ErrNameTaken):
		a.reply(ctx, chatID, msgNameTaken)
	case errors.Is(err, identitysvc.ErrInvalidName):
		a.reply(ctx, chatID, msgNameInvalid)
	default:
		a.logger.Error("set display name", zap.Int64("telegram_id", userID), zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
	}
}

func (a *App) doAddWord(ctx context.Context, chatID, adminID int64, word string) {
	if err := a.policy.AddBannedWord(ctx, word, adminID); err != nil {
		a.logger.Error("add banned word", zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return
	}
	a.reply(ctx, chatID, "Word added.")
}

func (a *App) doRemoveWord(ctx context.Context, chatID int64, word string) {
	removed, err := a.policy.RemoveBannedWord(ctx, word)
	if err != nil {
		a.logger.Error("remove banned word", zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return
	}
	if !removed {
		a.reply(ctx, chatID, "That word is not in the list.")
		return
	}
	a.reply(ctx, chatID, "Word removed.")
}

func (a *App) doAddAdmin(ctx context.Context, chatID, grantorID int64, raw string) {
	adminID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || adminID <= 0 {
		a.reply(ctx, chatID, "Send a numeric Telegram id.")
		return
	}
	if err := a.policy.AddAdmin(ctx, adminID, grantorID); err != nil {
		a.logger.Error("add admin", zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return
	}
	a.reply(ctx, chatID, "Admin added.")
}

func (a *App) doRemoveAdmin(ctx context.Context, chatID int64, raw string) {
	adminID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || adminID <= 0 {
		a.reply(ctx, chatID, "Send a numeric Telegram id.")
		return
	}
	removed, err := a.policy.RemoveAdmin(ctx, adminID)
	if err != nil {
		a.logger.Error("remove admin", zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return
	}
	if !removed {
		a.reply(ctx, chatID, "That id is not an admin.")
		return
	}
	a.reply(ctx, chatID, "Admin removed.")
}

func (a *App) requireAdmin(ctx context.Context, chatID, userID int64) bool {
	isAdmin, err := a.policy.IsAdmin(ctx, userID)
	if err != nil {
		a.logger.Error("check admin", zap.Int64("telegram_id", userID), zap.Error(err))
		a.reply(ctx, chatID, msgServiceDown)
		return false
	}
	if !isAdmin {
		a.reply(ctx, chatID, msgNotAdmin)
		return false
	}
	return true
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	if err := a.bot.SendText(ctx, chatID, text); err != nil {
		a.logger.Warn("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) replyWithChannelLink(ctx context.Context, chatID int64, text string) {
	if err := a.bot.SendTextWithChannelLink(ctx, chatID, text, a.cfg.Channel.Username); err != nil {
		a.logger.Warn("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) answerCallback(ctx context.Context, callbackID, text string) {
	if err := a.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		a.logger.Warn("answer callback", zap.Error(err))
	}
}

// parseModerationCallback splits "mod:<action>:<id>" callback data.
func parseModerationCallback(data string) (action string, itemID int64, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "mod" {
		return "", 0, false
	}
	if parts[1] != "approve" && parts[1] != "reject" {
		return "", 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return parts[1], id, true
}
