package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/worstlover/telegrambot/internal/domain/enums"
)

type Bot struct {
	api       *tgbotapi.BotAPI
	channelID int64
}

type CommandUpdate struct {
	ChatID  int64
	UserID  int64
	Command string
	Args    string
}

type TextUpdate struct {
	ChatID int64
	UserID int64
	Text   string
}

type MediaUpdate struct {
	ChatID  int64
	UserID  int64
	Kind    enums.ContentKind
	FileID  string
	Caption string
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnMedia    func(context.Context, MediaUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

func NewBot(token string, channelID int64) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if channelID == 0 {
		return nil, fmt.Errorf("channel id is required")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api, channelID: channelID}, nil
}

// Listen dispatches incoming updates until the context is canceled.
// Handler errors terminate the loop; handlers are expected to catch
// per-user failures themselves and return only fatal ones.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			if update.Message != nil && update.Message.From != nil && update.Message.Chat.IsPrivate() {
				if update.Message.IsCommand() && handlers.OnCommand != nil {
					err := handlers.OnCommand(ctx, CommandUpdate{
						ChatID:  update.Message.Chat.ID,
						UserID:  update.Message.From.ID,
						Command: update.Message.Command(),
						Args:    strings.TrimSpace(update.Message.CommandArguments()),
					})
					if err != nil {
						return err
					}
					continue
				}

				if media, ok := mediaFromMessage(update.Message); ok {
					if handlers.OnMedia != nil {
						if err := handlers.OnMedia(ctx, media); err != nil {
							return err
						}
					}
					continue
				}

				text := strings.TrimSpace(update.Message.Text)
				if text != "" && handlers.OnText != nil {
					err := handlers.OnText(ctx, TextUpdate{
						ChatID: update.Message.Chat.ID,
						UserID: update.Message.From.ID,
						Text:   text,
					})
					if err != nil {
						return err
					}
				}
			}

			if update.CallbackQuery != nil && update.CallbackQuery.From != nil && handlers.OnCallback != nil {
				chatID := int64(0)
				messageID := 0
				if update.CallbackQuery.Message != nil {
					chatID = update.CallbackQuery.Message.Chat.ID
					messageID = update.CallbackQuery.Message.MessageID
				}
				err := handlers.OnCallback(ctx, CallbackUpdate{
					CallbackID: update.CallbackQuery.ID,
					ChatID:     chatID,
					MessageID:  messageID,
					UserID:     update.CallbackQuery.From.ID,
					Data:       update.CallbackQuery.Data,
				})
				if err != nil {
					return err
				}
			}
		}
	}
}

// mediaFromMessage extracts the relayable media payload, if any. Photos
// arrive as a size ladder; the last entry is the full resolution.
func mediaFromMessage(msg *tgbotapi.Message) (MediaUpdate, bool) {
	update := MediaUpdate{
		ChatID:  msg.Chat.ID,
		UserID:  msg.From.ID,
		Caption: strings.TrimSpace(msg.Caption),
	}

	switch {
	case len(msg.Photo) > 0:
		update.Kind = enums.ContentKindPhoto
		update.FileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		update.Kind = enums.ContentKindVideo
		update.FileID = msg.Video.FileID
	case msg.Audio != nil:
		update.Kind = enums.ContentKindAudio
		update.FileID = msg.Audio.FileID
	case msg.Voice != nil:
		update.Kind = enums.ContentKindVoice
		update.FileID = msg.Voice.FileID
	case msg.Animation != nil:
		// Animations are recognized so the Document branch below does
		// not relay them as files.
		update.Kind = enums.ContentKindAnimation
		update.FileID = msg.Animation.FileID
	case msg.Document != nil:
		update.Kind = enums.ContentKindDocument
		update.FileID = msg.Document.FileID
	default:
		return MediaUpdate{}, false
	}

	return update, true
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// SendTextWithChannelLink attaches a single inline button opening the
// public channel.
func (b *Bot) SendTextWithChannelLink(ctx context.Context, chatID int64, text, channelUsername string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if channelUsername == "" {
		return b.SendText(ctx, chatID, text)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open channel", "https://t.me/"+channelUsername),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) PublishText(ctx context.Context, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	if _, err := b.api.Send(channelTextPost(b.channelID, text)); err != nil {
		return fmt.Errorf("publish text to channel: %w", err)
	}

	_ = ctx
	return nil
}

// PublishMedia posts one media item to the channel. One switch covers
// every relayable kind; both the direct-publish and the approval paths
// go through here.
func (b *Bot) PublishMedia(ctx context.Context, kind enums.ContentKind, fileID, caption string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(fileID) == "" {
		return fmt.Errorf("file id is required")
	}

	msg, err := channelMediaPost(b.channelID, kind, fileID, caption)
	if err != nil {
		return err
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("publish %s to channel: %w", kind, err)
	}

	_ = ctx
	return nil
}

// Channel posts carry entity-escaped user text, so they are always sent
// with HTML parse mode.
func channelTextPost(channelID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(channelID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

func channelMediaPost(channelID int64, kind enums.ContentKind, fileID, caption string) (tgbotapi.Chattable, error) {
	switch kind {
	case enums.ContentKindPhoto:
		cfg := tgbotapi.NewPhoto(channelID, tgbotapi.FileID(fileID))
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
		return cfg, nil
	case enums.ContentKindVideo:
		cfg := tgbotapi.NewVideo(channelID, tgbotapi.FileID(fileID))
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
		return cfg, nil
	case enums.ContentKindAudio:
		cfg := tgbotapi.NewAudio(channelID, tgbotapi.FileID(fileID))
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
		return cfg, nil
	case enums.ContentKindVoice:
		cfg := tgbotapi.NewVoice(channelID, tgbotapi.FileID(fileID))
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
		return cfg, nil
	case enums.ContentKindDocument:
		cfg := tgbotapi.NewDocument(channelID, tgbotapi.FileID(fileID))
		cfg.Caption = caption
		cfg.ParseMode = tgbotapi.ModeHTML
		return cfg, nil
	default:
		return nil, fmt.Errorf("unsupported content kind %q", kind)
	}
}

// RequestApproval sends one admin a review request carrying the pending
// item id in the approve/reject callback data.
func (b *Bot) RequestApproval(ctx context.Context, adminChatID, itemID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if adminChatID == 0 {
		return fmt.Errorf("admin chat id is required")
	}

	approveData := "mod:approve:" + strconv.FormatInt(itemID, 10)
	rejectData := "mod:reject:" + strconv.FormatInt(itemID, 10)

	msg := tgbotapi.NewMessage(adminChatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", approveData),
			tgbotapi.NewInlineKeyboardButtonData("Reject", rejectData),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send approval request: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// EditMessageText rewrites a previously sent message, used to replace an
// admin's approve/reject keyboard with the decision outcome.
func (b *Bot) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 || messageID == 0 {
		return fmt.Errorf("message reference is required")
	}

	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(cfg); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}

	_ = ctx
	return nil
}
