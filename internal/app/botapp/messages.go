package botapp

import (
	"fmt"
	"strings"
	"time"
)

const (
	msgWelcome = "Hi! Send me a text or media message and I will relay it to the channel anonymously.\n" +
		"Your messages are signed with your anonymous name. Use /setname once to pick your own."
	msgHelp = "Commands:\n" +
		"/setname <name> - pick your anonymous name (one time)\n" +
		"/help - this message\n\n" +
		"Just send text or media to submit it to the channel."
	msgAdminHelp = "Admin commands:\n" +
		"/settings - show current settings\n" +
		"/toggleapproval - toggle media approval requirement\n" +
		"/setratelimit <minutes> - set submission cooldown\n" +
		"/setactivityhours <start> <end> - set active hours (0-23)\n" +
		"/addword <word> | /removeword <word> | /listwords\n" +
		"/addadmin <id> | /removeadmin <id> | /listadmins"

	msgPublished       = "Your message was published."
	msgQueued          = "Your message was submitted for review. You will be notified of the decision."
	msgFiltered        = "Your message was not published because it contains prohibited words."
	msgServiceDown     = "The service is temporarily unavailable, please try again later."
	msgPublishFailed   = "Your message could not be delivered to the channel, please try again later."
	msgApproved        = "Your submission was approved and published."
	msgUnsupported     = "This content type is not supported. Send text, photo, video, audio, voice or a document."
	msgNotAdmin        = "This command is only available to admins."
	msgAskName         = "Send the name you want to use."
	msgAskAdminID      = "Send the Telegram id of the admin."
	msgAskWord         = "Send the word."
	msgNameSet         = "Done, your name is now set."
	msgNameAlreadySet  = "You already picked a name; it can only be set once."
	msgNameTaken       = "That name is taken, try another one."
	msgNameInvalid     = "That name is not allowed. Use up to 50 letters, digits, spaces or - _ ."
	msgUnknownCommand  = "Unknown command, see /help."
	msgDecisionHandled = "This item was already handled."
)

func msgRateLimited(window time.Duration) string {
	return fmt.Sprintf("You can send one message every %d minutes. Please wait.", int(window.Minutes()))
}

func msgInactiveHours(startHour, endHour int) string {
	return fmt.Sprintf("The channel accepts messages between %02d:00 and %02d:59.", startHour, endHour)
}

func msgRejected(reason string) string {
	return "Your submission was rejected. Reason: " + reason
}

func msgCurrentName(name string) string {
	return "Your anonymous name is " + name + "."
}

func msgSettings(requireApproval bool, rateLimitMinutes, startHour, endHour, queueDepth int) string {
	var b strings.Builder
	b.WriteString("Current settings:\n")
	fmt.Fprintf(&b, "approval required: %t\n", requireApproval)
	fmt.Fprintf(&b, "rate limit: %d min\n", rateLimitMinutes)
	fmt.Fprintf(&b, "active hours: %02d:00-%02d:59\n", startHour, endHour)
	fmt.Fprintf(&b, "pending items: %d", queueDepth)
	return b.String()
}

func msgReviewRequest(displayName, kind, caption string, pendingID int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s from %s (item #%d)", kind, displayName, pendingID)
	if caption != "" {
		b.WriteString("\nCaption: ")
		b.WriteString(caption)
	}
	return b.String()
}
