// Package channelfmt builds the text bodies and captions posted to the
// public channel. Sender identity is always the anonymous display name,
// never the Telegram account.
package channelfmt

import "strings"

// Text returns the channel post for a text submission: the sanitized
// body with the sender's display name and channel tag appended.
func Text(body, displayName, channelUsername string) string {
	var b strings.Builder
	b.WriteString(sanitize(body))
	b.WriteString("\n\n")
	b.WriteString(signature(displayName, channelUsername))
	return b.String()
}

// Caption returns the media caption with the sender's display name
// appended. An empty caption yields just the signature.
func Caption(caption, displayName, channelUsername string) string {
	caption = sanitize(caption)
	if caption == "" {
		return signature(displayName, channelUsername)
	}
	return caption + "\n\n" + signature(displayName, channelUsername)
}

func signature(displayName, channelUsername string) string {
	s := "👤 " + displayName
	if channelUsername != "" {
		s += "\n@" + channelUsername
	}
	return s
}

// sanitize neutralizes HTML-sensitive characters so user text cannot
// break parse_mode rendering in the channel.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return strings.TrimSpace(text)
}
