package enums

// ContentKind tags a relayed media submission with its Telegram content type.
type ContentKind string

const (
	ContentKindPhoto    ContentKind = "photo"
	ContentKindVideo    ContentKind = "video"
	ContentKindAudio    ContentKind = "audio"
	ContentKindVoice    ContentKind = "voice"
	ContentKindDocument ContentKind = "document"

	// ContentKindAnimation is recognized on the wire but not relayed.
	ContentKindAnimation ContentKind = "animation"
)

// Relayable reports whether the kind can be published to the channel.
func (k ContentKind) Relayable() bool {
	switch k {
	case ContentKindPhoto, ContentKindVideo, ContentKindAudio, ContentKindVoice, ContentKindDocument:
		return true
	}
	return false
}
