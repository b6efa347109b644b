package model

import (
	"time"

	"github.com/worstlover/telegrambot/internal/domain/enums"
)

// PendingItem is a media submission held for an admin's approve/reject
// decision. Items are removed exactly once, by that decision.
type PendingItem struct {
	ID             int64
	UserTelegramID int64
	Kind           enums.ContentKind
	FileID         string
	Caption        string
	CreatedAt      time.Time
}
