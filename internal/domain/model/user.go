package model

import "time"

// User is a sender identity. The display name is unique across all users;
// once a user picks their own name the DisplayNameSet flag never resets.
type User struct {
	ID             int64
	TelegramID     int64
	DisplayName    string
	DisplayNameSet bool
	LastMessageAt  *time.Time
	CreatedAt      time.Time
}
