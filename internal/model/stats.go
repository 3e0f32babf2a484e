package model

import "time"

// Stats is the single persisted counters row.
type Stats struct {
	ScannedThreads int64
	UptimeSeconds  int64
	UpdatedAt      time.Time
}

// TelegramLink maps a user to the chat the secondary transport delivers to.
type TelegramLink struct {
	UserID    string
	ChatID    string
	CreatedAt time.Time
}
