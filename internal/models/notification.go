package models

import "time"

type Notification struct {
	ID          int64      `json:"id"`
	RecipientID int64      `json:"recipient_id"`
	SenderID    *int64     `json:"sender_id,omitempty"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Category    string     `json:"category"`
	RelatedID   *int64     `json:"related_id,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
