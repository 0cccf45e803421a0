package models

import "time"

// DeveloperUnavailability is a developer-declared blackout for one calendar
// day. Slots are half-hour tokens ("09:00", "09:30", ...). At most one record
// exists per (developer, date); when a date has no record the developer's
// weekly template applies instead.
type DeveloperUnavailability struct {
	ID          int64     `json:"id"`
	DeveloperID int64     `json:"developer_id"`
	Date        time.Time `json:"date"`
	Slots       []string  `json:"slots"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WeeklyUnavailability is the default blackout template for one weekday
// (0 = Sunday, matching time.Weekday).
type WeeklyUnavailability struct {
	ID          int64     `json:"id"`
	DeveloperID int64     `json:"developer_id"`
	Weekday     int       `json:"weekday"`
	Slots       []string  `json:"slots"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
