package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SessionStatusPending         = "pending"
	SessionStatusApproved        = "approved"
	SessionStatusAwaitingPayment = "awaiting_payment"
	SessionStatusRejected        = "rejected"
	SessionStatusScheduled       = "scheduled"
	SessionStatusActive          = "active"
	SessionStatusCompleted       = "completed"
	SessionStatusCancelled       = "cancelled"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	TransferStatusNotTransferred = "not_transferred"
	TransferStatusTransferred    = "transferred"
)

type Session struct {
	ID                    int64           `json:"id"`
	UserID                int64           `json:"user_id"`
	DeveloperID           int64           `json:"developer_id"`
	SessionDate           time.Time       `json:"session_date"`
	StartTime             time.Time       `json:"start_time"`
	DurationMinutes       int             `json:"duration_minutes"`
	Price                 decimal.Decimal `json:"price"`
	Status                string          `json:"status"`
	PaymentStatus         string          `json:"payment_status"`
	PaymentTransferStatus string          `json:"payment_transfer_status"`
	Topic                 *string         `json:"topic"`
	RejectionReason       *string         `json:"rejection_reason,omitempty"`
	CancellationReason    *string         `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// EndTime is the exclusive end of the booked interval.
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
