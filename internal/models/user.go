package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeveloperProfile holds the booking-relevant part of a developer account.
// Profile CRUD beyond this lives in the identity subsystem.
type DeveloperProfile struct {
	ID                 int64            `json:"id"`
	UserID             int64            `json:"user_id"`
	HourlyRate         *decimal.Decimal `json:"hourly_rate"`
	OnboardingComplete bool             `json:"onboarding_complete"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
