package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

const (
	TransactionKindPayment    = "payment"
	TransactionKindSettlement = "settlement"
	TransactionKindRefund     = "refund"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

type Wallet struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletTransaction amounts are signed: credits positive, debits negative,
// so a wallet balance always equals the sum of its transaction amounts.
type WalletTransaction struct {
	ID          int64           `json:"id"`
	WalletID    int64           `json:"wallet_id"`
	SessionID   *int64          `json:"session_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
