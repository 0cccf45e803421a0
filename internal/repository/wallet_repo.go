package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

type WalletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (owner_id)
		VALUES ($1)
		RETURNING id, owner_id, balance, created_at, updated_at
	`
	var wallet models.Wallet
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&wallet.ID,
		&wallet.OwnerID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	query := `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`
	var wallet models.Wallet
	err := r.db.QueryRow(ctx, query, id).Scan(
		&wallet.ID,
		&wallet.OwnerID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) GetByOwnerID(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	query := `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
	`
	var wallet models.Wallet
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&wallet.ID,
		&wallet.OwnerID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

type TransferInput struct {
	FromWalletID int64
	ToWalletID   int64
	Amount       decimal.Decimal
	SessionID    int64
	Kind         string
	Description  string
}

// TransferFunds appends a debit to the source wallet and a credit to the
// destination wallet and moves both balances. The caller must run it on a
// repository bound to an open transaction; both mutations commit or roll back
// together. (sessionID, kind) is the idempotency key: when the destination
// wallet already holds a matching transaction the transfer was applied before
// and this call is a no-op returning false.
func (r *WalletRepository) TransferFunds(ctx context.Context, input TransferInput) (bool, error) {
	if !input.Amount.IsPositive() {
		return false, fmt.Errorf("transfer amount must be positive, got %s", input.Amount)
	}

	// The ledger never moves more for a session than the session was sold
	// for. The session row is already locked by the caller's transaction.
	var price decimal.Decimal
	if err := r.db.QueryRow(
		ctx,
		`SELECT price FROM sessions WHERE id = $1`,
		input.SessionID,
	).Scan(&price); err != nil {
		return false, fmt.Errorf("load price for session %d: %w", input.SessionID, err)
	}
	if input.Amount.GreaterThan(price) {
		return false, fmt.Errorf("transfer amount %s exceeds session price %s", input.Amount, price)
	}

	// Lock both wallet rows in id order so concurrent transfers cannot
	// deadlock.
	first, second := input.FromWalletID, input.ToWalletID
	if second < first {
		first, second = second, first
	}
	for _, id := range []int64{first, second} {
		var locked int64
		if err := r.db.QueryRow(
			ctx,
			`SELECT id FROM wallets WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&locked); err != nil {
			return false, fmt.Errorf("lock wallet %d: %w", id, err)
		}
	}

	applied, err := r.hasSessionTransaction(ctx, input.ToWalletID, input.SessionID, input.Kind)
	if err != nil {
		return false, err
	}
	if applied {
		return false, nil
	}

	debit := `
		INSERT INTO wallet_transactions (wallet_id, session_id, amount, type, kind, status, description)
		VALUES ($1, $2, $3, 'debit', $4, 'completed', $5)
	`
	if _, err := r.db.Exec(
		ctx, debit,
		input.FromWalletID, input.SessionID, input.Amount.Neg(), input.Kind, input.Description,
	); err != nil {
		return false, err
	}

	credit := `
		INSERT INTO wallet_transactions (wallet_id, session_id, amount, type, kind, status, description)
		VALUES ($1, $2, $3, 'credit', $4, 'completed', $5)
	`
	if _, err := r.db.Exec(
		ctx, credit,
		input.ToWalletID, input.SessionID, input.Amount, input.Kind, input.Description,
	); err != nil {
		return false, err
	}

	if err := r.addToBalance(ctx, input.FromWalletID, input.Amount.Neg()); err != nil {
		return false, err
	}
	if err := r.addToBalance(ctx, input.ToWalletID, input.Amount); err != nil {
		return false, err
	}
	return true, nil
}

// Deposit appends a single credit to a wallet and moves its balance, with the
// same (sessionID, kind) idempotency key as TransferFunds. It funds a wallet
// from outside the ledger, so there is no matching debit row.
func (r *WalletRepository) Deposit(
	ctx context.Context,
	walletID int64,
	amount decimal.Decimal,
	sessionID int64,
	kind string,
	description string,
) (bool, error) {
	if !amount.IsPositive() {
		return false, fmt.Errorf("deposit amount must be positive, got %s", amount)
	}

	var locked int64
	if err := r.db.QueryRow(
		ctx,
		`SELECT id FROM wallets WHERE id = $1 FOR UPDATE`,
		walletID,
	).Scan(&locked); err != nil {
		return false, fmt.Errorf("lock wallet %d: %w", walletID, err)
	}

	applied, err := r.hasSessionTransaction(ctx, walletID, sessionID, kind)
	if err != nil {
		return false, err
	}
	if applied {
		return false, nil
	}

	credit := `
		INSERT INTO wallet_transactions (wallet_id, session_id, amount, type, kind, status, description)
		VALUES ($1, $2, $3, 'credit', $4, 'completed', $5)
	`
	if _, err := r.db.Exec(ctx, credit, walletID, sessionID, amount, kind, description); err != nil {
		return false, err
	}
	if err := r.addToBalance(ctx, walletID, amount); err != nil {
		return false, err
	}
	return true, nil
}

// ProcessRefund is a reverse transfer tagged with the refund kind so the
// idempotency probe cannot confuse it with a settlement on the same session.
func (r *WalletRepository) ProcessRefund(
	ctx context.Context,
	fromWalletID int64,
	toWalletID int64,
	amount decimal.Decimal,
	sessionID int64,
	reason string,
) (bool, error) {
	return r.TransferFunds(ctx, TransferInput{
		FromWalletID: fromWalletID,
		ToWalletID:   toWalletID,
		Amount:       amount,
		SessionID:    sessionID,
		Kind:         models.TransactionKindRefund,
		Description:  reason,
	})
}

func (r *WalletRepository) hasSessionTransaction(
	ctx context.Context,
	walletID int64,
	sessionID int64,
	kind string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM wallet_transactions
			WHERE wallet_id = $1 AND session_id = $2 AND kind = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, walletID, sessionID, kind).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *WalletRepository) addToBalance(
	ctx context.Context,
	walletID int64,
	delta decimal.Decimal,
) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		walletID,
		delta,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %d not found", walletID)
	}
	return nil
}

func (r *WalletRepository) ListTransactions(
	ctx context.Context,
	walletID int64,
	limit int,
	offset int,
) ([]models.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, session_id, amount, type, kind, status, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.WalletTransaction, 0)
	for rows.Next() {
		var tx models.WalletTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.WalletID,
			&tx.SessionID,
			&tx.Amount,
			&tx.Type,
			&tx.Kind,
			&tx.Status,
			&tx.Description,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *WalletRepository) CountTransactions(ctx context.Context, walletID int64) (int, error) {
	var total int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE wallet_id = $1`,
		walletID,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumTransactionAmounts recomputes the balance from the ledger. The cached
// wallet balance must always equal this sum.
func (r *WalletRepository) SumTransactionAmounts(
	ctx context.Context,
	walletID int64,
) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE wallet_id = $1`,
		walletID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
