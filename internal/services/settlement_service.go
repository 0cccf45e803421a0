package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
)

// SettlementConfig is injected at construction; the percentage split and the
// platform wallet owner are deployment configuration, not code.
type SettlementConfig struct {
	DeveloperPercentage decimal.Decimal
	AdminUserID         int64
}

type SettlementService struct {
	db  *pgxpool.Pool
	cfg SettlementConfig
	log zerolog.Logger
}

func NewSettlementService(
	db *pgxpool.Pool,
	cfg SettlementConfig,
	log zerolog.Logger,
) (*SettlementService, error) {
	if cfg.DeveloperPercentage.LessThanOrEqual(decimal.Zero) ||
		cfg.DeveloperPercentage.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("developer percentage must be in (0, 1], got %s", cfg.DeveloperPercentage)
	}
	if cfg.AdminUserID <= 0 {
		return nil, fmt.Errorf("admin user id is required")
	}
	return &SettlementService{db: db, cfg: cfg, log: log}, nil
}

// Settle pays the developer their share of a completed, paid session from the
// platform wallet and marks the session transferred. The whole operation is
// one transaction: the session row lock serializes concurrent settles, the
// ledger's (sessionId, kind) key absorbs retries, so running Settle any
// number of times yields exactly one credit.
func (s *SettlementService) Settle(ctx context.Context, sessionID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if session.PaymentTransferStatus == models.TransferStatusTransferred {
		return nil
	}
	if session.Status != models.SessionStatusCompleted ||
		session.PaymentStatus != models.PaymentStatusCompleted {
		return ErrInvalidStateTransition
	}

	share := s.DeveloperShare(session.Price)
	txWalletRepo := repository.NewWalletRepository(tx)

	adminWallet, err := txWalletRepo.GetByOwnerID(ctx, s.cfg.AdminUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	developerWallet, err := txWalletRepo.GetByOwnerID(ctx, session.DeveloperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}

	applied, err := txWalletRepo.TransferFunds(ctx, repository.TransferInput{
		FromWalletID: adminWallet.ID,
		ToWalletID:   developerWallet.ID,
		Amount:       share,
		SessionID:    session.ID,
		Kind:         models.TransactionKindSettlement,
		Description:  fmt.Sprintf("Settlement for session #%d", session.ID),
	})
	if err != nil {
		return errors.Join(ErrConflict, err)
	}

	if _, err := txSessionRepo.UpdatePaymentTransferStatusIfCurrent(
		ctx, session.ID, models.TransferStatusNotTransferred, models.TransferStatusTransferred,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidStateTransition
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.log.Info().
		Int64("session_id", session.ID).
		Str("amount", share.StringFixed(2)).
		Bool("transfer_applied", applied).
		Msg("session settled")
	return nil
}

// DeveloperShare computes the developer's cut of a session price. The
// remainder stays on the platform wallet; there is no second debit.
func (s *SettlementService) DeveloperShare(price decimal.Decimal) decimal.Decimal {
	return price.Mul(s.cfg.DeveloperPercentage).Round(2)
}

// RefundInTx returns the full session price from the platform wallet to the
// paying user inside the caller's transaction. The refund kind keeps its
// idempotency key distinct from a settlement on the same session.
func (s *SettlementService) RefundInTx(
	ctx context.Context,
	tx pgx.Tx,
	session *models.Session,
	reason string,
) error {
	if session.PaymentStatus != models.PaymentStatusCompleted {
		return ErrInvalidStateTransition
	}

	txWalletRepo := repository.NewWalletRepository(tx)
	adminWallet, err := txWalletRepo.GetByOwnerID(ctx, s.cfg.AdminUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	userWallet, err := txWalletRepo.GetByOwnerID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}

	if _, err := txWalletRepo.ProcessRefund(
		ctx,
		adminWallet.ID,
		userWallet.ID,
		session.Price,
		session.ID,
		fmt.Sprintf("Refund for session #%d: %s", session.ID, reason),
	); err != nil {
		return errors.Join(ErrConflict, err)
	}
	return nil
}

// Refund is the standalone refund entry point for a session that is already
// cancelled, used when the refund must be re-driven manually.
func (s *SettlementService) Refund(ctx context.Context, sessionID int64, reason string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	session, err := repository.NewSessionRepository(tx).GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if session.Status != models.SessionStatusCancelled {
		return ErrInvalidStateTransition
	}

	if err := s.RefundInTx(ctx, tx, session, reason); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
