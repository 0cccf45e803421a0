package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
)

type webhookGateway interface {
	ValidateWebhookSignature(payload []byte, header string) error
	ParseWebhookEvent(payload []byte) (*WebhookEvent, error)
}

// PaymentWebhookService applies payment-gateway events to sessions. The
// gateway delivers at least once; applying the same event twice must leave
// the session untouched the second time.
type PaymentWebhookService struct {
	db          *pgxpool.Pool
	gateway     webhookGateway
	notifier    Notifier
	adminUserID int64
	log         zerolog.Logger
}

func NewPaymentWebhookService(
	db *pgxpool.Pool,
	gateway webhookGateway,
	notifier Notifier,
	adminUserID int64,
	log zerolog.Logger,
) *PaymentWebhookService {
	return &PaymentWebhookService{
		db:          db,
		gateway:     gateway,
		notifier:    notifier,
		adminUserID: adminUserID,
		log:         log,
	}
}

func (s *PaymentWebhookService) Process(
	ctx context.Context,
	payload []byte,
	signatureHeader string,
) error {
	if err := s.gateway.ValidateWebhookSignature(payload, signatureHeader); err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}

	event, err := s.gateway.ParseWebhookEvent(payload)
	if err != nil {
		return errors.Join(ErrInvalidInput, err)
	}

	switch event.Type {
	case WebhookEventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case WebhookEventCheckoutFailed:
		return s.applyCheckoutFailed(ctx, event)
	default:
		// The gateway sends event types we do not consume; acknowledge them
		// so it stops retrying.
		s.log.Debug().Str("event_type", event.Type).Msg("ignoring webhook event")
		return nil
	}
}

func (s *PaymentWebhookService) applyCheckoutCompleted(
	ctx context.Context,
	event *WebhookEvent,
) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	session, err := txSessionRepo.GetByIDForUpdate(ctx, event.Data.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	// Replayed delivery: the event was applied before, nothing to do.
	if session.PaymentStatus == models.PaymentStatusCompleted {
		return nil
	}

	if _, err := txSessionRepo.UpdatePaymentStatusIfCurrent(
		ctx, session.ID, session.PaymentStatus, models.PaymentStatusCompleted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidStateTransition
		}
		return err
	}

	switch session.Status {
	case models.SessionStatusApproved, models.SessionStatusAwaitingPayment:
		if _, err := txSessionRepo.UpdateStatusIfCurrent(
			ctx, session.ID, session.Status, models.SessionStatusScheduled,
		); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidStateTransition
			}
			return err
		}
	default:
		// Payment landed on a session no longer awaiting it (e.g. cancelled
		// in the meantime). Record the payment and leave the status for
		// reconciliation.
		s.log.Warn().
			Int64("session_id", session.ID).
			Str("status", session.Status).
			Msg("payment completed for session not awaiting payment")
	}

	// The captured charge lands in the platform wallet; settlements and
	// refunds are paid out of it later.
	txWalletRepo := repository.NewWalletRepository(tx)
	adminWallet, err := txWalletRepo.GetByOwnerID(ctx, s.adminUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	if _, err := txWalletRepo.Deposit(
		ctx,
		adminWallet.ID,
		session.Price,
		session.ID,
		models.TransactionKindPayment,
		"Payment received for session",
	); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.notifier != nil {
		go s.notifier.Notify(context.Background(), repository.CreateNotificationInput{
			RecipientID: session.DeveloperID,
			SenderID:    &session.UserID,
			Title:       "Session scheduled",
			Message:     "Payment received; the session is scheduled.",
			Category:    "payment",
			RelatedID:   &session.ID,
		})
	}
	return nil
}

func (s *PaymentWebhookService) applyCheckoutFailed(
	ctx context.Context,
	event *WebhookEvent,
) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	session, err := txSessionRepo.GetByIDForUpdate(ctx, event.Data.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	// Only a pending payment can fail; completed payments ignore stale
	// failure events, and a replayed failure is a no-op.
	if session.PaymentStatus != models.PaymentStatusPending {
		return nil
	}

	if _, err := txSessionRepo.UpdatePaymentStatusIfCurrent(
		ctx, session.ID, models.PaymentStatusPending, models.PaymentStatusFailed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidStateTransition
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.notifier != nil {
		go s.notifier.Notify(context.Background(), repository.CreateNotificationInput{
			RecipientID: session.UserID,
			Title:       "Payment failed",
			Message:     "Your session payment did not go through. Please try again.",
			Category:    "payment",
			RelatedID:   &session.ID,
		})
	}
	return nil
}
