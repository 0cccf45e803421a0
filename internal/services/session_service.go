package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
)

// Cancellation closes this long before the session starts; exactly at the
// boundary is already too late.
const cancellationCutoff = 12 * time.Hour

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type developerProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.DeveloperProfile, error)
}

type checkoutCreator interface {
	CreateCheckoutSession(session *models.Session) (string, error)
}

// Notifier delivers counterparty notifications. Implementations must never
// fail the calling operation; delivery problems are their own to log.
type Notifier interface {
	Notify(ctx context.Context, input repository.CreateNotificationInput)
}

type settlementRunner interface {
	Settle(ctx context.Context, sessionID int64) error
	RefundInTx(ctx context.Context, tx pgx.Tx, session *models.Session, reason string) error
}

type SessionService struct {
	db          *pgxpool.Pool
	sessionRepo *repository.SessionRepository
	userRepo    userReader
	profileRepo developerProfileReader
	slotRepo    slotStore
	gateway     checkoutCreator
	settlement  settlementRunner
	notifier    Notifier
	log         zerolog.Logger
}

func NewSessionService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	userRepo userReader,
	profileRepo developerProfileReader,
	slotRepo slotStore,
	gateway checkoutCreator,
	settlement settlementRunner,
	notifier Notifier,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		db:          db,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		slotRepo:    slotRepo,
		gateway:     gateway,
		settlement:  settlement,
		notifier:    notifier,
		log:         log,
	}
}

type BookSessionInput struct {
	DeveloperID     int64
	StartTime       time.Time
	DurationMinutes int
	Topic           *string
}

func (s *SessionService) BookSession(
	ctx context.Context,
	userID int64,
	input BookSessionInput,
) (*models.Session, error) {
	if input.DeveloperID <= 0 || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.StartTime.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}
	if userID == input.DeveloperID {
		return nil, ErrInvalidInput
	}

	developer, err := s.userRepo.GetByID(ctx, input.DeveloperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeveloperNotFound
		}
		return nil, err
	}
	if developer.Role != "developer" {
		return nil, ErrInvalidInput
	}

	profile, err := s.profileRepo.GetByUserID(ctx, input.DeveloperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeveloperNotFound
		}
		return nil, err
	}
	if !profile.OnboardingComplete || profile.HourlyRate == nil || !profile.HourlyRate.IsPositive() {
		return nil, ErrInvalidInput
	}

	price := profile.HourlyRate.
		Mul(decimal.NewFromInt(int64(input.DurationMinutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)

	startTime := input.StartTime.UTC()
	sessionDate := startTime.Truncate(24 * time.Hour)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Serializes concurrent bookings (and blackout edits) for one developer;
	// the lock holder re-checks availability before inserting, so exactly one
	// of two racing requests wins.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.DeveloperID); err != nil {
		return nil, err
	}

	txSessionRepo := repository.NewSessionRepository(tx)
	txSlotRepo := repository.NewAvailabilityRepository(tx)

	free, err := checkSlotFree(
		ctx,
		txSessionRepo,
		txSlotRepo,
		input.DeveloperID,
		sessionDate,
		startTime,
		input.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, ErrConflict
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		UserID:          userID,
		DeveloperID:     input.DeveloperID,
		SessionDate:     sessionDate,
		StartTime:       startTime,
		DurationMinutes: input.DurationMinutes,
		Price:           price,
		Topic:           input.Topic,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: session.DeveloperID,
		SenderID:    &session.UserID,
		Title:       "New session request",
		Message:     "A client requested a session on " + session.StartTime.Format(time.RFC1123),
		Category:    "session",
		RelatedID:   &session.ID,
	})
	return session, nil
}

func (s *SessionService) Approve(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.loadForDeveloperAction(ctx, actorID, role, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(
		ctx, session.ID, models.SessionStatusPending, models.SessionStatusApproved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: updated.UserID,
		SenderID:    &updated.DeveloperID,
		Title:       "Session approved",
		Message:     "Your session request was approved. Complete the payment to schedule it.",
		Category:    "session",
		RelatedID:   &updated.ID,
	})
	return updated, nil
}

func (s *SessionService) Reject(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	reason string,
) (*models.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidInput
	}
	session, err := s.loadForDeveloperAction(ctx, actorID, role, sessionID)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.RejectIfCurrent(ctx, session.ID, models.SessionStatusPending, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: updated.UserID,
		SenderID:    &updated.DeveloperID,
		Title:       "Session rejected",
		Message:     "Your session request was rejected: " + reason,
		Category:    "session",
		RelatedID:   &updated.ID,
	})
	return updated, nil
}

// CreateCheckout moves an approved session into awaiting_payment and returns
// the gateway redirect URL. Safe to call again while payment is pending; the
// client just gets a fresh checkout link.
func (s *SessionService) CreateCheckout(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (string, error) {
	session, err := s.getOwned(ctx, actorID, role, sessionID)
	if err != nil {
		return "", err
	}
	if session.PaymentStatus == models.PaymentStatusCompleted {
		return "", ErrInvalidStateTransition
	}

	switch session.Status {
	case models.SessionStatusApproved:
		updated, err := s.sessionRepo.UpdateStatusIfCurrent(
			ctx, session.ID, models.SessionStatusApproved, models.SessionStatusAwaitingPayment,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", ErrInvalidStateTransition
			}
			return "", err
		}
		session = updated
	case models.SessionStatusAwaitingPayment:
		// retry, keep state
	default:
		return "", ErrInvalidStateTransition
	}

	url, err := s.gateway.CreateCheckoutSession(session)
	if err != nil {
		return "", errors.Join(ErrPaymentGateway, err)
	}
	return url, nil
}

func (s *SessionService) Cancel(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
	reason string,
) (*models.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrInvalidInput
	}
	if role != "user" {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := validateCancellation(session, actorID, time.Now()); err != nil {
		return nil, err
	}

	updated, err := txSessionRepo.CancelIfCurrent(ctx, session.ID, session.Status, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	// A paid session refunds in the same transaction as the status change:
	// either the session is cancelled and the money is back, or neither.
	if session.PaymentStatus == models.PaymentStatusCompleted {
		if err := s.settlement.RefundInTx(ctx, tx, updated, reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: updated.DeveloperID,
		SenderID:    &updated.UserID,
		Title:       "Session cancelled",
		Message:     "The client cancelled the session: " + reason,
		Category:    "session",
		RelatedID:   &updated.ID,
	})
	return updated, nil
}

func (s *SessionService) StartCall(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	if _, err := s.loadForHostAction(ctx, actorID, role, sessionID); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(
		ctx, sessionID, models.SessionStatusScheduled, models.SessionStatusActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: updated.UserID,
		SenderID:    &updated.DeveloperID,
		Title:       "Session started",
		Message:     "Your mentor started the call.",
		Category:    "session",
		RelatedID:   &updated.ID,
	})
	return updated, nil
}

func (s *SessionService) EndCall(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	if _, err := s.loadForHostAction(ctx, actorID, role, sessionID); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.UpdateStatusIfCurrent(
		ctx, sessionID, models.SessionStatusActive, models.SessionStatusCompleted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	// Settlement is idempotent and re-runnable; a failure here is logged for
	// reconciliation rather than undoing the completed session.
	if err := s.settlement.Settle(ctx, updated.ID); err != nil {
		s.log.Error().Err(err).Int64("session_id", updated.ID).Msg("settlement failed after session completion")
	} else if refreshed, err := s.sessionRepo.GetByID(ctx, updated.ID); err == nil {
		updated = refreshed
	}

	s.notifyAsync(repository.CreateNotificationInput{
		RecipientID: updated.UserID,
		SenderID:    &updated.DeveloperID,
		Title:       "Session completed",
		Message:     "Your session has been completed.",
		Category:    "session",
		RelatedID:   &updated.ID,
	})
	return updated, nil
}

func (s *SessionService) ListSessions(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.SessionListFilter,
) ([]models.Session, int, error) {
	filter.ActorID = actorID
	filter.Role = role
	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessionRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s *SessionService) GetSession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canAccessSession(role, actorID, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionService) loadForDeveloperAction(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != "developer" || session.DeveloperID != actorID {
		return nil, ErrForbidden
	}
	return session, nil
}

// loadForHostAction guards call control: only the session's recorded host,
// the assigned developer, may start or end the call.
func (s *SessionService) loadForHostAction(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	return s.loadForDeveloperAction(ctx, actorID, role, sessionID)
}

func (s *SessionService) getOwned(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID int64,
) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != "user" || session.UserID != actorID {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionService) notifyAsync(input repository.CreateNotificationInput) {
	if s.notifier == nil {
		return
	}
	go s.notifier.Notify(context.Background(), input)
}

func canAccessSession(role string, actorID int64, session *models.Session) bool {
	if role == "user" {
		return session.UserID == actorID
	}
	if role == "developer" {
		return session.DeveloperID == actorID
	}
	return false
}

func validateCancellation(session *models.Session, actorID int64, now time.Time) error {
	if session.UserID != actorID {
		return ErrForbidden
	}
	switch session.Status {
	case models.SessionStatusPending,
		models.SessionStatusApproved,
		models.SessionStatusAwaitingPayment,
		models.SessionStatusScheduled:
	default:
		return ErrInvalidStateTransition
	}
	if session.StartTime.Sub(now) <= cancellationCutoff {
		return ErrConflict
	}
	return nil
}
