package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

const sessionColumns = `id, user_id, developer_id, session_date, start_time, duration_min, price,
	status, payment_status, payment_transfer_status, topic, rejection_reason, cancellation_reason,
	created_at, updated_at`

type CreateSessionInput struct {
	UserID          int64
	DeveloperID     int64
	SessionDate     time.Time
	StartTime       time.Time
	DurationMinutes int
	Price           decimal.Decimal
	Topic           *string
}

type SessionListFilter struct {
	ActorID   int64
	Role      string
	Status    string
	Timeframe string
	Limit     int
	Offset    int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.DeveloperID,
		&session.SessionDate,
		&session.StartTime,
		&session.DurationMinutes,
		&session.Price,
		&session.Status,
		&session.PaymentStatus,
		&session.PaymentTransferStatus,
		&session.Topic,
		&session.RejectionReason,
		&session.CancellationReason,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(
	ctx context.Context,
	input CreateSessionInput,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		INSERT INTO sessions (user_id, developer_id, session_date, start_time, duration_min, price, topic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, sessionColumns)

	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.DeveloperID,
		input.SessionDate,
		input.StartTime,
		input.DurationMinutes,
		input.Price,
		input.Topic,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(
	ctx context.Context,
	sessionID int64,
) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(
	ctx context.Context,
	filter SessionListFilter,
) ([]models.Session, error) {
	whereParts, args := buildSessionFilter(filter)
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY start_time ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, sessionColumns, strings.Join(whereParts, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) Count(ctx context.Context, filter SessionListFilter) (int, error) {
	whereParts, args := buildSessionFilter(filter)
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM sessions WHERE %s`,
		strings.Join(whereParts, " AND "),
	)

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildSessionFilter(filter SessionListFilter) ([]string, []any) {
	actorColumn := "user_id"
	if filter.Role == "developer" {
		actorColumn = "developer_id"
	}

	args := []any{filter.ActorID}
	whereParts := []string{fmt.Sprintf("%s = $1", actorColumn)}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(start_time + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(start_time + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	return whereParts, args
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) RejectIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	reason string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'rejected', rejection_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, reason))
}

func (r *SessionRepository) CancelIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	reason string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET status = 'cancelled', cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, reason))
}

func (r *SessionRepository) UpdatePaymentStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func (r *SessionRepository) UpdatePaymentTransferStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Session, error) {
	query := fmt.Sprintf(`
		UPDATE sessions
		SET payment_transfer_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_transfer_status = $2
		RETURNING %s
	`, sessionColumns)
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// HasConflict reports whether an interval overlaps any live session for the
// developer. The comparison is half-open, so back-to-back bookings do not
// conflict.
func (r *SessionRepository) HasConflict(
	ctx context.Context,
	developerID int64,
	startTime time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM sessions
			WHERE developer_id = $1
			  AND status NOT IN ('cancelled', 'rejected', 'completed')
			  AND start_time < ($2::timestamptz + ($3::int * INTERVAL '1 minute'))
			  AND (start_time + (duration_min * INTERVAL '1 minute')) > $2::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, developerID, startTime, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}
