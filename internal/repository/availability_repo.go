package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// GetUnavailableSlots returns the per-day blackout record, or nil when the
// developer has no override for that date.
func (r *AvailabilityRepository) GetUnavailableSlots(
	ctx context.Context,
	developerID int64,
	date time.Time,
) (*models.DeveloperUnavailability, error) {
	query := `
		SELECT id, developer_id, date, slots, created_at, updated_at
		FROM developer_unavailability
		WHERE developer_id = $1 AND date = $2::date
	`
	var record models.DeveloperUnavailability
	err := r.db.QueryRow(ctx, query, developerID, date).Scan(
		&record.ID,
		&record.DeveloperID,
		&record.Date,
		&record.Slots,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *AvailabilityRepository) UpsertUnavailableSlots(
	ctx context.Context,
	developerID int64,
	date time.Time,
	slots []string,
) (*models.DeveloperUnavailability, error) {
	query := `
		INSERT INTO developer_unavailability (developer_id, date, slots)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (developer_id, date)
		DO UPDATE SET slots = EXCLUDED.slots, updated_at = NOW()
		RETURNING id, developer_id, date, slots, created_at, updated_at
	`
	var record models.DeveloperUnavailability
	err := r.db.QueryRow(ctx, query, developerID, date, slots).Scan(
		&record.ID,
		&record.DeveloperID,
		&record.Date,
		&record.Slots,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetWeeklySlots returns the template blackout for a weekday (0 = Sunday).
// Missing template rows read as an empty slot set.
func (r *AvailabilityRepository) GetWeeklySlots(
	ctx context.Context,
	developerID int64,
	weekday int,
) ([]string, error) {
	query := `
		SELECT slots
		FROM developer_weekly_unavailability
		WHERE developer_id = $1 AND weekday = $2
	`
	var slots []string
	err := r.db.QueryRow(ctx, query, developerID, weekday).Scan(&slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return slots, nil
}

func (r *AvailabilityRepository) UpsertWeeklySlots(
	ctx context.Context,
	developerID int64,
	weekday int,
	slots []string,
) error {
	query := `
		INSERT INTO developer_weekly_unavailability (developer_id, weekday, slots)
		VALUES ($1, $2, $3)
		ON CONFLICT (developer_id, weekday)
		DO UPDATE SET slots = EXCLUDED.slots, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, developerID, weekday, slots)
	return err
}

// DeleteOldRecords purges per-day blackout rows older than the cutoff date.
func (r *AvailabilityRepository) DeleteOldRecords(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM developer_unavailability WHERE date < $1::date`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
