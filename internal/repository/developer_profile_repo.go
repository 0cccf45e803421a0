package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

type DeveloperProfileRepository struct {
	db DBTX
}

func NewDeveloperProfileRepository(db DBTX) *DeveloperProfileRepository {
	return &DeveloperProfileRepository{db: db}
}

func (r *DeveloperProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	query := `INSERT INTO developer_profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *DeveloperProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.DeveloperProfile, error) {
	query := `
		SELECT id, user_id, hourly_rate, onboarding_complete, created_at, updated_at
		FROM developer_profiles
		WHERE user_id = $1
	`
	var profile models.DeveloperProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.HourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *DeveloperProfileRepository) UpdateRate(
	ctx context.Context,
	userID int64,
	hourlyRate decimal.Decimal,
) (*models.DeveloperProfile, error) {
	query := `
		UPDATE developer_profiles
		SET hourly_rate = $2, onboarding_complete = TRUE, updated_at = NOW()
		WHERE user_id = $1
		RETURNING id, user_id, hourly_rate, onboarding_complete, created_at, updated_at
	`
	var profile models.DeveloperProfile
	err := r.db.QueryRow(ctx, query, userID, hourlyRate).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.HourlyRate,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
