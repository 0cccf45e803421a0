package services

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
)

const slotInterval = 30 * time.Minute

type sessionConflictChecker interface {
	HasConflict(ctx context.Context, developerID int64, startTime time.Time, durationMinutes int) (bool, error)
}

type slotStore interface {
	GetUnavailableSlots(ctx context.Context, developerID int64, date time.Time) (*models.DeveloperUnavailability, error)
	GetWeeklySlots(ctx context.Context, developerID int64, weekday int) ([]string, error)
	DeleteOldRecords(ctx context.Context, before time.Time) (int64, error)
}

type AvailabilityService struct {
	db          *pgxpool.Pool
	sessionRepo sessionConflictChecker
	slotRepo    slotStore
	log         zerolog.Logger
}

func NewAvailabilityService(
	db *pgxpool.Pool,
	sessionRepo sessionConflictChecker,
	slotRepo slotStore,
	log zerolog.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		db:          db,
		sessionRepo: sessionRepo,
		slotRepo:    slotRepo,
		log:         log,
	}
}

// IsAvailable reports whether the interval [startTime, startTime+duration)
// can be booked: no overlapping live session and no blackout token on the
// spanned half-hour buckets. Read-only.
func (s *AvailabilityService) IsAvailable(
	ctx context.Context,
	developerID int64,
	date time.Time,
	startTime time.Time,
	durationMinutes int,
) (bool, error) {
	if developerID <= 0 || durationMinutes <= 0 {
		return false, ErrInvalidInput
	}
	return checkSlotFree(ctx, s.sessionRepo, s.slotRepo, developerID, date, startTime, durationMinutes)
}

// checkSlotFree is shared between the read-only availability endpoint and the
// booking transaction, which re-runs it with tx-bound repositories under the
// per-developer advisory lock.
func checkSlotFree(
	ctx context.Context,
	sessions sessionConflictChecker,
	slots slotStore,
	developerID int64,
	date time.Time,
	startTime time.Time,
	durationMinutes int,
) (bool, error) {
	hasConflict, err := sessions.HasConflict(ctx, developerID, startTime.UTC(), durationMinutes)
	if err != nil {
		return false, err
	}
	if hasConflict {
		return false, nil
	}

	blocked, err := unavailableTokens(ctx, slots, developerID, date)
	if err != nil {
		return false, err
	}
	if len(blocked) == 0 {
		return true, nil
	}

	for _, token := range slotTokens(startTime, durationMinutes) {
		if _, ok := blocked[token]; ok {
			return false, nil
		}
	}
	return true, nil
}

func unavailableTokens(
	ctx context.Context,
	slots slotStore,
	developerID int64,
	date time.Time,
) (map[string]struct{}, error) {
	record, err := slots.GetUnavailableSlots(ctx, developerID, date)
	if err != nil {
		return nil, err
	}

	var tokens []string
	if record != nil {
		tokens = record.Slots
	} else {
		tokens, err = slots.GetWeeklySlots(ctx, developerID, int(date.UTC().Weekday()))
		if err != nil {
			return nil, err
		}
	}

	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set, nil
}

// slotTokens lists the half-hour buckets spanned by an interval: a partially
// covered bucket counts as spanned.
func slotTokens(startTime time.Time, durationMinutes int) []string {
	start := startTime.UTC().Truncate(slotInterval)
	end := startTime.UTC().Add(time.Duration(durationMinutes) * time.Minute)

	tokens := make([]string, 0, durationMinutes/30+1)
	for t := start; t.Before(end); t = t.Add(slotInterval) {
		tokens = append(tokens, t.Format("15:04"))
	}
	return tokens
}

// GetUnavailableSlots returns the effective blackout for a date: the per-day
// override when one exists, otherwise the weekly template.
func (s *AvailabilityService) GetUnavailableSlots(
	ctx context.Context,
	developerID int64,
	date time.Time,
) ([]string, error) {
	if developerID <= 0 {
		return nil, ErrInvalidInput
	}
	blocked, err := unavailableTokens(ctx, s.slotRepo, developerID, date)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(blocked))
	for token := range blocked {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens, nil
}

// SetUnavailableSlots replaces the developer's blackout for one date. A token
// whose half-hour interval overlaps a live session cannot be blacked out; the
// same advisory lock used by booking closes the race between a developer
// marking a slot and a client booking it.
func (s *AvailabilityService) SetUnavailableSlots(
	ctx context.Context,
	developerID int64,
	date time.Time,
	tokens []string,
) (*models.DeveloperUnavailability, error) {
	if developerID <= 0 {
		return nil, ErrInvalidInput
	}
	normalized, err := normalizeSlotTokens(tokens)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", developerID); err != nil {
		return nil, err
	}

	txSessionRepo := repository.NewSessionRepository(tx)
	day := date.UTC().Truncate(24 * time.Hour)
	for _, token := range normalized {
		slotStart, err := tokenStart(day, token)
		if err != nil {
			return nil, err
		}
		hasConflict, err := txSessionRepo.HasConflict(ctx, developerID, slotStart, int(slotInterval.Minutes()))
		if err != nil {
			return nil, err
		}
		if hasConflict {
			return nil, ErrConflict
		}
	}

	record, err := repository.NewAvailabilityRepository(tx).
		UpsertUnavailableSlots(ctx, developerID, day, normalized)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// SetWeeklySlots replaces the default blackout template for one weekday.
func (s *AvailabilityService) SetWeeklySlots(
	ctx context.Context,
	developerID int64,
	weekday int,
	tokens []string,
) error {
	if developerID <= 0 || weekday < 0 || weekday > 6 {
		return ErrInvalidInput
	}
	normalized, err := normalizeSlotTokens(tokens)
	if err != nil {
		return err
	}
	return repository.NewAvailabilityRepository(s.db).
		UpsertWeeklySlots(ctx, developerID, weekday, normalized)
}

// PurgeExpired drops per-day blackout records for past dates. Scheduled by
// the server's cron runner.
func (s *AvailabilityService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.slotRepo.DeleteOldRecords(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("purged expired unavailability records")
	}
	return deleted, nil
}

func normalizeSlotTokens(tokens []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tokens))
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		parsed, err := time.Parse("15:04", token)
		if err != nil || parsed.Minute()%30 != 0 {
			return nil, ErrInvalidInput
		}
		canonical := parsed.Format("15:04")
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		normalized = append(normalized, canonical)
	}
	sort.Strings(normalized)
	return normalized, nil
}

func tokenStart(day time.Time, token string) (time.Time, error) {
	parsed, err := time.Parse("15:04", token)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, time.UTC,
	), nil
}
