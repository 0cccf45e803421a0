package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

type stubConflictChecker struct {
	hasConflict bool
}

func (s *stubConflictChecker) HasConflict(_ context.Context, _ int64, _ time.Time, _ int) (bool, error) {
	return s.hasConflict, nil
}

type stubSlotStore struct {
	daily   map[string][]string
	weekly  map[int][]string
	deleted int64
}

func (s *stubSlotStore) GetUnavailableSlots(_ context.Context, developerID int64, date time.Time) (*models.DeveloperUnavailability, error) {
	slots, ok := s.daily[date.UTC().Format("2006-01-02")]
	if !ok {
		return nil, nil
	}
	return &models.DeveloperUnavailability{
		DeveloperID: developerID,
		Date:        date,
		Slots:       slots,
	}, nil
}

func (s *stubSlotStore) GetWeeklySlots(_ context.Context, _ int64, weekday int) ([]string, error) {
	return s.weekly[weekday], nil
}

func (s *stubSlotStore) DeleteOldRecords(_ context.Context, _ time.Time) (int64, error) {
	return s.deleted, nil
}

func newTestAvailabilityService(sessions *stubConflictChecker, slots *stubSlotStore) *AvailabilityService {
	return NewAvailabilityService(nil, sessions, slots, zerolog.Nop())
}

func TestSlotTokensSpansPartialBuckets(t *testing.T) {
	start := time.Date(2030, 6, 10, 9, 15, 0, 0, time.UTC)
	got := slotTokens(start, 60)
	want := []string{"09:00", "09:30", "10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slotTokens = %v, want %v", got, want)
	}
}

func TestSlotTokensAlignedHour(t *testing.T) {
	start := time.Date(2030, 6, 10, 14, 0, 0, 0, time.UTC)
	got := slotTokens(start, 90)
	want := []string{"14:00", "14:30", "15:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slotTokens = %v, want %v", got, want)
	}
}

func TestIsAvailableRejectsSessionOverlap(t *testing.T) {
	service := newTestAvailabilityService(
		&stubConflictChecker{hasConflict: true},
		&stubSlotStore{},
	)

	date := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC)
	available, err := service.IsAvailable(context.Background(), 7, date, start, 60)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if available {
		t.Fatal("expected overlapping session to make slot unavailable")
	}
}

func TestIsAvailableRejectsBlackedOutSlot(t *testing.T) {
	service := newTestAvailabilityService(
		&stubConflictChecker{},
		&stubSlotStore{daily: map[string][]string{
			"2030-06-10": {"10:30"},
		}},
	)

	date := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC)

	available, err := service.IsAvailable(context.Background(), 7, date, start, 60)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if available {
		t.Fatal("expected blacked-out bucket to make interval unavailable")
	}

	available, err = service.IsAvailable(context.Background(), 7, date, start, 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !available {
		t.Fatal("expected interval before the blackout to stay available")
	}
}

func TestIsAvailableFallsBackToWeeklyTemplate(t *testing.T) {
	// 2030-06-10 is a Monday (weekday 1).
	service := newTestAvailabilityService(
		&stubConflictChecker{},
		&stubSlotStore{weekly: map[int][]string{
			1: {"09:00", "09:30"},
		}},
	)

	date := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	blocked := time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)
	free := time.Date(2030, 6, 10, 11, 0, 0, 0, time.UTC)

	available, err := service.IsAvailable(context.Background(), 7, date, blocked, 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if available {
		t.Fatal("expected weekly template to block the slot")
	}

	available, err = service.IsAvailable(context.Background(), 7, date, free, 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !available {
		t.Fatal("expected slot outside the template to be available")
	}
}

func TestDailyOverrideShadowsWeeklyTemplate(t *testing.T) {
	// An empty per-day record means the developer cleared the template for
	// that date; the weekly blackout must not leak through.
	service := newTestAvailabilityService(
		&stubConflictChecker{},
		&stubSlotStore{
			daily:  map[string][]string{"2030-06-10": {}},
			weekly: map[int][]string{1: {"09:00"}},
		},
	)

	date := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	start := time.Date(2030, 6, 10, 9, 0, 0, 0, time.UTC)
	available, err := service.IsAvailable(context.Background(), 7, date, start, 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !available {
		t.Fatal("expected per-day override to shadow the weekly template")
	}
}

func TestIsAvailableRejectsInvalidInput(t *testing.T) {
	service := newTestAvailabilityService(&stubConflictChecker{}, &stubSlotStore{})
	now := time.Now()

	if _, err := service.IsAvailable(context.Background(), 0, now, now, 60); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for developer id 0, got %v", err)
	}
	if _, err := service.IsAvailable(context.Background(), 7, now, now, 0); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for zero duration, got %v", err)
	}
}

func TestGetUnavailableSlotsReturnsSortedTokens(t *testing.T) {
	service := newTestAvailabilityService(
		&stubConflictChecker{},
		&stubSlotStore{daily: map[string][]string{
			"2030-06-10": {"14:30", "09:00", "10:30"},
		}},
	)

	date := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	got, err := service.GetUnavailableSlots(context.Background(), 7, date)
	if err != nil {
		t.Fatalf("GetUnavailableSlots: %v", err)
	}
	want := []string{"09:00", "10:30", "14:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GetUnavailableSlots = %v, want %v", got, want)
	}
}

func TestNormalizeSlotTokens(t *testing.T) {
	got, err := normalizeSlotTokens([]string{"10:30", "09:00", "10:30"})
	if err != nil {
		t.Fatalf("normalizeSlotTokens: %v", err)
	}
	want := []string{"09:00", "10:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeSlotTokens = %v, want %v", got, want)
	}

	for _, token := range []string{"09:15", "9am", "25:00", ""} {
		if _, err := normalizeSlotTokens([]string{token}); err != ErrInvalidInput {
			t.Fatalf("expected ErrInvalidInput for token %q, got %v", token, err)
		}
	}
}

func TestPurgeExpiredReportsDeletedCount(t *testing.T) {
	service := newTestAvailabilityService(&stubConflictChecker{}, &stubSlotStore{deleted: 3})

	deleted, err := service.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted records, got %d", deleted)
	}
}
