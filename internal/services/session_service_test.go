package services

import (
	"testing"
	"time"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

func TestValidateCancellationCutoff(t *testing.T) {
	now := time.Date(2030, 6, 10, 8, 0, 0, 0, time.UTC)
	session := &models.Session{
		UserID: 42,
		Status: models.SessionStatusScheduled,
	}

	// 13 hours out: still cancellable.
	session.StartTime = now.Add(13 * time.Hour)
	if err := validateCancellation(session, 42, now); err != nil {
		t.Fatalf("expected cancellation 13h ahead to pass, got %v", err)
	}

	// Exactly 12 hours out: too late, the boundary itself is excluded.
	session.StartTime = now.Add(cancellationCutoff)
	if err := validateCancellation(session, 42, now); err != ErrConflict {
		t.Fatalf("expected ErrConflict at the 12h boundary, got %v", err)
	}

	session.StartTime = now.Add(2 * time.Hour)
	if err := validateCancellation(session, 42, now); err != ErrConflict {
		t.Fatalf("expected ErrConflict inside the cutoff, got %v", err)
	}
}

func TestValidateCancellationRequiresOwner(t *testing.T) {
	now := time.Now()
	session := &models.Session{
		UserID:    42,
		Status:    models.SessionStatusPending,
		StartTime: now.Add(48 * time.Hour),
	}

	if err := validateCancellation(session, 99, now); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
}

func TestValidateCancellationStates(t *testing.T) {
	now := time.Now()
	cancellable := []string{
		models.SessionStatusPending,
		models.SessionStatusApproved,
		models.SessionStatusAwaitingPayment,
		models.SessionStatusScheduled,
	}
	terminal := []string{
		models.SessionStatusActive,
		models.SessionStatusCompleted,
		models.SessionStatusCancelled,
		models.SessionStatusRejected,
	}

	session := &models.Session{UserID: 42, StartTime: now.Add(48 * time.Hour)}
	for _, status := range cancellable {
		session.Status = status
		if err := validateCancellation(session, 42, now); err != nil {
			t.Fatalf("expected %s session to be cancellable, got %v", status, err)
		}
	}
	for _, status := range terminal {
		session.Status = status
		if err := validateCancellation(session, 42, now); err != ErrInvalidStateTransition {
			t.Fatalf("expected ErrInvalidStateTransition for %s session, got %v", status, err)
		}
	}
}

func TestCanAccessSession(t *testing.T) {
	session := &models.Session{UserID: 1, DeveloperID: 2}

	if !canAccessSession("user", 1, session) {
		t.Fatal("expected the booking user to have access")
	}
	if canAccessSession("user", 2, session) {
		t.Fatal("expected another user to be denied")
	}
	if !canAccessSession("developer", 2, session) {
		t.Fatal("expected the assigned developer to have access")
	}
	if canAccessSession("developer", 1, session) {
		t.Fatal("expected another developer to be denied")
	}
	if canAccessSession("admin", 1, session) {
		t.Fatal("expected unknown role to be denied")
	}
}

func TestSessionEndTime(t *testing.T) {
	start := time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC)
	session := &models.Session{StartTime: start, DurationMinutes: 90}
	if got, want := session.EndTime(), start.Add(90*time.Minute); !got.Equal(want) {
		t.Fatalf("EndTime = %v, want %v", got, want)
	}
}
