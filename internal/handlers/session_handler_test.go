package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

type stubSessionService struct {
	session        *models.Session
	err            error
	listResult     []models.Session
	listTotal      int
	checkoutURL    string
	lastActorID    int64
	lastRole       string
	lastSessionID  int64
	lastReason     string
	lastBookInput  services.BookSessionInput
	lastListFilter repository.SessionListFilter
}

func (s *stubSessionService) BookSession(_ context.Context, userID int64, input services.BookSessionInput) (*models.Session, error) {
	s.lastActorID = userID
	s.lastBookInput = input
	return s.session, s.err
}

func (s *stubSessionService) ListSessions(_ context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.Session, int, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastListFilter = filter
	return s.listResult, s.listTotal, s.err
}

func (s *stubSessionService) GetSession(_ context.Context, actorID int64, role string, sessionID int64) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	return s.session, s.err
}

func (s *stubSessionService) Approve(_ context.Context, actorID int64, role string, sessionID int64) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	return s.session, s.err
}

func (s *stubSessionService) Reject(_ context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	s.lastReason = reason
	return s.session, s.err
}

func (s *stubSessionService) Cancel(_ context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	s.lastReason = reason
	return s.session, s.err
}

func (s *stubSessionService) StartCall(_ context.Context, actorID int64, role string, sessionID int64) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	return s.session, s.err
}

func (s *stubSessionService) EndCall(_ context.Context, actorID int64, role string, sessionID int64) (*models.Session, error) {
	s.record(actorID, role, sessionID)
	return s.session, s.err
}

func (s *stubSessionService) CreateCheckout(_ context.Context, actorID int64, role string, sessionID int64) (string, error) {
	s.record(actorID, role, sessionID)
	return s.checkoutURL, s.err
}

func (s *stubSessionService) record(actorID int64, role string, sessionID int64) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastSessionID = sessionID
}

func newSessionTestApp(service *stubSessionService, role, userID string) *fiber.App {
	handler := &SessionHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/sessions/book", handler.BookSession)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	app.Post("/api/v1/sessions/:id/approve", handler.Approve)
	app.Post("/api/v1/sessions/:id/reject", handler.Reject)
	app.Post("/api/v1/sessions/:id/cancel", handler.Cancel)
	app.Post("/api/v1/sessions/:id/checkout", handler.CreateCheckout)
	return app
}

func TestBookSessionReturnsCreatedSession(t *testing.T) {
	service := &stubSessionService{
		session: &models.Session{
			ID:              91,
			UserID:          42,
			DeveloperID:     7,
			Status:          models.SessionStatusPending,
			DurationMinutes: 60,
		},
	}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"developer_id": 7,
		"start_time": "2030-03-15T09:00:00Z",
		"duration_minutes": 60,
		"topic": "profiling a slow service"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor id 42, got %d", service.lastActorID)
	}
	if service.lastBookInput.DeveloperID != 7 {
		t.Fatalf("expected developer id 7, got %d", service.lastBookInput.DeveloperID)
	}
	if service.lastBookInput.DurationMinutes != 60 {
		t.Fatalf("expected 60 minutes, got %d", service.lastBookInput.DurationMinutes)
	}
}

func TestBookSessionRejectsDeveloperRole(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "developer", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"developer_id": 7,
		"start_time": "2030-03-15T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestBookSessionRejectsBadStartTime(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"developer_id": 7,
		"start_time": "tomorrow at nine",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookSessionMapsConflict(t *testing.T) {
	service := &stubSessionService{err: services.ErrConflict}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/book", strings.NewReader(`{
		"developer_id": 7,
		"start_time": "2030-03-15T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesFilter(t *testing.T) {
	service := &stubSessionService{
		listResult: []models.Session{{ID: 91}},
		listTotal:  23,
	}
	app := newSessionTestApp(service, "developer", "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?status=pending&timeframe=upcoming&page=2&limit=5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRole != "developer" {
		t.Fatalf("expected developer role, got %q", service.lastRole)
	}
	if service.lastListFilter.Status != "pending" || service.lastListFilter.Timeframe != "upcoming" {
		t.Fatalf("unexpected filter %+v", service.lastListFilter)
	}
	if service.lastListFilter.Limit != 5 || service.lastListFilter.Offset != 5 {
		t.Fatalf("expected limit 5 offset 5, got %+v", service.lastListFilter)
	}

	var body struct {
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Pagination.Total != 23 || body.Pagination.TotalPages != 5 {
		t.Fatalf("unexpected pagination %+v", body.Pagination)
	}
}

func TestListSessionsRejectsBadTimeframe(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?timeframe=someday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestApprovePassesSessionID(t *testing.T) {
	service := &stubSessionService{
		session: &models.Session{ID: 91, Status: models.SessionStatusApproved},
	}
	app := newSessionTestApp(service, "developer", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/approve", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 91 {
		t.Fatalf("expected session id 91, got %d", service.lastSessionID)
	}
}

func TestRejectRequiresReasonBody(t *testing.T) {
	service := &stubSessionService{err: services.ErrInvalidInput}
	app := newSessionTestApp(service, "developer", "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/reject", strings.NewReader(`{"reason": ""}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCancelMapsStateTransitionError(t *testing.T) {
	service := &stubSessionService{err: services.ErrInvalidStateTransition}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/cancel", strings.NewReader(`{"reason": "too late anyway"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastReason != "too late anyway" {
		t.Fatalf("expected reason to reach the service, got %q", service.lastReason)
	}
}

func TestCreateCheckoutReturnsURL(t *testing.T) {
	service := &stubSessionService{checkoutURL: "https://pay.example.com/checkout/abc"}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/checkout", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.CheckoutURL != service.checkoutURL {
		t.Fatalf("expected checkout url %q, got %q", service.checkoutURL, body.CheckoutURL)
	}
}

func TestGetSessionRejectsMalformedID(t *testing.T) {
	service := &stubSessionService{
		err:     services.ErrNotFound,
		session: &models.Session{ID: 91},
	}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/notanumber", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "Invalid session id" {
		t.Fatalf("expected rejection body, got %q", body.Error)
	}
	if service.lastSessionID != 0 {
		t.Fatalf("service was called with session id %d after rejection", service.lastSessionID)
	}
}

func TestApproveRejectsUnknownRole(t *testing.T) {
	service := &stubSessionService{
		session: &models.Session{ID: 91, Status: models.SessionStatusApproved},
	}
	app := newSessionTestApp(service, "admin", "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/91/approve", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 0 {
		t.Fatalf("service was called with session id %d after rejection", service.lastSessionID)
	}
}

func TestGetSessionMapsNotFound(t *testing.T) {
	service := &stubSessionService{err: services.ErrNotFound}
	app := newSessionTestApp(service, "user", "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/404", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
