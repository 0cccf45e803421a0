// Package notification persists counterparty notifications and mirrors them
// to the presence hub for users currently connected. Delivery is best-effort:
// a failure is logged and never surfaces to the operation that raised it.
package notification

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
	presencews "github.com/gokul-gkm/DevConnect-Backend-sub001/internal/websocket"
)

type Service struct {
	repo *repository.NotificationRepository
	hub  *presencews.Hub
	log  zerolog.Logger
}

func NewService(
	repo *repository.NotificationRepository,
	hub *presencews.Hub,
	log zerolog.Logger,
) *Service {
	return &Service{repo: repo, hub: hub, log: log}
}

func (s *Service) Notify(ctx context.Context, input repository.CreateNotificationInput) {
	notification, err := s.repo.Create(ctx, input)
	if err != nil {
		s.log.Error().Err(err).
			Int64("recipient_id", input.RecipientID).
			Str("category", input.Category).
			Msg("failed to persist notification")
		return
	}

	if s.hub == nil {
		return
	}
	event := &presencews.Event{
		Type:    "notification." + input.Category,
		Title:   input.Title,
		Message: input.Message,
	}
	if input.RelatedID != nil {
		event.SessionID = strconv.FormatInt(*input.RelatedID, 10)
	}
	s.hub.Publish(notification.RecipientID, event)
}
