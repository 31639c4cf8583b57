package events

import (
	"time"

	"github.com/savcinema/voicereview-service/internal/types"
)

// Publisher interface for publishing moderation events
type Publisher interface {
	PublishReviewSubmitted(review types.Review)
	PublishReviewStatusChanged(reviewID string, status types.ReviewStatus)
	PublishActiveMovieChanged(movie types.Movie)
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToAdmins(event *types.Event)
	HasClients() bool
}

// EventPublisher pushes moderation events to connected admin sessions
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishReviewSubmitted notifies admins that a new review arrived
func (p *EventPublisher) PublishReviewSubmitted(review types.Review) {
	if !p.hub.HasClients() {
		return
	}

	eventData := &types.ReviewSubmittedEvent{
		ReviewID:    review.ID,
		MovieID:     review.MovieID,
		DisplayName: review.DisplayName,
		DurationSec: review.DurationSec,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToAdmins(types.NewEvent(types.EventReviewSubmitted, eventData))
}

// PublishReviewStatusChanged notifies admins of a status transition
func (p *EventPublisher) PublishReviewStatusChanged(reviewID string, status types.ReviewStatus) {
	if !p.hub.HasClients() {
		return
	}

	eventData := &types.ReviewStatusChangedEvent{
		ReviewID:  reviewID,
		Status:    status,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToAdmins(types.NewEvent(types.EventReviewStatusChange, eventData))
}

// PublishActiveMovieChanged notifies admins of a pointer swap
func (p *EventPublisher) PublishActiveMovieChanged(movie types.Movie) {
	if !p.hub.HasClients() {
		return
	}

	eventData := &types.ActiveMovieChangedEvent{
		MovieID:   movie.ID,
		Title:     movie.Title,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToAdmins(types.NewEvent(types.EventActiveMovieChanged, eventData))
}

// NoopPublisher drops all events. Used where no hub is wired, e.g. tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishReviewSubmitted(types.Review)                   {}
func (NoopPublisher) PublishReviewStatusChanged(string, types.ReviewStatus) {}
func (NoopPublisher) PublishActiveMovieChanged(types.Movie)                 {}
