package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventReviewSubmitted    EventType = "review.submitted"
	EventReviewStatusChange EventType = "review.status_changed"
	EventActiveMovieChanged EventType = "active_movie.changed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ReviewSubmittedEvent notifies moderators that a new review arrived
type ReviewSubmittedEvent struct {
	ReviewID    string `json:"review_id"`
	MovieID     string `json:"movie_id"`
	DisplayName string `json:"display_name"`
	DurationSec int    `json:"duration_sec"`
	SubmittedAt string `json:"submitted_at"`
}

// ReviewStatusChangedEvent notifies moderators of a status transition
type ReviewStatusChangedEvent struct {
	ReviewID  string       `json:"review_id"`
	Status    ReviewStatus `json:"status"`
	ChangedAt string       `json:"changed_at"`
}

// ActiveMovieChangedEvent notifies moderators of a pointer swap
type ActiveMovieChangedEvent struct {
	MovieID   string `json:"movie_id"`
	Title     string `json:"title"`
	ChangedAt string `json:"changed_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
