package types

import "time"

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

type ReviewStatus string

const (
	StatusNew      ReviewStatus = "NEW"
	StatusApproved ReviewStatus = "APPROVED"
	StatusArchived ReviewStatus = "ARCHIVED"
	StatusRejected ReviewStatus = "REJECTED"
)

// ValidStatus reports whether s is one of the recognized review statuses.
func ValidStatus(s ReviewStatus) bool {
	switch s {
	case StatusNew, StatusApproved, StatusArchived, StatusRejected:
		return true
	}
	return false
}

type Movie struct {
	ID          string    `json:"id"`
	TMDBID      int64     `json:"tmdb_id"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	PosterURL   string    `json:"poster_url,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	MediaType   MediaType `json:"media_type"`
	Slug        string    `json:"slug"`
}

// Review is immutable after creation except for Status, Tags and DeletedAt.
type Review struct {
	ID        string `json:"id"`
	MovieID   string `json:"movie_id"`
	AudioURL  string `json:"audio_url"`
	AudioMime string `json:"audio_mime"`
	// AudioObjectKey locates the backing asset in blob storage. Persistence
	// detail, never exposed on the wire.
	AudioObjectKey string       `json:"-"`
	DurationSec    int          `json:"duration_sec"`
	DisplayName    string       `json:"display_name,omitempty"`
	Status         ReviewStatus `json:"status"`
	Tags           []string     `json:"tags"`
	CreatedAt      time.Time    `json:"created_at"`
	DeletedAt      *time.Time   `json:"deleted_at,omitempty"`

	// Movie metadata joined on list queries.
	Movie *Movie `json:"movie,omitempty"`
}

type SetActiveMovieRequest struct {
	TMDBID    int64     `json:"tmdb_id" validate:"required"`
	MediaType MediaType `json:"media_type" validate:"omitempty,oneof=movie tv"`
}

type UpdateReviewRequest struct {
	Status *ReviewStatus `json:"status,omitempty"`
	Tags   *[]string     `json:"tags,omitempty"`
}

// ReviewFilter narrows list queries. Zero values mean "no filter"; soft-deleted
// rows are always excluded.
type ReviewFilter struct {
	MovieID string
	Status  ReviewStatus
}
