package storage

import (
	"errors"

	"github.com/savcinema/voicereview-service/internal/types"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

type Storage interface {
	// Movies
	UpsertMovie(movie types.Movie) (types.Movie, error)
	GetMovieByID(id string) (types.Movie, error)

	// Active-movie pointer. GetActiveMovie returns (nil, nil) when no movie
	// is pinned; absence is not an error.
	SetActiveMovie(movieID string) error
	GetActiveMovie() (*types.Movie, error)

	// Reviews
	CreateReview(review types.Review) (types.Review, error)
	GetReviewByID(id string) (types.Review, error)
	ListReviews(filter types.ReviewFilter) ([]types.Review, error)
	UpdateReview(id string, status *types.ReviewStatus, tags *[]string) (types.Review, error)
	SoftDeleteReview(id string) error
	HardDeleteReview(id string) error

	// Admin users
	CreateAdminUser(email, passwordHash string) (string, error)
	GetAdminByEmail(email string) (string, string, error)
	CountAdminUsers() (int, error)
}
