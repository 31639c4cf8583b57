package activemovie

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/savcinema/voicereview-service/internal/events"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/tmdb"
	"github.com/savcinema/voicereview-service/internal/types"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

// Catalog is the slice of the TMDB client the pointer swap needs.
type Catalog interface {
	GetMedia(ctx context.Context, id int64, mediaType types.MediaType) (*tmdb.Media, error)
}

// PointerCache serves hot reads of the singleton pointer.
type PointerCache interface {
	GetActiveMovie(ctx context.Context) (*types.Movie, error)
	InvalidateActiveMovie(ctx context.Context)
}

type ActiveMovieResponse struct {
	ActiveMovie *types.Movie `json:"active_movie"`
}

// Get returns the pinned movie, or null when none is pinned
// @Summary Get the active movie
// @Description Return the currently pinned movie; absence is not an error
// @Tags active-movie
// @Produce json
// @Success 200 {object} ActiveMovieResponse "Active movie or null"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /public/active-movie [get]
func Get(cache PointerCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movie, err := cache.GetActiveMovie(r.Context())
		if err != nil {
			slog.Error("Failed to get active movie", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get active movie")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Active movie fetched successfully", ActiveMovieResponse{ActiveMovie: movie}))
	}
}

// GetAuthoritative bypasses the cache for the admin dashboard
// @Summary Get the active movie (admin)
// @Tags active-movie
// @Produce json
// @Success 200 {object} ActiveMovieResponse "Active movie or null"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/active-movie [get]
func GetAuthoritative(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movie, err := store.GetActiveMovie()
		if err != nil {
			slog.Error("Failed to get active movie", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to get active movie")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Active movie fetched successfully", ActiveMovieResponse{ActiveMovie: movie}))
	}
}

// Set pins a new active movie by catalog ID
// @Summary Set the active movie
// @Description Fetch catalog metadata, upsert the movie and swap the singleton pointer
// @Tags active-movie
// @Accept json
// @Produce json
// @Param request body types.SetActiveMovieRequest true "Catalog reference"
// @Success 200 {object} ActiveMovieResponse "New active movie"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found in catalog"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/active-movie [post]
func Set(store storage.Storage, catalog Catalog, cache PointerCache, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetActiveMovieRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if req.MediaType == "" {
			req.MediaType = types.MediaTypeMovie
		}

		details, err := catalog.GetMedia(r.Context(), req.TMDBID, req.MediaType)
		if err != nil {
			if errors.Is(err, tmdb.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found in catalog")))
				return
			}
			slog.Error("Catalog lookup failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("catalog lookup failed")))
			return
		}

		movie, err := store.UpsertMovie(details.ToMovie())
		if err != nil {
			slog.Error("Failed to upsert movie", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to save movie")))
			return
		}

		if err := store.SetActiveMovie(movie.ID); err != nil {
			slog.Error("Failed to set active movie", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to set active movie")))
			return
		}

		cache.InvalidateActiveMovie(r.Context())
		publisher.PublishActiveMovieChanged(movie)
		slog.Info("Active movie changed", slog.String("movie_id", movie.ID), slog.String("title", movie.Title))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Active movie set successfully", ActiveMovieResponse{ActiveMovie: &movie}))
	}
}
