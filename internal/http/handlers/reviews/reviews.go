package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/savcinema/voicereview-service/internal/events"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/types"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

// MaxDurationSec is the capture ceiling enforced on the client; submissions
// declaring more are rejected.
const MaxDurationSec = 90

// BlobStore is the slice of the media service the submission and deletion
// paths need.
type BlobStore interface {
	ValidateContentType(contentType string) bool
	MaxFileSize() int64
	GenerateObjectKey(contentType string) string
	PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	GetMediaURL(objectKey string) string
	DeleteObject(objectKey string) error
}

type SubmitResponse struct {
	Review types.Review `json:"review"`
}

type ListResponse struct {
	Reviews []types.Review `json:"reviews"`
}

// Submit handles an anonymous multipart review submission
// @Summary Submit a voice review
// @Description Submit a recorded voice review for the referenced movie
// @Tags reviews
// @Accept multipart/form-data
// @Produce json
// @Param movieId formData string true "Movie ID"
// @Param audioFile formData file true "Recorded audio"
// @Param durationSec formData int true "Recording duration in seconds"
// @Param displayName formData string false "Reviewer pseudonym"
// @Success 201 {object} SubmitResponse "Review created"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Movie not found"
// @Failure 429 {object} response.Response "Rate limited"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /public/reviews [post]
func Submit(store storage.Storage, blobs BlobStore, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Reject oversized bodies before buffering the whole upload
		r.Body = http.MaxBytesReader(w, r.Body, blobs.MaxFileSize()+1<<20)

		if err := r.ParseMultipartForm(blobs.MaxFileSize()); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}

		movieID := r.FormValue("movieId")
		if movieID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("movieId is required")))
			return
		}

		durationSec, err := strconv.Atoi(r.FormValue("durationSec"))
		if err != nil || durationSec <= 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("durationSec must be a positive integer")))
			return
		}
		if durationSec > MaxDurationSec {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("durationSec exceeds the recording ceiling")))
			return
		}

		file, header, err := r.FormFile("audioFile")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("audioFile is required")))
			return
		}
		defer file.Close()

		if header.Size == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("audio payload is empty")))
			return
		}
		if header.Size > blobs.MaxFileSize() {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("audio payload exceeds size limit")))
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "audio/webm"
		}
		if !blobs.ValidateContentType(contentType) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unsupported audio content type")))
			return
		}

		displayName := r.FormValue("displayName")
		if displayName == "" {
			displayName = "Anonymous"
		}

		// The review must reference an existing movie
		if _, err := store.GetMovieByID(movieID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("movie not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to verify movie")))
			return
		}

		objectKey := blobs.GenerateObjectKey(contentType)
		if err := blobs.PutObject(r.Context(), objectKey, file, header.Size, contentType); err != nil {
			slog.Error("Failed to store review audio", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to store audio")))
			return
		}

		review, err := store.CreateReview(types.Review{
			MovieID:        movieID,
			AudioURL:       blobs.GetMediaURL(objectKey),
			AudioObjectKey: objectKey,
			AudioMime:      contentType,
			DurationSec:    durationSec,
			DisplayName:    displayName,
			Status:         types.StatusNew,
			Tags:           []string{},
		})
		if err != nil {
			slog.Error("Failed to create review", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to create review")))
			return
		}
		slog.Info("Review submitted", slog.String("review_id", review.ID), slog.String("movie_id", movieID))

		publisher.PublishReviewSubmitted(review)

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Review submitted successfully", SubmitResponse{Review: review}))
	}
}

// List returns all non-deleted reviews, newest first
// @Summary List reviews
// @Description List reviews for moderation, optionally filtered by movie and status
// @Tags reviews
// @Produce json
// @Param movieId query string false "Filter by movie ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse "Reviews"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/reviews [get]
func List(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := types.ReviewFilter{
			MovieID: r.URL.Query().Get("movieId"),
		}

		if status := r.URL.Query().Get("status"); status != "" {
			if !types.ValidStatus(types.ReviewStatus(status)) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unrecognized status value")))
				return
			}
			filter.Status = types.ReviewStatus(status)
		}

		reviews, err := store.ListReviews(filter)
		if err != nil {
			slog.Error("Failed to list reviews", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to list reviews")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Reviews fetched successfully", ListResponse{Reviews: reviews}))
	}
}

// Update relabels a review's status and/or replaces its tag set
// @Summary Update a review
// @Description Set moderation status and/or replace the tag set of a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Param request body types.UpdateReviewRequest true "Fields to update"
// @Success 200 {object} SubmitResponse "Updated review"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Review not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/reviews/{id} [patch]
func Update(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("review ID is required")))
			return
		}

		var req types.UpdateReviewRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if req.Status != nil && !types.ValidStatus(*req.Status) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unrecognized status value")))
			return
		}

		review, err := store.UpdateReview(id, req.Status, req.Tags)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("review not found")))
				return
			}
			slog.Error("Failed to update review", slog.String("error", err.Error()), slog.String("review_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to update review")))
			return
		}

		if req.Status != nil {
			publisher.PublishReviewStatusChanged(review.ID, review.Status)
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Review updated successfully", SubmitResponse{Review: review}))
	}
}

// Delete soft-deletes a review, or hard-deletes it (including the backing
// audio asset) when hard=1 is passed
// @Summary Delete a review
// @Description Soft-delete a review; pass hard=1 to remove the record and its audio asset
// @Tags reviews
// @Produce json
// @Param id path string true "Review ID"
// @Param hard query string false "Hard delete when set to 1"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Review not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/reviews/{id} [delete]
func Delete(store storage.Storage, blobs BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("review ID is required")))
			return
		}

		hard := r.URL.Query().Get("hard")
		if hard == "1" || hard == "true" {
			hardDelete(w, store, blobs, id)
			return
		}

		err := store.SoftDeleteReview(id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("review not found")))
				return
			}
			slog.Error("Failed to delete review", slog.String("error", err.Error()), slog.String("review_id", id))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to delete review")))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func hardDelete(w http.ResponseWriter, store storage.Storage, blobs BlobStore, id string) {
	review, err := store.GetReviewByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("review not found")))
			return
		}
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to load review")))
		return
	}

	// Best-effort asset removal: a storage fault must not block record removal
	if review.AudioObjectKey != "" {
		if err := blobs.DeleteObject(review.AudioObjectKey); err != nil {
			slog.Warn("Failed to delete review audio asset",
				slog.String("review_id", id),
				slog.String("object_key", review.AudioObjectKey),
				slog.String("error", err.Error()))
		}
	}

	if err := store.HardDeleteReview(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("review not found")))
			return
		}
		slog.Error("Failed to hard-delete review", slog.String("error", err.Error()), slog.String("review_id", id))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to delete review")))
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
