package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/savcinema/voicereview-service/internal/events"
	"github.com/savcinema/voicereview-service/internal/storage"
	"github.com/savcinema/voicereview-service/internal/types"
	"github.com/savcinema/voicereview-service/internal/utils/response"
)

// fakeStore is an in-memory storage.Storage for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	movies  map[string]types.Movie
	reviews map[string]types.Review
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		movies:  map[string]types.Movie{},
		reviews: map[string]types.Review{},
	}
}

func (s *fakeStore) addMovie(id, title string) {
	s.movies[id] = types.Movie{ID: id, Title: title, MediaType: types.MediaTypeMovie}
}

func (s *fakeStore) UpsertMovie(movie types.Movie) (types.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if movie.ID == "" {
		movie.ID = fmt.Sprintf("movie_%d", len(s.movies)+1)
	}
	s.movies[movie.ID] = movie
	return movie, nil
}

func (s *fakeStore) GetMovieByID(id string) (types.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return types.Movie{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *fakeStore) SetActiveMovie(movieID string) error { return nil }

func (s *fakeStore) GetActiveMovie() (*types.Movie, error) { return nil, nil }

func (s *fakeStore) CreateReview(review types.Review) (types.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	review.ID = fmt.Sprintf("rev_%d", s.seq)
	review.CreatedAt = time.Now()
	s.reviews[review.ID] = review
	return review, nil
}

func (s *fakeStore) GetReviewByID(id string) (types.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return types.Review{}, storage.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) ListReviews(filter types.ReviewFilter) ([]types.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Review{}
	for _, r := range s.reviews {
		if r.DeletedAt != nil {
			continue
		}
		if filter.MovieID != "" && r.MovieID != filter.MovieID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) UpdateReview(id string, status *types.ReviewStatus, tags *[]string) (types.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.DeletedAt != nil {
		return types.Review{}, storage.ErrNotFound
	}
	if status != nil {
		r.Status = *status
	}
	if tags != nil {
		r.Tags = *tags
	}
	s.reviews[id] = r
	return r, nil
}

func (s *fakeStore) SoftDeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.DeletedAt != nil {
		return storage.ErrNotFound
	}
	now := time.Now()
	r.DeletedAt = &now
	s.reviews[id] = r
	return nil
}

func (s *fakeStore) HardDeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *fakeStore) CreateAdminUser(email, passwordHash string) (string, error) { return "1", nil }
func (s *fakeStore) GetAdminByEmail(email string) (string, string, error) {
	return "", "", storage.ErrNotFound
}
func (s *fakeStore) CountAdminUsers() (int, error) { return 0, nil }

// fakeBlobs is an in-memory BlobStore.
type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	deleteErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) ValidateContentType(contentType string) bool {
	switch contentType {
	case "audio/webm", "audio/ogg", "audio/wav", "audio/mp4":
		return true
	}
	return false
}

func (b *fakeBlobs) MaxFileSize() int64 { return 1 << 20 }

func (b *fakeBlobs) GenerateObjectKey(contentType string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fmt.Sprintf("reviews/obj_%d.webm", len(b.objects)+1)
}

func (b *fakeBlobs) PutObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectKey] = raw
	return nil
}

func (b *fakeBlobs) GetMediaURL(objectKey string) string {
	return "http://blobs.local/" + objectKey
}

func (b *fakeBlobs) DeleteObject(objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, objectKey)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, objectKey)
	return nil
}

// buildMultipart assembles a submission form. Empty field values are omitted.
func buildMultipart(t *testing.T, fields map[string]string, audio []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(name, value); err != nil {
			t.Fatalf("Failed to write field %s: %v", name, err)
		}
	}

	if audio != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="audioFile"; filename="recording.webm"`)
		header.Set("Content-Type", contentType)
		part, err := form.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create audio part: %v", err)
		}
		part.Write(audio)
	}

	form.Close()
	return &body, form.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) response.Response {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Error  string          `json:"error"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response: %v (%s)", err, rec.Body.String())
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
	return response.Response{Status: env.Status, Error: env.Error}
}

func TestSubmit(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	blobs := newFakeBlobs()

	handler := Submit(store, blobs, events.NoopPublisher{})

	body, contentType := buildMultipart(t, map[string]string{
		"movieId":     "movie_1",
		"durationSec": "5",
		"displayName": "Cap",
	}, []byte("webm-bytes"), "audio/webm")

	req := httptest.NewRequest(http.MethodPost, "/public/reviews", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var data SubmitResponse
	decodeBody(t, rec, &data)

	if data.Review.Status != types.StatusNew {
		t.Fatalf("Expected a new review to start in NEW, got %s", data.Review.Status)
	}
	if data.Review.DurationSec != 5 || data.Review.DisplayName != "Cap" {
		t.Fatalf("Unexpected review: %+v", data.Review)
	}
	if len(data.Review.Tags) != 0 {
		t.Fatalf("Expected a new review to have no tags, got %v", data.Review.Tags)
	}

	// The audio bytes landed in blob storage
	stored, err := store.GetReviewByID(data.Review.ID)
	if err != nil {
		t.Fatalf("Review was not persisted: %v", err)
	}
	if !bytes.Equal(blobs.objects[stored.AudioObjectKey], []byte("webm-bytes")) {
		t.Fatal("Audio bytes did not reach blob storage")
	}
}

func TestSubmit_DefaultsDisplayName(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	handler := Submit(store, newFakeBlobs(), events.NoopPublisher{})

	body, contentType := buildMultipart(t, map[string]string{
		"movieId":     "movie_1",
		"durationSec": "5",
	}, []byte("webm-bytes"), "audio/webm")

	req := httptest.NewRequest(http.MethodPost, "/public/reviews", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler(rec, req)

	var data SubmitResponse
	decodeBody(t, rec, &data)
	if data.Review.DisplayName != "Anonymous" {
		t.Fatalf("Expected the display name to default to Anonymous, got %q", data.Review.DisplayName)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		audio       []byte
		contentType string
		wantStatus  int
	}{
		{
			name:       "missing movieId",
			fields:     map[string]string{"durationSec": "5"},
			audio:      []byte("x"), contentType: "audio/webm",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing duration",
			fields:     map[string]string{"movieId": "movie_1"},
			audio:      []byte("x"), contentType: "audio/webm",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duration over ceiling",
			fields:     map[string]string{"movieId": "movie_1", "durationSec": "91"},
			audio:      []byte("x"), contentType: "audio/webm",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative duration",
			fields:     map[string]string{"movieId": "movie_1", "durationSec": "-1"},
			audio:      []byte("x"), contentType: "audio/webm",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing audio",
			fields:     map[string]string{"movieId": "movie_1", "durationSec": "5"},
			audio:      nil,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported content type",
			fields:     map[string]string{"movieId": "movie_1", "durationSec": "5"},
			audio:      []byte("x"), contentType: "video/mp4",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown movie",
			fields:     map[string]string{"movieId": "movie_missing", "durationSec": "5"},
			audio:      []byte("x"), contentType: "audio/webm",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addMovie("movie_1", "Arrival")
			blobs := newFakeBlobs()
			handler := Submit(store, blobs, events.NoopPublisher{})

			body, contentType := buildMultipart(t, tt.fields, tt.audio, tt.contentType)
			req := httptest.NewRequest(http.MethodPost, "/public/reviews", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			// A rejected submission must leave nothing behind
			if len(store.reviews) != 0 {
				t.Fatal("Expected no review to be created")
			}
			if len(blobs.objects) != 0 {
				t.Fatal("Expected no audio to be stored")
			}
		})
	}
}

func TestList_ExcludesSoftDeleted(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	r1, _ := store.CreateReview(types.Review{MovieID: "movie_1", Status: types.StatusNew, Tags: []string{}})
	store.CreateReview(types.Review{MovieID: "movie_1", Status: types.StatusApproved, Tags: []string{}})
	store.SoftDeleteReview(r1.ID)

	handler := List(store)
	req := httptest.NewRequest(http.MethodGet, "/admin/reviews", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	var data ListResponse
	decodeBody(t, rec, &data)
	if len(data.Reviews) != 1 {
		t.Fatalf("Expected the soft-deleted review to be excluded, got %d reviews", len(data.Reviews))
	}
	if data.Reviews[0].Status != types.StatusApproved {
		t.Fatalf("Unexpected surviving review: %+v", data.Reviews[0])
	}
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	handler := List(newFakeStore())
	req := httptest.NewRequest(http.MethodGet, "/admin/reviews?status=SHADOWBANNED", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
}

func newPatchRequest(t *testing.T, id, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/admin/reviews/"+id, strings.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

func TestUpdate(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{
		MovieID: "movie_1", DurationSec: 5, DisplayName: "Cap",
		Status: types.StatusNew, Tags: []string{},
	})

	handler := Update(store, events.NoopPublisher{})
	rec := httptest.NewRecorder()
	handler(rec, newPatchRequest(t, created.ID, `{"status":"APPROVED"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var data SubmitResponse
	decodeBody(t, rec, &data)
	if data.Review.Status != types.StatusApproved {
		t.Fatalf("Expected APPROVED, got %s", data.Review.Status)
	}
}

func TestUpdate_TagsFullSetOverwrite(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{
		MovieID: "movie_1", Status: types.StatusNew, Tags: []string{"old", "labels"},
	})

	handler := Update(store, events.NoopPublisher{})
	rec := httptest.NewRecorder()
	handler(rec, newPatchRequest(t, created.ID, `{"tags":["funny"]}`))

	var data SubmitResponse
	decodeBody(t, rec, &data)
	if len(data.Review.Tags) != 1 || data.Review.Tags[0] != "funny" {
		t.Fatalf("Expected tags to be replaced wholesale, got %v", data.Review.Tags)
	}

	// An explicit empty set clears the tags
	rec = httptest.NewRecorder()
	handler(rec, newPatchRequest(t, created.ID, `{"tags":[]}`))
	decodeBody(t, rec, &data)
	if len(data.Review.Tags) != 0 {
		t.Fatalf("Expected tags to be cleared, got %v", data.Review.Tags)
	}
}

func TestUpdate_Errors(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{MovieID: "movie_1", Status: types.StatusNew, Tags: []string{}})

	handler := Update(store, events.NoopPublisher{})

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"empty body", created.ID, "", http.StatusBadRequest},
		{"unknown status", created.ID, `{"status":"SHADOWBANNED"}`, http.StatusBadRequest},
		{"missing review", "rev_missing", `{"status":"APPROVED"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, newPatchRequest(t, tt.id, tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func newDeleteRequest(t *testing.T, id, query string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, "/admin/reviews/"+id+query, nil)
	req.SetPathValue("id", id)
	return req
}

func TestDelete_SoftByDefault(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{MovieID: "movie_1", Status: types.StatusNew, Tags: []string{}})
	blobs := newFakeBlobs()

	handler := Delete(store, blobs)
	rec := httptest.NewRecorder()
	handler(rec, newDeleteRequest(t, created.ID, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The record survives with a deletion mark; the asset is untouched
	stored, err := store.GetReviewByID(created.ID)
	if err != nil {
		t.Fatalf("Expected the record to survive a soft delete: %v", err)
	}
	if stored.DeletedAt == nil {
		t.Fatal("Expected the review to be marked deleted")
	}
	if len(blobs.deleted) != 0 {
		t.Fatal("Expected the audio asset to be kept on soft delete")
	}

	// Deleting again reports not found
	rec = httptest.NewRecorder()
	handler(rec, newDeleteRequest(t, created.ID, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404 on repeat delete, got %d", rec.Code)
	}
}

func TestDelete_Hard(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{
		MovieID: "movie_1", AudioObjectKey: "reviews/obj_1.webm",
		Status: types.StatusNew, Tags: []string{},
	})
	blobs := newFakeBlobs()
	blobs.objects["reviews/obj_1.webm"] = []byte("webm-bytes")

	handler := Delete(store, blobs)
	rec := httptest.NewRecorder()
	handler(rec, newDeleteRequest(t, created.ID, "?hard=1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := store.GetReviewByID(created.ID); err != storage.ErrNotFound {
		t.Fatal("Expected the record to be gone after hard delete")
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "reviews/obj_1.webm" {
		t.Fatalf("Expected the audio asset to be removed, got %v", blobs.deleted)
	}
}

func TestDelete_HardSurvivesAssetFailure(t *testing.T) {
	store := newFakeStore()
	store.addMovie("movie_1", "Arrival")
	created, _ := store.CreateReview(types.Review{
		MovieID: "movie_1", AudioObjectKey: "reviews/obj_1.webm",
		Status: types.StatusNew, Tags: []string{},
	})
	blobs := newFakeBlobs()
	blobs.deleteErr = fmt.Errorf("blob storage unavailable")

	handler := Delete(store, blobs)
	rec := httptest.NewRecorder()
	handler(rec, newDeleteRequest(t, created.ID, "?hard=1"))

	// Asset cleanup is best effort; the record still goes away
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := store.GetReviewByID(created.ID); err != storage.ErrNotFound {
		t.Fatal("Expected the record to be gone despite the asset failure")
	}
}
