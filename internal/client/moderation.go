package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/savcinema/voicereview-service/internal/tmdb"
	"github.com/savcinema/voicereview-service/internal/types"
)

// Player plays one review's audio at a time. Starting a new playback
// replaces the current one.
type Player interface {
	Play(audioURL string) error
	Stop() error
}

// ModerationClient drives the admin surface. Mutations are applied to the
// local review list optimistically and rolled back by a full refetch when
// the server rejects them.
type ModerationClient struct {
	client *Client

	mu        sync.Mutex
	reviews   []types.Review
	player    Player
	playingID string
}

// NewModerationClient wraps a base client for admin moderation work.
func NewModerationClient(c *Client, player Player) *ModerationClient {
	return &ModerationClient{client: c, player: player}
}

// Login authenticates and stores the bearer token for subsequent calls.
func (m *ModerationClient) Login(ctx context.Context, email, password string) error {
	payload := map[string]string{"email": email, "password": password}
	var result struct {
		AdminID string `json:"admin_id"`
		Token   string `json:"token"`
	}
	if err := m.client.doJSON(ctx, http.MethodPost, "/auth/login", payload, &result); err != nil {
		return err
	}
	m.client.Token = result.Token
	return nil
}

// ActiveMovie fetches the currently pinned movie, nil when none is set.
func (m *ModerationClient) ActiveMovie(ctx context.Context) (*types.Movie, error) {
	var result struct {
		ActiveMovie *types.Movie `json:"active_movie"`
	}
	if err := m.client.doJSON(ctx, http.MethodGet, "/admin/active-movie", nil, &result); err != nil {
		return nil, err
	}
	return result.ActiveMovie, nil
}

// SetActiveMovie pins a catalog entry as the movie under review.
func (m *ModerationClient) SetActiveMovie(ctx context.Context, tmdbID int64, mediaType types.MediaType) (*types.Movie, error) {
	payload := types.SetActiveMovieRequest{TMDBID: tmdbID, MediaType: mediaType}
	var result struct {
		ActiveMovie *types.Movie `json:"active_movie"`
	}
	if err := m.client.doJSON(ctx, http.MethodPost, "/admin/active-movie", payload, &result); err != nil {
		return nil, err
	}
	return result.ActiveMovie, nil
}

// SearchCatalog queries the movie catalog through the service proxy.
func (m *ModerationClient) SearchCatalog(ctx context.Context, query string) ([]tmdb.Media, error) {
	var result struct {
		Results []tmdb.Media `json:"results"`
	}
	path := "/admin/catalog/search?q=" + url.QueryEscape(query)
	if err := m.client.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Refresh refetches the review list from the server, replacing the local
// copy. This is both the initial load and the rollback path.
func (m *ModerationClient) Refresh(ctx context.Context) error {
	var result struct {
		Reviews []types.Review `json:"reviews"`
	}
	if err := m.client.doJSON(ctx, http.MethodGet, "/admin/reviews", nil, &result); err != nil {
		return err
	}

	m.mu.Lock()
	m.reviews = result.Reviews
	m.mu.Unlock()
	return nil
}

// Reviews returns a copy of the local review list.
func (m *ModerationClient) Reviews() []types.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Review, len(m.reviews))
	copy(out, m.reviews)
	return out
}

// SetStatus relabels a review. The local list is updated immediately; if
// the server rejects the change the list is refetched so the stale label
// never sticks.
func (m *ModerationClient) SetStatus(ctx context.Context, id string, status types.ReviewStatus) error {
	if !types.ValidStatus(status) {
		return fmt.Errorf("unrecognized status %q", status)
	}

	m.mu.Lock()
	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews[i].Status = status
			break
		}
	}
	m.mu.Unlock()

	req := types.UpdateReviewRequest{Status: &status}
	if err := m.client.doJSON(ctx, http.MethodPatch, "/admin/reviews/"+id, req, nil); err != nil {
		m.rollback(ctx)
		return err
	}
	return nil
}

// SetTags replaces a review's full tag set.
func (m *ModerationClient) SetTags(ctx context.Context, id string, tags []string) error {
	m.mu.Lock()
	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews[i].Tags = tags
			break
		}
	}
	m.mu.Unlock()

	req := types.UpdateReviewRequest{Tags: &tags}
	if err := m.client.doJSON(ctx, http.MethodPatch, "/admin/reviews/"+id, req, nil); err != nil {
		m.rollback(ctx)
		return err
	}
	return nil
}

// Delete removes a review, hard-deleting the record and its audio asset
// when hard is true.
func (m *ModerationClient) Delete(ctx context.Context, id string, hard bool) error {
	m.mu.Lock()
	for i := range m.reviews {
		if m.reviews[i].ID == id {
			m.reviews = append(m.reviews[:i], m.reviews[i+1:]...)
			break
		}
	}
	if m.playingID == id && m.player != nil {
		m.player.Stop()
		m.playingID = ""
	}
	m.mu.Unlock()

	path := "/admin/reviews/" + id
	if hard {
		path += "?hard=1"
	}
	if err := m.client.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		m.rollback(ctx)
		return err
	}
	return nil
}

// Play starts playback for the given review, stopping whichever one was
// playing. Only one playback slot exists.
func (m *ModerationClient) Play(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.player == nil {
		return fmt.Errorf("no player configured")
	}

	var audioURL string
	for i := range m.reviews {
		if m.reviews[i].ID == id {
			audioURL = m.reviews[i].AudioURL
			break
		}
	}
	if audioURL == "" {
		return fmt.Errorf("review %s not loaded", id)
	}

	if m.playingID != "" && m.playingID != id {
		m.player.Stop()
	}
	if err := m.player.Play(audioURL); err != nil {
		m.playingID = ""
		return err
	}
	m.playingID = id
	return nil
}

// StopPlayback stops the active playback, if any.
func (m *ModerationClient) StopPlayback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playingID == "" || m.player == nil {
		return nil
	}
	err := m.player.Stop()
	m.playingID = ""
	return err
}

// PlayingID reports which review currently occupies the playback slot.
func (m *ModerationClient) PlayingID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playingID
}

// rollback restores server truth after a failed optimistic mutation. A
// failed refetch leaves the stale copy; the next successful Refresh heals it.
func (m *ModerationClient) rollback(ctx context.Context) {
	m.Refresh(ctx)
}
