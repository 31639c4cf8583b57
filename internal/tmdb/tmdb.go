package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/savcinema/voicereview-service/internal/config"
	"github.com/savcinema/voicereview-service/internal/types"
)

// ErrNotFound is returned when the catalog has no item for the given ID.
var ErrNotFound = errors.New("media not found in catalog")

// Media is the raw catalog representation of a movie or TV show.
type Media struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title,omitempty"`
	Name         string          `json:"name,omitempty"`
	Overview     string          `json:"overview"`
	PosterPath   string          `json:"poster_path,omitempty"`
	ReleaseDate  string          `json:"release_date,omitempty"`
	FirstAirDate string          `json:"first_air_date,omitempty"`
	VoteAverage  float64         `json:"vote_average"`
	MediaType    types.MediaType `json:"media_type"`
}

type searchResponse struct {
	Page    int     `json:"page"`
	Results []Media `json:"results"`
}

const posterBaseURL = "https://image.tmdb.org/t/p/original"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.TMDB.BaseURL,
		apiKey:  cfg.TMDB.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Search queries the multi-search endpoint and keeps only movie/tv results.
func (c *Client) Search(ctx context.Context, query string) ([]Media, error) {
	if query == "" {
		return []Media{}, nil
	}

	var resp searchResponse
	err := c.get(ctx, "/search/multi", url.Values{"query": {query}}, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]Media, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.MediaType == types.MediaTypeMovie || item.MediaType == types.MediaTypeTV {
			results = append(results, item)
		}
	}

	return results, nil
}

// GetMedia fetches canonical details for a single catalog item.
func (c *Client) GetMedia(ctx context.Context, id int64, mediaType types.MediaType) (*Media, error) {
	var media Media
	path := fmt.Sprintf("/%s/%d", mediaType, id)

	err := c.get(ctx, path, nil, &media)
	if err != nil {
		return nil, err
	}

	// The detail endpoints omit media_type; normalize it
	media.MediaType = mediaType

	return &media, nil
}

// ToMovie maps a catalog item onto the persisted Movie shape.
func (m *Media) ToMovie() types.Movie {
	title := m.Title
	if title == "" {
		title = m.Name
	}
	if title == "" {
		title = "Unknown"
	}

	releaseDate := m.ReleaseDate
	if releaseDate == "" {
		releaseDate = m.FirstAirDate
	}

	posterURL := ""
	if m.PosterPath != "" {
		posterURL = posterBaseURL + m.PosterPath
	}

	return types.Movie{
		TMDBID:      m.ID,
		Title:       title,
		Overview:    m.Overview,
		PosterURL:   posterURL,
		ReleaseDate: releaseDate,
		MediaType:   m.MediaType,
		Slug:        strconv.FormatInt(m.ID, 10),
	}
}
