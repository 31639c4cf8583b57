package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/savcinema/voicereview-service/internal/capture"
	"github.com/savcinema/voicereview-service/internal/types"
)

// Uploader submits finished recordings to the public review endpoint. It
// satisfies capture.Uploader.
type Uploader struct {
	client *Client

	// uploadClient carries the longer deadline audio transfers need.
	uploadClient *http.Client
}

// NewUploader wraps a base client with an upload-tuned HTTP client.
func NewUploader(c *Client) *Uploader {
	return &Uploader{
		client:       c,
		uploadClient: &http.Client{Timeout: UploadTimeout},
	}
}

// Upload posts the recording as a multipart form and returns the
// server-assigned review ID. A timeout surfaces as ErrTimedOut and a non-2xx
// response as *ServerRejectedError; both leave the caller free to retry with
// the same bytes.
func (u *Uploader) Upload(ctx context.Context, sub capture.Submission) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("movieId", sub.MovieID); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}
	if err := form.WriteField("durationSec", strconv.Itoa(sub.DurationSec)); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}
	if err := form.WriteField("displayName", sub.DisplayName); err != nil {
		return "", fmt.Errorf("write form field: %w", err)
	}

	part, err := createAudioPart(form, sub.MimeType)
	if err != nil {
		return "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(sub.Audio); err != nil {
		return "", fmt.Errorf("write audio payload: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.client.BaseURL+"/public/reviews", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.uploadClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", ErrTimedOut
		}
		return "", fmt.Errorf("submit review: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Review types.Review `json:"review"`
	}
	if err := decodeEnvelope(resp, &result); err != nil {
		return "", err
	}
	return result.Review.ID, nil
}

// createAudioPart attaches the recording with its real MIME type; the
// default form-file helper hardcodes application/octet-stream.
func createAudioPart(form *multipart.Writer, mimeType string) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audioFile"; filename="recording%s"`, extensionForMime(mimeType)))
	header.Set("Content-Type", mimeType)
	return form.CreatePart(header)
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "audio/ogg":
		return ".ogg"
	case "audio/wav":
		return ".wav"
	case "audio/mp4":
		return ".m4a"
	}
	return ".webm"
}

// ActiveMovie fetches the movie currently open for review on the public
// surface, nil when none is pinned.
func (u *Uploader) ActiveMovie(ctx context.Context) (*types.Movie, error) {
	var result struct {
		ActiveMovie *types.Movie `json:"active_movie"`
	}
	if err := u.client.doJSON(ctx, http.MethodGet, "/public/active-movie", nil, &result); err != nil {
		return nil, err
	}
	return result.ActiveMovie, nil
}

// UploadTicket is a presigned destination for a direct blob upload.
type UploadTicket struct {
	ObjectKey   string `json:"object_key"`
	UploadURL   string `json:"upload_url"`
	ExpiresAt   int64  `json:"expires_at"`
	MaxFileSize int64  `json:"max_file_size"`
	ContentType string `json:"content_type"`
}

// RequestUploadURL asks the service for a presigned PUT destination, the
// alternative submission path for large recordings.
func (u *Uploader) RequestUploadURL(ctx context.Context, contentType string, fileSize int64) (*UploadTicket, error) {
	payload := map[string]interface{}{
		"content_type": contentType,
		"file_size":    fileSize,
	}
	var ticket UploadTicket
	if err := u.client.doJSON(ctx, http.MethodPost, "/public/upload-url", payload, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// PutRecording uploads the audio bytes directly to a presigned URL.
func (u *Uploader) PutRecording(ctx context.Context, ticket *UploadTicket, audio []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.UploadURL, bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", ticket.ContentType)
	req.ContentLength = int64(len(audio))

	resp, err := u.uploadClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimedOut
		}
		return fmt.Errorf("upload recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ServerRejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return nil
}
