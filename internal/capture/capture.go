// Package capture owns a single recording attempt: the microphone device,
// the accumulated audio fragments, the duration ceiling and the local
// preview artifact.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// MaxDurationSec is the hard recording ceiling. The session force-stops the
// instant the elapsed time reaches it.
const MaxDurationSec = 90

var (
	// ErrDeviceUnavailable means the audio input could not be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrInvalidState means the operation is not allowed in the current state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrDisplayNameRequired blocks submission until a pseudonym is entered.
	ErrDisplayNameRequired = errors.New("display name is required")

	// ErrEmptyRecording blocks submission of a zero-length artifact.
	ErrEmptyRecording = errors.New("recording is empty")
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePreview
	StateSubmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePreview:
		return "preview"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Chunk is one encoded audio fragment, in arrival order.
type Chunk []byte

// Device abstracts the audio input. Start opens the device exclusively and
// delivers fragments on the returned channel; the channel is closed only
// after the device has finalized following Stop. Stop must be safe to call
// more than once.
type Device interface {
	Start(ctx context.Context) (<-chan Chunk, error)
	Stop() error
	MimeType() string
}

// Submission is a finished artifact ready for upload.
type Submission struct {
	MovieID     string
	Audio       []byte
	MimeType    string
	DurationSec int
	DisplayName string
}

// Uploader submits a finished artifact and returns the server-assigned
// review ID.
type Uploader interface {
	Upload(ctx context.Context, sub Submission) (string, error)
}

// Clock drives the 1-second elapsed tick. Injectable for tests.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (t realTicker) Chan() <-chan time.Time { return t.t.C }
func (t realTicker) Stop()                  { t.t.Stop() }

// Session is one recording attempt. Not safe for concurrent use beyond the
// internal tick/fragment goroutines it manages itself.
type Session struct {
	mu sync.Mutex

	device   Device
	uploader Uploader
	clock    Clock
	movieID  string

	state      State
	stopping   bool
	elapsedSec int
	chunks     []Chunk

	artifact    []byte
	previewPath string

	// finalized is closed once the device's fragment channel closes,
	// confirming no more fragments can arrive.
	finalized chan struct{}
	tickDone  chan struct{}
	stopTick  sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, letting tests drive the ceiling.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// NewSession creates an idle capture session for the given movie.
func NewSession(device Device, uploader Uploader, movieID string, opts ...Option) *Session {
	s := &Session{
		device:   device,
		uploader: uploader,
		clock:    realClock{},
		movieID:  movieID,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ElapsedSeconds returns the recorded duration so far.
func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedSec
}

// PreviewPath returns the locally playable artifact, or "" before Preview.
func (s *Session) PreviewPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewPath
}

// Artifact returns the concatenated recording bytes, or nil before Preview.
func (s *Session) Artifact() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// Start opens the device and begins recording. Only valid from Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidState, s.state)
	}
	s.mu.Unlock()

	fragments, err := s.device.Start(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.mu.Lock()
	s.state = StateRecording
	s.elapsedSec = 0
	s.chunks = nil
	s.finalized = make(chan struct{})
	s.tickDone = make(chan struct{})
	s.stopTick = sync.Once{}
	s.mu.Unlock()

	// Collect fragments in arrival order until the device finalizes.
	go func() {
		for chunk := range fragments {
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		close(s.finalized)
	}()

	// 1-second elapsed tick; force-stop at the ceiling.
	go func() {
		ticker := s.clock.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.tickDone:
				return
			case <-ticker.Chan():
				s.mu.Lock()
				if s.state != StateRecording {
					s.mu.Unlock()
					return
				}
				s.elapsedSec++
				hitCeiling := s.elapsedSec >= MaxDurationSec
				s.mu.Unlock()
				if hitCeiling {
					s.Stop()
					return
				}
			}
		}
	}()

	return nil
}

// Stop finalizes the recording and transitions to Preview. Calling it when
// not recording is a no-op, so user stop, the ceiling tick and teardown can
// all call it safely.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != StateRecording || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	finalized := s.finalized
	s.mu.Unlock()

	// The tick is cancelled exactly once.
	s.stopTick.Do(func() { close(s.tickDone) })

	// Release the device unconditionally; its fragment channel closes once
	// finalization completes.
	stopErr := s.device.Stop()

	// The artifact may only be assembled after the device confirms it has
	// stopped, otherwise the tail fragments could be lost.
	<-finalized

	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifact = concat(s.chunks)
	s.state = StatePreview
	s.stopping = false

	if len(s.artifact) > 0 {
		path, err := s.writePreview()
		if err == nil {
			s.previewPath = path
		}
	}

	if stopErr != nil {
		return fmt.Errorf("device stop: %w", stopErr)
	}
	return nil
}

// Reset discards the artifact and returns to Idle. Allowed from Preview only.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreview {
		return fmt.Errorf("%w: cannot reset from %s", ErrInvalidState, s.state)
	}

	s.discardArtifactLocked()
	s.elapsedSec = 0
	s.state = StateIdle
	return nil
}

// Submit uploads the artifact. A failed upload returns the session to
// Preview with the artifact intact, so a retry sends byte-identical audio
// without re-recording.
func (s *Session) Submit(ctx context.Context, displayName string) (string, error) {
	if strings.TrimSpace(displayName) == "" {
		return "", ErrDisplayNameRequired
	}

	s.mu.Lock()
	if s.state != StatePreview {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: cannot submit from %s", ErrInvalidState, s.state)
	}
	if len(s.artifact) == 0 {
		s.mu.Unlock()
		return "", ErrEmptyRecording
	}

	// A stop before the first tick leaves elapsedSec at zero even though
	// the artifact has audio; the endpoint requires a positive duration.
	duration := s.elapsedSec
	if duration < 1 {
		duration = 1
	}

	sub := Submission{
		MovieID:     s.movieID,
		Audio:       s.artifact,
		MimeType:    s.device.MimeType(),
		DurationSec: duration,
		DisplayName: displayName,
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	reviewID, err := s.uploader.Upload(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Back to Preview; the artifact survives for a manual retry.
		s.state = StatePreview
		return "", err
	}

	s.state = StateDone
	return reviewID, nil
}

// Close tears the session down from any state, stopping an in-flight
// recording and removing the preview file.
func (s *Session) Close() error {
	err := s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardArtifactLocked()
	s.state = StateDone
	return err
}

func (s *Session) discardArtifactLocked() {
	if s.previewPath != "" {
		os.Remove(s.previewPath)
		s.previewPath = ""
	}
	s.chunks = nil
	s.artifact = nil
}

func (s *Session) writePreview() (string, error) {
	f, err := os.CreateTemp("", "voicereview-preview-*"+extensionFor(s.device.MimeType()))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(s.artifact); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func concat(chunks []Chunk) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav":
		return ".wav"
	case "audio/mp4":
		return ".m4a"
	}
	return ""
}
