package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

// fakeDevice feeds fragments from the test and closes the channel on Stop.
type fakeDevice struct {
	fragments chan Chunk
	closeOnce sync.Once

	mu       sync.Mutex
	stops    int
	startErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{fragments: make(chan Chunk, 16)}
}

func (d *fakeDevice) Start(ctx context.Context) (<-chan Chunk, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	return d.fragments, nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	d.stops++
	d.mu.Unlock()
	d.closeOnce.Do(func() { close(d.fragments) })
	return nil
}

func (d *fakeDevice) MimeType() string { return "audio/webm" }

func (d *fakeDevice) stopCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// fakeClock hands out a manually driven ticker.
type fakeClock struct {
	ticks chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{ticks: make(chan time.Time)}
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker { return fakeTicker{c.ticks} }

type fakeTicker struct{ c chan time.Time }

func (t fakeTicker) Chan() <-chan time.Time { return t.c }
func (t fakeTicker) Stop()                  {}

type fakeUploader struct {
	mu   sync.Mutex
	fail error
	subs []Submission
}

func (u *fakeUploader) Upload(ctx context.Context, sub Submission) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.subs = append(u.subs, sub)
	if u.fail != nil {
		return "", u.fail
	}
	return "rev_1", nil
}

func (u *fakeUploader) submissions() []Submission {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Submission, len(u.subs))
	copy(out, u.subs)
	return out
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected state %s, got %s", want, s.State())
}

func TestSession_RecordAndStop(t *testing.T) {
	device := newFakeDevice()
	uploader := &fakeUploader{}
	session := NewSession(device, uploader, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.State() != StateRecording {
		t.Fatalf("Expected recording state, got %s", session.State())
	}

	device.fragments <- Chunk("abc")
	device.fragments <- Chunk("def")

	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.State() != StatePreview {
		t.Fatalf("Expected preview state, got %s", session.State())
	}

	// Fragments are concatenated in arrival order
	if !bytes.Equal(session.Artifact(), []byte("abcdef")) {
		t.Fatalf("Expected artifact %q, got %q", "abcdef", session.Artifact())
	}

	// The preview file holds the same bytes
	path := session.PreviewPath()
	if path == "" {
		t.Fatal("Expected a preview file")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read preview file: %v", err)
	}
	if !bytes.Equal(raw, []byte("abcdef")) {
		t.Fatalf("Preview file does not match artifact: %q", raw)
	}
}

func TestSession_StopIsIdempotent(t *testing.T) {
	device := newFakeDevice()
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")

	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// A second stop is a no-op and must not disturb the artifact
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error on second stop: %v", err)
	}
	if session.State() != StatePreview {
		t.Fatalf("Expected preview state, got %s", session.State())
	}
	if !bytes.Equal(session.Artifact(), []byte("abc")) {
		t.Fatalf("Artifact changed after repeated stop: %q", session.Artifact())
	}
}

func TestSession_CeilingForcesStop(t *testing.T) {
	device := newFakeDevice()
	clock := newFakeClock()
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(clock))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")

	for i := 0; i < MaxDurationSec; i++ {
		clock.ticks <- time.Now()
	}

	waitForState(t, session, StatePreview)

	if got := session.ElapsedSeconds(); got != MaxDurationSec {
		t.Fatalf("Expected %d elapsed seconds, got %d", MaxDurationSec, got)
	}
	if device.stopCount() == 0 {
		t.Fatal("Expected the device to be stopped at the ceiling")
	}
}

func TestSession_StartRequiresIdle(t *testing.T) {
	device := newFakeDevice()
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := session.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestSession_StartDeviceUnavailable(t *testing.T) {
	device := newFakeDevice()
	device.startErr = errors.New("mic is busy")
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(newFakeClock()))

	err := session.Start(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Expected ErrDeviceUnavailable, got %v", err)
	}
	if session.State() != StateIdle {
		t.Fatalf("Expected idle state after failed start, got %s", session.State())
	}
}

func TestSession_Reset(t *testing.T) {
	device := newFakeDevice()
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	// Reset is not allowed before a recording exists
	if err := session.Reset(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	path := session.PreviewPath()
	if err := session.Reset(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if session.State() != StateIdle {
		t.Fatalf("Expected idle state, got %s", session.State())
	}
	if session.Artifact() != nil {
		t.Fatal("Expected artifact to be discarded")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Expected preview file to be removed")
	}
}

func TestSession_SubmitRequiresDisplayName(t *testing.T) {
	device := newFakeDevice()
	uploader := &fakeUploader{}
	session := NewSession(device, uploader, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Validation failure must not change state or consume the artifact
	if _, err := session.Submit(context.Background(), "  "); !errors.Is(err, ErrDisplayNameRequired) {
		t.Fatalf("Expected ErrDisplayNameRequired, got %v", err)
	}
	if session.State() != StatePreview {
		t.Fatalf("Expected preview state, got %s", session.State())
	}
	if len(uploader.submissions()) != 0 {
		t.Fatal("Expected no upload attempt")
	}
}

func TestSession_SubmitFloorsSubSecondDuration(t *testing.T) {
	device := newFakeDevice()
	uploader := &fakeUploader{}
	session := NewSession(device, uploader, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")

	// Stop before the first tick; the elapsed counter is still zero
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := session.ElapsedSeconds(); got != 0 {
		t.Fatalf("Expected 0 elapsed seconds, got %d", got)
	}

	if _, err := session.Submit(context.Background(), "Cap"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	subs := uploader.submissions()
	if len(subs) != 1 {
		t.Fatalf("Expected 1 upload attempt, got %d", len(subs))
	}
	if subs[0].DurationSec != 1 {
		t.Fatalf("Expected a sub-second recording to submit 1s, got %d", subs[0].DurationSec)
	}
}

func TestSession_SubmitEmptyRecording(t *testing.T) {
	device := newFakeDevice()
	session := NewSession(device, &fakeUploader{}, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := session.Submit(context.Background(), "Cap"); !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("Expected ErrEmptyRecording, got %v", err)
	}
}

func TestSession_FailedSubmitPreservesArtifact(t *testing.T) {
	device := newFakeDevice()
	uploader := &fakeUploader{fail: errors.New("server unreachable")}
	session := NewSession(device, uploader, "movie_1", WithClock(newFakeClock()))
	defer session.Close()

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	device.fragments <- Chunk("abc")
	device.fragments <- Chunk("def")
	if err := session.Stop(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := session.Submit(context.Background(), "Cap"); err == nil {
		t.Fatal("Expected submit to fail")
	}

	// Back in preview with the artifact intact
	if session.State() != StatePreview {
		t.Fatalf("Expected preview state, got %s", session.State())
	}
	if !bytes.Equal(session.Artifact(), []byte("abcdef")) {
		t.Fatal("Expected artifact to survive a failed submit")
	}

	// The retry sends byte-identical audio
	uploader.fail = nil
	reviewID, err := session.Submit(context.Background(), "Cap")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reviewID != "rev_1" {
		t.Fatalf("Expected review ID rev_1, got %s", reviewID)
	}
	if session.State() != StateDone {
		t.Fatalf("Expected done state, got %s", session.State())
	}

	subs := uploader.submissions()
	if len(subs) != 2 {
		t.Fatalf("Expected 2 upload attempts, got %d", len(subs))
	}
	if !bytes.Equal(subs[0].Audio, subs[1].Audio) {
		t.Fatal("Expected retry to reuse the same bytes")
	}
	if subs[1].MovieID != "movie_1" || subs[1].DisplayName != "Cap" {
		t.Fatalf("Unexpected submission metadata: %+v", subs[1])
	}
}
