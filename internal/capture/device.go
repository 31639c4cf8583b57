package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

var interruptSignal = os.Interrupt

// CommandDevice records audio by running an external encoder process, for
// example ffmpeg reading from the default input and writing the encoded
// stream to stdout. Fragments are whatever the process flushes.
type CommandDevice struct {
	name     string
	args     []string
	mimeType string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandDevice builds a device around the given command line. The
// command must stream encoded audio to stdout until it is signalled.
func NewCommandDevice(mimeType string, name string, args ...string) *CommandDevice {
	return &CommandDevice{
		name:     name,
		args:     args,
		mimeType: mimeType,
	}
}

func (d *CommandDevice) MimeType() string { return d.mimeType }

// Start launches the encoder process and streams its stdout as fragments.
// The fragment channel closes once the process exits and the last bytes
// have been delivered.
func (d *CommandDevice) Start(ctx context.Context) (<-chan Chunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return nil, fmt.Errorf("device already started")
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cmdCtx, d.name, d.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open encoder stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start encoder %s: %w", d.name, err)
	}

	d.cmd = cmd
	d.cancel = cancel
	d.done = make(chan struct{})

	fragments := make(chan Chunk)
	go func() {
		defer close(fragments)
		defer close(d.done)

		buf := make([]byte, 32*1024)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				chunk := make(Chunk, n)
				copy(chunk, buf[:n])
				fragments <- chunk
			}
			if err != nil {
				// EOF or a torn-down pipe after interrupt; either way the
				// bytes read so far are a valid stream prefix.
				break
			}
		}
		cmd.Wait()
	}()

	return fragments, nil
}

// Stop signals the encoder to finish. Safe to call repeatedly; it waits for
// the fragment stream to drain before returning.
func (d *CommandDevice) Stop() error {
	d.mu.Lock()
	cmd := d.cmd
	done := d.done
	d.mu.Unlock()

	if cmd == nil {
		return nil
	}

	// SIGINT lets ffmpeg finalize the container before exiting.
	if cmd.Process != nil {
		cmd.Process.Signal(interruptSignal)
	}

	<-done

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cmd = nil
	d.cancel = nil
	d.mu.Unlock()
	return nil
}
