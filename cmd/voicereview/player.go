package main

import (
	"os/exec"
	"sync"
)

// commandPlayer plays review audio through an external player process. One
// playback at a time; starting a new one kills the previous process.
type commandPlayer struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

func newCommandPlayer() *commandPlayer {
	return &commandPlayer{}
}

func (p *commandPlayer) Play(audioURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	cmd := exec.Command("ffplay", "-nodisp", "-autoexit", "-loglevel", "error", audioURL)
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd

	go cmd.Wait()
	return nil
}

func (p *commandPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *commandPlayer) stopLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd = nil
}
