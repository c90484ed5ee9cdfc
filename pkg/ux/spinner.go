// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line on w while a long read runs.
//
// Only the standard personality animates. Minimal output prints the
// message once and machine output prints nothing, so scripted runs see
// only the records the command writes.
type Spinner struct {
	w     io.Writer
	level PersonalityLevel

	mu         sync.Mutex
	message    string
	frameIndex int
	running    bool
	stop       chan struct{}
	done       chan struct{}
}

// NewSpinner creates a spinner at the current personality level.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{w: w, level: GetPersonality(), message: message}
}

// WithLevel overrides the personality level.
func (s *Spinner) WithLevel(level PersonalityLevel) *Spinner {
	s.level = level
	return s
}

// Start begins the animation. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	switch s.level {
	case PersonalityMachine:
		return
	case PersonalityMinimal:
		fmt.Fprintln(s.w, s.message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(s.stop, s.done)
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			// Clear the spinner line
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
			s.mu.Lock()
			frame := Styles.Highlight.Render(spinnerFrames[s.frameIndex])
			fmt.Fprintf(s.w, "\r%s %s", frame, s.message)
			s.frameIndex = (s.frameIndex + 1) % len(spinnerFrames)
			s.mu.Unlock()
		}
	}
}

// Stop halts the animation and clears the line. It is safe to call on a
// spinner that never started.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// WithSpinner runs fn with a spinner on w and stops it when fn returns.
func WithSpinner(w io.Writer, message string, fn func() error) error {
	spin := NewSpinner(w, message)
	spin.Start()
	defer spin.Stop()
	return fn()
}
