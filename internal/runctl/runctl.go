// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runctl launches the pipeline as a detached subprocess and relays
// its textual output through a bounded line channel. The relay is
// best-effort: when the buffer fills, the oldest lines are dropped, and
// starting a new session discards any unread backlog from the previous one.
package runctl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// lineBuffer bounds the unread backlog per session.
const lineBuffer = 256

// starter abstracts process launch for testing. Start returns the combined
// output stream and a wait function that reports the process outcome.
type starter interface {
	Start(ctx context.Context, args []string) (io.ReadCloser, func() error, error)
}

// execStarter launches the actual binary with os/exec.
type execStarter struct {
	binary string
}

func (e *execStarter) Start(ctx context.Context, args []string) (io.ReadCloser, func() error, error) {
	cmd := exec.CommandContext(ctx, e.binary, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, nil, fmt.Errorf("starting %s: %w", e.binary, err)
	}

	wait := func() error {
		err := cmd.Wait()
		pw.Close()
		return err
	}
	return pr, wait, nil
}

// Session is one running pipeline subprocess.
type Session struct {
	lines  chan string
	cancel context.CancelFunc

	mu       sync.Mutex
	finished bool
	waitErr  error
	done     chan struct{}
}

// Lines streams the subprocess output. The channel closes when the process
// exits or the session is stopped.
func (s *Session) Lines() <-chan string { return s.lines }

// Done closes when the subprocess has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the process outcome once Done is closed. A pipeline batch
// with failed items exits non-zero, which surfaces here.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return nil
	}
	return s.waitErr
}

// Stop terminates the subprocess and discards unread output.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

// push delivers a line, dropping the oldest buffered line when full.
func (s *Session) push(line string) {
	for {
		select {
		case s.lines <- line:
			return
		default:
			select {
			case <-s.lines:
			default:
			}
		}
	}
}

// Controller owns at most one session; starting a new one supersedes the
// previous session entirely.
type Controller struct {
	mu      sync.Mutex
	active  *Session
	starter starter
}

// NewController runs sessions of the given binary.
func NewController(binary string) *Controller {
	return &Controller{starter: &execStarter{binary: binary}}
}

// Start launches a new run session. Any previous session is stopped first
// and its unread backlog discarded.
func (c *Controller) Start(ctx context.Context, args []string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.active.Stop()
		c.active = nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	output, wait, err := c.starter.Start(runCtx, args)
	if err != nil {
		cancel()
		return nil, err
	}

	session := &Session{
		lines:  make(chan string, lineBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(output)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			session.push(scanner.Text())
		}
		output.Close()

		err := wait()
		session.mu.Lock()
		session.finished = true
		session.waitErr = err
		session.mu.Unlock()

		close(session.lines)
		close(session.done)
	}()

	c.active = session
	return session, nil
}
