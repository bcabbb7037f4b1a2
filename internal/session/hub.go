package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/typeid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Options configures every session a hub creates.
type Options struct {
	TickInterval time.Duration
	// FrameEvery sends a frame to the client every N ticks.
	FrameEvery int
	// IdleTimeout closes sessions that have had no client or traffic for this long. Zero disables reaping.
	IdleTimeout time.Duration
	// MaxSessions caps live sessions. Zero means no cap.
	MaxSessions int
	Engine      engine.Options
}

// Hub owns the live sessions.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session // sessionID -> session
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	if opts.TickInterval <= 0 {
		opts.TickInterval = engine.DefaultStep
	}
	if opts.FrameEvery <= 0 {
		opts.FrameEvery = 1
	}
	opts.Engine.Step = opts.TickInterval

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions: make(map[string]*Session),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run reaps idle sessions until the hub is stopped.
func (h *Hub) Run() {
	if h.opts.IdleTimeout <= 0 {
		<-h.ctx.Done()
		return
	}

	ticker := time.NewTicker(max(h.opts.IdleTimeout/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.reapIdle()
		case <-h.ctx.Done():
			return
		}
	}
}

// Create starts a new session with the startup scene.
func (h *Hub) Create() (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}
	if h.opts.MaxSessions > 0 && len(h.sessions) >= h.opts.MaxSessions {
		return nil, fmt.Errorf("create session: %w (max %d)", ErrTooManySessions, h.opts.MaxSessions)
	}

	s := newSession(typeid.NewSessionID(), h.opts)
	ctx, cancel := context.WithCancel(h.ctx)
	s.cancel = cancel
	h.sessions[s.ID] = s

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s.Run(ctx)
	}()

	return s, nil
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrSessionNotFound)
	}
	return s, nil
}

// Close stops a session and waits for its loop to exit.
func (h *Hub) Close(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("close %s: %w", id, ErrSessionNotFound)
	}
	s.stop()
	<-s.Done()
	return nil
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every session and waits for their loops to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	h.cancel()
	n := len(h.sessions)
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	h.wg.Wait()
	slog.Info("all sessions stopped", "count", n)
}

func (h *Hub) reapIdle() {
	h.mu.RLock()
	var idle []string
	for id, s := range h.sessions {
		if s.Idle() > h.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range idle {
		if err := h.Close(id); err != nil {
			continue
		}
		slog.Info("reaped idle session", "session", id)
	}
}
