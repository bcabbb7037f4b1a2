package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/engine"
)

var ErrSessionClosed = errors.New("session closed")

type inbound struct {
	client *Client
	msg    *Message
}

type query struct {
	fn   func(*engine.Engine)
	done chan struct{}
}

// Session owns one engine and runs it on its own goroutine. Everything that
// touches the engine goes through the loop: client messages, attaches and
// queries from the HTTP API.
type Session struct {
	ID      string
	Created time.Time

	eng  *engine.Engine
	opts Options

	inbox   chan inbound
	queries chan query
	attach  chan *Client
	detach  chan *Client

	// Loop-owned
	client *Client
	seq    int64
	traces *traceTracker

	attached   atomic.Bool
	lastActive atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(id string, opts Options) *Session {
	s := &Session{
		ID:      id,
		Created: time.Now(),
		eng:     engine.NewEngine(opts.Engine),
		opts:    opts,
		inbox:   make(chan inbound, 64),
		queries: make(chan query),
		attach:  make(chan *Client),
		detach:  make(chan *Client),
		done:    make(chan struct{}),
		traces:  newTraceTracker(),
	}
	s.touch()
	return s
}

// Run drives the session until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	slog.Info("session started", "session", s.ID)
	defer func() {
		s.setClient(nil)
		slog.Info("session stopped", "session", s.ID, "ticks", s.eng.TickCount())
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-s.attach:
			s.setClient(c)
			s.welcome(c)

		case c := <-s.detach:
			if c == s.client {
				s.setClient(nil)
			}

		case in := <-s.inbox:
			s.handleMessage(in.client, in.msg)

		case q := <-s.queries:
			q.fn(s.eng)
			close(q.done)

		case <-ticker.C:
			s.publish(s.eng.Tick())
		}
	}
}

// Attach makes c the session's client, replacing any previous one.
func (s *Session) Attach(c *Client) error {
	select {
	case s.attach <- c:
		s.touch()
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Detach removes c if it is still the session's client.
func (s *Session) Detach(c *Client) {
	select {
	case s.detach <- c:
	case <-s.done:
	}
}

// Deliver hands a client message to the loop.
func (s *Session) Deliver(ctx context.Context, c *Client, msg *Message) error {
	s.touch()
	select {
	case s.inbox <- inbound{client: c, msg: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func(*engine.Engine)) error {
	s.touch()
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case s.queries <- q:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues a command for the end of the next tick.
func (s *Session) Submit(ctx context.Context, cmd engine.Command) error {
	if cmd.Type == "" {
		return fmt.Errorf("submit: %w: missing type", engine.ErrInvalidPayload)
	}
	return s.Do(ctx, func(e *engine.Engine) {
		e.Enqueue(cmd)
	})
}

// Snapshot returns the current parameter-panel document.
func (s *Session) Snapshot(ctx context.Context) (document.Document, error) {
	var doc document.Document
	err := s.Do(ctx, func(e *engine.Engine) {
		doc = e.Snapshot()
	})
	return doc, err
}

// ExportSVG writes every trace as SVG. The document is rendered on the loop
// and copied to w afterwards.
func (s *Session) ExportSVG(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	var exportErr error
	if err := s.Do(ctx, func(e *engine.Engine) {
		exportErr = e.ExportSVG(&buf)
	}); err != nil {
		return err
	}
	if exportErr != nil {
		return fmt.Errorf("export svg: %w", exportErr)
	}
	_, err := io.Copy(w, &buf)
	return err
}

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Idle reports how long the session has gone without a client or traffic.
// Sessions with an attached client are never idle.
func (s *Session) Idle() time.Duration {
	if s.attached.Load() {
		return 0
	}
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// setClient swaps the attached client. The previous client's send channel is
// closed, which ends its write pump and with it the connection.
func (s *Session) setClient(c *Client) {
	if s.client != nil && s.client != c {
		close(s.client.send)
		slog.Info("client detached", "session", s.ID, "client", s.client.ClientID)
	}
	if c != s.client {
		s.traces.reset()
	}
	s.client = c
	s.attached.Store(c != nil)
	if c != nil {
		slog.Info("client attached", "session", s.ID, "client", c.ClientID)
	}
}

func (s *Session) welcome(c *Client) {
	msg, err := newMessage(TypeWelcome, WelcomePayload{
		SessionID: s.ID,
		ClientID:  c.ClientID,
		State:     s.eng.Snapshot(),
	})
	if err != nil {
		slog.Error("marshal welcome", "error", err)
		return
	}
	s.send(msg)
}

func (s *Session) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePointer:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.sendError(fmt.Sprintf("invalid pointer payload: %v", err))
			return
		}
		s.eng.SetPointer(p.X, p.Y, p.Inside)
		if p.Pressed {
			s.eng.PressPointer()
		}
		if p.Released {
			s.eng.ReleasePointer()
		}

	case TypeViewport:
		var v ViewportPayload
		if err := json.Unmarshal(msg.Payload, &v); err != nil {
			s.sendError(fmt.Sprintf("invalid viewport payload: %v", err))
			return
		}
		s.eng.SetViewport(v.Width, v.Height)
		s.eng.SetScale(v.ScaleX, v.ScaleY)

	case TypeCommand:
		var cmd engine.Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.sendError(fmt.Sprintf("invalid command payload: %v", err))
			return
		}
		s.eng.Enqueue(cmd)

	case TypeState:
		out, err := newMessage(TypeState, s.eng.Snapshot())
		if err != nil {
			slog.Error("marshal state", "error", err)
			return
		}
		s.send(out)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "session", s.ID)
		s.sendError("unknown message type: " + msg.Type)
	}
}

// publish forwards what a tick produced to the attached client.
func (s *Session) publish(res engine.TickResult) {
	if s.client == nil {
		return
	}

	for _, ev := range res.Events {
		msg, err := newMessage(string(ev.Type), ev)
		if err != nil {
			slog.Error("marshal drag event", "error", err)
			continue
		}
		s.send(msg)
	}

	for _, r := range res.Commands {
		typ := TypeCommandAck
		if r.Err != nil {
			typ = TypeCommandNack
		}
		msg, err := newMessage(typ, r)
		if err != nil {
			slog.Error("marshal command result", "error", err)
			continue
		}
		s.send(msg)
	}

	if res.Tick%uint64(s.opts.FrameEvery) == 0 {
		traces, removed := s.traces.diff(s.eng.Registry())
		msg, err := newMessage(TypeFrame, FramePayload{
			Tick:     res.Tick,
			Cursor:   s.eng.CursorIcon().String(),
			Settings: s.eng.Settings(),
			Traces:   traces,
			Removed:  removed,
			Commands: withoutTraces(s.eng.DrawCommands()),
		})
		if err != nil {
			slog.Error("marshal frame", "error", err)
			return
		}
		s.send(msg)
	}
}

// withoutTraces drops trace polylines, which frames carry as deltas.
func withoutTraces(cmds []engine.DrawCommand) []engine.DrawCommand {
	return slices.DeleteFunc(cmds, func(c engine.DrawCommand) bool {
		return c.Op == engine.OpPolyline
	})
}

func (s *Session) send(msg *Message) {
	if s.client == nil {
		return
	}
	s.seq++
	msg.Seq = s.seq
	msg.SessionID = s.ID
	msg.ClientID = s.client.ClientID
	s.client.Send(msg)
}

func (s *Session) sendError(text string) {
	msg, err := newMessage(TypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	s.send(msg)
}
