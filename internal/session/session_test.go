package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/document"
	"github.com/spirolab/spiro/backend-go/internal/dragging"
	"github.com/spirolab/spiro/backend-go/internal/engine"
)

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	if opts.TickInterval == 0 {
		opts.TickInterval = time.Millisecond
	}
	if opts.FrameEvery == 0 {
		opts.FrameEvery = 5
	}
	h := NewHub(opts)
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func newTestSession(t *testing.T) (*Hub, *Session) {
	t.Helper()

	h := newTestHub(t, Options{})
	s, err := h.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return h, s
}

// waitFor reads c's outbound queue until a message of type typ arrives.
func waitFor(t *testing.T, c *Client, typ string) *Message {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				t.Fatalf("send channel closed while waiting for %s", typ)
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if msg.Type == typ {
				return &msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func deliver(t *testing.T, s *Session, c *Client, typ string, payload any) {
	t.Helper()

	msg, err := newMessage(typ, payload)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if err := s.Deliver(context.Background(), c, msg); err != nil {
		t.Fatalf("Deliver(%s): %v", typ, err)
	}
}

func TestHub_CreateGetClose(t *testing.T) {
	h, s := newTestSession(t)

	got, err := h.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get(%s) = %v, %v; want the created session", s.ID, got, err)
	}
	if !strings.HasPrefix(s.ID, "sess_") {
		t.Fatalf("session id %q lacks the sess prefix", s.ID)
	}

	if err := h.Close(s.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("session loop still running after Close")
	}
	if _, err := h.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get after Close error = %v; want ErrSessionNotFound", err)
	}
	if err := h.Close(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second Close error = %v; want ErrSessionNotFound", err)
	}
	if _, err := s.Snapshot(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Snapshot on closed session error = %v; want ErrSessionClosed", err)
	}
}

func TestHub_MaxSessions(t *testing.T) {
	h := newTestHub(t, Options{MaxSessions: 2})

	for range 2 {
		if _, err := h.Create(); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := h.Create(); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("third Create error = %v; want ErrTooManySessions", err)
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d; want 2", h.Len())
	}
}

func TestHub_ReapsIdleSessions(t *testing.T) {
	h := newTestHub(t, Options{IdleTimeout: 20 * time.Millisecond})
	if _, err := h.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle session was not reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_StopRejectsCreate(t *testing.T) {
	h := NewHub(Options{TickInterval: time.Millisecond})
	s, err := h.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.Stop()

	<-s.Done()
	if _, err := h.Create(); err == nil {
		t.Fatalf("Create after Stop succeeded")
	}
}

func TestSession_SubmitAppliedOnTick(t *testing.T) {
	_, s := newTestSession(t)
	ctx := context.Background()

	if err := s.Submit(ctx, engine.Command{Type: engine.CmdAddFixed}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := s.Submit(ctx, engine.Command{}); !errors.Is(err, engine.ErrInvalidPayload) {
		t.Fatalf("Submit without type error = %v; want ErrInvalidPayload", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		doc, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if len(doc.Fixed) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("fixed.add never applied: %d fixed gears", len(doc.Fixed))
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSession_ExportSVG(t *testing.T) {
	_, s := newTestSession(t)
	time.Sleep(20 * time.Millisecond)

	var buf bytes.Buffer
	if err := s.ExportSVG(context.Background(), &buf); err != nil {
		t.Fatalf("ExportSVG: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<svg") {
		t.Fatalf("ExportSVG wrote %q", buf.String())
	}
}

func TestSession_AttachWelcomeAndFrames(t *testing.T) {
	_, s := newTestSession(t)
	c := NewClient(s, nil, "client-1")

	if err := s.Attach(c); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	msg := waitFor(t, c, TypeWelcome)
	var welcome WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		t.Fatalf("unmarshal welcome: %v", err)
	}
	if welcome.SessionID != s.ID || welcome.ClientID != "client-1" || len(welcome.State.Fixed) != 1 {
		t.Fatalf("welcome = %+v", welcome)
	}

	msg = waitFor(t, c, TypeFrame)
	var frame FramePayload
	if err := json.Unmarshal(msg.Payload, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if frame.Tick%5 != 0 {
		t.Fatalf("frame at tick %d; want multiples of FrameEvery", frame.Tick)
	}
	if msg.Seq == 0 || msg.SessionID != s.ID {
		t.Fatalf("frame envelope = %+v", msg)
	}
	for _, cmd := range frame.Commands {
		if cmd.Op == engine.OpPolyline {
			t.Fatalf("frame carries a full trace polyline for %s", cmd.ObjectID)
		}
	}

	// The first frame a client sees starts every trace from zero.
	if len(frame.Traces) != 1 || frame.Traces[0].From != 0 || len(frame.Traces[0].Points) == 0 {
		t.Fatalf("first frame traces = %+v; want one trace from 0", frame.Traces)
	}
	sent := len(frame.Traces[0].Points)

	msg = waitFor(t, c, TypeFrame)
	if err := json.Unmarshal(msg.Payload, &frame); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if len(frame.Traces) != 1 || frame.Traces[0].From != sent {
		t.Fatalf("next frame traces = %+v; want a delta from %d", frame.Traces, sent)
	}
}

func TestSession_PointerDrag(t *testing.T) {
	_, s := newTestSession(t)
	c := NewClient(s, nil, "client-1")
	if err := s.Attach(c); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	waitFor(t, c, TypeWelcome)

	deliver(t, s, c, TypeViewport, ViewportPayload{Width: 800, Height: 600})
	deliver(t, s, c, TypePointer, PointerPayload{X: 400, Y: 300, Inside: true, Pressed: true})

	msg := waitFor(t, c, TypeDragStart)
	var ev dragging.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatalf("unmarshal drag.start: %v", err)
	}
	if ev.Type != dragging.EventDragStarted || ev.Gear == "" {
		t.Fatalf("drag.start = %+v", ev)
	}

	deliver(t, s, c, TypePointer, PointerPayload{X: 400, Y: 300, Inside: true, Released: true})
	waitFor(t, c, TypeDragEnd)
}

func TestSession_CommandAckNack(t *testing.T) {
	_, s := newTestSession(t)
	c := NewClient(s, nil, "client-1")
	if err := s.Attach(c); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	deliver(t, s, c, TypeCommand, engine.Command{ID: "c1", Type: engine.CmdToggleSidebar})
	msg := waitFor(t, c, TypeCommandAck)
	var res engine.CommandResult
	if err := json.Unmarshal(msg.Payload, &res); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if res.ID != "c1" || res.Error != "" {
		t.Fatalf("ack = %+v", res)
	}

	deliver(t, s, c, TypeCommand, engine.Command{ID: "c2", Type: "gear.explode"})
	msg = waitFor(t, c, TypeCommandNack)
	if err := json.Unmarshal(msg.Payload, &res); err != nil {
		t.Fatalf("unmarshal nack: %v", err)
	}
	if res.ID != "c2" || res.Error == "" {
		t.Fatalf("nack = %+v", res)
	}
}

func TestSession_StateAndUnknownMessage(t *testing.T) {
	_, s := newTestSession(t)
	c := NewClient(s, nil, "client-1")
	if err := s.Attach(c); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	deliver(t, s, c, TypeState, struct{}{})
	msg := waitFor(t, c, TypeState)
	var doc document.Document
	if err := json.Unmarshal(msg.Payload, &doc); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if len(doc.Fixed) != 1 {
		t.Fatalf("state has %d fixed gears; want 1", len(doc.Fixed))
	}

	deliver(t, s, c, "presence.update", struct{}{})
	waitFor(t, c, TypeError)
}

func TestSession_AttachReplacesClient(t *testing.T) {
	_, s := newTestSession(t)
	first := NewClient(s, nil, "client-1")
	second := NewClient(s, nil, "client-2")

	if err := s.Attach(first); err != nil {
		t.Fatalf("Attach first: %v", err)
	}
	if err := s.Attach(second); err != nil {
		t.Fatalf("Attach second: %v", err)
	}
	waitFor(t, second, TypeWelcome)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-first.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("replaced client's send channel was not closed")
		}
	}
}
