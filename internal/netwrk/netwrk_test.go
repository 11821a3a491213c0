package netwrk

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gravpong/internal/pong"
	"gravpong/internal/wire"
)

func startServer(t *testing.T, serve func(*Conn)) string {
	t.Helper()
	server := httptest.NewServer(Handler(serve))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func next(t *testing.T, c *Conn) wire.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Ingress():
		if !ok {
			t.Fatalf("connection closed: %v", c.Err())
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a message")
	}
	return nil
}

func TestDialRoundTrip(t *testing.T) {
	url := startServer(t, func(c *Conn) {
		for msg := range c.Ingress() {
			if u, ok := msg.(wire.FrameUpdate); ok {
				c.Send(wire.ResyncPart{Frames: []pong.Frame{u.Frame}})
			}
		}
	})

	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	f := pong.Frame{ID: 3, Ball: pong.PhysicsAttribute{Position: pong.Vector{X: 1.5, Y: 2.25}}}
	c.Send(wire.FrameUpdate{SetNo: 1, Player: 1, Frame: f})

	got, ok := next(t, c).(wire.ResyncPart)
	if !ok {
		t.Fatalf("reply is not a RESYNC_PART")
	}
	if len(got.Frames) != 1 || got.Frames[0] != f {
		t.Fatalf("echoed frames = %+v, want [%+v]", got.Frames, f)
	}
}

func TestMalformedMessageClosesConnection(t *testing.T) {
	closed := make(chan error, 1)
	url := startServer(t, func(c *Conn) {
		for range c.Ingress() {
		}
		closed <- c.Err()
	})

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	// A FRAME opcode with no body.
	if err := ws.WriteMessage(websocket.BinaryMessage, []byte{uint8(wire.ServerFrame)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case err := <-closed:
		var fe *wire.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("server conn ended with %v, want FormatError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server kept the connection open")
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatalf("read after malformed message succeeded")
	}
}

func TestCloseIsConnectionLostForPeer(t *testing.T) {
	url := startServer(t, func(c *Conn) {
		<-c.Ingress()
		c.Close()
	})

	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	c.Send(wire.Handshake{})

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("connection still open")
	}
	if !errors.Is(c.Err(), ErrConnectionLost) {
		t.Fatalf("Err() = %v, want ErrConnectionLost", c.Err())
	}
}

func TestSendAfterCloseDoesNotBlock(t *testing.T) {
	url := startServer(t, func(c *Conn) {
		for range c.Ingress() {
		}
	})
	c, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2*egressSize; i++ {
			c.Send(wire.Sync{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Send blocked on a closed connection")
	}
}
