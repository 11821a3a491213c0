package netwrk

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gravpong/internal/wire"
)

// ErrConnectionLost is returned once the peer on the other end is gone.
var ErrConnectionLost = errors.New("connection lost")

const (
	readLimit    = 1 << 16
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
	egressSize   = 256
)

// Conn is a binary websocket carrying wire messages. A reader and a writer
// goroutine move bytes; Send never blocks.
type Conn struct {
	ws     *websocket.Conn
	decode func([]byte) (wire.Message, error)

	ingress chan wire.Message
	egress  chan []byte
	done    chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

func newConn(ws *websocket.Conn, decode func([]byte) (wire.Message, error)) *Conn {
	c := &Conn{
		ws:      ws,
		decode:  decode,
		ingress: make(chan wire.Message, egressSize),
		egress:  make(chan []byte, egressSize),
		done:    make(chan struct{}),
	}

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.reader()
	go c.writer()
	return c
}

// Ingress yields decoded messages. It is closed when the connection ends;
// Err then tells why.
func (c *Conn) Ingress() <-chan wire.Message { return c.ingress }

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Send queues msg for the writer. When the queue is full the message is
// dropped: the reconciliation protocol absorbs lost frames.
func (c *Conn) Send(msg wire.Message) {
	b, err := wire.Encode(msg)
	if err != nil {
		slog.Error("dropping unencodable message", slog.Any("error", err))
		return
	}
	select {
	case <-c.done:
	case c.egress <- b:
	default:
		slog.Warn("egress full, dropping message", slog.Any("opcode", msg.Opcode()))
	}
}

// Close ends the connection with a normal closure.
func (c *Conn) Close() error {
	c.shutdown(ErrConnectionLost)
	return nil
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.ws.Close()
	})
}

func (c *Conn) reader() {
	defer close(c.ingress)
	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read failed", slog.Any("error", err))
			}
			c.shutdown(fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}

		msg, err := c.decode(b)
		if err != nil {
			// A misaligned decode poisons everything after it.
			slog.Warn("closing connection on malformed message", slog.Any("error", err))
			c.shutdown(err)
			return
		}

		select {
		case c.ingress <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writer() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.egress:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
				c.shutdown(fmt.Errorf("%w: %v", ErrConnectionLost, err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(fmt.Errorf("%w: %v", ErrConnectionLost, err))
				return
			}
		}
	}
}
