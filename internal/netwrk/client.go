package netwrk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"gravpong/internal/wire"
)

// Dial connects a peer to the match server at url (ws://host:port/play).
func Dial(ctx context.Context, url string) (*Conn, error) {
	slog.Debug("connecting to match server", slog.String("url", url))
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return newConn(ws, wire.DecodeInbound), nil
}
