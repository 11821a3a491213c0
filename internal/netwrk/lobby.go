package netwrk

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"gravpong/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Peers are native clients, not browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Upgrade turns an HTTP request into a server side Conn that decodes the
// messages peers send.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrading %s: %w", r.RemoteAddr, err)
	}
	slog.Debug("peer connected", slog.String("remote", r.RemoteAddr))
	return newConn(ws, wire.DecodeOutbound), nil
}

// Handler serves every upgraded connection with serve on its own goroutine.
func Handler(serve func(*Conn)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			slog.Info("rejecting connection", slog.Any("error", err))
			return
		}
		go serve(conn)
	})
}
