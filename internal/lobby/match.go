package lobby

import (
	"fmt"
	"log/slog"
	"sync"

	"gravpong/internal/netwrk"
	"gravpong/internal/pong"
	"gravpong/internal/wire"
)

// maxBatch bounds a RESYNC_ALL batch.
const maxBatch = 64

// Match mirrors frames between the two peers of one game. It does not
// simulate anything itself.
type Match struct {
	ID string

	mu       sync.Mutex
	arena    pong.Arena
	field    pong.Field
	wells    []pong.GravityWell
	setNo    uint8
	peers    [2]*netwrk.Conn
	readies  [2]bool
	started  bool
	finished bool

	// pending holds each sender's frames since its last paddle hit.
	pending [2][]pong.Frame
}

func newMatch(id string, a pong.Arena, field pong.Field, wells []pong.GravityWell) *Match {
	return &Match{ID: id, arena: a, field: field, wells: wells, setNo: 1}
}

func (m *Match) join(player uint8, conn *netwrk.Conn) {
	m.mu.Lock()
	m.peers[player-1] = conn
	m.mu.Unlock()
}

// configure lets the host pick the field before the match starts.
func (m *Match) configure(player uint8, c wire.Create) error {
	f, err := pong.ParseField(c.Field)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if player != 1 {
		return fmt.Errorf("only player 1 can configure the match")
	}
	if m.started {
		return fmt.Errorf("match already started")
	}
	m.field = f
	if len(c.Wells) > 0 {
		m.wells = c.Wells
	}
	return nil
}

func (m *Match) start() {
	m.mu.Lock()
	m.started = true
	msg := wire.Start{Field: string(m.field), Wells: m.wells, SetNo: m.setNo}
	peers := m.peers
	m.mu.Unlock()

	for _, p := range peers {
		if p != nil {
			p.Send(msg)
		}
	}
	slog.Info("match started", slog.String("match", m.ID), slog.String("field", msg.Field), slog.Int("wells", len(msg.Wells)))
}

func (m *Match) ready(player uint8) {
	m.mu.Lock()
	m.readies[player-1] = true
	m.mu.Unlock()
	slog.Debug("peer ready", slog.String("match", m.ID), slog.Any("player", player))
}

// relay forwards a frame to the opponent. A frame in which the sender hit
// the ball makes the sender's recent frames authoritative for the ball.
func (m *Match) relay(player uint8, u wire.FrameUpdate) {
	if u.Player != player {
		slog.Debug("frame player mismatch", slog.String("match", m.ID), slog.Any("seat", player), slog.Any("claimed", u.Player))
	}
	f := u.Frame
	hit := (player == 1 && f.Paddle1Hit) || (player == 2 && f.Paddle2Hit)

	m.mu.Lock()
	if !m.readies[0] || !m.readies[1] {
		m.mu.Unlock()
		slog.Debug("dropping frame before both peers are ready", slog.String("match", m.ID), slog.Any("id", f.ID))
		return
	}
	opponent := m.peers[2-player]
	var out wire.Message
	if hit {
		batch := append(m.pending[player-1], f)
		if len(batch) > maxBatch {
			batch = batch[len(batch)-maxBatch:]
		}
		out = wire.ResyncAll{Frames: batch}
		m.pending[player-1] = nil
	} else {
		p := append(m.pending[player-1], f)
		if len(p) > maxBatch {
			p = p[1:]
		}
		m.pending[player-1] = p
		out = wire.ResyncPart{Frames: []pong.Frame{f}}
	}

	var finish *wire.Finish
	w := m.arena.WinScore
	if !m.finished && (f.Player1Score >= w || f.Player2Score >= w) {
		m.finished = true
		finish = &wire.Finish{Player1Score: f.Player1Score, Player2Score: f.Player2Score}
	}
	peers := m.peers
	m.mu.Unlock()

	if opponent != nil {
		opponent.Send(out)
	}
	if finish != nil {
		for _, p := range peers {
			if p != nil {
				p.Send(*finish)
			}
		}
		slog.Info("match finished", slog.String("match", m.ID), slog.Any("player1", finish.Player1Score), slog.Any("player2", finish.Player2Score))
	}
}

// leave drops a peer and disconnects the other one. There is no forfeit.
func (m *Match) leave(player uint8) {
	m.mu.Lock()
	m.peers[player-1] = nil
	other := m.peers[2-player]
	m.peers[2-player] = nil
	m.mu.Unlock()

	if other != nil {
		other.Close()
	}
	slog.Info("peer disconnected", slog.String("match", m.ID), slog.Any("player", player))
}
