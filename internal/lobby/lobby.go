package lobby

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"gravpong/internal/netwrk"
	"gravpong/internal/pong"
	"gravpong/internal/wire"
)

// Settings are the match parameters the lobby hands out at START.
type Settings struct {
	Arena pong.Arena
	Field pong.Field
	// Wells, in canonical coordinates. When empty, RandomWells wells are
	// generated per match.
	Wells       []pong.GravityWell
	RandomWells int
	Seed        uint64
}

// Lobby pairs waiting peers into matches and relays their frames.
type Lobby struct {
	settings Settings

	mu      sync.Mutex
	waiting *Match
	rng     *rand.Rand

	matches sync.Map
}

func CreateLobby(s Settings) *Lobby {
	seed := s.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if s.Field == "" {
		s.Field = pong.FieldNormal
	}
	return &Lobby{
		settings: s,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Match looks up a running or waiting match by id.
func (l *Lobby) Match(id string) (*Match, bool) {
	m, ok := l.matches.Load(id)
	if !ok {
		return nil, false
	}
	return m.(*Match), true
}

// HandleConnection serves one peer until it disconnects.
func (l *Lobby) HandleConnection(conn *netwrk.Conn) {
	var (
		match  *Match
		player uint8
	)
	defer func() {
		if match != nil {
			l.leave(match, player)
		}
	}()

	for msg := range conn.Ingress() {
		switch m := msg.(type) {
		case wire.Handshake:
			if match != nil {
				conn.Send(wire.Reject{Reason: "already seated"})
				continue
			}
			match, player = l.seat(conn)

		case wire.Create:
			if match == nil {
				conn.Send(wire.Reject{Reason: "handshake first"})
				continue
			}
			if err := match.configure(player, m); err != nil {
				slog.Debug("rejecting create", slog.String("match", match.ID), slog.Any("error", err))
				conn.Send(wire.Reject{Reason: err.Error()})
				continue
			}
			conn.Send(wire.Accept{})

		case wire.Ready:
			if match != nil {
				match.ready(player)
			}

		case wire.FrameUpdate:
			if match != nil {
				match.relay(player, m)
			}
		}
	}
	slog.Debug("peer left", slog.Any("error", conn.Err()))
}

// seat puts conn into the waiting match, creating one if needed, and starts
// the match once it has two peers.
func (l *Lobby) seat(conn *netwrk.Conn) (*Match, uint8) {
	l.mu.Lock()
	m := l.waiting
	var player uint8 = 2
	if m == nil {
		m = newMatch(uuid.NewString(), l.settings.Arena, l.settings.Field, l.wellsLocked())
		l.waiting = m
		l.matches.Store(m.ID, m)
		player = 1
	} else {
		l.waiting = nil
	}
	l.mu.Unlock()

	m.join(player, conn)
	conn.Send(wire.Initialize{Player: player, MatchID: m.ID})
	slog.Info("peer seated", slog.String("match", m.ID), slog.Any("player", player))

	if player == 2 {
		m.start()
	}
	return m, player
}

func (l *Lobby) leave(m *Match, player uint8) {
	l.mu.Lock()
	if l.waiting == m {
		l.waiting = nil
	}
	l.mu.Unlock()
	l.matches.Delete(m.ID)
	m.leave(player)
}

// wellsLocked must be called with mu held; rng is not safe for concurrent use.
func (l *Lobby) wellsLocked() []pong.GravityWell {
	if len(l.settings.Wells) > 0 {
		out := make([]pong.GravityWell, len(l.settings.Wells))
		copy(out, l.settings.Wells)
		return out
	}
	return RandomWells(l.rng, l.settings.Arena, l.settings.RandomWells)
}

// RandomWells scatters n wells over the middle of the arena, one per
// horizontal band so they never overlap.
func RandomWells(rng *rand.Rand, a pong.Arena, n int) []pong.GravityWell {
	if n <= 0 {
		return nil
	}
	wells := make([]pong.GravityWell, n)
	band := a.Height * 0.4 / float32(n)
	for i := range wells {
		wells[i] = pong.GravityWell{
			Pos: pong.Vector{
				X: a.Width * (0.2 + 0.6*rng.Float32()),
				Y: a.Height*0.3 + band*(float32(i)+rng.Float32()),
			},
			Radius: uint32(40 + rng.Intn(41)),
			Force:  0.3 + 0.7*rng.Float32(),
		}
	}
	return wells
}
