package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gravpong/internal/config"
	"gravpong/internal/netwrk"
	"gravpong/internal/pong"
	"gravpong/internal/reconcile"
	"gravpong/internal/replay"
	"gravpong/internal/sim"
	"gravpong/internal/wire"
)

// Session is one peer's view of a match after the handshake.
type Session struct {
	MatchID string
	Match   pong.Match
	Field   string
	Engine  *reconcile.Engine
	Stepper *sim.Stepper
	conn    *netwrk.Conn
}

// Join runs the handshake on conn: HANDSHAKE, INITIALIZE, optional CREATE,
// START. It returns once the match parameters are known and validated.
func Join(ctx context.Context, conn *netwrk.Conn, cfg config.Configuration) (*Session, error) {
	arena, err := cfg.ArenaSettings()
	if err != nil {
		return nil, err
	}

	conn.Send(wire.Handshake{})

	var (
		player  uint8
		matchID string
		start   wire.Start
	)
	err = await(ctx, conn, func(msg wire.Message) (bool, error) {
		switch m := msg.(type) {
		case wire.Initialize:
			player, matchID = m.Player, m.MatchID
			slog.Info("seated", slog.String("match", matchID), slog.Any("player", player))
			if player == 1 && cfg.CreateWith != "" {
				conn.Send(wire.Create{Field: cfg.CreateWith, Wells: cfg.GravityWells()})
			}
		case wire.Accept:
			slog.Debug("field accepted", slog.String("field", cfg.CreateWith))
		case wire.Reject:
			if player == 0 {
				return false, fmt.Errorf("server rejected handshake: %s", m.Reason)
			}
			slog.Warn("server rejected field", slog.String("reason", m.Reason))
		case wire.Start:
			start = m
			return true, nil
		default:
			slog.Debug("ignoring message before start", slog.Any("opcode", msg.Opcode()))
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	match, err := pong.NewMatch(arena, player, start.SetNo, start.Field, start.Wells)
	if err != nil {
		return nil, fmt.Errorf("starting match %s: %w", matchID, err)
	}
	engine := reconcile.NewEngine(match)
	s := &Session{
		MatchID: matchID,
		Match:   match,
		Field:   start.Field,
		Engine:  engine,
		Stepper: sim.NewStepper(match, engine, conn),
		conn:    conn,
	}
	conn.Send(wire.Ready{})
	return s, nil
}

func await(ctx context.Context, conn *netwrk.Conn, fn func(wire.Message) (bool, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-conn.Ingress():
			if !ok {
				return conn.Err()
			}
			done, err := fn(msg)
			if err != nil || done {
				return err
			}
		}
	}
}

// Run feeds inbound messages to the engine and ticks the stepper until the
// match is won, the connection drops or ctx is done.
func (s *Session) Run(ctx context.Context, tickRate int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		for msg := range s.conn.Ingress() {
			if err := s.Engine.Handle(msg); err != nil {
				slog.Debug("unhandled message", slog.Any("error", err))
			}
		}
	}()

	s.Stepper.Run(ctx, tickRate)

	if s.Stepper.Halted() || s.Engine.Finished() {
		s.awaitFinish(ctx, finishWait)
		st := s.Stepper.State()
		slog.Info("match over", slog.Any("player1", st.Player1Score), slog.Any("player2", st.Player2Score))
		return nil
	}
	if err := s.conn.Err(); err != nil {
		// Nobody forfeits: the match stays open-ended.
		return fmt.Errorf("match %s interrupted: %w", s.MatchID, err)
	}
	return ctx.Err()
}

// finishWait bounds how long a locally won match waits for the server's
// FINISH before reporting the local score.
const finishWait = 2 * time.Second

// awaitFinish settles the halted stepper until the engine has seen FINISH,
// the wait runs out or ctx is done.
func (s *Session) awaitFinish(ctx context.Context, wait time.Duration) {
	timeout := time.NewTimer(wait)
	defer timeout.Stop()
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	for !s.Engine.Finished() {
		select {
		case <-ctx.Done():
			return
		case <-timeout.C:
			slog.Debug("no finish from server", slog.String("match", s.MatchID))
			return
		case <-poll.C:
		}
	}
	s.Stepper.Tick()
}

// SaveReplay writes the frame log to path.
func (s *Session) SaveReplay(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating replay: %w", err)
	}
	r := replay.Replay{
		Header: replay.Header{
			MatchID: s.MatchID,
			Player:  s.Match.Player,
			SetNo:   s.Match.SetNo,
			Field:   s.Field,
		},
		Frames: s.Engine.Frames(),
	}
	return errors.Join(replay.Write(f, r), f.Close())
}

// Game dials the server, plays one match and optionally saves its replay.
func Game(ctx context.Context, cfg config.Configuration) error {
	conn, err := netwrk.Dial(ctx, cfg.ServerURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	s, err := Join(ctx, conn, cfg)
	if err != nil {
		return err
	}
	fmt.Println("Connected to game!")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop, err := ReadKeys(s.Stepper, cancel)
	if err != nil {
		slog.Info("keyboard input unavailable", slog.Any("error", err))
	} else {
		defer stop()
	}

	runErr := s.Run(ctx, cfg.TickRate)
	if cfg.ReplayPath != "" {
		if err := s.SaveReplay(cfg.ReplayPath); err != nil {
			slog.Error("saving replay", slog.Any("error", err))
		}
	}
	return runErr
}
