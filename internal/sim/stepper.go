package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gravpong/internal/pong"
	"gravpong/internal/reconcile"
	"gravpong/internal/wire"
)

const DefaultTickRate = 60

// Sender delivers a message to the other side. It must not block.
type Sender interface {
	Send(msg wire.Message)
}

// Stepper owns one peer's simulation. All state changes happen inside Tick;
// other goroutines hand work over through the engine and MovePaddle.
type Stepper struct {
	match    pong.Match
	state    *pong.State
	engine   *reconcile.Engine
	collider pong.Collider
	sender   Sender

	mu      sync.Mutex
	pending *pong.Vector
	nudge   pong.Vector

	halted bool
}

func NewStepper(m pong.Match, engine *reconcile.Engine, sender Sender) *Stepper {
	return &Stepper{
		match:    m,
		state:    pong.NewState(m),
		engine:   engine,
		collider: pong.CircleCollider{},
		sender:   sender,
	}
}

// WithCollider swaps the collision primitive.
func (s *Stepper) WithCollider(c pong.Collider) *Stepper {
	s.collider = c
	return s
}

// State exposes the live state. Only touch it from the tick goroutine.
func (s *Stepper) State() *pong.State { return s.state }

func (s *Stepper) Halted() bool { return s.halted }

// MovePaddle queues a new position for the own paddle. It is picked up at
// the start of the next tick.
func (s *Stepper) MovePaddle(pos pong.Vector) {
	s.mu.Lock()
	s.pending = &pos
	s.nudge = pong.Vector{}
	s.mu.Unlock()
}

// NudgePaddle queues a move relative to the last queued or live position.
func (s *Stepper) NudgePaddle(d pong.Vector) {
	s.mu.Lock()
	s.nudge = s.nudge.Add(d)
	s.mu.Unlock()
}

// Run ticks at the given rate until the match is won or ctx is done.
func (s *Stepper) Run(ctx context.Context, hz int) {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for !s.halted {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the simulation by one step. Once halted it only settles
// late finish corrections.
func (s *Stepper) Tick() {
	if s.halted {
		s.settle()
		return
	}
	st := s.state
	a := s.match.Arena

	for _, c := range s.engine.Drain() {
		s.apply(c)
	}
	s.applyInput()

	paddle1Hit, paddle2Hit := s.collide()

	st.CounterPaddle.Position = st.CounterPaddle.Position.Add(st.CounterPaddle.Velocity)

	if a.Field == pong.FieldEllipse {
		a.Ellipse().Bounce(&st.Ball)
	} else {
		wallReflection(a, &st.Ball)
	}

	limitVelocity(a, &st.Ball)

	if len(s.match.Wells) > 0 {
		pong.ApplyGravity(&st.Ball, s.match.Wells)
	}

	if !st.Finished && !s.won() {
		s.sendFrame(paddle1Hit, paddle2Hit)
	}

	st.Ball.Position = st.Ball.Position.Add(st.Ball.Velocity)

	// Scores are settled once the server has finished the match.
	scored := false
	if !st.Finished {
		scored = s.score()
	}

	if st.Finished || s.won() {
		// The winning goal goes out once so the server can finish the match.
		if scored && !st.Finished {
			s.sendFrame(false, false)
		}
		s.halted = true
		slog.Debug("simulation halted",
			slog.Any("player1", st.Player1Score),
			slog.Any("player2", st.Player2Score))
	}
}

// settle applies finish corrections that arrive after the stepper halted.
// The live bodies stay frozen, so every other kind is dropped.
func (s *Stepper) settle() {
	for _, c := range s.engine.Drain() {
		if c.Kind == reconcile.Finish {
			s.apply(c)
		}
	}
}

func (s *Stepper) apply(c reconcile.Correction) {
	st := s.state
	f := c.Frame

	if c.Kind == reconcile.Finish {
		st.Player1Score = f.Player1Score
		st.Player2Score = f.Player2Score
		st.Finished = true
		return
	}

	counter := f.Paddle2
	if s.match.Player == 2 {
		counter = f.Paddle1
	}
	st.CounterPaddle.Position = counter.Position
	st.CounterPaddle.Velocity = counter.Velocity

	if c.Kind == reconcile.CounterOnly {
		return
	}
	st.Ball.Position = f.Ball.Position
	st.Ball.Velocity = f.Ball.Velocity
	// A finished match keeps the scores the server settled on.
	if !st.Finished {
		st.Player1Score = f.Player1Score
		st.Player2Score = f.Player2Score
	}
}

func (s *Stepper) applyInput() {
	s.mu.Lock()
	p, d := s.pending, s.nudge
	s.pending, s.nudge = nil, pong.Vector{}
	s.mu.Unlock()
	if p == nil && d == (pong.Vector{}) {
		return
	}

	a := s.match.Arena
	next := s.state.Paddle.Position
	if p != nil {
		next = *p
	}
	next = next.Add(d)
	// The own paddle stays below the center line.
	if floor := a.Height/2 + a.PaddleRadius; next.Y < floor {
		next.Y = floor
	}
	prev := s.state.Paddle.Position
	s.state.Paddle.Position = next
	s.state.PaddleVelocity = next.Sub(prev)
}

// collide bounces the ball off the first paddle it touches and returns the
// hit flags in canonical terms: paddle1 is player 1's paddle for both peers,
// so player 2 hitting with its own paddle reports Paddle2Hit.
func (s *Stepper) collide() (bool, bool) {
	st := s.state
	a := s.match.Arena

	contact, ok := s.collider.Collide(st.Ball, st.Paddle)
	if !ok {
		contact, ok = s.collider.Collide(st.Ball, st.CounterPaddle)
	}
	if !ok {
		return false, false
	}

	if v, moved := pong.Reflect(st.Ball.Velocity, contact.Normal, a.Restitution); moved {
		st.Ball.Velocity = v
	}
	st.Ball.Velocity = st.Ball.Velocity.Add(st.PaddleVelocity.Scale(1.0 / 8))
	st.PaddleVelocity = pong.Vector{}

	lower := contact.Paddle.Position.Y > a.Height/2
	if s.match.Player == 2 {
		lower = !lower
	}
	return lower, !lower
}

func wallReflection(a pong.Arena, ball *pong.Body) {
	switch {
	case ball.Position.X < ball.Radius:
		ball.Position.X = ball.Radius
		ball.Velocity.X = -ball.Velocity.X
	case ball.Position.X > a.Width-ball.Radius:
		ball.Position.X = a.Width - ball.Radius
		ball.Velocity.X = -ball.Velocity.X
	}
}

// limitVelocity caps each axis at the speed limit. Only the positive
// direction is capped.
func limitVelocity(a pong.Arena, ball *pong.Body) {
	if ball.Velocity.X > a.SpeedLimit {
		ball.Velocity.X = a.SpeedLimit
	}
	if ball.Velocity.Y > a.SpeedLimit {
		ball.Velocity.Y = a.SpeedLimit
	}
}

func (s *Stepper) sendFrame(paddle1Hit, paddle2Hit bool) {
	st := s.state
	own := pong.PhysicsAttribute{Position: st.Paddle.Position, Velocity: st.PaddleVelocity}
	counter := pong.PhysicsAttribute{Position: st.CounterPaddle.Position}

	f := pong.Frame{
		Paddle1:    own,
		Paddle1Hit: paddle1Hit,
		Paddle2:    counter,
		Paddle2Hit: paddle2Hit,
		Ball: pong.PhysicsAttribute{
			Position: st.Ball.Position.Add(st.Ball.Velocity),
			Velocity: st.Ball.Velocity,
		},
		Player1Score: st.Player1Score,
		Player2Score: st.Player2Score,
	}
	if s.match.Player == 2 {
		f.Paddle1, f.Paddle2 = counter, own
		f = s.match.Arena.ReverseFrame(f)
	}

	f = s.engine.Append(f)
	if s.sender != nil {
		s.sender.Send(wire.FrameUpdate{SetNo: s.match.SetNo, Player: s.match.Player, Frame: f})
	}
}

// score awards a goal when the ball leaves through the top or bottom of the
// local view and puts the ball back in the middle. It reports whether a goal
// was scored.
func (s *Stepper) score() bool {
	st := s.state
	a := s.match.Arena

	var scorer uint8
	switch {
	case st.Ball.Position.Y < st.Ball.Radius:
		scorer = s.match.Player
	case st.Ball.Position.Y > a.Height-st.Ball.Radius:
		scorer = s.match.Opponent()
	default:
		return false
	}

	launch := pong.Vector{X: -pong.LaunchSpeed, Y: -pong.LaunchSpeed}
	if scorer == 1 {
		st.Player1Score++
	} else {
		st.Player2Score++
		launch = pong.OriginSymmetry(launch)
	}
	if s.match.Player == 2 {
		launch = pong.OriginSymmetry(launch)
	}

	st.Ball.Position = pong.Vector{X: a.Width / 2, Y: a.Height / 2}
	st.Ball.Velocity = launch
	st.Ball.AngularVelocity = 0

	slog.Debug("goal",
		slog.Any("scorer", scorer),
		slog.Any("player1", st.Player1Score),
		slog.Any("player2", st.Player2Score))
	return true
}

func (s *Stepper) won() bool {
	w := s.match.Arena.WinScore
	return s.state.Player1Score >= w || s.state.Player2Score >= w
}
