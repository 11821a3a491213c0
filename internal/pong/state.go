package pong

import "math"

type Vector struct {
	X float32
	Y float32
}

func (v Vector) Add(o Vector) Vector { return Vector{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector) Scale(k float32) Vector { return Vector{X: v.X * k, Y: v.Y * k} }
func (v Vector) Dot(o Vector) float32 { return v.X*o.X + v.Y*o.Y }

func (v Vector) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// PhysicsAttribute is the position and velocity of one body as carried on the wire.
type PhysicsAttribute struct {
	Position Vector
	Velocity Vector
}

// Frame is one tick of paddle and ball state plus scores, always in player 1's
// frame of reference once it sits in a FrameLog or on the wire.
type Frame struct {
	ID           uint32
	Paddle1      PhysicsAttribute
	Paddle1Hit   bool
	Paddle2      PhysicsAttribute
	Paddle2Hit   bool
	Ball         PhysicsAttribute
	Player1Score uint8
	Player2Score uint8
}

type GravityWell struct {
	Pos    Vector
	Radius uint32
	Force  float32
}

// Body is a circular rigid body. Paddles are static and only move when
// placed; the ball integrates its velocity once per tick.
type Body struct {
	Position        Vector
	Velocity        Vector
	AngularVelocity float32
	Radius          float32
}

func (b Body) Attribute() PhysicsAttribute {
	return PhysicsAttribute{Position: b.Position, Velocity: b.Velocity}
}

// State is the whole mutable simulation of one peer, in that peer's local
// coordinates: the own paddle always sits in the lower half.
type State struct {
	Ball          Body
	Paddle        Body
	CounterPaddle Body

	// PaddleVelocity is the own paddle's tracked velocity, derived from
	// input displacement and consumed by the next ball hit.
	PaddleVelocity Vector

	Player1Score uint8
	Player2Score uint8
	Finished     bool
}

// NewState places the paddles and the ball at their kick-off positions.
func NewState(m Match) *State {
	a := m.Arena
	launch := Vector{X: LaunchSpeed, Y: LaunchSpeed}
	if m.Player == 2 {
		launch = OriginSymmetry(launch)
	}
	return &State{
		Ball: Body{
			Position: Vector{X: a.Width / 2, Y: a.Height / 2},
			Velocity: launch,
			Radius:   a.BallRadius,
		},
		Paddle: Body{
			Position: Vector{X: a.Width / 2, Y: a.Height - a.BallRadius - 50},
			Radius:   a.PaddleRadius,
		},
		CounterPaddle: Body{
			Position: Vector{X: a.Width / 2, Y: a.BallRadius + 50},
			Radius:   a.PaddleRadius,
		},
	}
}

// Score returns the score of the given player number.
func (s *State) Score(player uint8) uint8 {
	if player == 2 {
		return s.Player2Score
	}
	return s.Player1Score
}
