package pong

// The canonical frame of reference always has player 1 at the bottom.
// Player 2 sees the arena rotated by half a turn, so every frame crossing
// between the wire and player 2's simulation goes through ReverseFrame.

// PointSymmetry reflects a position through the arena center.
func (a Arena) PointSymmetry(p Vector) Vector {
	return Vector{X: a.Width - p.X, Y: a.Height - p.Y}
}

// OriginSymmetry reflects a velocity through the origin.
func OriginSymmetry(v Vector) Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

func (a Arena) ReverseAttribute(p PhysicsAttribute) PhysicsAttribute {
	return PhysicsAttribute{
		Position: a.PointSymmetry(p.Position),
		Velocity: OriginSymmetry(p.Velocity),
	}
}

// ReverseFrame maps a frame between the two players' views. Scores, hit
// flags and the id are untouched.
func (a Arena) ReverseFrame(f Frame) Frame {
	f.Paddle1 = a.ReverseAttribute(f.Paddle1)
	f.Paddle2 = a.ReverseAttribute(f.Paddle2)
	f.Ball = a.ReverseAttribute(f.Ball)
	return f
}

// Localize returns f as seen by the given player.
func (a Arena) Localize(f Frame, player uint8) Frame {
	if player == 2 {
		return a.ReverseFrame(f)
	}
	return f
}
