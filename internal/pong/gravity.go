package pong

// Attract returns the velocity change one well applies to a ball at pos in a
// single tick. The pull falls off with distance+1 so it never blows up on top
// of the well.
func Attract(w GravityWell, pos Vector) Vector {
	d := w.Pos.Sub(pos)
	f := d.Scale(w.Force / (d.Len() + 1))
	return f.Scale(1.0 / 3)
}

// ApplyGravity adds the pull of every well to the ball velocity.
func ApplyGravity(ball *Body, wells []GravityWell) {
	var dv Vector
	for _, w := range wells {
		dv = dv.Add(Attract(w, ball.Position))
	}
	ball.Velocity = ball.Velocity.Add(dv)
}
