package pong

import "math"

const (
	// boundaryTolerance is the angular width, 0.0005 degrees, at which the
	// boundary search stops narrowing.
	boundaryTolerance = 0.0005 * math.Pi / 180

	// MaxBisections caps the boundary search, the single widening retry
	// included.
	MaxBisections = 64

	// ellipseNudge scales the correction applied to a ball found outside.
	ellipseNudge = 5
)

// Ellipse is the arena wall of the ellipse field variant. A is the
// horizontal semi-axis, B the vertical one.
type Ellipse struct {
	CX, CY float64
	A, B   float64
}

func (a Arena) Ellipse() Ellipse {
	return Ellipse{
		CX: float64(a.Width) / 2,
		CY: float64(a.Height) / 2,
		A:  float64(a.Width) / 2,
		B:  float64(a.Height) / 2,
	}
}

// Containment is below 1 inside the ellipse, 1 on the wall and above 1 outside.
func (e Ellipse) Containment(p Vector) float64 {
	dx := float64(p.X) - e.CX
	dy := float64(p.Y) - e.CY
	return dx*dx/(e.A*e.A) + dy*dy/(e.B*e.B)
}

// pointAt returns the point of the wall at polar angle theta, relative to
// the center, with y pointing up.
func (e Ellipse) pointAt(theta float64) (float64, float64) {
	sin, cos := math.Sincos(theta)
	r := e.A * e.B / math.Hypot(e.B*cos, e.A*sin)
	return r * cos, r * sin
}

// determinant is zero when the wall gradient at p is collinear with p-c.
func (e Ellipse) determinant(cx, cy, px, py float64) float64 {
	return e.A*e.A*py*(px-cx) - e.B*e.B*px*(py-cy)
}

func (e Ellipse) ratio(cx, cy, px, py float64) float64 {
	return (e.A * e.A * py * (px - cx)) / (e.B * e.B * px * (py - cy))
}

// solveQuadrant bisects for the angle of the wall point whose normal passes
// through (cx, cy), a point in the first quadrant. It returns the angle and
// the number of bisections spent. When the collinearity check still fails
// after the widened retry the last converged angle is returned.
func (e Ellipse) solveQuadrant(cx, cy float64) (float64, int) {
	lower, upper := 0.0, math.Pi/2
	widened := false
	theta := (lower + upper) / 2

	for i := 1; i <= MaxBisections; i++ {
		theta = (lower + upper) / 2
		px, py := e.pointAt(theta)
		r := e.ratio(cx, cy, px, py)

		if upper-lower < boundaryTolerance {
			if (r >= 0.9 && r <= 1.1) || widened {
				return theta, i
			}
			widened = true
			lower, upper = -math.Pi/4, 3*math.Pi/4
			continue
		}

		det := e.determinant(cx, cy, px, py)
		switch {
		case det < 0:
			upper = theta
		case det > 0:
			lower = theta
		default:
			// The interval cannot narrow any further on a zero determinant.
			return theta, i
		}
	}
	return theta, MaxBisections
}

// Normal locates the wall point nearest to pos along the wall normal and
// returns the displacement from pos to it, the wall point itself and the
// bisections spent.
func (e Ellipse) Normal(pos Vector) (Vector, Vector, int) {
	dx := float64(pos.X) - e.CX
	dy := e.CY - float64(pos.Y)

	// Fold into the first quadrant, remembering the flips.
	sx, sy := 1.0, 1.0
	if dx < 0 {
		sx, dx = -1, -dx
	}
	if dy < 0 {
		sy, dy = -1, -dy
	}

	theta, n := e.solveQuadrant(dx, dy)
	px, py := e.pointAt(theta)

	wall := Vector{X: float32(e.CX + sx*px), Y: float32(e.CY - sy*py)}
	return wall.Sub(pos), wall, n
}

// Bounce keeps the ball inside the wall. A ball within one radius of the
// wall and moving into it is mirrored without energy gain; a ball already
// outside is pulled back in a little every tick.
func (e Ellipse) Bounce(ball *Body) {
	normal, _, _ := e.Normal(ball.Position)

	x, y := float64(ball.Position.X), float64(ball.Position.Y)
	if y == e.CY-e.B || y == e.CY+e.B {
		ball.Velocity.Y = -ball.Velocity.Y
	}
	if x == e.CX-e.A || x == e.CX+e.A {
		ball.Velocity.X = -ball.Velocity.X
	}

	c := e.Containment(ball.Position)
	switch {
	case c < 1 && normal.Len() <= ball.Radius:
		if v, ok := Reflect(ball.Velocity, normal, 1); ok {
			ball.Velocity = v
		}
	case c >= 1:
		ball.Position = ball.Position.Add(normal.Scale(ellipseNudge))
	}
}
