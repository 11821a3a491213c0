package pong

import "math"

// Contact describes a ball touching a paddle. Normal is the unit vector from
// the ball center towards the paddle center.
type Contact struct {
	Normal Vector
	Paddle Body
}

// Collider answers pairwise collision queries between the ball and a paddle.
type Collider interface {
	Collide(ball, paddle Body) (Contact, bool)
}

// CircleCollider treats both bodies as circles.
type CircleCollider struct{}

func (CircleCollider) Collide(ball, paddle Body) (Contact, bool) {
	d := paddle.Position.Sub(ball.Position)
	dist := d.Len()
	if dist >= ball.Radius+paddle.Radius {
		return Contact{}, false
	}
	n := Vector{X: 0, Y: 1}
	if dist > 0 {
		n = d.Scale(1 / dist)
	}
	return Contact{Normal: n, Paddle: paddle}, true
}

// Reflect mirrors v about normal and scales it by k. Nothing happens unless
// v points along the normal, i.e. the ball is moving into the surface.
func Reflect(v, normal Vector, k float32) (Vector, bool) {
	if normal.Dot(v) < 0 {
		return v, false
	}
	theta := math.Atan2(float64(normal.Y), float64(normal.X))
	alpha := math.Atan2(float64(v.Y), float64(v.X))
	sin, cos := math.Sincos(2*theta - 2*alpha)
	vx, vy := float64(v.X), float64(v.Y)
	return Vector{
		X: float32(vx*cos-vy*sin) * -k,
		Y: float32(vx*sin+vy*cos) * -k,
	}, true
}
