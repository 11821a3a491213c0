package pong

import (
	"errors"
	"math"
	"testing"
)

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestReverseFrameIsInvolution(t *testing.T) {
	a := DefaultArena()
	f := Frame{
		ID:         12,
		Paddle1:    PhysicsAttribute{Position: Vector{X: 412.5, Y: 1790}, Velocity: Vector{X: 3, Y: -1}},
		Paddle1Hit: true,
		Paddle2:    PhysicsAttribute{Position: Vector{X: 611, Y: 140.25}},
		Ball:       PhysicsAttribute{Position: Vector{X: 77.125, Y: 1003}, Velocity: Vector{X: -14.5, Y: 22}},

		Player1Score: 2,
		Player2Score: 1,
	}
	got := a.ReverseFrame(a.ReverseFrame(f))
	for _, pair := range [][2]PhysicsAttribute{
		{got.Paddle1, f.Paddle1}, {got.Paddle2, f.Paddle2}, {got.Ball, f.Ball},
	} {
		g, w := pair[0], pair[1]
		if !near(float64(g.Position.X), float64(w.Position.X), 1e-6) ||
			!near(float64(g.Position.Y), float64(w.Position.Y), 1e-6) ||
			g.Velocity != w.Velocity {
			t.Fatalf("double reverse = %+v, want %+v", g, w)
		}
	}
	if got.ID != f.ID || got.Paddle1Hit != f.Paddle1Hit || got.Player1Score != f.Player1Score || got.Player2Score != f.Player2Score {
		t.Fatalf("reverse touched id, flags or scores: %+v", got)
	}
}

func TestPointSymmetry(t *testing.T) {
	a := DefaultArena()
	center := Vector{X: a.Width / 2, Y: a.Height / 2}
	if got := a.PointSymmetry(center); got != center {
		t.Fatalf("center maps to %v, want itself", got)
	}
	if got := a.PointSymmetry(Vector{X: 0, Y: 0}); got != (Vector{X: a.Width, Y: a.Height}) {
		t.Fatalf("origin maps to %v", got)
	}
	if got := OriginSymmetry(Vector{X: 15, Y: -15}); got != (Vector{X: -15, Y: 15}) {
		t.Fatalf("OriginSymmetry = %v", got)
	}
}

func TestNewMatchRejectsBadConfiguration(t *testing.T) {
	a := DefaultArena()
	cases := []struct {
		player uint8
		field  string
		want   string
	}{
		{0, "normal", "player"},
		{3, "normal", "player"},
		{1, "square", "field"},
		{2, "", "field"},
	}
	for _, c := range cases {
		_, err := NewMatch(a, c.player, 1, c.field, nil)
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("NewMatch(player=%d, field=%q) err = %v, want ConfigurationError", c.player, c.field, err)
		}
		if ce.Field != c.want {
			t.Fatalf("NewMatch(player=%d, field=%q) rejected %q, want %q", c.player, c.field, ce.Field, c.want)
		}
	}
}

func TestNewMatchFlipsWellsForPlayerTwo(t *testing.T) {
	a := DefaultArena()
	wells := []GravityWell{{Pos: Vector{X: 100, Y: 200}, Radius: 30, Force: 1}}

	m, err := NewMatch(a, 2, 1, "ellipse", wells)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	if m.Arena.Field != FieldEllipse {
		t.Fatalf("field = %q, want ellipse", m.Arena.Field)
	}
	if want := (Vector{X: 900, Y: 1720}); m.Wells[0].Pos != want {
		t.Fatalf("player 2 well at %v, want %v", m.Wells[0].Pos, want)
	}
	if wells[0].Pos != (Vector{X: 100, Y: 200}) {
		t.Fatalf("input wells were modified: %v", wells[0].Pos)
	}
	if m.Opponent() != 1 {
		t.Fatalf("Opponent() = %d, want 1", m.Opponent())
	}
}

func TestArenaValidateRestitution(t *testing.T) {
	a := DefaultArena()
	for _, k := range []float32{1.0, 1.2} {
		a.Restitution = k
		if err := a.Validate(); err == nil {
			t.Fatalf("restitution %v accepted", k)
		}
	}
	a.Restitution = 1.1
	if err := a.Validate(); err != nil {
		t.Fatalf("restitution 1.1 rejected: %v", err)
	}
}

func TestGravityIsAdditiveAndOrderIndependent(t *testing.T) {
	w1 := GravityWell{Pos: Vector{X: 300, Y: 400}, Radius: 20, Force: 2}
	w2 := GravityWell{Pos: Vector{X: 800, Y: 1500}, Radius: 50, Force: 0.5}
	start := Body{Position: Vector{X: 500, Y: 960}, Velocity: Vector{X: 1, Y: -1}}

	ab, ba := start, start
	ApplyGravity(&ab, []GravityWell{w1, w2})
	ApplyGravity(&ba, []GravityWell{w2, w1})
	if ab.Velocity != ba.Velocity {
		t.Fatalf("well order changed result: %v vs %v", ab.Velocity, ba.Velocity)
	}

	sum := start.Velocity.Add(Attract(w1, start.Position)).Add(Attract(w2, start.Position))
	if !near(float64(sum.X), float64(ab.Velocity.X), 1e-5) || !near(float64(sum.Y), float64(ab.Velocity.Y), 1e-5) {
		t.Fatalf("velocity = %v, want sum of pulls %v", ab.Velocity, sum)
	}
	if ab.Position != start.Position {
		t.Fatalf("gravity moved the ball to %v", ab.Position)
	}
}

func TestAttractPullsTowardWell(t *testing.T) {
	w := GravityWell{Pos: Vector{X: 100, Y: 0}, Force: 3}
	got := Attract(w, Vector{X: 0, Y: 0})
	// 3 * 100/101 / 3
	if !near(float64(got.X), 100.0/101, 1e-5) || got.Y != 0 {
		t.Fatalf("Attract = %v, want (%v, 0)", got, 100.0/101)
	}
	if got := Attract(w, w.Pos); got != (Vector{}) {
		t.Fatalf("pull on top of the well = %v, want zero", got)
	}
}

func TestReflect(t *testing.T) {
	v, ok := Reflect(Vector{X: 0, Y: 10}, Vector{X: 0, Y: 1}, 1.05)
	if !ok {
		t.Fatalf("head-on hit not reflected")
	}
	if !near(float64(v.X), 0, 1e-5) || !near(float64(v.Y), -10.5, 1e-4) {
		t.Fatalf("Reflect = %v, want (0, -10.5)", v)
	}

	v, ok = Reflect(Vector{X: 4, Y: 3}, Vector{X: 1, Y: 0}, 1)
	if !ok || !near(float64(v.X), -4, 1e-5) || !near(float64(v.Y), 3, 1e-5) {
		t.Fatalf("Reflect = %v %v, want (-4, 3)", v, ok)
	}

	if _, ok := Reflect(Vector{X: 0, Y: -10}, Vector{X: 0, Y: 1}, 1.05); ok {
		t.Fatalf("ball moving away from the surface was reflected")
	}
}

func TestCircleCollider(t *testing.T) {
	ball := Body{Position: Vector{X: 500, Y: 1700}, Radius: 36}
	paddle := Body{Position: Vector{X: 500, Y: 1800}, Radius: 80}
	c, ok := CircleCollider{}.Collide(ball, paddle)
	if !ok {
		t.Fatalf("overlapping bodies did not collide")
	}
	if !near(float64(c.Normal.X), 0, 1e-6) || !near(float64(c.Normal.Y), 1, 1e-6) {
		t.Fatalf("normal = %v, want (0, 1)", c.Normal)
	}
	paddle.Position.Y = 1817
	if _, ok := (CircleCollider{}).Collide(ball, paddle); ok {
		t.Fatalf("separated bodies collided")
	}
}
