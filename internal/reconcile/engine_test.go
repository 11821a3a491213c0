package reconcile

import (
	"testing"

	"gravpong/internal/pong"
	"gravpong/internal/wire"
)

func newTestEngine(t *testing.T, player uint8) *Engine {
	t.Helper()
	m, err := pong.NewMatch(pong.DefaultArena(), player, 1, "normal", nil)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	return NewEngine(m)
}

func frame(id uint32, s1, s2 uint8) pong.Frame {
	return pong.Frame{
		ID:           id,
		Paddle1:      pong.PhysicsAttribute{Position: pong.Vector{X: 400, Y: 1800}},
		Paddle2:      pong.PhysicsAttribute{Position: pong.Vector{X: 600, Y: 100}},
		Ball:         pong.PhysicsAttribute{Position: pong.Vector{X: float32(id), Y: 900}, Velocity: pong.Vector{X: 1, Y: 2}},
		Player1Score: s1,
		Player2Score: s2,
	}
}

// runAhead fills the log with local predictions 0..tip.
func runAhead(e *Engine, tip int) {
	for i := 0; i <= tip; i++ {
		e.Append(pong.Frame{})
	}
}

func TestResyncAllTruncatesAndIgnores(t *testing.T) {
	e := newTestEngine(t, 1)
	runAhead(e, 10)

	err := e.Handle(wire.ResyncAll{Frames: []pong.Frame{frame(5, 0, 0), frame(6, 0, 0), frame(7, 1, 0)}})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	for _, id := range []uint32{8, 9, 10} {
		if !e.Ignored(id) {
			t.Fatalf("id %d not ignored after truncation", id)
		}
		if _, ok := e.Frame(id); ok {
			t.Fatalf("id %d still in the log", id)
		}
	}
	if e.Ignored(7) {
		t.Fatalf("id 7 ignored")
	}
	if tip, _ := e.Tip(); tip != 7 {
		t.Fatalf("tip = %d, want 7", tip)
	}
	if c, _ := e.Confirmed(); c != 7 {
		t.Fatalf("confirmed = %d, want 7", c)
	}
	if f, _ := e.Frame(7); f.Player1Score != 1 {
		t.Fatalf("frame 7 not overwritten: %+v", f)
	}

	q := e.Drain()
	if len(q) != 3 {
		t.Fatalf("queued %d corrections, want 3", len(q))
	}
	for i, c := range q {
		if c.Kind != Full || c.Frame.ID != uint32(5+i) {
			t.Fatalf("correction %d = %v id %d, want full id %d", i, c.Kind, c.Frame.ID, 5+i)
		}
	}
	if len(e.Drain()) != 0 {
		t.Fatalf("Drain did not empty the queue")
	}
}

func TestLatePartForIgnoredFrameIsCounterOnly(t *testing.T) {
	e := newTestEngine(t, 1)
	runAhead(e, 10)
	if err := e.Handle(wire.ResyncAll{Frames: []pong.Frame{frame(7, 0, 0)}}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	e.Drain()

	if err := e.Handle(wire.ResyncPart{Frames: []pong.Frame{frame(9, 3, 3)}}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	q := e.Drain()
	if len(q) != 1 || q[0].Kind != CounterOnly {
		t.Fatalf("corrections = %+v, want one counter-only", q)
	}
	if e.Ignored(9) {
		t.Fatalf("id 9 still ignored")
	}
	if _, ok := e.Frame(9); ok {
		t.Fatalf("ignored frame was stored")
	}
	if !e.Ignored(8) || !e.Ignored(10) {
		t.Fatalf("other ignored ids were dropped")
	}

	// A second part for the same id is a normal correction.
	if err := e.Handle(wire.ResyncPart{Frames: []pong.Frame{frame(9, 3, 3)}}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if q := e.Drain(); len(q) != 1 || q[0].Kind != Part {
		t.Fatalf("corrections = %+v, want one part", q)
	}
	if f, ok := e.Frame(9); !ok || f.Player1Score != 3 {
		t.Fatalf("frame 9 = %+v %v", f, ok)
	}
}

func TestResyncAllSkipsIgnoredFrames(t *testing.T) {
	e := newTestEngine(t, 1)
	runAhead(e, 10)
	e.Handle(wire.ResyncAll{Frames: []pong.Frame{frame(7, 0, 0)}})
	e.Drain()

	// A batch that revisits 8 clears it without applying it.
	e.Handle(wire.ResyncAll{Frames: []pong.Frame{frame(8, 2, 2)}})
	if e.Ignored(8) {
		t.Fatalf("id 8 still ignored")
	}
	if q := e.Drain(); len(q) != 0 {
		t.Fatalf("corrections = %+v, want none", q)
	}
}

func TestEmptyResyncAllIsNoop(t *testing.T) {
	e := newTestEngine(t, 1)
	runAhead(e, 3)
	if err := e.Handle(wire.ResyncAll{Frames: []pong.Frame{}}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if tip, _ := e.Tip(); tip != 3 {
		t.Fatalf("tip = %d, want 3", tip)
	}
}

func TestCorrectionsAreLocalizedForPlayerTwo(t *testing.T) {
	e := newTestEngine(t, 2)
	f := frame(0, 1, 2)
	if err := e.Handle(wire.ResyncPart{Frames: []pong.Frame{f}}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	stored, _ := e.Frame(0)
	if stored.Ball != f.Ball {
		t.Fatalf("log holds %+v, want canonical %+v", stored.Ball, f.Ball)
	}

	q := e.Drain()
	got := q[0].Frame
	want := pong.DefaultArena().ReverseFrame(f)
	if got.Ball != want.Ball || got.Paddle1 != want.Paddle1 || got.Paddle2 != want.Paddle2 {
		t.Fatalf("queued frame = %+v, want %+v", got, want)
	}
	if got.Player1Score != 1 || got.Player2Score != 2 {
		t.Fatalf("scores changed while localizing: %+v", got)
	}
}

func TestResyncPartOfIsCounterOnly(t *testing.T) {
	e := newTestEngine(t, 1)
	e.Handle(wire.ResyncPartOf{Frames: []pong.Frame{frame(0, 0, 0), frame(1, 0, 0)}})
	q := e.Drain()
	if len(q) != 2 || q[0].Kind != CounterOnly || q[1].Kind != CounterOnly {
		t.Fatalf("corrections = %+v", q)
	}
	if _, ok := e.Frame(0); ok {
		t.Fatalf("counter-only frame was stored")
	}
}

func TestFinish(t *testing.T) {
	e := newTestEngine(t, 1)
	if err := e.Handle(wire.Finish{Player1Score: 5, Player2Score: 3}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !e.Finished() {
		t.Fatalf("engine not finished")
	}
	// Later corrections are still accepted.
	if err := e.Handle(wire.ResyncPart{Frames: []pong.Frame{frame(0, 4, 3)}}); err != nil {
		t.Fatalf("Handle after finish: %v", err)
	}
	q := e.Drain()
	if len(q) != 2 || q[0].Kind != Finish || q[0].Frame.Player1Score != 5 || q[1].Kind != Part {
		t.Fatalf("corrections = %+v", q)
	}
}

func TestHandleRejectsNonResyncMessages(t *testing.T) {
	e := newTestEngine(t, 1)
	if err := e.Handle(wire.Sync{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := e.Handle(wire.Accept{}); err == nil {
		t.Fatalf("Accept was handled")
	}
}
