package reconcile

import (
	"fmt"
	"log/slog"
	"sync"

	"gravpong/internal/pong"
	"gravpong/internal/wire"
)

type Kind uint8

const (
	// Full overwrites the counter paddle, the ball and both scores.
	Full Kind = iota
	// Part has the same effect as Full but comes from a partial resync,
	// which never truncates the log.
	Part
	// CounterOnly moves the counter paddle and leaves the rest alone.
	CounterOnly
	// Finish adopts the final scores and ends the match.
	Finish
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case Part:
		return "part"
	case CounterOnly:
		return "counter-only"
	case Finish:
		return "finish"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Correction is a queued change to the live simulation. Frame is already in
// the local player's coordinates.
type Correction struct {
	Kind  Kind
	Frame pong.Frame
}

// Engine merges authoritative messages into the frame log and queues the
// resulting corrections for the next tick. Handle may be called from the
// network goroutine while the tick goroutine calls Drain and Append.
type Engine struct {
	mu sync.Mutex

	arena  pong.Arena
	player uint8

	log      *FrameLog
	ignored  map[uint32]struct{}
	queue    []Correction
	finished bool
}

func NewEngine(m pong.Match) *Engine {
	return &Engine{
		arena:   m.Arena,
		player:  m.Player,
		log:     NewFrameLog(),
		ignored: make(map[uint32]struct{}),
	}
}

// Handle applies one inbound message. Only resync and finish messages touch
// the log; Sync is a keepalive.
func (e *Engine) Handle(msg wire.Message) error {
	switch m := msg.(type) {
	case wire.ResyncAll:
		e.resyncAll(m.Frames)
	case wire.ResyncPart:
		e.resyncPart(m.Frames)
	case wire.ResyncPartOf:
		e.mu.Lock()
		for _, f := range m.Frames {
			delete(e.ignored, f.ID)
			e.enqueue(CounterOnly, f)
		}
		e.mu.Unlock()
	case wire.Finish:
		e.mu.Lock()
		e.finished = true
		e.queue = append(e.queue, Correction{Kind: Finish, Frame: pong.Frame{
			Player1Score: m.Player1Score,
			Player2Score: m.Player2Score,
		}})
		e.mu.Unlock()
		slog.Debug("match finished by server", slog.Any("player1", m.Player1Score), slog.Any("player2", m.Player2Score))
	case wire.Sync:
	default:
		return fmt.Errorf("reconcile: unexpected message opcode %d", msg.Opcode())
	}
	return nil
}

func (e *Engine) resyncAll(frames []pong.Frame) {
	if len(frames) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	last := frames[len(frames)-1].ID
	// The local simulation ran ahead of what the other side confirmed;
	// those predictions are dropped until a partial resync revisits them.
	for _, id := range e.log.TruncateAfter(last) {
		e.ignored[id] = struct{}{}
	}

	for _, f := range frames {
		if _, ok := e.ignored[f.ID]; ok {
			delete(e.ignored, f.ID)
			continue
		}
		e.log.Overwrite(f)
		e.enqueue(Full, f)
	}
}

func (e *Engine) resyncPart(frames []pong.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, f := range frames {
		if _, ok := e.ignored[f.ID]; ok {
			delete(e.ignored, f.ID)
			e.enqueue(CounterOnly, f)
			continue
		}
		e.log.Overwrite(f)
		e.enqueue(Part, f)
	}
}

// enqueue must be called with mu held.
func (e *Engine) enqueue(k Kind, f pong.Frame) {
	e.queue = append(e.queue, Correction{Kind: k, Frame: e.arena.Localize(f, e.player)})
}

// Drain hands over every queued correction in arrival order.
func (e *Engine) Drain() []Correction {
	e.mu.Lock()
	defer e.mu.Unlock()
	q := e.queue
	e.queue = nil
	return q
}

// Append records a locally produced frame, given in canonical coordinates,
// under the next free id and returns it with the id set.
func (e *Engine) Append(f pong.Frame) pong.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Append(f)
}

// Finished reports whether a Finish message has been received.
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finished
}

// Ignored reports whether id is waiting in the ignore set.
func (e *Engine) Ignored(id uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.ignored[id]
	return ok
}

// Frame returns the stored frame for id in canonical coordinates.
func (e *Engine) Frame(id uint32) (pong.Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Get(id)
}

// Tip returns the highest stored id.
func (e *Engine) Tip() (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Tip()
}

// Confirmed returns the confirmed watermark.
func (e *Engine) Confirmed() (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Confirmed()
}

// Frames snapshots the log in id order.
func (e *Engine) Frames() []pong.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Frames()
}
