package reconcile

import (
	"sort"

	"gravpong/internal/pong"
)

// FrameLog indexes the frames of one match by id. It is not safe for
// concurrent use; Engine serializes access to it.
type FrameLog struct {
	frames map[uint32]pong.Frame

	tip    uint32
	hasTip bool

	// confirmed is the highest id overwritten by an authoritative message.
	confirmed    uint32
	hasConfirmed bool
}

func NewFrameLog() *FrameLog {
	return &FrameLog{frames: make(map[uint32]pong.Frame)}
}

func (l *FrameLog) Len() int { return len(l.frames) }

// Tip returns the highest id in the log.
func (l *FrameLog) Tip() (uint32, bool) { return l.tip, l.hasTip }

// Confirmed returns the highest id ever overwritten by an authoritative
// frame. It may lie above the tip after a truncation.
func (l *FrameLog) Confirmed() (uint32, bool) { return l.confirmed, l.hasConfirmed }

// NextID is the id the next locally produced frame gets.
func (l *FrameLog) NextID() uint32 {
	if !l.hasTip {
		return 0
	}
	return l.tip + 1
}

func (l *FrameLog) Get(id uint32) (pong.Frame, bool) {
	f, ok := l.frames[id]
	return f, ok
}

// Append stores a locally produced frame under the next id and returns it.
func (l *FrameLog) Append(f pong.Frame) pong.Frame {
	f.ID = l.NextID()
	l.put(f)
	return f
}

// Overwrite stores an authoritative frame at its id and raises the watermark.
func (l *FrameLog) Overwrite(f pong.Frame) {
	l.put(f)
	if !l.hasConfirmed || f.ID > l.confirmed {
		l.confirmed, l.hasConfirmed = f.ID, true
	}
}

func (l *FrameLog) put(f pong.Frame) {
	l.frames[f.ID] = f
	if !l.hasTip || f.ID > l.tip {
		l.tip, l.hasTip = f.ID, true
	}
}

// TruncateAfter removes every frame with an id above cutoff and returns the
// removed ids in ascending order. The tip drops to cutoff; the confirmed
// watermark never goes down.
func (l *FrameLog) TruncateAfter(cutoff uint32) []uint32 {
	if !l.hasTip || l.tip <= cutoff {
		return nil
	}
	var removed []uint32
	for id := cutoff + 1; ; id++ {
		if _, ok := l.frames[id]; ok {
			delete(l.frames, id)
		}
		removed = append(removed, id)
		if id == l.tip {
			break
		}
	}
	l.tip = cutoff
	return removed
}

// Frames returns a copy of the stored frames in id order.
func (l *FrameLog) Frames() []pong.Frame {
	out := make([]pong.Frame, 0, len(l.frames))
	for _, f := range l.frames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
