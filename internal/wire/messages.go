package wire

import (
	"fmt"

	"gravpong/internal/pong"
)

// ServerOpcode tags messages a peer sends to the match server.
type ServerOpcode uint8

const (
	ServerHandshake ServerOpcode = iota
	ServerCreate
	ServerStart
	ServerFrame
)

// ClientOpcode tags messages the match server sends to a peer.
type ClientOpcode uint8

const (
	ClientInitialize ClientOpcode = iota
	ClientAccept
	ClientReject
	ClientStart
	ClientResyncAll
	ClientResyncPart
	ClientResyncPartOf
	ClientSync
	ClientFinish
)

const (
	AttributeSize = 16
	FrameSize     = 56
	WellSize      = 16
)

// Message is one opcode-tagged wire message. The set of implementations is
// closed: see the types below.
type Message interface {
	Opcode() uint8
	encode(w *Writer)
}

// Messages sent by a peer.
type (
	Handshake struct{}

	// Create proposes the field of the match the sender hosts.
	Create struct {
		Field string
		Wells []pong.GravityWell
	}

	// Ready acknowledges a Start.
	Ready struct{}

	FrameUpdate struct {
		SetNo  uint8
		Player uint8
		Frame  pong.Frame
	}
)

// Messages sent by the match server.
type (
	Initialize struct {
		Player  uint8
		MatchID string
	}

	Accept struct{}

	Reject struct {
		Reason string
	}

	Start struct {
		Field string
		Wells []pong.GravityWell
		SetNo uint8
	}

	ResyncAll struct {
		Frames []pong.Frame
	}

	ResyncPart struct {
		Frames []pong.Frame
	}

	// ResyncPartOf patches only the opponent paddle of each frame.
	ResyncPartOf struct {
		Frames []pong.Frame
	}

	Sync struct{}

	Finish struct {
		Player1Score uint8
		Player2Score uint8
	}
)

func (Handshake) Opcode() uint8 { return uint8(ServerHandshake) }
func (Create) Opcode() uint8 { return uint8(ServerCreate) }
func (Ready) Opcode() uint8 { return uint8(ServerStart) }
func (FrameUpdate) Opcode() uint8 { return uint8(ServerFrame) }

func (Initialize) Opcode() uint8 { return uint8(ClientInitialize) }
func (Accept) Opcode() uint8 { return uint8(ClientAccept) }
func (Reject) Opcode() uint8 { return uint8(ClientReject) }
func (Start) Opcode() uint8 { return uint8(ClientStart) }
func (ResyncAll) Opcode() uint8 { return uint8(ClientResyncAll) }
func (ResyncPart) Opcode() uint8 { return uint8(ClientResyncPart) }
func (ResyncPartOf) Opcode() uint8 { return uint8(ClientResyncPartOf) }
func (Sync) Opcode() uint8 { return uint8(ClientSync) }
func (Finish) Opcode() uint8 { return uint8(ClientFinish) }

func (Handshake) encode(*Writer) {}
func (Ready) encode(*Writer) {}
func (Accept) encode(*Writer) {}
func (Sync) encode(*Writer) {}

func (m Create) encode(w *Writer) {
	w.String(m.Field)
	writeWells(w, m.Wells)
}

func (m FrameUpdate) encode(w *Writer) {
	w.Uint8(m.SetNo)
	w.Uint8(m.Player)
	writeFrame(w, m.Frame)
}

func (m Initialize) encode(w *Writer) {
	w.Uint8(m.Player)
	w.String(m.MatchID)
}

func (m Reject) encode(w *Writer) { w.String(m.Reason) }

func (m Start) encode(w *Writer) {
	w.String(m.Field)
	writeWells(w, m.Wells)
	w.Uint8(m.SetNo)
}

func (m ResyncAll) encode(w *Writer) { writeFrames(w, m.Frames) }
func (m ResyncPart) encode(w *Writer) { writeFrames(w, m.Frames) }
func (m ResyncPartOf) encode(w *Writer) { writeFrames(w, m.Frames) }

func (m Finish) encode(w *Writer) {
	w.Uint8(m.Player1Score)
	w.Uint8(m.Player2Score)
}

// Encode serializes m with its opcode prefix.
func Encode(m Message) ([]byte, error) {
	w := NewWriter(m.Opcode())
	m.encode(w)
	b, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding opcode %d: %w", m.Opcode(), err)
	}
	return b, nil
}

// DecodeOutbound parses a message a peer sent to the server.
func DecodeOutbound(b []byte) (Message, error) {
	r := NewReader(b)
	op := ServerOpcode(r.Uint8())
	if err := r.Err(); err != nil {
		return nil, err
	}

	var m Message
	switch op {
	case ServerHandshake:
		m = Handshake{}
	case ServerCreate:
		m = Create{Field: r.String(), Wells: readWells(r)}
	case ServerStart:
		m = Ready{}
	case ServerFrame:
		m = FrameUpdate{SetNo: r.Uint8(), Player: r.Uint8(), Frame: readFrame(r)}
	default:
		return nil, fmt.Errorf("wire: unknown server opcode %d", op)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeInbound parses a message the server sent to a peer.
func DecodeInbound(b []byte) (Message, error) {
	r := NewReader(b)
	op := ClientOpcode(r.Uint8())
	if err := r.Err(); err != nil {
		return nil, err
	}

	var m Message
	switch op {
	case ClientInitialize:
		m = Initialize{Player: r.Uint8(), MatchID: r.String()}
	case ClientAccept:
		m = Accept{}
	case ClientReject:
		m = Reject{Reason: r.String()}
	case ClientStart:
		m = Start{Field: r.String(), Wells: readWells(r), SetNo: r.Uint8()}
	case ClientResyncAll:
		m = ResyncAll{Frames: readFrames(r)}
	case ClientResyncPart:
		m = ResyncPart{Frames: readFrames(r)}
	case ClientResyncPartOf:
		m = ResyncPartOf{Frames: readFrames(r)}
	case ClientSync:
		m = Sync{}
	case ClientFinish:
		m = Finish{Player1Score: r.Uint8(), Player2Score: r.Uint8()}
	default:
		return nil, fmt.Errorf("wire: unknown client opcode %d", op)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

func writeAttribute(w *Writer, p pong.PhysicsAttribute) {
	w.Float32(p.Position.X)
	w.Float32(p.Position.Y)
	w.Float32(p.Velocity.X)
	w.Float32(p.Velocity.Y)
}

func readAttribute(r *Reader) pong.PhysicsAttribute {
	var p pong.PhysicsAttribute
	p.Position.X = r.Float32()
	p.Position.Y = r.Float32()
	p.Velocity.X = r.Float32()
	p.Velocity.Y = r.Float32()
	return p
}

func writeFrame(w *Writer, f pong.Frame) {
	w.Uint32(f.ID)
	writeAttribute(w, f.Paddle1)
	w.Bool(f.Paddle1Hit)
	writeAttribute(w, f.Paddle2)
	w.Bool(f.Paddle2Hit)
	writeAttribute(w, f.Ball)
	w.Uint8(f.Player1Score)
	w.Uint8(f.Player2Score)
}

func readFrame(r *Reader) pong.Frame {
	var f pong.Frame
	f.ID = r.Uint32()
	f.Paddle1 = readAttribute(r)
	f.Paddle1Hit = r.Bool()
	f.Paddle2 = readAttribute(r)
	f.Paddle2Hit = r.Bool()
	f.Ball = readAttribute(r)
	f.Player1Score = r.Uint8()
	f.Player2Score = r.Uint8()
	return f
}

func writeFrames(w *Writer, frames []pong.Frame) {
	w.Count(len(frames))
	for _, f := range frames {
		writeFrame(w, f)
	}
}

func readFrames(r *Reader) []pong.Frame {
	n := int(r.Uint16())
	frames := make([]pong.Frame, 0, min(n, r.Remaining()/FrameSize))
	for i := 0; i < n && r.Err() == nil; i++ {
		frames = append(frames, readFrame(r))
	}
	return frames
}

func writeWells(w *Writer, wells []pong.GravityWell) {
	w.Count(len(wells))
	for _, g := range wells {
		w.Float32(g.Pos.X)
		w.Float32(g.Pos.Y)
		w.Uint32(g.Radius)
		w.Float32(g.Force)
	}
}

func readWells(r *Reader) []pong.GravityWell {
	n := int(r.Uint16())
	wells := make([]pong.GravityWell, 0, min(n, r.Remaining()/WellSize))
	for i := 0; i < n && r.Err() == nil; i++ {
		var g pong.GravityWell
		g.Pos.X = r.Float32()
		g.Pos.Y = r.Float32()
		g.Radius = r.Uint32()
		g.Force = r.Float32()
		wells = append(wells, g)
	}
	return wells
}
