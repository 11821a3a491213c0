// Package replay stores a finished frame log as a protobuf message:
//
//	message Replay {
//	  Header header = 1;
//	  repeated Frame frames = 2;
//	}
//	message Header { string match_id = 1; uint32 player = 2; uint32 set_no = 3; string field = 4; }
//	message Frame {
//	  uint32 id = 1; Attribute paddle1 = 2; bool paddle1_hit = 3;
//	  Attribute paddle2 = 4; bool paddle2_hit = 5; Attribute ball = 6;
//	  uint32 player1_score = 7; uint32 player2_score = 8;
//	}
//	message Attribute { float pos_x = 1; float pos_y = 2; float vel_x = 3; float vel_y = 4; }
//
// The encoding is written by hand with protowire so no generated code is
// needed.
package replay

import (
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"gravpong/internal/pong"
)

type Header struct {
	MatchID string
	Player  uint8
	SetNo   uint8
	Field   string
}

type Replay struct {
	Header Header
	Frames []pong.Frame
}

func Marshal(r Replay) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalHeader(r.Header))
	for _, f := range r.Frames {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalFrame(f))
	}
	return b
}

func Write(w io.Writer, r Replay) error {
	if _, err := w.Write(Marshal(r)); err != nil {
		return fmt.Errorf("writing replay: %w", err)
	}
	return nil
}

func Read(rd io.Reader) (Replay, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return Replay{}, fmt.Errorf("reading replay: %w", err)
	}
	return Unmarshal(b)
}

func Unmarshal(b []byte) (Replay, error) {
	var r Replay
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			h, err := unmarshalHeader(v)
			r.Header = h
			return n, err
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			f, err := unmarshalFrame(v)
			r.Frames = append(r.Frames, f)
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Replay{}, fmt.Errorf("decoding replay: %w", err)
	}
	return r, nil
}

// eachField walks the fields of one message. fn consumes the value and
// returns how many bytes it used, or a negative protowire error code.
func eachField(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func marshalHeader(h Header) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, h.MatchID)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.Player))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.SetNo))
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendString(b, h.Field)
	return b
}

func unmarshalHeader(b []byte) (Header, error) {
	var h Header
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case (num == 1 || num == 4) && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if num == 1 {
				h.MatchID = v
			} else {
				h.Field = v
			}
			return n, nil
		case (num == 2 || num == 3) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if num == 2 {
				h.Player = uint8(v)
			} else {
				h.SetNo = uint8(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return h, err
}

func marshalFrame(f pong.Frame) []byte {
	var b []byte
	appendVarint := func(num protowire.Number, v uint64) {
		b = protowire.AppendTag(b, num, protowire.VarintType)
		b = protowire.AppendVarint(b, v)
	}
	appendAttr := func(num protowire.Number, p pong.PhysicsAttribute) {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalAttribute(p))
	}

	appendVarint(1, uint64(f.ID))
	appendAttr(2, f.Paddle1)
	appendVarint(3, protowire.EncodeBool(f.Paddle1Hit))
	appendAttr(4, f.Paddle2)
	appendVarint(5, protowire.EncodeBool(f.Paddle2Hit))
	appendAttr(6, f.Ball)
	appendVarint(7, uint64(f.Player1Score))
	appendVarint(8, uint64(f.Player2Score))
	return b
}

func unmarshalFrame(b []byte) (pong.Frame, error) {
	var f pong.Frame
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case 1:
				f.ID = uint32(v)
			case 3:
				f.Paddle1Hit = protowire.DecodeBool(v)
			case 5:
				f.Paddle2Hit = protowire.DecodeBool(v)
			case 7:
				f.Player1Score = uint8(v)
			case 8:
				f.Player2Score = uint8(v)
			}
			return n, nil
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			p, err := unmarshalAttribute(v)
			switch num {
			case 2:
				f.Paddle1 = p
			case 4:
				f.Paddle2 = p
			case 6:
				f.Ball = p
			}
			return n, err
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return f, err
}

func marshalAttribute(p pong.PhysicsAttribute) []byte {
	var b []byte
	for i, v := range [4]float32{p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y} {
		b = protowire.AppendTag(b, protowire.Number(i+1), protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}
	return b
}

func unmarshalAttribute(b []byte) (pong.PhysicsAttribute, error) {
	var p pong.PhysicsAttribute
	fields := [4]*float32{&p.Position.X, &p.Position.Y, &p.Velocity.X, &p.Velocity.Y}
	err := eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.Fixed32Type && num >= 1 && num <= 4 {
			v, n := protowire.ConsumeFixed32(b)
			*fields[num-1] = math.Float32frombits(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return p, err
}
