package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// The whole protocol is big-endian.
var order = binary.BigEndian

// FormatError reports a message that does not match its layout. The rest of
// the message cannot be trusted once one is returned.
type FormatError struct {
	Op   string
	Need int
	Have int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wire: malformed message: %s needs %d bytes, %d left", e.Op, e.Need, e.Have)
}

// Writer appends fixed-width primitives to a growing buffer. The first
// error sticks and later writes are dropped.
type Writer struct {
	buf []byte
	err error
}

func NewWriter(opcode uint8) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.Uint8(opcode)
	return w
}

func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf, nil
}

func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Uint16(v uint16) {
	w.buf = order.AppendUint16(w.buf, v)
}

func (w *Writer) Uint32(v uint32) {
	w.buf = order.AppendUint32(w.buf, v)
}

func (w *Writer) Float32(v float32) {
	w.buf = order.AppendUint32(w.buf, math.Float32bits(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

func (w *Writer) Count(n int) {
	if n > math.MaxUint16 {
		if w.err == nil {
			w.err = fmt.Errorf("wire: %d items do not fit a u16 count", n)
		}
		return
	}
	w.Uint16(uint16(n))
}

func (w *Writer) String(s string) {
	w.Count(len(s))
	if w.err == nil {
		w.buf = append(w.buf, s...)
	}
}

// Reader consumes fixed-width primitives. After the first underrun every
// read returns a zero value and Err reports the underrun.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(op string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.err = &FormatError{Op: op, Need: n, Have: r.Remaining()}
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8() uint8 {
	b := r.take("u8", 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Uint16() uint16 {
	b := r.take("u16", 2)
	if b == nil {
		return 0
	}
	return order.Uint16(b)
}

func (r *Reader) Uint32() uint32 {
	b := r.take("u32", 4)
	if b == nil {
		return 0
	}
	return order.Uint32(b)
}

func (r *Reader) Float32() float32 {
	b := r.take("f32", 4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(order.Uint32(b))
}

func (r *Reader) Bool() bool {
	b := r.take("bool", 1)
	return b != nil && b[0] != 0
}

func (r *Reader) String() string {
	n := int(r.Uint16())
	b := r.take("string", n)
	return string(b)
}

// finish fails the message if bytes are left over.
func (r *Reader) finish() error {
	if r.err == nil && r.Remaining() != 0 {
		r.err = &FormatError{Op: "end of message", Need: 0, Have: r.Remaining()}
	}
	return r.err
}
