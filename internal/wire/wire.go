// Package wire implements the deterministic little-endian binary encoding
// that every ServerMessage and ClientEvent crosses the socket with: fixed-
// width scalars, a single tag byte for nullable slots, u32 variant tags
// for enums, and u64-length-prefixed vectors. The encoding is the same in
// both directions and stable across calls for a given schema.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates a single message's encoding into an in-memory buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with cap bytes of pre-allocated capacity.
func NewWriter(cap int) *Writer {
	return &Writer{buf: make([]byte, 0, cap)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteBytes writes a length-prefixed (u64) byte string.
func (w *Writer) WriteBytes(v []byte) {
	w.WriteU64(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

// WriteString writes a length-prefixed (u64) UTF-8 string.
func (w *Writer) WriteString(v string) { w.WriteBytes([]byte(v)) }

// WriteRaw appends exactly len(v) bytes with no length prefix, for
// fixed-length arrays laid out contiguously.
func (w *Writer) WriteRaw(v []byte) { w.buf = append(w.buf, v...) }

// Reader consumes a single message's encoding from an in-memory buffer.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining reports how many bytes are left unconsumed.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("wire: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadBytes reads a u64-length-prefixed byte string.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return v, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	return string(b), err
}

// ReadRaw reads exactly n unprefixed bytes.
func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// WriteOption writes the nullable-slot encoding: a single tag byte
// (0 = absent, 1 = present) followed by the encoding of the value when
// present.
func WriteOption[T any](w *Writer, v *T, write func(*Writer, T)) {
	if v == nil {
		w.WriteBool(false)
		return
	}
	w.WriteBool(true)
	write(w, *v)
}

// ReadOption is the inverse of WriteOption.
func ReadOption[T any](r *Reader, read func(*Reader) (T, error)) (*T, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	v, err := read(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteSeq writes a fixed-length sequence laid out contiguously (no
// length prefix — the length is part of the schema, not the wire).
func WriteSeq[T any](w *Writer, vs []T, write func(*Writer, T)) {
	for _, v := range vs {
		write(w, v)
	}
}

// ReadSeq reads a fixed-length sequence of n elements.
func ReadSeq[T any](r *Reader, n int, read func(*Reader) (T, error)) ([]T, error) {
	out := make([]T, n)
	for i := 0; i < n; i++ {
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteVec writes a variable-length vector: u64 length then elements.
func WriteVec[T any](w *Writer, vs []T, write func(*Writer, T)) {
	w.WriteU64(uint64(len(vs)))
	for _, v := range vs {
		write(w, v)
	}
}

// ReadVec is the inverse of WriteVec.
func ReadVec[T any](r *Reader, read func(*Reader) (T, error)) ([]T, error) {
	n, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
