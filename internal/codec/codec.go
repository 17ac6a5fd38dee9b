// Package codec provides the deterministic, platform-independent binary
// serialization used as the hash and signature pre-image for every
// structured record in the chain core. Fixed-size integers are written
// big-endian; variable-size sequences are prefixed with their element
// count as a 64-bit big-endian unsigned integer; records are the
// concatenation of their fields in declared order. A Writer/Reader pair
// round-trips every structured type built on top of it.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortBuffer is returned by Reader methods when the underlying buffer
// does not hold enough bytes to satisfy the read.
var ErrShortBuffer = errors.New("codec: short buffer")

// Writer accumulates a deterministic byte serialization of a record's
// fields, in declared order.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) {
	w.buf.WriteByte(v)
}

// Uint32 appends a 32-bit big-endian integer.
func (w *Writer) Uint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

// Uint64 appends a 64-bit big-endian integer.
func (w *Writer) Uint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

// Count appends a sequence's element count as a 64-bit big-endian integer.
func (w *Writer) Count(n int) {
	w.Uint64(uint64(n))
}

// Bytes appends b verbatim, with no length prefix. Use only for fields of
// statically known size (hashes, public keys, signatures); variable-length
// fields must be preceded by an explicit Count.
func (w *Writer) Bytes(b []byte) {
	w.buf.Write(b)
}

// Out returns the accumulated serialization.
func (w *Writer) Out() []byte {
	return w.buf.Bytes()
}

// Reader consumes a byte slice written by a Writer. Errors are sticky: once
// a read fails, every subsequent read is a no-op that reports the same
// error via Err.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Err returns the first error encountered during decoding, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.fail(wrapShort(err))
		return 0
	}
	return b
}

// Uint32 reads a 32-bit big-endian integer.
func (r *Reader) Uint32() uint32 {
	var tmp [4]byte
	r.readFull(tmp[:])
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(tmp[:])
}

// Uint64 reads a 64-bit big-endian integer.
func (r *Reader) Uint64() uint64 {
	var tmp [8]byte
	r.readFull(tmp[:])
	if r.err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(tmp[:])
}

// Count reads a sequence element count previously written by Writer.Count.
func (r *Reader) Count() int {
	return int(r.Uint64())
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) []byte {
	buf := make([]byte, n)
	r.readFull(buf)
	if r.err != nil {
		return nil
	}
	return buf
}

func (r *Reader) readFull(buf []byte) {
	if r.err != nil {
		return
	}
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.fail(wrapShort(err))
	}
}

func wrapShort(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrShortBuffer
	}
	return err
}
