// Package wire implements the byte-level primitives and packet framing of
// the bancho-style wire protocol: little-endian fixed-width integers, a
// tagged length-prefixed string, and gzip compression for legacy cohorts.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ErrShortRead is returned when a primitive cannot be fully read from the
// underlying reader.
var ErrShortRead = errors.New("wire: short read")

// ErrNegativeLength is returned when a decoded length prefix is negative or
// otherwise implausible.
var ErrNegativeLength = errors.New("wire: negative or invalid length")

// stringTag values recognised at the head of the string primitive.
const (
	stringTagEmpty = 0x00
	stringTagUTF8  = 0x0b
)

func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return b[0], nil
}

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadInt8(r io.Reader) (int8, error) {
	v, err := ReadUint8(r)
	return int8(v), err
}

func WriteInt8(w io.Writer, v int8) error {
	return WriteUint8(w, uint8(v))
}

func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadUint8(r)
	return v != 0, err
}

func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteUint8(w, 1)
	}
	return WriteUint8(w, 0)
}

func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func WriteUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

func WriteInt16(w io.Writer, v int16) error {
	return WriteUint16(w, uint16(v))
}

func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadInt32(r io.Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadInt64(r io.Reader) (int64, error) {
	v, err := ReadUint64(r)
	return int64(v), err
}

func WriteInt64(w io.Writer, v int64) error {
	return WriteUint64(w, uint64(v))
}

func ReadFloat32(r io.Reader) (float32, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return float32FromBits(v), nil
}

func WriteFloat32(w io.Writer, v float32) error {
	return WriteUint32(w, float32Bits(v))
}

// readUvarint reads a LEB128-style 7-bit varint length prefix, as used inside
// the string primitive (never for the packet frame itself, which is always
// a fixed u32).
func readUvarint(r io.Reader) (int, error) {
	var result int
	var shift uint
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, ErrShortRead
		}
		result |= int(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 35 {
			return 0, ErrNegativeLength
		}
	}
	if result < 0 {
		return 0, ErrNegativeLength
	}
	return result, nil
}

func writeUvarint(w io.Writer, v int) error {
	if v < 0 {
		return ErrNegativeLength
	}
	u := uint64(v)
	for {
		b := byte(u & 0x7f)
		u >>= 7
		if u != 0 {
			b |= 0x80
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return err
		}
		if u == 0 {
			break
		}
	}
	return nil
}

// ReadString reads the tagged, length-prefixed UTF-8 string primitive: a
// one-byte presence tag, and when the tag is stringTagUTF8 a 7-bit varint
// byte-length followed by the UTF-8 bytes. stringTagEmpty yields "".
func ReadString(r io.Reader) (string, error) {
	tag, err := ReadUint8(r)
	if err != nil {
		return "", err
	}
	if tag == stringTagEmpty {
		return "", nil
	}
	if tag != stringTagUTF8 {
		return "", errors.New("wire: unknown string tag")
	}
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrShortRead
	}
	return string(buf), nil
}

// WriteString writes the tagged string primitive, choosing the empty tag
// for "" and the UTF-8 tag otherwise.
func WriteString(w io.Writer, s string) error {
	if s == "" {
		return WriteUint8(w, stringTagEmpty)
	}
	if err := WriteUint8(w, stringTagUTF8); err != nil {
		return err
	}
	if err := writeUvarint(w, len(s)); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadList16 reads a u16 count followed by n elements via read.
func ReadList16[T any](r io.Reader, read func(io.Reader) (T, error)) ([]T, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := uint16(0); i < n; i++ {
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteList16 writes a u16 count followed by each element via write.
func WriteList16[T any](w io.Writer, items []T, write func(io.Writer, T) error) error {
	if err := WriteUint16(w, uint16(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := write(w, it); err != nil {
			return err
		}
	}
	return nil
}

// ReadList32 reads an s32 count followed by n elements via read, for lists
// sized with a signed 32-bit count; a negative count is rejected. No codec
// in internal/versions calls it (match slot mods are eight fixed u32s).
func ReadList32[T any](r io.Reader, read func(io.Reader) (T, error)) ([]T, error) {
	n, err := ReadInt32(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	out := make([]T, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteList32 writes an s32 count followed by each element via write.
func WriteList32[T any](w io.Writer, items []T, write func(io.Writer, T) error) error {
	if err := WriteInt32(w, int32(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := write(w, it); err != nil {
			return err
		}
	}
	return nil
}

// Gzip compresses payload as the legacy (cohort <= 323) framing requires.
func Gzip(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gunzip reverses Gzip.
func Gunzip(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
