package spec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrBufferBounds   = errors.New("read beyond buffer bounds")
	ErrVarintOverflow = errors.New("variable length integer overflows 64 bits")
)

// maxVarintLength is the longest varint that still fits 64 bits.
const maxVarintLength = 10

// Buffer reads map file primitives from a window of bytes. Fixed width
// integers are big-endian. Variable length integers store 7 data bits per
// byte, least significant group first, with the high bit as continuation
// flag; the signed form keeps the sign in bit 6 of the last byte.
type Buffer struct {
	data []byte
	pos  int
}

func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Reset replaces the window and rewinds the cursor.
func (b *Buffer) Reset(data []byte) {
	b.data = data
	b.pos = 0
}

func (b *Buffer) Len() int       { return len(b.data) }
func (b *Buffer) Position() int  { return b.pos }
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// SetPosition moves the cursor; position may equal Len.
func (b *Buffer) SetPosition(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return fmt.Errorf("%w: position %d of %d", ErrBufferBounds, pos, len(b.data))
	}
	b.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (b *Buffer) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative skip %d", ErrBufferBounds, n)
	}
	return b.SetPosition(b.pos + n)
}

func (b *Buffer) take(n int) ([]byte, error) {
	if n < 0 || n > len(b.data)-b.pos {
		return nil, fmt.Errorf("%w: need %d bytes at %d, have %d", ErrBufferBounds, n, b.pos, len(b.data))
	}
	s := b.data[b.pos : b.pos+n]
	b.pos += n
	return s, nil
}

func (b *Buffer) ReadByte() (byte, error) {
	s, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	return b.take(n)
}

func (b *Buffer) ReadInt16() (int16, error) {
	s, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(s)), nil
}

func (b *Buffer) ReadInt32() (int32, error) {
	s, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(s)), nil
}

// ReadInt40 reads a 5-byte unsigned integer.
func (b *Buffer) ReadInt40() (uint64, error) {
	s, err := b.take(5)
	if err != nil {
		return 0, err
	}
	return Uint40(s), nil
}

func (b *Buffer) ReadInt64() (int64, error) {
	s, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(s)), nil
}

func (b *Buffer) ReadUnsignedVarint() (uint64, error) {
	var value uint64
	var shift uint
	for i := 0; ; i++ {
		if i == maxVarintLength {
			return 0, fmt.Errorf("%w: at %d", ErrVarintOverflow, b.pos)
		}
		c, err := b.ReadByte()
		if err != nil {
			return 0, err
		}
		if c&0x80 == 0 {
			return value | uint64(c)<<shift, nil
		}
		value |= uint64(c&0x7f) << shift
		shift += 7
	}
}

func (b *Buffer) ReadSignedVarint() (int64, error) {
	var value uint64
	var shift uint
	for i := 0; ; i++ {
		if i == maxVarintLength {
			return 0, fmt.Errorf("%w: at %d", ErrVarintOverflow, b.pos)
		}
		c, err := b.ReadByte()
		if err != nil {
			return 0, err
		}
		if c&0x80 == 0 {
			value |= uint64(c&0x3f) << shift
			if c&0x40 != 0 {
				return -int64(value), nil
			}
			return int64(value), nil
		}
		value |= uint64(c&0x7f) << shift
		shift += 7
	}
}

// ReadUTF8 reads a string prefixed by its unsigned varint byte length.
func (b *Buffer) ReadUTF8() (string, error) {
	n, err := b.ReadUnsignedVarint()
	if err != nil {
		return "", err
	}
	if n > uint64(b.Remaining()) {
		return "", fmt.Errorf("%w: string of %d bytes at %d, have %d", ErrBufferBounds, n, b.pos, len(b.data))
	}
	return b.ReadUTF8Len(int(n))
}

func (b *Buffer) ReadUTF8Len(n int) (string, error) {
	s, err := b.take(n)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// Uint40 decodes a 5-byte big-endian integer.
func Uint40(s []byte) uint64 {
	_ = s[4]
	return uint64(s[0])<<32 | uint64(s[1])<<24 | uint64(s[2])<<16 | uint64(s[3])<<8 | uint64(s[4])
}

func AppendUnsignedVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func AppendSignedVarint(dst []byte, v int64) []byte {
	var sign byte
	m := uint64(v)
	if v < 0 {
		sign = 0x40
		m = -m
	}
	for m >= 0x40 {
		dst = append(dst, byte(m&0x7f)|0x80)
		m >>= 7
	}
	return append(dst, byte(m)|sign)
}

func AppendUTF8(dst []byte, s string) []byte {
	dst = AppendUnsignedVarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func AppendUint40(dst []byte, v uint64) []byte {
	return append(dst, byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
