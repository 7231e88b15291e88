package spec_test

import (
	"errors"
	"math"
	"testing"

	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var varintValues = []int64{
	0, 1, -1, 63, -63, 64, -64, 127, 128, 300, -300, 8191, 8192,
	math.MaxInt16, math.MinInt16, math.MaxInt32, math.MinInt32,
	math.MaxInt32 + 1, math.MinInt32 - 1, math.MaxInt64, math.MinInt64,
}

func TestSignedVarintRoundTrip(t *testing.T) {
	for _, v := range varintValues {
		data := spec.AppendSignedVarint(nil, v)
		buf := spec.NewBuffer(data)
		got, err := buf.ReadSignedVarint()
		require.NoError(t, err)
		require.Equalf(t, v, got, "encoded as % x", data)
		require.Zero(t, buf.Remaining())
	}
}

func TestUnsignedVarintRoundTrip(t *testing.T) {
	for _, v := range varintValues {
		u := uint64(v)
		data := spec.AppendUnsignedVarint(nil, u)
		buf := spec.NewBuffer(data)
		got, err := buf.ReadUnsignedVarint()
		require.NoError(t, err)
		require.Equalf(t, u, got, "encoded as % x", data)
	}
}

func TestVarintEncoding(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"unsigned 0", spec.AppendUnsignedVarint(nil, 0), []byte{0x00}},
		{"unsigned 300", spec.AppendUnsignedVarint(nil, 300), []byte{0xac, 0x02}},
		{"signed 1", spec.AppendSignedVarint(nil, 1), []byte{0x01}},
		{"signed -1", spec.AppendSignedVarint(nil, -1), []byte{0x41}},
		{"signed 63", spec.AppendSignedVarint(nil, 63), []byte{0x3f}},
		{"signed 64", spec.AppendSignedVarint(nil, 64), []byte{0xc0, 0x00}},
		{"signed -64", spec.AppendSignedVarint(nil, -64), []byte{0xc0, 0x40}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tt.got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestFixedWidth(t *testing.T) {
	data := []byte{
		0x80, 0x01, // int16
		0xff, 0xff, 0xff, 0xfe, // int32
		0x80, 0x00, 0x00, 0x00, 0x01, // int40
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, // int64
		0x7a, // byte
	}
	buf := spec.NewBuffer(data)

	i16, err := buf.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(-32767), i16)

	i32, err := buf.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(-2), i32)

	i40, err := buf.ReadInt40()
	require.NoError(t, err)
	require.Equal(t, uint64(0x8000000001), i40)

	i64, err := buf.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(256), i64)

	b, err := buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x7a), b)

	_, err = buf.ReadByte()
	require.Truef(t, errors.Is(err, spec.ErrBufferBounds), "%v", err)
}

func TestUTF8(t *testing.T) {
	data := spec.AppendUTF8(nil, "Zürich")
	data = spec.AppendUTF8(data, "")
	buf := spec.NewBuffer(data)

	s, err := buf.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "Zürich", s)

	s, err = buf.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(*spec.Buffer) error
	}{
		{"int32", []byte{1, 2, 3}, func(b *spec.Buffer) error { _, err := b.ReadInt32(); return err }},
		{"varint", []byte{0x80, 0x80}, func(b *spec.Buffer) error { _, err := b.ReadUnsignedVarint(); return err }},
		{"signed varint", []byte{0xff}, func(b *spec.Buffer) error { _, err := b.ReadSignedVarint(); return err }},
		{"string", []byte{0x05, 'a', 'b'}, func(b *spec.Buffer) error { _, err := b.ReadUTF8(); return err }},
		{"skip", []byte{1}, func(b *spec.Buffer) error { return b.Skip(2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.read(spec.NewBuffer(tt.data))
			require.Truef(t, errors.Is(err, spec.ErrBufferBounds), "%v", err)
		})
	}
}

func TestVarintOverflow(t *testing.T) {
	data := make([]byte, 11)
	for i := range data {
		data[i] = 0x80
	}
	_, err := spec.NewBuffer(data).ReadUnsignedVarint()
	require.Truef(t, errors.Is(err, spec.ErrVarintOverflow), "%v", err)
}
