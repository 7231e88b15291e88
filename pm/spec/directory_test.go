package spec_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/pm/spec"
)

// sparseEntries returns n entries with random gaps between tile codes,
// every third one sharing the data of its predecessor.
func sparseEntries(n int) []spec.Entry {
	rnd := rand.New(rand.NewSource(1))
	entries := make([]spec.Entry, n)
	var code, offset uint64
	for i := range entries {
		code += 1 + uint64(rnd.Intn(5000))
		length := uint32(100 + rnd.Intn(1000))
		if i%3 == 2 {
			entries[i] = spec.Entry{TileCode: code, Offset: entries[i-1].Offset, Length: entries[i-1].Length, RunLength: 1}
			continue
		}
		entries[i] = spec.Entry{TileCode: code, Offset: offset, Length: length, RunLength: 1}
		offset += uint64(length)
	}
	return entries
}

func TestDirectorySerializer(t *testing.T) {
	for _, n := range []int{0, 1, 10, 5000} {
		entries := sparseEntries(n)
		got, err := spec.DeserializeDirectory(spec.SerializeDirectory(entries))
		require.NoError(t, err)
		if diff := cmp.Diff(entries, got); diff != "" {
			t.Errorf("%d entries: round trip mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestDeserializeDirectoryErrors(t *testing.T) {
	data := spec.SerializeDirectory(sparseEntries(10))
	_, err := spec.DeserializeDirectory(data[:len(data)-3])
	require.ErrorIs(t, err, spec.ErrInvalidDirectory)

	_, err = spec.DeserializeDirectory([]byte{0xff, 0xff, 0x03})
	require.ErrorIs(t, err, spec.ErrInvalidDirectory)
}

func TestCompactEntries(t *testing.T) {
	entries := []spec.Entry{
		{TileCode: 1, Offset: 0, Length: 10, RunLength: 1},
		{TileCode: 2, Offset: 0, Length: 10, RunLength: 1},
		{TileCode: 3, Offset: 0, Length: 10, RunLength: 1},
		{TileCode: 5, Offset: 0, Length: 10, RunLength: 1},
		{TileCode: 6, Offset: 10, Length: 5, RunLength: 1},
	}
	want := []spec.Entry{
		{TileCode: 1, Offset: 0, Length: 10, RunLength: 3},
		{TileCode: 5, Offset: 0, Length: 10, RunLength: 1},
		{TileCode: 6, Offset: 10, Length: 5, RunLength: 1},
	}
	if diff := cmp.Diff(want, spec.CompactEntries(entries)); diff != "" {
		t.Errorf("CompactEntries mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, spec.CompactEntries(nil))
}

func TestFindEntry(t *testing.T) {
	entries := []spec.Entry{
		{TileCode: 10, Offset: 0, Length: 1, RunLength: 3},
		{TileCode: 20, Offset: 5, Length: 1, RunLength: 0},
	}
	for _, tt := range []struct {
		code uint64
		want uint64
		ok   bool
	}{
		{code: 9, ok: false},
		{code: 10, want: 10, ok: true},
		{code: 12, want: 10, ok: true},
		{code: 13, ok: false},
		{code: 25, want: 20, ok: true},
	} {
		e, ok := spec.FindEntry(entries, tt.code)
		require.Equal(t, tt.ok, ok, "code %d", tt.code)
		if ok {
			require.Equal(t, tt.want, e.TileCode, "code %d", tt.code)
		}
	}
}

func TestBuildDirectoriesWithLeaves(t *testing.T) {
	entries := sparseEntries(30000)
	root, leaves, err := spec.BuildDirectories(entries, spec.CompressionNone)
	require.NoError(t, err)
	require.LessOrEqual(t, len(root), spec.RootDirMaxLength)
	require.NotEmpty(t, leaves)

	rootEntries, err := spec.DeserializeDirectory(root)
	require.NoError(t, err)
	var all []spec.Entry
	for _, r := range rootEntries {
		require.Zero(t, r.RunLength)
		leaf, err := spec.DeserializeDirectory(leaves[r.Offset : r.Offset+uint64(r.Length)])
		require.NoError(t, err)
		require.Equal(t, r.TileCode, leaf[0].TileCode)
		all = append(all, leaf...)
	}
	if diff := cmp.Diff(entries, all); diff != "" {
		t.Errorf("leaf entries mismatch (-want +got):\n%s", diff)
	}

	small := sparseEntries(10)
	root, leaves, err = spec.BuildDirectories(small, spec.CompressionGzip)
	require.NoError(t, err)
	require.Empty(t, leaves)
	data, err := spec.Decompress(root, spec.CompressionGzip)
	require.NoError(t, err)
	got, err := spec.DeserializeDirectory(data)
	require.NoError(t, err)
	require.Equal(t, small, got)
}
