package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduceFormat(t *testing.T) {
	tests := []struct {
		format, path, want string
	}{
		{"", "out.mbtiles", "mbtiles"},
		{"", "out.pmtiles", "pmtiles"},
		{"", "tiles", "xyz"},
		{"pmtiles", "tiles", "pmtiles"},
		{"xyz", "out.mbtiles", "xyz"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, deduceFormat(tt.format, tt.path), "%q %q", tt.format, tt.path)
	}
}

func TestRenderValidate(t *testing.T) {
	valid := renderCmd{outputPath: "out.pmtiles", strategy: "four", cacheSize: 1}
	require.NoError(t, valid.validate())

	for _, size := range []int{0, -5} {
		c := valid
		c.cacheSize = size
		require.ErrorContains(t, c.validate(), "-cache")
	}

	c := valid
	c.outputFormat = "tar"
	require.ErrorContains(t, c.validate(), "output format")

	c = valid
	c.strategy = "three"
	require.Error(t, c.validate())
}
