// Package xyz stores rendered tiles as individual files laid out by a path
// pattern such as "{z}/{x}/{y}.pbf".
package xyz

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-mapsforge/tile"
)

var ErrInvalidPattern = errors.New("mapsforge: invalid file pattern")

// DefaultPattern lays out vector tiles below the store directory.
const DefaultPattern = "{z}/{x}/{y}.pbf"

var placeholders = []string{"{x}", "{y}", "{z}"}

func validatePattern(pattern string) error {
	for _, p := range placeholders {
		if strings.Count(pattern, p) != 1 {
			return fmt.Errorf("%w: placeholder %v must appear once in %q", ErrInvalidPattern, p, pattern)
		}
	}
	return nil
}

func formatPattern(pattern string, tileID tile.ID) string {
	return strings.NewReplacer(
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
	).Replace(pattern)
}

// compilePattern returns a regexp matching paths produced by the pattern.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(pattern)
	for _, p := range placeholders {
		name := p[1:2]
		expr = strings.Replace(expr, regexp.QuoteMeta(p), `(?P<`+name+`>\d+)`, 1)
	}
	re, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

func parsePath(re *regexp.Regexp, path string) (tile.ID, bool) {
	m := re.FindStringSubmatch(path)
	if m == nil {
		return tile.ID{}, false
	}
	var v [3]uint32
	for i, name := range []string{"x", "y", "z"} {
		n, err := strconv.ParseUint(m[re.SubexpIndex(name)], 10, 32)
		if err != nil {
			return tile.ID{}, false
		}
		v[i] = uint32(n)
	}
	id := tile.ID{X: v[0], Y: v[1], Z: v[2]}
	return id, id.Valid()
}
