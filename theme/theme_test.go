package theme_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/theme"
)

func tags(kv ...string) model.TagList {
	var l model.TagList
	for _, s := range kv {
		l.Add(model.ParseTag(s))
	}
	return l
}

func testTheme(opts ...theme.Option) *theme.Theme {
	return theme.New([]*theme.Rule{
		{
			Element: theme.WayElement, Closed: theme.ClosedWay,
			Match:        model.NewMatcher("natural", "water"),
			Instructions: []theme.Instruction{&theme.Area{}},
		},
		{
			Element: theme.WayElement, ZoomMin: 12, ZoomMax: 14,
			Match:        model.NewMatcher("highway", "primary|secondary*"),
			Instructions: []theme.Instruction{&theme.Line{Width: 1}, &theme.Line{Width: 2}},
			Children: []*theme.Rule{{
				Closed:       theme.OpenWay,
				Instructions: []theme.Instruction{&theme.PathText{Key: "name"}},
			}},
		},
		{
			Element:      theme.NodeElement,
			Match:        model.NewMatcher("amenity|shop", ""),
			Instructions: []theme.Instruction{&theme.Circle{}, &theme.Caption{Key: "name"}},
		},
	}, opts...)
}

func TestMatchWay(t *testing.T) {
	th := testTheme()
	require.Equal(t, 4, th.Levels())

	tests := []struct {
		name   string
		tags   model.TagList
		zoom   uint8
		closed bool
		want   int
	}{
		{"water area", tags("natural=water"), 10, true, 1},
		{"water line", tags("natural=water"), 10, false, 0},
		{"road out of zoom", tags("highway=primary"), 11, false, 0},
		{"road", tags("highway=primary"), 12, false, 3},
		{"road wildcard", tags("highway=secondary_link"), 14, false, 3},
		{"closed road", tags("highway=primary"), 13, true, 2},
		{"above max zoom", tags("highway=primary"), 15, false, 0},
		{"node tags on way", tags("amenity=cafe"), 15, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.MatchWay(tt.tags, tt.zoom, tt.closed)
			require.Len(t, got, tt.want)
		})
	}
}

func TestMatchNode(t *testing.T) {
	th := testTheme()
	got := th.MatchNode(tags("shop=bakery", "name=Bread"), 16)
	require.Len(t, got, 2)
	require.IsType(t, &theme.Circle{}, got[0])
	caption, ok := got[1].(*theme.Caption)
	require.True(t, ok)
	require.Equal(t, "name", caption.Key)

	require.Empty(t, th.MatchNode(tags("natural=water"), 16))
}

func TestLevelsFollowRuleOrder(t *testing.T) {
	th := testTheme()
	var levels []int
	for _, in := range th.MatchWay(tags("highway=primary"), 12, false) {
		if s, ok := in.(theme.Shape); ok {
			levels = append(levels, s.Level())
		}
	}
	require.Equal(t, []int{1, 2}, levels)
}

func TestMatchCache(t *testing.T) {
	th := testTheme(theme.WithMatchCacheCapacity(1))
	first := th.MatchWay(tags("highway=primary"), 12, false)
	again := th.MatchWay(tags("highway=primary"), 12, false)
	require.Same(t, first[0], again[0])

	// evicts the first entry
	th.MatchWay(tags("natural=water"), 12, true)
	third := th.MatchWay(tags("highway=primary"), 12, false)
	require.Equal(t, first, third)

	th.ClearCache()
	require.Len(t, th.MatchWay(tags("highway=primary"), 12, false), 3)
}

func TestMatchCacheCapacityKeepsDefault(t *testing.T) {
	th := testTheme(theme.WithMatchCacheCapacity(0))
	first := th.MatchWay(tags("highway=primary"), 12, false)
	th.MatchWay(tags("natural=water"), 12, true)
	again := th.MatchWay(tags("highway=primary"), 12, false)
	require.Same(t, &first[0], &again[0], "the second lookup is served from the cache")
}

func TestDefault(t *testing.T) {
	th := theme.Default()
	require.Positive(t, th.Levels())

	water := th.MatchWay(tags("natural=water", "name=Lake"), 10, true)
	require.NotEmpty(t, water)
	require.IsType(t, &theme.Area{}, water[0])

	peak := th.MatchNode(tags("natural=peak", "ele=1200"), 14)
	var symbols, captions int
	for _, in := range peak {
		switch in.(type) {
		case *theme.Symbol:
			symbols++
		case *theme.Caption:
			captions++
		}
	}
	require.Equal(t, 1, symbols)
	require.Equal(t, 2, captions)

	require.Empty(t, th.MatchWay(tags("building=yes"), 12, true))
	require.NotEmpty(t, th.MatchWay(tags("building=yes"), 16, true))
}
