package tile_test

import (
	"testing"

	"github.com/eak1mov/go-mapsforge/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestContains(t *testing.T) {
	for zoom := uint8(0); zoom <= tile.MaxZoom; zoom++ {
		n := int64(1) << zoom
		for _, xy := range [][2]int64{{0, 0}, {n - 1, n - 1}, {n / 2, n / 3}} {
			tl := tile.New(xy[0], xy[1], zoom, 256)
			p1, p2 := tl.MapPoint1(), tl.MapPoint2()

			if !tl.Contains(p1) {
				t.Errorf("%v does not contain MapPoint1 %v", tl, p1)
			}
			inner := tile.MapPoint{X: p2.X - 1e-6, Y: p2.Y - 1e-6, Zoom: zoom}
			if !tl.Contains(inner) {
				t.Errorf("%v does not contain %v", tl, inner)
			}

			outside := []tile.MapPoint{
				{X: p1.X - 1, Y: p1.Y, Zoom: zoom},
				{X: p1.X, Y: p1.Y - 1, Zoom: zoom},
				{X: p2.X + 1, Y: p2.Y, Zoom: zoom},
				{X: p2.X, Y: p2.Y + 1, Zoom: zoom},
			}
			for _, p := range outside {
				if tl.Contains(p) {
					t.Errorf("%v contains %v", tl, p)
				}
			}
		}
	}
}

func TestContainsOtherZoom(t *testing.T) {
	tl := tile.New(3, 5, 4, 256)
	p := tile.MapPoint{X: 3*256 + 10, Y: 5*256 + 10, Zoom: 4}
	if !tl.Contains(p.ChangeZoom(9)) {
		t.Errorf("rescaled point not contained")
	}
}

func TestChangeZoomRoundTrip(t *testing.T) {
	points := []tile.MapPoint{
		{X: 0, Y: 0, Zoom: 0},
		{X: 123.456, Y: 78.9, Zoom: 3},
		{X: 1 << 20, Y: 99999.75, Zoom: 12},
		{X: 3.5, Y: 1e6, Zoom: 22},
	}
	for _, p := range points {
		for zoom := uint8(0); zoom <= tile.MaxZoom; zoom++ {
			got := p.ChangeZoom(zoom).ChangeZoom(p.Zoom)
			if diff := cmp.Diff(p, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("ChangeZoom(%d) round trip mismatch (-want +got):\n%s", zoom, diff)
			}
		}
	}
}

func TestChangeZoom(t *testing.T) {
	p := tile.MapPoint{X: 10, Y: 20, Zoom: 5}
	if got, want := p.ChangeZoom(7), (tile.MapPoint{X: 40, Y: 80, Zoom: 7}); got != want {
		t.Errorf("ChangeZoom(7) = %v, want %v", got, want)
	}
	if got, want := p.ChangeZoom(4), (tile.MapPoint{X: 5, Y: 10, Zoom: 4}); got != want {
		t.Errorf("ChangeZoom(4) = %v, want %v", got, want)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		tile tile.Tile
		want bool
	}{
		{tile.New(0, 0, 0, 256), true},
		{tile.New(1, 0, 0, 256), false},
		{tile.New(-1, 0, 3, 256), false},
		{tile.New(7, 7, 3, 256), true},
		{tile.New(0, 0, 23, 256), false},
	}
	for _, tt := range tests {
		if got := tt.tile.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.tile, got, tt.want)
		}
	}
}

func TestID(t *testing.T) {
	id := tile.New(5, 6, 7, 256).ID()
	if want := (tile.ID{X: 5, Y: 6, Z: 7}); id != want {
		t.Errorf("ID() = %v, want %v", id, want)
	}
	if !id.Valid() {
		t.Errorf("%v is not valid", id)
	}
}
