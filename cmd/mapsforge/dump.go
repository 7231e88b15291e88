package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/eak1mov/go-mapsforge/geo"
	"github.com/eak1mov/go-mapsforge/mapfile"
	"github.com/eak1mov/go-mapsforge/model"
	"github.com/eak1mov/go-mapsforge/tile"
)

type dumpCmd struct {
	inputPath string
	x, y      int64
	zoom      uint
	geoJSON   bool
	verbose   bool
}

func (c *dumpCmd) Name() string     { return "dump" }
func (c *dumpCmd) Synopsis() string { return "read the map data of one tile" }
func (c *dumpCmd) Usage() string {
	return "mapsforge dump -i <path> -x <x> -y <y> -z <zoom> [-geojson]\n"
}
func (c *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
	f.Int64Var(&c.x, "x", 0, "Tile column")
	f.Int64Var(&c.y, "y", 0, "Tile row")
	f.UintVar(&c.zoom, "z", 0, "Tile zoom level")
	f.BoolVar(&c.geoJSON, "geojson", false, "Print a GeoJSON feature collection")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *dumpCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	var opts []mapfile.Option
	if c.verbose {
		opts = append(opts, mapfile.WithLogger(verboseLogger()))
	}
	db, err := mapfile.NewFileDatabase(c.inputPath, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	t := tile.New(c.x, c.y, uint8(c.zoom), db.Info().TilePixelSize)
	if c.zoom > tile.MaxZoom || !t.Valid() {
		log.Printf("invalid tile: %v", t)
		return subcommands.ExitFailure
	}

	result, err := db.ReadMapData(t)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if !c.geoJSON {
		fmt.Printf("tile:  %v\n", t)
		fmt.Printf("water: %t\n", result.IsWater)
		fmt.Printf("nodes: %d\n", len(result.Nodes))
		fmt.Printf("ways:  %d\n", len(result.Ways))
		return subcommands.ExitSuccess
	}

	data, err := featureCollection(result).MarshalJSON()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	os.Stdout.Write(data)
	fmt.Println()
	return subcommands.ExitSuccess
}

func featureCollection(result *mapfile.ReadResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range result.Nodes {
		fc.Append(feature(n.Position.Point(), n.Layer, n.Tags))
	}
	for _, w := range result.Ways {
		fc.Append(feature(wayGeometry(w), w.Layer, w.Tags))
	}
	return fc
}

func feature(g orb.Geometry, layer int8, tags model.TagList) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["layer"] = layer
	for _, t := range tags.Tags() {
		f.Properties[t.Key] = t.Value
	}
	return f
}

func ring(points []geo.GeoPoint) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = p.Point()
	}
	return ls
}

func wayGeometry(w model.Way) orb.Geometry {
	if w.Closed() {
		polygon := make(orb.Polygon, len(w.Rings))
		for i, r := range w.Rings {
			polygon[i] = orb.Ring(ring(r))
		}
		return polygon
	}
	if len(w.Rings) == 1 {
		return ring(w.Rings[0])
	}
	lines := make(orb.MultiLineString, len(w.Rings))
	for i, r := range w.Rings {
		lines[i] = ring(r)
	}
	return lines
}
