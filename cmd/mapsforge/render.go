package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/eak1mov/go-mapsforge/label"
	"github.com/eak1mov/go-mapsforge/mapfile"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
	"github.com/eak1mov/go-mapsforge/mb"
	"github.com/eak1mov/go-mapsforge/pm"
	"github.com/eak1mov/go-mapsforge/render"
	"github.com/eak1mov/go-mapsforge/tile"
	"github.com/eak1mov/go-mapsforge/xyz"
)

var vectorLayers = []string{
	render.LayerShapes,
	render.LayerPathLabels,
	render.LayerLabels,
	render.LayerAreaLabels,
	render.LayerSymbols,
}

type renderCmd struct {
	inputPath    string
	outputPath   string
	outputFormat string
	minZoom      int
	maxZoom      int
	strategy     string
	workers      int
	cacheSize    int
	verbose      bool
}

func (c *renderCmd) Name() string     { return "render" }
func (c *renderCmd) Synopsis() string { return "render a map file to vector tiles" }
func (c *renderCmd) Usage() string {
	return "mapsforge render -i <path> -o <path> [-of <format>] [-minzoom <z>] [-maxzoom <z>] [-strategy four|two]\n"
}
func (c *renderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
	f.StringVar(&c.outputPath, "o", "", "Output path (.mbtiles or .pmtiles file, or directory)")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, pmtiles, xyz)")
	f.IntVar(&c.minZoom, "minzoom", -1, "Lowest zoom level (default: from the map file)")
	f.IntVar(&c.maxZoom, "maxzoom", -1, "Highest zoom level (default: from the map file)")
	f.StringVar(&c.strategy, "strategy", "four", "Label placement strategy (four, two)")
	f.IntVar(&c.workers, "j", 4, "Number of zoom levels rendered in parallel")
	f.IntVar(&c.cacheSize, "cache", 1024, "Number of encoded tiles kept in memory")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *renderCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := c.run(ctx); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// validate checks the flags that do not depend on the input file.
func (c *renderCmd) validate() error {
	if c.cacheSize < 1 {
		return fmt.Errorf("invalid -cache %d: at least one tile must fit", c.cacheSize)
	}
	switch deduceFormat(c.outputFormat, c.outputPath) {
	case "mbtiles", "pmtiles", "xyz":
	default:
		return fmt.Errorf("invalid output format: %q", c.outputFormat)
	}
	_, err := label.ParseStrategy(c.strategy)
	return err
}

func (c *renderCmd) run(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	strategy, err := label.ParseStrategy(c.strategy)
	if err != nil {
		return err
	}
	logger := slog.New(slog.DiscardHandler)
	if c.verbose {
		logger = verboseLogger()
	}

	db, err := mapfile.NewFileDatabase(c.inputPath)
	if err != nil {
		return err
	}
	header := db.Info()
	db.Close()

	minZoom, maxZoom := c.zoomRange(header)
	if minZoom > maxZoom {
		return fmt.Errorf("empty zoom range %d-%d", minZoom, maxZoom)
	}

	store, err := c.openStore(header, logger)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	tileCache, err := render.NewTileCache(c.cacheSize, store)
	if err != nil {
		return err
	}

	tilesByZoom := make(map[uint8][]tile.Tile)
	total := 0
	for z := minZoom; z <= maxZoom; z++ {
		for t := range tilecover.Bound(header.BoundingBox, maptile.Zoom(z)) {
			tilesByZoom[z] = append(tilesByZoom[z], tile.New(int64(t.X), int64(t.Y), z, header.TilePixelSize))
		}
		tilesByZoom[z] = render.Schedule(tilesByZoom[z])
		total += len(tilesByZoom[z])
	}
	log.Printf("rendering %d tiles at zoom %d-%d", total, minZoom, maxZoom)

	bar := progressbar.New(total)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.workers, 1))
	for z := minZoom; z <= maxZoom; z++ {
		tiles := tilesByZoom[z]
		g.Go(func() error {
			return c.renderZoom(ctx, tiles, strategy, tileCache, logger, bar)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	bar.Finish()
	fmt.Println()

	return tileCache.Finalize()
}

// renderZoom renders the tiles of one zoom level with its own database and
// placement, so labels carried between tiles stay within the level.
func (c *renderCmd) renderZoom(ctx context.Context, tiles []tile.Tile, strategy label.Strategy, tileCache *render.TileCache, logger *slog.Logger, bar *progressbar.ProgressBar) error {
	db, err := mapfile.NewFileDatabase(c.inputPath, mapfile.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	r := render.NewRenderer(db,
		render.WithPlacement(label.NewPlacement(label.WithStrategy(strategy), label.WithLogger(logger))),
		render.WithTileCache(tileCache),
		render.WithLogger(logger))

	for _, t := range tiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.Render(t); err != nil {
			return fmt.Errorf("render %v: %w", t, err)
		}
		bar.Add(1)
	}
	return nil
}

func (c *renderCmd) zoomRange(h *spec.Header) (uint8, uint8) {
	minZoom, maxZoom := h.ZoomLevelMin, h.ZoomLevelMax
	if c.minZoom >= 0 {
		minZoom = uint8(min(c.minZoom, tile.MaxZoom))
	}
	if c.maxZoom >= 0 {
		maxZoom = uint8(min(c.maxZoom, tile.MaxZoom))
	}
	return minZoom, maxZoom
}

func (c *renderCmd) openStore(h *spec.Header, logger *slog.Logger) (render.TileStore, error) {
	switch deduceFormat(c.outputFormat, c.outputPath) {
	case "mbtiles":
		name := strings.TrimSuffix(filepath.Base(c.inputPath), filepath.Ext(c.inputPath))
		return mb.NewStore(c.outputPath,
			mb.WithMetadata(mb.Metadata(name, h, vectorLayers)),
			mb.WithLogger(logger))
	case "pmtiles":
		layers := mb.Metadata("", h, vectorLayers)["json"]
		return pm.NewWriter(c.outputPath,
			pm.WithMetadata([]byte(layers)),
			pm.WithHeaderMetadata(pm.Metadata(h)),
			pm.WithLogger(logger))
	case "xyz":
		return xyz.NewStore(c.outputPath, xyz.WithLogger(logger))
	}
	return nil, fmt.Errorf("invalid output format: %q", c.outputFormat)
}
