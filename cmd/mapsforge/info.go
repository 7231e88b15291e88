package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-mapsforge/mapfile"
)

type infoCmd struct {
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print the header of a map file" }
func (c *infoCmd) Usage() string {
	return "mapsforge info -i <path>\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input map file path")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	db, err := mapfile.NewFileDatabase(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	h := db.Info()
	b := h.BoundingBox
	fmt.Printf("version:      %d\n", h.Version)
	fmt.Printf("file size:    %d\n", h.FileSize)
	fmt.Printf("date:         %s\n", h.MapDate.UTC().Format("2006-01-02 15:04:05"))
	fmt.Printf("bounds:       %f,%f,%f,%f\n", b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
	fmt.Printf("tile size:    %d\n", h.TilePixelSize)
	fmt.Printf("projection:   %s\n", h.ProjectionName)
	fmt.Printf("zoom levels:  %d-%d\n", h.ZoomLevelMin, h.ZoomLevelMax)
	fmt.Printf("debug:        %t\n", h.Debug)
	if h.StartPosition != nil {
		fmt.Printf("start:        %s\n", h.StartPosition)
	}
	if h.StartZoom != nil {
		fmt.Printf("start zoom:   %d\n", *h.StartZoom)
	}
	if h.LanguagePreference != "" {
		fmt.Printf("language:     %s\n", h.LanguagePreference)
	}
	if h.Comment != "" {
		fmt.Printf("comment:      %s\n", h.Comment)
	}
	if h.CreatedBy != "" {
		fmt.Printf("created by:   %s\n", h.CreatedBy)
	}
	fmt.Printf("node tags:    %d\n", len(h.NodeTags))
	fmt.Printf("way tags:     %d\n", len(h.WayTags))
	for i, s := range h.SubFiles {
		fmt.Printf("sub-file %d:   base %d, zoom %d-%d, %dx%d blocks, start %d, size %d\n",
			i, s.BaseZoom, s.ZoomMin, s.ZoomMax, s.BlocksWidth, s.BlocksHeight, s.StartAddress, s.SubFileSize)
	}
	return subcommands.ExitSuccess
}
