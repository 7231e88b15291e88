package main

import (
	"log"
	"log/slog"
	"strings"
)

func deduceFormat(format, outputPath string) string {
	if format == "" && strings.HasSuffix(outputPath, ".mbtiles") {
		return "mbtiles"
	}
	if format == "" && strings.HasSuffix(outputPath, ".pmtiles") {
		return "pmtiles"
	}
	if format == "" {
		return "xyz"
	}
	return format
}

// verboseLogger sends library debug logs to the standard logger.
func verboseLogger() *slog.Logger {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return slog.Default()
}
