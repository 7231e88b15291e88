package xyz

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-mapsforge/tile"
)

// Store implements tile.Reader and tile.Writer over a directory tree.
// Tiles are written through a temporary file and renamed into place.
type Store struct {
	rootDir string
	pattern string
	logger  *slog.Logger
}

type config struct {
	Pattern string
	Logger  *slog.Logger
}

type Option func(*config)

// WithPattern sets the slash-separated path of a tile below the store
// directory. It must contain {x}, {y} and {z} once each.
func WithPattern(pattern string) Option {
	return func(c *config) { c.Pattern = pattern }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// NewStore returns a store rooted at rootDir, which is created if missing.
func NewStore(rootDir string, opts ...Option) (*Store, error) {
	config := config{
		Pattern: DefaultPattern,
		Logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if err := validatePattern(config.Pattern); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, err
	}
	return &Store{rootDir: rootDir, pattern: config.Pattern, logger: config.Logger}, nil
}

func (s *Store) path(tileID tile.ID) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(formatPattern(s.pattern, tileID)))
}

func (s *Store) ReadTile(tileID tile.ID) ([]byte, error) {
	tileData, err := os.ReadFile(s.path(tileID))
	if errors.Is(err, fs.ErrNotExist) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (s *Store) WriteTile(tileID tile.ID, tileData []byte) error {
	filePath := s.path(tileID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".tile-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(tileData)
	err = errors.Join(err, tmp.Close())
	if err == nil {
		err = os.Rename(tmp.Name(), filePath)
	}
	if err != nil {
		os.Remove(tmp.Name())
	}
	return err
}

func (s *Store) Finalize() error {
	s.logger.Debug("mapsforge: tile directory finalized", "path", s.rootDir)
	return nil
}

// VisitTiles calls visitor for every file matching the pattern. Other
// files are ignored.
func (s *Store) VisitTiles(visitor func(tile.ID, []byte) error) error {
	re, err := compilePattern(s.pattern)
	if err != nil {
		return err
	}
	return filepath.WalkDir(s.rootDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.rootDir, filePath)
		if err != nil {
			return err
		}
		tileID, ok := parsePath(re, filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		return visitor(tileID, tileData)
	})
}
