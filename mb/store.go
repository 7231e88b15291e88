// Package mb stores rendered tiles and their metadata in MBTiles files.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-mapsforge/tile"
)

// Store implements tile.Reader and tile.Writer over an MBTiles file.
// Writing a tile that already exists replaces it.
type Store struct {
	db     *sql.DB
	read   *sql.Stmt
	write  *sql.Stmt
	logger *slog.Logger
}

type config struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type Option func(*config)

// WithMetadata sets metadata entries when the store is opened.
func WithMetadata(metadata map[string]string) Option {
	return func(c *config) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

const schema = `
	CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
	CREATE TABLE IF NOT EXISTS tiles (
		zoom_level INTEGER,
		tile_column INTEGER,
		tile_row INTEGER,
		tile_data BLOB
	);
	CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// NewStore opens the MBTiles file at filePath, creating it when missing.
//
// The returned Store must be closed after use to release database resources.
func NewStore(filePath string, opts ...Option) (*Store, error) {
	config := config{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, logger: config.Logger}
	for k, v := range config.Metadata {
		if err = s.WriteMetadata(k, v); err != nil {
			return nil, err
		}
	}

	s.read, err = db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		return nil, err
	}
	s.write, err = db.Prepare(`
		INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)
		ON CONFLICT (zoom_level, tile_column, tile_row) DO UPDATE SET tile_data = excluded.tile_data`)
	if err != nil {
		s.read.Close()
		return nil, err
	}

	config.Logger.Debug("mapsforge: mbtiles opened", "path", filePath)
	return s, nil
}

func (s *Store) Close() error {
	return errors.Join(s.read.Close(), s.write.Close(), s.db.Close())
}

// toTMS flips the row between the XYZ and TMS schemes.
func toTMS(y, z uint32) uint32 {
	return (1 << z) - 1 - y
}

func (s *Store) ReadTile(tileID tile.ID) ([]byte, error) {
	var tileData []byte
	err := s.read.QueryRow(tileID.Z, tileID.X, toTMS(tileID.Y, tileID.Z)).Scan(&tileData)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (s *Store) WriteTile(tileID tile.ID, tileData []byte) error {
	if !tileID.Valid() {
		return fmt.Errorf("mapsforge: invalid tile %v", tileID)
	}
	_, err := s.write.Exec(tileID.Z, tileID.X, toTMS(tileID.Y, tileID.Z), tileData)
	return err
}

func (s *Store) WriteMetadata(name, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, value)
	return err
}

func (s *Store) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := s.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}

// VisitTiles calls visitor for every stored tile in XYZ coordinates.
func (s *Store) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := s.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z uint32
		var tileData []byte
		if err := rows.Scan(&z, &x, &y, &tileData); err != nil {
			return err
		}
		if err := visitor(tile.ID{X: x, Y: toTMS(y, z), Z: z}, tileData); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Finalize records the zoom range of the stored tiles in the metadata.
func (s *Store) Finalize() error {
	var minZoom, maxZoom sql.NullInt64
	err := s.db.QueryRow("SELECT MIN(zoom_level), MAX(zoom_level) FROM tiles").Scan(&minZoom, &maxZoom)
	if err != nil {
		return err
	}
	if minZoom.Valid {
		err = errors.Join(
			s.WriteMetadata("minzoom", fmt.Sprint(minZoom.Int64)),
			s.WriteMetadata("maxzoom", fmt.Sprint(maxZoom.Int64)))
	}
	s.logger.Debug("mapsforge: mbtiles finalized", "minzoom", minZoom.Int64, "maxzoom", maxZoom.Int64)
	return err
}
