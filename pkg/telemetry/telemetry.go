// Package telemetry persists snapshots on the host for later analysis. The
// controller itself never records history; this is purely bridge-side.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/jhcsc-org/jhcsc-hydroponics/pkg/sensor"
)

const defaultDirPerm = 0o755

// Repository stores snapshots.
type Repository interface {
	Store(ctx context.Context, snap sensor.Snapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRepository opens (or creates) the snapshot database.
func NewRepository(dbPath string) (Repository, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("telemetry: db path is empty")
	}

	log.Debug().Str("path", dbPath).Msg("initializing telemetry repository")

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return nil, fmt.Errorf("telemetry: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open db: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS snapshots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp INTEGER NOT NULL,
            temperature REAL,
            humidity REAL,
            light_level REAL,
            ph_levels TEXT,
            relay_states TEXT
        )
    `)
	if err != nil {
		return fmt.Errorf("telemetry: init schema: %w", err)
	}
	return nil
}

func (r *sqliteRepository) Store(ctx context.Context, snap sensor.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	phJSON, err := json.Marshal(snap.PH)
	if err != nil {
		return fmt.Errorf("telemetry: marshal ph levels: %w", err)
	}
	relayJSON, err := json.Marshal(snap.Relays)
	if err != nil {
		return fmt.Errorf("telemetry: marshal relay states: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO snapshots (
            timestamp, temperature, humidity, light_level, ph_levels, relay_states
        ) VALUES (?, ?, ?, ?, ?, ?)
    `,
		time.Now().Unix(),
		snap.Temperature,
		snap.Humidity,
		snap.Light,
		string(phJSON),
		string(relayJSON),
	)
	if err != nil {
		return fmt.Errorf("telemetry: store snapshot: %w", err)
	}
	return nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("telemetry: close db: %w", err)
	}
	return nil
}
