// Package persistence provides SQLite-based simulation state storage.
// Engine stores serialize to JSON blobs, one row per engine, so
// restarts resume mid-outbreak and mid-war.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/impactsim/internal/disease"
	"github.com/talgya/impactsim/internal/economy"
	"github.com/talgya/impactsim/internal/war"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS engine_state (
		engine TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		saved_day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		entity_id TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_event_log_day ON event_log(day);
	CREATE INDEX IF NOT EXISTS idx_event_log_entity ON event_log(entity_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) saveEngine(name string, state any, day int) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal %s state: %w", name, err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO engine_state (engine, state_json, saved_day) VALUES (?, ?, ?)",
		name, string(blob), day,
	)
	return err
}

func (db *DB) loadEngine(name string, out any) (bool, error) {
	var blob string
	err := db.conn.Get(&blob, "SELECT state_json FROM engine_state WHERE engine = ?", name)
	if err != nil {
		// A missing row means a fresh database, not a failure.
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(blob), out); err != nil {
		return false, fmt.Errorf("unmarshal %s state: %w", name, err)
	}
	return true, nil
}

// SaveAll writes every engine's state in one pass.
func (db *DB) SaveAll(diseases *disease.Engine, wars *war.Engine, economies *economy.Engine, day int) error {
	slog.Info("saving simulation state", "day", day)

	if err := db.saveEngine("disease", diseases.ExportState(), day); err != nil {
		return fmt.Errorf("save disease: %w", err)
	}
	if err := db.saveEngine("war", wars.ExportState(), day); err != nil {
		return fmt.Errorf("save war: %w", err)
	}
	if err := db.saveEngine("economy", economies.ExportState(), day); err != nil {
		return fmt.Errorf("save economy: %w", err)
	}
	if err := db.SaveMeta("last_day", fmt.Sprintf("%d", day)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("simulation state saved")
	return nil
}

// RestoreAll loads saved engine states into the given engines. Engines
// with no saved row are left untouched.
func (db *DB) RestoreAll(diseases *disease.Engine, wars *war.Engine, economies *economy.Engine) error {
	var ds disease.EngineState
	if ok, err := db.loadEngine("disease", &ds); err != nil {
		return fmt.Errorf("restore disease: %w", err)
	} else if ok {
		diseases.ImportState(ds)
	}

	var ws war.EngineState
	if ok, err := db.loadEngine("war", &ws); err != nil {
		return fmt.Errorf("restore war: %w", err)
	} else if ok {
		wars.ImportState(ws)
	}

	var es economy.EngineState
	if ok, err := db.loadEngine("economy", &es); err != nil {
		return fmt.Errorf("restore economy: %w", err)
	} else if ok {
		economies.ImportState(es)
	}

	return nil
}

// LogEntry is one simulation event kept for the record.
type LogEntry struct {
	Day         int    `db:"day" json:"day"`
	EntityID    string `db:"entity_id" json:"entity_id"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
}

// AppendEvents adds simulation events to the persistent log.
func (db *DB) AppendEvents(entries []LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.Exec(
			"INSERT INTO event_log (day, entity_id, category, description) VALUES (?, ?, ?, ?)",
			e.Day, e.EntityID, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N logged events.
func (db *DB) RecentEvents(limit int) ([]LogEntry, error) {
	var entries []LogEntry
	err := db.conn.Select(&entries,
		"SELECT day, entity_id, category, description FROM event_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	return value, err
}
