package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/metorial/machineinfo/internal/log"
	"github.com/metorial/machineinfo/internal/models"
	"github.com/metorial/machineinfo/internal/paths"
)

var (
	// ErrStore wraps every failure to open the file or materialize the schema.
	ErrStore = errors.New("store unavailable")
	// ErrNotFound is returned when a reserved row is missing.
	ErrNotFound = errors.New("row not found")
)

// Reserved user_settings ids.
const (
	NoteID         = 1
	WindowWidthID  = 2
	WindowHeightID = 3

	windowStateID = 1
)

const (
	DefaultNote         = "Initial Setting"
	DefaultWindowWidth  = 600
	DefaultWindowHeight = 300
)

// DefaultWindowState is the geometry seeded on first open.
var DefaultWindowState = models.WindowInformation{
	X:      600,
	Y:      300,
	Width:  1000,
	Height: 600,
}

// schemaVersion is stored in PRAGMA user_version. Version 1 means the legacy
// UserSettings/WindowSettings tables have been imported and the text
// width/height rows folded into window_settings.
const schemaVersion = 1

// Tables written by earlier releases into the same file. They are read once
// and left in place.
const (
	legacySettingsTable = "UserSettings"
	legacyWindowTable   = "WindowSettings"
)

type DB struct {
	conn *sql.DB
	path string
}

// Open resolves the database location and opens it.
func Open(r *paths.Resolver) (*DB, error) {
	path, err := r.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return NewDB(path)
}

func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStore, err)
	}

	// One connection keeps the single-writer model simple and lets
	// in-memory databases survive across calls.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrStore, err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: migrate database: %v", ErrStore, err)
	}

	log.Debug("Opened database at %s", path)
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_settings (
		id INTEGER PRIMARY KEY,
		item_name TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS window_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		maximized INTEGER NOT NULL,
		fullscreen INTEGER NOT NULL,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < schemaVersion {
		if err := importLegacyTables(tx); err != nil {
			return fmt.Errorf("import legacy tables: %w", err)
		}
		if err := migrateLegacyGeometry(tx); err != nil {
			return fmt.Errorf("migrate legacy geometry: %w", err)
		}
	}

	if err := seed(tx); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	if version < schemaVersion {
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}

	return tx.Commit()
}

// seed inserts the reserved rows only where they are missing.
func seed(tx *sql.Tx) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO user_settings (id, item_name, content)
	                   VALUES (?, 'Default Entry', ?), (?, 'WindowWidth', ?), (?, 'WindowHeight', ?)`,
		NoteID, DefaultNote,
		WindowWidthID, strconv.Itoa(DefaultWindowWidth),
		WindowHeightID, strconv.Itoa(DefaultWindowHeight))
	if err != nil {
		return err
	}

	d := DefaultWindowState
	_, err = tx.Exec(`INSERT OR IGNORE INTO window_settings (id, x, y, width, height, maximized, fullscreen)
	                  VALUES (?, ?, ?, ?, ?, ?, ?)`,
		windowStateID, d.X, d.Y, d.Width, d.Height, boolToInt(d.Maximized), boolToInt(d.Fullscreen))
	return err
}

// importLegacyTables copies the reserved rows of the pre-version-1 tables.
// Rows already present in the current tables win.
func importLegacyTables(tx *sql.Tx) error {
	ok, err := tableExists(tx, legacySettingsTable)
	if err != nil {
		return err
	}
	if ok {
		res, err := tx.Exec(`INSERT OR IGNORE INTO user_settings (id, item_name, content, created_at)
		                     SELECT id, item_name, content, COALESCE(created_at, CURRENT_TIMESTAMP)
		                     FROM `+legacySettingsTable+` WHERE id IN (?, ?, ?)`,
			NoteID, WindowWidthID, WindowHeightID)
		if err != nil {
			return fmt.Errorf("copy %s: %w", legacySettingsTable, err)
		}
		n, _ := res.RowsAffected()
		log.Info("Imported %d rows from %s", n, legacySettingsTable)
	}

	ok, err = tableExists(tx, legacyWindowTable)
	if err != nil {
		return err
	}
	if ok {
		res, err := tx.Exec(`INSERT OR IGNORE INTO window_settings
		                         (id, x, y, width, height, maximized, fullscreen, modified_at)
		                     SELECT id, x, y, width, height, maximized, fullscreen,
		                            COALESCE(modified_at, CURRENT_TIMESTAMP)
		                     FROM `+legacyWindowTable+` WHERE id = ?`, windowStateID)
		if err != nil {
			return fmt.Errorf("copy %s: %w", legacyWindowTable, err)
		}
		n, _ := res.RowsAffected()
		log.Info("Imported %d rows from %s", n, legacyWindowTable)
	}
	return nil
}

func tableExists(tx *sql.Tx, name string) (bool, error) {
	var count int
	err := tx.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", name, err)
	}
	return count > 0, nil
}

// migrateLegacyGeometry runs once per database. Older files only kept the
// window size as text in user_settings; when such a file has no
// window_settings row yet, its size seeds the structured row.
func migrateLegacyGeometry(tx *sql.Tx) error {
	var exists int
	err := tx.QueryRow("SELECT COUNT(*) FROM window_settings WHERE id = ?", windowStateID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	dim, err := getWindowSize(tx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	width, height, err := dim.Ints()
	if err != nil || width <= 0 || height <= 0 {
		log.Warn("Ignoring unreadable legacy window size %q x %q", dim.Width, dim.Height)
		return nil
	}

	d := DefaultWindowState
	_, err = tx.Exec(`INSERT INTO window_settings (id, x, y, width, height, maximized, fullscreen)
	                  VALUES (?, ?, ?, ?, ?, 0, 0)`,
		windowStateID, d.X, d.Y, width, height)
	if err != nil {
		return err
	}
	log.Info("Migrated legacy window size %dx%d", width, height)
	return nil
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// GetNote returns the free-text note.
func (db *DB) GetNote() (string, error) {
	var content string
	err := db.conn.QueryRow("SELECT content FROM user_settings WHERE id = ?", NoteID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get note: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get note: %w", err)
	}
	return content, nil
}

// SetNote overwrites the free-text note.
func (db *DB) SetNote(text string) error {
	res, err := db.conn.Exec("UPDATE user_settings SET content = ? WHERE id = ?", text, NoteID)
	if err != nil {
		return fmt.Errorf("set note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set note: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set note: %w", ErrNotFound)
	}
	return nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func getWindowSize(q queryRower) (models.Dimension, error) {
	var dim models.Dimension
	for _, f := range []struct {
		id  int
		dst *string
	}{
		{WindowWidthID, &dim.Width},
		{WindowHeightID, &dim.Height},
	} {
		err := q.QueryRow("SELECT content FROM user_settings WHERE id = ?", f.id).Scan(f.dst)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Dimension{}, ErrNotFound
		}
		if err != nil {
			return models.Dimension{}, err
		}
	}
	return dim, nil
}

// GetWindowSize returns the legacy text-encoded window size.
func (db *DB) GetWindowSize() (models.Dimension, error) {
	dim, err := getWindowSize(db.conn)
	if err != nil {
		return models.Dimension{}, fmt.Errorf("get window size: %w", err)
	}
	return dim, nil
}

// SetWindowSize replaces both size rows in one transaction.
func (db *DB) SetWindowSize(width, height int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("set window size: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO user_settings (id, item_name, content)
	                  VALUES (?, 'WindowWidth', ?), (?, 'WindowHeight', ?)
	                  ON CONFLICT(id) DO UPDATE SET
	                      item_name = excluded.item_name,
	                      content = excluded.content`,
		WindowWidthID, strconv.Itoa(width), WindowHeightID, strconv.Itoa(height))
	if err != nil {
		return fmt.Errorf("set window size: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set window size: %w", err)
	}
	return nil
}

// LoadWindowState returns the saved geometry, or a zero record when the row
// is missing.
func (db *DB) LoadWindowState() (models.WindowInformation, error) {
	var (
		wi                    models.WindowInformation
		maximized, fullscreen int64
		modifiedAt            timestamp
	)
	err := db.conn.QueryRow(`SELECT x, y, width, height, maximized, fullscreen, modified_at
	                         FROM window_settings WHERE id = ?`, windowStateID).
		Scan(&wi.X, &wi.Y, &wi.Width, &wi.Height, &maximized, &fullscreen, &modifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("No saved window state, using defaults")
		return models.WindowInformation{}, nil
	}
	if err != nil {
		return models.WindowInformation{}, fmt.Errorf("load window state: %w", err)
	}

	wi.Maximized = maximized != 0
	wi.Fullscreen = fullscreen != 0
	wi.ModifiedAt = time.Time(modifiedAt)
	return wi, nil
}

// SaveWindowState upserts the single geometry row and refreshes its timestamp.
func (db *DB) SaveWindowState(wi models.WindowInformation) error {
	query := `
	INSERT INTO window_settings (id, x, y, width, height, maximized, fullscreen, modified_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		x = excluded.x,
		y = excluded.y,
		width = excluded.width,
		height = excluded.height,
		maximized = excluded.maximized,
		fullscreen = excluded.fullscreen,
		modified_at = excluded.modified_at
	`
	_, err := db.conn.Exec(query, windowStateID, wi.X, wi.Y, wi.Width, wi.Height,
		boolToInt(wi.Maximized), boolToInt(wi.Fullscreen), time.Now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("save window state: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
