// Package app owns the database and the three collector handles for the
// lifetime of the process. Front ends call into it from a single goroutine;
// none of its methods may run concurrently.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metorial/machineinfo/internal/config"
	"github.com/metorial/machineinfo/internal/log"
	"github.com/metorial/machineinfo/internal/models"
	"github.com/metorial/machineinfo/internal/paths"
	"github.com/metorial/machineinfo/internal/store"
	"github.com/metorial/machineinfo/internal/sysinfo"
)

// ErrNoCollectors is returned by Snapshot on an App opened with OpenSettings.
var ErrNoCollectors = errors.New("hardware collectors not opened")

type Snapshot struct {
	Processor models.ProcessorInfo `json:"processor"`
	Memory    models.MemoryInfo    `json:"memory"`
	Storage   models.StorageInfo   `json:"storage"`
	TakenAt   time.Time            `json:"taken_at"`
}

type App struct {
	db        *store.DB
	processor *sysinfo.ProcessorHandle
	memory    *sysinfo.MemoryHandle
	storage   *sysinfo.StorageHandle
}

// New resolves and opens the database and opens the collector handles. Any
// error here is fatal for the caller.
func New(cfg config.Config) (*App, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	a, err := newWithHandles(db, sysinfo.OpenProcessor, sysinfo.OpenMemory, sysinfo.OpenStorage)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// OpenSettings opens only the database. Collector handles are comparatively
// expensive to open, and callers that only read or write settings do not
// need them.
func OpenSettings(cfg config.Config) (*App, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return NewWith(db, nil, nil, nil), nil
}

func openStore(cfg config.Config) (*store.DB, error) {
	db, err := store.Open(paths.NewResolver(cfg))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info("Using %s database at %s", cfg.Mode, db.Path())
	return db, nil
}

// NewWith assembles an App from already opened parts.
func NewWith(db *store.DB, processor *sysinfo.ProcessorHandle, memory *sysinfo.MemoryHandle, storage *sysinfo.StorageHandle) *App {
	return &App{db: db, processor: processor, memory: memory, storage: storage}
}

func newWithHandles(
	db *store.DB,
	openProcessor func() (*sysinfo.ProcessorHandle, error),
	openMemory func() (*sysinfo.MemoryHandle, error),
	openStorage func() *sysinfo.StorageHandle,
) (*App, error) {
	processor, err := openProcessor()
	if err != nil {
		return nil, fmt.Errorf("open processor: %w", err)
	}

	memory, err := openMemory()
	if err != nil {
		log.Warn("Memory metrics unavailable: %v", err)
	}

	return NewWith(db, processor, memory, openStorage()), nil
}

func (a *App) DatabasePath() string {
	return a.db.Path()
}

// Snapshot refreshes every handle. Only a processor failure is returned;
// memory and storage degrade to empty records.
func (a *App) Snapshot() (Snapshot, error) {
	if a.processor == nil {
		return Snapshot{}, ErrNoCollectors
	}

	cpu, err := a.processor.Sample()
	if err != nil {
		return Snapshot{}, fmt.Errorf("sample processor: %w", err)
	}

	var memory models.MemoryInfo
	if a.memory != nil {
		memory, err = a.memory.Sample()
		if err != nil {
			log.Warn("Unable to sample memory: %v", err)
			memory = models.MemoryInfo{}
		}
	}

	var storage models.StorageInfo
	if a.storage != nil {
		storage = a.storage.Sample()
	}

	return Snapshot{
		Processor: cpu,
		Memory:    memory,
		Storage:   storage,
		TakenAt:   time.Now(),
	}, nil
}

// SnapshotAfter waits for settle before sampling, so that processor usage
// covers a measurable interval when the handles were just opened.
func (a *App) SnapshotAfter(ctx context.Context, settle time.Duration) (Snapshot, error) {
	if settle > 0 {
		timer := time.NewTimer(settle)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-timer.C:
		}
	}
	return a.Snapshot()
}

// Note returns the saved note, or the default text when it cannot be read.
func (a *App) Note() string {
	note, err := a.db.GetNote()
	if err != nil {
		log.Warn("Unable to read note, using default: %v", err)
		return store.DefaultNote
	}
	return note
}

func (a *App) SaveNote(text string) error {
	if err := a.db.SetNote(text); err != nil {
		return err
	}
	log.Debug("Saved note (%d bytes)", len(text))
	return nil
}

// RestoreWindow returns the geometry to apply at startup. A missing or
// unreadable record yields the default geometry.
func (a *App) RestoreWindow() models.WindowInformation {
	wi, err := a.db.LoadWindowState()
	if err != nil {
		log.Warn("Unable to load window state, using defaults: %v", err)
		return store.DefaultWindowState
	}
	if wi.Width == 0 || wi.Height == 0 {
		return store.DefaultWindowState
	}
	return wi
}

func (a *App) SaveWindow(wi models.WindowInformation) error {
	if err := a.db.SaveWindowState(wi); err != nil {
		return err
	}
	log.Debug("Saved window state %+v", wi)
	return nil
}

// WindowSize returns the legacy text-encoded size, falling back to defaults.
func (a *App) WindowSize() models.Dimension {
	dim, err := a.db.GetWindowSize()
	if err != nil {
		log.Warn("Unable to read window size, using defaults: %v", err)
		return models.Dimension{
			Width:  fmt.Sprint(store.DefaultWindowWidth),
			Height: fmt.Sprint(store.DefaultWindowHeight),
		}
	}
	return dim
}

func (a *App) SaveWindowSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", width, height)
	}
	return a.db.SetWindowSize(width, height)
}

func (a *App) Close() error {
	return a.db.Close()
}
