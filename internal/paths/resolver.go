package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/metorial/machineinfo/internal/config"
	"github.com/metorial/machineinfo/internal/log"
)

// ErrNoStorageLocation means neither the platform directory nor the home
// directory could be determined.
var ErrNoStorageLocation = errors.New("no storage location available")

// Resolver computes where the database file lives. The OS hooks default to the
// os package and are replaceable in tests.
type Resolver struct {
	Mode config.Mode
	App  config.App
	File string

	GOOS          string
	Executable    func() (string, error)
	UserConfigDir func() (string, error)
	UserHomeDir   func() (string, error)
	MkdirAll      func(path string, perm os.FileMode) error
}

func NewResolver(cfg config.Config) *Resolver {
	return &Resolver{
		Mode:          cfg.Mode,
		App:           cfg.App,
		File:          cfg.Database.File,
		GOOS:          runtime.GOOS,
		Executable:    os.Executable,
		UserConfigDir: os.UserConfigDir,
		UserHomeDir:   os.UserHomeDir,
		MkdirAll:      os.MkdirAll,
	}
}

// Resolve returns the absolute database path and makes sure its directory
// exists. A directory that cannot be created is logged; opening the file will
// report the real failure.
func (r *Resolver) Resolve() (string, error) {
	dir, err := r.dir()
	if err != nil {
		return "", err
	}

	if err := r.MkdirAll(dir, 0o755); err != nil {
		log.Warn("Unable to create storage directory %s: %v", dir, err)
	}

	return filepath.Join(dir, r.File), nil
}

func (r *Resolver) dir() (string, error) {
	if r.Mode == config.Development {
		if dir, ok := r.executableDir(); ok {
			return dir, nil
		}
		log.Warn("Executable path unknown, falling back to the user config directory")
	}

	if dir, ok := r.platformDir(); ok {
		return dir, nil
	}

	home, err := r.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: home directory: %v", ErrNoStorageLocation, err)
	}
	dir := filepath.Join(home, "."+r.slug())
	log.Warn("Platform config directory unavailable, using %s", dir)
	return absolute(dir), nil
}

func (r *Resolver) executableDir() (string, bool) {
	exe, err := r.Executable()
	if err != nil || exe == "" {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return absolute(filepath.Dir(exe)), true
}

// platformDir follows each OS's per-user configuration convention:
// XDG on Unix, Application Support on macOS, Roaming AppData on Windows.
func (r *Resolver) platformDir() (string, bool) {
	base, err := r.UserConfigDir()
	if err != nil || base == "" {
		return "", false
	}

	var dir string
	switch r.GOOS {
	case "darwin", "ios":
		dir = filepath.Join(base, r.bundleID())
	case "windows":
		dir = filepath.Join(base, r.organizationName(), r.App.Application, "config")
	default:
		dir = filepath.Join(base, r.slug())
	}
	return absolute(dir), true
}

func (r *Resolver) slug() string {
	return strings.ToLower(strings.ReplaceAll(r.App.Application, " ", ""))
}

func (r *Resolver) bundleID() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.App.Qualifier, r.App.Organization, r.App.Application} {
		if p != "" {
			parts = append(parts, strings.ReplaceAll(p, " ", "-"))
		}
	}
	return strings.Join(parts, ".")
}

// organizationName is the last dotted segment of the organization,
// e.g. "github.northshorehero" -> "northshorehero".
func (r *Resolver) organizationName() string {
	org := r.App.Organization
	if i := strings.LastIndex(org, "."); i >= 0 {
		org = org[i+1:]
	}
	return org
}

func absolute(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
