// Package config holds the settings machineinfo reads once at process start.
//
// The build mode decides where the database lives. Release builds stamp it at
// link time:
//
//	go build -ldflags "-X github.com/metorial/machineinfo/internal/config.buildMode=production"
//
// An optional YAML file and the MACHINEINFO_MODE environment variable may
// override it. The resulting Config is passed explicitly to everything that
// needs it; nothing reads the mode ambiently.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metorial/machineinfo/internal/log"
)

const (
	ModeEnv   = "MACHINEINFO_MODE"
	ConfigEnv = "MACHINEINFO_CONFIG"
)

// buildMode is set with -ldflags -X. Unstamped builds run in development mode.
var buildMode = string(Development)

// Mode is the build/execution mode.
type Mode string

const (
	// Development keeps the database next to the binary.
	Development Mode = "development"
	// Production keeps the database in the per-user config directory.
	Production Mode = "production"
)

func (m Mode) Valid() bool {
	return m == Development || m == Production
}

// App namespaces the per-user configuration directory.
type App struct {
	Qualifier    string `yaml:"qualifier"`
	Organization string `yaml:"organization"`
	Application  string `yaml:"application"`
}

type DatabaseConfig struct {
	// File is the database file name inside the resolved directory.
	File string `yaml:"file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File redirects logs away from stderr when set.
	File string `yaml:"file"`
}

type Config struct {
	Mode     Mode           `yaml:"mode"`
	App      App            `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode: Mode(buildMode),
		App: App{
			Qualifier:    "io",
			Organization: "github.northshorehero",
			Application:  "MachineInfo",
		},
		Database: DatabaseConfig{File: "app.db"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the optional file at path (or
// $MACHINEINFO_CONFIG when path is empty) and $MACHINEINFO_MODE.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if mode := os.Getenv(ModeEnv); mode != "" {
		cfg.Mode = Mode(mode)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q (expected %q or %q)", c.Mode, Development, Production)
	}
	if c.App.Application == "" {
		return errors.New("app.application must not be empty")
	}
	if c.Database.File == "" {
		return errors.New("database.file must not be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
