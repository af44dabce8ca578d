// Package manifest handles ipe.toml evaluator configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/ipe/vm"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "ipe.toml"

// Manifest represents an ipe.toml configuration.
type Manifest struct {
	Eval   EvalConfig   `toml:"eval"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`

	// Dir is the directory containing the ipe.toml file (set at load time).
	Dir string `toml:"-"`
}

// EvalConfig tunes evaluation sessions.
type EvalConfig struct {
	DebugLevelCalls      int  `toml:"debug-level-calls"`
	WarnDuplicateMethods bool `toml:"warn-duplicate-methods"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// ServerConfig configures the evaluation service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no ipe.toml is found.
func Default() *Manifest {
	return &Manifest{
		Eval:   EvalConfig{WarnDuplicateMethods: true},
		Log:    LogConfig{Verbosity: 1},
		Server: ServerConfig{Addr: ":4567"},
	}
}

// Load parses an ipe.toml file from the given directory. Keys missing from
// the file keep their defaults.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if m.Eval.DebugLevelCalls < 0 {
		return nil, fmt.Errorf("%s: debug-level-calls must not be negative", path)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find an ipe.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SessionOptions converts the [eval] section to session options.
func (m *Manifest) SessionOptions() vm.Options {
	return vm.Options{
		DebugLevelCalls:      m.Eval.DebugLevelCalls,
		WarnDuplicateMethods: m.Eval.WarnDuplicateMethods,
	}
}

// LogPath returns the configured log file, or nil for stderr. Relative
// paths are resolved against the manifest directory.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	path := m.Log.File
	if !filepath.IsAbs(path) && m.Dir != "" {
		path = filepath.Join(m.Dir, path)
	}
	return &path
}
