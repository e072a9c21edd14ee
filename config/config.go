// Package config handles maglink.toml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/maglink/vm"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "maglink.toml"

// Config represents a maglink.toml file.
type Config struct {
	VM         VMConfig         `toml:"vm"`
	Log        LogConfig        `toml:"log"`
	Extensions ExtensionsConfig `toml:"extensions"`

	// Dir is the directory containing the maglink.toml file (set at load time).
	Dir string `toml:"-"`
}

// VMConfig tunes the runtime.
type VMConfig struct {
	GCThreshold int  `toml:"gc-threshold"`
	MaxDepth    int  `toml:"max-depth"`
	ThreadCheck bool `toml:"thread-check"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// ExtensionsConfig lists extensions to load at startup and where to find
// dynamically linked ones.
type ExtensionsConfig struct {
	Preload    []string `toml:"preload"`
	PluginDirs []string `toml:"plugin-dirs"`
}

// Default returns the configuration used when no maglink.toml exists.
func Default() *Config {
	opts := vm.DefaultOptions()
	return &Config{
		VM: VMConfig{
			GCThreshold: opts.GCThreshold,
			MaxDepth:    opts.MaxDepth,
			ThreadCheck: opts.ThreadCheck,
		},
		Log: LogConfig{Verbosity: 0},
	}
}

// Load parses a maglink.toml file from the given directory. Keys missing
// from the file keep their Default values.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if c.VM.GCThreshold < 0 {
		return nil, fmt.Errorf("%s: vm.gc-threshold must not be negative", path)
	}
	if c.VM.MaxDepth <= 0 {
		c.VM.MaxDepth = vm.DefaultOptions().MaxDepth
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a maglink.toml file, then
// loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// VMOptions converts the [vm] section into runtime options.
func (c *Config) VMOptions() vm.Options {
	return vm.Options{
		GCThreshold: c.VM.GCThreshold,
		MaxDepth:    c.VM.MaxDepth,
		ThreadCheck: c.VM.ThreadCheck,
	}
}

// PluginDirPaths returns absolute paths for the configured plugin
// directories, resolved against Dir.
func (c *Config) PluginDirPaths() []string {
	var paths []string
	for _, d := range c.Extensions.PluginDirs {
		if !filepath.IsAbs(d) && c.Dir != "" {
			d = filepath.Join(c.Dir, d)
		}
		paths = append(paths, d)
	}
	return paths
}

// ConfigureLogging applies the [log] section to commonlog. A relative log
// path is resolved against Dir.
func (c *Config) ConfigureLogging() {
	var path *string
	if c.Log.Path != "" {
		p := c.Log.Path
		if !filepath.IsAbs(p) && c.Dir != "" {
			p = filepath.Join(c.Dir, p)
		}
		path = &p
	}
	commonlog.Configure(c.Log.Verbosity, path)
}
