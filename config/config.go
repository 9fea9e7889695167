package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/evilsocket/islazy/fs"
	"gopkg.in/yaml.v3"
)

// AppDir names the per-user directories of the recorder.
const AppDir = "pixel-recorder"

// Capture strategies.
const (
	StrategyBlit        = "blit"
	StrategyDuplication = "duplication"
)

// Config holds runtime configuration for capture, storage and logging.
// Fields may be loaded from a YAML or JSON file and overridden by
// command-line flags.
type Config struct {
	Debug    bool   `json:"debug" yaml:"debug"`
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Capture parameters
	FPS                int    `json:"fps" yaml:"fps"`
	Manual             bool   `json:"manual" yaml:"manual"`
	Strategy           string `json:"strategy" yaml:"strategy"`
	ShowCursor         bool   `json:"show_cursor" yaml:"show_cursor"`
	PreventBlackFrames bool   `json:"prevent_black_frames" yaml:"prevent_black_frames"`
	FixedTimestamps    bool   `json:"fixed_timestamps" yaml:"fixed_timestamps"`
	QueueMemoryMB      int    `json:"queue_memory_mb" yaml:"queue_memory_mb"`

	// Capture region in virtual screen coordinates. A zero size records
	// the whole screen.
	RegionX int `json:"region_x" yaml:"region_x"`
	RegionY int `json:"region_y" yaml:"region_y"`
	RegionW int `json:"region_w" yaml:"region_w"`
	RegionH int `json:"region_h" yaml:"region_h"`

	// Storage
	RecordingsDir string `json:"recordings_dir" yaml:"recordings_dir"`
	ProjectsDir   string `json:"projects_dir" yaml:"projects_dir"`
	CatalogPath   string `json:"catalog_path" yaml:"catalog_path"`

	// Rendering
	PreviewCacheSize int    `json:"preview_cache_size" yaml:"preview_cache_size"`
	Background       string `json:"background" yaml:"background"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:              false,
		LogLevel:           "info",
		FPS:                15,
		Manual:             false,
		Strategy:           StrategyBlit,
		ShowCursor:         true,
		PreventBlackFrames: false,
		FixedTimestamps:    false,
		QueueMemoryMB:      512,
		RecordingsDir:      filepath.Join(xdg.CacheHome, AppDir, "recordings"),
		ProjectsDir:        filepath.Join(xdg.DataHome, AppDir, "projects"),
		CatalogPath:        filepath.Join(xdg.DataHome, AppDir, "catalog.db"),
		PreviewCacheSize:   32,
		Background:         "#FFFFFFFF",
	}
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppDir, "config.yaml")
}

// Validate clamps/normalizes values to safe ranges. It fails only for
// values it cannot repair.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		c.FPS = 15
	}
	if c.FPS > 60 {
		c.FPS = 60
	}
	if c.QueueMemoryMB <= 0 {
		c.QueueMemoryMB = 512
	}
	if c.QueueMemoryMB < 64 {
		c.QueueMemoryMB = 64
	}
	if c.QueueMemoryMB > 4096 {
		c.QueueMemoryMB = 4096
	}
	if c.PreviewCacheSize <= 0 {
		c.PreviewCacheSize = 32
	}
	if c.PreviewCacheSize > 1024 {
		c.PreviewCacheSize = 1024
	}
	if c.RegionW < 0 || c.RegionH < 0 {
		c.RegionW, c.RegionH = 0, 0
	}
	if c.Background == "" {
		c.Background = "#FFFFFFFF"
	}
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	switch c.Strategy {
	case "":
		c.Strategy = StrategyBlit
	case StrategyBlit, StrategyDuplication:
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level; Debug forces debug.
func (c *Config) Level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ExpandPaths resolves ~ and environment variables in the storage paths.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.RecordingsDir, &c.ProjectsDir, &c.CatalogPath} {
		if *p == "" {
			continue
		}
		expanded, err := fs.Expand(os.ExpandEnv(*p))
		if err != nil {
			return fmt.Errorf("config: expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from path, as YAML for .yaml/.yml
// files and JSON otherwise. If the file does not exist it returns
// DefaultConfig(). On a decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if isYAML(path) {
		err = yaml.NewDecoder(f).Decode(cfg)
	} else {
		err = json.NewDecoder(f).Decode(cfg)
	}
	if err != nil && err != io.EOF {
		return DefaultConfig(), fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories, in
// the format implied by its extension.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
