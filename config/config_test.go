package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := DefaultConfig()
			cfg.FPS = 30
			cfg.Strategy = StrategyDuplication
			cfg.RegionX, cfg.RegionY, cfg.RegionW, cfg.RegionH = 10, 20, 640, 480
			cfg.Background = "#FF000000"
			require.NoError(t, cfg.Save(path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestLoadYAMLPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yml")
	require.NoError(t, os.WriteFile(path, []byte("fps: 120\nmanual: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)
	assert.True(t, cfg.Manual)
	assert.Equal(t, StrategyBlit, cfg.Strategy)
	assert.Equal(t, 512, cfg.QueueMemoryMB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"strategy": "gpu"}`), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"fps":`), 0o644))
	cfg, err := Load(broken)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidateClamps(t *testing.T) {
	cfg := &Config{FPS: -1, QueueMemoryMB: 8, PreviewCacheSize: 5000, RegionW: -3, Strategy: " Blit "}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15, cfg.FPS)
	assert.Equal(t, 64, cfg.QueueMemoryMB)
	assert.Equal(t, 1024, cfg.PreviewCacheSize)
	assert.Equal(t, 0, cfg.RegionW)
	assert.Equal(t, StrategyBlit, cfg.Strategy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "#FFFFFFFF", cfg.Background)
}

func TestLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	cfg.Debug = true
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestExpandPaths(t *testing.T) {
	t.Setenv("PIXELREC_TEST_DIR", "/data/rec")
	cfg := DefaultConfig()
	cfg.RecordingsDir = "$PIXELREC_TEST_DIR/raw"
	require.NoError(t, cfg.ExpandPaths())
	assert.Equal(t, "/data/rec/raw", cfg.RecordingsDir)
}
