package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644))

	cfg := Default()
	watcher := NewConfigWatcher(cfg, path)

	changed := make(chan *Config, 4)
	watcher.OnConfigChange(func(c *Config) { changed <- c })

	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	assert.Same(t, cfg, watcher.GetConfig())

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	select {
	case newCfg := <-changed:
		assert.Equal(t, "debug", newCfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not delivered")
	}

	require.Eventually(t, func() bool {
		return watcher.GetConfig().Log.Level == "debug"
	}, time.Second, 10*time.Millisecond)
}

func TestConfigWatcherMissingFileFails(t *testing.T) {
	watcher := NewConfigWatcher(Default(), "/does/not/exist.yaml")
	assert.Error(t, watcher.Start())
}
