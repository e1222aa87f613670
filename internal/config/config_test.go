package config

import (
	"os"
	"path/filepath"
	"testing"

	"vfsterm/internal/loader"
	"vfsterm/internal/logging"
	"vfsterm/internal/shell"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPath_ReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, shell.DefaultName, cfg.ShellName())
	assert.Equal(t, loader.Strict, cfg.Policy())
	assert.Equal(t, logging.LevelWarn, cfg.Level())
	assert.Empty(t, cfg.VFSPath)
	assert.Empty(t, cfg.MountPoint)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
vfs_path: ./vfs.csv
start_script: ./start.txt
name: box
load_policy: best-effort
log_level: debug
metrics_addr: 127.0.0.1:9090
mount_point: /mnt/vfs
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./vfs.csv", cfg.VFSPath)
	assert.Equal(t, "./start.txt", cfg.StartScript)
	assert.Equal(t, "box", cfg.ShellName())
	assert.Equal(t, loader.BestEffort, cfg.Policy())
	assert.Equal(t, logging.LevelDebug, cfg.Level())
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	assert.Equal(t, "/mnt/vfs", cfg.MountPoint)
}

func TestLoad_JSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"vfs_path": "vfs.csv", "start_script": "start.txt"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vfs.csv", cfg.VFSPath)
	assert.Equal(t, "start.txt", cfg.StartScript)
	assert.Equal(t, shell.DefaultName, cfg.ShellName())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "bad yaml", content: "vfs_path: [unclosed", wantMsg: "parse config"},
		{name: "bad policy", content: "load_policy: lenient", wantMsg: "load_policy"},
		{name: "bad level", content: "log_level: loud", wantMsg: "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "config.yaml", tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNilConfigAccessors(t *testing.T) {
	var cfg *Config
	assert.Equal(t, shell.DefaultName, cfg.ShellName())
	assert.Equal(t, loader.Strict, cfg.Policy())
	assert.Equal(t, logging.LevelWarn, cfg.Level())
}

func TestShellNameBlank(t *testing.T) {
	cfg := &Config{Name: "   "}
	assert.Equal(t, shell.DefaultName, cfg.ShellName())
}
