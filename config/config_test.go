package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, _, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "adb", cfg.ADB.Path)
	assert.Equal(t, 30*time.Second, cfg.ADB.CommandTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ADB.ReconnectDelay)
	assert.Equal(t, 5*time.Second, cfg.Discovery.Window)
	assert.Equal(t, 100*time.Millisecond, cfg.Discovery.PollInterval)
	assert.Equal(t, 5555, cfg.Pairing.DefaultPort)
	assert.Equal(t, []int{5555, 5556, 5557, 5558, 5559}, cfg.Pairing.CandidatePorts)
	assert.Equal(t, 37000, cfg.Pairing.ProvisionalPort)
	assert.Equal(t, 4, cfg.Workers.Count)
	assert.Equal(t, "./data/droidkit.db", cfg.Database.Path)
	assert.Equal(t, "./data/downloads", cfg.Files.DownloadDir)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "droidkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9191
adb:
  path: /opt/platform-tools/adb
discovery:
  window: 2s
pairing:
  candidate_ports: [40000, 40001]
`), 0o600))

	t.Setenv("DROIDKIT_WORKERS_COUNT", "8")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/opt/platform-tools/adb", cfg.ADB.Path)
	assert.Equal(t, 2*time.Second, cfg.Discovery.Window)
	assert.Equal(t, []int{40000, 40001}, cfg.Pairing.CandidatePorts)
	assert.Equal(t, 8, cfg.Workers.Count)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDecode_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero workers", "workers.count", 0},
		{"empty adb path", "adb.path", ""},
		{"bad port", "server.port", 70000},
		{"zero window", "discovery.window", "0s"},
		{"bad candidate", "pairing.candidate_ports", []int{5555, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)
			_, err := Decode(v)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		v := viper.New()
		v.Set("logging.level", "debug")
		v.Set("logging.format", format)
		logger, err := NewLogger(v)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("logging.level", "banana")
	_, err := NewLogger(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("logging.level", "info")
	v.Set("logging.format", "xml")
	_, err = NewLogger(v)
	assert.Error(t, err)
}
