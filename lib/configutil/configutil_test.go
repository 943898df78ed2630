package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl   string `json:"base_url"`
	SessionId string `json:"session_id"`
	Limit     int    `json:"limit"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	err := os.WriteFile(name, []byte(`{
		// comments are allowed
		base_url: "https://videos.police.ge",
		limit: 2,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		session_id: "abc123",
		limit: 5,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:   "https://videos.police.ge",
		SessionId: "abc123",
		Limit:     5,
	}, cfg)
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "state", "session.json5")

	err := WriteConfig(name, testConfig{SessionId: "first"})
	require.NoError(t, err)
	err = WriteConfig(name, testConfig{SessionId: "second"})
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "second", cfg.SessionId)

	entries, err := os.ReadDir(filepath.Dir(name))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
