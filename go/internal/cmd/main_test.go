package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		server, want string
	}{
		{"http://192.168.0.5:8000", "http://192.168.0.5:8000/play/kitchen"},
		{"https://party.example.com/", "https://party.example.com/play/kitchen"},
		{"ws://localhost:8000/base?x=1", "http://localhost:8000/base/play/kitchen"},
	}
	for _, tt := range tests {
		got, err := joinURL(tt.server, "kitchen")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partyroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room:\n  id: kitchen\n  screen: player\n"), 0o600))

	cfg, err := loadConfig(parseFlags([]string{"-config", path, "-screen", "host", "-server", "http://10.0.0.9:8000"}))
	require.NoError(t, err)
	assert.Equal(t, "kitchen", cfg.Room.ID)
	assert.Equal(t, "host", cfg.Room.Screen)
	assert.Equal(t, "http://10.0.0.9:8000", cfg.Server.URL)
	assert.Equal(t, "http://10.0.0.9:8000", cfg.Server.SoundsURL)
}

func TestLoadConfig_MissingDefaultFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig(cliFlags{ConfigPath: defaultConfigPath, Room: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "r1", cfg.Room.ID)

	_, err = loadConfig(cliFlags{ConfigPath: "elsewhere.yaml", Room: "r1"})
	assert.Error(t, err, "an explicit path must exist")

	_, err = loadConfig(cliFlags{ConfigPath: defaultConfigPath})
	assert.Error(t, err, "room is required")
}
