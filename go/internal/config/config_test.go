package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partyroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, c.Connection.ReconnectDelay)
	assert.Equal(t, 100*time.Millisecond, c.Audio.RetryInterval)
	assert.Equal(t, 20, c.Audio.MaxAttempts)
	assert.Equal(t, 5*time.Second, c.Audio.FallbackDelay)
	assert.Equal(t, c.Server.URL, c.Server.SoundsURL)
	assert.Error(t, c.Validate(), "room id is required")
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
server:
  url: http://10.0.0.2:8000
room:
  id: kitchen
  screen: host
connection:
  reconnect_delay: 250ms
audio:
  enabled: false
relay:
  nats_url: nats://localhost:4222
`)
	t.Setenv("PARTYROOM_ROOM_ID", "livingroom")
	t.Setenv("PARTYROOM_RECONNECT_DELAY", "10ms")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "http://10.0.0.2:8000", c.Server.URL)
	assert.Equal(t, "livingroom", c.Room.ID)
	assert.Equal(t, "host", c.Room.Screen)
	assert.Equal(t, 10*time.Millisecond, c.Connection.ReconnectDelay)
	assert.False(t, c.Audio.Enabled)
	assert.Equal(t, "nats://localhost:4222", c.Relay.NATSURL)
	assert.Equal(t, 20, c.Audio.MaxAttempts, "unset keys keep their defaults")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "room: [unterminated"))
	assert.Error(t, err)

	t.Setenv("PARTYROOM_RECONNECT_DELAY", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Room.ID = "r1"
	c.Room.Screen = "projector"
	c.Audio.MaxAttempts = 0

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room.screen")
	assert.Contains(t, err.Error(), "audio.retry_interval")
}
