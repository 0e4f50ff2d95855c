// Package config loads the partyroom client configuration from a yaml file
// with PARTYROOM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		URL string `yaml:"url"`
		// SoundsURL serves /static/sounds; it defaults to URL.
		SoundsURL string `yaml:"sounds_url"`
	} `yaml:"server"`

	Room struct {
		ID         string `yaml:"id"`
		Screen     string `yaml:"screen"`
		PlayerName string `yaml:"player_name"`
	} `yaml:"room"`

	Identity struct {
		Path string `yaml:"path"`
	} `yaml:"identity"`

	Connection struct {
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"connection"`

	Audio struct {
		Enabled       bool          `yaml:"enabled"`
		RetryInterval time.Duration `yaml:"retry_interval"`
		MaxAttempts   int           `yaml:"max_attempts"`
		FallbackDelay time.Duration `yaml:"fallback_delay"`
		SampleRate    int           `yaml:"sample_rate"`
		Channels      int           `yaml:"channels"`
	} `yaml:"audio"`

	View struct {
		Addr string `yaml:"addr"`
	} `yaml:"view"`

	Relay struct {
		NATSURL       string `yaml:"nats_url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"relay"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var c Config
	c.Server.URL = "http://localhost:8000"
	c.Room.Screen = "player"
	c.Identity.Path = "partyroom-identity.yaml"
	c.Connection.ReconnectDelay = 3 * time.Second
	c.Connection.PingInterval = 30 * time.Second
	c.Audio.Enabled = true
	c.Audio.RetryInterval = 100 * time.Millisecond
	c.Audio.MaxAttempts = 20
	c.Audio.FallbackDelay = 5 * time.Second
	c.Audio.SampleRate = 44100
	c.Audio.Channels = 2
	c.View.Addr = "127.0.0.1:8090"
	c.Relay.SubjectPrefix = "partyroom"
	c.Log.Level = "info"
	return &c
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if c.Server.SoundsURL == "" {
		c.Server.SoundsURL = c.Server.URL
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.Server.URL = getEnv("PARTYROOM_SERVER_URL", c.Server.URL)
	c.Server.SoundsURL = getEnv("PARTYROOM_SOUNDS_URL", c.Server.SoundsURL)
	c.Room.ID = getEnv("PARTYROOM_ROOM_ID", c.Room.ID)
	c.Room.Screen = getEnv("PARTYROOM_SCREEN", c.Room.Screen)
	c.Room.PlayerName = getEnv("PARTYROOM_PLAYER_NAME", c.Room.PlayerName)
	c.Identity.Path = getEnv("PARTYROOM_IDENTITY_PATH", c.Identity.Path)
	c.View.Addr = getEnv("PARTYROOM_VIEW_ADDR", c.View.Addr)
	c.Relay.NATSURL = getEnv("PARTYROOM_NATS_URL", c.Relay.NATSURL)
	c.Relay.SubjectPrefix = getEnv("PARTYROOM_NATS_SUBJECT_PREFIX", c.Relay.SubjectPrefix)
	c.Log.Level = getEnv("PARTYROOM_LOG_LEVEL", c.Log.Level)

	var err error
	if c.Connection.ReconnectDelay, err = getEnvAsDuration("PARTYROOM_RECONNECT_DELAY", c.Connection.ReconnectDelay); err != nil {
		return err
	}
	if c.Audio.FallbackDelay, err = getEnvAsDuration("PARTYROOM_AUDIO_FALLBACK_DELAY", c.Audio.FallbackDelay); err != nil {
		return err
	}
	if c.Audio.Enabled, err = getEnvAsBool("PARTYROOM_AUDIO_ENABLED", c.Audio.Enabled); err != nil {
		return err
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.URL == "" {
		errs = append(errs, errors.New("server.url is required"))
	}
	if c.Room.ID == "" {
		errs = append(errs, errors.New("room.id is required"))
	}
	if c.Room.Screen != "host" && c.Room.Screen != "player" {
		errs = append(errs, fmt.Errorf("room.screen must be host or player, got %q", c.Room.Screen))
	}
	if c.Connection.ReconnectDelay < 0 {
		errs = append(errs, errors.New("connection.reconnect_delay must not be negative"))
	}
	if c.Audio.RetryInterval <= 0 || c.Audio.MaxAttempts <= 0 {
		errs = append(errs, errors.New("audio.retry_interval and audio.max_attempts must be positive"))
	}
	if c.Audio.FallbackDelay <= 0 {
		errs = append(errs, errors.New("audio.fallback_delay must be positive"))
	}
	if c.Audio.Enabled && (c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0) {
		errs = append(errs, errors.New("audio.sample_rate and audio.channels must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
