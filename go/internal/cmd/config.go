package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/config"
)

const defaultConfigPath = "partyroom.yaml"

type cliFlags struct {
	ConfigPath string
	Server     string
	Room       string
	Screen     string
	Name       string
}

func parseFlags(args []string) cliFlags {
	var f cliFlags
	set := flag.NewFlagSet("partyroom", flag.ExitOnError)
	set.StringVar(&f.ConfigPath, "config", getEnv("PARTYROOM_CONFIG", defaultConfigPath), "path to the yaml configuration")
	set.StringVar(&f.Server, "server", "", "game server url, e.g. http://192.168.0.5:8000")
	set.StringVar(&f.Room, "room", "", "room id")
	set.StringVar(&f.Screen, "screen", "", "host or player")
	set.StringVar(&f.Name, "name", "", "player name to join with")
	_ = set.Parse(args)
	return f
}

// loadConfig reads the configuration file, falling back to defaults when the
// default file is absent, and applies flags last.
func loadConfig(f cliFlags) (*config.Config, error) {
	path := f.ConfigPath
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if f.Server != "" {
		if cfg.Server.SoundsURL == cfg.Server.URL {
			cfg.Server.SoundsURL = f.Server
		}
		cfg.Server.URL = f.Server
	}
	if f.Room != "" {
		cfg.Room.ID = f.Room
	}
	if f.Screen != "" {
		cfg.Room.Screen = f.Screen
	}
	if f.Name != "" {
		cfg.Room.PlayerName = f.Name
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
