// Package identity manages the client identifier the server knows a screen
// by. Player identities persist across restarts so a reconnecting phone
// keeps its seat; host identities are minted per run.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	PlayerPrefix = "P-"
	HostPrefix   = "HOST-"

	MaxNameLength = 24
)

// ErrInvalid is returned for identities that the server would reject.
var ErrInvalid = errors.New("invalid identity")

type Identity struct {
	ClientID   string `yaml:"client_id"`
	PlayerName string `yaml:"player_name,omitempty"`
}

// NewPlayerID mints a fresh player identifier.
func NewPlayerID() string {
	return PlayerPrefix + shortID()
}

// NewHostID mints a fresh host identifier.
func NewHostID() string {
	return HostPrefix + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// IsHost reports whether id belongs to a host screen.
func IsHost(id string) bool {
	return strings.HasPrefix(id, HostPrefix)
}

// Validate checks the identifier shape and trims the name.
func (id *Identity) Validate() error {
	id.PlayerName = strings.TrimSpace(id.PlayerName)
	switch {
	case !strings.HasPrefix(id.ClientID, PlayerPrefix) && !strings.HasPrefix(id.ClientID, HostPrefix):
		return fmt.Errorf("%w: client id %q has no known prefix", ErrInvalid, id.ClientID)
	case strings.ContainsAny(id.ClientID, "/ ?#"):
		return fmt.Errorf("%w: client id %q is not path safe", ErrInvalid, id.ClientID)
	case len([]rune(id.PlayerName)) > MaxNameLength:
		return fmt.Errorf("%w: player name longer than %d characters", ErrInvalid, MaxNameLength)
	}
	return nil
}

// Load reads a persisted identity.
func Load(path string) (Identity, error) {
	var id Identity
	data, err := os.ReadFile(path)
	if err != nil {
		return id, fmt.Errorf("failed to read identity: %w", err)
	}
	if err := yaml.Unmarshal(data, &id); err != nil {
		return id, fmt.Errorf("failed to parse identity: %w", err)
	}
	if err := id.Validate(); err != nil {
		return id, err
	}
	return id, nil
}

// Save writes id to path, creating parent directories.
func Save(path string, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create identity directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	return nil
}

// ForHost returns a new host identity. Hosts are never persisted.
func ForHost() Identity {
	return Identity{ClientID: NewHostID()}
}

// ForPlayer loads the player identity at path, minting and saving one when
// the file is missing or unusable. A non-empty name replaces the stored one.
func ForPlayer(path, name string) (Identity, error) {
	id, err := Load(path)
	if err != nil || IsHost(id.ClientID) {
		id = Identity{ClientID: NewPlayerID(), PlayerName: id.PlayerName}
	}
	if name != "" {
		id.PlayerName = name
	}
	if err := Save(path, id); err != nil {
		return Identity{}, err
	}
	return id, nil
}
