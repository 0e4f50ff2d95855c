package reconciler

import (
	"time"

	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/models"
)

// Effect is a presentation action derived from one snapshot transition.
type Effect interface {
	// Kind is a short stable name, used as the relay subject suffix.
	Kind() string
}

// Cue plays a sound on the host screen.
type Cue struct {
	Key audio.CueKey `json:"key"`
}

// Haptic vibrates a player device. Pattern alternates on and off durations.
type Haptic struct {
	Pattern []time.Duration `json:"pattern"`
}

// OverlayKind is the visual shown over the card table.
type OverlayKind string

const (
	OverlayCardSuccess OverlayKind = "card_success"
	OverlayCardFailure OverlayKind = "card_failure"
)

// Overlay shows a timed full-screen overlay.
type Overlay struct {
	Overlay  OverlayKind   `json:"overlay"`
	Duration time.Duration `json:"duration"`
}

// NightPhaseChanged hands a new night tag to the narrator.
type NightPhaseChanged struct {
	Phase models.NightPhase `json:"phase"`
	// Holders are the connected players dealt the role acting in Phase.
	Holders []string `json:"holders"`
}

// NightActionCompleted lists players whose night action newly completed.
type NightActionCompleted struct {
	PlayerIDs []string `json:"player_ids"`
}

// DiscussionDeadline starts or refreshes the discussion countdown.
type DiscussionDeadline struct {
	End time.Time `json:"end"`
}

// DiscussionCancelled stops the discussion countdown.
type DiscussionCancelled struct{}

// SessionEnded is raised when the local player vanished from the room.
type SessionEnded struct {
	Message string `json:"message"`
}

func (Cue) Kind() string                  { return "cue" }
func (Haptic) Kind() string               { return "haptic" }
func (Overlay) Kind() string              { return "overlay" }
func (NightPhaseChanged) Kind() string    { return "night_phase" }
func (NightActionCompleted) Kind() string { return "night_action" }
func (DiscussionDeadline) Kind() string   { return "discussion" }
func (DiscussionCancelled) Kind() string  { return "discussion_cancelled" }
func (SessionEnded) Kind() string         { return "session_ended" }

const (
	SuccessOverlayDuration = 1500 * time.Millisecond
	FailureOverlayDuration = 2 * time.Second
)

var (
	HapticRoundStart = []time.Duration{500 * time.Millisecond}
	HapticResult     = []time.Duration{100 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	HapticBomb       = []time.Duration{
		200 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond,
		100 * time.Millisecond, 500 * time.Millisecond,
	}
	HapticWolf = []time.Duration{
		50 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond,
		50 * time.Millisecond, 500 * time.Millisecond,
	}
)

// SessionEndedMessage is the blocking notice shown on stale membership.
const SessionEndedMessage = "The game has ended. Returning to the lobby."
