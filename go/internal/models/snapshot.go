package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Phase is the room phase. Mode-specific games reuse the generic phases:
// the werewolf night runs in ANSWERING and its discussion in JUDGING.
type Phase string

const (
	PhaseLobby       Phase = "LOBBY"
	PhaseInstruction Phase = "INSTRUCTION"
	PhaseDescription Phase = "DESCRIPTION"
	PhaseAnswering   Phase = "ANSWERING"
	PhaseJudging     Phase = "JUDGING"
	PhaseResult      Phase = "RESULT"
)

// IsActiveRound reports whether p starts a round of play.
func (p Phase) IsActiveRound() bool {
	return p == PhaseAnswering || p == PhaseDescription
}

// Mode identifies which mini-game the room is playing.
type Mode string

const (
	ModeSympathy      Mode = "SYMPATHY"
	ModeWordWolf      Mode = "WORD_WOLF"
	ModeSekaiNoMikata Mode = "SEKAI_NO_MIKATA"
	ModeIto           Mode = "ITO"
	ModeWerewolf      Mode = "ONE_NIGHT_WEREWOLF"
)

// Snapshot is the full authoritative room state sent by the server on every
// change. It is never mutated after decoding.
type Snapshot struct {
	RoomID          string            `json:"room_id"`
	Phase           Phase             `json:"phase"`
	Mode            Mode              `json:"mode"`
	CurrentQuestion string            `json:"current_question"`
	Players         map[string]Player `json:"players"`
	Answers         map[string]Answer `json:"answers"`

	WinnerID         string `json:"winner_id"`
	BombOwnerID      string `json:"bomb_owner_id"`
	SpeedStarID      string `json:"speed_star_id"`
	ShuffleTriggered bool   `json:"shuffle_triggered_in_round"`

	Config RoomConfig `json:"-"`

	// State is the sub-state of the active mode, nil when the mode has none
	// or the server has not set it up yet.
	State ModeState `json:"-"`
}

// RoomConfig holds the host-tunable settings echoed in every snapshot.
type RoomConfig struct {
	SpeedStar      bool `json:"config_speed_star"`
	Shuffle        bool `json:"config_shuffle"`
	DiscussionTime int  `json:"config_discussion_time"`
	ItoCoop        bool `json:"config_ito_coop"`
	ItoCloseCall   bool `json:"config_ito_close_call"`
	WerewolfMadman bool `json:"config_werewolf_madman"`
}

type snapshotWire struct {
	RoomID           string            `json:"room_id"`
	Phase            Phase             `json:"phase"`
	Mode             Mode              `json:"mode"`
	CurrentQuestion  *string           `json:"current_question"`
	Players          map[string]Player `json:"players"`
	Answers          map[string]Answer `json:"answers"`
	WinnerID         *string           `json:"winner_id"`
	BombOwnerID      *string           `json:"bomb_owner_id"`
	SpeedStarID      *string           `json:"speed_star_id"`
	ShuffleTriggered bool              `json:"shuffle_triggered_in_round"`

	RoomConfig

	WordWolfState json.RawMessage `json:"word_wolf_state"`
	SekaiState    json.RawMessage `json:"sekai_state"`
	ItoState      json.RawMessage `json:"ito_state"`
	WerewolfState json.RawMessage `json:"werewolf_state"`
}

// UnmarshalJSON decodes the server payload and selects the mode sub-state by
// the mode tag; sub-states of inactive modes are ignored.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Phase == "" {
		return fmt.Errorf("snapshot without phase")
	}

	*s = Snapshot{
		RoomID:           w.RoomID,
		Phase:            w.Phase,
		Mode:             w.Mode,
		CurrentQuestion:  deref(w.CurrentQuestion),
		Players:          w.Players,
		Answers:          w.Answers,
		WinnerID:         deref(w.WinnerID),
		BombOwnerID:      deref(w.BombOwnerID),
		SpeedStarID:      deref(w.SpeedStarID),
		ShuffleTriggered: w.ShuffleTriggered,
		Config:           w.RoomConfig,
	}
	if s.Players == nil {
		s.Players = map[string]Player{}
	}
	if s.Answers == nil {
		s.Answers = map[string]Answer{}
	}

	var raw json.RawMessage
	var state ModeState
	switch w.Mode {
	case ModeWordWolf:
		raw, state = w.WordWolfState, &WordWolfState{}
	case ModeSekaiNoMikata:
		raw, state = w.SekaiState, &SekaiState{}
	case ModeIto:
		raw, state = w.ItoState, &ItoState{}
	case ModeWerewolf:
		raw, state = w.WerewolfState, &WerewolfState{}
	}
	if state == nil || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return fmt.Errorf("decode %s state: %w", w.Mode, err)
	}
	s.State = state
	return nil
}

// MarshalJSON writes the snapshot back in the server's shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := snapshotWire{
		RoomID:           s.RoomID,
		Phase:            s.Phase,
		Mode:             s.Mode,
		CurrentQuestion:  ref(s.CurrentQuestion),
		Players:          s.Players,
		Answers:          s.Answers,
		WinnerID:         ref(s.WinnerID),
		BombOwnerID:      ref(s.BombOwnerID),
		SpeedStarID:      ref(s.SpeedStarID),
		ShuffleTriggered: s.ShuffleTriggered,
		RoomConfig:       s.Config,
	}
	if s.State != nil {
		raw, err := json.Marshal(s.State)
		if err != nil {
			return nil, err
		}
		switch s.State.(type) {
		case *WordWolfState:
			w.WordWolfState = raw
		case *SekaiState:
			w.SekaiState = raw
		case *ItoState:
			w.ItoState = raw
		case *WerewolfState:
			w.WerewolfState = raw
		}
	}
	return json.Marshal(w)
}

// PlayerCount is the number of players in the room.
func (s *Snapshot) PlayerCount() int {
	if s == nil {
		return 0
	}
	return len(s.Players)
}

// SubmissionCount counts answers plus the votes of the voting games.
func (s *Snapshot) SubmissionCount() int {
	if s == nil {
		return 0
	}
	n := len(s.Answers)
	switch st := s.State.(type) {
	case *WordWolfState:
		n += len(st.Votes)
	case *WerewolfState:
		n += len(st.Votes)
	case *SekaiState:
		n += len(st.SubmittedAnswers)
	}
	return n
}

// HasPlayer reports whether id is present in the player mapping.
func (s *Snapshot) HasPlayer(id string) bool {
	if s == nil || id == "" {
		return false
	}
	_, ok := s.Players[id]
	return ok
}

// DiscussionDeadline returns the server-supplied discussion end time of the
// word-wolf and werewolf games.
func (s *Snapshot) DiscussionDeadline() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	var end float64
	switch st := s.State.(type) {
	case *WordWolfState:
		end = st.DiscussionEndTime
	case *WerewolfState:
		end = st.DiscussionEndTime
	}
	if end <= 0 {
		return time.Time{}, false
	}
	return EpochTime(end), true
}

// EpochTime converts server seconds-since-epoch to a time, rounded to the
// millisecond so that whole-second deadlines stay whole.
func EpochTime(sec float64) time.Time {
	return time.UnixMilli(int64(math.Round(sec * 1000)))
}

// EpochSeconds is the inverse of EpochTime.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
