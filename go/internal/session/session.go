// Package session is the explicit context of one client in one room. It owns
// the reconciler, the audio engine, the narrator, the discussion countdown
// and the intent dispatcher, and it applies every effect the reconciler
// derives. All state is confined to the session loop.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/countdown"
	"github.com/mcdev12/partyroom/go/internal/intent"
	"github.com/mcdev12/partyroom/go/internal/models"
	"github.com/mcdev12/partyroom/go/internal/narrator"
	"github.com/mcdev12/partyroom/go/internal/reconciler"
	"github.com/mcdev12/partyroom/go/internal/sched"
)

var (
	// ErrNotSent is returned when an intent could not leave the client.
	ErrNotSent = errors.New("intent not sent")
	// ErrUnknownAction is returned for action names the server does not know.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNothingToSubmit is returned when the local draft is empty.
	ErrNothingToSubmit = errors.New("nothing to submit")
)

// Audio is the cue engine as the session uses it.
type Audio interface {
	Play(key audio.CueKey, onComplete func())
	PlayNotify(key audio.CueKey, cb audio.Callbacks)
	StopAll()
}

// EffectPublisher receives every applied effect.
type EffectPublisher interface {
	Publish(fx reconciler.Effect, at time.Time)
}

// Runner runs a function on the session loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type Config struct {
	Screen     reconciler.Screen
	RoomID     string
	ClientID   string
	PlayerName string
}

type Deps struct {
	Scheduler sched.Scheduler
	Runner    Runner
	Audio     Audio
	// Relay is optional.
	Relay EffectPublisher
}

// LocalState is the per-round input of a player screen that the server
// does not know about yet.
type LocalState struct {
	AnswerDraft string `json:"answer_draft"`
	UseShuffle  bool   `json:"use_shuffle"`
	VoteTarget  string `json:"vote_target"`
}

type Session struct {
	cfg    Config
	sched  sched.Scheduler
	runner Runner
	audio  Audio
	relay  EffectPublisher

	rec        *reconciler.Reconciler
	narrator   *narrator.Narrator
	discussion *countdown.Countdown
	intents    *intent.Dispatcher
	sender     *senderRef

	connected    bool
	overlay      *reconciler.Overlay
	overlayTimer sched.Timer
	lastHaptic   []time.Duration
	ended        string
	local        LocalState
}

// New builds an idle session. Call UseSender before the channel opens.
func New(cfg Config, deps Deps) *Session {
	s := &Session{
		cfg:    cfg,
		sched:  deps.Scheduler,
		runner: deps.Runner,
		audio:  deps.Audio,
		relay:  deps.Relay,
		sender: &senderRef{},
	}
	s.rec = reconciler.New(reconciler.Config{Screen: cfg.Screen, SelfID: cfg.ClientID})
	s.intents = intent.NewDispatcher(s.sender)
	s.narrator = narrator.New(s.sched, s.audio, s.intents, nil)
	s.discussion = countdown.New("discussion", s.sched)
	return s
}

// UseSender connects the dispatcher to the realtime channel.
func (s *Session) UseSender(sender intent.Sender) {
	s.sender.set(sender)
}

// HandleSnapshot reconciles one authoritative snapshot and applies the
// resulting effects in order.
func (s *Session) HandleSnapshot(snap *models.Snapshot) {
	for _, fx := range s.rec.Apply(snap) {
		s.apply(fx)
	}

	// leaving the werewolf night for good abandons any narration in flight
	if s.narrator.State().Stage != narrator.StageIdle && !inNight(snap) {
		s.narrator.Stop()
	}

	if snap.Mode == models.ModeSympathy && snap.Phase == models.PhaseResult {
		s.local.AnswerDraft = ""
	}
	if snap.Phase == models.PhaseLobby {
		s.local.VoteTarget = ""
	}
	if snap.HasPlayer(s.cfg.ClientID) {
		s.ended = ""
	}
}

func inNight(snap *models.Snapshot) bool {
	_, ok := snap.State.(*models.WerewolfState)
	return ok && snap.Phase != models.PhaseLobby && snap.Phase != models.PhaseInstruction
}

// HandlePeekResult stores a seer's private reply.
func (s *Session) HandlePeekResult(p models.PeekResult) {
	log.Debug().Str("target", p.Target).Msg("peek result received")
	s.rec.SetPeek(p)
}

// HandleConnection tracks the channel state. A player screen with a known
// name rejoins on every reconnect unless the room already lists it.
func (s *Session) HandleConnection(open bool) {
	s.connected = open
	if !open || s.cfg.Screen != reconciler.ScreenPlayer || s.cfg.PlayerName == "" {
		return
	}
	if held := s.rec.Snapshot(); held != nil && held.HasPlayer(s.cfg.ClientID) {
		return
	}
	s.intents.Join(s.cfg.PlayerName)
}

func (s *Session) apply(fx reconciler.Effect) {
	if s.relay != nil {
		s.relay.Publish(fx, s.sched.Now())
	}

	switch e := fx.(type) {
	case reconciler.Cue:
		s.audio.Play(e.Key, nil)
	case reconciler.Haptic:
		s.lastHaptic = e.Pattern
		log.Debug().Int("pulses", len(e.Pattern)).Msg("haptic pulse")
	case reconciler.Overlay:
		s.showOverlay(e)
	case reconciler.NightPhaseChanged:
		s.narrator.PhaseChanged(e.Phase, e.Holders)
	case reconciler.NightActionCompleted:
		s.narrator.ActionCompleted()
	case reconciler.DiscussionDeadline:
		s.discussion.StartUntil(e.End)
	case reconciler.DiscussionCancelled:
		s.discussion.Clear()
	case reconciler.SessionEnded:
		s.ended = e.Message
		s.local = LocalState{}
	}
}

// showOverlay replaces any visible overlay.
func (s *Session) showOverlay(o reconciler.Overlay) {
	if s.overlayTimer != nil {
		s.overlayTimer.Stop()
	}
	s.overlay = &o
	s.overlayTimer = s.sched.After(o.Duration, func() {
		s.overlay = nil
		s.overlayTimer = nil
	})
}

// Close tears the session down: audio stops, the narration and the
// discussion countdown are cancelled and no callback of this session runs
// afterwards.
func (s *Session) Close() {
	s.audio.StopAll()
	s.narrator.Stop()
	s.discussion.Clear()
	if s.overlayTimer != nil {
		s.overlayTimer.Stop()
		s.overlayTimer = nil
	}
	s.overlay = nil
	log.Info().Str("room_id", s.cfg.RoomID).Msg("session closed")
}

// dispatch sends a raw intent. data must be a JSON object or empty.
func (s *Session) dispatch(action intent.Action, data json.RawMessage) error {
	if !action.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	var payload any
	if len(data) > 0 {
		payload = data
	}
	if !s.intents.Dispatch(action, payload) {
		return ErrNotSent
	}
	return nil
}

// moveAnswer regroups an answer on the host board. An empty target puts it
// back into a group of its own.
func (s *Session) moveAnswer(itemID, targetGroupID string) error {
	var ok bool
	if targetGroupID == "" {
		ok = s.intents.Ungroup(itemID)
	} else {
		ok = s.intents.MoveAnswer(itemID, targetGroupID)
	}
	if !ok {
		return ErrNotSent
	}
	return nil
}

func (s *Session) join(name string) error {
	if !s.intents.Join(name) {
		return ErrNotSent
	}
	s.cfg.PlayerName = name
	return nil
}

// LocalUpdate is a partial LocalState.
type LocalUpdate struct {
	AnswerDraft *string `json:"answer_draft,omitempty"`
	UseShuffle  *bool   `json:"use_shuffle,omitempty"`
	VoteTarget  *string `json:"vote_target,omitempty"`
}

func (s *Session) updateLocal(u LocalUpdate) {
	if u.AnswerDraft != nil {
		s.local.AnswerDraft = *u.AnswerDraft
	}
	if u.UseShuffle != nil {
		s.local.UseShuffle = *u.UseShuffle
	}
	if u.VoteTarget != nil {
		s.local.VoteTarget = *u.VoteTarget
	}
}

// submitAnswer sends the answer draft. A spent shuffle is reset.
func (s *Session) submitAnswer() error {
	if s.local.AnswerDraft == "" {
		return ErrNothingToSubmit
	}
	if !s.intents.SubmitAnswer(s.local.AnswerDraft, s.local.UseShuffle) {
		return ErrNotSent
	}
	s.local.UseShuffle = false
	return nil
}

// submitVote votes for the chosen word-wolf suspect.
func (s *Session) submitVote() error {
	if s.local.VoteTarget == "" {
		return ErrNothingToSubmit
	}
	if !s.intents.Dispatch(intent.ActionVoteWolf, intent.VotePayload{TargetPlayerID: s.local.VoteTarget}) {
		return ErrNotSent
	}
	return nil
}
