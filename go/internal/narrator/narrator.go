// Package narrator sequences the spoken werewolf night: for each night phase
// it plays the phase cue, then runs the phase countdown, then asks the server
// to advance.
package narrator

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/countdown"
	"github.com/mcdev12/partyroom/go/internal/intent"
	"github.com/mcdev12/partyroom/go/internal/models"
	"github.com/mcdev12/partyroom/go/internal/sched"
)

// CuePlayer is the part of the audio engine the narrator needs.
type CuePlayer interface {
	PlayNotify(key audio.CueKey, cb audio.Callbacks)
}

// IntentSender is the part of the intent dispatcher the narrator needs.
type IntentSender interface {
	Dispatch(action intent.Action, payload any) bool
}

// Narrator runs Transition against real audio and timers. It must only be
// used from the session loop.
type Narrator struct {
	player  CuePlayer
	intents IntentSender
	timer   *countdown.Countdown

	state    State
	countGen uint64
	handling bool
	queue    []Event
}

// New creates an idle narrator. onTick receives every countdown value.
func New(s sched.Scheduler, player CuePlayer, intents IntentSender, onTick func(remaining int)) *Narrator {
	n := &Narrator{player: player, intents: intents}
	opts := []countdown.Option{
		countdown.OnExpire(func() { n.handle(CountdownExpired{Generation: n.countGen}) }),
	}
	if onTick != nil {
		opts = append(opts, countdown.OnChange(onTick))
	}
	n.timer = countdown.New("night", s, opts...)
	return n
}

// PhaseChanged narrates a new night phase. holders only informs the log:
// the phase runs its full length either way.
func (n *Narrator) PhaseChanged(phase models.NightPhase, holders []string) {
	log.Info().
		Str("night_phase", string(phase)).
		Int("holders", len(holders)).
		Msg("night phase changed")
	n.handle(PhaseEntered{Phase: phase})
}

// ActionCompleted shortens a long running countdown after somebody acted.
func (n *Narrator) ActionCompleted() {
	n.handle(ActionCompleted{Remaining: n.timer.Remaining()})
}

// Stop abandons the current night and cancels its countdown.
func (n *Narrator) Stop() {
	n.handle(Halt{})
	n.timer.Clear()
}

// State is the current machine state.
func (n *Narrator) State() State { return n.state }

// Remaining is the displayed countdown value.
func (n *Narrator) Remaining() int { return n.timer.Remaining() }

// handle serializes events: callbacks raised while commands execute are
// queued and handled after the current transition completes.
func (n *Narrator) handle(ev Event) {
	n.queue = append(n.queue, ev)
	if n.handling {
		return
	}
	n.handling = true
	defer func() { n.handling = false }()

	for len(n.queue) > 0 {
		ev := n.queue[0]
		n.queue = n.queue[1:]

		prev := n.state
		var cmds []Command
		n.state, cmds = Transition(n.state, ev)
		if prev.Stage != n.state.Stage {
			log.Debug().
				Str("from", prev.Stage.String()).
				Str("to", n.state.Stage.String()).
				Str("night_phase", string(n.state.Phase)).
				Msg("narrator transition")
		}
		for _, cmd := range cmds {
			n.exec(cmd)
		}
	}
}

func (n *Narrator) exec(cmd Command) {
	switch c := cmd.(type) {
	case CancelCountdown:
		n.timer.Cancel()
	case PlayCue:
		gen := c.Generation
		n.player.PlayNotify(c.Key, audio.Callbacks{
			OnStart:    func() { n.handle(NarrationStarted{Generation: gen}) },
			OnComplete: func() { n.handle(NarrationDone{Generation: gen}) },
		})
	case StartCountdown:
		n.countGen = c.Generation
		n.timer.StartFor(c.Duration)
	case ResetCountdown:
		log.Debug().Dur("duration", c.Duration).Msg("night countdown shortened")
		n.timer.Reset(c.Duration)
	case Dispatch:
		if !n.intents.Dispatch(c.Action, nil) {
			log.Warn().Str("action", string(c.Action)).Msg("night intent dropped")
		}
	}
}
