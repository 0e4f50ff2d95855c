package narrator

import (
	"time"

	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/intent"
	"github.com/mcdev12/partyroom/go/internal/models"
)

const (
	ClosingEyesDuration = 3 * time.Second
	RoleTurnDuration    = 10 * time.Second
	// LateActionCap is what a running countdown drops to once somebody acts.
	LateActionCap = 5 * time.Second
)

// Stage is where the narration of the current night phase stands.
type Stage int

const (
	StageIdle Stage = iota
	StageLoading
	StagePlaying
	StageCounting
	StageAdvancing
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageLoading:
		return "loading"
	case StagePlaying:
		return "playing"
	case StageCounting:
		return "counting"
	case StageAdvancing:
		return "advancing"
	}
	return "unknown"
}

// State is the narrator's position. Generation changes on every new phase so
// that callbacks from a superseded narration are recognised and dropped.
type State struct {
	Stage      Stage
	Phase      models.NightPhase
	Generation uint64
}

// Plan maps a night phase to its cue and countdown length. Role turns run the
// full countdown even when nobody holds the role, so the night has the same
// pacing for every table. ok is false for tags that are not narrated.
func Plan(phase models.NightPhase) (cue audio.CueKey, countdown time.Duration, ok bool) {
	switch phase {
	case models.NightClosingEyes:
		return audio.CueNightClosingEyes, ClosingEyesDuration, true
	case models.NightWerewolf:
		return audio.CueNightWerewolf, RoleTurnDuration, true
	case models.NightSeer:
		return audio.CueNightSeer, RoleTurnDuration, true
	case models.NightThief:
		return audio.CueNightThief, RoleTurnDuration, true
	case models.NightDone:
		return audio.CueNightDone, 0, true
	}
	return "", 0, false
}

// Event drives the machine.
type Event interface{ event() }

// PhaseEntered reports a new night tag from the reconciler.
type PhaseEntered struct {
	Phase models.NightPhase
}

// NarrationStarted reports that the phase cue started playing.
type NarrationStarted struct{ Generation uint64 }

// NarrationDone reports that the phase cue finished, or gave up.
type NarrationDone struct{ Generation uint64 }

// CountdownExpired reports that the phase countdown reached zero.
type CountdownExpired struct{ Generation uint64 }

// ActionCompleted reports a newly completed night action together with the
// countdown value at that moment.
type ActionCompleted struct{ Remaining int }

// Halt abandons the night, e.g. on session teardown.
type Halt struct{}

func (PhaseEntered) event()     {}
func (NarrationStarted) event() {}
func (NarrationDone) event()    {}
func (CountdownExpired) event() {}
func (ActionCompleted) event()  {}
func (Halt) event()             {}

// Command is a side effect the driver must carry out, in order.
type Command interface{ command() }

type CancelCountdown struct{}

type PlayCue struct {
	Key        audio.CueKey
	Generation uint64
}

type StartCountdown struct {
	Duration   time.Duration
	Generation uint64
}

type ResetCountdown struct {
	Duration time.Duration
}

type Dispatch struct {
	Action intent.Action
}

func (CancelCountdown) command() {}
func (PlayCue) command()         {}
func (StartCountdown) command()  {}
func (ResetCountdown) command()  {}
func (Dispatch) command()        {}

// Transition is the whole narration policy. The countdown is only ever
// started from NarrationDone, so it cannot overlap the narration audio.
func Transition(s State, ev Event) (State, []Command) {
	switch ev := ev.(type) {
	case PhaseEntered:
		cue, _, ok := Plan(ev.Phase)
		if !ok {
			return s, nil
		}
		s.Generation++
		s.Phase = ev.Phase
		s.Stage = StageLoading
		cmds := []Command{CancelCountdown{}, PlayCue{Key: cue, Generation: s.Generation}}
		if ev.Phase == models.NightDone {
			cmds = append(cmds, Dispatch{Action: intent.ActionWerewolfStartDiscussion})
		}
		return s, cmds

	case NarrationStarted:
		if ev.Generation == s.Generation && s.Stage == StageLoading {
			s.Stage = StagePlaying
		}
		return s, nil

	case NarrationDone:
		if ev.Generation != s.Generation || (s.Stage != StageLoading && s.Stage != StagePlaying) {
			return s, nil
		}
		_, d, _ := Plan(s.Phase)
		if d <= 0 {
			s.Stage = StageIdle
			return s, nil
		}
		s.Stage = StageCounting
		return s, []Command{StartCountdown{Duration: d, Generation: s.Generation}}

	case CountdownExpired:
		if ev.Generation != s.Generation || s.Stage != StageCounting {
			return s, nil
		}
		s.Stage = StageAdvancing
		return s, []Command{Dispatch{Action: intent.ActionWerewolfAdvanceNight}}

	case ActionCompleted:
		if s.Stage != StageCounting || time.Duration(ev.Remaining)*time.Second <= LateActionCap {
			return s, nil
		}
		return s, []Command{ResetCountdown{Duration: LateActionCap}}

	case Halt:
		s.Generation++
		s.Stage = StageIdle
		s.Phase = ""
		return s, []Command{CancelCountdown{}}
	}
	return s, nil
}
