// Package reconciler diffs each authoritative snapshot against the one held
// before it and derives the presentation effects whose trigger condition just
// became true. Every comparison is against the immediately preceding
// snapshot, so a re-delivered snapshot never fires anything.
package reconciler

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/partyroom/go/internal/audio"
	"github.com/mcdev12/partyroom/go/internal/models"
)

// Screen is the role of this client in the room.
type Screen string

const (
	ScreenHost   Screen = "host"
	ScreenPlayer Screen = "player"
)

// Config identifies the local client.
type Config struct {
	Screen Screen
	// SelfID is the local client id, which doubles as the player id on
	// player screens.
	SelfID string
}

// Reconciler must only be used from the session loop.
type Reconciler struct {
	cfg Config

	prev          *models.Snapshot
	lastNight     models.NightPhase
	discussionEnd time.Time
	peek          *models.PeekResult
	view          View
}

func New(cfg Config) *Reconciler {
	r := &Reconciler{cfg: cfg}
	r.view = Derive(nil, cfg.SelfID, nil)
	return r
}

// Apply reconciles next against the held snapshot, replaces the held
// snapshot and returns the effects to run, in order. The first snapshot of a
// session is a baseline: it fires no edge effects, but it does hand an
// in-progress night or discussion over to the timers.
func (r *Reconciler) Apply(next *models.Snapshot) []Effect {
	if next == nil {
		return nil
	}
	prev := r.prev

	var fx []Effect
	if prev != nil {
		if r.cfg.Screen == ScreenHost {
			fx = append(fx, cueEffects(prev, next)...)
		} else {
			fx = append(fx, r.playerEffects(prev, next)...)
		}
		fx = append(fx, r.cardEffects(prev, next)...)
	}
	if r.cfg.Screen == ScreenHost {
		fx = append(fx, r.nightEffects(prev, next)...)
	}
	fx = append(fx, r.discussionEffects(next)...)

	if next.Phase == models.PhaseLobby {
		r.peek = nil
	}
	r.prev = next
	r.view = Derive(next, r.cfg.SelfID, r.peek)

	if len(fx) > 0 {
		log.Debug().
			Str("phase", string(next.Phase)).
			Str("mode", string(next.Mode)).
			Int("effects", len(fx)).
			Msg("snapshot reconciled")
	}
	return fx
}

// SetPeek records a point-to-point peek reply without touching the held
// snapshot.
func (r *Reconciler) SetPeek(p models.PeekResult) {
	r.peek = &p
	r.view.Peek = r.peek
}

// Snapshot is the held snapshot, nil before the first one arrives.
func (r *Reconciler) Snapshot() *models.Snapshot { return r.prev }

// View is the view derived from the held snapshot.
func (r *Reconciler) View() View { return r.view }

func cueEffects(prev, next *models.Snapshot) []Effect {
	var fx []Effect
	if next.Phase != prev.Phase {
		switch {
		case next.Phase.IsActiveRound():
			if !(next.Mode == models.ModeWordWolf && next.Phase == models.PhaseDescription) {
				fx = append(fx, Cue{Key: audio.CueStart})
			}
		case next.Phase == models.PhaseResult:
			fx = append(fx, Cue{Key: revealCue(next.Mode)})
		case next.Phase == models.PhaseJudging:
			if next.Mode != models.ModeSympathy {
				fx = append(fx, Cue{Key: audio.CueDecision})
			} else {
				fx = append(fx, Cue{Key: audio.CueResult})
			}
		}
	}
	if next.PlayerCount() > prev.PlayerCount() {
		fx = append(fx, Cue{Key: audio.CueJoin})
	}
	if next.SubmissionCount() > prev.SubmissionCount() {
		fx = append(fx, Cue{Key: audio.CueVote})
	}
	return fx
}

func revealCue(m models.Mode) audio.CueKey {
	switch m {
	case models.ModeIto:
		return audio.CueItoReveal
	case models.ModeWerewolf:
		return audio.CueWerewolfReveal
	}
	return audio.CueReveal
}

func (r *Reconciler) playerEffects(prev, next *models.Snapshot) []Effect {
	self := r.cfg.SelfID
	var fx []Effect

	if next.Phase != prev.Phase {
		switch {
		case next.Phase.IsActiveRound():
			fx = append(fx, Haptic{Pattern: HapticRoundStart})
		case next.Phase == models.PhaseResult:
			fx = append(fx, Haptic{Pattern: HapticResult})
		}
	}
	if self != "" && next.BombOwnerID == self && prev.BombOwnerID != self {
		fx = append(fx, Haptic{Pattern: HapticBomb})
	}
	if isWolf(next, self) && !isWolf(prev, self) {
		fx = append(fx, Haptic{Pattern: HapticWolf})
	}
	if prev.HasPlayer(self) && !next.HasPlayer(self) {
		log.Warn().Str("player_id", self).Msg("local player left the room, session ended")
		fx = append(fx, SessionEnded{Message: SessionEndedMessage})
	}
	return fx
}

func isWolf(s *models.Snapshot, self string) bool {
	if s.Mode != models.ModeWordWolf || !s.HasPlayer(self) {
		return false
	}
	ww, ok := s.State.(*models.WordWolfState)
	return ok && ww.IsWolf(self)
}

// cardEffects fires at most one overlay per update: a new failure wins over
// a new card.
func (r *Reconciler) cardEffects(prev, next *models.Snapshot) []Effect {
	before, ok := prev.State.(*models.ItoState)
	if !ok {
		return nil
	}
	after, ok := next.State.(*models.ItoState)
	if !ok {
		return nil
	}

	var overlay Overlay
	var cue audio.CueKey
	switch {
	case after.FailedCount() > before.FailedCount():
		overlay = Overlay{Overlay: OverlayCardFailure, Duration: FailureOverlayDuration}
		cue = audio.CueCardFailure
	case len(after.PlayedCards) > len(before.PlayedCards):
		overlay = Overlay{Overlay: OverlayCardSuccess, Duration: SuccessOverlayDuration}
		cue = audio.CueCardSuccess
	default:
		return nil
	}

	fx := []Effect{overlay}
	if r.cfg.Screen == ScreenHost {
		fx = append(fx, Cue{Key: cue})
	}
	return fx
}

func (r *Reconciler) nightEffects(prev, next *models.Snapshot) []Effect {
	ww, ok := next.State.(*models.WerewolfState)
	if !ok || next.Phase == models.PhaseLobby || next.Phase == models.PhaseInstruction {
		// a new game instance starts its night from scratch
		r.lastNight = ""
		return nil
	}

	var fx []Effect
	tag := ww.NightPhase
	if next.Phase != models.PhaseAnswering {
		// the night is over: a leftover tag is history and must not be narrated
		r.lastNight = tag
	} else if tag != "" && tag != models.NightWaiting && tag != r.lastNight {
		r.lastNight = tag
		fx = append(fx, NightPhaseChanged{
			Phase:   tag,
			Holders: ww.Holders(tag.Role(), next.Players),
		})
	}

	if prev == nil {
		return fx
	}
	before, ok := prev.State.(*models.WerewolfState)
	if !ok {
		return fx
	}
	var done []string
	for id, ok := range ww.NightActionsDone {
		if ok && !before.NightActionsDone[id] {
			done = append(done, id)
		}
	}
	if len(done) > 0 {
		slices.Sort(done)
		fx = append(fx, NightActionCompleted{PlayerIDs: done})
	}
	return fx
}

func (r *Reconciler) discussionEffects(next *models.Snapshot) []Effect {
	end, ok := next.DiscussionDeadline()
	inDiscussion := ok &&
		((next.Mode == models.ModeWerewolf && next.Phase == models.PhaseJudging) ||
			(next.Mode == models.ModeWordWolf && next.Phase == models.PhaseAnswering))

	switch {
	case inDiscussion && !end.Equal(r.discussionEnd):
		r.discussionEnd = end
		return []Effect{DiscussionDeadline{End: end}}
	case !inDiscussion && !r.discussionEnd.IsZero():
		r.discussionEnd = time.Time{}
		return []Effect{DiscussionCancelled{}}
	}
	return nil
}
