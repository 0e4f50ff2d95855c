package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcdev12/partyroom/go/internal/intent"
	"github.com/mcdev12/partyroom/go/internal/narrator"
	"github.com/mcdev12/partyroom/go/internal/reconciler"
)

// View is what the rendering layer reads: the derived room view plus the
// state that only lives on this client.
type View struct {
	reconciler.View

	Screen              reconciler.Screen   `json:"screen"`
	Connected           bool                `json:"connected"`
	Overlay             *reconciler.Overlay `json:"overlay,omitempty"`
	NightStage          string              `json:"night_stage,omitempty"`
	NightRemaining      int                 `json:"night_remaining"`
	DiscussionRemaining int                 `json:"discussion_remaining"`
	LastHaptic          []time.Duration     `json:"last_haptic,omitempty"`
	Ended               string              `json:"ended,omitempty"`
	Local               LocalState          `json:"local"`
}

// Current assembles the view. Loop only.
func (s *Session) Current() View {
	v := View{
		View:                s.rec.View(),
		Screen:              s.cfg.Screen,
		Connected:           s.connected,
		NightRemaining:      s.narrator.Remaining(),
		DiscussionRemaining: s.discussion.Remaining(),
		LastHaptic:          s.lastHaptic,
		Ended:               s.ended,
		Local:               s.local,
	}
	if s.overlay != nil {
		o := *s.overlay
		v.Overlay = &o
	}
	if st := s.narrator.State(); st.Stage != narrator.StageIdle {
		v.NightStage = st.Stage.String()
	}
	return v
}

// The methods below are safe from any goroutine: each one runs on the
// session loop and waits for it.

func (s *Session) ViewState(ctx context.Context) (View, error) {
	var v View
	err := s.runner.Do(ctx, func() { v = s.Current() })
	return v, err
}

// Dispatch sends a raw intent. data must be a JSON object or empty.
func (s *Session) Dispatch(ctx context.Context, action intent.Action, data json.RawMessage) error {
	return s.do(ctx, func() error { return s.dispatch(action, data) })
}

// MoveAnswer regroups an answer on the host board. An empty target puts it
// back into a group of its own.
func (s *Session) MoveAnswer(ctx context.Context, itemID, targetGroupID string) error {
	return s.do(ctx, func() error { return s.moveAnswer(itemID, targetGroupID) })
}

func (s *Session) Join(ctx context.Context, name string) error {
	return s.do(ctx, func() error { return s.join(name) })
}

// UpdateLocal overwrites the fields of u that are set.
func (s *Session) UpdateLocal(ctx context.Context, u LocalUpdate) error {
	return s.do(ctx, func() error { s.updateLocal(u); return nil })
}

// SubmitAnswer sends the answer draft. A spent shuffle is reset.
func (s *Session) SubmitAnswer(ctx context.Context) error {
	return s.do(ctx, s.submitAnswer)
}

// SubmitVote votes for the chosen word-wolf suspect.
func (s *Session) SubmitVote(ctx context.Context) error {
	return s.do(ctx, s.submitVote)
}

func (s *Session) do(ctx context.Context, fn func() error) error {
	var err error
	if runErr := s.runner.Do(ctx, func() { err = fn() }); runErr != nil {
		return runErr
	}
	return err
}
