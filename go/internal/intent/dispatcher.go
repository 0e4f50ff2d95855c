// Package intent serializes user actions and sends them to the server. It is
// fire-and-forget: nothing is queued while the channel is down and no reply
// is awaited.
package intent

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

const (
	MinDiscussionSeconds = 60
	MaxDiscussionSeconds = 600
)

// Sender is the open realtime channel.
type Sender interface {
	IsOpen() bool
	Send(data []byte) error
}

// Envelope is the outbound wire shape.
type Envelope struct {
	Type Action `json:"type"`
	Data any    `json:"data"`
}

type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Dispatch sends action with payload and reports whether it left the client.
// A nil payload is sent as an empty object.
func (d *Dispatcher) Dispatch(action Action, payload any) bool {
	if !action.Known() {
		log.Warn().Str("action", string(action)).Msg("dropping unknown intent")
		return false
	}
	if !d.sender.IsOpen() {
		log.Warn().Str("action", string(action)).Msg("channel not open, dropping intent")
		return false
	}
	if payload == nil {
		payload = struct{}{}
	}

	data, err := json.Marshal(Envelope{Type: action, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("failed to marshal intent")
		return false
	}
	if err := d.sender.Send(data); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("failed to send intent")
		return false
	}

	log.Debug().Str("action", string(action)).Msg("intent sent")
	return true
}

func (d *Dispatcher) Join(name string) bool {
	return d.Dispatch(ActionJoin, JoinPayload{Name: name})
}

func (d *Dispatcher) SubmitAnswer(text string, useShuffle bool) bool {
	return d.Dispatch(ActionSubmitAnswer, SubmitAnswerPayload{Text: text, UseShuffle: useShuffle})
}

// MoveAnswer puts answer itemID into the group identified by targetGroupID.
func (d *Dispatcher) MoveAnswer(itemID, targetGroupID string) bool {
	return d.Dispatch(ActionUpdateGrouping, UpdateGroupingPayload{
		Answers: map[string]GroupAssignment{itemID: {GroupID: targetGroupID}},
	})
}

// Ungroup returns an answer to a group of its own.
func (d *Dispatcher) Ungroup(itemID string) bool {
	return d.MoveAnswer(itemID, itemID)
}

// SetDiscussionTime clamps seconds to the allowed range and sends it.
func (d *Dispatcher) SetDiscussionTime(seconds int) (int, bool) {
	seconds = ClampDiscussion(seconds)
	return seconds, d.Dispatch(ActionUpdateConfig, UpdateConfigPayload{Type: ConfigDiscussionTime, Value: seconds})
}

func (d *Dispatcher) SetToggle(key ConfigKey, on bool) bool {
	return d.Dispatch(ActionUpdateConfig, UpdateConfigPayload{Type: key, Value: on})
}

func (d *Dispatcher) NightAction(kind NightActionKind, target string) bool {
	return d.Dispatch(ActionWerewolfNightAction, NightActionPayload{Action: kind, Target: target})
}

func (d *Dispatcher) AdvanceNight() bool {
	return d.Dispatch(ActionWerewolfAdvanceNight, nil)
}

func (d *Dispatcher) StartWerewolfDiscussion() bool {
	return d.Dispatch(ActionWerewolfStartDiscussion, nil)
}

// ClampDiscussion bounds a discussion length in seconds.
func ClampDiscussion(seconds int) int {
	return max(MinDiscussionSeconds, min(MaxDiscussionSeconds, seconds))
}
