package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/partyroom/go/internal/models"
)

// MessageType is the type of an inbound server message.
type MessageType string

const (
	MessageStateUpdate MessageType = "STATE_UPDATE"
	MessagePeekResult  MessageType = "WEREWOLF_PEEK_RESULT"
)

// ErrUnknownMessage is returned for message types this client does not handle.
var ErrUnknownMessage = errors.New("unknown message type")

// Envelope is the wire shape of every server message.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEnvelope decodes the outer message.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope without type")
	}
	return &env, nil
}

// ParsePayload parses the envelope data into the payload for its type:
// *models.Snapshot or models.PeekResult.
func ParsePayload(env *Envelope) (any, error) {
	switch env.Type {
	case MessageStateUpdate:
		var snapshot models.Snapshot
		if err := json.Unmarshal(env.Data, &snapshot); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return &snapshot, nil

	case MessagePeekResult:
		var payload models.PeekResult
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, env.Type)
	}
}
