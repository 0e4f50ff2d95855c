package session

import (
	"errors"
	"sync"

	"github.com/mcdev12/partyroom/go/internal/intent"
)

var errNoSender = errors.New("no channel attached")

// senderRef lets the dispatcher exist before the channel it sends on.
type senderRef struct {
	mu     sync.RWMutex
	sender intent.Sender
}

func (r *senderRef) set(s intent.Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sender = s
}

func (r *senderRef) IsOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sender != nil && r.sender.IsOpen()
}

func (r *senderRef) Send(data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.sender == nil {
		return errNoSender
	}
	return r.sender.Send(data)
}
