package intent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mcdev12/partyroom/go/internal/models"
)

type fakeSender struct {
	open bool
	err  error
	sent [][]byte
}

func (f *fakeSender) IsOpen() bool { return f.open }

func (f *fakeSender) Send(data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestDispatch_Envelope(t *testing.T) {
	tests := []struct {
		name    string
		send    func(d *Dispatcher) bool
		wantRaw string
	}{
		{
			name:    "join",
			send:    func(d *Dispatcher) bool { return d.Join("Aki") },
			wantRaw: `{"type":"JOIN","data":{"name":"Aki"}}`,
		},
		{
			name:    "submit answer",
			send:    func(d *Dispatcher) bool { return d.SubmitAnswer("apple", true) },
			wantRaw: `{"type":"SUBMIT_ANSWER","data":{"text":"apple","use_shuffle":true}}`,
		},
		{
			name:    "move answer",
			send:    func(d *Dispatcher) bool { return d.MoveAnswer("a1", "a7") },
			wantRaw: `{"type":"UPDATE_GROUPING","data":{"answers":{"a1":{"group_id":"a7"}}}}`,
		},
		{
			name:    "ungroup",
			send:    func(d *Dispatcher) bool { return d.Ungroup("a1") },
			wantRaw: `{"type":"UPDATE_GROUPING","data":{"answers":{"a1":{"group_id":"a1"}}}}`,
		},
		{
			name:    "empty payload",
			send:    func(d *Dispatcher) bool { return d.Dispatch(ActionNextRound, nil) },
			wantRaw: `{"type":"NEXT_ROUND","data":{}}`,
		},
		{
			name: "start game",
			send: func(d *Dispatcher) bool {
				return d.Dispatch(ActionStartGame, StartGamePayload{Mode: models.ModeWerewolf})
			},
			wantRaw: `{"type":"START_GAME","data":{"mode":"ONE_NIGHT_WEREWOLF"}}`,
		},
		{
			name:    "night action",
			send:    func(d *Dispatcher) bool { return d.NightAction(NightSeerLook, GraveyardTarget(1)) },
			wantRaw: `{"type":"WEREWOLF_NIGHT_ACTION","data":{"action":"seer_look","target":"graveyard_1"}}`,
		},
		{
			name:    "toggle",
			send:    func(d *Dispatcher) bool { return d.SetToggle(ConfigWerewolfMadman, true) },
			wantRaw: `{"type":"UPDATE_CONFIG","data":{"type":"werewolf_madman","value":true}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSender{open: true}
			require.True(t, tt.send(NewDispatcher(s)))
			require.Len(t, s.sent, 1)
			assert.JSONEq(t, tt.wantRaw, string(s.sent[0]))
		})
	}
}

func TestDispatch_DropsWhenClosed(t *testing.T) {
	s := &fakeSender{open: false}
	d := NewDispatcher(s)

	assert.False(t, d.AdvanceNight())
	assert.Empty(t, s.sent)

	// nothing is queued for later
	s.open = true
	assert.True(t, d.StartWerewolfDiscussion())
	require.Len(t, s.sent, 1)
	assert.Equal(t, "WEREWOLF_START_DISCUSSION", decode(t, s.sent[0])["type"])
}

func TestDispatch_SendErrorAndUnknownAction(t *testing.T) {
	s := &fakeSender{open: true, err: errors.New("broken pipe")}
	d := NewDispatcher(s)
	assert.False(t, d.Join("Aki"))

	s.err = nil
	assert.False(t, d.Dispatch(Action("LAUNCH_ROCKETS"), nil))
	assert.Empty(t, s.sent)
}

func TestSetDiscussionTime_Clamps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := &fakeSender{open: true}
		in := rapid.IntRange(-1000, 5000).Draw(t, "seconds")

		got, ok := NewDispatcher(s).SetDiscussionTime(in)
		if !ok {
			t.Fatal("not sent")
		}
		if got < MinDiscussionSeconds || got > MaxDiscussionSeconds {
			t.Fatalf("%d out of range", got)
		}
		if in >= MinDiscussionSeconds && in <= MaxDiscussionSeconds && got != in {
			t.Fatalf("in-range %d changed to %d", in, got)
		}

		var env struct {
			Data UpdateConfigPayload `json:"data"`
		}
		if err := json.Unmarshal(s.sent[0], &env); err != nil {
			t.Fatal(err)
		}
		if env.Data.Value != float64(got) {
			t.Fatalf("sent %v, want %d", env.Data.Value, got)
		}
	})
}
