package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/partyroom/go/internal/models"
)

const stateUpdate = `{"type":"STATE_UPDATE","data":{"room_id":"r1","phase":"LOBBY","mode":"SYMPATHY","players":{"P-1":{"player_id":"P-1","name":"Aki"}},"answers":{}}}`

func TestChannelURL(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		want    string
		wantErr bool
	}{
		{"http maps to ws", "http://192.168.0.5:8000", "ws://192.168.0.5:8000/ws/r1/P-abc", false},
		{"https maps to wss", "https://party.example.com/", "wss://party.example.com/ws/r1/P-abc", false},
		{"ws kept", "ws://localhost:8000/base", "ws://localhost:8000/base/ws/r1/P-abc", false},
		{"bad scheme", "ftp://localhost", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ChannelURL(tt.server, "r1", "P-abc")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ChannelURL("http://localhost", "", "P-abc")
	assert.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    any
		wantErr error
		anyErr  bool
	}{
		{
			name: "peek result",
			raw:  `{"type":"WEREWOLF_PEEK_RESULT","data":{"target":"P-2","result":"SEER"}}`,
			want: models.PeekResult{Target: "P-2", Result: "SEER"},
		},
		{name: "not json", raw: `{"type":`, anyErr: true},
		{name: "missing type", raw: `{"data":{}}`, anyErr: true},
		{name: "unknown type", raw: `{"type":"CHAT","data":{}}`, wantErr: ErrUnknownMessage},
		{name: "snapshot without phase", raw: `{"type":"STATE_UPDATE","data":{"mode":"SYMPATHY"}}`, anyErr: true},
		{name: "null snapshot", raw: `{"type":"STATE_UPDATE","data":null}`, anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			if err == nil {
				var payload any
				payload, err = ParsePayload(env)
				if err == nil {
					assert.Equal(t, tt.want, payload)
				}
			}
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	env, err := ParseEnvelope([]byte(stateUpdate))
	require.NoError(t, err)
	payload, err := ParsePayload(env)
	require.NoError(t, err)
	s, ok := payload.(*models.Snapshot)
	require.True(t, ok)
	assert.Equal(t, models.PhaseLobby, s.Phase)
	assert.Equal(t, "Aki", s.Players["P-1"].Name)
}

// inline runs posted functions immediately, serialized.
type inline struct{ mu sync.Mutex }

func (p *inline) Post(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

type recorder struct {
	mu        sync.Mutex
	snapshots []*models.Snapshot
	peeks     []models.PeekResult
	status    []bool
}

func (r *recorder) HandleSnapshot(s *models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) HandlePeekResult(p models.PeekResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peeks = append(r.peeks, p)
}

func (r *recorder) HandleConnection(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, open)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots), len(r.peeks)
}

type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	paths    []string
	received chan string
}

// newFakeServer accepts a socket, pushes script to it, and then either hangs
// up or keeps reading client messages.
func newFakeServer(t *testing.T, script []string, hangUp bool) *fakeServer {
	fs := &fakeServer{received: make(chan string, 16)}
	upgrader := websocket.Upgrader{}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/") {
			http.NotFound(w, r)
			return
		}
		fs.mu.Lock()
		fs.paths = append(fs.paths, r.URL.Path)
		fs.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, msg := range script {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		if hangUp {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fs.received <- string(data)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) connections() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.paths)
}

func newManager(serverURL string, h Handler) *ConnectionManager {
	cfg := DefaultConnectionConfig()
	cfg.ServerURL = serverURL
	cfg.RoomID = "r1"
	cfg.ClientID = "HOST-abc"
	cfg.ReconnectDelay = 10 * time.Millisecond
	return NewConnectionManager(cfg, clockwork.NewRealClock(), &inline{}, h)
}

func TestConnectionManager_RoutesMessagesAndReconnects(t *testing.T) {
	srv := newFakeServer(t, []string{
		stateUpdate,
		`not json at all`,
		`{"type":"WEREWOLF_PEEK_RESULT","data":{"target":"P-2","result":"THIEF"}}`,
		`{"type":"STATE_UPDATE","data":{"phase":""}}`,
	}, true)

	rec := &recorder{}
	cm := newManager(srv.URL, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, cm.Run(ctx))
	}()

	// the server hangs up after every script, so the client keeps redialing
	require.Eventually(t, func() bool { return srv.connections() >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	snapshots, peeks := rec.counts()
	assert.GreaterOrEqual(t, snapshots, 2)
	assert.GreaterOrEqual(t, peeks, 2)

	rec.mu.Lock()
	for _, s := range rec.snapshots {
		assert.Equal(t, models.PhaseLobby, s.Phase, "malformed snapshots are dropped")
	}
	rec.mu.Unlock()

	srv.mu.Lock()
	assert.Equal(t, "/ws/r1/HOST-abc", srv.paths[0])
	srv.mu.Unlock()

	rec.mu.Lock()
	require.NotEmpty(t, rec.status)
	assert.True(t, rec.status[0])
	rec.mu.Unlock()
}

func TestConnectionManager_SendWhileOpen(t *testing.T) {
	srv := newFakeServer(t, []string{stateUpdate}, false)
	rec := &recorder{}
	cm := newManager(srv.URL, rec)

	assert.ErrorIs(t, cm.Send([]byte(`{}`)), ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = cm.Run(ctx) }()

	require.Eventually(t, cm.IsOpen, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, cm.Send([]byte(`{"type":"NEXT_ROUND","data":{}}`)))

	select {
	case got := <-srv.received:
		assert.JSONEq(t, `{"type":"NEXT_ROUND","data":{}}`, got)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received the intent")
	}

	cancel()
	require.Eventually(t, func() bool { return !cm.IsOpen() }, 5*time.Second, 5*time.Millisecond)
	assert.True(t, errors.Is(cm.Send([]byte(`{}`)), ErrNotConnected))
}

func TestConnectionManager_KeepsRetryingUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cm := newManager(url, &recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cm.Run(ctx)
	}()

	require.Eventually(t, func() bool { return cm.Dials() >= 5 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestConnectionManager_RedialsSilentPeer(t *testing.T) {
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// never read, so pings go unanswered
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := DefaultConnectionConfig()
	cfg.ServerURL = srv.URL
	cfg.RoomID = "r1"
	cfg.ClientID = "P-abc"
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.PingInterval = 50 * time.Millisecond
	cfg.ReadTimeout = 200 * time.Millisecond
	rec := &recorder{}
	cm := NewConnectionManager(cfg, clockwork.NewRealClock(), &inline{}, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cm.Run(ctx)
	}()

	require.Eventually(t, func() bool { return cm.Dials() >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Contains(t, rec.status, false, "the silent channel was reported closed")
}

func TestConnectionConfig_ReadTimeoutExceedsPing(t *testing.T) {
	cfg := ConnectionConfig{PingInterval: time.Second, ReadTimeout: time.Second}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)

	cfg = DefaultConnectionConfig().withDefaults()
	assert.Equal(t, 60*time.Second, cfg.ReadTimeout)
}

func TestConnectionManager_RunRejectsBadConfig(t *testing.T) {
	cm := newManager("gopher://nowhere", &recorder{})
	assert.Error(t, cm.Run(context.Background()))
}
