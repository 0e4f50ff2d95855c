package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoundsClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/static/sounds/join.ogg":
			_, _ = w.Write([]byte("OggS"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewSoundsClient(srv.URL)

	data, err := c.Fetch(context.Background(), "join.ogg")
	require.NoError(t, err)
	assert.Equal(t, []byte("OggS"), data)

	_, err = c.Fetch(context.Background(), "missing.ogg")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestSoundsClient_FetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSoundsClient(srv.URL).Fetch(ctx, "join.ogg")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBaseClient_SetsHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Client-Id")
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL)
	c.SetHeader("X-Client-Id", "HOST-1")
	_, err := c.Get(context.Background(), "/health")
	require.NoError(t, err)
	assert.Equal(t, "HOST-1", got)
}
