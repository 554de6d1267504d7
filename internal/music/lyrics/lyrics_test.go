package lyrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "Artist", r.URL.Query().Get("artist_name"))
		assert.Equal(t, "Song", r.URL.Query().Get("track_name"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"trackName":"Song","artistName":"Artist","plainLyrics":"line one\nline two"}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL).Get(context.Background(), "Artist", "Song")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestGetFallsBackToSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get":
			w.WriteHeader(http.StatusNotFound)
		case "/search":
			assert.Equal(t, "Artist Song", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`[{"instrumental":true,"plainLyrics":""},{"plainLyrics":"Song Lyrics\nverse"}]`))
		}
	}))
	defer srv.Close()

	text, err := New(srv.URL).Get(context.Background(), "Artist", "Song")
	require.NoError(t, err)
	assert.Equal(t, "verse", text)
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/get" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), "Nobody", "Nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "a\nb", clean("a\nb", "Song"))
	assert.Equal(t, "b", clean("Song Lyrics\nb", "song"))
	assert.Equal(t, "single", clean("single", "single"))
}
