package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPDeleter(t *testing.T) {
	var gotPath, gotMethod, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.URL, "secret", 0)
	ok := d.DeleteByKey(context.Background(), "songs/audio/track1.mp3")
	assert.True(t, ok)
	assert.Equal(t, "/songs/audio/track1.mp3", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestHTTPDeleterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewHTTPDeleter(srv.URL, "", 0)
	assert.False(t, d.DeleteByKey(context.Background(), "songs/audio/gone.mp3"))

	// Unreachable endpoint degrades to false, never an error.
	srv.Close()
	assert.False(t, d.DeleteByKey(context.Background(), "songs/audio/track1.mp3"))
}

type recordingDeleter struct {
	keys []string
}

func (r *recordingDeleter) DeleteByKey(_ context.Context, key string) bool {
	r.keys = append(r.keys, key)
	return true
}

func TestCleanerSkipsDefaults(t *testing.T) {
	rec := &recordingDeleter{}
	c := NewCleaner(rec, "defaults")

	assert.False(t, c.Cleanup(context.Background(), "https://blobs.example.com/defaults/song-image.png"))
	assert.False(t, c.Cleanup(context.Background(), ""))
	assert.False(t, c.Cleanup(context.Background(), "not a url"))
	assert.Empty(t, rec.keys)

	assert.True(t, c.Cleanup(context.Background(), "https://blobs.example.com/songs/images/cover.png"))
	assert.Equal(t, []string{"songs/images/cover.png"}, rec.keys)
}

func TestCleanerIsDefault(t *testing.T) {
	c := NewCleaner(&recordingDeleter{}, "defaults")
	assert.True(t, c.IsDefault("https://blobs.example.com/defaults/cover.png"))
	assert.True(t, c.IsDefault("garbage"))
	assert.False(t, c.IsDefault("https://blobs.example.com/songs/images/cover.png"))
}
