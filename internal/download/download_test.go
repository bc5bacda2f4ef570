package download

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAllocatesMonotonicallyDecreasingStableIDs(t *testing.T) {
	r := NewRegistry()

	id1 := r.IDForFilepath("/music/a.mp3")
	id2 := r.IDForFilepath("/music/b.mp3")
	id1Again := r.IDForFilepath("/music/a.mp3")

	assert.Equal(t, int64(-1), id1)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, id1, id1Again, "same filepath must yield the same id")
}

type fakeFetcher struct {
	localFile string
	ok        bool
}

func (f *fakeFetcher) Fetch(url, downloadDir string) (string, bool) {
	return f.localFile, f.ok
}

func TestFetchAudioReturnsEmptyOnFailureWithoutError(t *testing.T) {
	svc := New(&fakeFetcher{ok: false}, NewRegistry())

	downloads, err := svc.FetchAudio("https://example.com/video", t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, downloads)
}

func TestFetchAudioRegistersFakeTrackAndReadsSidecar(t *testing.T) {
	dir := t.TempDir()
	localFile := filepath.Join(dir, "abc123.mp3")
	require.NoError(t, os.WriteFile(localFile, []byte("fake audio"), 0o644))

	sidecar := sidecarInfo{Artist: "Test Artist", Title: "Test Title", Thumbnail: "https://img/cover.jpg"}
	data, err := json.Marshal(sidecar)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sidecarPathFor(localFile), data, 0o644))

	registry := NewRegistry()
	svc := New(&fakeFetcher{localFile: localFile, ok: true}, registry)

	downloads, err := svc.FetchAudio("https://example.com/video", dir)
	require.NoError(t, err)
	require.Len(t, downloads, 1)

	got := downloads[0]
	assert.Equal(t, localFile, got.Filepath)
	assert.Equal(t, "Test Artist", got.Artist)
	assert.Equal(t, "Test Title", got.Title)
	assert.Equal(t, int64(-1), got.FakeTrackID)

	recorded, ok := registry.Info(got.FakeTrackID)
	require.True(t, ok)
	assert.Equal(t, got, recorded)
}
