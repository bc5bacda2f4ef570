package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pijudev/piju/internal/catalog"
)

// fakeTagReader returns canned refs keyed by filepath, so a test can drive
// two successive scans of the same file with different tags by mutating the
// map between ScanDirectory calls.
type fakeTagReader struct {
	byPath map[string]fakeTags
}

type fakeTags struct {
	track   catalog.TrackRef
	album   catalog.AlbumRef
	artwork *catalog.ArtworkRef
}

func (f *fakeTagReader) ReadTags(path string) (catalog.TrackRef, catalog.AlbumRef, *catalog.ArtworkRef, bool, error) {
	tags, ok := f.byPath[path]
	if !ok {
		return catalog.TrackRef{}, catalog.AlbumRef{}, nil, false, nil
	}
	return tags.track, tags.album, tags.artwork, true, nil
}

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := catalog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
	return path
}

func strPtr(s string) *string { return &s }

// Scenario 1 (§8): re-scanning a file whose tagged genre changed must update
// the album's genre set, driven through ScanDirectory/setCrossRefs rather
// than a direct store call.
func TestScanDirectoryReconcilesChangedGenre(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	path := writeStub(t, dir, "track.mp3")
	normalized := NormalizePath(path)

	reader := &fakeTagReader{byPath: map[string]fakeTags{
		path: {
			track: catalog.TrackRef{Title: "Song", Artist: "Band", Genre: "Rock"},
			album: catalog.AlbumRef{Title: "Album", Artist: strPtr("Band")},
		},
	}}
	s := New(store, reader)
	require.NoError(t, s.ScanDirectory(dir))

	track, err := store.GetTrackByFilepath(normalized)
	require.NoError(t, err)
	require.NotNil(t, track.AlbumID)

	genres, err := store.AlbumGenres(*track.AlbumID)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	rockID := genres[0]

	// Re-scan the same path with a changed genre tag.
	reader.byPath[path] = fakeTags{
		track: catalog.TrackRef{Title: "Song", Artist: "Band", Genre: "Punk"},
		album: catalog.AlbumRef{Title: "Album", Artist: strPtr("Band")},
	}
	require.NoError(t, s.ScanDirectory(dir))

	genres, err = store.AlbumGenres(*track.AlbumID)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	require.NotEqual(t, rockID, genres[0], "album genre set must be recomputed from the track's new genre")
}

// Scenario 2 (§8): an album first scanned as a various-artists compilation,
// then re-scanned (same filepath) as a single-artist release, must resolve
// to a distinct non-compilation album identity and garbage-collect the
// now-empty compilation row.
func TestScanDirectoryCompilationFlipsToSingleArtist(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	path := writeStub(t, dir, "track.mp3")
	normalized := NormalizePath(path)

	reader := &fakeTagReader{byPath: map[string]fakeTags{
		path: {
			track: catalog.TrackRef{Title: "Song", Artist: "Various Guest", Genre: "Rock"},
			album: catalog.AlbumRef{Title: "Compilation", IsCompilation: true},
		},
	}}
	s := New(store, reader)
	require.NoError(t, s.ScanDirectory(dir))

	track, err := store.GetTrackByFilepath(normalized)
	require.NoError(t, err)
	oldAlbumID := *track.AlbumID

	oldAlbum, err := store.GetAlbumByID(oldAlbumID)
	require.NoError(t, err)
	require.True(t, oldAlbum.IsCompilation)

	// Re-scan the same path, now tagged as a single-artist release.
	reader.byPath[path] = fakeTags{
		track: catalog.TrackRef{Title: "Song", Artist: "Solo Artist", Genre: "Rock"},
		album: catalog.AlbumRef{Title: "Compilation", Artist: strPtr("Solo Artist"), IsCompilation: false},
	}
	require.NoError(t, s.ScanDirectory(dir))

	track, err = store.GetTrackByFilepath(normalized)
	require.NoError(t, err)
	require.NotEqual(t, oldAlbumID, *track.AlbumID, "a compilation/single-artist flip must resolve to a distinct album identity")

	newAlbum, err := store.GetAlbumByID(*track.AlbumID)
	require.NoError(t, err)
	require.False(t, newAlbum.IsCompilation)
	require.NotNil(t, newAlbum.Artist)
	require.Equal(t, "Solo Artist", *newAlbum.Artist)

	_, err = store.GetAlbumByID(oldAlbumID)
	require.Error(t, err, "the emptied compilation album must be garbage-collected")
}
