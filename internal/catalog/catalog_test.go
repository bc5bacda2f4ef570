package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// T1: ensureTrackExists is idempotent.
func TestEnsureTrackExistsIdempotent(t *testing.T) {
	s := newTestStore(t)

	ref := TrackRef{Filepath: "/music/a.mp3", Title: "Song", Artist: "Band", Genre: "Rock"}
	first, err := s.EnsureTrackExists(ref)
	require.NoError(t, err)

	before, err := s.GetAllTracks()
	require.NoError(t, err)
	require.Len(t, before, 1)

	second, err := s.EnsureTrackExists(ref)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	after, err := s.GetAllTracks()
	require.NoError(t, err)
	require.Len(t, after, 1)
}

// Scenario 1: re-ingest with changed genre updates the album's genre set.
func TestReIngestWithChangedGenre(t *testing.T) {
	s := newTestStore(t)

	album, err := s.EnsureAlbumExists(AlbumRef{Title: "A", Artist: strPtr("Artist")})
	require.NoError(t, err)

	rock, err := s.EnsureGenreExists("Rock")
	require.NoError(t, err)
	require.NoError(t, s.AddAlbumGenre(album.ID, rock.ID))

	track, err := s.EnsureTrackExists(TrackRef{
		Filepath: "/music/t1.mp3", Title: "T1", Genre: "Rock", AlbumID: &album.ID,
	})
	require.NoError(t, err)

	genres, err := s.AlbumGenres(album.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{rock.ID}, genres)

	// Re-ingest same track as Genre "Punk"; the scanner's setCrossRefs
	// recomputes the album's full genre set on update.
	punk, err := s.EnsureGenreExists("Punk")
	require.NoError(t, err)
	_, err = s.EnsureTrackExists(TrackRef{
		ID: track.ID, Filepath: "/music/t1.mp3", Title: "T1", Genre: "Punk", AlbumID: &album.ID,
	})
	require.NoError(t, err)
	require.NoError(t, s.SetAlbumGenres(album.ID, []int64{punk.ID}))

	genres, err = s.AlbumGenres(album.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{punk.ID}, genres)
}

// T3 / Scenario: deleting the last track referencing an artwork deletes it.
func TestDeleteTrackGarbageCollectsArtwork(t *testing.T) {
	s := newTestStore(t)

	art, err := s.EnsureArtworkExists(ArtworkRef{Blob: []byte("cover bytes"), Width: 300, Height: 300})
	require.NoError(t, err)

	track, err := s.EnsureTrackExists(TrackRef{
		Filepath: "/music/t2.mp3", Title: "T2", ArtworkID: &art.ID,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTrack(track.ID))

	_, err = s.GetArtworkByID(art.ID)
	require.Error(t, err)
}

// Artwork dedup: identical blob bytes resolve to the same artwork row, even
// across the probe cache and a fresh SQL hash lookup.
func TestEnsureArtworkExistsDedupesByBlob(t *testing.T) {
	s := newTestStore(t)

	blob := []byte("identical cover art bytes")
	first, err := s.EnsureArtworkExists(ArtworkRef{Blob: blob, Width: 100, Height: 100})
	require.NoError(t, err)

	second, err := s.EnsureArtworkExists(ArtworkRef{Blob: blob, Width: 100, Height: 100})
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)

	count, err := s.ArtworkTrackCount(first.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// Album release year is only ever raised, never lowered, by ensureAlbumExists.
func TestEnsureAlbumExistsMonotonicReleaseYear(t *testing.T) {
	s := newTestStore(t)

	early := 1994
	a, err := s.EnsureAlbumExists(AlbumRef{Title: "A", Artist: strPtr("Band"), ReleaseYear: &early})
	require.NoError(t, err)
	require.Equal(t, 1994, *a.ReleaseYear)

	earlier := 1990
	a, err = s.EnsureAlbumExists(AlbumRef{Title: "A", Artist: strPtr("Band"), ReleaseYear: &earlier})
	require.NoError(t, err)
	require.Equal(t, 1994, *a.ReleaseYear, "a smaller release year must not overwrite a larger one")

	later := 1996
	a, err = s.EnsureAlbumExists(AlbumRef{Title: "A", Artist: strPtr("Band"), ReleaseYear: &later})
	require.NoError(t, err)
	require.Equal(t, 1996, *a.ReleaseYear)
}

// Scenario 5: the missing-tracks query behind the tidy sweep reports only
// the track whose file is gone.
func TestMissingTracksSweepKeepsExisting(t *testing.T) {
	s := newTestStore(t)

	existingPath := filepath.Join(t.TempDir(), "exists.mp3")
	require.NoError(t, os.WriteFile(existingPath, []byte{}, 0o644))

	existing, err := s.EnsureTrackExists(TrackRef{Filepath: existingPath, Title: "Exists"})
	require.NoError(t, err)
	missing, err := s.EnsureTrackExists(TrackRef{Filepath: "/nowhere/missing.mp3", Title: "Missing"})
	require.NoError(t, err)

	ids, err := s.MissingTracks(func(path string) bool {
		_, statErr := os.Stat(path)
		return statErr == nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{missing.ID}, ids)
	require.NotEqual(t, existing.ID, missing.ID)
}

func strPtr(s string) *string { return &s }
