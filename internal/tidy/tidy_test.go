package tidy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	missing       []int64
	albums        []int64
	artwork       []int64
	genres        []int64
	deletedTracks []int64
	deletedAlbums []int64
	deletedArt    []int64
	deletedGenres []int64
}

func (f *fakeStore) MissingTracks(exists func(path string) bool) ([]int64, error) { return f.missing, nil }
func (f *fakeStore) DeleteTrack(id int64) error                                   { f.deletedTracks = append(f.deletedTracks, id); return nil }
func (f *fakeStore) AlbumsWithoutTracks() ([]int64, error)                        { return f.albums, nil }
func (f *fakeStore) DeleteAlbum(id int64) error                                   { f.deletedAlbums = append(f.deletedAlbums, id); return nil }
func (f *fakeStore) OrphanArtwork() ([]int64, error)                              { return f.artwork, nil }
func (f *fakeStore) DeleteArtwork(id int64) error                                 { f.deletedArt = append(f.deletedArt, id); return nil }
func (f *fakeStore) EmptyGenres() ([]int64, error)                                { return f.genres, nil }
func (f *fakeStore) DeleteGenre(id int64) error                                   { f.deletedGenres = append(f.deletedGenres, id); return nil }

func TestRunAllDeletesEverythingTheStoreReportsAsOrphaned(t *testing.T) {
	store := &fakeStore{
		missing: []int64{1, 2},
		albums:  []int64{10},
		artwork: []int64{20, 21},
		genres:  []int64{30},
	}
	tidy := New(store)

	require.NoError(t, tidy.RunAll())

	assert.ElementsMatch(t, []int64{1, 2}, store.deletedTracks)
	assert.ElementsMatch(t, []int64{10}, store.deletedAlbums)
	assert.ElementsMatch(t, []int64{20, 21}, store.deletedArt)
	assert.ElementsMatch(t, []int64{30}, store.deletedGenres)
}

func TestRunAllIsIdempotentOnAnEmptyCatalog(t *testing.T) {
	store := &fakeStore{}
	tidy := New(store)

	require.NoError(t, tidy.RunAll())

	assert.Empty(t, store.deletedTracks)
	assert.Empty(t, store.deletedAlbums)
	assert.Empty(t, store.deletedArt)
	assert.Empty(t, store.deletedGenres)
}
