// Package tidy implements the four idempotent catalog sweeps (C3):
// deleting tracks whose backing file is gone, albums left with no tracks,
// artwork left with no referencing track, and genres left with no albums
// or playlists.
//
// Grounded on original_source/pijuv2/database/tidy.py (delete_missing_tracks,
// delete_albums_without_tracks) for the two sweeps it names, generalized to
// the two further sweeps §4.3 adds (orphan artwork, empty genres) using the
// catalog package's own helper queries.
package tidy

import (
	"fmt"
	"log/slog"
	"os"
)

// Store is the subset of *catalog.Store the tidy sweeps need.
type Store interface {
	MissingTracks(exists func(path string) bool) ([]int64, error)
	DeleteTrack(id int64) error
	AlbumsWithoutTracks() ([]int64, error)
	DeleteAlbum(id int64) error
	OrphanArtwork() ([]int64, error)
	DeleteArtwork(id int64) error
	EmptyGenres() ([]int64, error)
	DeleteGenre(id int64) error
}

// Tidy runs the four sweeps against a Store.
type Tidy struct {
	store Store
}

func New(store Store) *Tidy {
	return &Tidy{store: store}
}

// fileExists is the existence check DeleteMissingTracks passes to
// Store.MissingTracks.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DeleteMissingTracks removes every track whose Filepath no longer exists
// on disk, and (via Store.DeleteTrack's own cascade) any artwork that track
// held the last reference to.
func (t *Tidy) DeleteMissingTracks() (int, error) {
	ids, err := t.store.MissingTracks(fileExists)
	if err != nil {
		return 0, fmt.Errorf("finding missing tracks: %w", err)
	}
	for _, id := range ids {
		if err := t.store.DeleteTrack(id); err != nil {
			return 0, fmt.Errorf("deleting missing track %d: %w", id, err)
		}
	}
	slog.Info("tidy: deleted missing tracks", "count", len(ids))
	return len(ids), nil
}

// DeleteAlbumsWithoutTracks removes every album with zero referencing
// tracks. Run after DeleteMissingTracks so albums emptied by that sweep are
// caught in the same pass.
func (t *Tidy) DeleteAlbumsWithoutTracks() (int, error) {
	ids, err := t.store.AlbumsWithoutTracks()
	if err != nil {
		return 0, fmt.Errorf("finding albums without tracks: %w", err)
	}
	for _, id := range ids {
		if err := t.store.DeleteAlbum(id); err != nil {
			return 0, fmt.Errorf("deleting empty album %d: %w", id, err)
		}
	}
	slog.Info("tidy: deleted albums without tracks", "count", len(ids))
	return len(ids), nil
}

// DeleteArtworkWithoutTracks removes every artwork row with no referencing
// track. Normally redundant with DeleteTrack's own garbage collection, but
// idempotent and cheap to run as a standalone sweep (e.g. after a direct
// database edit).
func (t *Tidy) DeleteArtworkWithoutTracks() (int, error) {
	ids, err := t.store.OrphanArtwork()
	if err != nil {
		return 0, fmt.Errorf("finding orphan artwork: %w", err)
	}
	for _, id := range ids {
		if err := t.store.DeleteArtwork(id); err != nil {
			return 0, fmt.Errorf("deleting orphan artwork %d: %w", id, err)
		}
	}
	slog.Info("tidy: deleted orphan artwork", "count", len(ids))
	return len(ids), nil
}

// DeleteEmptyGenres removes every genre with no albums and no playlists
// referencing it.
func (t *Tidy) DeleteEmptyGenres() (int, error) {
	ids, err := t.store.EmptyGenres()
	if err != nil {
		return 0, fmt.Errorf("finding empty genres: %w", err)
	}
	for _, id := range ids {
		if err := t.store.DeleteGenre(id); err != nil {
			return 0, fmt.Errorf("deleting empty genre %d: %w", id, err)
		}
	}
	slog.Info("tidy: deleted empty genres", "count", len(ids))
	return len(ids), nil
}

// RunAll runs every sweep in dependency order: missing tracks first (which
// can empty albums/artwork), then the three downstream sweeps.
func (t *Tidy) RunAll() error {
	if _, err := t.DeleteMissingTracks(); err != nil {
		return err
	}
	if _, err := t.DeleteAlbumsWithoutTracks(); err != nil {
		return err
	}
	if _, err := t.DeleteArtworkWithoutTracks(); err != nil {
		return err
	}
	if _, err := t.DeleteEmptyGenres(); err != nil {
		return err
	}
	return nil
}
