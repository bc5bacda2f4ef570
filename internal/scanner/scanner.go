// Package scanner implements the library scanner (C2): it walks a music
// directory, reads tags from each audio file, and reconciles the result into
// the catalog per the setCrossRefs algorithm.
//
// Grounded on original_source/pijuv2/scan/directory.py (scan_directory,
// set_cross_refs) for the reconciliation algorithm, and on
// arung-agamani-denpa-radio/internal/playlist/scanner.go for the Go
// filepath.Walk idiom (extension allowlist, per-file error collection that
// doesn't abort the walk).
package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pijudev/piju/internal/apierr"
	"github.com/pijudev/piju/internal/catalog"
)

// audioExtensions is the allowlist of extensions scan_directory recognizes,
// generalized from the original's per-format rglob calls (mp3, m4a) to also
// cover flac/ogg since TagReader (tagreader.go) handles all four.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// TagReader is the out-of-scope capability (§1) this package depends on to
// turn a file on disk into catalog refs. tagreader.go provides the concrete
// implementation; scan_directory itself is agnostic to the tag format.
type TagReader interface {
	// ReadTags returns the track/album/artwork refs for path, or ok=false to
	// skip the file (e.g. it has no usable tags).
	ReadTags(path string) (track catalog.TrackRef, album catalog.AlbumRef, artwork *catalog.ArtworkRef, ok bool, err error)
}

// Store is the subset of *catalog.Store the scanner needs.
type Store interface {
	GetTrackByFilepath(path string) (catalog.Track, error)
	EnsureAlbumExists(ref catalog.AlbumRef) (catalog.Album, error)
	EnsureArtworkExists(ref catalog.ArtworkRef) (catalog.Artwork, error)
	EnsureTrackExists(ref catalog.TrackRef) (catalog.Track, error)
	DistinctTrackGenresForAlbum(albumID int64) ([]int64, error)
	SetAlbumGenres(albumID int64, genreIDs []int64) error
	AddAlbumGenre(albumID, genreID int64) error
	AlbumTrackCount(albumID int64) (int, error)
	DeleteAlbum(id int64) error
}

// Scanner walks a directory and reconciles discovered files into a Store.
type Scanner struct {
	store  Store
	reader TagReader
}

func New(store Store, reader TagReader) *Scanner {
	return &Scanner{store: store, reader: reader}
}

// ScanDirectory recursively enumerates audio files under root and reconciles
// each into the catalog via setCrossRefs. Per-file errors are logged and do
// not abort the walk (§7: "a failed scan leaves the catalog in its prior
// state" applies per-operation's own transaction, not to the scan as a
// whole — a bad tag on one file must not prevent ingesting the rest).
func (s *Scanner) ScanDirectory(root string) error {
	count := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			slog.Warn("scanner: error walking path", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if err := s.scanFile(path); err != nil {
			slog.Warn("scanner: failed to ingest file", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking music directory %q: %w", root, err)
	}
	slog.Info("scanner: directory scan complete", "root", root, "files_ingested", count)
	return nil
}

// scanFile reads one file's tags and reconciles it into the catalog.
func (s *Scanner) scanFile(path string) error {
	normalized := NormalizePath(path)

	track, album, artwork, ok, err := s.reader.ReadTags(path)
	if err != nil {
		return fmt.Errorf("reading tags: %w", err)
	}
	if !ok {
		return nil
	}
	track.Filepath = normalized

	existing, err := s.store.GetTrackByFilepath(normalized)
	isUpdate := false
	switch {
	case err == nil:
		track.ID = existing.ID
		track.AlbumID = existing.AlbumID
		isUpdate = true
	case apierr.KindOf(err) == apierr.KindUnknownID:
		// No existing row at this path — this is an insert.
	default:
		return fmt.Errorf("looking up existing track: %w", err)
	}

	return s.setCrossRefs(track, album, artwork, isUpdate)
}

// setCrossRefs implements §4.6 step-by-step: resolve album and artwork,
// upsert the track, then (for updates) recompute the old and new album's
// genre sets and garbage-collect an old album left empty by the move; or
// (for inserts) just append the track's genre to the new album.
func (s *Scanner) setCrossRefs(track catalog.TrackRef, albumRef catalog.AlbumRef, artworkRef *catalog.ArtworkRef, isUpdate bool) error {
	var previousAlbumID *int64
	if isUpdate {
		// albumID before this ingestion overwrites it, so we can detect a move.
		previousAlbumID = track.AlbumID
	}

	album, err := s.store.EnsureAlbumExists(albumRef)
	if err != nil {
		return fmt.Errorf("ensuring album exists: %w", err)
	}
	track.AlbumID = &album.ID

	if artworkRef != nil {
		artwork, err := s.store.EnsureArtworkExists(*artworkRef)
		if err != nil {
			return fmt.Errorf("ensuring artwork exists: %w", err)
		}
		track.ArtworkID = &artwork.ID
	} else {
		track.ArtworkID = nil
	}

	saved, err := s.store.EnsureTrackExists(track)
	if err != nil {
		return fmt.Errorf("ensuring track exists: %w", err)
	}

	if isUpdate {
		genreIDs, err := s.store.DistinctTrackGenresForAlbum(album.ID)
		if err != nil {
			return fmt.Errorf("recomputing album genres: %w", err)
		}
		if err := s.store.SetAlbumGenres(album.ID, genreIDs); err != nil {
			return fmt.Errorf("saving recomputed album genres: %w", err)
		}
		if previousAlbumID != nil && *previousAlbumID != album.ID {
			if err := s.deleteAlbumIfEmpty(*previousAlbumID); err != nil {
				return err
			}
		}
		return nil
	}

	if saved.GenreID != nil {
		if err := s.store.AddAlbumGenre(album.ID, *saved.GenreID); err != nil {
			return fmt.Errorf("associating album genre: %w", err)
		}
	}
	return nil
}

func (s *Scanner) deleteAlbumIfEmpty(albumID int64) error {
	n, err := s.store.AlbumTrackCount(albumID)
	if err != nil {
		return fmt.Errorf("counting old album tracks: %w", err)
	}
	if n == 0 {
		if err := s.store.DeleteAlbum(albumID); err != nil {
			return fmt.Errorf("deleting emptied album: %w", err)
		}
	}
	return nil
}

// NormalizePath returns path in NFC form, the canonical form invariant 1
// (§3) requires for Filepath comparisons.
func NormalizePath(path string) string {
	return norm.NFC.String(path)
}
