package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pijudev/piju/internal/apierr"
)

// EnsureTrackExists resolves ref to a Track row per §4.5:
//   - ref.Genre (a name) is resolved via EnsureGenreExists when non-empty.
//   - if ref.ID is unset, match on the wide identity tuple; on miss, insert.
//   - on a hit, or when ref.ID is set (an update), every mutable attribute
//     that differs from the stored row is overwritten.
func (s *Store) EnsureTrackExists(ref TrackRef) (Track, error) {
	var genreID *int64
	if ref.Genre != "" {
		g, err := s.EnsureGenreExists(ref.Genre)
		if err != nil {
			return Track{}, fmt.Errorf("resolving track genre: %w", err)
		}
		genreID = &g.ID
	}

	if ref.ID != 0 {
		return s.updateTrack(ref.ID, ref, genreID)
	}

	existingID, err := s.findTrackByIdentity(ref)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Track{}, fmt.Errorf("looking up track identity: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertTrack(ref, genreID)
	}
	return s.updateTrack(existingID, ref, genreID)
}

func (s *Store) findTrackByIdentity(ref TrackRef) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM tracks
		WHERE album_id IS ? AND title IS ? AND duration_ms = ? AND artist IS ?
		  AND volume_number IS ? AND track_number IS ? AND release_date IS ?
		  AND musicbrainz_track_id IS ? AND musicbrainz_artist_id IS ?`,
		ref.AlbumID, ref.Title, ref.DurationMs, ref.Artist,
		ref.VolumeNumber, ref.TrackNumber, ref.ReleaseDate,
		nullIfEmpty(ref.MusicBrainzTrackID), nullIfEmpty(ref.MusicBrainzArtistID),
	).Scan(&id)
	return id, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) insertTrack(ref TrackRef, genreID *int64) (Track, error) {
	res, err := s.db.Exec(`
		INSERT INTO tracks (filepath, title, duration_ms, composer, artist, genre_id,
			volume_number, track_count, track_number, release_date,
			musicbrainz_track_id, musicbrainz_artist_id, album_id, artwork_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.Filepath, ref.Title, ref.DurationMs, ref.Composer, ref.Artist, genreID,
		ref.VolumeNumber, ref.TrackCount, ref.TrackNumber, ref.ReleaseDate,
		nullIfEmpty(ref.MusicBrainzTrackID), nullIfEmpty(ref.MusicBrainzArtistID), ref.AlbumID, ref.ArtworkID,
	)
	if err != nil {
		return Track{}, fmt.Errorf("inserting track %q: %w", ref.Filepath, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Track{}, fmt.Errorf("reading new track id: %w", err)
	}
	return s.GetTrackByID(id)
}

func (s *Store) updateTrack(id int64, ref TrackRef, genreID *int64) (Track, error) {
	if _, err := s.db.Exec(`
		UPDATE tracks SET filepath = ?, title = ?, duration_ms = ?, composer = ?, artist = ?,
			genre_id = ?, volume_number = ?, track_count = ?, track_number = ?, release_date = ?,
			musicbrainz_track_id = ?, musicbrainz_artist_id = ?, album_id = ?, artwork_id = ?
		WHERE id = ?`,
		ref.Filepath, ref.Title, ref.DurationMs, ref.Composer, ref.Artist,
		genreID, ref.VolumeNumber, ref.TrackCount, ref.TrackNumber, ref.ReleaseDate,
		nullIfEmpty(ref.MusicBrainzTrackID), nullIfEmpty(ref.MusicBrainzArtistID), ref.AlbumID, ref.ArtworkID,
		id,
	); err != nil {
		return Track{}, fmt.Errorf("updating track %d: %w", id, err)
	}
	return s.GetTrackByID(id)
}

func scanTrack(row interface {
	Scan(dest ...any) error
}) (Track, error) {
	var t Track
	var title, composer, artist, releaseDate, mbTrack, mbArtist sql.NullString
	if err := row.Scan(&t.ID, &t.Filepath, &title, &t.DurationMs, &composer, &artist, &t.GenreID,
		&t.VolumeNumber, &t.TrackCount, &t.TrackNumber, &releaseDate, &mbTrack, &mbArtist,
		&t.AlbumID, &t.ArtworkID); err != nil {
		return Track{}, err
	}
	t.Title, t.Composer, t.Artist, t.ReleaseDate = title.String, composer.String, artist.String, releaseDate.String
	t.MusicBrainzTrackID, t.MusicBrainzArtistID = mbTrack.String, mbArtist.String
	return t, nil
}

const trackColumns = `id, filepath, title, duration_ms, composer, artist, genre_id,
	volume_number, track_count, track_number, release_date,
	musicbrainz_track_id, musicbrainz_artist_id, album_id, artwork_id`

// GetTrackByID returns the Track with the given id, or an UnknownId error.
func (s *Store) GetTrackByID(id int64) (Track, error) {
	row := s.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, notFound("track", id)
	}
	if err != nil {
		return Track{}, fmt.Errorf("reading track %d: %w", id, err)
	}
	return t, nil
}

// GetTrackByFilepath performs a case-sensitive, NFC-normalized match. The
// caller is responsible for normalizing path to NFC first (internal/scanner
// does this at ingestion time).
func (s *Store) GetTrackByFilepath(path string) (Track, error) {
	row := s.db.QueryRow(`SELECT `+trackColumns+` FROM tracks WHERE filepath = ?`, path)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, apierr.Newf(apierr.KindUnknownID, "track with filepath %q not found", path)
	}
	if err != nil {
		return Track{}, fmt.Errorf("reading track by filepath: %w", err)
	}
	return t, nil
}

// DeleteTrack removes a Track and, if it held the last reference to its
// Artwork, deletes that Artwork too. This is the Go-imperative equivalent
// of the SQLAlchemy before_delete event listener in
// original_source/pijuv2/database/schema.py — invariant 4 (§3).
func (s *Store) DeleteTrack(id int64) error {
	t, err := s.GetTrackByID(id)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting track %d: %w", id, err)
	}

	if t.ArtworkID == nil {
		return nil
	}
	n, err := s.ArtworkTrackCount(*t.ArtworkID)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := s.DeleteArtwork(*t.ArtworkID); err != nil {
			return err
		}
	}
	return nil
}

// GetAllTracksPaged yields up to limit tracks with id > startID, ordered by
// id. An empty slice with ok=false signals "end of catalog" — determined by
// probing max(id) first so the implementation tolerates gaps in id
// allocation left behind by deletions.
func (s *Store) GetAllTracksPaged(startID int64, limit int) (tracks []Track, ok bool, err error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM tracks`).Scan(&maxID); err != nil {
		return nil, false, fmt.Errorf("probing max track id: %w", err)
	}
	if !maxID.Valid || startID >= maxID.Int64 {
		return nil, false, nil
	}

	rows, err := s.db.Query(`SELECT `+trackColumns+` FROM tracks WHERE id > ? ORDER BY id LIMIT ?`, startID, limit)
	if err != nil {
		return nil, false, fmt.Errorf("paging tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, false, err
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return tracks, true, nil
}

// GetAllTracks returns every track ordered by id, for the GET /tracks/
// listing and for debugging.
func (s *Store) GetAllTracks() ([]Track, error) {
	rows, err := s.db.Query(`SELECT ` + trackColumns + ` FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading all tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// GetNumberOfTracks returns the total track count.
func (s *Store) GetNumberOfTracks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tracks: %w", err)
	}
	return n, nil
}

// GetNumberOfAlbums returns the total album count.
func (s *Store) GetNumberOfAlbums() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM albums`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting albums: %w", err)
	}
	return n, nil
}

// GetNumberOfArtworks returns the total artwork count.
func (s *Store) GetNumberOfArtworks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM artwork`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artworks: %w", err)
	}
	return n, nil
}

// TracksByAlbumSorted returns every track of albumID sorted by
// (VolumeNumber, TrackNumber), optionally restricted to diskNr.
func (s *Store) TracksByAlbumSorted(albumID int64, diskNr *int) ([]Track, error) {
	var rows *sql.Rows
	var err error
	if diskNr != nil {
		rows, err = s.db.Query(`SELECT `+trackColumns+` FROM tracks WHERE album_id = ? AND volume_number IS ?
			ORDER BY COALESCE(volume_number, 0), COALESCE(track_number, 0)`, albumID, *diskNr)
	} else {
		rows, err = s.db.Query(`SELECT `+trackColumns+` FROM tracks WHERE album_id = ?
			ORDER BY COALESCE(volume_number, 0), COALESCE(track_number, 0)`, albumID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading album tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// MissingTracks returns the ids of every track whose Filepath fails the
// exists check, for the tidy "delete missing tracks" sweep.
func (s *Store) MissingTracks(exists func(path string) bool) ([]int64, error) {
	var startID int64
	var missing []int64
	for {
		tracks, ok, err := s.GetAllTracksPaged(startID, 500)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, t := range tracks {
			if !exists(t.Filepath) {
				missing = append(missing, t.ID)
			}
			startID = t.ID
		}
		if len(tracks) == 0 {
			break
		}
	}
	return missing, nil
}
