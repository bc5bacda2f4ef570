package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// EnsureAlbumExists resolves ref to an Album row, inserting one if no match
// exists. Identity is (Title, Artist) with Artist=nil when IsCompilation.
// On a match, VolumeCount and ReleaseYear are updated monotonically upward
// — an existing larger value is never overwritten by a smaller one.
func (s *Store) EnsureAlbumExists(ref AlbumRef) (Album, error) {
	artist := ref.Artist
	if ref.IsCompilation {
		artist = nil
	}

	existing, err := s.findAlbumByIdentity(ref.Title, artist)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Album{}, fmt.Errorf("looking up album identity: %w", err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		res, err := s.db.Exec(
			`INSERT INTO albums (title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ref.Title, artist, ref.VolumeCount, ref.ReleaseYear, ref.IsCompilation,
			ref.MusicBrainzAlbumID, ref.MusicBrainzAlbumArtistID,
		)
		if err != nil {
			return Album{}, fmt.Errorf("inserting album: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Album{}, fmt.Errorf("reading new album id: %w", err)
		}
		return s.GetAlbumByID(id)
	}

	updated := existing
	if mergedVolumeCount(existing.VolumeCount, ref.VolumeCount) != existing.VolumeCount {
		updated.VolumeCount = mergedVolumeCount(existing.VolumeCount, ref.VolumeCount)
	}
	if mergedReleaseYear(existing.ReleaseYear, ref.ReleaseYear) != existing.ReleaseYear {
		updated.ReleaseYear = mergedReleaseYear(existing.ReleaseYear, ref.ReleaseYear)
	}

	if _, err := s.db.Exec(
		`UPDATE albums SET volume_count = ?, release_year = ? WHERE id = ?`,
		updated.VolumeCount, updated.ReleaseYear, existing.ID,
	); err != nil {
		return Album{}, fmt.Errorf("updating album %d: %w", existing.ID, err)
	}

	return s.GetAlbumByID(existing.ID)
}

// mergedReleaseYear applies the "never overwrite a larger value with a
// smaller one" rule from original_source/pijuv2/database/database.py:
// ensure_album_exists.
func mergedReleaseYear(current, incoming *int) *int {
	if incoming == nil {
		return current
	}
	if current == nil || *incoming > *current {
		return incoming
	}
	return current
}

// mergedVolumeCount applies the same monotonic-upward rule to VolumeCount,
// per spec §9's symmetric-rule open question resolution.
func mergedVolumeCount(current, incoming *int) *int {
	if incoming == nil {
		return current
	}
	if current == nil || *incoming > *current {
		return incoming
	}
	return current
}

func (s *Store) findAlbumByIdentity(title string, artist *string) (Album, error) {
	var row *sql.Row
	if artist == nil {
		row = s.db.QueryRow(
			`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			 FROM albums WHERE title = ? AND artist IS NULL`, title)
	} else {
		row = s.db.QueryRow(
			`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			 FROM albums WHERE title = ? AND artist = ?`, title, *artist)
	}
	return scanAlbum(row)
}

func scanAlbum(row *sql.Row) (Album, error) {
	var a Album
	var artist sql.NullString
	var mbAlbum, mbArtist sql.NullString
	if err := row.Scan(&a.ID, &a.Title, &artist, &a.VolumeCount, &a.ReleaseYear, &a.IsCompilation, &mbAlbum, &mbArtist); err != nil {
		return Album{}, err
	}
	if artist.Valid {
		a.Artist = &artist.String
	}
	a.MusicBrainzAlbumID = mbAlbum.String
	a.MusicBrainzAlbumArtistID = mbArtist.String
	return a, nil
}

// GetAlbumByID returns the Album with the given id, or an UnknownId error.
func (s *Store) GetAlbumByID(id int64) (Album, error) {
	row := s.db.QueryRow(
		`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
		 FROM albums WHERE id = ?`, id)
	a, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Album{}, notFound("album", id)
	}
	if err != nil {
		return Album{}, fmt.Errorf("reading album %d: %w", id, err)
	}
	return a, nil
}

// SetAlbumReleaseDate updates an album's ReleaseYear directly, bypassing the
// monotonic-upward rule — this backs PUT /albums/<id> where the caller is
// making an explicit correction, not an ingestion-time merge.
func (s *Store) SetAlbumReleaseDate(id int64, releaseYear *int) error {
	res, err := s.db.Exec(`UPDATE albums SET release_year = ? WHERE id = ?`, releaseYear, id)
	if err != nil {
		return fmt.Errorf("updating album %d release date: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notFound("album", id)
	}
	return nil
}

// AlbumGenres returns the set of genre ids currently associated with album.
func (s *Store) AlbumGenres(albumID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT genre_id FROM album_genres WHERE album_id = ?`, albumID)
	if err != nil {
		return nil, fmt.Errorf("reading album genres: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetAlbumGenres overwrites the album's genre association set.
func (s *Store) SetAlbumGenres(albumID int64, genreIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning genre update transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM album_genres WHERE album_id = ?`, albumID); err != nil {
		return fmt.Errorf("clearing album genres: %w", err)
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO album_genres (album_id, genre_id) VALUES (?, ?)`, albumID, gid,
		); err != nil {
			return fmt.Errorf("inserting album genre: %w", err)
		}
	}
	return tx.Commit()
}

// DistinctTrackGenresForAlbum returns the distinct non-null genre ids across
// album's current tracks — the live source of truth invariant 3 (§3)
// describes, as opposed to AlbumGenres which reads the (possibly stale)
// association table. The scanner uses this to recompute album_genres after
// an update moves a track's genre.
func (s *Store) DistinctTrackGenresForAlbum(albumID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT genre_id FROM tracks WHERE album_id = ? AND genre_id IS NOT NULL`, albumID)
	if err != nil {
		return nil, fmt.Errorf("reading track genres for album: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddAlbumGenre appends a single genre to the album's association set if not
// already present — the "insert" path in setCrossRefs step 5.
func (s *Store) AddAlbumGenre(albumID, genreID int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO album_genres (album_id, genre_id) VALUES (?, ?)`, albumID, genreID)
	if err != nil {
		return fmt.Errorf("adding album genre: %w", err)
	}
	return nil
}

// AlbumTrackCount returns the number of tracks currently referencing album.
func (s *Store) AlbumTrackCount(albumID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE album_id = ?`, albumID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting album tracks: %w", err)
	}
	return n, nil
}

// DeleteAlbum removes an album row outright. Used both directly (cross-ref
// repair when a track moves off its old, now-empty album) and by tidy.
func (s *Store) DeleteAlbum(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM album_genres WHERE album_id = ?`, id); err != nil {
		return fmt.Errorf("clearing genres for album %d: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM albums WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting album %d: %w", id, err)
	}
	return nil
}

// AlbumsWithoutTracks returns the ids of every album with zero referencing
// tracks, for the tidy "delete empty albums" sweep.
func (s *Store) AlbumsWithoutTracks() ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT a.id FROM albums a
		LEFT JOIN tracks t ON t.album_id = a.id
		WHERE t.id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying empty albums: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAllAlbums returns every album ordered by id, primarily for debugging
// and for the GET /albums/ listing (paging is not required at this scale).
func (s *Store) GetAllAlbums() ([]Album, error) {
	rows, err := s.db.Query(
		`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
		 FROM albums ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading all albums: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		var artist, mbAlbum, mbArtist sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &artist, &a.VolumeCount, &a.ReleaseYear, &a.IsCompilation, &mbAlbum, &mbArtist); err != nil {
			return nil, err
		}
		if artist.Valid {
			a.Artist = &artist.String
		}
		a.MusicBrainzAlbumID = mbAlbum.String
		a.MusicBrainzAlbumArtistID = mbArtist.String
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// AlbumsByArtist returns albums by artist name. exact=false matches a
// case-insensitive substring; exact=true matches the full name. The special
// name "various artists" (case-insensitive) returns compilations instead,
// per §6's /artists/<name> contract.
func (s *Store) AlbumsByArtist(name string, exact bool) ([]Album, error) {
	if equalFold(name, "various artists") {
		rows, err := s.db.Query(
			`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			 FROM albums WHERE is_compilation = 1 ORDER BY title`)
		if err != nil {
			return nil, fmt.Errorf("reading compilations: %w", err)
		}
		defer rows.Close()
		return scanAlbumRows(rows)
	}

	var rows *sql.Rows
	var err error
	if exact {
		rows, err = s.db.Query(
			`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			 FROM albums WHERE artist = ? ORDER BY title`, name)
	} else {
		rows, err = s.db.Query(
			`SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			 FROM albums WHERE artist LIKE ? ORDER BY title`, "%"+name+"%")
	}
	if err != nil {
		return nil, fmt.Errorf("reading albums by artist: %w", err)
	}
	defer rows.Close()
	return scanAlbumRows(rows)
}

func scanAlbumRows(rows *sql.Rows) ([]Album, error) {
	var albums []Album
	for rows.Next() {
		var a Album
		var artist, mbAlbum, mbArtist sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &artist, &a.VolumeCount, &a.ReleaseYear, &a.IsCompilation, &mbAlbum, &mbArtist); err != nil {
			return nil, err
		}
		if artist.Valid {
			a.Artist = &artist.String
		}
		a.MusicBrainzAlbumID = mbAlbum.String
		a.MusicBrainzAlbumArtistID = mbArtist.String
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func equalFold(a, b string) bool {
	return len(a) == len(b) && sqlLower(a) == sqlLower(b)
}

func sqlLower(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + ('a' - 'A')
		}
	}
	return string(out)
}
