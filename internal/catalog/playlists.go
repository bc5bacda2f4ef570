package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pijudev/piju/internal/apierr"
)

// CreatePlaylist inserts a new Playlist with the given title and ordered
// track ids, deriving the Genre association set from the member tracks'
// genres at write time (§3: Playlist.Genres is derived, not stored
// independently of membership).
func (s *Store) CreatePlaylist(title string, trackIDs []int64) (Playlist, error) {
	if err := s.validatePlaylistTrackIDs(trackIDs); err != nil {
		return Playlist{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Playlist{}, fmt.Errorf("beginning playlist creation: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO playlists (title) VALUES (?)`, title)
	if err != nil {
		return Playlist{}, fmt.Errorf("inserting playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Playlist{}, fmt.Errorf("reading new playlist id: %w", err)
	}

	if err := insertPlaylistEntries(tx, id, trackIDs); err != nil {
		return Playlist{}, err
	}
	if err := tx.Commit(); err != nil {
		return Playlist{}, fmt.Errorf("committing playlist creation: %w", err)
	}

	if err := s.syncPlaylistGenres(id); err != nil {
		return Playlist{}, err
	}
	return s.GetPlaylistByID(id)
}

func insertPlaylistEntries(tx *sql.Tx, playlistID int64, trackIDs []int64) error {
	for i, trackID := range trackIDs {
		if _, err := tx.Exec(
			`INSERT INTO playlist_entries (playlist_id, playlist_index, track_id) VALUES (?, ?, ?)`,
			playlistID, i, trackID,
		); err != nil {
			return fmt.Errorf("inserting playlist entry: %w", err)
		}
	}
	return nil
}

// syncPlaylistGenres recomputes playlist_genres from the distinct non-null
// genres of the playlist's current member tracks.
func (s *Store) syncPlaylistGenres(playlistID int64) error {
	rows, err := s.db.Query(`
		SELECT DISTINCT t.genre_id FROM playlist_entries pe
		JOIN tracks t ON t.id = pe.track_id
		WHERE pe.playlist_id = ? AND t.genre_id IS NOT NULL`, playlistID)
	if err != nil {
		return fmt.Errorf("computing playlist genres: %w", err)
	}
	var genreIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		genreIDs = append(genreIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM playlist_genres WHERE playlist_id = ?`, playlistID); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO playlist_genres (playlist_id, genre_id) VALUES (?, ?)`, playlistID, gid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetPlaylistByID returns the Playlist with its entries ordered by
// PlaylistIndex, or an UnknownId error.
func (s *Store) GetPlaylistByID(id int64) (Playlist, error) {
	var p Playlist
	p.ID = id
	if err := s.db.QueryRow(`SELECT title FROM playlists WHERE id = ?`, id).Scan(&p.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, notFound("playlist", id)
		}
		return Playlist{}, fmt.Errorf("reading playlist %d: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT id, playlist_index, track_id FROM playlist_entries WHERE playlist_id = ? ORDER BY playlist_index`, id)
	if err != nil {
		return Playlist{}, fmt.Errorf("reading playlist entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e PlaylistEntry
		if err := rows.Scan(&e.ID, &e.PlaylistIndex, &e.TrackID); err != nil {
			return Playlist{}, err
		}
		p.Entries = append(p.Entries, e)
	}
	return p, rows.Err()
}

// GetAllPlaylists returns every playlist (without entries populated), for
// the GET /playlists/ listing.
func (s *Store) GetAllPlaylists() ([]Playlist, error) {
	rows, err := s.db.Query(`SELECT id, title FROM playlists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("reading all playlists: %w", err)
	}
	defer rows.Close()
	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// UpdatePlaylist replaces a playlist's title and/or ordered member tracks.
// A nil trackIDs leaves membership untouched.
func (s *Store) UpdatePlaylist(id int64, title string, trackIDs []int64) (Playlist, error) {
	if _, err := s.GetPlaylistByID(id); err != nil {
		return Playlist{}, err
	}
	if trackIDs != nil {
		if err := s.validatePlaylistTrackIDs(trackIDs); err != nil {
			return Playlist{}, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Playlist{}, err
	}
	defer tx.Rollback()

	if title != "" {
		if _, err := tx.Exec(`UPDATE playlists SET title = ? WHERE id = ?`, title, id); err != nil {
			return Playlist{}, fmt.Errorf("updating playlist title: %w", err)
		}
	}
	if trackIDs != nil {
		if _, err := tx.Exec(`DELETE FROM playlist_entries WHERE playlist_id = ?`, id); err != nil {
			return Playlist{}, fmt.Errorf("clearing playlist entries: %w", err)
		}
		if err := insertPlaylistEntries(tx, id, trackIDs); err != nil {
			return Playlist{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Playlist{}, fmt.Errorf("committing playlist update: %w", err)
	}

	if trackIDs != nil {
		if err := s.syncPlaylistGenres(id); err != nil {
			return Playlist{}, err
		}
	}
	return s.GetPlaylistByID(id)
}

// PlaylistGenres returns the genre ids derived from a playlist's member
// tracks (kept in sync by syncPlaylistGenres), for the GET /playlists/<id>
// genres field.
func (s *Store) PlaylistGenres(playlistID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT genre_id FROM playlist_genres WHERE playlist_id = ? ORDER BY genre_id`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("reading playlist genres: %w", err)
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

// DeletePlaylist removes a playlist and its entries/genre associations.
func (s *Store) DeletePlaylist(id int64) error {
	if _, err := s.GetPlaylistByID(id); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM playlist_genres WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("clearing playlist genres: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting playlist %d: %w", id, err)
	}
	return nil
}

// validatePlaylistTrackIDs checks every id resolves to an existing track,
// returning a BadInput-shaped apierr.Error naming the first offender.
func (s *Store) validatePlaylistTrackIDs(trackIDs []int64) error {
	for _, id := range trackIDs {
		if _, err := s.GetTrackByID(id); err != nil {
			return apierr.Newf(apierr.KindBadInput, "playlist references unknown track id %d", id)
		}
	}
	return nil
}
