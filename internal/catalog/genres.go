package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// EnsureGenreExists inserts-or-fetches a Genre by its unique Name. An empty
// name is never stored; callers must check before calling (a Track with no
// genre has a nil GenreID, not a Genre named "").
func (s *Store) EnsureGenreExists(name string) (Genre, error) {
	g, err := s.GenreByName(name)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Genre{}, err
	}

	res, err := s.db.Exec(`INSERT INTO genres (name) VALUES (?)`, name)
	if err != nil {
		// Lost a race with a concurrent insert of the same name; fetch it.
		if g, gerr := s.GenreByName(name); gerr == nil {
			return g, nil
		}
		return Genre{}, fmt.Errorf("inserting genre %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Genre{}, fmt.Errorf("reading new genre id: %w", err)
	}
	return Genre{ID: id, Name: name}, nil
}

// GenreByName returns sql.ErrNoRows when no genre has that name.
func (s *Store) GenreByName(name string) (Genre, error) {
	var g Genre
	err := s.db.QueryRow(`SELECT id, name FROM genres WHERE name = ?`, name).Scan(&g.ID, &g.Name)
	return g, err
}

// GetGenreByID returns the Genre with the given id, or an UnknownId error.
func (s *Store) GetGenreByID(id int64) (Genre, error) {
	var g Genre
	err := s.db.QueryRow(`SELECT id, name FROM genres WHERE id = ?`, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Genre{}, notFound("genre", id)
	}
	if err != nil {
		return Genre{}, fmt.Errorf("reading genre %d: %w", id, err)
	}
	return g, nil
}

// GetAllGenres returns every genre ordered by name.
func (s *Store) GetAllGenres() ([]Genre, error) {
	rows, err := s.db.Query(`SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("reading all genres: %w", err)
	}
	defer rows.Close()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// DeleteGenre removes a genre row outright.
func (s *Store) DeleteGenre(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM genres WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting genre %d: %w", id, err)
	}
	return nil
}

// AlbumsByGenre returns the albums tagged with the given genre, for
// GET /genres/<id>'s nested albums field.
func (s *Store) AlbumsByGenre(genreID int64) ([]Album, error) {
	rows, err := s.db.Query(`
		SELECT a.id, a.title, a.artist, a.volume_count, a.release_year, a.is_compilation,
			a.musicbrainz_album_id, a.musicbrainz_album_artist_id
		FROM albums a
		JOIN album_genres ag ON ag.album_id = a.id
		WHERE ag.genre_id = ?
		ORDER BY a.title`, genreID)
	if err != nil {
		return nil, fmt.Errorf("querying albums by genre: %w", err)
	}
	defer rows.Close()
	return scanAlbumRows(rows)
}

// PlaylistsByGenre returns the playlists whose member tracks derive the
// given genre, for GET /genres/<id>'s nested playlists field.
func (s *Store) PlaylistsByGenre(genreID int64) ([]Playlist, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.title FROM playlists p
		JOIN playlist_genres pg ON pg.playlist_id = p.id
		WHERE pg.genre_id = ?
		ORDER BY p.title`, genreID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists by genre: %w", err)
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

// EmptyGenres returns the ids of genres with no albums and no playlists,
// for the tidy "delete empty genres" sweep.
func (s *Store) EmptyGenres() ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT g.id FROM genres g
		LEFT JOIN album_genres ag ON ag.genre_id = g.id
		LEFT JOIN playlist_genres pg ON pg.genre_id = g.id
		WHERE ag.genre_id IS NULL AND pg.genre_id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying empty genres: %w", err)
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
