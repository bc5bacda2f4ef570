package catalog

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SearchAlbums returns albums whose title matches any of words
// (ILIKE-style substring, case-insensitive).
func (s *Store) SearchAlbums(words []string) ([]Album, error) {
	var results []Album
	seen := map[int64]bool{}
	for _, w := range words {
		rows, err := s.db.Query(`
			SELECT id, title, artist, volume_count, release_year, is_compilation, musicbrainz_album_id, musicbrainz_album_artist_id
			FROM albums WHERE title LIKE ?`, like(w))
		if err != nil {
			return nil, fmt.Errorf("searching albums: %w", err)
		}
		albums, err := scanAlbumRows(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		for _, a := range albums {
			if !seen[a.ID] {
				seen[a.ID] = true
				results = append(results, a)
			}
		}
	}
	return results, nil
}

// SearchArtists returns the distinct artist names matching any of words.
func (s *Store) SearchArtists(words []string) ([]string, error) {
	seen := map[string]bool{}
	var results []string
	for _, w := range words {
		rows, err := s.db.Query(`SELECT DISTINCT artist FROM albums WHERE artist LIKE ?`, like(w))
		if err != nil {
			return nil, fmt.Errorf("searching artists: %w", err)
		}
		for rows.Next() {
			var artist string
			if err := rows.Scan(&artist); err != nil {
				rows.Close()
				return nil, err
			}
			if !seen[artist] {
				seen[artist] = true
				results = append(results, artist)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	sort.Strings(results)
	return results, nil
}

// trackHit pairs a Track with its (possibly empty) album title, needed to
// detect the "substring in neither title nor artist (implying album)" case.
type trackHit struct {
	track      Track
	albumTitle string
	score      int
}

// SearchTracks joins Album and scores results per §4.5: exact word match in
// title = 4, substring in title = 3, substring in neither title nor artist
// (implying album) = 2, substring in artist = 1, summed across words,
// highest first; truncated to 100.
func (s *Store) SearchTracks(words []string) ([]Track, error) {
	rows, err := s.db.Query(`SELECT ` + trackColumns + `, COALESCE((SELECT title FROM albums WHERE albums.id = tracks.album_id), '')
		FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("reading tracks for search: %w", err)
	}
	defer rows.Close()

	var hits []*trackHit
	for rows.Next() {
		var t Track
		var title, composer, artist, releaseDate, mbTrack, mbArtist, albumTitle sql.NullString
		if err := rows.Scan(&t.ID, &t.Filepath, &title, &t.DurationMs, &composer, &artist, &t.GenreID,
			&t.VolumeNumber, &t.TrackCount, &t.TrackNumber, &releaseDate, &mbTrack, &mbArtist,
			&t.AlbumID, &t.ArtworkID, &albumTitle); err != nil {
			return nil, err
		}
		t.Title, t.Composer, t.Artist, t.ReleaseDate = title.String, composer.String, artist.String, releaseDate.String
		t.MusicBrainzTrackID, t.MusicBrainzArtistID = mbTrack.String, mbArtist.String

		score := 0
		for _, w := range words {
			score += scoreWord(w, t.Title, t.Artist, albumTitle.String)
		}
		if score > 0 {
			hits = append(hits, &trackHit{track: t, albumTitle: albumTitle.String, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > 100 {
		hits = hits[:100]
	}

	tracks := make([]Track, 0, len(hits))
	for _, h := range hits {
		tracks = append(tracks, h.track)
	}
	return tracks, nil
}

func scoreWord(word, title, artist, albumTitle string) int {
	word = strings.ToLower(word)
	lowerTitle := strings.ToLower(title)
	lowerArtist := strings.ToLower(artist)
	lowerAlbum := strings.ToLower(albumTitle)

	switch {
	case lowerTitle == word:
		return 4
	case strings.Contains(lowerTitle, word):
		return 3
	case !strings.Contains(lowerTitle, word) && !strings.Contains(lowerArtist, word) && strings.Contains(lowerAlbum, word):
		return 2
	case strings.Contains(lowerArtist, word):
		return 1
	default:
		return 0
	}
}

func like(word string) string {
	return "%" + word + "%"
}
