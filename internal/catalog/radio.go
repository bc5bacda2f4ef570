package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

const radioColumns = `id, name, url, artwork_url, now_playing_url, now_playing_jq,
	now_playing_artwork_url, now_playing_artwork_jq, sort_order`

func scanRadioStation(row interface{ Scan(dest ...any) error }) (RadioStation, error) {
	var r RadioStation
	var artworkURL, npURL, npJq, npArtworkURL, npArtworkJq sql.NullString
	if err := row.Scan(&r.ID, &r.Name, &r.URL, &artworkURL, &npURL, &npJq, &npArtworkURL, &npArtworkJq, &r.SortOrder); err != nil {
		return RadioStation{}, err
	}
	r.ArtworkURL, r.NowPlayingURL, r.NowPlayingJq = artworkURL.String, npURL.String, npJq.String
	r.NowPlayingArtworkURL, r.NowPlayingArtworkJq = npArtworkURL.String, npArtworkJq.String
	return r, nil
}

// CreateRadioStation inserts a new station, assigning it the next
// SortOrder so new stations enumerate last by default.
func (s *Store) CreateRadioStation(r RadioStation) (RadioStation, error) {
	var maxSort sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(sort_order) FROM radio_stations`).Scan(&maxSort); err != nil {
		return RadioStation{}, fmt.Errorf("probing radio station sort order: %w", err)
	}
	sortOrder := 0
	if maxSort.Valid {
		sortOrder = int(maxSort.Int64) + 1
	}

	res, err := s.db.Exec(`
		INSERT INTO radio_stations (name, url, artwork_url, now_playing_url, now_playing_jq,
			now_playing_artwork_url, now_playing_artwork_jq, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.URL, r.ArtworkURL, r.NowPlayingURL, r.NowPlayingJq,
		r.NowPlayingArtworkURL, r.NowPlayingArtworkJq, sortOrder,
	)
	if err != nil {
		return RadioStation{}, fmt.Errorf("inserting radio station: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RadioStation{}, fmt.Errorf("reading new radio station id: %w", err)
	}
	return s.GetRadioStationByID(id)
}

// GetRadioStationByID returns the station with the given id, or UnknownId.
func (s *Store) GetRadioStationByID(id int64) (RadioStation, error) {
	row := s.db.QueryRow(`SELECT `+radioColumns+` FROM radio_stations WHERE id = ?`, id)
	r, err := scanRadioStation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RadioStation{}, notFound("radio station", id)
	}
	if err != nil {
		return RadioStation{}, fmt.Errorf("reading radio station %d: %w", id, err)
	}
	return r, nil
}

// GetAllRadioStations returns every station ordered by SortOrder, matching
// original_source/pijuv2/backend/playerctrl.py's get_all_radio_stations
// enumeration order (used to resolve adjacent-station next/prev).
func (s *Store) GetAllRadioStations() ([]RadioStation, error) {
	rows, err := s.db.Query(`SELECT ` + radioColumns + ` FROM radio_stations ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("reading all radio stations: %w", err)
	}
	defer rows.Close()

	var stations []RadioStation
	for rows.Next() {
		r, err := scanRadioStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, r)
	}
	return stations, rows.Err()
}

// UpdateRadioStation applies a partial update, preserving fields whose zero
// value in updated is the empty string/0.
func (s *Store) UpdateRadioStation(id int64, updated RadioStation) (RadioStation, error) {
	existing, err := s.GetRadioStationByID(id)
	if err != nil {
		return RadioStation{}, err
	}

	merged := mergeRadioStation(existing, updated)
	if _, err := s.db.Exec(`
		UPDATE radio_stations SET name = ?, url = ?, artwork_url = ?, now_playing_url = ?,
			now_playing_jq = ?, now_playing_artwork_url = ?, now_playing_artwork_jq = ?
		WHERE id = ?`,
		merged.Name, merged.URL, merged.ArtworkURL, merged.NowPlayingURL,
		merged.NowPlayingJq, merged.NowPlayingArtworkURL, merged.NowPlayingArtworkJq, id,
	); err != nil {
		return RadioStation{}, fmt.Errorf("updating radio station %d: %w", id, err)
	}
	return s.GetRadioStationByID(id)
}

func mergeRadioStation(existing, updated RadioStation) RadioStation {
	merged := existing
	if updated.Name != "" {
		merged.Name = updated.Name
	}
	if updated.URL != "" {
		merged.URL = updated.URL
	}
	if updated.ArtworkURL != "" {
		merged.ArtworkURL = updated.ArtworkURL
	}
	if updated.NowPlayingURL != "" {
		merged.NowPlayingURL = updated.NowPlayingURL
	}
	if updated.NowPlayingJq != "" {
		merged.NowPlayingJq = updated.NowPlayingJq
	}
	if updated.NowPlayingArtworkURL != "" {
		merged.NowPlayingArtworkURL = updated.NowPlayingArtworkURL
	}
	if updated.NowPlayingArtworkJq != "" {
		merged.NowPlayingArtworkJq = updated.NowPlayingArtworkJq
	}
	return merged
}

// DeleteRadioStation removes a station outright.
func (s *Store) DeleteRadioStation(id int64) error {
	if _, err := s.GetRadioStationByID(id); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM radio_stations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting radio station %d: %w", id, err)
	}
	return nil
}

// ReorderRadioStations assigns SortOrder per the given id order.
func (s *Store) ReorderRadioStations(orderedIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i, id := range orderedIDs {
		if _, err := tx.Exec(`UPDATE radio_stations SET sort_order = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("reordering radio station %d: %w", id, err)
		}
	}
	return tx.Commit()
}
