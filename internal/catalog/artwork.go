package catalog

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureArtworkExists resolves ref to an Artwork row. For a Path-bearing ref
// it matches by Path. For a Blob-bearing ref it computes the SHA-1 and
// matches candidates by hash (using the in-process cache as a first probe,
// then falling back to SQL), confirming every candidate with a full byte
// comparison before trusting it — the hash is a dedup probe, never a trust
// root (§9). On a match with differing Width/Height, those are updated.
func (s *Store) EnsureArtworkExists(ref ArtworkRef) (Artwork, error) {
	if ref.Path != "" {
		return s.ensureArtworkByPath(ref)
	}
	return s.ensureArtworkByBlob(ref)
}

func (s *Store) ensureArtworkByPath(ref ArtworkRef) (Artwork, error) {
	existing, err := s.artworkByPath(ref.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertArtwork(ref)
	}
	if err != nil {
		return Artwork{}, fmt.Errorf("looking up artwork by path: %w", err)
	}
	return s.maybeUpdateDimensions(existing, ref)
}

func (s *Store) ensureArtworkByBlob(ref ArtworkRef) (Artwork, error) {
	hash := sha1Hex(ref.Blob)

	if id, ok := s.hashCacheGet(hash); ok {
		if confirmed, err := s.confirmArtworkBlob(id, ref.Blob); err == nil && confirmed {
			return s.maybeUpdateDimensions(confirmed_(id, ref), ref)
		}
	}

	rows, err := s.db.Query(`SELECT id FROM artwork WHERE blob_hash = ?`, hash)
	if err != nil {
		return Artwork{}, fmt.Errorf("looking up artwork by hash: %w", err)
	}
	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return Artwork{}, err
		}
		candidates = append(candidates, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Artwork{}, err
	}

	for _, id := range candidates {
		ok, err := s.confirmArtworkBlob(id, ref.Blob)
		if err != nil {
			return Artwork{}, err
		}
		if ok {
			s.hashCacheSet(hash, id)
			existing, err := s.GetArtworkByID(id)
			if err != nil {
				return Artwork{}, err
			}
			return s.maybeUpdateDimensions(existing, ref)
		}
	}

	art, err := s.insertArtwork(ref)
	if err != nil {
		return Artwork{}, err
	}
	s.hashCacheSet(hash, art.ID)
	return art, nil
}

// confirmed_ is a tiny helper so the cache-hit path can reuse
// maybeUpdateDimensions without a second round trip when the blob already
// matched byte-for-byte.
func confirmed_(id int64, ref ArtworkRef) Artwork {
	return Artwork{ID: id, Blob: ref.Blob, BlobHash: sha1Hex(ref.Blob)}
}

func (s *Store) confirmArtworkBlob(id int64, blob []byte) (bool, error) {
	var existing []byte
	if err := s.db.QueryRow(`SELECT blob FROM artwork WHERE id = ?`, id).Scan(&existing); err != nil {
		return false, fmt.Errorf("reading artwork %d blob: %w", id, err)
	}
	return bytes.Equal(existing, blob), nil
}

func (s *Store) hashCacheGet(hash string) (int64, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.hashCache.Get(hash)
}

func (s *Store) hashCacheSet(hash string, id int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.hashCache.Add(hash, id)
}

func (s *Store) artworkByPath(path string) (Artwork, error) {
	var a Artwork
	var blob []byte
	err := s.db.QueryRow(`SELECT id, path, blob, blob_hash, width, height FROM artwork WHERE path = ?`, path).
		Scan(&a.ID, &a.Path, &blob, &a.BlobHash, &a.Width, &a.Height)
	a.Blob = blob
	return a, err
}

func (s *Store) insertArtwork(ref ArtworkRef) (Artwork, error) {
	hash := ""
	if ref.Blob != nil {
		hash = sha1Hex(ref.Blob)
	}
	var path any
	if ref.Path != "" {
		path = ref.Path
	}
	res, err := s.db.Exec(
		`INSERT INTO artwork (path, blob, blob_hash, width, height) VALUES (?, ?, ?, ?, ?)`,
		path, ref.Blob, hash, ref.Width, ref.Height,
	)
	if err != nil {
		return Artwork{}, fmt.Errorf("inserting artwork: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Artwork{}, fmt.Errorf("reading new artwork id: %w", err)
	}
	return s.GetArtworkByID(id)
}

func (s *Store) maybeUpdateDimensions(existing Artwork, ref ArtworkRef) (Artwork, error) {
	if ref.Width == existing.Width && ref.Height == existing.Height {
		return existing, nil
	}
	if _, err := s.db.Exec(`UPDATE artwork SET width = ?, height = ? WHERE id = ?`, ref.Width, ref.Height, existing.ID); err != nil {
		return Artwork{}, fmt.Errorf("updating artwork %d dimensions: %w", existing.ID, err)
	}
	existing.Width, existing.Height = ref.Width, ref.Height
	return existing, nil
}

// GetArtworkByID returns the Artwork with the given id, or an UnknownId error.
func (s *Store) GetArtworkByID(id int64) (Artwork, error) {
	var a Artwork
	var path sql.NullString
	err := s.db.QueryRow(`SELECT id, path, blob, blob_hash, width, height FROM artwork WHERE id = ?`, id).
		Scan(&a.ID, &path, &a.Blob, &a.BlobHash, &a.Width, &a.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return Artwork{}, notFound("artwork", id)
	}
	if err != nil {
		return Artwork{}, fmt.Errorf("reading artwork %d: %w", id, err)
	}
	a.Path = path.String
	return a, nil
}

// ArtworkTrackCount returns how many tracks currently reference artworkID.
func (s *Store) ArtworkTrackCount(artworkID int64) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE artwork_id = ?`, artworkID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artwork references: %w", err)
	}
	return n, nil
}

// DeleteArtwork removes an artwork row outright.
func (s *Store) DeleteArtwork(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM artwork WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting artwork %d: %w", id, err)
	}
	return nil
}

// OrphanArtwork returns the ids of artwork rows with no referencing tracks
// — defense-in-depth against cascade misses, per the tidy sweep.
func (s *Store) OrphanArtwork() ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT a.id FROM artwork a
		LEFT JOIN tracks t ON t.artwork_id = a.id
		WHERE t.id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying orphan artwork: %w", err)
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
