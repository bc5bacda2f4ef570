package catalog

import (
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pijudev/piju/internal/apierr"
)

const schema = `
CREATE TABLE IF NOT EXISTS genres (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS albums (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	artist TEXT,
	volume_count INTEGER,
	release_year INTEGER,
	is_compilation INTEGER NOT NULL DEFAULT 0,
	musicbrainz_album_id TEXT,
	musicbrainz_album_artist_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_albums_title_artist ON albums(title, artist);

CREATE TABLE IF NOT EXISTS album_genres (
	album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
	genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
	PRIMARY KEY (album_id, genre_id)
);

CREATE TABLE IF NOT EXISTS artwork (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT,
	blob BLOB,
	blob_hash TEXT,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_artwork_path ON artwork(path);
CREATE INDEX IF NOT EXISTS idx_artwork_hash ON artwork(blob_hash);

CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filepath TEXT NOT NULL UNIQUE,
	title TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	composer TEXT,
	artist TEXT,
	genre_id INTEGER REFERENCES genres(id),
	volume_number INTEGER,
	track_count INTEGER,
	track_number INTEGER,
	release_date TEXT,
	musicbrainz_track_id TEXT,
	musicbrainz_artist_id TEXT,
	album_id INTEGER REFERENCES albums(id),
	artwork_id INTEGER REFERENCES artwork(id)
);
CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id);
CREATE INDEX IF NOT EXISTS idx_tracks_artwork ON tracks(artwork_id);

CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	playlist_index INTEGER NOT NULL,
	track_id INTEGER NOT NULL REFERENCES tracks(id)
);
CREATE INDEX IF NOT EXISTS idx_playlist_entries_playlist ON playlist_entries(playlist_id, playlist_index);

CREATE TABLE IF NOT EXISTS playlist_genres (
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
	PRIMARY KEY (playlist_id, genre_id)
);

CREATE TABLE IF NOT EXISTS radio_stations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	artwork_url TEXT,
	now_playing_url TEXT,
	now_playing_jq TEXT,
	now_playing_artwork_url TEXT,
	now_playing_artwork_jq TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0
);
`

// migrations are best-effort ALTER TABLEs applied after CREATE TABLE IF NOT
// EXISTS, for idempotent schema evolution without a migration framework —
// same idiom as anyuan-chen-splitter/server/db/db.go. Errors are ignored:
// they only occur when the column already exists.
var migrations = []string{
	`ALTER TABLE albums ADD COLUMN musicbrainz_album_id TEXT`,
	`ALTER TABLE albums ADD COLUMN musicbrainz_album_artist_id TEXT`,
	`ALTER TABLE radio_stations ADD COLUMN sort_order INTEGER NOT NULL DEFAULT 0`,
}

// Store is the sqlite-backed implementation of the catalog's procedural
// interface. Each exported method runs its own single-statement-or-
// transaction unit.
type Store struct {
	db *sql.DB

	// hashCache probes BlobHash -> candidate artwork ids so repeated
	// ingestion of the same cover art across many tracks in one scan
	// doesn't re-run the SQL hash lookup every time. A hit is still
	// confirmed by full byte comparison; a miss falls through to SQL.
	hashCache *lru.Cache[string, int64]
	cacheMu   sync.Mutex
}

// Open creates (if needed) the schema at path and returns a ready Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging catalog database %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("applying catalog schema: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			slog.Debug("catalog migration skipped", "stmt", m, "error", err)
		}
	}

	cache, err := lru.New[string, int64](512)
	if err != nil {
		return nil, fmt.Errorf("creating artwork hash cache: %w", err)
	}

	slog.Info("Catalog store opened", "path", path)
	return &Store{db: db, hashCache: cache}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func sha1Hex(blob []byte) string {
	sum := sha1.Sum(blob)
	return hex.EncodeToString(sum[:])
}

// notFound constructs the typed UnknownId error this package's read
// operations raise when a row doesn't exist.
func notFound(kind string, id int64) error {
	return apierr.Newf(apierr.KindUnknownID, "%s %d not found", kind, id)
}
