// Package catalog is the durable store of tracks, albums, artwork, genres,
// playlists and radio stations. Nothing about the underlying storage engine
// leaks past this package — callers only see the types and operations
// defined here.
//
// Grounded on anyuan-chen-splitter/server/db/db.go for the database/sql +
// mattn/go-sqlite3 wiring idiom (inline CREATE TABLE IF NOT EXISTS, ignored-
// error ALTER TABLE migrations, parameterized queries) and on
// original_source/pijuv2/database/database.py + schema.py for operation
// semantics.
package catalog

import "time"

// Track mirrors the data model's Track entity. Genre/Album/Artwork are
// nullable foreign keys, modeled as pointers so a zero value is
// distinguishable from "references row 0".
type Track struct {
	ID                  int64
	Filepath            string
	Title               string
	DurationMs          int64
	Composer            string
	Artist              string
	GenreID             *int64
	VolumeNumber        *int
	TrackCount          *int
	TrackNumber         *int
	ReleaseDate         string
	MusicBrainzTrackID  string
	MusicBrainzArtistID string
	AlbumID             *int64
	ArtworkID           *int64
}

// Album mirrors the Album entity. Artist is nil iff IsCompilation.
type Album struct {
	ID                       int64
	Title                    string
	Artist                   *string
	VolumeCount              *int
	ReleaseYear              *int
	IsCompilation            bool
	MusicBrainzAlbumID       string
	MusicBrainzAlbumArtistID string
}

// Genre mirrors the Genre entity.
type Genre struct {
	ID   int64
	Name string
}

// Artwork mirrors the Artwork entity. Exactly one of Path/Blob is populated.
type Artwork struct {
	ID       int64
	Path     string
	Blob     []byte
	BlobHash string
	Width    int
	Height   int
}

// Playlist mirrors the Playlist entity.
type Playlist struct {
	ID      int64
	Title   string
	Entries []PlaylistEntry
}

// PlaylistEntry is one ordered member of a Playlist.
type PlaylistEntry struct {
	ID            int64
	PlaylistIndex int
	TrackID       int64
}

// RadioStation mirrors the RadioStation entity.
type RadioStation struct {
	ID                   int64
	Name                 string
	URL                  string
	ArtworkURL           string
	NowPlayingURL        string
	NowPlayingJq         string
	NowPlayingArtworkURL string
	NowPlayingArtworkJq  string
	SortOrder            int
}

// AlbumRef / ArtworkRef / TrackRef are the inbound shapes ensureXExists
// operations accept. They mirror the entity shape but leave identity fields
// optional so the store can decide insert-vs-match.
type AlbumRef struct {
	Title                    string
	Artist                   *string
	IsCompilation            bool
	VolumeCount              *int
	ReleaseYear              *int
	MusicBrainzAlbumID       string
	MusicBrainzAlbumArtistID string
}

type ArtworkRef struct {
	Path   string
	Blob   []byte
	Width  int
	Height int
}

// TrackRef carries an optional ID: zero means "resolve by identity tuple",
// non-zero means "this is an update, apply directly". Genre is a name,
// resolved to a Genre row by the store.
type TrackRef struct {
	ID                  int64
	Filepath            string
	Title               string
	DurationMs          int64
	Composer            string
	Artist              string
	Genre               string
	VolumeNumber        *int
	TrackCount          *int
	TrackNumber         *int
	ReleaseDate         string
	MusicBrainzTrackID  string
	MusicBrainzArtistID string
	AlbumID             *int64
	ArtworkID           *int64
}

// Download is the ephemeral shape the download service registers; the
// catalog package doesn't store these, but TrackID sign conventions here
// (negative == fake) are shared with internal/download.
type Download struct {
	Filepath    string
	Artist      string
	Title       string
	ArtworkURL  string
	SourceURL   string
	FakeTrackID int64
	CreatedAt   time.Time
}
