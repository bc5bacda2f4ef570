// Package snapshot builds the consolidated now-playing status object (C9):
// worker status, player status/volume, catalog counts, current track
// position, and whichever of the file-player or stream-player specific
// fields apply.
//
// Grounded on original_source/pijuv2/backend/nowplaying.py:get_current_status
// for the exact field set and naming (WorkerStatus, PlayerStatus,
// CurrentTrackIndex as 1-based, etc.) and api_version_string ("6.0") from
// original_source/pijuv2/backend/appfactory.py.
package snapshot

import (
	"sync"

	"github.com/pijudev/piju/internal/player"
)

// apiVersion mirrors the original app's api_version_string.
const apiVersion = "6.0"

// TrackInfo is the {artist, title} pair reported for the currently playing
// item, whether it came from a catalog track, an ephemeral download, or a
// stream player's polled now-playing metadata.
type TrackInfo struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Snapshot is the JSON object returned by GET / and pushed to every
// connected websocket client on state change.
type Snapshot struct {
	WorkerStatus     string `json:"WorkerStatus"`
	PlayerStatus     string `json:"PlayerStatus"`
	PlayerVolume     int    `json:"PlayerVolume"`
	NumberAlbums     int    `json:"NumberAlbums"`
	NumberArtworks   int    `json:"NumberArtworks"`
	NumberTracks     int    `json:"NumberTracks"`
	CurrentTrackIndex *int  `json:"CurrentTrackIndex"`
	MaximumTrackIndex *int  `json:"MaximumTrackIndex"`
	ApiVersion       string `json:"ApiVersion"`

	CurrentTracklistUri *string    `json:"CurrentTracklistUri,omitempty"`
	CurrentTrack        *TrackInfo `json:"CurrentTrack,omitempty"`
	CurrentArtwork      *string    `json:"CurrentArtwork,omitempty"`
	CurrentStream       *string    `json:"CurrentStream,omitempty"`
}

// Store is the subset of *catalog.Store the snapshot builder needs.
type Store interface {
	GetNumberOfAlbums() (int, error)
	GetNumberOfArtworks() (int, error)
	GetNumberOfTracks() (int, error)
}

// Coordinator is the subset of *player.Coordinator the snapshot builder
// needs.
type Coordinator interface {
	CurrentKind() string
	Current() player.Player
	FilePlayer() *player.FilePlayer
	StreamPlayer() *player.StreamPlayer
}

// Builder accumulates the worker's status string (pushed explicitly, since
// the worker has no catalog handle of its own) and builds a Snapshot from
// the catalog and the player coordinator on demand.
type Builder struct {
	mu           sync.Mutex
	workerStatus string

	store       Store
	coordinator Coordinator
}

func NewBuilder(store Store, coordinator Coordinator) *Builder {
	return &Builder{store: store, coordinator: coordinator, workerStatus: "Idle"}
}

// SetWorkerStatus records the worker's latest published status string,
// installed as the worker's onStatusChange callback by cmd/piju.
func (b *Builder) SetWorkerStatus(status string) {
	b.mu.Lock()
	b.workerStatus = status
	b.mu.Unlock()
}

// Build assembles the current Snapshot. Catalog count lookups can fail
// (e.g. the store is unreachable); such an error is returned rather than
// silently zeroing the counts.
func (b *Builder) Build() (Snapshot, error) {
	b.mu.Lock()
	workerStatus := b.workerStatus
	b.mu.Unlock()

	nAlbums, err := b.store.GetNumberOfAlbums()
	if err != nil {
		return Snapshot{}, err
	}
	nArtworks, err := b.store.GetNumberOfArtworks()
	if err != nil {
		return Snapshot{}, err
	}
	nTracks, err := b.store.GetNumberOfTracks()
	if err != nil {
		return Snapshot{}, err
	}

	cur := b.coordinator.Current()
	snap := Snapshot{
		WorkerStatus:      workerStatus,
		PlayerStatus:      string(cur.CurrentStatus()),
		PlayerVolume:      cur.CurrentVolume(),
		NumberAlbums:      nAlbums,
		NumberArtworks:    nArtworks,
		NumberTracks:      nTracks,
		MaximumTrackIndex: cur.NumberOfTracks(),
		ApiVersion:        apiVersion,
	}
	if idx := cur.CurrentTrackIndex(); idx != nil {
		oneBased := *idx + 1
		snap.CurrentTrackIndex = &oneBased
	}

	switch b.coordinator.CurrentKind() {
	case "stream":
		b.fillStream(&snap)
	default:
		b.fillFile(&snap)
	}
	return snap, nil
}

func (b *Builder) fillFile(snap *Snapshot) {
	fp := b.coordinator.FilePlayer()
	identifier := fp.Identifier()
	snap.CurrentTracklistUri = &identifier

	item, ok := fp.CurrentItem()
	if !ok {
		snap.CurrentTrack = &TrackInfo{}
		return
	}
	snap.CurrentTrack = &TrackInfo{Artist: item.Artist, Title: item.Title}
	snap.CurrentArtwork = item.Artwork
}

func (b *Builder) fillStream(snap *Snapshot) {
	sp := b.coordinator.StreamPlayer()
	name, _, artwork, artist, track := sp.NowPlaying()
	if name != "" {
		snap.CurrentStream = &name
	}
	snap.CurrentArtwork = artwork
	if sp.CurrentStatus() == player.StatusPlaying && artist != "" && track != "" {
		snap.CurrentTrack = &TrackInfo{Artist: artist, Title: track}
	}
}
