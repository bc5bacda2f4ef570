package player

import (
	"sync"
	"time"

	"github.com/pijudev/piju/internal/apierr"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
)

// CoordinatorStore is the subset of *catalog.Store the coordinator needs to
// resolve a play/queue request into playable items.
type CoordinatorStore interface {
	GetAlbumByID(id int64) (catalog.Album, error)
	TracksByAlbumSorted(albumID int64, diskNr *int) ([]catalog.Track, error)
	GetPlaylistByID(id int64) (catalog.Playlist, error)
	GetTrackByID(id int64) (catalog.Track, error)
	GetAllRadioStations() ([]catalog.RadioStation, error)
	GetRadioStationByID(id int64) (catalog.RadioStation, error)
}

// DownloadLookup is the subset of *download.Registry the coordinator needs
// to resolve a negative (fake) track id back into its Download.
type DownloadLookup interface {
	Info(fakeID int64) (catalog.Download, bool)
}

// YoutubeEnqueuer is the subset of *worker.Worker the coordinator needs to
// kick off an asynchronous fetch. Defined here, rather than importing
// worker directly, to keep this package's dependency graph a leaf.
type YoutubeEnqueuer interface {
	EnqueueYoutubeFetch(url, downloadDir string, callback func(url string, downloads []catalog.Download))
}

// PlayRequest is the tagged union POST /player/play accepts: exactly one of
// AlbumID, PlaylistID, QueueIndex, TrackID, YoutubeURL, RadioID must be set
// (§4.1). StartTrackID and DiskNr further qualify an AlbumID/PlaylistID
// request.
type PlayRequest struct {
	AlbumID      *int64
	PlaylistID   *int64
	QueueIndex   *int
	TrackID      *int64
	YoutubeURL   string
	RadioID      *int64
	StartTrackID *int64
	DiskNr       *int
}

// QueuePutRequest is the tagged union PUT /queue/ accepts: exactly one of
// AlbumID, TrackID, URL, QueueIDs must be set.
type QueuePutRequest struct {
	AlbumID  *int64
	Disk     *int
	TrackID  *int64
	URL      string
	QueueIDs []int64
}

// Coordinator is the player coordinator (C8): it arbitrates between the
// file player and the stream player, enforcing the mandatory 1-second
// pause-then-switch settle whenever the currently selected player changes,
// and resolves catalog/queue/radio/YouTube requests into the right player
// calls.
//
// Grounded on original_source/pijuv2/player/playercoordinator.py for the
// arbitration contract (select(), the hard-coded one-second sleep, request
// validation), adapted to Go's explicit Player interface (§9) in place of
// Python's duck typing.
type Coordinator struct {
	mu sync.Mutex

	store       CoordinatorStore
	file        *FilePlayer
	stream      *StreamPlayer
	current     Player
	fetcher     YoutubeEnqueuer
	downloads   DownloadLookup
	downloadDir string

	stations   []catalog.RadioStation
	stationIdx int
}

// NewCoordinator wires file and stream together, selecting the file player
// as the initial default, and arranges for either player's state changes to
// invoke onStateChange (typically the snapshot-and-broadcast callback C9/C11
// install).
func NewCoordinator(file *FilePlayer, stream *StreamPlayer, store CoordinatorStore, fetcher YoutubeEnqueuer, downloads DownloadLookup, downloadDir string, onStateChange func()) *Coordinator {
	c := &Coordinator{
		store:       store,
		file:        file,
		stream:      stream,
		current:     file,
		fetcher:     fetcher,
		downloads:   downloads,
		downloadDir: downloadDir,
	}
	file.SetStateChangeCallback(onStateChange)
	stream.SetStateChangeCallback(onStateChange)
	return c
}

// CurrentKind reports which backend is currently selected, for the
// now-playing snapshot.
func (c *Coordinator) CurrentKind() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == Player(c.stream) {
		return "stream"
	}
	return "file"
}

func (c *Coordinator) currentPlayer() Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Current exposes the currently selected Player generically, for callers
// (the snapshot builder) that only need the shared capability set.
func (c *Coordinator) Current() Player {
	return c.currentPlayer()
}

// FilePlayer and StreamPlayer expose the concrete players for the snapshot
// builder, which needs details (current item, now-playing artist/title)
// beyond the shared Player interface.
func (c *Coordinator) FilePlayer() *FilePlayer     { return c.file }
func (c *Coordinator) StreamPlayer() *StreamPlayer { return c.stream }

// selectPlayer makes desired current, pausing whatever was playing and
// sleeping the mandatory one second if a switch away from a live player
// actually occurred (§4.1: "switching players always incurs the pause
// settle, even if the caller only meant to change source within the same
// backend" is NOT the rule — the settle is specifically for a cross-player
// switch while something was audibly playing).
func (c *Coordinator) selectPlayer(desired Player) {
	c.mu.Lock()
	cur := c.current
	switching := cur != desired
	c.current = desired
	c.mu.Unlock()

	if switching && cur != nil && cur.CurrentStatus() == StatusPlaying {
		cur.Pause()
		time.Sleep(1 * time.Second)
	}
}

func (c *Coordinator) isStreamCurrent() bool {
	return c.CurrentKind() == "stream"
}

// Play validates and dispatches a play request.
func (c *Coordinator) Play(req PlayRequest) error {
	if err := validatePlayRequest(req); err != nil {
		return err
	}

	switch {
	case req.RadioID != nil:
		return c.playRadio(*req.RadioID)
	case req.YoutubeURL != "":
		return c.playYoutube(req.YoutubeURL)
	case req.QueueIndex != nil:
		c.selectPlayer(c.file)
		if !c.file.PlayFromApparentQueueIndex(*req.QueueIndex, nil) {
			return apierr.New(apierr.KindConflict, "queue index out of range")
		}
		return nil
	default:
		tracks, identifier, err := c.resolveFileTracks(req)
		if err != nil {
			return err
		}
		return c.playFileTracks(tracks, identifier, req.StartTrackID)
	}
}

// validatePlayRequest enforces the tagged-union shape: exactly one of the
// six selector fields may be set.
func validatePlayRequest(req PlayRequest) error {
	count := 0
	if req.AlbumID != nil {
		count++
	}
	if req.PlaylistID != nil {
		count++
	}
	if req.QueueIndex != nil {
		count++
	}
	if req.TrackID != nil {
		count++
	}
	if req.YoutubeURL != "" {
		count++
	}
	if req.RadioID != nil {
		count++
	}
	if count != 1 {
		return apierr.New(apierr.KindBadInput,
			"play request must set exactly one of albumId, playlistId, queueIndex, trackId, youtubeUrl, radioId")
	}
	return nil
}

// resolveFileTracks turns an album/playlist/track selector into an ordered
// track list plus the identifier the file player publishes in its snapshot.
func (c *Coordinator) resolveFileTracks(req PlayRequest) ([]catalog.Track, string, error) {
	switch {
	case req.AlbumID != nil:
		if _, err := c.store.GetAlbumByID(*req.AlbumID); err != nil {
			return nil, "", err
		}
		tracks, err := c.store.TracksByAlbumSorted(*req.AlbumID, req.DiskNr)
		if err != nil {
			return nil, "", err
		}
		return tracks, idcodec.FormatLink("albums", *req.AlbumID), nil

	case req.PlaylistID != nil:
		playlist, err := c.store.GetPlaylistByID(*req.PlaylistID)
		if err != nil {
			return nil, "", err
		}
		tracks := make([]catalog.Track, 0, len(playlist.Entries))
		for _, e := range playlist.Entries {
			t, err := c.store.GetTrackByID(e.TrackID)
			if err != nil {
				return nil, "", err
			}
			tracks = append(tracks, t)
		}
		return tracks, idcodec.FormatLink("playlists", *req.PlaylistID), nil

	case req.TrackID != nil:
		t, err := c.store.GetTrackByID(*req.TrackID)
		if err != nil {
			return nil, "", err
		}
		return []catalog.Track{t}, idcodec.FormatLink("tracks", *req.TrackID), nil
	}
	return nil, "", apierr.New(apierr.KindBadInput, "unsupported play request")
}

func (c *Coordinator) playFileTracks(tracks []catalog.Track, identifier string, startTrackID *int64) error {
	if len(tracks) == 0 {
		return apierr.New(apierr.KindUnknownID, "play request resolved to no tracks")
	}
	c.selectPlayer(c.file)

	items := make([]QueuedItem, len(tracks))
	for i, t := range tracks {
		items[i] = trackToQueuedItem(t)
	}
	c.file.SetQueue(items, identifier, false)

	startIndex := 0
	if startTrackID != nil {
		for i, t := range tracks {
			if t.ID == *startTrackID {
				startIndex = i
				break
			}
		}
	}
	c.file.PlayFromRealQueueIndex(startIndex, nil)
	return nil
}

func (c *Coordinator) playYoutube(url string) error {
	c.selectPlayer(c.file)
	c.fetcher.EnqueueYoutubeFetch(url, c.downloadDir, func(_ string, downloads []catalog.Download) {
		if len(downloads) == 0 {
			return
		}
		items := make([]QueuedItem, len(downloads))
		for i, d := range downloads {
			items[i] = downloadToQueuedItem(d)
		}
		c.file.SetQueue(items, idcodec.FormatLink("player", 0), true)
	})
	return nil
}

func (c *Coordinator) playRadio(id int64) error {
	station, err := c.store.GetRadioStationByID(id)
	if err != nil {
		return err
	}
	stations, err := c.store.GetAllRadioStations()
	if err != nil {
		return err
	}
	idx := indexOfStation(stations, id)

	c.selectPlayer(c.stream)
	c.mu.Lock()
	c.stations = stations
	c.stationIdx = idx
	c.mu.Unlock()

	c.stream.Play(streamOptionsFor(station, idx, len(stations)))
	return nil
}

func indexOfStation(stations []catalog.RadioStation, id int64) int {
	for i, s := range stations {
		if s.ID == id {
			return i
		}
	}
	return 0
}

func streamOptionsFor(s catalog.RadioStation, idx, total int) StreamOptions {
	opts := StreamOptions{
		Name:          s.Name,
		URL:           s.URL,
		Index:         idx,
		Total:         total,
		NowPlayingURL: s.NowPlayingURL,
		NowPlayingJq:  s.NowPlayingJq,
		ArtworkURL:    s.NowPlayingArtworkURL,
		ArtworkJq:     s.NowPlayingArtworkJq,
	}
	if s.ArtworkURL != "" {
		art := s.ArtworkURL
		opts.StationArtwork = &art
	}
	return opts
}

// Pause pauses whichever player is current. A no-op if nothing is playing.
func (c *Coordinator) Pause() error {
	c.currentPlayer().Pause()
	return nil
}

// Resume resumes playback. If preferred names a player ("local" or
// "radio") it is selected first (with the usual switch settle applying if
// something else was audibly playing); otherwise the currently selected
// player resumes.
func (c *Coordinator) Resume(preferred *string) error {
	desired := c.currentPlayer()
	if preferred != nil {
		switch *preferred {
		case "local":
			desired = c.file
		case "radio":
			desired = c.stream
		default:
			return apierr.Newf(apierr.KindBadInput, "unknown player %q", *preferred)
		}
	}
	if desired == nil {
		desired = c.file
	}
	c.selectPlayer(desired)
	desired.Resume()
	return nil
}

// Stop stops whichever player is current.
func (c *Coordinator) Stop() error {
	c.currentPlayer().Stop()
	return nil
}

// Next advances to the next track (file player) or the next station
// (stream player, no wraparound at the end of the list — REDESIGN FLAG
// resolution, §4.1 Open Questions).
func (c *Coordinator) Next() error {
	if c.isStreamCurrent() {
		return c.adjacentStation(1)
	}
	c.file.Next()
	return nil
}

// Prev mirrors Next for the previous direction.
func (c *Coordinator) Prev() error {
	if c.isStreamCurrent() {
		return c.adjacentStation(-1)
	}
	c.file.Prev()
	return nil
}

func (c *Coordinator) adjacentStation(delta int) error {
	c.mu.Lock()
	stations := c.stations
	idx := c.stationIdx + delta
	c.mu.Unlock()

	if idx < 0 || idx >= len(stations) {
		return nil
	}
	return c.playRadio(stations[idx].ID)
}

// SetVolume applies v to both players, so the volume a listener set stays
// in effect across a later player switch.
func (c *Coordinator) SetVolume(v int) error {
	c.file.SetVolume(v)
	c.stream.SetVolume(v)
	return nil
}

// CurrentVolume reports the volume of whichever player is current.
func (c *Coordinator) CurrentVolume() int {
	return c.currentPlayer().CurrentVolume()
}

// CurrentStatus reports the status of whichever player is current.
func (c *Coordinator) CurrentStatus() Status {
	return c.currentPlayer().CurrentStatus()
}

// QueueGet returns the file player's visible queue. A Conflict error if the
// stream player is current (§4.1 Errors).
func (c *Coordinator) QueueGet() ([]QueuedItem, error) {
	if c.isStreamCurrent() {
		return nil, apierr.New(apierr.KindConflict, "queue not available while streaming")
	}
	return c.file.VisibleQueue(), nil
}

// QueuePut appends to the file player's queue, resolving the request's
// single selector (album, track, url, or an explicit list of queue ids).
func (c *Coordinator) QueuePut(req QueuePutRequest) error {
	if c.isStreamCurrent() {
		return apierr.New(apierr.KindConflict, "queue not available while streaming")
	}

	switch {
	case req.AlbumID != nil:
		tracks, err := c.store.TracksByAlbumSorted(*req.AlbumID, req.Disk)
		if err != nil {
			return err
		}
		for _, t := range tracks {
			c.file.AddToQueue(trackToQueuedItem(t))
		}
		return nil

	case req.TrackID != nil:
		t, err := c.store.GetTrackByID(*req.TrackID)
		if err != nil {
			return err
		}
		c.file.AddToQueue(trackToQueuedItem(t))
		return nil

	case req.URL != "":
		c.fetcher.EnqueueYoutubeFetch(req.URL, c.downloadDir, func(_ string, downloads []catalog.Download) {
			for _, d := range downloads {
				c.file.AddToQueue(downloadToQueuedItem(d))
			}
		})
		return nil

	case req.QueueIDs != nil:
		items := make([]QueuedItem, 0, len(req.QueueIDs))
		for _, id := range req.QueueIDs {
			item, err := c.resolveQueueItem(id)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		c.file.SetQueue(items, idcodec.FormatLink("queue", 0), false)
		return nil

	default:
		return apierr.New(apierr.KindBadInput, "queue put request must set exactly one of album, track, url, queue")
	}
}

func (c *Coordinator) resolveQueueItem(id int64) (QueuedItem, error) {
	if id >= 0 {
		t, err := c.store.GetTrackByID(id)
		if err != nil {
			return QueuedItem{}, err
		}
		return trackToQueuedItem(t), nil
	}
	d, ok := c.downloads.Info(id)
	if !ok {
		return QueuedItem{}, apierr.Newf(apierr.KindUnknownID, "unknown download id %d", id)
	}
	return downloadToQueuedItem(d), nil
}

// QueueDelete removes the item at apparentIndex if it still carries
// trackID, guarding against the queue having moved on concurrently.
func (c *Coordinator) QueueDelete(apparentIndex int, trackID int64) (bool, error) {
	if c.isStreamCurrent() {
		return false, apierr.New(apierr.KindConflict, "queue not available while streaming")
	}
	return c.file.RemoveFromQueue(apparentIndex, trackID), nil
}

func trackToQueuedItem(t catalog.Track) QueuedItem {
	item := QueuedItem{Filepath: t.Filepath, TrackID: t.ID, Artist: t.Artist, Title: t.Title}
	if t.ArtworkID != nil {
		url := idcodec.FormatLink("artwork", *t.ArtworkID)
		item.Artwork = &url
	}
	return item
}

func downloadToQueuedItem(d catalog.Download) QueuedItem {
	item := QueuedItem{Filepath: d.Filepath, TrackID: d.FakeTrackID, Artist: d.Artist, Title: d.Title}
	if d.ArtworkURL != "" {
		url := d.ArtworkURL
		item.Artwork = &url
	}
	return item
}
