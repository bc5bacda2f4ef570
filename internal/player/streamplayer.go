package player

import (
	"sync"
)

// StreamOptions are the arguments to StreamPlayer.Play — a struct in place
// of original_source/pijuv2/player/streamplayer.py:play's nine positional
// parameters, extended per §4.3 with the now-playing/artwork poll sources
// streamplayer.py's simpler version doesn't carry.
type StreamOptions struct {
	Name                 string
	URL                  string
	StationArtwork       *string
	Index                int
	Total                int
	NowPlayingURL        string
	NowPlayingJq         string
	ArtworkURL           string
	ArtworkJq            string
}

// StreamPlayer plays one network radio URL at a time and, while playing,
// keeps an adaptive Poller fed with now-playing/artwork sources bound to
// the current station.
//
// Grounded on original_source/pijuv2/player/streamplayer.py for the
// play/pause/resume/stop contract ("cannot truly pause a stream, so
// terminate and pretend"), extended with the dynamicInfo/poller fields
// §4.3-§4.4 add beyond that file's literal content.
type StreamPlayer struct {
	mu sync.Mutex

	status Status
	volume int

	currentName            string
	currentURL             string
	stationArtwork         *string
	currentlyPlayingArtwork *string
	currentTrackIndex      *int
	numberOfTracksVal      *int
	nowPlayingArtist       string
	nowPlayingTrack        string

	// Poll sources bound to the current station, persisted here (rather
	// than living only in the transient StreamOptions argument to Play) so
	// Resume can rearm the poller without losing them.
	nowPlayingURL string
	nowPlayingJq  string
	artworkURL    string
	artworkJq     string

	decoderFactory func(url string, volume int) Decoder
	currentDecoder Decoder

	poller              *Poller
	stateChangeCallback func()
}

func NewStreamPlayer(poller *Poller, decoderFactory func(url string, volume int) Decoder) *StreamPlayer {
	if decoderFactory == nil {
		decoderFactory = func(url string, volume int) Decoder { return newStreamDecoder(url, volume) }
	}
	return &StreamPlayer{
		status:         StatusStopped,
		volume:         100,
		decoderFactory: decoderFactory,
		poller:         poller,
	}
}

func (p *StreamPlayer) SetStateChangeCallback(cb func()) {
	p.mu.Lock()
	p.stateChangeCallback = cb
	p.mu.Unlock()
}

func (p *StreamPlayer) notify() {
	p.mu.Lock()
	cb := p.stateChangeCallback
	p.mu.Unlock()
	if cb != nil {
		go cb()
	}
}

func (p *StreamPlayer) CurrentStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *StreamPlayer) CurrentVolume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *StreamPlayer) NumberOfTracks() *int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneIntPtr(p.numberOfTracksVal)
}

func (p *StreamPlayer) CurrentTrackIndex() *int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneIntPtr(p.currentTrackIndex)
}

// NowPlaying returns the station name, stream URL, current artwork URL
// (falling back to the station's static artwork), and the polled
// artist/title pair, for the now-playing snapshot builder.
func (p *StreamPlayer) NowPlaying() (name, url string, artwork *string, artist, track string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	art := p.currentlyPlayingArtwork
	if art == nil {
		art = p.stationArtwork
	}
	return p.currentName, p.currentURL, art, p.nowPlayingArtist, p.nowPlayingTrack
}

// Play terminates any existing child, spawns a new decoder on opts.URL,
// arms the poller with up to two sources (now-playing info, artwork), and
// wakes it.
func (p *StreamPlayer) Play(opts StreamOptions) {
	p.stopDecoder()

	p.mu.Lock()
	p.status = StatusPlaying
	p.currentName = opts.Name
	p.currentURL = opts.URL
	p.stationArtwork = opts.StationArtwork
	p.currentlyPlayingArtwork = opts.StationArtwork
	idx := opts.Index
	total := opts.Total
	p.currentTrackIndex = &idx
	p.numberOfTracksVal = &total
	p.nowPlayingArtist = ""
	p.nowPlayingTrack = ""
	p.nowPlayingURL = opts.NowPlayingURL
	p.nowPlayingJq = opts.NowPlayingJq
	p.artworkURL = opts.ArtworkURL
	p.artworkJq = opts.ArtworkJq
	volume := p.volume
	p.mu.Unlock()

	decoder := p.decoderFactory(opts.URL, volume)
	_ = decoder.Start()
	p.mu.Lock()
	p.currentDecoder = decoder
	p.mu.Unlock()

	if p.poller != nil {
		p.poller.SetSources(p.sourcesFor(opts))
	}
	p.notify()
}

// sourcesFor builds one poller Source per configured feed (now-playing,
// artwork), even when both share a URL; the poller coalesces Sources with
// the same URL into a single GET, and each save callback stays independent.
func (p *StreamPlayer) sourcesFor(opts StreamOptions) []Source {
	var sources []Source
	if opts.NowPlayingURL != "" {
		sources = append(sources, Source{
			URL:      opts.NowPlayingURL,
			JQFilter: opts.NowPlayingJq,
			Save:     p.saveTrackInfo,
		})
	}
	if opts.ArtworkURL != "" {
		sources = append(sources, Source{
			URL:      opts.ArtworkURL,
			JQFilter: opts.ArtworkJq,
			Save:     p.saveArtwork,
		})
	}
	return sources
}

// saveTrackInfo accepts a {artist, track} map (or nil to clear), updates
// the local fields, and fires a state-change callback if anything changed.
func (p *StreamPlayer) saveTrackInfo(value any) int {
	var artist, track string
	if m, ok := value.(map[string]any); ok {
		artist, _ = m["artist"].(string)
		track, _ = m["track"].(string)
	}

	p.mu.Lock()
	changed := p.nowPlayingArtist != artist || p.nowPlayingTrack != track
	p.nowPlayingArtist = artist
	p.nowPlayingTrack = track
	p.mu.Unlock()

	if changed {
		p.notify()
	}
	if artist != "" && track != "" {
		return 60
	}
	return 30
}

// saveArtwork accepts a string URL (or nil to clear), falling back to the
// station's static artwork when absent.
func (p *StreamPlayer) saveArtwork(value any) int {
	url, _ := value.(string)

	p.mu.Lock()
	if url == "" {
		p.currentlyPlayingArtwork = p.stationArtwork
	} else {
		p.currentlyPlayingArtwork = &url
	}
	p.mu.Unlock()

	if url != "" {
		return 60
	}
	return 30
}

// Pause terminates the child (streams cannot truly pause), resets the
// artwork back to the station default, and suspends the poller.
func (p *StreamPlayer) Pause() {
	p.stopDecoder()
	p.mu.Lock()
	p.status = StatusPaused
	p.currentlyPlayingArtwork = p.stationArtwork
	p.mu.Unlock()
	if p.poller != nil {
		p.poller.Suspend()
	}
	p.notify()
}

// Resume re-spawns the decoder on the last-played URL and wakes the
// poller. A no-op if nothing was ever played.
func (p *StreamPlayer) Resume() {
	p.mu.Lock()
	name := p.currentName
	url := p.currentURL
	artwork := p.stationArtwork
	idx := p.currentTrackIndex
	total := p.numberOfTracksVal
	nowPlayingURL := p.nowPlayingURL
	nowPlayingJq := p.nowPlayingJq
	artworkURL := p.artworkURL
	artworkJq := p.artworkJq
	p.mu.Unlock()

	if name == "" {
		return
	}
	opts := StreamOptions{
		Name:           name,
		URL:            url,
		StationArtwork: artwork,
		NowPlayingURL:  nowPlayingURL,
		NowPlayingJq:   nowPlayingJq,
		ArtworkURL:     artworkURL,
		ArtworkJq:      artworkJq,
	}
	if idx != nil {
		opts.Index = *idx
	}
	if total != nil {
		opts.Total = *total
	}
	p.Play(opts)
}

// Stop terminates the child, clears all state, and suspends the poller.
func (p *StreamPlayer) Stop() {
	p.stopDecoder()
	p.mu.Lock()
	p.status = StatusStopped
	p.currentName = ""
	p.currentURL = ""
	p.stationArtwork = nil
	p.currentlyPlayingArtwork = nil
	p.currentTrackIndex = nil
	p.numberOfTracksVal = nil
	p.nowPlayingArtist = ""
	p.nowPlayingTrack = ""
	p.nowPlayingURL = ""
	p.nowPlayingJq = ""
	p.artworkURL = ""
	p.artworkJq = ""
	p.mu.Unlock()
	if p.poller != nil {
		p.poller.Suspend()
	}
	p.notify()
}

func (p *StreamPlayer) SetVolume(v int) {
	p.mu.Lock()
	p.volume = v
	d := p.currentDecoder
	p.mu.Unlock()
	if d != nil {
		d.SetVolume(v)
	}
}

func (p *StreamPlayer) stopDecoder() {
	p.mu.Lock()
	d := p.currentDecoder
	p.currentDecoder = nil
	p.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}
