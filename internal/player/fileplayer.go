package player

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// QueuedItem is one entry in a FilePlayer's playback queue. TrackID is
// negative for an ephemeral download, non-negative for a catalog track
// (invariant 6, §3).
type QueuedItem struct {
	Filepath string
	TrackID  int64
	Artist   string
	Title    string
	Artwork  *string
}

// DecoderFactory builds the Decoder a FilePlayer starts for a given file.
// Exposed as a field so tests can substitute a fake that never shells out.
type DecoderFactory func(path string, volume int) Decoder

// FilePlayer plays an ordered queue of QueuedItems one at a time, advancing
// automatically when a track ends.
//
// Grounded on original_source/pijuv2/player/fileplayer.py: the apparent-vs-
// real queue index distinction, the +/-1 sanity-check tolerance in
// play_from_real_queue_index, and auto-skip-on-missing-file-then-stop are
// all carried over unchanged; only the decoder dispatch (mp3player vs
// mpvmusicplayer) is replaced by the Go processDecoder in decoder.go.
type FilePlayer struct {
	mu sync.Mutex

	queue        []QueuedItem
	currentIndex *int
	identifier   string
	volume       int
	status       Status

	decoderFactory DecoderFactory
	currentDecoder Decoder
	generation     uint64

	stateChangeCallback func()
}

func NewFilePlayer(decoderFactory DecoderFactory) *FilePlayer {
	if decoderFactory == nil {
		decoderFactory = func(path string, volume int) Decoder { return newFileDecoder(path, volume) }
	}
	return &FilePlayer{
		decoderFactory: decoderFactory,
		volume:         100,
		status:         StatusStopped,
	}
}

func (p *FilePlayer) SetStateChangeCallback(cb func()) {
	p.mu.Lock()
	p.stateChangeCallback = cb
	p.mu.Unlock()
}

func (p *FilePlayer) notifyLocked() {
	if p.stateChangeCallback != nil {
		cb := p.stateChangeCallback
		go cb()
	}
}

func (p *FilePlayer) CurrentStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *FilePlayer) CurrentVolume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// NumberOfTracks returns the queue length, or nil if the queue is empty —
// mirroring the Python property returning None for an empty list.
func (p *FilePlayer) NumberOfTracks() *int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	n := len(p.queue)
	return &n
}

func (p *FilePlayer) CurrentTrackIndex() *int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneIntPtr(p.currentIndex)
}

// CurrentItem returns the currently playing QueuedItem, or ok=false if
// nothing is queued/playing.
func (p *FilePlayer) CurrentItem() (QueuedItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentIndex == nil {
		return QueuedItem{}, false
	}
	return p.queue[*p.currentIndex], true
}

// VisibleQueue returns the remaining queue starting at the currently
// playing item, matching the Python visible_queue property.
func (p *FilePlayer) VisibleQueue() []QueuedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentIndex == nil {
		return nil
	}
	out := make([]QueuedItem, len(p.queue)-*p.currentIndex)
	copy(out, p.queue[*p.currentIndex:])
	return out
}

func (p *FilePlayer) Identifier() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identifier
}

// SetQueue replaces the queue wholesale. If startPlaying is true and the new
// front item differs from whatever was previously playing, playback jumps
// to index 0; otherwise the new queue is simply published (§4.2) and the
// caller (typically the coordinator, via PlayFromRealQueueIndex) decides
// where to start.
func (p *FilePlayer) SetQueue(items []QueuedItem, identifier string, startPlaying bool) {
	p.mu.Lock()
	if len(items) == 0 {
		p.mu.Unlock()
		p.Stop()
		p.mu.Lock()
		p.identifier = identifier
		p.mu.Unlock()
		return
	}

	var currentlyPlaying *QueuedItem
	if p.currentIndex != nil {
		cur := p.queue[*p.currentIndex]
		currentlyPlaying = &cur
	}
	p.queue = append([]QueuedItem(nil), items...)
	idx := 0
	p.currentIndex = &idx
	p.identifier = identifier
	samefront := currentlyPlaying != nil && currentlyPlaying.TrackID == p.queue[0].TrackID
	p.notifyLocked()
	p.mu.Unlock()

	if startPlaying && !samefront {
		p.playFromRealIndex(0, nil)
	}
}

// AddToQueue appends one item; if nothing is currently playing, starts it.
func (p *FilePlayer) AddToQueue(item QueuedItem) {
	p.mu.Lock()
	p.queue = append(p.queue, item)
	p.identifier = "/queue/"
	startFromFront := p.currentIndex == nil
	p.mu.Unlock()

	if startFromFront {
		p.playFromRealIndex(0, nil)
	}
}

// RemoveFromQueue removes the item at the given apparent index if its
// trackID matches, guarding against the queue having moved on between the
// caller reading it and issuing the removal.
func (p *FilePlayer) RemoveFromQueue(apparentIndex int, trackID int64) bool {
	p.mu.Lock()
	realIndex := apparentIndex
	if p.currentIndex != nil {
		realIndex += *p.currentIndex
	}
	if realIndex < 0 || realIndex >= len(p.queue) || p.queue[realIndex].TrackID != trackID {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue[:realIndex], p.queue[realIndex+1:]...)
	replayIndex := -1
	if p.currentIndex != nil && realIndex == *p.currentIndex {
		replayIndex = *p.currentIndex
	}
	p.mu.Unlock()

	if replayIndex >= 0 {
		p.playFromRealIndex(replayIndex, nil)
	}
	return true
}

// PlayFromApparentQueueIndex resolves index relative to the currently
// playing position, then defers to PlayFromRealQueueIndex.
func (p *FilePlayer) PlayFromApparentQueueIndex(index int, trackID *int64) bool {
	p.mu.Lock()
	real := index
	if p.currentIndex != nil {
		real += *p.currentIndex
	}
	p.mu.Unlock()
	return p.playFromRealIndex(real, trackID)
}

func (p *FilePlayer) PlayFromRealQueueIndex(index int, trackID *int64) bool {
	return p.playFromRealIndex(index, trackID)
}

// playFromRealIndex is play_from_real_queue_index: if trackID is given,
// sanity-check index against it (tolerating +/-1 drift), then play songs
// starting at index, auto-advancing past any missing file, stopping if the
// queue is exhausted.
func (p *FilePlayer) playFromRealIndex(index int, trackID *int64) bool {
	p.mu.Lock()
	if trackID != nil {
		if !(index >= 0 && index < len(p.queue) && p.queue[index].TrackID == *trackID) {
			switch {
			case index > 0 && p.queue[index-1].TrackID == *trackID:
				index--
			case index < len(p.queue)-1 && p.queue[index+1].TrackID == *trackID:
				index++
			default:
				p.mu.Unlock()
				return false
			}
		}
	}
	p.mu.Unlock()

	started := false
	for index >= 0 && index < p.queueLen() {
		if p.playSong(p.itemAt(index).Filepath) {
			started = true
			break
		}
		index++
	}

	if started {
		p.mu.Lock()
		p.currentIndex = &index
		p.notifyLocked()
		p.mu.Unlock()
		return true
	}
	p.Stop()
	return false
}

func (p *FilePlayer) queueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *FilePlayer) itemAt(index int) QueuedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue[index]
}

// playSong stops any current decoder, waits the mandatory 1-second settle
// if one was actually playing, then starts a fresh decoder for path.
// Returns false (leaving state indeterminate, per the original docstring)
// if path no longer exists on disk.
func (p *FilePlayer) playSong(path string) bool {
	wasPlaying := p.stopDecoder()

	if _, err := os.Stat(path); err != nil {
		slog.Warn("file player: skipping missing file", "path", path)
		return false
	}
	if wasPlaying {
		time.Sleep(1 * time.Second)
	}

	p.mu.Lock()
	decoder := p.decoderFactory(path, p.volume)
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	if err := decoder.Start(); err != nil {
		slog.Warn("file player: failed to start decoder", "path", path, "error", err)
		return false
	}

	p.mu.Lock()
	p.currentDecoder = decoder
	p.status = StatusPlaying
	p.mu.Unlock()

	go p.watchDecoder(decoder, gen)
	return true
}

// watchDecoder waits for a decoder to exit on its own (end of file) and
// advances to the next track, unless a newer decoder has since replaced it.
func (p *FilePlayer) watchDecoder(d Decoder, gen uint64) {
	<-d.Done()
	p.mu.Lock()
	current := p.generation == gen
	p.mu.Unlock()
	if current {
		p.onMusicEnd()
	}
}

func (p *FilePlayer) onMusicEnd() {
	p.Next()
}

// stopDecoder terminates the current decoder, if any, and reports whether
// one was running. Bumping the generation first keeps the stopped decoder's
// watcher from treating this deliberate stop as end of track.
func (p *FilePlayer) stopDecoder() bool {
	p.mu.Lock()
	d := p.currentDecoder
	p.currentDecoder = nil
	p.generation++
	p.mu.Unlock()
	if d == nil {
		return false
	}
	d.Stop()
	return true
}

func (p *FilePlayer) Next() {
	p.mu.Lock()
	if p.currentIndex == nil {
		p.mu.Unlock()
		return
	}
	nextIndex := *p.currentIndex + 1
	hasNext := nextIndex < len(p.queue)
	p.mu.Unlock()

	if hasNext {
		p.playFromRealIndex(nextIndex, nil)
		return
	}
	p.Stop()
	p.ClearQueue()
}

func (p *FilePlayer) Prev() {
	p.mu.Lock()
	if p.currentIndex == nil {
		p.mu.Unlock()
		return
	}
	target := *p.currentIndex - 1
	if target < 0 {
		target = 0
	}
	p.mu.Unlock()
	p.playFromRealIndex(target, nil)
}

func (p *FilePlayer) Pause() {
	p.mu.Lock()
	d := p.currentDecoder
	p.status = StatusPaused
	p.generation++
	p.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}

func (p *FilePlayer) Resume() {
	p.mu.Lock()
	idx := cloneIntPtr(p.currentIndex)
	p.mu.Unlock()
	if idx != nil {
		p.playFromRealIndex(*idx, nil)
	}
}

func (p *FilePlayer) SetVolume(v int) {
	p.mu.Lock()
	p.volume = v
	d := p.currentDecoder
	p.mu.Unlock()
	if d != nil {
		d.SetVolume(v)
	}
}

func (p *FilePlayer) Stop() {
	p.stopDecoder()
	p.mu.Lock()
	p.identifier = ""
	p.status = StatusStopped
	p.currentIndex = nil
	p.mu.Unlock()
}

func (p *FilePlayer) ClearQueue() {
	p.Stop()
	p.mu.Lock()
	p.queue = nil
	p.currentIndex = nil
	p.mu.Unlock()
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
