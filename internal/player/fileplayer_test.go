package player

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDecoder never shells out; Stop closes Done the same way processDecoder
// eventually does once its context cancels, so watchDecoder's generation
// check gets exercised the same way it would against the real decoder.
type fakeDecoder struct {
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
	volume  int
}

func newFakeDecoder() *fakeDecoder { return &fakeDecoder{done: make(chan struct{})} }

func (d *fakeDecoder) Start() error { return nil }

func (d *fakeDecoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopped {
		d.stopped = true
		close(d.done)
	}
}

func (d *fakeDecoder) SetVolume(v int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
}

func (d *fakeDecoder) Done() <-chan struct{} { return d.done }

func fakeDecoderFactory() DecoderFactory {
	return func(path string, volume int) Decoder { return newFakeDecoder() }
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
	return path
}

// Scenario 3 (§8): a trackID passed alongside an index that has drifted by
// exactly one position is tolerated by snapping to the neighbor that
// actually matches, rather than rejected outright.
func TestPlayFromRealIndexToleratesOffByOneDrift(t *testing.T) {
	p := NewFilePlayer(fakeDecoderFactory())
	track1 := writeTempFile(t, "1.mp3")
	track2 := writeTempFile(t, "2.mp3")

	p.SetQueue([]QueuedItem{
		{Filepath: track1, TrackID: 123},
		{Filepath: track2, TrackID: 234},
	}, "/queue/", false)

	require.True(t, p.PlayFromRealQueueIndex(0, ptrInt64(234)))
	idx := p.CurrentTrackIndex()
	require.NotNil(t, idx)
	require.Equal(t, 1, *idx)
	item, ok := p.CurrentItem()
	require.True(t, ok)
	require.Equal(t, int64(234), item.TrackID)

	require.True(t, p.PlayFromRealQueueIndex(1, ptrInt64(123)))
	idx = p.CurrentTrackIndex()
	require.NotNil(t, idx)
	require.Equal(t, 0, *idx)
	item, ok = p.CurrentItem()
	require.True(t, ok)
	require.Equal(t, int64(123), item.TrackID)
}

// Scenario 4 (§8): a missing file at the front of the queue is skipped
// automatically and playback starts at the next real file.
func TestSetQueueSkipsMissingFileAutomatically(t *testing.T) {
	p := NewFilePlayer(fakeDecoderFactory())
	missing := filepath.Join(t.TempDir(), "missing.mp3")
	exists := writeTempFile(t, "exists.mp3")

	p.SetQueue([]QueuedItem{
		{Filepath: missing, TrackID: 123},
		{Filepath: exists, TrackID: 456},
	}, "/queue/", true)

	require.Eventually(t, func() bool {
		return p.CurrentStatus() == StatusPlaying
	}, 2*time.Second, 10*time.Millisecond)

	item, ok := p.CurrentItem()
	require.True(t, ok)
	require.Equal(t, int64(456), item.TrackID)
}

// Scenario 6 (§8): removing the currently playing entry by its apparent
// (0-relative-to-current) index advances to whatever was at the next real
// index, not apparent index 0 of the post-removal queue.
func TestRemoveFromQueueAdvancesByRealIndex(t *testing.T) {
	p := NewFilePlayer(fakeDecoderFactory())
	a := writeTempFile(t, "a.mp3")
	b := writeTempFile(t, "b.mp3")
	c := writeTempFile(t, "c.mp3")
	d := writeTempFile(t, "d.mp3")

	p.SetQueue([]QueuedItem{
		{Filepath: a, TrackID: 1},
		{Filepath: b, TrackID: 2},
		{Filepath: c, TrackID: 3},
		{Filepath: d, TrackID: 4},
	}, "/queue/", false)
	require.True(t, p.PlayFromRealQueueIndex(2, nil))

	current, ok := p.CurrentItem()
	require.True(t, ok)
	require.Equal(t, int64(3), current.TrackID)

	require.True(t, p.RemoveFromQueue(0, current.TrackID))

	require.Eventually(t, func() bool {
		item, ok := p.CurrentItem()
		return ok && item.TrackID == 4
	}, 2*time.Second, 10*time.Millisecond)

	idx := p.CurrentTrackIndex()
	require.NotNil(t, idx)
	require.Equal(t, 2, *idx)
}

func ptrInt64(v int64) *int64 { return &v }
