package player

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeStreamDecoderFactory() func(url string, volume int) Decoder {
	return func(url string, volume int) Decoder { return newFakeDecoder() }
}

// Regression test for the bug where Resume rebuilt StreamOptions without
// its poll-source fields, silently wiping the poller's sources: pause then
// resume must not stop now-playing metadata from updating.
func TestStreamPlayerResumeKeepsPollingNowPlaying(t *testing.T) {
	var artist atomic.Value
	artist.Store("First Artist")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"artist":%q,"track":"Some Track"}`, artist.Load().(string))
	}))
	defer server.Close()

	poller := NewPoller()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Start(ctx)

	sp := NewStreamPlayer(poller, fakeStreamDecoderFactory())
	sp.Play(StreamOptions{
		Name:          "Station",
		URL:           "http://stream.example/audio",
		NowPlayingURL: server.URL,
		NowPlayingJq:  ".",
	})

	require.Eventually(t, func() bool {
		_, _, _, nowArtist, _ := sp.NowPlaying()
		return nowArtist == "First Artist"
	}, 2*time.Second, 10*time.Millisecond, "poller should fetch now-playing info while playing")

	sp.Pause()
	sp.Resume()

	artist.Store("Second Artist")
	require.Eventually(t, func() bool {
		_, _, _, nowArtist, _ := sp.NowPlaying()
		return nowArtist == "Second Artist"
	}, 2*time.Second, 10*time.Millisecond, "poller must still be armed with NowPlayingURL after resume")
}
