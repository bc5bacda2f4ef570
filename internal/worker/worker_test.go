package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pijudev/piju/internal/catalog"
)

type fakeScanner struct{ scanned []string }

func (f *fakeScanner) ScanDirectory(root string) error { f.scanned = append(f.scanned, root); return nil }

type fakeTidy struct{ calls []string }

func (f *fakeTidy) DeleteMissingTracks() (int, error)       { f.calls = append(f.calls, "missing"); return 0, nil }
func (f *fakeTidy) DeleteAlbumsWithoutTracks() (int, error) { f.calls = append(f.calls, "albums"); return 0, nil }
func (f *fakeTidy) DeleteArtworkWithoutTracks() (int, error) {
	f.calls = append(f.calls, "artwork")
	return 0, nil
}
func (f *fakeTidy) DeleteEmptyGenres() (int, error) { f.calls = append(f.calls, "genres"); return 0, nil }

type fakeDownloader struct{ urls []string }

func (f *fakeDownloader) FetchAudio(url, dir string) ([]catalog.Download, error) {
	f.urls = append(f.urls, url)
	return []catalog.Download{{SourceURL: url, FakeTrackID: -1}}, nil
}

func TestWorkerProcessesRequestsSequentiallyAndReportsStatus(t *testing.T) {
	scanner := &fakeScanner{}
	tidy := &fakeTidy{}
	downloader := &fakeDownloader{}

	var mu sync.Mutex
	var statuses []string
	onStatus := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s)
	}

	w := New(scanner, tidy, downloader, nil, onStatus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	done := make(chan struct{})
	w.Enqueue(Request{Kind: ScanDirectory, Path: "/music"})
	w.Enqueue(Request{Kind: DeleteMissingTracks})
	w.Enqueue(Request{
		Kind: FetchFromYouTube,
		URL:  "https://example.com/v",
		FetchCallback: func(url string, downloads []catalog.Download) {
			close(done)
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker to drain queue")
	}

	require.Equal(t, []string{"/music"}, scanner.scanned)
	require.Equal(t, []string{"missing"}, tidy.calls)
	require.Equal(t, []string{"https://example.com/v"}, downloader.urls)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, statuses, "Idle")
	assert.Contains(t, statuses, ScanDirectory.String())
}

type fakeHistory struct {
	cached map[string][]catalog.Download
}

func (f *fakeHistory) CachedDownloads(url string) ([]catalog.Download, bool) {
	d, ok := f.cached[url]
	return d, ok
}

func TestFetchFromYouTubeUsesCachedDownloadsWhenAvailable(t *testing.T) {
	downloader := &fakeDownloader{}
	history := &fakeHistory{cached: map[string][]catalog.Download{
		"https://example.com/v": {{SourceURL: "https://example.com/v", FakeTrackID: -5}},
	}}
	w := New(&fakeScanner{}, &fakeTidy{}, downloader, history, func(string) {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	done := make(chan []catalog.Download, 1)
	w.Enqueue(Request{
		Kind: FetchFromYouTube,
		URL:  "https://example.com/v",
		FetchCallback: func(url string, downloads []catalog.Download) {
			done <- downloads
		},
	})

	select {
	case got := <-done:
		require.Len(t, got, 1)
		assert.Equal(t, int64(-5), got[0].FakeTrackID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	assert.Empty(t, downloader.urls, "downloader should not be invoked when cache hits")
}
