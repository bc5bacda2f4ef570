// Package worker implements the single-consumer request queue (C5): jobs
// are enqueued from HTTP handlers and drained one at a time by a single
// goroutine, publishing a status string before and after each job.
//
// Grounded on original_source/pijuv2/backend/workthread.py +
// original_source/pijuv2/backend/workqueue.py for the
// single-consumer-over-a-typed-queue shape, and on
// anyuan-chen-splitter/server/worker/manager.go for the Go idiom: range
// over a buffered channel carrying a request sum type, one goroutine.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pijudev/piju/internal/catalog"
)

// Kind identifies which request variant a Request carries.
type Kind int

const (
	ScanDirectory Kind = iota
	DeleteMissingTracks
	DeleteAlbumsWithoutTracks
	DeleteArtworkWithoutTracks
	DeleteEmptyGenres
	FetchFromYouTube
)

func (k Kind) String() string {
	switch k {
	case ScanDirectory:
		return "Scanning directory"
	case DeleteMissingTracks:
		return "Deleting missing tracks"
	case DeleteAlbumsWithoutTracks:
		return "Deleting albums without tracks"
	case DeleteArtworkWithoutTracks:
		return "Deleting orphan artwork"
	case DeleteEmptyGenres:
		return "Deleting empty genres"
	case FetchFromYouTube:
		return "Fetching from YouTube"
	default:
		return "Working"
	}
}

// FetchCallback receives the result of a FetchFromYouTube request: the url
// fetched and the resulting Downloads (possibly cached from an earlier
// fetch of the same url, per §4.9).
type FetchCallback = func(url string, downloads []catalog.Download)

// Request is the sum type the worker's queue carries. Kind determines
// which of the remaining fields are meaningful.
type Request struct {
	Kind          Kind
	Path          string // ScanDirectory
	URL           string // FetchFromYouTube
	DownloadDir   string // FetchFromYouTube
	FetchCallback FetchCallback
}

// Scanner is the subset of *scanner.Scanner the worker needs.
type Scanner interface {
	ScanDirectory(root string) error
}

// Tidy is the subset of *tidy.Tidy the worker needs.
type Tidy interface {
	DeleteMissingTracks() (int, error)
	DeleteAlbumsWithoutTracks() (int, error)
	DeleteArtworkWithoutTracks() (int, error)
	DeleteEmptyGenres() (int, error)
}

// Downloader is the subset of *download.Service the worker needs.
type Downloader interface {
	FetchAudio(url, downloadDir string) ([]catalog.Download, error)
}

// HistoryLookup answers "has this url already been fetched, and are its
// files still present", letting FetchFromYouTube skip a redundant download
// per §4.9's "or with previously cached results" clause.
type HistoryLookup interface {
	CachedDownloads(url string) ([]catalog.Download, bool)
}

// Worker drains Requests sequentially off a single channel, publishing a
// status string via the callback before and after each job.
type Worker struct {
	requests chan Request
	scanner  Scanner
	tidy     Tidy
	download Downloader
	history  HistoryLookup

	onStatusChange func(status string)
}

func New(scanner Scanner, tidy Tidy, downloader Downloader, history HistoryLookup, onStatusChange func(status string)) *Worker {
	return &Worker{
		requests:       make(chan Request, 64),
		scanner:        scanner,
		tidy:           tidy,
		download:       downloader,
		history:        history,
		onStatusChange: onStatusChange,
	}
}

// Enqueue submits a request for eventual processing. Never blocks the
// caller beyond the channel's buffer filling up.
func (w *Worker) Enqueue(req Request) {
	w.requests <- req
}

// EnqueueYoutubeFetch submits a FetchFromYouTube job. It satisfies the
// narrow player.YoutubeEnqueuer interface so the player coordinator can kick
// off a fetch without importing this package.
func (w *Worker) EnqueueYoutubeFetch(url, downloadDir string, callback FetchCallback) {
	w.Enqueue(Request{Kind: FetchFromYouTube, URL: url, DownloadDir: downloadDir, FetchCallback: callback})
}

// Run drains the queue until ctx is cancelled or the channel is closed.
// Intended to be started in its own goroutine exactly once.
func (w *Worker) Run(ctx context.Context) {
	w.setStatus("Idle")
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			w.process(req)
		}
	}
}

func (w *Worker) process(req Request) {
	w.setStatus(req.Kind.String())
	if err := w.dispatch(req); err != nil {
		slog.Warn("worker: job failed", "kind", req.Kind, "error", err)
	}
	w.setStatus("Idle")
}

func (w *Worker) dispatch(req Request) error {
	switch req.Kind {
	case ScanDirectory:
		return w.scanner.ScanDirectory(req.Path)
	case DeleteMissingTracks:
		_, err := w.tidy.DeleteMissingTracks()
		return err
	case DeleteAlbumsWithoutTracks:
		_, err := w.tidy.DeleteAlbumsWithoutTracks()
		return err
	case DeleteArtworkWithoutTracks:
		_, err := w.tidy.DeleteArtworkWithoutTracks()
		return err
	case DeleteEmptyGenres:
		_, err := w.tidy.DeleteEmptyGenres()
		return err
	case FetchFromYouTube:
		return w.fetchFromYouTube(req)
	default:
		return fmt.Errorf("unknown request kind %v", req.Kind)
	}
}

func (w *Worker) fetchFromYouTube(req Request) error {
	if w.history != nil {
		if cached, ok := w.history.CachedDownloads(req.URL); ok {
			if req.FetchCallback != nil {
				req.FetchCallback(req.URL, cached)
			}
			return nil
		}
	}

	downloads, err := w.download.FetchAudio(req.URL, req.DownloadDir)
	if err != nil {
		return err
	}
	if req.FetchCallback != nil {
		req.FetchCallback(req.URL, downloads)
	}
	return nil
}

func (w *Worker) setStatus(status string) {
	if w.onStatusChange != nil {
		w.onStatusChange(status)
	}
}
