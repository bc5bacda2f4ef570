// Package download implements the download service (C4): it shells out to
// an external fetcher, registers results in an in-memory "fake track"
// registry, and lets callers look an earlier download back up by its
// negative FakeTrackID.
//
// Grounded on original_source/pijuv2/backend/downloadinfo.py
// (DownloadInfoDatabaseSingleton's monotonically-decreasing id allocation)
// and original_source/pijuv2/backend/ytdlp.py (the shell-out contract),
// using the exec.Command idiom from
// anyuan-chen-splitter/server/worker/ytdlp.go.
package download

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pijudev/piju/internal/catalog"
)

// Registry assigns and remembers the "fake track" ids ephemeral downloads
// are addressed by until they're ingested into the real catalog. Safe for
// concurrent use; the download service and the worker both touch it.
type Registry struct {
	mu           sync.Mutex
	nextID       int64
	filepathToID map[string]int64
	idToInfo     map[int64]catalog.Download
	byURL        map[string][]catalog.Download
	urlOrder     []string
}

func NewRegistry() *Registry {
	return &Registry{
		nextID:       -1,
		filepathToID: make(map[string]int64),
		idToInfo:     make(map[int64]catalog.Download),
		byURL:        make(map[string][]catalog.Download),
	}
}

// IDForFilepath returns the stable fake id for path, allocating a fresh one
// (the next integer below the lowest allocated so far) on first sight.
func (r *Registry) IDForFilepath(path string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.filepathToID[path]; ok {
		return id
	}
	id := r.nextID
	r.nextID--
	r.filepathToID[path] = id
	return id
}

// Record stores info under its FakeTrackID for later lookup via Info, and
// indexes it by SourceURL for CachedDownloads.
func (r *Registry) Record(info catalog.Download) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idToInfo[info.FakeTrackID] = info
	if info.SourceURL != "" {
		if _, seen := r.byURL[info.SourceURL]; !seen {
			r.urlOrder = append(r.urlOrder, info.SourceURL)
		}
		r.byURL[info.SourceURL] = append(r.byURL[info.SourceURL], info)
	}
}

// URLs returns every distinct source URL ever fetched, in the order first
// seen, for the GET /downloadhistory listing.
func (r *Registry) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urlOrder...)
}

// History returns the Downloads recorded for url, most-recent-first, the
// way routes.py's /downloadhistory reverses download_history.get_info(url).
func (r *Registry) History(url string) []catalog.Download {
	r.mu.Lock()
	downloads := append([]catalog.Download(nil), r.byURL[url]...)
	r.mu.Unlock()

	for i, j := 0, len(downloads)-1; i < j; i, j = i+1, j-1 {
		downloads[i], downloads[j] = downloads[j], downloads[i]
	}
	return downloads
}

// Info returns the previously recorded Download for a fake id, or ok=false
// if none is known.
func (r *Registry) Info(fakeID int64) (catalog.Download, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.idToInfo[fakeID]
	return info, ok
}

// CachedDownloads implements worker.HistoryLookup: it reports the Downloads
// previously recorded for url, but only if every referenced file is still
// present on disk — a stale cache entry (file since deleted by a tidy sweep)
// is treated as a miss so the caller re-fetches (§4.9).
func (r *Registry) CachedDownloads(url string) ([]catalog.Download, bool) {
	r.mu.Lock()
	downloads := append([]catalog.Download(nil), r.byURL[url]...)
	r.mu.Unlock()

	if len(downloads) == 0 {
		return nil, false
	}
	for _, d := range downloads {
		if _, err := os.Stat(d.Filepath); err != nil {
			return nil, false
		}
	}
	return downloads, true
}

// Fetcher shells out to an external downloader binary (yt-dlp or
// compatible) and reports the resulting local file, or "", false if the
// fetch failed — §4.8 requires failures be discarded silently, not
// propagated as errors.
type Fetcher interface {
	Fetch(url, downloadDir string) (localFile string, ok bool)
}

// ExternalFetcher invokes a configurable binary (default "yt-dlp") the way
// original_source/pijuv2/backend/ytdlp.py does: extract best audio to mp3,
// skip the download archive, write the <id>.info.json sidecar, print the
// final path after any post-processing move.
type ExternalFetcher struct {
	Binary string
}

func NewExternalFetcher() *ExternalFetcher {
	return &ExternalFetcher{Binary: "yt-dlp"}
}

func (f *ExternalFetcher) Fetch(url, downloadDir string) (string, bool) {
	binary := f.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	cmd := exec.Command(binary,
		"-x",
		"--audio-format", "mp3",
		"-f", "ba",
		"--no-download-archive",
		"--write-info-json",
		url,
		"-o", "%(id)s.%(ext)s",
		"--print", "after_move:filepath",
	)
	cmd.Dir = downloadDir

	out, err := cmd.Output()
	if err != nil {
		slog.Warn("download: fetch failed", "url", url, "error", err)
		return "", false
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", false
	}
	return path, true
}

// sidecarInfo is the shape downloaders write alongside the audio file
// (<file>.info.json) — artist/title/artwork/source url for a fetched track.
type sidecarInfo struct {
	Artist    string `json:"artist"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	WebpageURL string `json:"webpage_url"`
}

// Service ties a Fetcher and Registry together to implement §4.8's
// fetchAudio(url, downloadDir) → []Download contract.
type Service struct {
	fetcher  Fetcher
	registry *Registry
}

func New(fetcher Fetcher, registry *Registry) *Service {
	return &Service{fetcher: fetcher, registry: registry}
}

// FetchAudio downloads url into downloadDir and registers the result as a
// fake track. A failed fetch yields an empty slice, never an error — the
// caller (the worker, C5) treats "nothing downloaded" as a normal outcome.
func (s *Service) FetchAudio(url, downloadDir string) ([]catalog.Download, error) {
	localFile, ok := s.fetcher.Fetch(url, downloadDir)
	if !ok {
		return nil, nil
	}

	info := s.readSidecar(localFile)
	fakeID := s.registry.IDForFilepath(localFile)
	download := catalog.Download{
		Filepath:    localFile,
		Artist:      info.Artist,
		Title:       info.Title,
		ArtworkURL:  info.Thumbnail,
		SourceURL:   url,
		FakeTrackID: fakeID,
	}
	s.registry.Record(download)
	return []catalog.Download{download}, nil
}

func (s *Service) readSidecar(localFile string) sidecarInfo {
	sidecarPath := sidecarPathFor(localFile)
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return sidecarInfo{}
	}
	var info sidecarInfo
	if err := json.Unmarshal(data, &info); err != nil {
		slog.Warn("download: malformed sidecar json", "path", sidecarPath, "error", err)
		return sidecarInfo{}
	}
	return info
}

func sidecarPathFor(localFile string) string {
	ext := filepath.Ext(localFile)
	return fmt.Sprintf("%s.info.json", strings.TrimSuffix(localFile, ext))
}
