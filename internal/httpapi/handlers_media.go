package httpapi

import (
	"bytes"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/apierr"
	"github.com/pijudev/piju/internal/idcodec"
)

var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
)

// sniffMime guesses a mime type from magic bytes, mirroring routes.py's
// GET /artwork/<id> fallback for blob-stored artwork with no file extension.
func sniffMime(blob []byte) (string, bool) {
	if bytes.HasPrefix(blob, jpegMagic) {
		return "image/jpeg", true
	}
	if bytes.HasPrefix(blob, pngMagic) {
		return "image/png", true
	}
	return "", false
}

func (s *Server) handleArtwork(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, "Unknown artwork id")
		return
	}
	art, err := s.store.GetArtworkByID(id)
	if err != nil {
		notFound(c, "Unknown artwork id")
		return
	}

	c.Header("Cache-Control", "max-age=300")
	if art.Path != "" {
		c.File(art.Path)
		return
	}
	if len(art.Blob) > 0 {
		mime, ok := sniffMime(art.Blob)
		if !ok {
			fail(c, apierr.New(apierr.KindInternalCorruption, "Unknown mime type"))
			return
		}
		c.Data(http.StatusOK, mime, art.Blob)
		return
	}
	notFound(c, "Unknown artwork id")
}

func (s *Server) handleArtworkInfo(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, "Unknown artwork id")
		return
	}
	art, err := s.store.GetArtworkByID(id)
	if err != nil {
		notFound(c, "Unknown artwork id")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"width":  art.Width,
		"height": art.Height,
		"image":  idcodec.FormatLink("artwork", art.ID),
	})
}

func (s *Server) handleMP3(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("trackid"))
	if !ok {
		notFound(c, errUnknownTrackID)
		return
	}
	track, err := s.store.GetTrackByID(id)
	if err != nil {
		notFound(c, errUnknownTrackID)
		return
	}
	info, err := os.Stat(track.Filepath)
	if err != nil {
		notFound(c, errUnknownTrackID)
		return
	}
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Header("Content-Type", "audio/mpeg")
	c.File(track.Filepath)
}

// handleDownloadHistory mirrors routes.py's GET /downloadhistory: one entry
// per distinct source URL ever fetched, each carrying the most recent
// download's metadata (or bare {url} if nothing was ever actually saved).
func (s *Server) handleDownloadHistory(c *gin.Context) {
	urls := s.downloads.URLs()
	out := make([]gin.H, 0, len(urls))
	for _, url := range urls {
		entries := s.downloads.History(url)
		if len(entries) == 0 {
			out = append(out, gin.H{"url": url})
			continue
		}
		d := entries[0]
		out = append(out, gin.H{
			"url":     url,
			"artist":  d.Artist,
			"title":   d.Title,
			"artwork": d.ArtworkURL,
		})
	}
	c.JSON(http.StatusOK, out)
}
