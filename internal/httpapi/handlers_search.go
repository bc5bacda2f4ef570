package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// splitSearchWords mirrors routes.py's GET /search/<q> query splitting:
// whitespace-separated words, empties dropped.
func splitSearchWords(q string) []string {
	fields := strings.Fields(q)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// handleSearch answers GET /search/<q>?albums=&artists=&tracks=: each query
// parameter present (regardless of value) requests that category, matching
// the presence-not-value convention of routes.py's search endpoint.
func (s *Server) handleSearch(c *gin.Context) {
	words := splitSearchWords(c.Param("q"))
	if len(words) == 0 {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	out := gin.H{}
	_, wantAlbums := c.GetQuery("albums")
	_, wantArtists := c.GetQuery("artists")
	_, wantTracks := c.GetQuery("tracks")
	if !wantAlbums && !wantArtists && !wantTracks {
		wantAlbums, wantArtists, wantTracks = true, true, true
	}

	if wantAlbums {
		albums, err := s.store.SearchAlbums(words)
		if err != nil {
			fail(c, err)
			return
		}
		items := make([]AlbumJSON, len(albums))
		for i, a := range albums {
			j, err := serializeAlbum(a, InfoNone, s.albumDeps())
			if err != nil {
				fail(c, err)
				return
			}
			items[i] = j
		}
		out["albums"] = items
	}

	if wantArtists {
		artists, err := s.store.SearchArtists(words)
		if err != nil {
			fail(c, err)
			return
		}
		out["artists"] = artists
	}

	if wantTracks {
		tracks, err := s.store.SearchTracks(words)
		if err != nil {
			fail(c, err)
			return
		}
		items := make([]TrackJSON, len(tracks))
		for i, t := range tracks {
			items[i] = serializeTrack(t, s.genreName, false)
		}
		out["tracks"] = items
	}

	c.JSON(http.StatusOK, out)
}
