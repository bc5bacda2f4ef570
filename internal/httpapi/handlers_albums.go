package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
)

func (s *Server) genreName(genreID *int64) string {
	if genreID == nil {
		return ""
	}
	g, err := s.store.GetGenreByID(*genreID)
	if err != nil {
		return ""
	}
	return g.Name
}

func (s *Server) albumDeps() AlbumDeps {
	return AlbumDeps{
		Tracks:      func(id int64) ([]catalog.Track, error) { return s.store.TracksByAlbumSorted(id, nil) },
		GenreIDs:    s.store.AlbumGenres,
		GenreName:   s.genreName,
		ArtworkByID: s.store.GetArtworkByID,
	}
}

func (s *Server) handleListAlbums(c *gin.Context) {
	albums, err := s.store.GetAllAlbums()
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]AlbumJSON, len(albums))
	for i, a := range albums {
		j, err := serializeAlbum(a, InfoNone, s.albumDeps())
		if err != nil {
			fail(c, err)
			return
		}
		out[i] = j
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetAlbum(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownAlbumID)
		return
	}
	album, err := s.store.GetAlbumByID(id)
	if err != nil {
		notFound(c, errUnknownAlbumID)
		return
	}
	tracks := ParseInformationLevel(c.Query("tracks"), InfoLinks)
	out, err := serializeAlbum(album, tracks, s.albumDeps())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePutAlbum(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownAlbumID)
		return
	}
	var body struct {
		ReleaseDate int `json:"releasedate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if body.ReleaseDate == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	year := body.ReleaseDate
	if err := s.store.SetAlbumReleaseDate(id, &year); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleArtist mirrors routes.py's GET /artists/<path:artist>: groups the
// matching albums by exact artist name (compilations grouped under "various
// artists" are returned as-is, already deduplicated by AlbumsByArtist).
func (s *Server) handleArtist(c *gin.Context) {
	artist := trimLeadingSlash(c.Param("artist"))
	exact := parseBoolParam(c.Query("exact"), true)
	tracks := ParseInformationLevel(c.Query("tracks"), InfoLinks)

	albums, err := s.store.AlbumsByArtist(artist, exact)
	if err != nil {
		fail(c, err)
		return
	}
	if len(albums) == 0 {
		notFound(c, errUnknownAlbumID)
		return
	}

	grouped := map[string][]AlbumJSON{}
	order := []string{}
	for _, a := range albums {
		name := artist
		if a.Artist != nil {
			name = *a.Artist
		}
		j, err := serializeAlbum(a, tracks, s.albumDeps())
		if err != nil {
			fail(c, err)
			return
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], j)
	}

	out := make([]gin.H, len(order))
	for i, name := range order {
		out[i] = gin.H{"artist": name, "albums": grouped[name]}
	}
	c.JSON(http.StatusOK, out)
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

func parseBoolParam(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
