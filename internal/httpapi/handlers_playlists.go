package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
)

func (s *Server) serializePlaylistDefault(p catalog.Playlist, genres, tracks InformationLevel) (PlaylistJSON, error) {
	return serializePlaylist(p, genres, tracks, s.albumDeps(), s.store.PlaylistGenres, s.store.GetTrackByID)
}

func (s *Server) handleListPlaylists(c *gin.Context) {
	playlists, err := s.store.GetAllPlaylists()
	if err != nil {
		fail(c, err)
		return
	}
	genres := ParseInformationLevel(c.Query("genres"), InfoNone)
	tracks := ParseInformationLevel(c.Query("tracks"), InfoNone)
	out := make([]PlaylistJSON, len(playlists))
	for i, p := range playlists {
		j, err := s.serializePlaylistDefault(p, genres, tracks)
		if err != nil {
			fail(c, err)
			return
		}
		out[i] = j
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetPlaylist(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownPlaylistID)
		return
	}
	p, err := s.store.GetPlaylistByID(id)
	if err != nil {
		notFound(c, errUnknownPlaylistID)
		return
	}
	genres := ParseInformationLevel(c.Query("genres"), InfoNone)
	tracks := ParseInformationLevel(c.Query("tracks"), InfoLinks)
	out, err := s.serializePlaylistDefault(p, genres, tracks)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// playlistBody mirrors routes.py's build_playlist_from_api_data: a title and
// an ordered list of track identifiers, any of which may fail to resolve.
type playlistBody struct {
	Title  string `json:"title"`
	Tracks []any  `json:"tracks"`
}

func (s *Server) buildPlaylistTrackIDs(raw []any) (resolved []int64, missing []any) {
	for _, v := range raw {
		if id, ok := idcodec.ExtractID(v); ok {
			if _, err := s.store.GetTrackByID(id); err == nil {
				resolved = append(resolved, id)
				continue
			}
		}
		missing = append(missing, v)
	}
	return resolved, missing
}

func (s *Server) handleCreatePlaylist(c *gin.Context) {
	var body playlistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	trackIDs, missing := s.buildPlaylistTrackIDs(body.Tracks)

	p, err := s.store.CreatePlaylist(body.Title, trackIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playlistid": p.ID,
		"nrtracks":   len(p.Entries),
		"missing":    missing,
	})
}

func (s *Server) handleUpdatePlaylist(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownPlaylistID)
		return
	}
	var body playlistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	var trackIDs []int64
	var missing []any
	if body.Tracks != nil {
		trackIDs, missing = s.buildPlaylistTrackIDs(body.Tracks)
	}

	p, err := s.store.UpdatePlaylist(id, body.Title, trackIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playlistid": p.ID,
		"nrtracks":   len(p.Entries),
		"missing":    missing,
	})
}

func (s *Server) handleDeletePlaylist(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownPlaylistID)
		return
	}
	if err := s.store.DeletePlaylist(id); err != nil {
		notFound(c, errUnknownPlaylistID)
		return
	}
	c.Status(http.StatusNoContent)
}
