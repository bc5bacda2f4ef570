package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/idcodec"
)

func (s *Server) handleListTracks(c *gin.Context) {
	tracks, err := s.store.GetAllTracks()
	if err != nil {
		fail(c, err)
		return
	}
	debug := ParseInformationLevel(c.Query("information"), InfoLinks) == InfoDebug
	out := make([]TrackJSON, len(tracks))
	for i, t := range tracks {
		out[i] = serializeTrack(t, s.genreName, debug)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTrack(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownTrackID)
		return
	}
	t, err := s.store.GetTrackByID(id)
	if err != nil {
		notFound(c, errUnknownTrackID)
		return
	}
	debug := ParseInformationLevel(c.Query("information"), InfoLinks) == InfoDebug
	c.JSON(http.StatusOK, serializeTrack(t, s.genreName, debug))
}
