package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/idcodec"
	"github.com/pijudev/piju/internal/player"
)

func (s *Server) handlePlayerNext(c *gin.Context) {
	if err := s.coordinator.Next(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePlayerPrevious(c *gin.Context) {
	if err := s.coordinator.Prev(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePlayerPause(c *gin.Context) {
	if err := s.coordinator.Pause(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePlayerStop(c *gin.Context) {
	if err := s.coordinator.Stop(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePlayerResume(c *gin.Context) {
	var body struct {
		Player string `json:"player"`
	}
	// A body is optional here (unlike most other POST handlers): resume with
	// no body just resumes whichever player is current.
	_ = c.ShouldBindJSON(&body)

	var preferred *string
	if body.Player != "" {
		if body.Player != "local" && body.Player != "radio" {
			badRequest(c, "unknown player")
			return
		}
		preferred = &body.Player
	}
	if err := s.coordinator.Resume(preferred); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetVolume(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"volume": s.coordinator.CurrentVolume()})
}

func (s *Server) handleSetVolume(c *gin.Context) {
	var body struct {
		Volume any `json:"volume"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "volume is required")
		return
	}
	volume, ok := idcodec.ExtractID(body.Volume)
	if !ok {
		badRequest(c, "volume must be numeric")
		return
	}
	if err := s.coordinator.SetVolume(int(volume)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playRequestBody mirrors routes.py's POST /player/play body: at most one of
// the six play targets, plus optional qualifiers.
type playRequestBody struct {
	AlbumID      any    `json:"albumid"`
	PlaylistID   any    `json:"playlistid"`
	QueuePos     any    `json:"queue_pos"`
	TrackID      any    `json:"trackid"`
	RadioID      any    `json:"radioid"`
	YoutubeURL   string `json:"youtubeurl"`
	DiskNr       any    `json:"disk_nr"`
	StartTrackID any    `json:"starttrackid"`
}

func (s *Server) handlePlayerPlay(c *gin.Context) {
	var body playRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req := player.PlayRequest{YoutubeURL: body.YoutubeURL}
	set := 0
	if id, ok := idcodec.ExtractID(body.AlbumID); ok {
		req.AlbumID = &id
		set++
	}
	if id, ok := idcodec.ExtractID(body.PlaylistID); ok {
		req.PlaylistID = &id
		set++
	}
	if id, ok := idcodec.ExtractID(body.QueuePos); ok {
		idx := int(id)
		req.QueueIndex = &idx
		set++
	}
	if id, ok := idcodec.ExtractID(body.TrackID); ok {
		req.TrackID = &id
		set++
	}
	if id, ok := idcodec.ExtractID(body.RadioID); ok {
		req.RadioID = &id
		set++
	}
	if body.YoutubeURL != "" {
		set++
	}
	if set == 0 {
		badRequest(c, "Something to play must be specified")
		return
	}
	if set > 1 {
		badRequest(c, "At most one of album, playlist, queue position, track, radio or youtubeurl may be specified")
		return
	}

	if dn, ok := idcodec.ExtractID(body.DiskNr); ok {
		v := int(dn)
		req.DiskNr = &v
	}
	if st, ok := idcodec.ExtractID(body.StartTrackID); ok {
		req.StartTrackID = &st
	}

	if err := s.coordinator.Play(req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
