package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/idcodec"
	"github.com/pijudev/piju/internal/player"
)

func (s *Server) handleGetQueue(c *gin.Context) {
	items, err := s.coordinator.QueueGet()
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]TrackJSON, len(items))
	for i, item := range items {
		if item.TrackID >= 0 {
			if t, err := s.store.GetTrackByID(item.TrackID); err == nil {
				out[i] = serializeTrack(t, s.genreName, false)
				continue
			}
		}
		out[i] = serializeQueuedItem(item)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDeleteQueue(c *gin.Context) {
	var body struct {
		Index any `json:"index"`
		Track any `json:"track"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "index and track are required")
		return
	}
	index, ok1 := idcodec.ExtractID(body.Index)
	trackID, ok2 := idcodec.ExtractID(body.Track)
	if !ok1 || !ok2 {
		badRequest(c, "index and track are required")
		return
	}
	matched, err := s.coordinator.QueueDelete(int(index), trackID)
	if err != nil {
		fail(c, err)
		return
	}
	if !matched {
		badRequest(c, "Track id did not match at given index")
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleQueueOptions(c *gin.Context) {
	if s.coordinator.CurrentKind() != "file" {
		conflict(c, errNoQueueStreaming)
		return
	}
	c.Header("Access-Control-Allow-Headers", "*")
	c.Header("Access-Control-Allow-Methods", "DELETE, GET, OPTIONS, PUT")
	c.Status(http.StatusNoContent)
}

// putQueueBody mirrors routes.py's PUT /queue/ body: exactly one of the four
// shapes (album+disk, track, url, queue) must be present.
type putQueueBody struct {
	Album any   `json:"album"`
	Disk  any   `json:"disk"`
	Track any   `json:"track"`
	URL   string `json:"url"`
	Queue []any `json:"queue"`
}

func (s *Server) handlePutQueue(c *gin.Context) {
	var body putQueueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req := player.QueuePutRequest{URL: body.URL}
	set := 0
	if albumID, ok := idcodec.ExtractID(body.Album); ok {
		req.AlbumID = &albumID
		set++
		if diskNr, ok := idcodec.ExtractID(body.Disk); ok {
			v := int(diskNr)
			req.Disk = &v
		}
	}
	if trackID, ok := idcodec.ExtractID(body.Track); ok {
		req.TrackID = &trackID
		set++
	}
	if body.URL != "" {
		set++
	}
	if body.Queue != nil {
		req.QueueIDs = idcodec.ExtractIDs(body.Queue)
		set++
	}
	if set != 1 {
		badRequest(c, "No album+disk id, track id, url or new queue order specified")
		return
	}

	if err := s.coordinator.QueuePut(req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
