package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/worker"
)

// handleScan enqueues a library scan. A missing or empty {dir} body falls
// back to the configured music directory, matching routes.py's POST
// /scanner/scan default.
func (s *Server) handleScan(c *gin.Context) {
	var body struct {
		Dir string `json:"dir"`
	}
	_ = c.ShouldBindJSON(&body)

	dir := body.Dir
	if dir == "" {
		dir = s.musicDir
	}
	s.jobs.Enqueue(worker.Request{Kind: worker.ScanDirectory, Path: dir})
	c.Status(http.StatusNoContent)
}

// handleTidy enqueues the two sweeps §6 names for this endpoint: delete
// missing tracks, then delete albums left with no tracks. The worker's
// FIFO ordering (§5) guarantees they run in that order.
func (s *Server) handleTidy(c *gin.Context) {
	s.jobs.Enqueue(worker.Request{Kind: worker.DeleteMissingTracks})
	s.jobs.Enqueue(worker.Request{Kind: worker.DeleteAlbumsWithoutTracks})
	c.Status(http.StatusNoContent)
}
