package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/apierr"
)

// statusFor maps an apierr.Kind to the HTTP status routes.py's handlers use
// for the equivalent Flask exception (BadRequest/NotFound/Conflict/500).
func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.KindBadInput:
		return http.StatusBadRequest
	case apierr.KindUnknownID:
		return http.StatusNotFound
	case apierr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"error": message} at the status implied by err's Kind, the
// way routes.py's handlers let a raised werkzeug HTTPException carry its own
// message through to the JSON body.
func fail(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	c.JSON(statusFor(kind), gin.H{"error": err.Error()})
}

// badRequest reports a validation failure that never reached the catalog or
// player layers (missing/malformed request fields).
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, gin.H{"error": message})
}

// Error message constants mirroring routes.py's ERR_MSG_* constants.
const (
	errUnknownAlbumID    = "Unknown album id"
	errUnknownGenreID    = "Unknown genre id"
	errUnknownTrackID    = "Unknown track id"
	errUnknownPlaylistID = "Unknown playlist id"
	errUnknownRadioID    = "Unknown radio id"
	errNoQueueStreaming  = "Queue operations not permitted when playing streaming content"
)
