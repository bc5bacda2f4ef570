package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
)

// radioStationBody mirrors serialize.py's build_radio_station_from_api_data:
// every field is optional on PUT (unset fields keep their existing value,
// per catalog.UpdateRadioStation's merge semantics).
type radioStationBody struct {
	Name                 string `json:"name"`
	URL                  string `json:"url"`
	ArtworkURL           string `json:"artwork"`
	NowPlayingURL        string `json:"now_playing_url"`
	NowPlayingJq         string `json:"now_playing_jq"`
	NowPlayingArtworkURL string `json:"now_playing_artwork_url"`
	NowPlayingArtworkJq  string `json:"now_playing_artwork_jq"`
}

func (b radioStationBody) toStation() catalog.RadioStation {
	return catalog.RadioStation{
		Name:                 b.Name,
		URL:                  b.URL,
		ArtworkURL:           b.ArtworkURL,
		NowPlayingURL:        b.NowPlayingURL,
		NowPlayingJq:         b.NowPlayingJq,
		NowPlayingArtworkURL: b.NowPlayingArtworkURL,
		NowPlayingArtworkJq:  b.NowPlayingArtworkJq,
	}
}

func (s *Server) handleListRadio(c *gin.Context) {
	stations, err := s.store.GetAllRadioStations()
	if err != nil {
		fail(c, err)
		return
	}
	includeURLs := ParseInformationLevel(c.Query("information"), InfoLinks) != InfoLinks
	out := make([]RadioStationJSON, len(stations))
	for i, st := range stations {
		out[i] = serializeRadioStation(st, includeURLs)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRadio(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownRadioID)
		return
	}
	st, err := s.store.GetRadioStationByID(id)
	if err != nil {
		notFound(c, errUnknownRadioID)
		return
	}
	c.JSON(http.StatusOK, serializeRadioStation(st, true))
}

func (s *Server) handleCreateRadio(c *gin.Context) {
	var body radioStationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if body.Name == "" || body.URL == "" {
		badRequest(c, "name and url are required")
		return
	}
	st, err := s.store.CreateRadioStation(body.toStation())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeRadioStation(st, true))
}

func (s *Server) handleUpdateRadio(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownRadioID)
		return
	}
	var body radioStationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	st, err := s.store.UpdateRadioStation(id, body.toStation())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeRadioStation(st, true))
}

func (s *Server) handleDeleteRadio(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownRadioID)
		return
	}
	if err := s.store.DeleteRadioStation(id); err != nil {
		notFound(c, errUnknownRadioID)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleReorderRadio mirrors routes.py's PUT /radio/: the body is an ordered
// list of station ids (or "/radio/<id>" links), which become the new
// SortOrder enumeration.
func (s *Server) handleReorderRadio(c *gin.Context) {
	var raw []any
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ids := idcodec.ExtractIDs(raw)
	if len(ids) != len(raw) {
		badRequest(c, "every entry must resolve to a radio station id")
		return
	}
	if err := s.store.ReorderRadioStations(ids); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleRadioOptions answers the CORS pre-flight for /radio/ (§4.10).
func (s *Server) handleRadioOptions(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusNoContent)
}
