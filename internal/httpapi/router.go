package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/player"
	"github.com/pijudev/piju/internal/snapshot"
	"github.com/pijudev/piju/internal/worker"
)

// Store is the subset of *catalog.Store every handler in this package needs.
type Store interface {
	GetAlbumByID(id int64) (catalog.Album, error)
	SetAlbumReleaseDate(id int64, releaseYear *int) error
	AlbumGenres(albumID int64) ([]int64, error)
	GetAllAlbums() ([]catalog.Album, error)
	AlbumsByArtist(name string, exact bool) ([]catalog.Album, error)
	TracksByAlbumSorted(albumID int64, diskNr *int) ([]catalog.Track, error)

	EnsureGenreExists(name string) (catalog.Genre, error)
	GenreByName(name string) (catalog.Genre, error)
	GetGenreByID(id int64) (catalog.Genre, error)
	GetAllGenres() ([]catalog.Genre, error)
	DeleteGenre(id int64) error
	AlbumsByGenre(genreID int64) ([]catalog.Album, error)
	PlaylistsByGenre(genreID int64) ([]catalog.Playlist, error)

	GetArtworkByID(id int64) (catalog.Artwork, error)

	GetAllPlaylists() ([]catalog.Playlist, error)
	GetPlaylistByID(id int64) (catalog.Playlist, error)
	PlaylistGenres(playlistID int64) ([]int64, error)
	CreatePlaylist(title string, trackIDs []int64) (catalog.Playlist, error)
	UpdatePlaylist(id int64, title string, trackIDs []int64) (catalog.Playlist, error)
	DeletePlaylist(id int64) error

	CreateRadioStation(r catalog.RadioStation) (catalog.RadioStation, error)
	GetRadioStationByID(id int64) (catalog.RadioStation, error)
	GetAllRadioStations() ([]catalog.RadioStation, error)
	UpdateRadioStation(id int64, updated catalog.RadioStation) (catalog.RadioStation, error)
	DeleteRadioStation(id int64) error
	ReorderRadioStations(orderedIDs []int64) error

	GetTrackByID(id int64) (catalog.Track, error)
	GetAllTracks() ([]catalog.Track, error)

	SearchAlbums(words []string) ([]catalog.Album, error)
	SearchArtists(words []string) ([]string, error)
	SearchTracks(words []string) ([]catalog.Track, error)
}

// Coordinator is the subset of *player.Coordinator the handlers need.
type Coordinator interface {
	CurrentKind() string
	Play(req player.PlayRequest) error
	Pause() error
	Resume(preferred *string) error
	Stop() error
	Next() error
	Prev() error
	SetVolume(v int) error
	CurrentVolume() int
	CurrentStatus() player.Status
	QueueGet() ([]player.QueuedItem, error)
	QueuePut(req player.QueuePutRequest) error
	QueueDelete(apparentIndex int, trackID int64) (bool, error)
}

// SnapshotBuilder is the subset of *snapshot.Builder the handlers and hub
// need.
type SnapshotBuilder interface {
	Build() (snapshot.Snapshot, error)
}

// JobQueue is the subset of *worker.Worker the scanner endpoints need.
type JobQueue interface {
	Enqueue(req worker.Request)
}

// DownloadHistory is the subset of *download.Registry the /downloadhistory
// endpoint needs.
type DownloadHistory interface {
	URLs() []string
	History(url string) []catalog.Download
}

// Server bundles every dependency the HTTP layer touches and owns the gin
// engine and the websocket hub.
type Server struct {
	store       Store
	coordinator Coordinator
	snapshots   SnapshotBuilder
	jobs        JobQueue
	downloads   DownloadHistory
	musicDir    string

	hub *hub
}

func NewServer(store Store, coordinator Coordinator, snapshots SnapshotBuilder, jobs JobQueue, downloads DownloadHistory, musicDir string) *Server {
	return &Server{
		store:       store,
		coordinator: coordinator,
		snapshots:   snapshots,
		jobs:        jobs,
		downloads:   downloads,
		musicDir:    musicDir,
		hub:         newHub(),
	}
}

// Broadcast pushes the current snapshot to every connected websocket client.
// Installed as the state-change callback on the player coordinator and the
// worker's status callback.
func (s *Server) Broadcast() {
	snap, err := s.snapshots.Build()
	if err != nil {
		return
	}
	s.hub.broadcast(snap)
}

// corsHeaders mirrors routes.py's add_security_headers after_request hook:
// every response, success or error, gets a permissive CORS origin.
func corsHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Next()
}

// Router builds the gin engine with every route from §6 registered. gzipJSON
// (§4.10) wraps only the JSON-returning routes: /artwork, /mp3 and /ws serve
// raw bytes straight through via c.File/the websocket connection and must
// never be buffered by the compression middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsHeaders)

	r.GET("/artwork/:id", s.handleArtwork)
	r.GET("/mp3/:trackid", s.handleMP3)
	r.GET("/ws", s.handleWebsocket)

	api := r.Group("/")
	api.Use(gzipJSON)

	api.GET("/", s.handleRoot)

	api.GET("/albums/", s.handleListAlbums)
	api.GET("/albums/:id", s.handleGetAlbum)
	api.PUT("/albums/:id", s.handlePutAlbum)

	api.GET("/artists/*artist", s.handleArtist)

	api.GET("/artworkinfo/:id", s.handleArtworkInfo)

	api.GET("/downloadhistory", s.handleDownloadHistory)

	api.GET("/genres/", s.handleListGenres)
	api.GET("/genres/:id", s.handleGetGenre)

	api.POST("/player/next", s.handlePlayerNext)
	api.POST("/player/pause", s.handlePlayerPause)
	api.POST("/player/play", s.handlePlayerPlay)
	api.POST("/player/previous", s.handlePlayerPrevious)
	api.POST("/player/resume", s.handlePlayerResume)
	api.POST("/player/stop", s.handlePlayerStop)
	api.GET("/player/volume", s.handleGetVolume)
	api.POST("/player/volume", s.handleSetVolume)

	api.GET("/playlists/", s.handleListPlaylists)
	api.POST("/playlists/", s.handleCreatePlaylist)
	api.GET("/playlists/:id", s.handleGetPlaylist)
	api.PUT("/playlists/:id", s.handleUpdatePlaylist)
	api.DELETE("/playlists/:id", s.handleDeletePlaylist)

	api.GET("/queue/", s.handleGetQueue)
	api.PUT("/queue/", s.handlePutQueue)
	api.DELETE("/queue/", s.handleDeleteQueue)
	api.OPTIONS("/queue/", s.handleQueueOptions)

	api.GET("/radio/", s.handleListRadio)
	api.POST("/radio/", s.handleCreateRadio)
	api.PUT("/radio/", s.handleReorderRadio)
	api.OPTIONS("/radio/", s.handleRadioOptions)
	api.GET("/radio/:id", s.handleGetRadio)
	api.PUT("/radio/:id", s.handleUpdateRadio)
	api.DELETE("/radio/:id", s.handleDeleteRadio)

	api.POST("/scanner/scan", s.handleScan)
	api.POST("/scanner/tidy", s.handleTidy)

	api.GET("/search/:q", s.handleSearch)

	api.GET("/tracks/", s.handleListTracks)
	api.GET("/tracks/:id", s.handleGetTrack)

	return r
}

func (s *Server) handleRoot(c *gin.Context) {
	snap, err := s.snapshots.Build()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
