// Package httpapi implements the HTTP/JSON control surface (C10), the
// websocket fan-out (C11), and the id/url codec's response-shaping half
// (C12's serialization side — parsing lives in internal/idcodec).
//
// Grounded on original_source/pijuv2/backend/routes.py for the route table
// and original_source/pijuv2/backend/serialize.py for every JSON field
// name, using github.com/gin-gonic/gin for routing in place of Flask, the
// way arung-agamani-denpa-radio/internal/radio/server.go wires gin.
package httpapi

import (
	"path/filepath"
	"strings"

	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
	"github.com/pijudev/piju/internal/player"
)

// InformationLevel controls how much of a related entity a response embeds.
type InformationLevel int

const (
	InfoNone InformationLevel = iota
	InfoLinks
	InfoAll
	InfoDebug
)

// ParseInformationLevel mirrors serialize.py's InformationLevel.from_string.
func ParseInformationLevel(raw string, def InformationLevel) InformationLevel {
	switch strings.ToLower(raw) {
	case "none":
		return InfoNone
	case "links":
		return InfoLinks
	case "all":
		return InfoAll
	case "debug":
		return InfoDebug
	default:
		return def
	}
}

// GenreNamer resolves a track's genre id to its name, or "" if nil/unknown.
type GenreNamer func(genreID *int64) string

func artworkLinkAndInfo(artworkID *int64) (link *string, info *string) {
	if artworkID == nil {
		return nil, nil
	}
	l := idcodec.FormatLink("artwork", *artworkID)
	i := idcodec.FormatLink("artworkinfo", *artworkID)
	return &l, &i
}

// TrackJSON mirrors serialize.py:json_track.
type TrackJSON struct {
	Link        string  `json:"link"`
	Artist      string  `json:"artist"`
	Title       string  `json:"title"`
	Genre       *string `json:"genre"`
	DiskNumber  *int    `json:"disknumber"`
	TrackNumber *int    `json:"tracknumber"`
	TrackCount  *int    `json:"trackcount"`
	FileFormat  string  `json:"fileformat"`
	Album       string  `json:"album"`
	Artwork     *string `json:"artwork"`
	ArtworkInfo *string `json:"artworkinfo"`
	Filepath    *string `json:"filepath,omitempty"`
}

func serializeTrack(t catalog.Track, genreName GenreNamer, includeDebug bool) TrackJSON {
	var genre *string
	if name := genreName(t.GenreID); name != "" {
		genre = &name
	}
	album := ""
	if t.AlbumID != nil {
		album = idcodec.FormatLink("albums", *t.AlbumID)
	}
	artwork, artworkInfo := artworkLinkAndInfo(t.ArtworkID)

	out := TrackJSON{
		Link:        idcodec.FormatLink("tracks", t.ID),
		Artist:      t.Artist,
		Title:       t.Title,
		Genre:       genre,
		DiskNumber:  t.VolumeNumber,
		TrackNumber: t.TrackNumber,
		TrackCount:  t.TrackCount,
		FileFormat:  filepath.Ext(t.Filepath),
		Album:       album,
		Artwork:     artwork,
		ArtworkInfo: artworkInfo,
	}
	if includeDebug {
		out.Filepath = &t.Filepath
	}
	return out
}

// serializeQueuedItem mirrors serialize.py:json_track_or_file's else-branch
// for a negative (ephemeral download) TrackID; positive ids delegate to a
// real track lookup, which the caller (queue handler) does before calling.
func serializeQueuedItem(item player.QueuedItem) TrackJSON {
	return TrackJSON{
		Link:       idcodec.FormatLink("tracks", item.TrackID),
		Artist:     item.Artist,
		Title:      item.Title,
		FileFormat: filepath.Ext(item.Filepath),
		Artwork:    item.Artwork,
	}
}

// AlbumJSON mirrors serialize.py:json_album.
type AlbumJSON struct {
	Link          string        `json:"link"`
	Artist        *string       `json:"artist"`
	Title         string        `json:"title"`
	ReleaseDate   *int          `json:"releasedate"`
	IsCompilation bool          `json:"iscompilation"`
	NumberDisks   *int          `json:"numberdisks"`
	Artwork       AlbumArtwork  `json:"artwork"`
	Genres        []string      `json:"genres"`
	Tracks        any           `json:"tracks,omitempty"`
}

type AlbumArtwork struct {
	Link   *string `json:"link"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
}

// AlbumDeps bundles what serializeAlbum needs beyond the Album row itself.
type AlbumDeps struct {
	Tracks       func(albumID int64) ([]catalog.Track, error)
	GenreIDs     func(albumID int64) ([]int64, error)
	GenreName    GenreNamer
	ArtworkByID  func(id int64) (catalog.Artwork, error)
}

func serializeAlbum(a catalog.Album, includeTracks InformationLevel, deps AlbumDeps) (AlbumJSON, error) {
	tracks, err := deps.Tracks(a.ID)
	if err != nil {
		return AlbumJSON{}, err
	}

	var artwork AlbumArtwork
	for _, t := range tracks {
		if t.ArtworkID != nil {
			link := idcodec.FormatLink("artwork", *t.ArtworkID)
			artwork.Link = &link
			if art, err := deps.ArtworkByID(*t.ArtworkID); err == nil {
				w, h := art.Width, art.Height
				artwork.Width, artwork.Height = &w, &h
			}
			break
		}
	}

	genreIDs, err := deps.GenreIDs(a.ID)
	if err != nil {
		return AlbumJSON{}, err
	}
	genres := make([]string, 0, len(genreIDs))
	for _, id := range genreIDs {
		genres = append(genres, idcodec.FormatLink("genres", id))
	}

	out := AlbumJSON{
		Link:          idcodec.FormatLink("albums", a.ID),
		Artist:        a.Artist,
		Title:         a.Title,
		ReleaseDate:   a.ReleaseYear,
		IsCompilation: a.IsCompilation,
		NumberDisks:   a.VolumeCount,
		Artwork:       artwork,
		Genres:        genres,
	}

	switch includeTracks {
	case InfoLinks:
		links := make([]string, len(tracks))
		for i, t := range tracks {
			links[i] = idcodec.FormatLink("tracks", t.ID)
		}
		out.Tracks = links
	case InfoAll, InfoDebug:
		items := make([]TrackJSON, len(tracks))
		for i, t := range tracks {
			items[i] = serializeTrack(t, deps.GenreName, includeTracks == InfoDebug)
		}
		out.Tracks = items
	}
	return out, nil
}

// GenreJSON mirrors serialize.py:json_genre.
type GenreJSON struct {
	Link      string `json:"link"`
	Name      string `json:"name"`
	Albums    any    `json:"albums,omitempty"`
	Playlists any    `json:"playlists,omitempty"`
}

// PlaylistJSON mirrors serialize.py:json_playlist.
type PlaylistJSON struct {
	Link   string `json:"link"`
	Title  string `json:"title"`
	Genres any    `json:"genres,omitempty"`
	Tracks any    `json:"tracks,omitempty"`
}

func serializePlaylist(p catalog.Playlist, includeGenres, includeTracks InformationLevel, deps AlbumDeps, genreIDsForPlaylist func(id int64) ([]int64, error), getTrack func(id int64) (catalog.Track, error)) (PlaylistJSON, error) {
	out := PlaylistJSON{
		Link:  idcodec.FormatLink("playlists", p.ID),
		Title: p.Title,
	}

	switch includeGenres {
	case InfoLinks, InfoAll, InfoDebug:
		ids, err := genreIDsForPlaylist(p.ID)
		if err != nil {
			return PlaylistJSON{}, err
		}
		links := make([]string, len(ids))
		for i, id := range ids {
			links[i] = idcodec.FormatLink("genres", id)
		}
		out.Genres = links
	}

	switch includeTracks {
	case InfoLinks:
		links := make([]string, len(p.Entries))
		for i, e := range p.Entries {
			links[i] = idcodec.FormatLink("tracks", e.TrackID)
		}
		out.Tracks = links
	case InfoAll, InfoDebug:
		items := make([]TrackJSON, 0, len(p.Entries))
		for _, e := range p.Entries {
			t, err := getTrack(e.TrackID)
			if err != nil {
				return PlaylistJSON{}, err
			}
			items = append(items, serializeTrack(t, deps.GenreName, includeTracks == InfoDebug))
		}
		out.Tracks = items
	}
	return out, nil
}

// RadioStationJSON mirrors serialize.py:json_radio_station.
type RadioStationJSON struct {
	Link                 string  `json:"link"`
	Name                 string  `json:"name"`
	Artwork              string  `json:"artwork"`
	URL                  *string `json:"url,omitempty"`
	NowPlayingURL        *string `json:"now_playing_url,omitempty"`
	NowPlayingJq         *string `json:"now_playing_jq,omitempty"`
	NowPlayingArtworkURL *string `json:"now_playing_artwork_url,omitempty"`
	NowPlayingArtworkJq  *string `json:"now_playing_artwork_jq,omitempty"`
}

func serializeRadioStation(s catalog.RadioStation, includeURLs bool) RadioStationJSON {
	out := RadioStationJSON{
		Link:    idcodec.FormatLink("radio", s.ID),
		Name:    s.Name,
		Artwork: s.ArtworkURL,
	}
	if includeURLs {
		out.URL = &s.URL
		out.NowPlayingURL = &s.NowPlayingURL
		out.NowPlayingJq = &s.NowPlayingJq
		out.NowPlayingArtworkURL = &s.NowPlayingArtworkURL
		out.NowPlayingArtworkJq = &s.NowPlayingArtworkJq
	}
	return out
}
