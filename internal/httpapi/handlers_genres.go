package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pijudev/piju/internal/catalog"
	"github.com/pijudev/piju/internal/idcodec"
)

func (s *Server) serializeGenre(g catalog.Genre, includeAlbums, includePlaylists InformationLevel) (GenreJSON, error) {
	out := GenreJSON{Link: idcodec.FormatLink("genres", g.ID), Name: g.Name}

	switch includeAlbums {
	case InfoLinks, InfoAll, InfoDebug:
		albums, err := s.store.AlbumsByGenre(g.ID)
		if err != nil {
			return GenreJSON{}, err
		}
		if includeAlbums == InfoLinks {
			links := make([]string, len(albums))
			for i, a := range albums {
				links[i] = idcodec.FormatLink("albums", a.ID)
			}
			out.Albums = links
		} else {
			items := make([]AlbumJSON, len(albums))
			for i, a := range albums {
				j, err := serializeAlbum(a, InfoNone, s.albumDeps())
				if err != nil {
					return GenreJSON{}, err
				}
				items[i] = j
			}
			out.Albums = items
		}
	}

	switch includePlaylists {
	case InfoLinks, InfoAll, InfoDebug:
		playlists, err := s.store.PlaylistsByGenre(g.ID)
		if err != nil {
			return GenreJSON{}, err
		}
		if includePlaylists == InfoLinks {
			links := make([]string, len(playlists))
			for i, p := range playlists {
				links[i] = idcodec.FormatLink("playlists", p.ID)
			}
			out.Playlists = links
		} else {
			items := make([]PlaylistJSON, len(playlists))
			for i, p := range playlists {
				j, err := serializePlaylist(p, InfoNone, InfoNone, s.albumDeps(), s.store.PlaylistGenres, s.store.GetTrackByID)
				if err != nil {
					return GenreJSON{}, err
				}
				items[i] = j
			}
			out.Playlists = items
		}
	}
	return out, nil
}

func (s *Server) handleListGenres(c *gin.Context) {
	genres, err := s.store.GetAllGenres()
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]GenreJSON, len(genres))
	for i, g := range genres {
		j, err := s.serializeGenre(g, InfoNone, InfoNone)
		if err != nil {
			fail(c, err)
			return
		}
		out[i] = j
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetGenre(c *gin.Context) {
	id, ok := idcodec.ExtractID(c.Param("id"))
	if !ok {
		notFound(c, errUnknownGenreID)
		return
	}
	g, err := s.store.GetGenreByID(id)
	if err != nil {
		notFound(c, errUnknownGenreID)
		return
	}
	albums := ParseInformationLevel(c.Query("albums"), InfoLinks)
	playlists := ParseInformationLevel(c.Query("playlists"), InfoLinks)
	out, err := s.serializeGenre(g, albums, playlists)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
