package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/pijudev/piju/internal/catalog"
)

// DefaultTagReader is the concrete TagReader (§1's out-of-scope capability)
// grounded on arung-agamani-denpa-radio/internal/playlist/track.go for the
// dhowden/tag baseline read (which also supplies the disk number/count),
// extended with oshokin/id3v2 for the MusicBrainz TXXX frames dhowden/tag
// doesn't expose, and the
// go-flac trio for FLAC Vorbis comments / embedded cover art, per
// oshokin-zvuk-grabber's tag_processor.go (read the same frames it writes).
type DefaultTagReader struct{}

func NewDefaultTagReader() *DefaultTagReader { return &DefaultTagReader{} }

// ReadTags dispatches on extension: .mp3 gets the ID3v2-augmented path,
// .flac gets the Vorbis-comment path, everything else (m4a, ogg) falls back
// to dhowden/tag's generic reader alone.
func (r *DefaultTagReader) ReadTags(path string) (catalog.TrackRef, catalog.AlbumRef, *catalog.ArtworkRef, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return catalog.TrackRef{}, catalog.AlbumRef{}, nil, false, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return catalog.TrackRef{}, catalog.AlbumRef{}, nil, false, nil //nolint:nilerr // unreadable tags → skip, not a scan failure
	}

	track, album := baseRefs(m)
	var artwork *catalog.ArtworkRef
	if pic := m.Picture(); pic != nil {
		artwork = &catalog.ArtworkRef{Blob: pic.Data}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		augmentFromID3v2(path, &track, &album)
	case ".flac":
		augmentFromFLAC(path, &track, &album, &artwork)
	}

	if artwork == nil {
		if sidecar, ok := siblingArtwork(path); ok {
			artwork = &catalog.ArtworkRef{Path: sidecar}
		}
	}

	return track, album, artwork, true, nil
}

func baseRefs(m tag.Metadata) (catalog.TrackRef, catalog.AlbumRef) {
	trackNum, trackCount := m.Track()
	volNum, volCount := m.Disc()

	album := catalog.AlbumRef{
		Title:  m.Album(),
		Artist: nonEmptyPtr(m.AlbumArtist()),
	}
	if album.Artist == nil {
		album.Artist = nonEmptyPtr(m.Artist())
	}
	if volCount > 0 {
		vc := volCount
		album.VolumeCount = &vc
	}
	if year, ok := ReleaseYear(strconv.Itoa(m.Year())); ok {
		album.ReleaseYear = &year
	}

	track := catalog.TrackRef{
		Title:    m.Title(),
		Artist:   m.Artist(),
		Genre:    m.Genre(),
		Composer: m.Composer(),
	}
	if trackNum > 0 {
		tn := trackNum
		track.TrackNumber = &tn
	}
	if trackCount > 0 {
		tc := trackCount
		track.TrackCount = &tc
	}
	if volNum > 0 {
		vn := volNum
		track.VolumeNumber = &vn
	}
	if m.Year() > 0 {
		track.ReleaseDate = strconv.Itoa(m.Year())
	}
	return track, album
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// augmentFromID3v2 fills the MusicBrainz identity fields that dhowden/tag
// doesn't surface, reading TXXX user-defined frames the way MusicBrainz
// Picard writes them.
func augmentFromID3v2(path string, track *catalog.TrackRef, album *catalog.AlbumRef) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return
	}
	defer t.Close()

	for _, f := range t.GetFrames(t.CommonID("User defined text information frame")) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		switch strings.ToUpper(udtf.Description) {
		case "MUSICBRAINZ TRACK ID":
			track.MusicBrainzTrackID = udtf.Value
		case "MUSICBRAINZ ARTIST ID":
			track.MusicBrainzArtistID = udtf.Value
		case "MUSICBRAINZ ALBUM ID":
			album.MusicBrainzAlbumID = udtf.Value
		case "MUSICBRAINZ ALBUM ARTIST ID":
			album.MusicBrainzAlbumArtistID = udtf.Value
		}
	}
}

// augmentFromFLAC reads Vorbis comments for fields dhowden/tag's FLAC reader
// misses and, when no picture was already found via dhowden/tag, pulls the
// first METADATA_BLOCK_PICTURE whose type is front cover.
func augmentFromFLAC(path string, track *catalog.TrackRef, album *catalog.AlbumRef, artwork **catalog.ArtworkRef) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return
	}
	for _, meta := range f.Meta {
		switch meta.Type {
		case flac.VorbisComment:
			comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			if v, err := comment.Get(flacvorbis.FIELD_TITLE); err == nil && len(v) > 0 && track.Title == "" {
				track.Title = v[0]
			}
			if v, err := comment.Get("RELEASE_ID"); err == nil && len(v) > 0 {
				album.MusicBrainzAlbumID = v[0]
			}
			if v, err := comment.Get("TRACK_ID"); err == nil && len(v) > 0 {
				track.MusicBrainzTrackID = v[0]
			}
		case flac.Picture:
			if *artwork != nil {
				continue
			}
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			if pic.PictureType == flacpicture.PictureTypeFrontCover {
				*artwork = &catalog.ArtworkRef{Blob: pic.ImageData}
			}
		}
	}
}

// artworkSiblingNames are checked, in order, alongside a track file for a
// shared cover image when none is embedded.
var artworkSiblingNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

func siblingArtwork(trackPath string) (string, bool) {
	dir := filepath.Dir(trackPath)
	for _, name := range artworkSiblingNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
