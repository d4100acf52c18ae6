package services

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"

	"sonata/config"
	"sonata/types"
)

// UnknownArtist is the artist recorded when neither tags nor the filename
// identify one.
const UnknownArtist = "Unknown Artist"

// SongMetadata holds the attributes extracted from an audio file.
type SongMetadata struct {
	Title    string
	Artist   string
	Duration float64
	HasCover bool
}

// ExtractMetadata reads tag-embedded attributes from the file, falling back
// to the filename for anything missing. Extraction never fails hard: a
// corrupt file still yields best-effort metadata so the library stays
// browsable.
func ExtractMetadata(filePath string) SongMetadata {
	meta := SongMetadata{}

	file, err := os.Open(filePath)
	if err != nil {
		log.Warn("could not open audio file", "path", filePath, "err", err)
		meta.Title, meta.Artist = ParseFilename(filePath)
		return meta
	}
	defer file.Close()

	parsed, err := tag.ReadFrom(file)
	if err != nil {
		log.Warn("could not parse audio tags", "path", filePath, "err", err)
		meta.Title, meta.Artist = ParseFilename(filePath)
		meta.Duration = ProbeDuration(filePath)
		return meta
	}

	meta.Title = strings.TrimSpace(parsed.Title())
	meta.Artist = strings.TrimSpace(parsed.Artist())
	meta.HasCover = parsed.Picture() != nil

	if meta.Title == "" || meta.Artist == "" {
		title, artist := ParseFilename(filePath)
		if meta.Title == "" {
			meta.Title = title
		}
		if meta.Artist == "" {
			meta.Artist = artist
		}
	}

	meta.Duration = ProbeDuration(filePath)
	return meta
}

// ParseFilename derives (title, artist) from a "Title - Artist.ext" or
// "Title — Artist.ext" filename. A stem with no separator becomes the title
// with an unknown artist.
func ParseFilename(filePath string) (title, artist string) {
	stem := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	for _, sep := range []string{" — ", " - "} {
		if idx := strings.Index(stem, sep); idx > 0 {
			title = strings.TrimSpace(stem[:idx])
			artist = strings.TrimSpace(stem[idx+len(sep):])
			if title != "" && artist != "" {
				return title, artist
			}
		}
	}
	return strings.TrimSpace(stem), UnknownArtist
}

// ProbeDuration asks ffprobe for the track length in seconds, returning 0
// when the probe fails or the binary is unavailable.
func ProbeDuration(filePath string) float64 {
	cmd := exec.Command(
		config.GetFFprobePath(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Debug("ffprobe failed", "path", filePath, "err", err, "stderr", stderr.String())
		return 0
	}

	raw := strings.TrimSpace(out.String())
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

// ExtractCover returns the embedded cover art bytes and MIME type, or
// ErrNotFound when the file carries no picture.
func ExtractCover(filePath string) ([]byte, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", types.ErrNotFound
	}
	defer file.Close()

	parsed, err := tag.ReadFrom(file)
	if err != nil {
		return nil, "", types.ErrNotFound
	}

	pic := parsed.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, "", types.ErrNotFound
	}

	mime := pic.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return pic.Data, mime, nil
}
