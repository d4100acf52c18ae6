package services

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// FileEntry is a candidate audio file found on disk.
type FileEntry struct {
	Path       string
	Size       int64
	ModifiedAt time.Time
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// IsAudioFile reports whether the path has a recognized audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanAudioFiles recursively walks rootPath and returns every audio file
// with its raw filesystem metadata. Unreadable entries are logged and
// skipped so one bad path never fails the whole scan.
func ScanAudioFiles(rootPath string) ([]FileEntry, error) {
	var entries []FileEntry

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn("error accessing path during scan", "path", path, "err", err)
			return nil
		}
		if info.IsDir() || !IsAudioFile(path) {
			return nil
		}

		entries = append(entries, FileEntry{
			Path:       path,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// GetContentType returns the MIME type served for an audio file.
func GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
