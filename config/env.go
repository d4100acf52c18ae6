package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Load reads an optional .env file into the process environment. Variables
// already set in the environment win.
func Load() {
	_ = godotenv.Load()
}

// GetLibraryDir returns the root directory holding the audio library.
func GetLibraryDir() string {
	if dir := os.Getenv("LIBRARY_DIR"); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "library")
	}
	return filepath.Join(homeDir, "Music", "Sonata")
}

// GetCatalogPath returns the location of the SQLite catalog file.
func GetCatalogPath() string {
	if p := os.Getenv("CATALOG_PATH"); p != "" {
		return p
	}
	return filepath.Join(GetDataDir(), "catalog.db")
}

// GetLyricsCachePath returns the location of the lyrics cache file.
func GetLyricsCachePath() string {
	if p := os.Getenv("LYRICS_CACHE_PATH"); p != "" {
		return p
	}
	return filepath.Join(GetDataDir(), "lyrics_cache.json")
}

// GetDataDir returns the directory for persisted state. Both the catalog
// and the lyrics cache tolerate being deleted between runs.
func GetDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(".", "data")
}

// GetLyricsToken returns the lyrics provider credential, empty if unset.
func GetLyricsToken() string {
	return os.Getenv("LYRICS_API_TOKEN")
}

// GetLyricsEndpoint returns the lyrics provider base URL.
func GetLyricsEndpoint() string {
	if endpoint := os.Getenv("LYRICS_API_URL"); endpoint != "" {
		return endpoint
	}
	return "https://api.genius.com"
}

// GetDownloaderPath returns the external download tool binary, honoring the
// DOWNLOADER_PATH override.
func GetDownloaderPath() string {
	if p := os.Getenv("DOWNLOADER_PATH"); p != "" {
		return p
	}
	return "spotdl"
}

// GetFFmpegPath returns the media conversion binary handed to the download
// tool, empty when no override is configured.
func GetFFmpegPath() string {
	return os.Getenv("FFMPEG_PATH")
}

// GetFFprobePath returns the binary used for duration probing.
func GetFFprobePath() string {
	if p := os.Getenv("FFPROBE_PATH"); p != "" {
		return p
	}
	return "ffprobe"
}

// GetImportTimeout returns the bounded wait for the download tool before it
// is treated as hung.
func GetImportTimeout() time.Duration {
	return parseDurationOrDefault(os.Getenv("IMPORT_TIMEOUT"), 10*time.Minute)
}

// GetNegativeLyricsTTL returns how long a cached lyrics miss is honored
// before the provider may be asked again. Zero means never retry.
func GetNegativeLyricsTTL() time.Duration {
	return parseDurationOrDefault(os.Getenv("LYRICS_NEGATIVE_TTL"), 0)
}

func parseDurationOrDefault(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}
