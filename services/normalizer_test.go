package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Yellow", "Yellow"},
		{"slashes", "AC/DC", "AC_DC"},
		{"windows reserved", `What? "Is": This*`, "What Is This"},
		{"whitespace runs", "  Too   many    spaces ", "Too many spaces"},
		{"angle brackets and pipe", "a<b>c|d", "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestCanonicalFilename(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		artist   string
		ext      string
		expected string
	}{
		{"simple", "Yellow", "Coldplay", ".mp3", "Yellow — Coldplay.mp3"},
		{"uppercase extension", "Yellow", "Coldplay", ".MP3", "Yellow — Coldplay.mp3"},
		{"unsafe characters", "He/llo?", "A:B", ".flac", "He_llo — AB.flac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalFilename(tt.title, tt.artist, tt.ext))
		})
	}
}

func TestCanonicalFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 500)
	name := CanonicalFilename(long, "Artist", ".mp3")

	assert.LessOrEqual(t, len(name), maxStemBytes+len(".mp3"))
	assert.True(t, strings.HasSuffix(name, ".mp3"))
}

func TestResolveCollision(t *testing.T) {
	dir := t.TempDir()

	// No collision: the canonical path comes straight back.
	path := ResolveCollision(dir, "Yellow — Coldplay.mp3")
	assert.Equal(t, filepath.Join(dir, "Yellow — Coldplay.mp3"), path)

	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	second := ResolveCollision(dir, "Yellow — Coldplay.mp3")
	assert.Equal(t, filepath.Join(dir, "Yellow — Coldplay (2).mp3"), second)

	require.NoError(t, os.WriteFile(second, []byte("second"), 0644))

	third := ResolveCollision(dir, "Yellow — Coldplay.mp3")
	assert.Equal(t, filepath.Join(dir, "Yellow — Coldplay (3).mp3"), third)
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedTitle  string
		expectedArtist string
	}{
		{"dash separator", "Yellow - Coldplay.mp3", "Yellow", "Coldplay"},
		{"em dash separator", "Yellow — Coldplay.mp3", "Yellow", "Coldplay"},
		{"no separator", "Yellow.mp3", "Yellow", UnknownArtist},
		{"nested path", "/library/Fix You - Coldplay.flac", "Fix You", "Coldplay"},
		{"hyphenated title keeps going", "Twenty One - Pilots Band.mp3", "Twenty One", "Pilots Band"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, artist := ParseFilename(tt.path)
			assert.Equal(t, tt.expectedTitle, title)
			assert.Equal(t, tt.expectedArtist, artist)
		})
	}
}
