package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxStemBytes bounds the canonical filename stem so the full name stays
// comfortably below common filesystem limits.
const maxStemBytes = 180

var invalidFilenameChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFilename strips characters that are unsafe in file paths and
// collapses runs of whitespace.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// CanonicalFilename builds the "Title — Artist.ext" form for a song. The
// result is NFC-normalized, sanitized, and truncated to a safe length.
func CanonicalFilename(title, artist, ext string) string {
	stem := fmt.Sprintf("%s — %s", SanitizeFilename(title), SanitizeFilename(artist))
	stem = norm.NFC.String(stem)
	stem = truncateStem(stem, maxStemBytes)
	return stem + strings.ToLower(ext)
}

// ResolveCollision returns a path in dir for the canonical filename that
// does not collide with any existing file, appending " (2)", " (3)", ... to
// the stem when needed.
func ResolveCollision(dir, filename string) string {
	candidate := filepath.Join(dir, filename)
	if !fileExists(candidate) {
		return candidate
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if !fileExists(candidate) {
			return candidate
		}
	}
}

// truncateStem cuts the stem to maxBytes without splitting a rune.
func truncateStem(stem string, maxBytes int) string {
	if len(stem) <= maxBytes {
		return stem
	}
	cut := stem[:maxBytes]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return strings.TrimSpace(cut)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
