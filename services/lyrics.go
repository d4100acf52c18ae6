package services

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"sonata/types"
)

// LyricsService resolves lyrics for (title, artist) pairs against an
// external provider, with a persistent cache in front of it.
//
// Misses are cached negatively: once the provider has said "nothing here",
// repeated requests for the same song never hit the network again (until the
// optional negative TTL expires). A missing or rejected credential is
// surfaced as ErrProviderAuth without any network call, so callers can show
// a configuration hint instead of a content message.
type LyricsService struct {
	cachePath   string
	endpoint    string
	token       string
	negativeTTL time.Duration
	client      *http.Client

	mu    sync.Mutex
	cache map[string]lyricsEntry
}

type lyricsEntry struct {
	Lyrics    string    `json:"lyrics,omitempty"`
	Negative  bool      `json:"negative,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NewLyricsService creates the service. The cache file is loaded lazily and
// tolerates being deleted between runs.
func NewLyricsService(cachePath, endpoint, token string, negativeTTL time.Duration) *LyricsService {
	return &LyricsService{
		cachePath:   cachePath,
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		token:       token,
		negativeTTL: negativeTTL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// GetLyrics returns lyrics text, ErrProviderMiss when the provider has
// nothing, or ErrProviderAuth when the credential is missing or invalid.
func (l *LyricsService) GetLyrics(title, artist string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadCache()
	key := lyricsKey(artist, title)

	if entry, ok := l.cache[key]; ok {
		if !entry.Negative {
			return entry.Lyrics, nil
		}
		if l.negativeTTL == 0 || time.Since(entry.FetchedAt) < l.negativeTTL {
			return "", types.ErrProviderMiss
		}
		// Expired negative entry, ask again.
	}

	if l.token == "" {
		return "", types.ErrProviderAuth
	}

	text, err := l.fetch(title, artist)
	if err != nil {
		if err == types.ErrProviderMiss {
			l.cache[key] = lyricsEntry{Negative: true, FetchedAt: time.Now()}
			l.saveCache()
		}
		return "", err
	}

	l.cache[key] = lyricsEntry{Lyrics: text, FetchedAt: time.Now()}
	l.saveCache()
	return text, nil
}

// fetch asks the provider for lyrics. Provider errors other than auth are
// folded into a miss so the library stays usable when the provider is down.
func (l *LyricsService) fetch(title, artist string) (string, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("artist", artist)

	req, err := http.NewRequest(http.MethodGet, l.endpoint+"/lyrics?"+query.Encode(), nil)
	if err != nil {
		return "", types.ErrProviderMiss
	}
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		log.Warn("lyrics provider unreachable", "err", err)
		return "", types.ErrProviderMiss
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", types.ErrProviderAuth
	case resp.StatusCode == http.StatusNotFound:
		return "", types.ErrProviderMiss
	case resp.StatusCode != http.StatusOK:
		log.Warn("lyrics provider error", "status", resp.StatusCode)
		return "", types.ErrProviderMiss
	}

	var body struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", types.ErrProviderMiss
	}

	text := stripTrailingCredits(body.Lyrics)
	if text == "" {
		return "", types.ErrProviderMiss
	}
	return text, nil
}

var (
	noiseOfficialVideo = regexp.MustCompile(`\(.*?official.*?video.*?\)`)
	noiseAudio         = regexp.MustCompile(`\(.*?audio.*?\)`)
	noiseFeat          = regexp.MustCompile(`feat\.?|ft\.`)
	noiseBlankLines    = regexp.MustCompile(`\n{3,}`)
	whitespaceRuns     = regexp.MustCompile(`\s+`)
)

// lyricsKey normalizes (artist, title) into the cache key, stripping common
// filename noise so "Song (Official Video)" and "Song" share an entry.
func lyricsKey(artist, title string) string {
	clean := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, "_", " ")
		s = noiseOfficialVideo.ReplaceAllString(s, "")
		s = noiseAudio.ReplaceAllString(s, "")
		s = noiseFeat.ReplaceAllString(s, "feat")
		s = whitespaceRuns.ReplaceAllString(s, " ")
		return strings.TrimSpace(s)
	}
	return clean(artist) + "|" + clean(title)
}

// stripTrailingCredits drops provider boilerplate: "...Embed" suffixes, bare
// URLs, and excess blank lines.
func stripTrailingCredits(lyrics string) string {
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(lyrics), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(strings.ToLower(trimmed), "embed") {
			continue
		}
		if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
			continue
		}
		kept = append(kept, line)
	}
	text := strings.TrimSpace(strings.Join(kept, "\n"))
	return noiseBlankLines.ReplaceAllString(text, "\n\n")
}

// loadCache reads the cache file if it has not been loaded yet. A missing or
// unreadable file simply starts an empty cache.
func (l *LyricsService) loadCache() {
	if l.cache != nil {
		return
	}
	l.cache = make(map[string]lyricsEntry)

	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &l.cache); err != nil {
		log.Warn("lyrics cache unreadable, starting fresh", "path", l.cachePath, "err", err)
		l.cache = make(map[string]lyricsEntry)
	}
}

func (l *LyricsService) saveCache() {
	if dir := filepath.Dir(l.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn("could not create lyrics cache directory", "err", err)
			return
		}
	}
	data, err := json.MarshalIndent(l.cache, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(l.cachePath, data, 0644); err != nil {
		log.Warn("could not persist lyrics cache", "path", l.cachePath, "err", err)
	}
}

// Reason maps a lyrics error to the human-readable reason returned by the
// API.
func Reason(err error) string {
	switch err {
	case types.ErrProviderAuth:
		return "lyrics provider credential not configured; set LYRICS_API_TOKEN"
	case types.ErrProviderMiss:
		return "no lyrics found for this song"
	default:
		return "lyrics unavailable"
	}
}
