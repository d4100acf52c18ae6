package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sonata/catalog"
	"sonata/types"
)

// EventSink receives library events for fan-out to connected clients.
type EventSink interface {
	Broadcast(event types.LibraryEvent)
}

// Synchronizer reconciles the on-disk set of audio files with the catalog.
//
// Identity policy: a song's identity is its path at insertion time. The
// synchronizer renames newly discovered files to canonical form before the
// record exists, so its own renames never touch ids. A file renamed
// externally between passes is treated as removed plus added and receives a
// fresh id; ids are never resurrected.
type Synchronizer struct {
	store  *catalog.Store
	events EventSink

	// Sync passes reason about the whole directory and must not overlap.
	mu sync.Mutex
}

// NewSynchronizer creates a synchronizer over the given store. events may be
// nil when no websocket fan-out is wired (e.g. in tests).
func NewSynchronizer(store *catalog.Store, events EventSink) *Synchronizer {
	return &Synchronizer{store: store, events: events}
}

// Sync runs one reconciliation pass over dir and reports what changed.
// Running it twice with no filesystem changes yields an empty second report.
func (s *Synchronizer) Sync(dir string) (types.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	report := types.SyncReport{Added: []types.Song{}, Removed: []int64{}, Updated: []types.Song{}}

	entries, err := ScanAudioFiles(dir)
	if err != nil {
		return report, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	known, err := s.store.SongsByPath()
	if err != nil {
		return report, fmt.Errorf("failed to load catalog: %w", err)
	}

	onDisk := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if existing, ok := known[entry.Path]; ok {
			onDisk[entry.Path] = true
			song, changed, err := s.refresh(existing, entry)
			if err != nil {
				return report, err
			}
			if changed {
				report.Updated = append(report.Updated, song)
			}
			continue
		}

		song, err := s.add(entry)
		if err != nil {
			return report, err
		}
		onDisk[song.Path] = true
		report.Added = append(report.Added, song)
	}

	for path, song := range known {
		if onDisk[path] {
			continue
		}
		if err := s.store.DeleteSong(song.ID); err != nil {
			return report, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		report.Removed = append(report.Removed, song.ID)
	}

	if !report.Empty() {
		log.Info("library sync completed",
			"dir", dir,
			"added", len(report.Added),
			"removed", len(report.Removed),
			"updated", len(report.Updated),
			"took", time.Since(started))
		s.publish(report)
	}
	return report, nil
}

// add extracts metadata for a newly discovered file, renames it to canonical
// form, and inserts the catalog record.
func (s *Synchronizer) add(entry FileEntry) (types.Song, error) {
	meta := ExtractMetadata(entry.Path)

	path, err := s.canonicalize(entry.Path, meta.Title, meta.Artist)
	if err != nil {
		// Keep the original path rather than lose the file.
		log.Warn("could not rename to canonical form", "path", entry.Path, "err", err)
		path = entry.Path
	}

	info, err := os.Stat(path)
	if err != nil {
		return types.Song{}, fmt.Errorf("file vanished during sync: %s: %w", path, err)
	}

	return s.store.UpsertSong(types.Song{
		Title:      meta.Title,
		Artist:     meta.Artist,
		Duration:   meta.Duration,
		HasCover:   meta.HasCover,
		Path:       path,
		FileSize:   info.Size(),
		ModifiedAt: info.ModTime(),
	})
}

// refresh re-extracts metadata when the file's size or modification time
// changed since the last pass.
func (s *Synchronizer) refresh(existing types.Song, entry FileEntry) (types.Song, bool, error) {
	if existing.FileSize == entry.Size && existing.ModifiedAt.Unix() == entry.ModifiedAt.Unix() {
		return existing, false, nil
	}

	meta := ExtractMetadata(entry.Path)
	song, err := s.store.UpsertSong(types.Song{
		Title:      meta.Title,
		Artist:     meta.Artist,
		Duration:   meta.Duration,
		HasCover:   meta.HasCover,
		Path:       entry.Path,
		FileSize:   entry.Size,
		ModifiedAt: entry.ModifiedAt,
	})
	if err != nil {
		return types.Song{}, false, fmt.Errorf("failed to update %s: %w", entry.Path, err)
	}
	return song, true, nil
}

// canonicalize renames the file to "Title — Artist.ext" in its own
// directory, resolving collisions with a numeric suffix. Already-canonical
// files are left alone.
func (s *Synchronizer) canonicalize(path, title, artist string) (string, error) {
	dir := filepath.Dir(path)
	canonical := CanonicalFilename(title, artist, filepath.Ext(path))
	if filepath.Base(path) == canonical {
		return path, nil
	}

	target := ResolveCollision(dir, canonical)
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	log.Debug("renamed to canonical form", "from", filepath.Base(path), "to", filepath.Base(target))
	return target, nil
}

func (s *Synchronizer) publish(report types.SyncReport) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(types.LibraryEvent{
		ID:        uuid.New().String(),
		Type:      types.EventSyncCompleted,
		Report:    &report,
		Timestamp: time.Now(),
	})
}
