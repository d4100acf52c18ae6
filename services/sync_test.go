package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonata/catalog"
)

func newTestSync(t *testing.T) (*Synchronizer, *catalog.Store, string) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	libraryDir := t.TempDir()
	return NewSynchronizer(store, nil), store, libraryDir
}

func writeAudioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSyncEmptyDirectory(t *testing.T) {
	sync, store, dir := newTestSync(t)

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	assert.True(t, report.Empty())

	songs, err := store.ListSongs()
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSyncAddsAndNormalizesNewFile(t *testing.T) {
	sync, store, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.Empty(t, report.Removed)
	assert.Empty(t, report.Updated)

	song := report.Added[0]
	assert.Equal(t, "Yellow", song.Title)
	assert.Equal(t, "Coldplay", song.Artist)
	assert.Equal(t, float64(0), song.Duration)
	assert.False(t, song.HasCover)

	// The file was renamed to canonical form on disk.
	canonical := filepath.Join(dir, "Yellow — Coldplay.mp3")
	assert.FileExists(t, canonical)
	assert.NoFileExists(t, filepath.Join(dir, "Yellow - Coldplay.mp3"))
	assert.Equal(t, canonical, song.Path)

	stored, err := store.GetSong(song.ID)
	require.NoError(t, err)
	assert.Equal(t, canonical, stored.Path)
}

func TestSyncIsIdempotent(t *testing.T) {
	sync, _, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")
	writeAudioFile(t, dir, "Fix You - Coldplay.mp3", "also not real audio")

	first, err := sync.Sync(dir)
	require.NoError(t, err)
	assert.Len(t, first.Added, 2)

	second, err := sync.Sync(dir)
	require.NoError(t, err)
	assert.True(t, second.Empty(), "second pass with no changes must report nothing")
}

func TestSyncRemovesDeletedFiles(t *testing.T) {
	sync, store, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	id := report.Added[0].ID

	require.NoError(t, os.Remove(report.Added[0].Path))

	report, err = sync.Sync(dir)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, report.Removed)

	songs, err := store.ListSongs()
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSyncUpdatesChangedFiles(t *testing.T) {
	sync, _, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	path := report.Added[0].Path

	// Grow the file so its size differs from the recorded value.
	require.NoError(t, os.WriteFile(path, []byte("not real audio, now longer"), 0644))

	report, err = sync.Sync(dir)
	require.NoError(t, err)
	assert.Empty(t, report.Added)
	assert.Empty(t, report.Removed)
	require.Len(t, report.Updated, 1)
	assert.Equal(t, path, report.Updated[0].Path)
}

func TestReAddedFileReceivesNewID(t *testing.T) {
	sync, _, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	oldID := report.Added[0].ID
	canonicalPath := report.Added[0].Path

	require.NoError(t, os.Remove(canonicalPath))
	_, err = sync.Sync(dir)
	require.NoError(t, err)

	// Same content, same eventual path: still a brand new song.
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")
	report, err = sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.Greater(t, report.Added[0].ID, oldID)
}

func TestExternalRenameIsRemovePlusAdd(t *testing.T) {
	sync, store, dir := newTestSync(t)
	writeAudioFile(t, dir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	oldID := report.Added[0].ID

	require.NoError(t, os.Rename(report.Added[0].Path, filepath.Join(dir, "Paradise - Coldplay.mp3")))

	report, err = sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.Equal(t, []int64{oldID}, report.Removed)
	assert.NotEqual(t, oldID, report.Added[0].ID)
	assert.Equal(t, "Paradise", report.Added[0].Title)

	songs, err := store.ListSongs()
	require.NoError(t, err)
	assert.Len(t, songs, 1)
}

func TestCorruptFileStillBrowsable(t *testing.T) {
	sync, _, dir := newTestSync(t)
	// No separator in the name and garbage content: worst case fallback.
	writeAudioFile(t, dir, "Mystery.mp3", "\x00\x01garbage")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	assert.Equal(t, "Mystery", report.Added[0].Title)
	assert.Equal(t, UnknownArtist, report.Added[0].Artist)
	assert.Equal(t, float64(0), report.Added[0].Duration)
}

func TestSyncIgnoresNonAudioFiles(t *testing.T) {
	sync, _, dir := newTestSync(t)
	writeAudioFile(t, dir, "cover.jpg", "not audio")
	writeAudioFile(t, dir, "notes.txt", "not audio either")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestSyncRecursesIntoSubdirectories(t *testing.T) {
	sync, _, dir := newTestSync(t)
	subdir := filepath.Join(dir, "Coldplay")
	require.NoError(t, os.MkdirAll(subdir, 0755))
	writeAudioFile(t, subdir, "Yellow - Coldplay.mp3", "not real audio")

	report, err := sync.Sync(dir)
	require.NoError(t, err)
	require.Len(t, report.Added, 1)
	// Canonical rename stays within the file's own directory.
	assert.Equal(t, filepath.Join(subdir, "Yellow — Coldplay.mp3"), report.Added[0].Path)
}
