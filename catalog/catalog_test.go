package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonata/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSong(path, title, artist string) types.Song {
	return types.Song{
		Title:      title,
		Artist:     artist,
		Path:       path,
		Duration:   180,
		FileSize:   1024,
		ModifiedAt: time.Now(),
	}
}

func TestUpsertAssignsID(t *testing.T) {
	store := newTestStore(t)

	song, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)
	assert.Greater(t, song.ID, int64(0))
	assert.Equal(t, "Alpha", song.Title)
	assert.False(t, song.AddedAt.IsZero())
}

func TestUpsertPathCollisionKeepsID(t *testing.T) {
	store := newTestStore(t)

	first, err := store.UpsertSong(testSong("/music/a.mp3", "Old Title", "Old Artist"))
	require.NoError(t, err)

	second, err := store.UpsertSong(testSong("/music/a.mp3", "New Title", "New Artist"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "New Title", second.Title)
	assert.Equal(t, "New Artist", second.Artist)

	songs, err := store.ListSongs()
	require.NoError(t, err)
	assert.Len(t, songs, 1)
}

func TestIDsNeverReused(t *testing.T) {
	store := newTestStore(t)

	first, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteSong(first.ID))

	second, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestGetSongNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSong(42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetSongByPath(t *testing.T) {
	store := newTestStore(t)

	added, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)

	song, err := store.GetSongByPath("/music/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, added.ID, song.ID)

	_, err = store.GetSongByPath("/music/missing.mp3")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteSongNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteSong(42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestListSongsOrderedByTitle(t *testing.T) {
	store := newTestStore(t)

	for _, s := range []struct{ path, title string }{
		{"/music/c.mp3", "Charlie"},
		{"/music/a.mp3", "alpha"},
		{"/music/b.mp3", "Bravo"},
	} {
		_, err := store.UpsertSong(testSong(s.path, s.title, "Artist"))
		require.NoError(t, err)
	}

	songs, err := store.ListSongs()
	require.NoError(t, err)
	require.Len(t, songs, 3)

	// Alphabetical by title, case-insensitive.
	assert.Equal(t, "alpha", songs[0].Title)
	assert.Equal(t, "Bravo", songs[1].Title)
	assert.Equal(t, "Charlie", songs[2].Title)
}

func TestSongsByPath(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)
	_, err = store.UpsertSong(testSong("/music/b.mp3", "Bravo", "Artist"))
	require.NoError(t, err)

	byPath, err := store.SongsByPath()
	require.NoError(t, err)
	assert.Len(t, byPath, 2)
	assert.Contains(t, byPath, "/music/a.mp3")
	assert.Contains(t, byPath, "/music/b.mp3")
}

func TestPlaylistLifecycle(t *testing.T) {
	store := newTestStore(t)

	playlist, err := store.CreatePlaylist("Road Trip")
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", playlist.Name)

	_, err = store.CreatePlaylist("Road Trip")
	assert.ErrorIs(t, err, types.ErrConflict)

	playlists, err := store.ListPlaylists()
	require.NoError(t, err)
	assert.Len(t, playlists, 1)

	require.NoError(t, store.RenamePlaylist("Road Trip", "Long Drive"))
	require.NoError(t, store.DeletePlaylist("Long Drive"))

	playlists, err = store.ListPlaylists()
	require.NoError(t, err)
	assert.Empty(t, playlists)
}

func TestPlaylistSongsPreserveOrder(t *testing.T) {
	store := newTestStore(t)

	first, err := store.UpsertSong(testSong("/music/a.mp3", "Zulu", "Artist"))
	require.NoError(t, err)
	second, err := store.UpsertSong(testSong("/music/b.mp3", "Alpha", "Artist"))
	require.NoError(t, err)

	_, err = store.CreatePlaylist("Mix")
	require.NoError(t, err)
	require.NoError(t, store.AddToPlaylist("Mix", first.ID))
	require.NoError(t, store.AddToPlaylist("Mix", second.ID))

	songs, err := store.PlaylistSongs("Mix")
	require.NoError(t, err)
	require.Len(t, songs, 2)

	// Insertion order, not title order.
	assert.Equal(t, "Zulu", songs[0].Title)
	assert.Equal(t, "Alpha", songs[1].Title)
}

func TestPlaylistFiltersDanglingIDs(t *testing.T) {
	store := newTestStore(t)

	song, err := store.UpsertSong(testSong("/music/a.mp3", "Alpha", "Artist"))
	require.NoError(t, err)

	_, err = store.CreatePlaylist("Mix")
	require.NoError(t, err)
	require.NoError(t, store.AddToPlaylist("Mix", song.ID))
	// Dangling reference: the song never existed.
	require.NoError(t, store.AddToPlaylist("Mix", 9999))

	songs, err := store.PlaylistSongs("Mix")
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, song.ID, songs[0].ID)

	// Deleting the real song makes its reference dangle too.
	require.NoError(t, store.DeleteSong(song.ID))
	songs, err = store.PlaylistSongs("Mix")
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestPlaylistNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.PlaylistSongs("nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = store.AddToPlaylist("nope", 1)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
