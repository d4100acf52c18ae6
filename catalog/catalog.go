package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"sonata/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	file_path TEXT NOT NULL UNIQUE,
	duration REAL NOT NULL DEFAULT 0,
	has_cover INTEGER NOT NULL DEFAULT 0,
	file_size INTEGER NOT NULL DEFAULT 0,
	modified_at DATETIME,
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS playlist_songs (
	playlist_id INTEGER NOT NULL,
	song_id INTEGER NOT NULL,
	position INTEGER,
	PRIMARY KEY (playlist_id, song_id),
	FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE
);
`

// Store is the durable catalog of songs and playlists, backed by SQLite.
//
// Mutations are serialized behind a single writer lock; reads may proceed
// concurrently with each other. Each record is written in one statement, so
// readers never observe a half-updated row. AUTOINCREMENT guarantees song
// ids are never reused, even after deletion.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the catalog at path. A catalog file that exists but
// cannot be read or migrated is a fatal condition for the caller.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog %s is unreadable or corrupt: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const songColumns = "id, title, artist, file_path, duration, has_cover, file_size, modified_at, added_at"

func scanSong(row interface{ Scan(...any) error }) (types.Song, error) {
	var song types.Song
	var hasCover int
	var modified, added sql.NullTime
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.Path,
		&song.Duration, &hasCover, &song.FileSize, &modified, &added)
	if err != nil {
		return types.Song{}, err
	}
	song.HasCover = hasCover != 0
	if modified.Valid {
		song.ModifiedAt = modified.Time
	}
	if added.Valid {
		song.AddedAt = added.Time
	}
	return song, nil
}

// UpsertSong inserts the song, or updates the existing row when another
// record already owns the same path. On a path collision the colliding row
// keeps its id and its metadata is overwritten; this mirrors the upsert
// policy documented in DESIGN.md. The stored record is returned with its id
// and timestamps filled in.
func (s *Store) UpsertSong(song types.Song) (types.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO songs (title, artist, file_path, duration, has_cover, file_size, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			duration=excluded.duration,
			has_cover=excluded.has_cover,
			file_size=excluded.file_size,
			modified_at=excluded.modified_at`,
		song.Title, song.Artist, song.Path, song.Duration,
		boolToInt(song.HasCover), song.FileSize, song.ModifiedAt)
	if err != nil {
		return types.Song{}, fmt.Errorf("failed to upsert %s: %w", song.Path, err)
	}

	row := s.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE file_path = ?", song.Path)
	return scanSong(row)
}

// DeleteSong removes the record with the given id. Playlist references are
// left in place and filtered at read time.
func (s *Store) DeleteSong(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// GetSong looks up a song by id.
func (s *Store) GetSong(id int64) (types.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Song{}, types.ErrNotFound
	}
	return song, err
}

// GetSongByPath looks up a song by its file path.
func (s *Store) GetSongByPath(path string) (types.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+songColumns+" FROM songs WHERE file_path = ?", path)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Song{}, types.ErrNotFound
	}
	return song, err
}

// ListSongs returns all songs ordered alphabetically by title.
func (s *Store) ListSongs() ([]types.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + songColumns + " FROM songs ORDER BY title COLLATE NOCASE, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []types.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// SongsByPath returns every song keyed by file path, for the synchronizer's
// disk/catalog diff.
func (s *Store) SongsByPath() (map[string]types.Song, error) {
	songs, err := s.ListSongs()
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]types.Song, len(songs))
	for _, song := range songs {
		byPath[song.Path] = song
	}
	return byPath, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
