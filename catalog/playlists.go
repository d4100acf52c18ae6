package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sonata/types"
)

// CreatePlaylist creates an empty playlist and returns it. Names are unique;
// creating an existing name returns ErrConflict.
func (s *Store) CreatePlaylist(name string) (types.Playlist, error) {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return types.Playlist{}, fmt.Errorf("playlist name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("INSERT INTO playlists (name) VALUES (?)", cleaned)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return types.Playlist{}, types.ErrConflict
		}
		return types.Playlist{}, fmt.Errorf("failed to create playlist %s: %w", cleaned, err)
	}
	return s.playlistByName(cleaned)
}

// DeletePlaylist removes a playlist and its song associations.
func (s *Store) DeletePlaylist(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.playlistByName(name)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", pl.ID); err != nil {
		return err
	}
	_, err = s.db.Exec("DELETE FROM playlists WHERE id = ?", pl.ID)
	return err
}

// RenamePlaylist changes a playlist's name.
func (s *Store) RenamePlaylist(name, newName string) error {
	cleaned := strings.TrimSpace(newName)
	if cleaned == "" {
		return fmt.Errorf("playlist name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.playlistByName(name)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("UPDATE playlists SET name = ? WHERE id = ?", cleaned, pl.ID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return types.ErrConflict
	}
	return err
}

// ListPlaylists returns all playlists ordered by name.
func (s *Store) ListPlaylists() ([]types.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, name, created_at FROM playlists ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := []types.Playlist{}
	for rows.Next() {
		var pl types.Playlist
		var created sql.NullTime
		if err := rows.Scan(&pl.ID, &pl.Name, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			pl.CreatedAt = created.Time
		}
		playlists = append(playlists, pl)
	}
	return playlists, rows.Err()
}

// AddToPlaylist appends a song id to the playlist. The song is not required
// to exist; dangling ids are filtered when the playlist is read.
func (s *Store) AddToPlaylist(name string, songID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.playlistByName(name)
	if err != nil {
		return err
	}
	var next sql.NullInt64
	if err := s.db.QueryRow(
		"SELECT MAX(position) FROM playlist_songs WHERE playlist_id = ?", pl.ID).Scan(&next); err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)",
		pl.ID, songID, next.Int64+1)
	return err
}

// RemoveFromPlaylist drops a song id from the playlist.
func (s *Store) RemoveFromPlaylist(name string, songID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.playlistByName(name)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?", pl.ID, songID)
	return err
}

// PlaylistSongs returns the playlist's songs in position order. References
// to since-deleted songs are silently dropped by the join.
func (s *Store) PlaylistSongs(name string) ([]types.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pl, err := s.playlistByName(name)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT s.id, s.title, s.artist, s.file_path, s.duration, s.has_cover, s.file_size, s.modified_at, s.added_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`, pl.ID)
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

func (s *Store) playlistByName(name string) (types.Playlist, error) {
	var pl types.Playlist
	var created sql.NullTime
	row := s.db.QueryRow("SELECT id, name, created_at FROM playlists WHERE name = ?", strings.TrimSpace(name))
	if err := row.Scan(&pl.ID, &pl.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Playlist{}, types.ErrNotFound
		}
		return types.Playlist{}, err
	}
	if created.Valid {
		pl.CreatedAt = created.Time
	}
	return pl, nil
}
