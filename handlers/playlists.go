package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sonata/catalog"
	"sonata/types"
)

// PlaylistHandler manages playlist endpoints.
type PlaylistHandler struct {
	store *catalog.Store
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(store *catalog.Store) *PlaylistHandler {
	return &PlaylistHandler{store: store}
}

// List returns all playlists.
func (h *PlaylistHandler) List(c *gin.Context) {
	playlists, err := h.store.ListPlaylists()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list playlists",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playlists": playlists,
		"count":     len(playlists),
	})
}

// Create adds a new empty playlist.
func (h *PlaylistHandler) Create(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must contain a name",
		})
		return
	}

	playlist, err := h.store.CreatePlaylist(body.Name)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "playlist already exists",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "failed to create playlist",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

// Delete removes a playlist and its associations.
func (h *PlaylistHandler) Delete(c *gin.Context) {
	if err := h.store.DeletePlaylist(c.Param("name")); err != nil {
		h.storeError(c, err, "failed to delete playlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "playlist deleted",
	})
}

// Songs returns the playlist's songs; references to deleted songs are
// filtered silently.
func (h *PlaylistHandler) Songs(c *gin.Context) {
	songs, err := h.store.PlaylistSongs(c.Param("name"))
	if err != nil {
		h.storeError(c, err, "failed to read playlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"songs": songs,
		"count": len(songs),
	})
}

// AddSong appends a song id to the playlist.
func (h *PlaylistHandler) AddSong(c *gin.Context) {
	var body struct {
		ID int64 `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must contain a song id",
		})
		return
	}

	if err := h.store.AddToPlaylist(c.Param("name"), body.ID); err != nil {
		h.storeError(c, err, "failed to add song to playlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "song added",
	})
}

// RemoveSong drops a song id from the playlist.
func (h *PlaylistHandler) RemoveSong(c *gin.Context) {
	songID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song id must be an integer",
		})
		return
	}

	if err := h.store.RemoveFromPlaylist(c.Param("name"), songID); err != nil {
		h.storeError(c, err, "failed to remove song from playlist")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "song removed",
	})
}

func (h *PlaylistHandler) storeError(c *gin.Context, err error, message string) {
	if errors.Is(err, types.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "playlist not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
