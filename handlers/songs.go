package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"sonata/catalog"
	"sonata/services"
	"sonata/types"
)

// SongHandler serves song listing, streaming, cover art and lyrics.
type SongHandler struct {
	store  *catalog.Store
	lyrics *services.LyricsService
}

// NewSongHandler creates a new song handler.
func NewSongHandler(store *catalog.Store, lyrics *services.LyricsService) *SongHandler {
	return &SongHandler{store: store, lyrics: lyrics}
}

// ListSongs returns every catalog record, ordered by title.
func (h *SongHandler) ListSongs(c *gin.Context) {
	songs, err := h.store.ListSongs()
	if err != nil {
		log.Error("failed to list songs", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to list songs",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"songs": songs,
		"count": len(songs),
	})
}

// Stream serves the song's audio bytes with range request support.
func (h *SongHandler) Stream(c *gin.Context) {
	song, ok := h.songFromParam(c)
	if !ok {
		return
	}

	fileInfo, err := os.Stat(song.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "file missing on disk",
		})
		return
	}

	file, err := os.Open(song.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	c.Header("Content-Type", services.GetContentType(song.Path))
	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader, song.Path)
		return
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.Debug("stream interrupted", "path", song.Path, "err", err)
	}
}

// Cover serves the embedded cover art of the song.
func (h *SongHandler) Cover(c *gin.Context) {
	song, ok := h.songFromParam(c)
	if !ok {
		return
	}

	data, mime, err := services.ExtractCover(song.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no cover art embedded",
		})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, mime, data)
}

// Lyrics returns the song's lyrics, or null with a reason when unavailable.
func (h *SongHandler) Lyrics(c *gin.Context) {
	song, ok := h.songFromParam(c)
	if !ok {
		return
	}

	text, err := h.lyrics.GetLyrics(song.Title, song.Artist)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"title":  song.Title,
			"artist": song.Artist,
			"lyrics": nil,
			"reason": services.Reason(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":  song.Title,
		"artist": song.Artist,
		"lyrics": text,
	})
}

func (h *SongHandler) songFromParam(c *gin.Context) (types.Song, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song id must be an integer",
		})
		return types.Song{}, false
	}

	song, err := h.store.GetSong(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "song not found",
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "catalog lookup failed",
				"details": err.Error(),
			})
		}
		return types.Song{}, false
	}
	return song, true
}

// handleRangeRequest handles HTTP range requests for efficient seeking.
func (h *SongHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string, filePath string) {
	if !strings.HasPrefix(rangeHeader, "bytes=") {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	ranges := strings.Split(strings.TrimPrefix(rangeHeader, "bytes="), "-")
	if len(ranges) != 2 {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	var start, end int64
	var err error

	if ranges[0] != "" {
		start, err = strconv.ParseInt(ranges[0], 10, 64)
		if err != nil || start < 0 {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	}

	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
	} else {
		end = fileSize - 1
	}

	if start >= fileSize {
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= fileSize {
		end = fileSize - 1
	}

	contentLength := end - start + 1

	if _, err = file.Seek(start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	c.Header("Content-Type", services.GetContentType(filePath))
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Header("Accept-Ranges", "bytes")
	c.Status(http.StatusPartialContent)

	if _, err = io.CopyN(c.Writer, file, contentLength); err != nil {
		log.Debug("range stream interrupted", "start", start, "end", end, "err", err)
	}
}
