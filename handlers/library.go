package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"sonata/services"
	"sonata/types"
	"sonata/websocket"
)

// LibraryHandler exposes import and sync operations plus the event stream.
type LibraryHandler struct {
	importer     *services.Importer
	synchronizer *services.Synchronizer
	libraryDir   string
	hub          websocket.Hub
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(importer *services.Importer, synchronizer *services.Synchronizer, libraryDir string, hub websocket.Hub) *LibraryHandler {
	return &LibraryHandler{
		importer:     importer,
		synchronizer: synchronizer,
		libraryDir:   libraryDir,
		hub:          hub,
	}
}

// Download runs the external download tool for the posted URL and syncs the
// catalog with whatever files it produced.
func (h *LibraryHandler) Download(c *gin.Context) {
	var body struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": "request body must contain a url",
		})
		return
	}

	result, err := h.importer.ImportFromURL(c.Request.Context(), body.URL)
	if err != nil {
		var toolErr *types.ToolError
		if errors.As(err, &toolErr) {
			log.Warn("import failed", "url", body.URL, "err", toolErr.Err)
			detail := toolErr.Output
			if detail == "" {
				detail = toolErr.Error()
			}
			c.JSON(http.StatusBadGateway, gin.H{
				"detail": detail,
			})
			return
		}
		log.Error("import failed", "url", body.URL, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Sync runs a reconciliation pass on demand and returns the report.
func (h *LibraryHandler) Sync(c *gin.Context) {
	report, err := h.synchronizer.Sync(h.libraryDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "sync failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Events upgrades the connection to a websocket stream of library events.
func (h *LibraryHandler) Events(c *gin.Context) {
	websocket.ServeEvents(h.hub, c.Writer, c.Request)
}
