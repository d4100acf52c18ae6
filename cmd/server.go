package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"sonata/catalog"
	"sonata/config"
	"sonata/handlers"
	"sonata/middleware"
	"sonata/services"
	"sonata/websocket"
)

// StartWebServer wires the services together and runs the HTTP server.
func StartWebServer(port int, libraryDir string) {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := catalog.Open(config.GetCatalogPath())
	if err != nil {
		log.Fatal("cannot open catalog", "err", err)
	}
	defer store.Close()

	hub := websocket.NewHub()
	go hub.Run()

	synchronizer := services.NewSynchronizer(store, hub)
	importer := services.NewImporter(synchronizer, hub, libraryDir)
	lyrics := services.NewLyricsService(
		config.GetLyricsCachePath(),
		config.GetLyricsEndpoint(),
		config.GetLyricsToken(),
		config.GetNegativeLyricsTTL(),
	)

	// Startup reconciliation: the catalog resyncs from the disk scan, so a
	// deleted catalog file simply rebuilds.
	report, err := synchronizer.Sync(libraryDir)
	if err != nil {
		log.Fatal("startup sync failed", "err", err)
	}
	log.Info("library ready",
		"dir", libraryDir,
		"added", len(report.Added),
		"removed", len(report.Removed),
		"updated", len(report.Updated))

	watcher, err := services.NewWatcher(libraryDir, 2*time.Second, func() {
		if _, err := synchronizer.Sync(libraryDir); err != nil {
			log.Error("watcher-triggered sync failed", "err", err)
		}
	})
	if err != nil {
		log.Warn("library watcher unavailable, external changes need a restart or POST /api/sync", "err", err)
	} else {
		defer watcher.Close()
	}

	songHandler := handlers.NewSongHandler(store, lyrics)
	libraryHandler := handlers.NewLibraryHandler(importer, synchronizer, libraryDir, hub)
	playlistHandler := handlers.NewPlaylistHandler(store)
	healthHandler := handlers.NewHealthHandler()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())

	setupRoutes(r, songHandler, libraryHandler, playlistHandler, healthHandler)

	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Info("sonata web server starting", "port", portStr, "library", libraryDir)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatal("failed to start server", "err", err)
	}
}

// setupRoutes configures all the HTTP routes.
func setupRoutes(r *gin.Engine, songHandler *handlers.SongHandler, libraryHandler *handlers.LibraryHandler, playlistHandler *handlers.PlaylistHandler, healthHandler *handlers.HealthHandler) {
	r.GET("/health", healthHandler.HealthCheck)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Songs
		apiGroup.GET("/songs", songHandler.ListSongs)
		apiGroup.GET("/stream/:id", songHandler.Stream)
		apiGroup.GET("/cover/:id", songHandler.Cover)
		apiGroup.GET("/lyrics/:id", songHandler.Lyrics)

		// Library maintenance
		apiGroup.POST("/download", libraryHandler.Download)
		apiGroup.POST("/sync", libraryHandler.Sync)
		apiGroup.GET("/events", libraryHandler.Events)

		// Playlists
		playlistGroup := apiGroup.Group("/playlists")
		{
			playlistGroup.GET("", playlistHandler.List)
			playlistGroup.POST("", playlistHandler.Create)
			playlistGroup.GET("/:name", playlistHandler.Songs)
			playlistGroup.DELETE("/:name", playlistHandler.Delete)
			playlistGroup.POST("/:name/songs", playlistHandler.AddSong)
			playlistGroup.DELETE("/:name/songs/:id", playlistHandler.RemoveSong)
		}
	}
}
