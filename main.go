package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"sonata/cmd"
	"sonata/config"
)

func main() {
	config.Load()

	var (
		port       int
		libraryDir string
	)
	flag.IntVar(&port, "port", 8080, "Port for the web server")
	flag.StringVar(&libraryDir, "library", "", "Library root directory (overrides LIBRARY_DIR)")
	flag.Parse()

	if libraryDir == "" {
		libraryDir = config.GetLibraryDir()
	}
	if err := os.MkdirAll(libraryDir, 0755); err != nil {
		log.Fatal("cannot create library directory", "dir", libraryDir, "err", err)
	}

	cmd.StartWebServer(port, libraryDir)
}
