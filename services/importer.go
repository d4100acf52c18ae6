package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sonata/config"
	"sonata/types"
)

// Importer invokes the external download tool for a track URL and hands the
// resulting files to the synchronizer.
//
// The tool is treated as a black box: it is given the URL and the library
// directory, its combined output is captured, and a non-zero exit or timeout
// surfaces that output to the caller. Concurrent imports for different URLs
// are allowed; the post-import sync pass serializes on the synchronizer.
type Importer struct {
	sync       *Synchronizer
	events     EventSink
	libraryDir string
}

// NewImporter creates an importer that downloads into libraryDir.
func NewImporter(sync *Synchronizer, events EventSink, libraryDir string) *Importer {
	return &Importer{sync: sync, events: events, libraryDir: libraryDir}
}

// ImportFromURL downloads the given URL into the library and syncs the
// catalog. The returned result lists files the tool created; the catalog
// is unchanged when the tool fails.
func (imp *Importer) ImportFromURL(ctx context.Context, url string) (types.ImportResult, error) {
	jobID := uuid.New().String()
	result := types.ImportResult{JobID: jobID, AddedFiles: []string{}}

	imp.publish(types.EventImportStarted, jobID, url, "", nil)

	before, err := snapshotAudioFiles(imp.libraryDir)
	if err != nil {
		return result, fmt.Errorf("failed to snapshot library: %w", err)
	}

	output, err := imp.runDownloader(ctx, url)
	if err != nil {
		imp.publish(types.EventImportFailed, jobID, url, err.Error(), nil)
		return result, err
	}
	log.Info("download tool finished", "url", url, "job", jobID)
	log.Debug("download tool output", "output", output)

	after, err := snapshotAudioFiles(imp.libraryDir)
	if err != nil {
		return result, fmt.Errorf("failed to snapshot library: %w", err)
	}
	for path := range after {
		if !before[path] {
			result.AddedFiles = append(result.AddedFiles, path)
		}
	}

	report, err := imp.sync.Sync(imp.libraryDir)
	if err != nil {
		return result, err
	}
	result.Report = report

	imp.publish(types.EventImportFinished, jobID, url,
		fmt.Sprintf("imported %d file(s)", len(result.AddedFiles)), &report)
	return result, nil
}

// runDownloader executes the download tool with a bounded wait and returns
// its combined output.
func (imp *Importer) runDownloader(ctx context.Context, url string) (string, error) {
	toolPath := config.GetDownloaderPath()

	ctx, cancel := context.WithTimeout(ctx, config.GetImportTimeout())
	defer cancel()

	args := []string{url, "--output", imp.libraryDir}
	if ffmpeg := config.GetFFmpegPath(); ffmpeg != "" {
		args = append(args, "--ffmpeg", ffmpeg)
	}

	cmd := exec.CommandContext(ctx, toolPath, args...)
	output, err := cmd.CombinedOutput()
	captured := strings.TrimSpace(string(output))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return captured, &types.ToolError{
			Tool:   toolPath,
			Output: captured,
			Err:    fmt.Errorf("timed out after %s", config.GetImportTimeout()),
		}
	}
	if err != nil {
		return captured, &types.ToolError{Tool: toolPath, Output: captured, Err: err}
	}
	return captured, nil
}

func snapshotAudioFiles(dir string) (map[string]bool, error) {
	entries, err := ScanAudioFiles(dir)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]bool, len(entries))
	for _, entry := range entries {
		paths[entry.Path] = true
	}
	return paths, nil
}

func (imp *Importer) publish(eventType types.EventType, jobID, url, message string, report *types.SyncReport) {
	if imp.events == nil {
		return
	}
	imp.events.Broadcast(types.LibraryEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Message:   message,
		Report:    report,
		JobID:     jobID,
		URL:       url,
		Timestamp: time.Now(),
	})
}
