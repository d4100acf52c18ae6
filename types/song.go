package types

import "time"

// Song represents a catalog record for one audio file on disk.
type Song struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Duration   float64   `json:"duration"` // seconds, 0 if undeterminable
	HasCover   bool      `json:"hasCover"`
	Path       string    `json:"-"`
	FileSize   int64     `json:"-"`
	ModifiedAt time.Time `json:"-"`
	AddedAt    time.Time `json:"addedAt"`
}

// SyncReport summarizes one reconciliation pass between disk and catalog.
type SyncReport struct {
	Added   []Song  `json:"added"`
	Removed []int64 `json:"removed"`
	Updated []Song  `json:"updated"`
}

// Empty reports whether the pass changed nothing.
func (r SyncReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Updated) == 0
}

// Playlist represents a named, ordered collection of song ids.
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImportResult describes the outcome of one external download invocation.
type ImportResult struct {
	JobID      string     `json:"jobId"`
	AddedFiles []string   `json:"addedFiles"`
	Report     SyncReport `json:"report"`
}
