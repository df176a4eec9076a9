package main

import "strings"

// SnapImage describes one rendered screenshot as the backend stores it.
// Paths are opaque; the only client-side interpretation is taking the final
// path segment as a display label.
type SnapImage struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (img SnapImage) IsZero() bool {
	return img.Path == ""
}

// Basename returns the segment after the last path separator, used as the
// display label for tree leaves.
func (img SnapImage) Basename() string {
	path := img.Path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return path
}

// DiffImage is one "changed" entry: the paired old/new screenshots, the
// colorized pixel diff, and an optional large-scale (LCS) comparison
// artifact. LcsDiff with an empty path means the backend produced none.
type DiffImage struct {
	Old       SnapImage `json:"old"`
	New       SnapImage `json:"new"`
	ColorDiff SnapImage `json:"color_diff"`
	LcsDiff   SnapImage `json:"lcs_diff"`
}

// ComparisonRequest is the (old, new) build URL pair submitted for
// comparison. The ordered pair is the cache fingerprint.
type ComparisonRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (r ComparisonRequest) Fingerprint() string {
	return r.Old + "\x00" + r.New
}

func (r ComparisonRequest) IsComplete() bool {
	return r.Old != "" && r.New != ""
}

// ComparisonResult is the full payload for one finished comparison. Results
// are immutable once produced; the backend-assigned ID is the durable
// history key.
type ComparisonResult struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	CreatedAt           string      `json:"created_at"`
	OldStoryBookVersion string      `json:"old_story_book_version"`
	NewStoryBookVersion string      `json:"new_story_book_version"`
	OldImages           []SnapImage `json:"old_images"`
	NewImages           []SnapImage `json:"new_images"`
	CreatedImages       []SnapImage `json:"created_images"`
	DeletedImages       []SnapImage `json:"deleted_images"`
	DiffImages          []DiffImage `json:"diff_images"`
}

// HistoryEntry is the summary projection used by the history list; it never
// embeds the full image sequences.
type HistoryEntry struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	CreatedAt           string `json:"created_at"`
	OldStoryBookVersion string `json:"old_story_book_version"`
	NewStoryBookVersion string `json:"new_story_book_version"`
	CreatedCount        int    `json:"created_count"`
	DeletedCount        int    `json:"deleted_count"`
	ChangedCount        int    `json:"changed_count"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) DisplayName() string {
	switch s {
	case JobStatusQueued:
		return "Queued"
	case JobStatusRunning:
		return "Running"
	case JobStatusSucceeded:
		return "Succeeded"
	case JobStatusFailed:
		return "Failed"
	}
	return string(s)
}

// Job is one backend diff-computation unit. SnapShotBatchID links a finished
// job to its ComparisonResult once diffing completes.
type Job struct {
	ID              string    `json:"id"`
	Status          JobStatus `json:"status"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
	Progress        float64   `json:"progress"`
	SnapShotBatchID *string   `json:"snap_shot_batch_id"`
}
