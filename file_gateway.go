package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var errOfflineGateway = errors.New("not available when reviewing a saved result file")

// FileGateway serves a single comparison result loaded from a JSON file, for
// reviewing a saved payload without a backend. Submitting, job polling and
// the admin wipe are unsupported.
type FileGateway struct {
	Result *ComparisonResult
	Assets string
}

func LoadFileGateway(path string, assetURL string) (*FileGateway, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file %q: %w", path, err)
	}
	var result ComparisonResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse result file %q: %w", path, err)
	}
	return &FileGateway{Result: &result, Assets: assetURL}, nil
}

func (g *FileGateway) SubmitComparison(ctx context.Context, req ComparisonRequest) (*ComparisonResult, error) {
	return nil, errOfflineGateway
}

func (g *FileGateway) FetchComparison(ctx context.Context, id string) (*ComparisonResult, error) {
	if g.Result == nil || g.Result.ID != id {
		return nil, fmt.Errorf("no saved result with id %q", id)
	}
	return g.Result, nil
}

func (g *FileGateway) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	if g.Result == nil {
		return nil, nil
	}
	return []HistoryEntry{summarizeResult(g.Result)}, nil
}

func (g *FileGateway) ListJobs(ctx context.Context) ([]Job, error) {
	return nil, nil
}

func (g *FileGateway) ClearAllData(ctx context.Context) error {
	return errOfflineGateway
}

func (g *FileGateway) AssetURL(path string) string {
	if g.Assets == "" {
		return path
	}
	return g.Assets + "/" + path
}

func summarizeResult(result *ComparisonResult) HistoryEntry {
	return HistoryEntry{
		ID:                  result.ID,
		Name:                result.Name,
		CreatedAt:           result.CreatedAt,
		OldStoryBookVersion: result.OldStoryBookVersion,
		NewStoryBookVersion: result.NewStoryBookVersion,
		CreatedCount:        len(result.CreatedImages),
		DeletedCount:        len(result.DeletedImages),
		ChangedCount:        len(result.DiffImages),
	}
}
