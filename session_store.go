package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// sessionBlob is the serialized form of the cache keyspaces. The format is
// an implementation detail; anything missing or unparseable loads as an
// empty cache.
type sessionBlob struct {
	Fingerprints map[string]*ComparisonResult `json:"fingerprints"`
	Results      map[string]*ComparisonResult `json:"results"`
	History      []HistoryEntry               `json:"history"`
	HistoryValid bool                         `json:"history_valid"`
}

func newSessionBlob() sessionBlob {
	return sessionBlob{
		Fingerprints: map[string]*ComparisonResult{},
		Results:      map[string]*ComparisonResult{},
	}
}

// SessionStore persists the cache between runs. All operations are
// best-effort: failures fall back to an empty session and are never
// surfaced.
type SessionStore struct {
	path string
}

// NewSessionStore stores the session at the given path. An empty path
// disables persistence entirely.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) Load() sessionBlob {
	blob := newSessionBlob()
	if s == nil || s.path == "" {
		return blob
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return blob
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return newSessionBlob()
	}
	if blob.Fingerprints == nil {
		blob.Fingerprints = map[string]*ComparisonResult{}
	}
	if blob.Results == nil {
		blob.Results = map[string]*ComparisonResult{}
	}
	return blob
}

func (s *SessionStore) Save(blob sessionBlob) {
	if s == nil || s.path == "" {
		return
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(s.path, data, 0o644)
}

func (s *SessionStore) Clear() {
	if s == nil || s.path == "" {
		return
	}
	_ = os.Remove(s.path)
}
