package main

import (
	"context"
	"sync"
)

// submitOp is one in-flight comparison call for a fingerprint. Waiters block
// on done; a superseded op's response is never written to the cache.
type submitOp struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	result     *ComparisonResult
	err        error
	superseded bool
	cancelled  bool
}

// ComparisonCache is the single source of truth for comparison data: a keyed
// store above the Gateway owning deduplication, persistence, invalidation
// and cancellation. Results are immutable once produced, so retention is
// indefinite and only explicit invalidation evicts them.
type ComparisonCache struct {
	gateway Gateway
	store   *SessionStore

	mu           sync.Mutex
	fingerprints map[string]*ComparisonResult
	results      map[string]*ComparisonResult
	history      []HistoryEntry
	historyValid bool
	generations  map[string]uint64
	inflight     map[string]*submitOp
	idFetches    map[string]*submitOp
	epoch        uint64
}

// NewComparisonCache starts from whatever the session store still holds;
// a missing or corrupt session loads as an empty cache.
func NewComparisonCache(gateway Gateway, store *SessionStore) *ComparisonCache {
	blob := store.Load()
	return &ComparisonCache{
		gateway:      gateway,
		store:        store,
		fingerprints: blob.Fingerprints,
		results:      blob.Results,
		history:      blob.History,
		historyValid: blob.HistoryValid,
		generations:  map[string]uint64{},
		inflight:     map[string]*submitOp{},
		idFetches:    map[string]*submitOp{},
	}
}

// Submit runs a comparison for the (old, new) pair. A second Submit for the
// same fingerprint while one is in flight attaches to the same operation, so
// duplicates never issue a second network call. After a cancellation or a
// wipe the next Submit starts fresh; the late response of the abandoned call
// is discarded, so the cache always ends up holding the last-submitted
// content.
func (c *ComparisonCache) Submit(ctx context.Context, req ComparisonRequest) (*ComparisonResult, error) {
	c.mu.Lock()
	op := c.inflight[req.Fingerprint()]
	if op == nil || op.cancelled {
		op = c.beginSubmitLocked(req)
	}
	c.mu.Unlock()
	return c.awaitSubmit(ctx, req, op)
}

func (c *ComparisonCache) beginSubmitLocked(req ComparisonRequest) *submitOp {
	fp := req.Fingerprint()
	c.generations[fp]++
	if prev := c.inflight[fp]; prev != nil {
		prev.cancelled = true
		prev.cancel()
	}

	opCtx, cancel := context.WithCancel(context.Background())
	op := &submitOp{
		generation: c.generations[fp],
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.inflight[fp] = op
	epoch := c.epoch

	go c.runSubmit(opCtx, req, op, epoch)
	return op
}

func (c *ComparisonCache) runSubmit(ctx context.Context, req ComparisonRequest, op *submitOp, epoch uint64) {
	result, err := c.gateway.SubmitComparison(ctx, req)

	fp := req.Fingerprint()
	c.mu.Lock()
	if c.inflight[fp] == op {
		delete(c.inflight, fp)
	}
	current := c.epoch == epoch && c.generations[fp] == op.generation
	if current {
		if err == nil {
			c.fingerprints[fp] = result
			if result.ID != "" {
				c.results[result.ID] = result
			}
			c.historyValid = false
			c.persistLocked()
		}
		// A failed call leaves any previously cached value in place; the
		// operation stays retryable.
	} else {
		op.superseded = true
	}
	op.result, op.err = result, err
	c.mu.Unlock()
	close(op.done)
}

func (c *ComparisonCache) awaitSubmit(ctx context.Context, req ComparisonRequest, op *submitOp) (*ComparisonResult, error) {
	fp := req.Fingerprint()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-op.done:
		}

		c.mu.Lock()
		if !op.superseded {
			result, err := op.result, op.err
			c.mu.Unlock()
			return result, err
		}
		next := c.inflight[fp]
		if next == nil || next == op {
			// The newer submission already resolved; serve its entry. With
			// no entry left (the cache was wiped underneath us) surface the
			// op's own outcome instead.
			if result, ok := c.fingerprints[fp]; ok {
				c.mu.Unlock()
				return result, nil
			}
			result, err := op.result, op.err
			c.mu.Unlock()
			return result, err
		}
		op = next
		c.mu.Unlock()
	}
}

// FetchByFingerprint is the read-through lookup for the (old, new) pair.
// With enabled false nothing is fetched (used while the URL pair is still
// incomplete). A cache hit never touches the network; a hit on an in-flight
// submission attaches to it; a miss issues the comparison call itself.
func (c *ComparisonCache) FetchByFingerprint(ctx context.Context, req ComparisonRequest, enabled bool) (*ComparisonResult, error) {
	if !enabled {
		return nil, nil
	}
	fp := req.Fingerprint()

	c.mu.Lock()
	if result, ok := c.fingerprints[fp]; ok {
		c.mu.Unlock()
		return result, nil
	}
	op := c.inflight[fp]
	if op == nil || op.cancelled {
		op = c.beginSubmitLocked(req)
	}
	c.mu.Unlock()

	return c.awaitSubmit(ctx, req, op)
}

// FetchByID is the read-through lookup keyed by the backend-assigned result
// id, used for historical detail views. Concurrent misses for the same id
// share one network call.
func (c *ComparisonCache) FetchByID(ctx context.Context, id string) (*ComparisonResult, error) {
	c.mu.Lock()
	if result, ok := c.results[id]; ok {
		c.mu.Unlock()
		return result, nil
	}
	op := c.idFetches[id]
	if op == nil {
		opCtx, cancel := context.WithCancel(context.Background())
		op = &submitOp{cancel: cancel, done: make(chan struct{})}
		c.idFetches[id] = op
		epoch := c.epoch
		go c.runFetchByID(opCtx, id, op, epoch)
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-op.done:
		return op.result, op.err
	}
}

func (c *ComparisonCache) runFetchByID(ctx context.Context, id string, op *submitOp, epoch uint64) {
	result, err := c.gateway.FetchComparison(ctx, id)

	c.mu.Lock()
	if c.idFetches[id] == op {
		delete(c.idFetches, id)
	}
	if err == nil && c.epoch == epoch {
		c.results[id] = result
		c.persistLocked()
	}
	op.result, op.err = result, err
	c.mu.Unlock()
	close(op.done)
}

// ListHistory returns the cached history collection, re-fetching it only
// when a successful Submit or a wipe has marked it stale. A failed re-fetch
// leaves the previous entries untouched.
func (c *ComparisonCache) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	c.mu.Lock()
	if c.historyValid {
		entries := c.history
		c.mu.Unlock()
		return entries, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	entries, err := c.gateway.ListHistory(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return c.history, err
	}
	if c.epoch == epoch {
		c.history = entries
		c.historyValid = true
		c.persistLocked()
	}
	return entries, nil
}

// InvalidateAll performs the administrative wipe. The cache is only cleared
// once the backend confirms, so a failed wipe never leaves the UI showing an
// incoherent empty state.
func (c *ComparisonCache) InvalidateAll(ctx context.Context) error {
	if err := c.gateway.ClearAllData(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.epoch++
	for _, op := range c.inflight {
		op.cancelled = true
		op.cancel()
	}
	for _, op := range c.idFetches {
		op.cancel()
	}
	c.fingerprints = map[string]*ComparisonResult{}
	c.results = map[string]*ComparisonResult{}
	c.history = nil
	c.historyValid = false
	c.generations = map[string]uint64{}
	c.mu.Unlock()

	c.store.Clear()
	return nil
}

// CancelPending cancels the in-flight submission for the pair, if any, when
// the user abandons it. Cancellation is not an error and writes nothing.
func (c *ComparisonCache) CancelPending(req ComparisonRequest) {
	c.mu.Lock()
	op := c.inflight[req.Fingerprint()]
	if op != nil {
		op.cancelled = true
	}
	c.mu.Unlock()
	if op != nil {
		op.cancel()
	}
}

// Pending reports whether a submission for the pair is still in flight.
func (c *ComparisonCache) Pending(req ComparisonRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[req.Fingerprint()] != nil
}

// Peek returns the cached entry for the pair without ever fetching.
func (c *ComparisonCache) Peek(req ComparisonRequest) (*ComparisonResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.fingerprints[req.Fingerprint()]
	return result, ok
}

// persistLocked snapshots the keyspaces under the lock and writes the blob
// off the caller's goroutine. In-flight state is never persisted.
func (c *ComparisonCache) persistLocked() {
	blob := sessionBlob{
		Fingerprints: make(map[string]*ComparisonResult, len(c.fingerprints)),
		Results:      make(map[string]*ComparisonResult, len(c.results)),
		History:      c.history,
		HistoryValid: c.historyValid,
	}
	for key, value := range c.fingerprints {
		blob.Fingerprints[key] = value
	}
	for key, value := range c.results {
		blob.Results[key] = value
	}
	go c.store.Save(blob)
}
