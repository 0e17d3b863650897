// Package store holds the locally mirrored work item collection and serves
// concurrent full-text search over it.
package store

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/remote"
)

var storeLog = logging.ForComponent(logging.CompStore)

// DefaultBatchSize is the detail-fetch batch size when none is configured.
const DefaultBatchSize = 100

// cancelCheckStride is how many records a scan worker matches between
// cancellation checks.
const cancelCheckStride = 256

// Service is the remote collaborator consumed by Download. *remote.Client
// implements it; tests substitute fakes.
type Service interface {
	ExecuteStoredQuery(ctx context.Context, queryID uuid.UUID) (*remote.QueryResult, error)
	FetchDetails(ctx context.Context, ids []int) ([]remote.WorkItem, error)
	FetchHistory(ctx context.Context, id int) ([]string, error)
}

// snapshot is one fully downloaded result set. Exactly one snapshot is
// current at any instant; readers capture the pointer once and then work on
// immutable data.
type snapshot struct {
	records []*Record
	columns []remote.Column
}

// Store owns the current snapshot and the last query's display columns.
// The snapshot pointer is the only shared mutable state; it is swapped
// atomically so a reader sees either the fully old or fully new set, never
// a mix.
type Store struct {
	snap atomic.Pointer[snapshot]

	// downloadMu serializes downloads; searches never take it.
	downloadMu sync.Mutex

	batchSize int
}

// New creates an empty store. batchSize <= 0 selects DefaultBatchSize; the
// size is clamped to the server's per-request cap.
func New(batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > remote.MaxIDsPerRequest {
		batchSize = remote.MaxIDsPerRequest
	}
	s := &Store{batchSize: batchSize}
	s.snap.Store(&snapshot{})
	return s
}

// Count returns the number of records in the current snapshot.
func (s *Store) Count() int {
	return len(s.snap.Load().records)
}

// Columns returns the display columns declared by the last downloaded query.
func (s *Store) Columns() []remote.Column {
	return s.snap.Load().columns
}

// Download executes the stored query, fetches details in batches (plus
// history per item when includeHistory is set), and atomically replaces the
// snapshot once the whole pass succeeded. Any remote failure aborts the
// download and leaves the previous snapshot fully intact.
//
// onProgress is invoked after each record with the completed fraction in
// (0, 1], monotonically non-decreasing, from whatever goroutine runs the
// download; callers marshal to their own context.
func (s *Store) Download(ctx context.Context, svc Service, queryID uuid.UUID, includeHistory bool, onProgress func(float64)) error {
	s.downloadMu.Lock()
	defer s.downloadMu.Unlock()

	start := time.Now()

	result, err := svc.ExecuteStoredQuery(ctx, queryID)
	if err != nil {
		return err
	}

	total := len(result.IDs)
	records := make([]*Record, 0, total)

	for offset := 0; offset < total; offset += s.batchSize {
		end := offset + s.batchSize
		if end > total {
			end = total
		}

		items, err := svc.FetchDetails(ctx, result.IDs[offset:end])
		if err != nil {
			return err
		}

		for _, item := range items {
			var history []string
			if includeHistory {
				history, err = svc.FetchHistory(ctx, item.ID)
				if err != nil {
					return err
				}
			}
			records = append(records, NewRecord(item, history))
			if onProgress != nil {
				onProgress(float64(len(records)) / float64(total))
			}
		}
	}

	s.snap.Store(&snapshot{records: records, columns: result.Columns})

	if onProgress != nil && total == 0 {
		onProgress(1)
	}

	storeLog.Info("download_complete",
		slog.String("query_id", queryID.String()),
		slog.Int("records", len(records)),
		slog.Bool("history", includeHistory),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Search returns the records of the current snapshot that match q, in
// snapshot order. The snapshot reference is captured once at scan start, so
// a download racing the scan can never produce a torn result. An empty
// query returns the entire snapshot.
//
// The scan fans out across the available cores and observes ctx: once
// cancellation is signaled no further work is scheduled and ctx.Err() is
// returned instead of partial results.
func (s *Store) Search(ctx context.Context, q Query) ([]*Record, error) {
	snap := s.snap.Load()
	records := snap.records

	if q.IsEmpty() {
		// Copy so callers may reorder their result without disturbing the
		// snapshot other scans are reading.
		out := make([]*Record, len(records))
		copy(out, records)
		return out, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(records) {
		workers = len(records)
	}
	if workers == 0 {
		return nil, nil
	}

	chunkSize := (len(records) + workers - 1) / workers
	matched := make([][]*Record, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > len(records) {
			hi = len(records)
		}
		chunk := records[lo:hi]
		slot := w

		g.Go(func() error {
			var local []*Record
			for i, rec := range chunk {
				if i%cancelCheckStride == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					default:
					}
				}
				if rec.MatchesQuery(q) {
					local = append(local, rec)
				}
			}
			matched[slot] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Record
	for _, part := range matched {
		out = append(out, part...)
	}
	return out, nil
}
