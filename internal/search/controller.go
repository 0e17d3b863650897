// Package search mediates between a rapid stream of input changes and the
// store's scan, keeping at most one scan in flight while guaranteeing the
// published results converge to the latest input.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/store"
)

var searchLog = logging.ForComponent(logging.CompSearch)

// Searcher is the scan the controller drives. *store.Store implements it.
type Searcher interface {
	Search(ctx context.Context, q store.Query) ([]*store.Record, error)
}

// Result is one completed scan: the input text it ran for and the matching
// records sorted ascending by id. Consumers replace their visible result
// set wholesale with each Result, so a publication is a single reset event.
type Result struct {
	Text    string
	Records []*store.Record
}

// Controller is a two-state machine (idle / scanning) that coalesces input
// changes. A change arriving while a scan runs only overwrites the single
// "latest requested text" slot; the scan runs to completion, publishes
// unconditionally, and relaunches if the latest text moved on. In-flight
// scans are never cancelled by newer input; cancellation is for Close only.
type Controller struct {
	searcher Searcher
	publish  func(Result)

	mu       sync.Mutex
	scanning bool
	latest   string
	dirty    bool // snapshot changed; rescan even if text is unchanged
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates a controller that publishes completed scans through
// publish. publish is called from the scan goroutine and must be safe to
// call from there; callers marshal to their own context.
func NewController(searcher Searcher, publish func(Result)) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		searcher: searcher,
		publish:  publish,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetText records the newest input text and launches a scan when idle.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.latest = text
	if c.scanning {
		// The in-flight scan's completion handler will pick this up.
		return
	}
	c.launchLocked(text)
}

// Refresh re-runs the current text against the (presumably new) snapshot,
// e.g. after a download replaced it.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.scanning {
		c.dirty = true
		return
	}
	c.launchLocked(c.latest)
}

// launchLocked transitions idle -> scanning. Caller holds c.mu.
func (c *Controller) launchLocked(text string) {
	c.scanning = true
	c.dirty = false
	c.wg.Add(1)
	go c.run(text)
}

// run executes scans until the latest requested text is the one just
// published, then goes idle. Results are published even when newer text
// arrived meanwhile; the re-check below launches the newer scan right after.
func (c *Controller) run(text string) {
	defer c.wg.Done()

	for {
		records, err := c.searcher.Search(c.ctx, store.ParseQuery(text))
		switch {
		case err == nil:
			sort.Slice(records, func(i, j int) bool {
				return records[i].ID() < records[j].ID()
			})
			c.publish(Result{Text: text, Records: records})
		case errors.Is(err, context.Canceled):
			// Cancelled mid-scan: discard partial results, report nothing.
			c.mu.Lock()
			c.scanning = false
			c.mu.Unlock()
			return
		default:
			// A failed scan publishes nothing, but text that arrived while
			// it ran still gets its scan through the re-check below.
			searchLog.Warn("scan_failed", slog.String("error", err.Error()))
		}

		c.mu.Lock()
		if c.closed {
			c.scanning = false
			c.mu.Unlock()
			return
		}
		if c.latest != text || c.dirty {
			text = c.latest
			c.dirty = false
			c.mu.Unlock()
			continue
		}
		c.scanning = false
		c.mu.Unlock()
		return
	}
}

// Close cancels any in-flight scan and waits for it to stop. No results
// are published after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
