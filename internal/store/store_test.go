package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/worklens/worklens/internal/remote"
)

var testQueryID = uuid.MustParse("11111111-2222-3333-4444-555555555555")

// fakeService simulates the remote collaborator. Details are synthesized
// from the id unless overridden; failures can be injected per call.
type fakeService struct {
	mu sync.Mutex

	ids     []int
	columns []remote.Column

	titleFor  func(id int) string
	histories map[int][]string

	execErr          error
	failDetailOnCall int // 1-based batch index that fails, 0 = never
	failHistoryForID int // id whose history fetch fails, 0 = never

	detailCalls [][]int
}

func (f *fakeService) ExecuteStoredQuery(ctx context.Context, queryID uuid.UUID) (*remote.QueryResult, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	return &remote.QueryResult{IDs: f.ids, Columns: f.columns}, nil
}

func (f *fakeService) FetchDetails(ctx context.Context, ids []int) ([]remote.WorkItem, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, append([]int(nil), ids...))
	call := len(f.detailCalls)
	f.mu.Unlock()

	if f.failDetailOnCall != 0 && call == f.failDetailOnCall {
		return nil, &remote.Error{Op: "fetch details", Status: 503, Err: fmt.Errorf("injected")}
	}

	items := make([]remote.WorkItem, len(ids))
	for i, id := range ids {
		title := fmt.Sprintf("Item %d", id)
		if f.titleFor != nil {
			title = f.titleFor(id)
		}
		items[i] = remote.WorkItem{ID: id, Fields: map[string]string{FieldTitle: title}}
	}
	return items, nil
}

func (f *fakeService) FetchHistory(ctx context.Context, id int) ([]string, error) {
	if f.failHistoryForID != 0 && id == f.failHistoryForID {
		return nil, &remote.Error{Op: "fetch history", Status: 500, Err: fmt.Errorf("injected")}
	}
	return f.histories[id], nil
}

func idRange(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func TestDownloadBatchesAndProgress(t *testing.T) {
	svc := &fakeService{
		ids:     idRange(250),
		columns: []remote.Column{{Name: "ID", ReferenceName: FieldID}},
	}
	s := New(100)

	var progress []float64
	err := s.Download(context.Background(), svc, testQueryID, false, func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if s.Count() != 250 {
		t.Errorf("Count = %d, want 250", s.Count())
	}
	if len(svc.detailCalls) != 3 {
		t.Fatalf("detail calls = %d, want 3", len(svc.detailCalls))
	}
	wantSizes := []int{100, 100, 50}
	for i, call := range svc.detailCalls {
		if len(call) != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(call), wantSizes[i])
		}
	}

	if len(progress) != 250 {
		t.Fatalf("progress calls = %d, want 250", len(progress))
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Fatalf("progress not strictly increasing at %d: %v -> %v", i, progress[i-1], progress[i])
		}
	}
	if progress[len(progress)-1] != 1.0 {
		t.Errorf("final progress = %v, want 1.0", progress[len(progress)-1])
	}

	if len(s.Columns()) != 1 || s.Columns()[0].ReferenceName != FieldID {
		t.Errorf("columns = %+v", s.Columns())
	}
}

func TestDownloadFailureKeepsOldSnapshot(t *testing.T) {
	s := New(100)

	good := &fakeService{ids: idRange(5)}
	if err := s.Download(context.Background(), good, testQueryID, false, nil); err != nil {
		t.Fatalf("first download: %v", err)
	}

	old, _ := s.Search(context.Background(), ParseQuery(""))

	// 3 batches, failure on the second: no partial commit allowed.
	bad := &fakeService{ids: idRange(250), failDetailOnCall: 2}
	err := s.Download(context.Background(), bad, testQueryID, false, nil)
	if err == nil {
		t.Fatal("expected download error")
	}
	if !remote.IsRemote(err) {
		t.Errorf("error %v should propagate as remote error", err)
	}

	got, _ := s.Search(context.Background(), ParseQuery(""))
	if len(got) != len(old) {
		t.Fatalf("snapshot changed after failed download: %d -> %d", len(old), len(got))
	}
	for i := range got {
		if got[i] != old[i] {
			t.Fatal("snapshot records replaced despite failed download")
		}
	}
}

func TestDownloadExecuteErrorPropagates(t *testing.T) {
	svc := &fakeService{execErr: &remote.Error{Op: "execute query", Status: 401, Err: fmt.Errorf("auth")}}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, false, nil); err == nil {
		t.Fatal("expected error")
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d after failed download", s.Count())
	}
}

func TestDownloadWithHistory(t *testing.T) {
	svc := &fakeService{
		ids: []int{1, 2},
		histories: map[int][]string{
			1: {"Reproduced on build server"},
		},
	}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, true, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}

	hits, err := s.Search(context.Background(), ParseQuery("reproduced"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID() != 1 {
		t.Errorf("hits = %v", hits)
	}
}

func TestDownloadHistoryFailureAborts(t *testing.T) {
	svc := &fakeService{ids: idRange(10), failHistoryForID: 4}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, true, nil); err == nil {
		t.Fatal("expected error from failing history fetch")
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0 (no partial commit)", s.Count())
	}
}

func TestDownloadEmptyResult(t *testing.T) {
	svc := &fakeService{ids: nil}
	s := New(0)

	var progress []float64
	if err := s.Download(context.Background(), svc, testQueryID, false, func(p float64) {
		progress = append(progress, p)
	}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count = %d", s.Count())
	}
	if len(progress) != 1 || progress[0] != 1.0 {
		t.Errorf("progress = %v, want [1.0]", progress)
	}
}

func TestSearchEmptyQueryReturnsFullSnapshotCopy(t *testing.T) {
	svc := &fakeService{ids: idRange(10)}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, false, nil); err != nil {
		t.Fatal(err)
	}

	got, err := s.Search(context.Background(), ParseQuery(""))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d records", len(got))
	}

	// Reordering the returned slice must not disturb the snapshot.
	got[0], got[9] = got[9], got[0]
	again, _ := s.Search(context.Background(), ParseQuery(""))
	if again[0].ID() != 1 {
		t.Error("caller mutation leaked into the snapshot")
	}
}

func TestSearchFilters(t *testing.T) {
	svc := &fakeService{
		ids: idRange(6),
		titleFor: func(id int) string {
			if id%2 == 0 {
				return fmt.Sprintf("Crash report %d", id)
			}
			return fmt.Sprintf("Feature request %d", id)
		},
	}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, false, nil); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(context.Background(), ParseQuery("CRASH"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits = %d, want 3", len(hits))
	}
	// Snapshot order preserved.
	wantIDs := []int{2, 4, 6}
	for i, rec := range hits {
		if rec.ID() != wantIDs[i] {
			t.Errorf("hits[%d].ID = %d, want %d", i, rec.ID(), wantIDs[i])
		}
	}

	none, _ := s.Search(context.Background(), ParseQuery("crash nonexistent"))
	if len(none) != 0 {
		t.Errorf("AND query should exclude all, got %d", len(none))
	}
}

func TestSearchCancellation(t *testing.T) {
	svc := &fakeService{ids: idRange(5000)}
	s := New(0)
	if err := s.Download(context.Background(), svc, testQueryID, false, nil); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, ParseQuery("item"))
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSearchNeverMixesSnapshots(t *testing.T) {
	s := New(0)
	oldSvc := &fakeService{ids: idRange(200), titleFor: func(int) string { return "generation old" }}
	if err := s.Download(context.Background(), oldSvc, testQueryID, false, nil); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		newSvc := &fakeService{ids: idRange(120), titleFor: func(int) string { return "generation new" }}
		_ = s.Download(context.Background(), newSvc, testQueryID, false, nil)
	}()

	for i := 0; i < 100; i++ {
		got, err := s.Search(context.Background(), ParseQuery("generation"))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 {
			continue
		}
		first := got[0].Field(FieldTitle)
		for _, rec := range got {
			if rec.Field(FieldTitle) != first {
				t.Fatal("search result mixes records from two snapshots")
			}
		}
		if first == "generation old" && len(got) != 200 {
			t.Fatalf("old snapshot scan saw %d records", len(got))
		}
		if first == "generation new" && len(got) != 120 {
			t.Fatalf("new snapshot scan saw %d records", len(got))
		}
	}
	<-done
}

func TestStoreBatchSizeClamped(t *testing.T) {
	s := New(10_000)
	svc := &fakeService{ids: idRange(remote.MaxIDsPerRequest + 1)}
	if err := s.Download(context.Background(), svc, testQueryID, false, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(svc.detailCalls) != 2 {
		t.Errorf("detail calls = %d, want 2 (clamped batches)", len(svc.detailCalls))
	}
}
