package search

import (
	"context"
	"errors"
	"testing"
)

type fakeSearcher struct {
	searchFn func(q Query) ([]Result, int, error)
	calls    []Query
}

func (f *fakeSearcher) Search(_ context.Context, q Query) ([]Result, int, error) {
	f.calls = append(f.calls, q)
	return f.searchFn(q)
}

func (f *fakeSearcher) Healthy() bool { return true }

func TestServiceUsesFallbackWithoutMeili(t *testing.T) {
	fb := &fakeSearcher{searchFn: func(q Query) ([]Result, int, error) {
		return []Result{{Type: ResultProject, ID: "p1", Title: "Weather App"}}, 1, nil
	}}
	svc := NewService(nil, fb)

	resp := svc.Search(context.Background(), Query{Text: "weather", UserID: "tenant"})
	if resp.Engine != "fallback" || resp.Total != 1 || len(resp.Results) != 1 || resp.Query != "weather" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(fb.calls) != 1 || fb.calls[0].UserID != "tenant" {
		t.Fatalf("fallback not called with query: %+v", fb.calls)
	}
}

func TestServiceReturnsEmptyResultsOnError(t *testing.T) {
	fb := &fakeSearcher{searchFn: func(Query) ([]Result, int, error) { return nil, 0, errors.New("boom") }}
	resp := NewService(nil, fb).Search(context.Background(), Query{Text: "x"})
	if resp.Results == nil || len(resp.Results) != 0 || resp.Total != 0 {
		t.Fatalf("expected empty non-nil results, got %+v", resp)
	}

	resp = NewService(nil, nil).Search(context.Background(), Query{Text: "x"})
	if resp.Engine != "none" || resp.Results == nil {
		t.Fatalf("unexpected response without engines %+v", resp)
	}
}

func TestIndexingIsSkippedWithoutMeili(t *testing.T) {
	svc := NewService(nil, nil)
	ran := false
	svc.async = func(fn func()) { ran = true; fn() }
	svc.IndexProject(ProjectRecord{ID: "p"})
	svc.DeleteContact("c")
	if ran {
		t.Fatal("no index work should be scheduled without meilisearch")
	}
}

func TestQueryHelpers(t *testing.T) {
	q := Query{PublicOnly: true}
	if !q.wants(ResultProject) || q.wants(ResultContact) {
		t.Fatal("public queries must not include contacts")
	}
	q = Query{FilterType: ResultContact}
	if q.wants(ResultProject) || !q.wants(ResultContact) {
		t.Fatal("type filter not honoured")
	}
	if (Query{}).limit() != 20 || (Query{Limit: 500}).limit() != 100 || (Query{Offset: -3}).offset() != 0 {
		t.Fatal("unexpected paging defaults")
	}
}
