package search

import (
	"context"

	"folio/api/internal/logging"
)

// Service tries Meilisearch first and falls back to the mirror's own
// search when Meilisearch is missing or unhealthy.
type Service struct {
	meili    *Meili
	fallback Searcher
	// async runs index updates; tests replace it to run synchronously.
	async func(func())
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured, fallback may be nil when no mirror is open.
func NewService(meili *Meili, fallback Searcher) *Service {
	return &Service{meili: meili, fallback: fallback, async: func(fn func()) { go fn() }}
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	log := logging.New("search")
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: "meilisearch"}
		}
		log.Warn("meilisearch error, falling back", "error", err)
	}
	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text, Engine: "none"}
	}

	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		log.Error("fallback search failed", "error", err)
		return Response{Results: []Result{}, Query: q.Text, Engine: "fallback"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: "fallback"}
}

func (s *Service) enabled() bool {
	return s != nil && s.meili != nil && s.meili.Healthy()
}

// IndexProject pushes a project to Meilisearch without waiting.
func (s *Service) IndexProject(r ProjectRecord) {
	if !s.enabled() {
		return
	}
	s.async(func() {
		if err := s.meili.IndexProjects(r); err != nil {
			logging.New("search").Warn("index project", "id", r.ID, "error", err)
		}
	})
}

func (s *Service) IndexContact(r ContactRecord) {
	if !s.enabled() {
		return
	}
	s.async(func() {
		if err := s.meili.IndexContacts(r); err != nil {
			logging.New("search").Warn("index contact", "id", r.ID, "error", err)
		}
	})
}

func (s *Service) DeleteProject(id string) {
	if !s.enabled() {
		return
	}
	s.async(func() {
		if err := s.meili.DeleteProject(id); err != nil {
			logging.New("search").Warn("delete project", "id", id, "error", err)
		}
	})
}

func (s *Service) DeleteContact(id string) {
	if !s.enabled() {
		return
	}
	s.async(func() {
		if err := s.meili.DeleteContact(id); err != nil {
			logging.New("search").Warn("delete contact", "id", id, "error", err)
		}
	})
}

// ReindexAll bulk-loads records into Meilisearch.
func (s *Service) ReindexAll(projects []ProjectRecord, contacts []ContactRecord) {
	if !s.enabled() {
		return
	}
	log := logging.New("search")
	if err := s.meili.IndexProjects(projects...); err != nil {
		log.Warn("reindex projects", "error", err)
	}
	if err := s.meili.IndexContacts(contacts...); err != nil {
		log.Warn("reindex contacts", "error", err)
	}
}

// ReindexFromPG reindexes a tenant from the Postgres mirror.
func (s *Service) ReindexFromPG(ctx context.Context, userID string) {
	pg, ok := s.fallback.(*PgFTS)
	if !s.enabled() || !ok {
		return
	}
	projects, contacts, err := pg.LoadAll(ctx, userID)
	if err != nil {
		logging.New("search").Warn("reindex load failed", "error", err)
		return
	}
	s.ReindexAll(projects, contacts)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
