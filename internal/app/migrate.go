package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
	"folio/api/internal/store"
)

// MigrationResults reports what one migration run wrote. Records already in
// the mirror are counted under Skipped and not written again.
type MigrationResults struct {
	Profile     *store.ProfileRecord     `json:"profile"`
	Projects    []store.ProjectRecord    `json:"projects"`
	Contacts    []store.ContactRecord    `json:"contacts"`
	GitSettings *store.GitSettingsRecord `json:"gitSettings"`
	Skipped     MigrationSkips           `json:"skipped"`
	Errors      []string                 `json:"errors"`
}

type MigrationSkips struct {
	Projects int `json:"projects"`
	Contacts int `json:"contacts"`
}

// MigrationStatus is what the mirror already holds for the tenant.
type MigrationStatus struct {
	store.MirrorCounts
	Migrated        bool   `json:"migrated"`
	RemoteAvailable bool   `json:"remoteAvailable"`
	Message         string `json:"message,omitempty"`
}

func (s *Service) MigrationStatus(ctx context.Context) (MigrationStatus, error) {
	if !s.RemoteAvailable() {
		return MigrationStatus{
			RemoteAvailable: false,
			Message:         "Remote store is not available. Currently running in local-only mode.",
		}, nil
	}
	counts, err := s.mirror.Counts(ctx, s.tenant())
	if err != nil {
		return MigrationStatus{}, err
	}
	return MigrationStatus{MirrorCounts: counts, Migrated: counts.Migrated(), RemoteAvailable: true}, nil
}

// Migrate copies the posted local keys into the mirror. Values are the raw
// local store strings; a JSON document in place of a string is accepted as
// well. Failures are collected per record and never abort the run.
func (s *Service) Migrate(ctx context.Context, data map[string]json.RawMessage) (MigrationResults, error) {
	if err := s.requireRemote(); err != nil {
		return MigrationResults{}, err
	}
	data = presentValues(data)
	userID := s.tenant()
	res := MigrationResults{Projects: []store.ProjectRecord{}, Contacts: []store.ContactRecord{}, Errors: []string{}}
	fail := func(format string, args ...any) {
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}

	if raw, ok := data[portfolio.KeyProfile]; ok {
		var profile portfolio.Profile
		if err := decodeLocalValue(raw, &profile); err != nil {
			fail("Failed to migrate profile data: %v", err)
		} else if rec, err := s.mirror.SaveProfile(ctx, userID, profile); err != nil {
			fail("Failed to migrate profile data: %v", err)
		} else {
			res.Profile = &rec
		}
	}

	if raw, ok := data[portfolio.KeyProjects]; ok {
		var projects []portfolio.Project
		if err := decodeLocalValue(raw, &projects); err != nil {
			fail("Failed to migrate projects data: %v", err)
		}
		for _, p := range projects {
			_, found, err := s.mirror.FindProject(ctx, userID, p.ClientKey, p.Title)
			if err != nil {
				fail("Failed to migrate project %q: %v", p.Title, err)
				continue
			}
			if found {
				res.Skipped.Projects++
				continue
			}
			rec, err := s.mirror.InsertProject(ctx, userID, portfolio.ProjectDetail(p, s.now()))
			if err != nil {
				fail("Failed to migrate project %q: %v", p.Title, err)
				continue
			}
			res.Projects = append(res.Projects, rec)
			s.search.IndexProject(projectDocument(rec))
		}
	}

	if raw, ok := data[portfolio.KeyContactMessages]; ok {
		var messages []portfolio.ContactMessage
		if err := decodeLocalValue(raw, &messages); err != nil {
			fail("Failed to migrate contact messages: %v", err)
		}
		for _, m := range messages {
			_, found, err := s.mirror.FindContact(ctx, userID, m.ClientKey, m.Name, m.Email, m.Subject)
			if err != nil {
				fail("Failed to migrate contact message from %s: %v", m.Email, err)
				continue
			}
			if found {
				res.Skipped.Contacts++
				continue
			}
			rec, err := s.mirror.InsertContact(ctx, userID, m)
			if err != nil {
				fail("Failed to migrate contact message from %s: %v", m.Email, err)
				continue
			}
			res.Contacts = append(res.Contacts, rec)
			s.search.IndexContact(contactDocument(rec))
		}
	}

	if raw, ok := data[portfolio.KeyGitSettings]; ok {
		var gs portfolio.GitSettings
		if err := decodeLocalValue(raw, &gs); err != nil {
			fail("Failed to migrate git settings: %v", err)
		} else if rec, err := s.mirror.SaveGitSettings(ctx, userID, gs); err != nil {
			fail("Failed to migrate git settings: %v", err)
		} else {
			res.GitSettings = &rec
		}
	}

	logging.New("migrate").Info("migration run",
		"projects", len(res.Projects),
		"contacts", len(res.Contacts),
		"skipped_projects", res.Skipped.Projects,
		"skipped_contacts", res.Skipped.Contacts,
		"errors", len(res.Errors),
	)
	return res, nil
}

// decodeLocalValue parses a local store value. The client sends each key as
// the JSON string it read, so a string is unwrapped once before decoding.
func decodeLocalValue(raw json.RawMessage, target any) error {
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	return json.Unmarshal(raw, target)
}

// presentValues drops keys the client sent without a value.
func presentValues(data map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(data))
	for key, raw := range data {
		switch string(bytes.TrimSpace(raw)) {
		case "", "null", `""`:
			continue
		}
		out[key] = raw
	}
	return out
}
