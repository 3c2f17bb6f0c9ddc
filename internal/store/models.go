package store

import (
	"database/sql"
	"time"

	"folio/api/internal/portfolio"
)

// ErrNotFound is returned when a mirror record does not exist.
var ErrNotFound = sql.ErrNoRows

type ProfileRecord struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	portfolio.Profile
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectRecord is a mirrored project. The embedded project keeps the
// numeric ID it had in the local store.
type ProjectRecord struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	portfolio.Project
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ContactRecord struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	portfolio.ContactMessage
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type GitSettingsRecord struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`
	portfolio.GitSettings
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MirrorCounts summarises what the mirror holds for one tenant.
type MirrorCounts struct {
	HasProfile     bool `json:"hasProfile"`
	ProjectsCount  int  `json:"projectsCount"`
	ContactsCount  int  `json:"contactsCount"`
	HasGitSettings bool `json:"hasGitSettings"`
}

func (c MirrorCounts) Migrated() bool {
	return c.HasProfile || c.ProjectsCount > 0 || c.ContactsCount > 0 || c.HasGitSettings
}
