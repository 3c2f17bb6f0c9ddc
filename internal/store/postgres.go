package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"folio/api/internal/portfolio"
	"folio/api/internal/util"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Profile

func (s *PostgresStore) GetOrCreateProfile(ctx context.Context, userID string) (ProfileRecord, error) {
	rec, err := s.getProfile(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ProfileRecord{}, err
	}
	return s.SaveProfile(ctx, userID, portfolio.DefaultProfile())
}

// PatchProfile merges patch into the stored profile, starting from the
// defaults when none exists.
func (s *PostgresStore) PatchProfile(ctx context.Context, userID string, patch portfolio.ProfilePatch) (ProfileRecord, error) {
	current, err := s.getProfile(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ProfileRecord{}, err
	}
	base := current.Profile
	if errors.Is(err, sql.ErrNoRows) {
		base = portfolio.DefaultProfile()
	}
	return s.SaveProfile(ctx, userID, patch.Apply(base))
}

// SaveProfile replaces the stored profile.
func (s *PostgresStore) SaveProfile(ctx context.Context, userID string, profile portfolio.Profile) (ProfileRecord, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("encode profile: %w", err)
	}
	rec := ProfileRecord{UserID: userID, Profile: profile}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, user_id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()
		RETURNING id, created_at, updated_at
	`, util.NewID(""), userID, string(data)).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("save profile: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) getProfile(ctx context.Context, userID string) (ProfileRecord, error) {
	var rec ProfileRecord
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, data, created_at, updated_at FROM profiles WHERE user_id=$1
	`, userID).Scan(&rec.ID, &rec.UserID, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ProfileRecord{}, err
	}
	rec.Profile = portfolio.DefaultProfile()
	if err := json.Unmarshal(data, &rec.Profile); err != nil {
		return ProfileRecord{}, fmt.Errorf("decode profile: %w", err)
	}
	return rec, nil
}

// Projects

const projectColumns = `id, user_id, data, created_at, updated_at`

func (s *PostgresStore) ListProjects(ctx context.Context, userID string) ([]ProjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]ProjectRecord, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, userID, id string) (ProjectRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE user_id=$1 AND id=$2
	`, userID, id)
	return scanProject(row)
}

func (s *PostgresStore) InsertProject(ctx context.Context, userID string, p portfolio.Project) (ProjectRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return ProjectRecord{}, fmt.Errorf("encode project: %w", err)
	}
	rec := ProjectRecord{ID: util.NewID(""), UserID: userID, Project: p}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, client_key, title, status, data)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING created_at, updated_at
	`, rec.ID, userID, p.ClientKey, p.Title, string(p.Status), string(data)).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ProjectRecord{}, fmt.Errorf("insert project: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, userID, id string, p portfolio.Project) (ProjectRecord, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return ProjectRecord{}, fmt.Errorf("encode project: %w", err)
	}
	rec := ProjectRecord{ID: id, UserID: userID, Project: p}
	err = s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET client_key=$3, title=$4, status=$5, data=$6::jsonb, updated_at=NOW()
		WHERE user_id=$1 AND id=$2
		RETURNING created_at, updated_at
	`, userID, id, p.ClientKey, p.Title, string(p.Status), string(data)).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, userID, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE user_id=$1 AND id=$2`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete project rows: %w", err)
	}
	return affected > 0, nil
}

// FindProject looks a project up by client key, then by title among
// records that carry no key. ok is false when nothing matches.
func (s *PostgresStore) FindProject(ctx context.Context, userID, clientKey, title string) (ProjectRecord, bool, error) {
	if clientKey != "" {
		rec, err := scanProject(s.db.QueryRowContext(ctx, `
			SELECT `+projectColumns+` FROM projects WHERE user_id=$1 AND client_key=$2
		`, userID, clientKey))
		if err == nil {
			return rec, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return ProjectRecord{}, false, err
		}
	}
	rec, err := scanProject(s.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id=$1 AND title=$2 AND (client_key='' OR $3='')
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, title, clientKey))
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectRecord{}, false, nil
	}
	if err != nil {
		return ProjectRecord{}, false, err
	}
	return rec, true, nil
}

// Contacts

const contactColumns = `id, user_id, data, created_at, updated_at`

func (s *PostgresStore) ListContacts(ctx context.Context, userID string) ([]ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contact_messages WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	items := make([]ContactRecord, 0)
	for rows.Next() {
		item, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetContact(ctx context.Context, userID, id string) (ContactRecord, error) {
	return scanContact(s.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contact_messages WHERE user_id=$1 AND id=$2
	`, userID, id))
}

func (s *PostgresStore) InsertContact(ctx context.Context, userID string, m portfolio.ContactMessage) (ContactRecord, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return ContactRecord{}, fmt.Errorf("encode contact: %w", err)
	}
	rec := ContactRecord{ID: util.NewID(""), UserID: userID, ContactMessage: m}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (id, user_id, client_key, name, email, subject, status, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		RETURNING created_at, updated_at
	`, rec.ID, userID, m.ClientKey, m.Name, m.Email, m.Subject, string(m.Status), string(data)).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ContactRecord{}, fmt.Errorf("insert contact: %w", err)
	}
	return rec, nil
}

// UpdateContact rewrites a stored message and its match columns.
func (s *PostgresStore) UpdateContact(ctx context.Context, userID, id string, m portfolio.ContactMessage) (ContactRecord, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return ContactRecord{}, fmt.Errorf("encode contact: %w", err)
	}
	rec := ContactRecord{ID: id, UserID: userID, ContactMessage: m}
	err = s.db.QueryRowContext(ctx, `
		UPDATE contact_messages
		SET client_key=$3, name=$4, email=$5, subject=$6, status=$7, data=$8::jsonb, updated_at=NOW()
		WHERE user_id=$1 AND id=$2
		RETURNING created_at, updated_at
	`, userID, id, m.ClientKey, m.Name, m.Email, m.Subject, string(m.Status), string(data)).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return ContactRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) DeleteContact(ctx context.Context, userID, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE user_id=$1 AND id=$2`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete contact rows: %w", err)
	}
	return affected > 0, nil
}

// FindContact looks a message up by client key, then by name, email and
// subject among records that carry no key.
func (s *PostgresStore) FindContact(ctx context.Context, userID, clientKey, name, email, subject string) (ContactRecord, bool, error) {
	if clientKey != "" {
		rec, err := scanContact(s.db.QueryRowContext(ctx, `
			SELECT `+contactColumns+` FROM contact_messages WHERE user_id=$1 AND client_key=$2
		`, userID, clientKey))
		if err == nil {
			return rec, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return ContactRecord{}, false, err
		}
	}
	rec, err := scanContact(s.db.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contact_messages
		WHERE user_id=$1 AND name=$2 AND email=$3 AND subject=$4 AND (client_key='' OR $5='')
		ORDER BY created_at ASC
		LIMIT 1
	`, userID, name, email, subject, clientKey))
	if errors.Is(err, sql.ErrNoRows) {
		return ContactRecord{}, false, nil
	}
	if err != nil {
		return ContactRecord{}, false, err
	}
	return rec, true, nil
}

// Git settings

func (s *PostgresStore) GetOrCreateGitSettings(ctx context.Context, userID string) (GitSettingsRecord, error) {
	var rec GitSettingsRecord
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, data, created_at, updated_at FROM git_settings WHERE user_id=$1
	`, userID).Scan(&rec.ID, &rec.UserID, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.SaveGitSettings(ctx, userID, portfolio.DefaultGitSettings())
	}
	if err != nil {
		return GitSettingsRecord{}, fmt.Errorf("get git settings: %w", err)
	}
	rec.GitSettings = portfolio.DefaultGitSettings()
	if err := json.Unmarshal(data, &rec.GitSettings); err != nil {
		return GitSettingsRecord{}, fmt.Errorf("decode git settings: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) SaveGitSettings(ctx context.Context, userID string, gs portfolio.GitSettings) (GitSettingsRecord, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return GitSettingsRecord{}, fmt.Errorf("encode git settings: %w", err)
	}
	rec := GitSettingsRecord{UserID: userID, GitSettings: gs}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO git_settings (id, user_id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()
		RETURNING id, created_at, updated_at
	`, util.NewID(""), userID, string(data)).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return GitSettingsRecord{}, fmt.Errorf("save git settings: %w", err)
	}
	return rec, nil
}

// Counts reports what the mirror holds for userID.
func (s *PostgresStore) Counts(ctx context.Context, userID string) (MirrorCounts, error) {
	var c MirrorCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM profiles WHERE user_id=$1),
			(SELECT COUNT(*) FROM projects WHERE user_id=$1),
			(SELECT COUNT(*) FROM contact_messages WHERE user_id=$1),
			EXISTS(SELECT 1 FROM git_settings WHERE user_id=$1)
	`, userID).Scan(&c.HasProfile, &c.ProjectsCount, &c.ContactsCount, &c.HasGitSettings)
	if err != nil {
		return MirrorCounts{}, fmt.Errorf("count mirror records: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (ProjectRecord, error) {
	var rec ProjectRecord
	var data []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProjectRecord{}, err
		}
		return ProjectRecord{}, fmt.Errorf("scan project: %w", err)
	}
	if err := json.Unmarshal(data, &rec.Project); err != nil {
		return ProjectRecord{}, fmt.Errorf("decode project %s: %w", rec.ID, err)
	}
	return rec, nil
}

func scanContact(row rowScanner) (ContactRecord, error) {
	var rec ContactRecord
	var data []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ContactRecord{}, err
		}
		return ContactRecord{}, fmt.Errorf("scan contact: %w", err)
	}
	if err := json.Unmarshal(data, &rec.ContactMessage); err != nil {
		return ContactRecord{}, fmt.Errorf("decode contact %s: %w", rec.ID, err)
	}
	return rec, nil
}
