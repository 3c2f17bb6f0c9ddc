package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// The tsvector expressions must match the GIN indexes in
// db/migrations/0002_search_indexes.up.sql.
const (
	projectVector = `to_tsvector('simple', title || ' ' || COALESCE(data->>'description', '') || ' ' || COALESCE(data->>'tags', ''))`
	contactVector = `to_tsvector('simple', name || ' ' || email || ' ' || subject || ' ' || COALESCE(data->>'message', ''))`
)

// PgFTS implements Searcher using PostgreSQL full-text search over the
// mirror tables.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. When Postgres is down the mirror is
// unavailable and search is not reached.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs a UNION ALL across projects and contact messages ranked by
// ts_rank, with ts_headline snippets.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	tsQuery := "plainto_tsquery('simple', $1)"
	args := []any{q.Text, q.UserID}

	var subQueries []string
	if q.wants(ResultProject) {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'project'::text AS type, id, title,
				ts_headline('simple', COALESCE(data->>'description', ''), %[1]s, 'MaxFragments=1,MaxWords=30') AS snippet,
				status,
				ts_rank(%[2]s, %[1]s) AS rank
			FROM projects
			WHERE user_id = $2 AND %[2]s @@ %[1]s`, tsQuery, projectVector))
	}
	if q.wants(ResultContact) {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'contact'::text AS type, id, COALESCE(NULLIF(subject, ''), name) AS title,
				ts_headline('simple', COALESCE(data->>'message', ''), %[1]s, 'MaxFragments=1,MaxWords=30') AS snippet,
				status,
				ts_rank(%[2]s, %[1]s) AS rank
			FROM contact_messages
			WHERE user_id = $2 AND %[2]s @@ %[1]s`, tsQuery, contactVector))
	}
	if len(subQueries) == 0 {
		return nil, 0, nil
	}
	union := strings.Join(subQueries, " UNION ALL ")

	var total int
	if err := p.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM (%s) sub", union), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT type, id, title, snippet, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`, union, q.limit(), q.offset()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAll returns every searchable record of a tenant for reindexing.
func (p *PgFTS) LoadAll(ctx context.Context, userID string) ([]ProjectRecord, []ContactRecord, error) {
	projectRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(data->>'description', ''), COALESCE(data->'tags', '[]'::jsonb), status
		FROM projects WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load projects: %w", err)
	}
	defer projectRows.Close()

	projects := make([]ProjectRecord, 0)
	for projectRows.Next() {
		r := ProjectRecord{UserID: userID}
		var tags []byte
		if err := projectRows.Scan(&r.ID, &r.Title, &r.Description, &tags, &r.Status); err != nil {
			return nil, nil, fmt.Errorf("scan project: %w", err)
		}
		_ = json.Unmarshal(tags, &r.Tags)
		projects = append(projects, r)
	}
	if err := projectRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate projects: %w", err)
	}

	contactRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, email, subject, COALESCE(data->>'message', ''), status
		FROM contact_messages WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load contacts: %w", err)
	}
	defer contactRows.Close()

	contacts := make([]ContactRecord, 0)
	for contactRows.Next() {
		r := ContactRecord{UserID: userID}
		if err := contactRows.Scan(&r.ID, &r.Name, &r.Email, &r.Subject, &r.Message, &r.Status); err != nil {
			return nil, nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, r)
	}
	if err := contactRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate contacts: %w", err)
	}

	return projects, contacts, nil
}
