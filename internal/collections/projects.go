package collections

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type Projects struct {
	*Collection[portfolio.Project]
}

func NewProjects(kv localstore.KV) *Projects {
	return &Projects{New(kv, Spec[portfolio.Project]{
		Key:      portfolio.KeyProjects,
		Seed:     portfolio.DefaultProjects,
		ID:       func(p portfolio.Project) int64 { return p.ID },
		SetID:    func(p *portfolio.Project, id int64) { p.ID = id },
		Strategy: MaxPlusOne,
	})}
}

// Add validates p, fills status, image and links when empty and attaches a
// fresh client key.
func (p *Projects) Add(ctx context.Context, in portfolio.Project) (portfolio.Project, error) {
	if err := in.Validate(); err != nil {
		return in, err
	}
	in = withProjectDefaults(in)
	if in.ClientKey == "" {
		in.ClientKey = uuid.NewString()
	}
	return p.Collection.Add(ctx, in)
}

// Update replaces every field of the project with id by those of in. The
// client key stays with the record.
func (p *Projects) Update(ctx context.Context, id int64, in portfolio.Project) (portfolio.Project, error) {
	if err := in.Validate(); err != nil {
		return in, err
	}
	in = withProjectDefaults(in)
	return p.Collection.Update(ctx, id, func(cur *portfolio.Project) error {
		key := cur.ClientKey
		*cur = in
		if cur.ClientKey == "" {
			cur.ClientKey = key
		}
		return nil
	})
}

// SetStatus reassigns the status with no transition rules.
func (p *Projects) SetStatus(ctx context.Context, id int64, status portfolio.ProjectStatus) (portfolio.Project, error) {
	if !status.Valid() {
		return portfolio.Project{}, fmt.Errorf("%w: unknown project status %q", ErrValidation, status)
	}
	return p.Collection.Update(ctx, id, func(cur *portfolio.Project) error {
		cur.Status = status
		return nil
	})
}

// EnsureClientKeys gives every stored project without a client key a new
// one and reports how many were assigned. A value that does not decode
// fails with ErrCorrupt and is not rewritten.
func (p *Projects) EnsureClientKeys(ctx context.Context) (int, error) {
	return p.ensureKeys(ctx, func(x *portfolio.Project) *string { return &x.ClientKey })
}

func withProjectDefaults(in portfolio.Project) portfolio.Project {
	if in.Status == "" {
		in.Status = portfolio.StatusInDevelopment
	}
	if strings.TrimSpace(in.Image) == "" {
		in.Image = portfolio.DefaultProjectImage
	}
	if in.Links.GitHub == "" {
		in.Links.GitHub = portfolio.DefaultLink
	}
	if in.Links.Demo == "" {
		in.Links.Demo = portfolio.DefaultLink
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return in
}
