package collections

import (
	"context"
	"fmt"
	"strings"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type Activities struct {
	*Collection[portfolio.Activity]
}

func NewActivities(kv localstore.KV) *Activities {
	return &Activities{New(kv, Spec[portfolio.Activity]{
		Key:      portfolio.KeyActivities,
		Seed:     portfolio.DefaultActivities,
		ID:       func(a portfolio.Activity) int64 { return a.ID },
		SetID:    func(a *portfolio.Activity, id int64) { a.ID = id },
		Strategy: MaxPlusOne,
	})}
}

func (a *Activities) Add(ctx context.Context, in portfolio.Activity) (portfolio.Activity, error) {
	if err := validActivity(in); err != nil {
		return in, err
	}
	return a.Collection.Add(ctx, in)
}

func (a *Activities) Update(ctx context.Context, id int64, in portfolio.Activity) (portfolio.Activity, error) {
	if err := validActivity(in); err != nil {
		return in, err
	}
	return a.Collection.Update(ctx, id, func(cur *portfolio.Activity) error {
		*cur = in
		return nil
	})
}

func validActivity(in portfolio.Activity) error {
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.Type) == "" {
		return fmt.Errorf("%w: date, description and type are required", ErrValidation)
	}
	return nil
}
