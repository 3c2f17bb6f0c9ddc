package collections

import (
	"context"
	"fmt"
	"strings"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type Skills struct {
	*Collection[portfolio.Skill]
}

func NewSkills(kv localstore.KV) *Skills {
	return &Skills{New(kv, Spec[portfolio.Skill]{
		Key:      portfolio.KeySkills,
		Seed:     portfolio.DefaultSkills,
		ID:       func(s portfolio.Skill) int64 { return s.ID },
		SetID:    func(s *portfolio.Skill, id int64) { s.ID = id },
		Strategy: MaxPlusOne,
	})}
}

func (s *Skills) Add(ctx context.Context, name string, proficiency int) (portfolio.Skill, error) {
	skill, err := validSkill(name, proficiency)
	if err != nil {
		return skill, err
	}
	return s.Collection.Add(ctx, skill)
}

func (s *Skills) Update(ctx context.Context, id int64, name string, proficiency int) (portfolio.Skill, error) {
	skill, err := validSkill(name, proficiency)
	if err != nil {
		return skill, err
	}
	return s.Collection.Update(ctx, id, func(cur *portfolio.Skill) error {
		cur.Name = skill.Name
		cur.Proficiency = skill.Proficiency
		return nil
	})
}

func validSkill(name string, proficiency int) (portfolio.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return portfolio.Skill{}, fmt.Errorf("%w: skill name is required", ErrValidation)
	}
	if proficiency < 0 || proficiency > 100 {
		return portfolio.Skill{}, fmt.Errorf("%w: proficiency must be between 0 and 100", ErrValidation)
	}
	return portfolio.Skill{Name: name, Proficiency: proficiency}, nil
}
