// Package profile holds the in-memory profile, hydrated from the local store
// and written back on every change.
package profile

import (
	"context"
	"strings"
	"sync"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type State struct {
	mu      sync.Mutex
	kv      localstore.KV
	profile portfolio.Profile
}

func New(kv localstore.KV) *State {
	return &State{kv: kv, profile: portfolio.DefaultProfile()}
}

// Hydrate loads the stored profile over the defaults. Empty name or tagline
// fall back to the default values.
func (s *State) Hydrate(ctx context.Context) error {
	stored, err := localstore.LoadMerged(ctx, s.kv, portfolio.KeyProfile, portfolio.DefaultProfile)
	if err != nil {
		return err
	}
	def := portfolio.DefaultProfile()
	if strings.TrimSpace(stored.Name) == "" {
		stored.Name = def.Name
	}
	if strings.TrimSpace(stored.Tagline) == "" {
		stored.Tagline = def.Tagline
	}
	if stored.Skills == nil {
		stored.Skills = def.Skills
	}

	s.mu.Lock()
	s.profile = stored
	s.mu.Unlock()
	return nil
}

// Profile returns a copy of the current profile.
func (s *State) Profile() portfolio.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

func (s *State) UpdatePersonalInfo(ctx context.Context, patch portfolio.ProfilePatch) (portfolio.Profile, error) {
	return s.update(ctx, patch.Apply)
}

func (s *State) UpdateContactInfo(ctx context.Context, patch portfolio.ContactInfoPatch) (portfolio.Profile, error) {
	return s.update(ctx, func(p portfolio.Profile) portfolio.Profile {
		p.ContactInfo = patch.Apply(p.ContactInfo)
		return p
	})
}

func (s *State) UpdateSkills(ctx context.Context, skills []string) (portfolio.Profile, error) {
	return s.update(ctx, func(p portfolio.Profile) portfolio.Profile {
		p.Skills = append([]string{}, skills...)
		return p
	})
}

func (s *State) UpdateProfileImage(ctx context.Context, url string) (portfolio.Profile, error) {
	return s.update(ctx, func(p portfolio.Profile) portfolio.Profile {
		p.ProfileImage = url
		return p
	})
}

func (s *State) UpdateLogoText(ctx context.Context, text string) (portfolio.Profile, error) {
	return s.update(ctx, func(p portfolio.Profile) portfolio.Profile {
		p.LogoText = text
		return p
	})
}

func (s *State) UpdateResumeURL(ctx context.Context, url string) (portfolio.Profile, error) {
	return s.update(ctx, func(p portfolio.Profile) portfolio.Profile {
		p.ResumeURL = url
		return p
	})
}

// Reset restores and persists the default profile.
func (s *State) Reset(ctx context.Context) (portfolio.Profile, error) {
	return s.update(ctx, func(portfolio.Profile) portfolio.Profile {
		return portfolio.DefaultProfile()
	})
}

// update applies fn and persists the result. Memory only changes when the
// write succeeds.
func (s *State) update(ctx context.Context, fn func(portfolio.Profile) portfolio.Profile) (portfolio.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.profile.Clone())
	if err := localstore.Save(ctx, s.kv, portfolio.KeyProfile, next); err != nil {
		return s.profile.Clone(), err
	}
	s.profile = next
	return next.Clone(), nil
}
