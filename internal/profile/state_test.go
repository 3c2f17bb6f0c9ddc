package profile

import (
	"context"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

func newStore(c *qt.C) *localstore.Store {
	s, err := localstore.Open(filepath.Join(c.TempDir(), "local.db"), localstore.Options{})
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHydrateWithoutStoredProfileUsesDefaults(t *testing.T) {
	c := qt.New(t)
	state := New(newStore(c))
	c.Assert(state.Hydrate(context.Background()), qt.IsNil)
	c.Assert(state.Profile(), qt.DeepEquals, portfolio.DefaultProfile())
}

func TestHydrateReplacesEmptyRequiredFields(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	kv := newStore(c)
	c.Assert(kv.Set(ctx, portfolio.KeyProfile, []byte(`{"name":"","tagline":"  ","bio":"custom"}`)), qt.IsNil)

	state := New(kv)
	c.Assert(state.Hydrate(ctx), qt.IsNil)
	got := state.Profile()
	c.Assert(got.Name, qt.Equals, portfolio.DefaultName)
	c.Assert(got.Tagline, qt.Equals, portfolio.DefaultTagline)
	c.Assert(got.Bio, qt.Equals, "custom")
}

func TestHydrateCorruptProfileFallsBack(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	kv := newStore(c)
	c.Assert(kv.Set(ctx, portfolio.KeyProfile, []byte(`["not","a","profile"]`)), qt.IsNil)

	state := New(kv)
	c.Assert(state.Hydrate(ctx), qt.IsNil)
	c.Assert(state.Profile().Name, qt.Equals, portfolio.DefaultName)
}

func TestSettersWriteThrough(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	kv := newStore(c)
	state := New(kv)
	c.Assert(state.Hydrate(ctx), qt.IsNil)

	name := "Grace"
	_, err := state.UpdatePersonalInfo(ctx, portfolio.ProfilePatch{Name: &name})
	c.Assert(err, qt.IsNil)
	city := "Pune"
	_, err = state.UpdateContactInfo(ctx, portfolio.ContactInfoPatch{Location: &city})
	c.Assert(err, qt.IsNil)
	_, err = state.UpdateSkills(ctx, []string{"Go", "SQL"})
	c.Assert(err, qt.IsNil)
	_, err = state.UpdateLogoText(ctx, "GH")
	c.Assert(err, qt.IsNil)
	_, err = state.UpdateResumeURL(ctx, "https://example.com/cv.pdf")
	c.Assert(err, qt.IsNil)
	_, err = state.UpdateProfileImage(ctx, "https://example.com/me.png")
	c.Assert(err, qt.IsNil)

	reloaded := New(kv)
	c.Assert(reloaded.Hydrate(ctx), qt.IsNil)
	got := reloaded.Profile()
	c.Assert(got.Name, qt.Equals, "Grace")
	c.Assert(got.ContactInfo.Location, qt.Equals, "Pune")
	c.Assert(got.ContactInfo.Email, qt.Equals, portfolio.DefaultOwnerEmail)
	c.Assert(got.Skills, qt.DeepEquals, []string{"Go", "SQL"})
	c.Assert(got.LogoText, qt.Equals, "GH")
	c.Assert(got.ResumeURL, qt.Equals, "https://example.com/cv.pdf")
	c.Assert(got.ProfileImage, qt.Equals, "https://example.com/me.png")

	_, err = reloaded.Reset(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.Profile(), qt.DeepEquals, portfolio.DefaultProfile())
}

func TestProfileReturnsCopy(t *testing.T) {
	c := qt.New(t)
	state := New(newStore(c))
	p := state.Profile()
	p.Skills[0] = "mutated"
	c.Assert(state.Profile().Skills[0], qt.Equals, "React")
}
