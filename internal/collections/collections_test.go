package collections

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

func newKV(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProjectsSeedWhenAbsent(t *testing.T) {
	projects := NewProjects(newKV(t))
	got, err := projects.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(portfolio.DefaultProjects(), got); diff != "" {
		t.Fatalf("seed mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectAddEditRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	projects := NewProjects(kv)

	added, err := projects.Add(ctx, portfolio.Project{
		Title:       "CLI",
		Description: "A command line tool",
		Tags:        portfolio.SplitTags("Go, Cobra"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID != 5 {
		t.Fatalf("expected id 5 after the four seeds, got %d", added.ID)
	}
	if added.ClientKey == "" || added.Status != portfolio.StatusInDevelopment ||
		added.Image != portfolio.DefaultProjectImage || added.Links.GitHub != "#" || added.Links.Demo != "#" {
		t.Fatalf("defaults not applied: %+v", added)
	}

	edit := added
	edit.Title = "CLI v2"
	edit.Status = portfolio.StatusPublished
	edit.Screenshots = []string{"a.png"}
	edit.ClientKey = ""
	updated, err := projects.Update(ctx, added.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ClientKey != added.ClientKey {
		t.Fatalf("client key changed on edit")
	}

	got, err := NewProjects(kv).Get(ctx, added.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(updated, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectAddRejectsMissingFields(t *testing.T) {
	_, err := NewProjects(newKV(t)).Add(context.Background(), portfolio.Project{Title: "only title"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteMissingIDLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	projects := NewProjects(newKV(t))
	before, _ := projects.List(ctx)

	removed, err := projects.Delete(ctx, 999)
	if err != nil || removed {
		t.Fatalf("expected no-op delete, got removed=%v err=%v", removed, err)
	}
	after, _ := projects.List(ctx)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("collection changed (-before +after):\n%s", diff)
	}

	removed, err = projects.Delete(ctx, 2)
	if err != nil || !removed {
		t.Fatalf("expected delete of id 2, got removed=%v err=%v", removed, err)
	}
	if _, err := projects.Get(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCorruptCollectionFallsBackToSeed(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	if err := kv.Set(ctx, portfolio.KeySkills, []byte(`{"broken":true}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := NewSkills(kv).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(portfolio.DefaultSkills(), got); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestAddSkillSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	if _, err := NewSkills(kv).Add(ctx, "Rust", 80); err != nil {
		t.Fatalf("add: %v", err)
	}

	skills, err := NewSkills(kv).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var matches []portfolio.Skill
	for _, s := range skills {
		if s.Name == "Rust" {
			matches = append(matches, s)
		}
	}
	want := []portfolio.Skill{{ID: 8, Name: "Rust", Proficiency: 80}}
	if diff := cmp.Diff(want, matches); diff != "" {
		t.Fatalf("rust skill mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewSkills(kv).Add(ctx, "Zig", 101); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for proficiency 101, got %v", err)
	}
}

func TestActivitiesRequireFields(t *testing.T) {
	ctx := context.Background()
	activities := NewActivities(newKV(t))
	if _, err := activities.Add(ctx, portfolio.Activity{Date: "2024-08-01", Type: "Talk"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, err := activities.Add(ctx, portfolio.Activity{Date: "2024-08-01", Description: "Gave a talk", Type: "Speaking"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID != 6 {
		t.Fatalf("expected id 6, got %d", got.ID)
	}
}

func TestSubmitDefaultsSubject(t *testing.T) {
	ctx := context.Background()
	messages := NewMessages(newKV(t))
	messages.now = func() time.Time { return time.Date(2024, 8, 2, 10, 0, 0, 0, time.UTC) }

	got, err := messages.Submit(ctx, portfolio.ContactMessage{Name: "A", Email: "a@b.com", Message: "hi"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := portfolio.ContactMessage{
		Name:          "A",
		Email:         "a@b.com",
		Message:       "hi",
		Subject:       "New Contact Form Submission",
		ContactMethod: portfolio.MethodEmail,
		Status:        portfolio.ContactNew,
		Date:          "2024-08-02",
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(portfolio.ContactMessage{}, "ID", "ClientKey")); diff != "" {
		t.Fatalf("submitted message mismatch (-want +got):\n%s", diff)
	}

	stored, err := messages.List(ctx)
	if err != nil || len(stored) != 1 || stored[0].Subject != "New Contact Form Submission" {
		t.Fatalf("unexpected stored messages %+v, err %v", stored, err)
	}
}

func TestTimestampIDsStayUniqueWhenClockStalls(t *testing.T) {
	ctx := context.Background()
	messages := NewMessages(newKV(t))
	fixed := time.UnixMilli(1_700_000_000_000)
	messages.now = func() time.Time { return fixed }

	first, err := messages.Submit(ctx, portfolio.ContactMessage{Name: "A", Email: "a@b.com", Message: "1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := messages.Submit(ctx, portfolio.ContactMessage{Name: "B", Email: "b@b.com", Message: "2"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.ID != fixed.UnixMilli() || second.ID != first.ID+1 {
		t.Fatalf("unexpected ids %d, %d", first.ID, second.ID)
	}

	list, _ := messages.List(ctx)
	if list[0].ID != second.ID {
		t.Fatalf("expected newest message first")
	}

	if _, err := messages.SetStatus(ctx, first.ID, portfolio.ContactReplied); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, err := messages.SetStatus(ctx, first.ID, "archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSMSCategories(t *testing.T) {
	ctx := context.Background()
	sms := NewSMS(newKV(t))

	cats, err := sms.AddCategory(ctx, "Billing")
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	cats, err = sms.AddCategory(ctx, "Billing")
	if err != nil {
		t.Fatalf("add category again: %v", err)
	}
	if diff := cmp.Diff([]string{"Contact", "Inquiry", "Support", "Urgent", "Billing"}, cats); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}

	n, err := sms.Add(ctx, portfolio.SMSNotification{To: "+1555", Message: "m", Category: "Billing"})
	if err != nil {
		t.Fatalf("add sms: %v", err)
	}
	if _, err := sms.RemoveCategory(ctx, "Billing"); err != nil {
		t.Fatalf("remove category: %v", err)
	}
	got, err := sms.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != "" {
		t.Fatalf("expected category cleared, got %q", got.Category)
	}
	if len(ByCategory([]portfolio.SMSNotification{got}, "uncategorized")) != 1 {
		t.Fatal("expected record to be uncategorized")
	}
}

func TestSMSSendTestAndClear(t *testing.T) {
	ctx := context.Background()
	sms := NewSMS(newKV(t))

	if _, err := sms.SendTest(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, err := sms.SendTest(ctx, "+91 90000")
	if err != nil {
		t.Fatalf("send test: %v", err)
	}
	if got.Category != "Support" || got.Status != portfolio.SMSDelivered || got.Priority != portfolio.PriorityMedium {
		t.Fatalf("unexpected test sms %+v", got)
	}

	if err := sms.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	list, err := sms.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %+v err %v", list, err)
	}
}

func TestSettingsDefaultsAndAdminUser(t *testing.T) {
	ctx := context.Background()
	settings := NewSettings(newKV(t))

	gs, err := settings.GitSettings(ctx)
	if err != nil {
		t.Fatalf("git settings: %v", err)
	}
	if diff := cmp.Diff(portfolio.DefaultGitSettings(), gs); diff != "" {
		t.Fatalf("git settings mismatch (-want +got):\n%s", diff)
	}

	user, err := settings.AdminUser(ctx)
	if err != nil || user != nil {
		t.Fatalf("expected no admin user, got %+v err %v", user, err)
	}
	if err := settings.SaveAdminUser(ctx, portfolio.AdminUser{Email: "a@b.com", Name: "Admin"}); err != nil {
		t.Fatalf("save admin: %v", err)
	}
	user, err = settings.AdminUser(ctx)
	if err != nil || user == nil || user.Email != "a@b.com" {
		t.Fatalf("unexpected admin user %+v err %v", user, err)
	}
	if err := settings.ClearAdminUser(ctx); err != nil {
		t.Fatalf("clear admin: %v", err)
	}

	if err := settings.MarkSeen(ctx, 42); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	seen, err := settings.LastSeenNotificationID(ctx)
	if err != nil || seen != 42 {
		t.Fatalf("expected last seen 42, got %d err %v", seen, err)
	}
}

func TestEnsureClientKeys(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	projects := NewProjects(kv)
	n, err := projects.EnsureClientKeys(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected nothing to backfill for an absent key, got %d err %v", n, err)
	}
	if ok, _ := localstore.Exists(ctx, kv, portfolio.KeyProjects); ok {
		t.Fatal("backfill must not write seeds")
	}

	if err := localstore.Save(ctx, kv, portfolio.KeyProjects, []portfolio.Project{
		{ID: 1, Title: "A"}, {ID: 2, Title: "B", ClientKey: "kept"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	n, err = projects.EnsureClientKeys(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 key assigned, got %d err %v", n, err)
	}
	n, err = projects.EnsureClientKeys(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected no new keys, got %d err %v", n, err)
	}
}

func TestEnsureClientKeysLeavesCorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	const stored = `{"title":"wrong shape"}`
	if err := kv.Set(ctx, portfolio.KeyContactMessages, []byte(stored)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err := NewMessages(kv).EnsureClientKeys(ctx)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	raw, _, err := kv.Get(ctx, portfolio.KeyContactMessages)
	if err != nil || string(raw) != stored {
		t.Fatalf("value was rewritten: %q err %v", raw, err)
	}
}

// rawKV serves fixed bytes, including ones the store would refuse to write.
type rawKV struct {
	values map[string][]byte
	setFn  func(key string, value []byte) error
}

func (r *rawKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *rawKV) Set(_ context.Context, key string, value []byte) error {
	if r.setFn != nil {
		return r.setFn(key, value)
	}
	r.values[key] = value
	return nil
}

func (r *rawKV) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(r.values, k)
	}
	return nil
}

func TestInvalidJSONCollectionFallsBackWithoutWriting(t *testing.T) {
	ctx := context.Background()
	kv := &rawKV{
		values: map[string][]byte{portfolio.KeyProjects: []byte(`[{"id":1,"title":`)},
		setFn: func(key string, _ []byte) error {
			t.Fatalf("unexpected write to %s", key)
			return nil
		},
	}
	projects := NewProjects(kv)

	got, err := projects.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff(portfolio.DefaultProjects(), got); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	if _, err := projects.EnsureClientKeys(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
