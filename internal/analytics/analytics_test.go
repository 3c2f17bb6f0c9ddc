package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 7, 22, 12, 0, 0, 0, time.UTC)
	in := Input{
		Projects: []portfolio.Project{
			{Status: portfolio.StatusLive},
			{Status: portfolio.StatusLive},
			{Status: portfolio.StatusCompleted},
			{},
		},
		Messages: []portfolio.ContactMessage{
			{Status: portfolio.ContactNew},
			{Status: portfolio.ContactReplied},
			{},
		},
		SMS: []portfolio.SMSNotification{
			{Category: "Urgent", Status: portfolio.SMSDelivered},
			{Category: "Urgent", Status: portfolio.SMSFailed},
			{Status: portfolio.SMSPending},
		},
		Skills: []portfolio.Skill{{Proficiency: 90}, {Proficiency: 85}, {Proficiency: 80}},
		Activities: []portfolio.Activity{
			{Date: "2024-07-20"},
			{Date: "2024-07-15"},
			{Date: "soon"},
		},
	}

	want := Summary{
		Projects: ProjectStats{Total: 4, ByStatus: map[portfolio.ProjectStatus]int{
			portfolio.StatusLive:          2,
			portfolio.StatusCompleted:     1,
			portfolio.StatusInDevelopment: 1,
		}},
		Messages: MessageStats{Total: 3, New: 2, Replied: 1},
		SMS: SMSStats{
			Total:      3,
			ByCategory: map[string]int{"Urgent": 2, "Uncategorized": 1},
			ByStatus: map[portfolio.SMSStatus]int{
				portfolio.SMSDelivered: 1,
				portfolio.SMSFailed:    1,
				portfolio.SMSPending:   1,
			},
		},
		Skills:     SkillStats{Total: 3, AverageProficiency: 85},
		Activities: ActivityStats{Total: 3, Recent: 2},
	}
	if diff := cmp.Diff(want, Summarize(in, now)); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(Input{}, time.Now())
	if got.Skills.AverageProficiency != 0 || got.Projects.Total != 0 || len(got.SMS.ByCategory) != 0 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestAverageIsRoundedToOneDecimal(t *testing.T) {
	got := Summarize(Input{Skills: []portfolio.Skill{{Proficiency: 90}, {Proficiency: 85}, {Proficiency: 81}}}, time.Now())
	if got.Skills.AverageProficiency != 85.3 {
		t.Fatalf("expected 85.3, got %v", got.Skills.AverageProficiency)
	}
}

func TestLoadUsesSeedsForAbsentKeys(t *testing.T) {
	ctx := context.Background()
	kv, err := localstore.Open(filepath.Join(t.TempDir(), "local.db"), localstore.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	if err := localstore.Save(ctx, kv, portfolio.KeySkills, []portfolio.Skill{{ID: 1, Name: "Go", Proficiency: 60}}); err != nil {
		t.Fatalf("save skills: %v", err)
	}

	in, err := Load(ctx, kv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(in.Projects) != len(portfolio.DefaultProjects()) {
		t.Fatalf("expected seeded projects, got %d", len(in.Projects))
	}
	if diff := cmp.Diff([]portfolio.Skill{{ID: 1, Name: "Go", Proficiency: 60}}, in.Skills); diff != "" {
		t.Fatalf("skills mismatch:\n%s", diff)
	}
	if len(in.Messages) != 0 || len(in.SMS) != 0 {
		t.Fatalf("expected empty messages and sms, got %d and %d", len(in.Messages), len(in.SMS))
	}
}
