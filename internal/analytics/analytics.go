// Package analytics summarises the locally stored collections for the
// dashboard.
package analytics

import (
	"context"
	"math"
	"time"

	"folio/api/internal/collections"
	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

// RecentWindow is how far back an activity counts as recent.
const RecentWindow = 7 * 24 * time.Hour

type Input struct {
	Projects   []portfolio.Project
	Messages   []portfolio.ContactMessage
	SMS        []portfolio.SMSNotification
	Skills     []portfolio.Skill
	Activities []portfolio.Activity
}

type Summary struct {
	Projects   ProjectStats  `json:"projects"`
	Messages   MessageStats  `json:"messages"`
	SMS        SMSStats      `json:"sms"`
	Skills     SkillStats    `json:"skills"`
	Activities ActivityStats `json:"activities"`
}

type ProjectStats struct {
	Total    int                             `json:"total"`
	ByStatus map[portfolio.ProjectStatus]int `json:"byStatus"`
}

type MessageStats struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Replied int `json:"replied"`
}

type SMSStats struct {
	Total      int                         `json:"total"`
	ByCategory map[string]int              `json:"byCategory"`
	ByStatus   map[portfolio.SMSStatus]int `json:"byStatus"`
}

type SkillStats struct {
	Total int `json:"total"`
	// AverageProficiency is rounded to one decimal; zero without skills.
	AverageProficiency float64 `json:"averageProficiency"`
}

type ActivityStats struct {
	Total  int `json:"total"`
	Recent int `json:"recent"`
}

// Summarize counts in. Activities dated within RecentWindow of now count
// as recent; undated or unparsable ones do too.
func Summarize(in Input, now time.Time) Summary {
	s := Summary{
		Projects: ProjectStats{Total: len(in.Projects), ByStatus: map[portfolio.ProjectStatus]int{}},
		Messages: MessageStats{Total: len(in.Messages)},
		SMS: SMSStats{
			Total:      len(in.SMS),
			ByCategory: map[string]int{},
			ByStatus:   map[portfolio.SMSStatus]int{},
		},
		Skills:     SkillStats{Total: len(in.Skills)},
		Activities: ActivityStats{Total: len(in.Activities)},
	}

	for _, p := range in.Projects {
		status := p.Status
		if status == "" {
			status = portfolio.StatusInDevelopment
		}
		s.Projects.ByStatus[status]++
	}

	for _, m := range in.Messages {
		switch m.Status {
		case portfolio.ContactReplied:
			s.Messages.Replied++
		default:
			s.Messages.New++
		}
	}

	for _, n := range in.SMS {
		category := n.Category
		if category == "" {
			category = "Uncategorized"
		}
		s.SMS.ByCategory[category]++
		s.SMS.ByStatus[n.Status]++
	}

	if len(in.Skills) > 0 {
		total := 0
		for _, sk := range in.Skills {
			total += sk.Proficiency
		}
		avg := float64(total) / float64(len(in.Skills))
		s.Skills.AverageProficiency = math.Round(avg*10) / 10
	}

	cutoff := now.Add(-RecentWindow)
	for _, a := range in.Activities {
		when, err := time.Parse(portfolio.DateLayout, a.Date)
		if err != nil || !when.Before(cutoff) {
			s.Activities.Recent++
		}
	}
	return s
}

// Load reads every collection from kv. Absent keys contribute their seed
// records, matching what the admin screens show.
func Load(ctx context.Context, kv localstore.KV) (Input, error) {
	var (
		in  Input
		err error
	)
	if in.Projects, err = collections.NewProjects(kv).List(ctx); err != nil {
		return in, err
	}
	if in.Messages, err = collections.NewMessages(kv).List(ctx); err != nil {
		return in, err
	}
	if in.SMS, err = collections.NewSMS(kv).List(ctx); err != nil {
		return in, err
	}
	if in.Skills, err = collections.NewSkills(kv).List(ctx); err != nil {
		return in, err
	}
	if in.Activities, err = collections.NewActivities(kv).List(ctx); err != nil {
		return in, err
	}
	return in, nil
}
