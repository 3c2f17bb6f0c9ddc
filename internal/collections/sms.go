package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

const testSMSMessage = "🧪 Test SMS: Your SMS notification system is working correctly!"

type SMS struct {
	*Collection[portfolio.SMSNotification]
	kv localstore.KV
}

func NewSMS(kv localstore.KV) *SMS {
	return &SMS{
		Collection: New(kv, Spec[portfolio.SMSNotification]{
			Key:      portfolio.KeySMSNotifications,
			ID:       func(n portfolio.SMSNotification) int64 { return n.ID },
			SetID:    func(n *portfolio.SMSNotification, id int64) { n.ID = id },
			Strategy: Timestamp,
			Prepend:  true,
		}),
		kv: kv,
	}
}

// Add records a notification. Timestamp, status and priority default to
// now, delivered and medium.
func (s *SMS) Add(ctx context.Context, in portfolio.SMSNotification) (portfolio.SMSNotification, error) {
	if strings.TrimSpace(in.To) == "" || strings.TrimSpace(in.Message) == "" {
		return in, fmt.Errorf("%w: recipient and message are required", ErrValidation)
	}
	if in.Timestamp == "" {
		in.Timestamp = s.now().UTC().Format(time.RFC3339Nano)
	}
	if in.Status == "" {
		in.Status = portfolio.SMSDelivered
	}
	if !in.Status.Valid() {
		return in, fmt.Errorf("%w: unknown sms status %q", ErrValidation, in.Status)
	}
	if in.Priority == "" {
		in.Priority = portfolio.PriorityMedium
	}
	if !in.Priority.Valid() {
		return in, fmt.Errorf("%w: unknown sms priority %q", ErrValidation, in.Priority)
	}
	return s.Collection.Add(ctx, in)
}

func (s *SMS) SetStatus(ctx context.Context, id int64, status portfolio.SMSStatus) (portfolio.SMSNotification, error) {
	if !status.Valid() {
		return portfolio.SMSNotification{}, fmt.Errorf("%w: unknown sms status %q", ErrValidation, status)
	}
	return s.Collection.Update(ctx, id, func(cur *portfolio.SMSNotification) error {
		cur.Status = status
		return nil
	})
}

// ClearAll drops every notification.
func (s *SMS) ClearAll(ctx context.Context) error {
	return s.Collection.Clear(ctx)
}

// SendTest records a simulated test message to recipient.
func (s *SMS) SendTest(ctx context.Context, recipient string) (portfolio.SMSNotification, error) {
	if strings.TrimSpace(recipient) == "" {
		return portfolio.SMSNotification{}, fmt.Errorf("%w: mobile number is not configured", ErrValidation)
	}
	return s.Add(ctx, portfolio.SMSNotification{
		To:       recipient,
		Message:  testSMSMessage,
		Status:   portfolio.SMSDelivered,
		Category: "Support",
		Priority: portfolio.PriorityMedium,
	})
}

func (s *SMS) Categories(ctx context.Context) ([]string, error) {
	return localstore.Load(ctx, s.kv, portfolio.KeySMSCategories, portfolio.DefaultSMSCategories)
}

// AddCategory appends name unless it is already present.
func (s *SMS) AddCategory(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if c == name {
			return cats, nil
		}
	}
	cats = append(cats, name)
	return cats, localstore.Save(ctx, s.kv, portfolio.KeySMSCategories, cats)
}

// RemoveCategory deletes name from the list and clears it from every
// notification that carries it.
func (s *SMS) RemoveCategory(ctx context.Context, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(cats))
	for _, c := range cats {
		if c != name {
			kept = append(kept, c)
		}
	}
	if err := localstore.Save(ctx, s.kv, portfolio.KeySMSCategories, kept); err != nil {
		return nil, err
	}

	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	changed := false
	for i := range items {
		if items[i].Category == name {
			items[i].Category = ""
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, items); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

// ByCategory filters notifications. "uncategorized" selects records with
// no category; "all" or "" selects everything.
func ByCategory(items []portfolio.SMSNotification, category string) []portfolio.SMSNotification {
	if category == "" || category == "all" {
		return items
	}
	out := make([]portfolio.SMSNotification, 0, len(items))
	for _, n := range items {
		if n.Category == category || (n.Category == "" && category == "uncategorized") {
			out = append(out, n)
		}
	}
	return out
}
