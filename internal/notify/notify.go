// Package notify simulates SMS alerts for contact submissions and watches
// the notification list for entries the owner has not seen yet.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio/api/internal/collections"
	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
	"folio/api/internal/pubsub"
)

// DeriveCategory picks the SMS category from the message subject.
func DeriveCategory(subject string) string {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "urgent") || strings.Contains(s, "emergency"):
		return "Urgent"
	case strings.Contains(s, "inquiry") || strings.Contains(s, "question"):
		return "Inquiry"
	case strings.Contains(s, "support") || strings.Contains(s, "help"):
		return "Support"
	default:
		return "Contact"
	}
}

func DerivePriority(subject string) portfolio.SMSPriority {
	if strings.Contains(strings.ToLower(subject), "urgent") {
		return portfolio.PriorityHigh
	}
	return portfolio.PriorityMedium
}

type Notifier struct {
	settings   *collections.Settings
	sms        *collections.SMS
	ownerEmail string
}

func NewNotifier(settings *collections.Settings, sms *collections.SMS, ownerEmail string) *Notifier {
	if ownerEmail == "" {
		ownerEmail = portfolio.DefaultOwnerEmail
	}
	return &Notifier{settings: settings, sms: sms, ownerEmail: ownerEmail}
}

// OnContactSubmitted records an SMS alert for msg when SMS notifications are
// switched on and a mobile number is set. created reports whether a record
// was written.
func (n *Notifier) OnContactSubmitted(ctx context.Context, msg portfolio.ContactMessage) (portfolio.SMSNotification, bool, error) {
	ns, err := n.settings.NotificationSettings(ctx)
	if err != nil {
		return portfolio.SMSNotification{}, false, err
	}
	if !ns.SMSNotifications || strings.TrimSpace(ns.MobileNumber) == "" {
		return portfolio.SMSNotification{}, false, nil
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Contact message"
	}
	record, err := n.sms.Add(ctx, portfolio.SMSNotification{
		To:       ns.MobileNumber,
		Message:  fmt.Sprintf("📬 New Contact: %s sent %q via portfolio. Email sent to %s", msg.Name, subject, n.ownerEmail),
		Status:   portfolio.SMSDelivered,
		Category: DeriveCategory(msg.Subject),
		Priority: DerivePriority(msg.Subject),
	})
	if err != nil {
		return portfolio.SMSNotification{}, false, err
	}
	return record, true, nil
}

// Watcher reports notifications newer than the last one marked seen.
type Watcher struct {
	settings *collections.Settings
	sms      *collections.SMS
	broker   *pubsub.Broker
	interval time.Duration
}

func NewWatcher(settings *collections.Settings, sms *collections.SMS, broker *pubsub.Broker, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{settings: settings, sms: sms, broker: broker, interval: interval}
}

// Pending lists unseen notifications, newest first.
func (w *Watcher) Pending(ctx context.Context) ([]portfolio.SMSNotification, error) {
	seen, err := w.settings.LastSeenNotificationID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := w.sms.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]portfolio.SMSNotification, 0)
	for _, item := range items {
		if item.ID > seen {
			out = append(out, item)
		}
	}
	return out, nil
}

// MarkSeen records id as the newest notification shown. Older IDs are
// ignored so the marker never moves backwards.
func (w *Watcher) MarkSeen(ctx context.Context, id int64) error {
	seen, err := w.settings.LastSeenNotificationID(ctx)
	if err != nil {
		return err
	}
	if id <= seen {
		return nil
	}
	return w.settings.MarkSeen(ctx, id)
}

// Run calls fn with each batch of unseen notifications and marks them seen.
// It checks on every change event for the notification key and on a
// fallback ticker, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func([]portfolio.SMSNotification)) error {
	logger := logging.New("notify")
	var events <-chan pubsub.Event
	if w.broker != nil {
		sub := w.broker.Subscribe(portfolio.KeySMSNotifications)
		defer sub.Close()
		events = sub.C
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	check := func() {
		pending, err := w.Pending(ctx)
		if err != nil {
			logger.Warn("read notifications", "error", err)
			return
		}
		if len(pending) == 0 {
			return
		}
		fn(pending)
		if err := w.MarkSeen(ctx, maxID(pending)); err != nil {
			logger.Warn("mark notifications seen", "error", err)
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			check()
		case <-ticker.C:
			check()
		}
	}
}

func maxID(items []portfolio.SMSNotification) int64 {
	var max int64
	for _, item := range items {
		if item.ID > max {
			max = item.ID
		}
	}
	return max
}
