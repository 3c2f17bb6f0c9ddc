package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type Messages struct {
	*Collection[portfolio.ContactMessage]
}

func NewMessages(kv localstore.KV) *Messages {
	return &Messages{New(kv, Spec[portfolio.ContactMessage]{
		Key:      portfolio.KeyContactMessages,
		ID:       func(m portfolio.ContactMessage) int64 { return m.ID },
		SetID:    func(m *portfolio.ContactMessage, id int64) { m.ID = id },
		Strategy: Timestamp,
		Prepend:  true,
	})}
}

// Submit stores a contact form submission, newest first.
func (m *Messages) Submit(ctx context.Context, in portfolio.ContactMessage) (portfolio.ContactMessage, error) {
	in = WithContactDefaults(in, m.now())
	if err := in.Validate(); err != nil {
		return in, err
	}
	if in.ClientKey == "" {
		in.ClientKey = uuid.NewString()
	}
	return m.Collection.Add(ctx, in)
}

func (m *Messages) SetStatus(ctx context.Context, id int64, status portfolio.ContactStatus) (portfolio.ContactMessage, error) {
	if !status.Valid() {
		return portfolio.ContactMessage{}, fmt.Errorf("%w: unknown contact status %q", ErrValidation, status)
	}
	return m.Collection.Update(ctx, id, func(cur *portfolio.ContactMessage) error {
		cur.Status = status
		return nil
	})
}

// EnsureClientKeys gives every stored message without a client key a new
// one and reports how many were assigned. A value that does not decode
// fails with ErrCorrupt and is not rewritten.
func (m *Messages) EnsureClientKeys(ctx context.Context) (int, error) {
	return m.ensureKeys(ctx, func(x *portfolio.ContactMessage) *string { return &x.ClientKey })
}

// WithContactDefaults fills subject, contact method, status and date.
func WithContactDefaults(in portfolio.ContactMessage, now time.Time) portfolio.ContactMessage {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Subject) == "" {
		in.Subject = portfolio.DefaultContactTitle
	}
	if in.ContactMethod == "" {
		in.ContactMethod = portfolio.MethodEmail
	}
	if in.Status == "" {
		in.Status = portfolio.ContactNew
	}
	if in.Date == "" {
		in.Date = portfolio.Today(now)
	}
	return in
}
