// Package migrate moves the local documents to the remote mirror once, on
// request.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"folio/api/internal/client"
	"folio/api/internal/collections"
	"folio/api/internal/localstore"
	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
)

type State string

const (
	Unmigrated State = "unmigrated"
	Migrating  State = "migrating"
	Migrated   State = "migrated"
)

var (
	ErrInProgress        = errors.New("migration already in progress")
	ErrNothingToMigrate  = errors.New("no local data to migrate")
	errRejectedMigration = errors.New("remote rejected the migration")
)

// PartialError lists the records the remote could not store. The local
// keys are kept when it is returned.
type PartialError struct {
	Errors []string
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("migration finished with %d error(s): %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// Remote is the part of the API client the procedure uses.
type Remote interface {
	MigrationStatus(ctx context.Context) (client.MigrationStatus, error)
	Migrate(ctx context.Context, data map[string]string) (client.MigrationResponse, error)
}

type Procedure struct {
	kv       localstore.KV
	remote   Remote
	projects *collections.Projects
	messages *collections.Messages

	mu    sync.Mutex
	state State
}

func New(kv localstore.KV, remote Remote) *Procedure {
	return &Procedure{
		kv:       kv,
		remote:   remote,
		projects: collections.NewProjects(kv),
		messages: collections.NewMessages(kv),
		state:    Unmigrated,
	}
}

func (p *Procedure) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Refresh asks the remote what it already holds and derives the state from
// it. A running migration is left alone.
func (p *Procedure) Refresh(ctx context.Context) (client.MigrationStatus, error) {
	status, err := p.remote.MigrationStatus(ctx)
	if err != nil {
		return status, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Migrating {
		p.state = Unmigrated
		if status.RemoteAvailable && status.Migrated {
			p.state = Migrated
		}
	}
	return status, nil
}

// LocalData returns the migration keys that hold a value, as stored.
func (p *Procedure) LocalData(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	for _, key := range portfolio.MigrationKeys {
		raw, err := localstore.LoadRaw(ctx, p.kv, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if raw != "" {
			out[key] = raw
		}
	}
	return out, nil
}

type Report struct {
	Sent     []string
	Response client.MigrationResponse
	// Cleared is true when the local keys were removed.
	Cleared bool
}

// Run sends the local documents to the remote. The keys are removed only
// when the remote stored everything; a failed or partial run keeps them
// so it can be repeated.
func (p *Procedure) Run(ctx context.Context) (Report, error) {
	p.mu.Lock()
	if p.state == Migrating {
		p.mu.Unlock()
		return Report{}, ErrInProgress
	}
	previous := p.state
	p.state = Migrating
	p.mu.Unlock()

	report, final, err := p.run(ctx, previous)

	p.mu.Lock()
	p.state = final
	p.mu.Unlock()
	return report, err
}

func (p *Procedure) run(ctx context.Context, previous State) (Report, State, error) {
	logger := logging.New("migrate")
	if err := p.backfillClientKeys(ctx); err != nil {
		return Report{}, previous, err
	}

	data, err := p.LocalData(ctx)
	if err != nil {
		return Report{}, previous, err
	}
	if len(data) == 0 {
		return Report{}, previous, ErrNothingToMigrate
	}
	report := Report{}
	for _, key := range portfolio.MigrationKeys {
		if _, ok := data[key]; ok {
			report.Sent = append(report.Sent, key)
		}
	}

	resp, err := p.remote.Migrate(ctx, data)
	report.Response = resp
	if err != nil {
		logger.Warn("migration failed, keeping local data", "error", err)
		return report, Unmigrated, err
	}
	if !resp.Success {
		return report, Unmigrated, fmt.Errorf("%w: %s", errRejectedMigration, resp.Message)
	}
	if errs := resp.Results.Errors; len(errs) > 0 {
		logger.Warn("migration partially failed, keeping local data", "errors", len(errs))
		return report, Unmigrated, &PartialError{Errors: errs}
	}

	if err := p.kv.Remove(ctx, report.Sent...); err != nil {
		return report, Migrated, fmt.Errorf("clear migrated keys: %w", err)
	}
	report.Cleared = true
	logger.Info("migration complete", "keys", len(report.Sent),
		"projects", len(resp.Results.Projects), "contacts", len(resp.Results.Contacts))
	return report, Migrated, nil
}

// backfillClientKeys gives stored records created before client keys
// existed a key, so the remote can match them on later runs. A value that
// does not decode is sent as stored; the remote reports it and the key is
// kept.
func (p *Procedure) backfillClientKeys(ctx context.Context) error {
	for _, ensure := range []func(context.Context) (int, error){
		p.projects.EnsureClientKeys,
		p.messages.EnsureClientKeys,
	} {
		_, err := ensure(ctx)
		if errors.Is(err, collections.ErrCorrupt) {
			logging.New("migrate").Warn("skipping client key backfill", "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("backfill client keys: %w", err)
		}
	}
	return nil
}
