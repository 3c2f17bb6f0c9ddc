package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"folio/api/internal/localstore"
)

const (
	backupFormat  = "folio-backup"
	backupVersion = 1
)

// Snapshot is a JSON backup of local store keys. Values are kept verbatim.
type Snapshot struct {
	Format     string                     `json:"format"`
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exportDate"`
	Entries    map[string]json.RawMessage `json:"entries"`
}

// Keys returns the snapshot's keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Take copies the listed keys out of the store. Absent keys are skipped.
func Take(ctx context.Context, kv localstore.KV, keys []string, now time.Time) (Snapshot, error) {
	snap := Snapshot{
		Format:     backupFormat,
		Version:    backupVersion,
		ExportedAt: now.UTC(),
		Entries:    make(map[string]json.RawMessage, len(keys)),
	}
	for _, key := range keys {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil {
			return Snapshot{}, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		snap.Entries[key] = json.RawMessage(raw)
	}
	return snap, nil
}

func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode backup: %w", err)
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// ReadSnapshot decodes and validates a backup file.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if snap.Format != backupFormat {
		return Snapshot{}, fmt.Errorf("%w: unexpected format %q", ErrInvalidBackup, snap.Format)
	}
	if snap.Version > backupVersion {
		return Snapshot{}, fmt.Errorf("%w: version %d is newer than supported", ErrInvalidBackup, snap.Version)
	}
	for key, raw := range snap.Entries {
		if !json.Valid(raw) {
			return Snapshot{}, fmt.Errorf("%w: key %s is not valid JSON", ErrInvalidBackup, key)
		}
	}
	return snap, nil
}

// Restore writes every entry back. Keys not in the snapshot are untouched.
func Restore(ctx context.Context, kv localstore.KV, snap Snapshot) (int, error) {
	restored := 0
	for _, key := range snap.Keys() {
		if err := kv.Set(ctx, key, snap.Entries[key]); err != nil {
			return restored, fmt.Errorf("restore %s: %w", key, err)
		}
		restored++
	}
	return restored, nil
}
