// Package backup keeps git-versioned snapshots of the local store. Each key
// is committed as <key>.json on the main branch.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"folio/api/internal/export"
	"folio/api/internal/localstore"
	"folio/api/internal/logging"
)

const (
	branchName = "main"
	fileSuffix = ".json"
)

var ErrNoChanges = errors.New("backup: nothing changed since the last snapshot")

type Commit struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

// Short returns the abbreviated hash.
func (c Commit) Short() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

type Repo struct {
	dir  string
	repo *git.Repository
	mu   sync.Mutex
	now  func() time.Time
}

// Open opens the repository at dir, creating it with HEAD on main when it
// does not exist yet.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = initRepo(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open backup repo: %w", err)
	}
	return &Repo{dir: dir, repo: repo, now: time.Now}, nil
}

func initRepo(dir string) (*git.Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branchName))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("set HEAD to %s: %w", branchName, err)
	}
	return repo, nil
}

// Commit makes the worktree hold exactly files (name to content) and
// commits the result. Tracked files missing from files are removed.
func (r *Repo) Commit(files map[string][]byte, author, message string) (Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wt, err := r.repo.Worktree()
	if err != nil {
		return Commit{}, fmt.Errorf("open worktree: %w", err)
	}

	existing, err := r.trackedFiles()
	if err != nil {
		return Commit{}, err
	}
	for _, name := range existing {
		if _, keep := files[name]; keep {
			continue
		}
		if _, err := wt.Remove(name); err != nil {
			return Commit{}, fmt.Errorf("git rm %s: %w", name, err)
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			return Commit{}, fmt.Errorf("invalid backup file name %q", name)
		}
		if err := os.WriteFile(filepath.Join(r.dir, name), files[name], 0o644); err != nil {
			return Commit{}, fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			return Commit{}, fmt.Errorf("git add %s: %w", name, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return Commit{}, fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return Commit{}, ErrNoChanges
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: r.signature(author)})
	if err != nil {
		return Commit{}, fmt.Errorf("commit snapshot: %w", err)
	}
	obj, err := r.repo.CommitObject(hash)
	if err != nil {
		return Commit{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommit(obj), nil
}

// History lists commits on main, newest first. limit <= 0 means all.
func (r *Repo) History(limit int) ([]Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []Commit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branchName, err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := []Commit{}
	err = iter.ForEach(func(obj *object.Commit) error {
		items = append(items, toCommit(obj))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Files returns the files recorded at rev, which may be a full or short
// hash or a tag name.
func (r *Repo) Files(rev string) (map[string][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.resolve(rev)
	if err != nil {
		return nil, err
	}
	obj, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", rev, err)
	}
	files, err := obj.Files()
	if err != nil {
		return nil, fmt.Errorf("list files of %s: %w", rev, err)
	}
	defer files.Close()

	out := map[string][]byte{}
	err = files.ForEach(func(f *object.File) error {
		contents, err := f.Contents()
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		out[f.Name] = []byte(contents)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Tag creates an annotated tag on rev. Reusing a name fails with
// git.ErrTagExists.
func (r *Repo) Tag(name, rev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hash, err := r.resolve(rev)
	if err != nil {
		return err
	}
	_, err = r.repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  r.signature("folio"),
		Message: name,
	})
	if err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}
	return nil
}

// Snapshot commits every local store key that holds a value.
func (r *Repo) Snapshot(ctx context.Context, kv localstore.KV, keys []string, author, message string) (Commit, error) {
	snap, err := export.Take(ctx, kv, keys, r.now())
	if err != nil {
		return Commit{}, err
	}
	files := make(map[string][]byte, len(snap.Entries))
	for key, raw := range snap.Entries {
		files[key+fileSuffix] = raw
	}
	if message == "" {
		message = fmt.Sprintf("Snapshot of %d keys", len(files))
	}
	c, err := r.Commit(files, author, message)
	if err != nil {
		return Commit{}, err
	}
	logging.New("backup").Info("snapshot committed", "hash", c.Short(), "keys", len(files))
	return c, nil
}

// Restore writes the keys recorded at rev back into the store. Keys absent
// from that snapshot are left as they are.
func (r *Repo) Restore(ctx context.Context, kv localstore.KV, rev string) (int, error) {
	files, err := r.Files(rev)
	if err != nil {
		return 0, err
	}
	snap := export.Snapshot{Entries: map[string]json.RawMessage{}}
	for name, raw := range files {
		if key, ok := strings.CutSuffix(name, fileSuffix); ok {
			snap.Entries[key] = raw
		}
	}
	return export.Restore(ctx, kv, snap)
}

func (r *Repo) trackedFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if len(rev) == 40 {
		return plumbing.NewHash(rev), nil
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return *hash, nil
}

func (r *Repo) signature(author string) *object.Signature {
	if strings.TrimSpace(author) == "" {
		author = "folio"
	}
	return &object.Signature{
		Name:  author,
		Email: emailLocalPart(author) + "@folio.local",
		When:  r.now(),
	}
}

func toCommit(obj *object.Commit) Commit {
	return Commit{
		Hash:    obj.Hash.String(),
		Message: strings.TrimSpace(obj.Message),
		Author:  obj.Author.Name,
		When:    obj.Author.When,
	}
}

func emailLocalPart(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
