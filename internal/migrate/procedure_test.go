package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"folio/api/internal/client"
	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

type fakeRemote struct {
	statusFn  func(context.Context) (client.MigrationStatus, error)
	migrateFn func(context.Context, map[string]string) (client.MigrationResponse, error)
	sent      []map[string]string
}

func (f *fakeRemote) MigrationStatus(ctx context.Context) (client.MigrationStatus, error) {
	if f.statusFn != nil {
		return f.statusFn(ctx)
	}
	return client.MigrationStatus{RemoteAvailable: true}, nil
}

func (f *fakeRemote) Migrate(ctx context.Context, data map[string]string) (client.MigrationResponse, error) {
	f.sent = append(f.sent, data)
	if f.migrateFn != nil {
		return f.migrateFn(ctx, data)
	}
	return client.MigrationResponse{Success: true, Message: "Data migration completed"}, nil
}

var _ = ginkgo.Describe("Procedure", func() {
	var (
		ctx    context.Context
		store  *localstore.Store
		remote *fakeRemote
		proc   *Procedure
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = localstore.Open(filepath.Join(ginkgo.GinkgoT().TempDir(), "folio.db"), localstore.Options{})
		gomega.Expect(err).To(gomega.Succeed())
		ginkgo.DeferCleanup(store.Close)

		remote = &fakeRemote{}
		proc = New(store, remote)

		gomega.Expect(localstore.Save(ctx, store, portfolio.KeyProfile, portfolio.DefaultProfile())).To(gomega.Succeed())
		gomega.Expect(localstore.Save(ctx, store, portfolio.KeyProjects, []portfolio.Project{
			{ID: 1, Title: "Legacy", Description: "no key yet"},
		})).To(gomega.Succeed())
		gomega.Expect(localstore.Save(ctx, store, portfolio.KeySkills, portfolio.DefaultSkills())).To(gomega.Succeed())
	})

	ginkgo.It("starts unmigrated", func() {
		gomega.Expect(proc.State()).To(gomega.Equal(Unmigrated))
	})

	ginkgo.It("derives the state from the remote status", func() {
		remote.statusFn = func(context.Context) (client.MigrationStatus, error) {
			return client.MigrationStatus{RemoteAvailable: true, Migrated: true, ProjectsCount: 3}, nil
		}
		status, err := proc.Refresh(ctx)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(status.ProjectsCount).To(gomega.Equal(3))
		gomega.Expect(proc.State()).To(gomega.Equal(Migrated))
	})

	ginkgo.It("sends only present keys, as stored, after backfilling client keys", func() {
		report, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(report.Sent).To(gomega.Equal([]string{portfolio.KeyProfile, portfolio.KeyProjects}))
		gomega.Expect(report.Cleared).To(gomega.BeTrue())
		gomega.Expect(proc.State()).To(gomega.Equal(Migrated))

		gomega.Expect(remote.sent).To(gomega.HaveLen(1))
		var sentProjects []portfolio.Project
		gomega.Expect(json.Unmarshal([]byte(remote.sent[0][portfolio.KeyProjects]), &sentProjects)).To(gomega.Succeed())
		gomega.Expect(sentProjects).To(gomega.HaveLen(1))
		gomega.Expect(sentProjects[0].ClientKey).NotTo(gomega.BeEmpty())
		gomega.Expect(remote.sent[0]).NotTo(gomega.HaveKey(portfolio.KeyContactMessages))
	})

	ginkgo.It("removes the migrated keys and nothing else on success", func() {
		_, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.Succeed())

		keys, err := store.Keys(ctx)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(keys).To(gomega.ConsistOf(portfolio.KeySkills))
	})

	ginkgo.It("keeps the keys and surfaces the errors of a partial run", func() {
		remote.migrateFn = func(context.Context, map[string]string) (client.MigrationResponse, error) {
			resp := client.MigrationResponse{Success: true}
			resp.Results.Errors = []string{`Failed to migrate project "Legacy": timeout`}
			return resp, nil
		}
		_, err := proc.Run(ctx)

		var partial *PartialError
		gomega.Expect(errors.As(err, &partial)).To(gomega.BeTrue())
		gomega.Expect(partial.Errors).To(gomega.ConsistOf(gomega.ContainSubstring("timeout")))
		gomega.Expect(proc.State()).To(gomega.Equal(Unmigrated))

		ok, err := localstore.Exists(ctx, store, portfolio.KeyProjects)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(ok).To(gomega.BeTrue())
	})

	ginkgo.It("stays local-only when the remote is unavailable", func() {
		remote.migrateFn = func(context.Context, map[string]string) (client.MigrationResponse, error) {
			return client.MigrationResponse{}, client.ErrRemoteUnavailable
		}
		_, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.MatchError(client.ErrRemoteUnavailable))
		gomega.Expect(proc.State()).To(gomega.Equal(Unmigrated))

		data, err := proc.LocalData(ctx)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(data).To(gomega.HaveLen(2))
	})

	ginkgo.It("sends the same client keys when re-run after a failure", func() {
		remote.migrateFn = func(context.Context, map[string]string) (client.MigrationResponse, error) {
			return client.MigrationResponse{}, errors.New("connection refused")
		}
		_, _ = proc.Run(ctx)
		remote.migrateFn = nil
		_, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.Succeed())

		gomega.Expect(remote.sent).To(gomega.HaveLen(2))
		gomega.Expect(remote.sent[1][portfolio.KeyProjects]).To(gomega.Equal(remote.sent[0][portfolio.KeyProjects]))
	})

	ginkgo.It("refuses a second run while one is in flight", func() {
		release := make(chan struct{})
		entered := make(chan struct{})
		remote.migrateFn = func(context.Context, map[string]string) (client.MigrationResponse, error) {
			close(entered)
			<-release
			return client.MigrationResponse{Success: true}, nil
		}
		done := make(chan error, 1)
		go func() {
			_, err := proc.Run(ctx)
			done <- err
		}()
		<-entered

		gomega.Expect(proc.State()).To(gomega.Equal(Migrating))
		_, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.MatchError(ErrInProgress))

		close(release)
		gomega.Eventually(done).Should(gomega.Receive(gomega.BeNil()))
		gomega.Expect(proc.State()).To(gomega.Equal(Migrated))
	})

	ginkgo.It("reports when there is nothing to send", func() {
		gomega.Expect(store.Remove(ctx, portfolio.KeyProfile, portfolio.KeyProjects)).To(gomega.Succeed())
		_, err := proc.Run(ctx)
		gomega.Expect(err).To(gomega.MatchError(ErrNothingToMigrate))
		gomega.Expect(remote.sent).To(gomega.BeEmpty())

		keys, err := store.Keys(ctx)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(keys).NotTo(gomega.ContainElement(portfolio.KeyProjects))
	})

	ginkgo.It("sends a wrong-shape projects value untouched and keeps it when the remote rejects it", func() {
		const stored = `{"title":"my only project, wrong shape"}`
		gomega.Expect(store.Set(ctx, portfolio.KeyProjects, []byte(stored))).To(gomega.Succeed())
		remote.migrateFn = func(_ context.Context, data map[string]string) (client.MigrationResponse, error) {
			resp := client.MigrationResponse{Success: true}
			var projects []portfolio.Project
			if err := json.Unmarshal([]byte(data[portfolio.KeyProjects]), &projects); err != nil {
				resp.Results.Errors = append(resp.Results.Errors, "Failed to migrate projects data: "+err.Error())
			}
			return resp, nil
		}

		report, err := proc.Run(ctx)
		var partial *PartialError
		gomega.Expect(errors.As(err, &partial)).To(gomega.BeTrue())
		gomega.Expect(report.Cleared).To(gomega.BeFalse())
		gomega.Expect(remote.sent).To(gomega.HaveLen(1))
		gomega.Expect(remote.sent[0][portfolio.KeyProjects]).To(gomega.Equal(stored))

		raw, ok, err := store.Get(ctx, portfolio.KeyProjects)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(string(raw)).To(gomega.MatchJSON(stored))
	})
})
