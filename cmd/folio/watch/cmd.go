// Package watchcmd implements `folio watch`: a long-running process that
// prints new SMS notifications as they arrive.
package watchcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"folio/api/cmd/folio/shared"
	"folio/api/internal/collections"
	"folio/api/internal/logging"
	"folio/api/internal/notify"
	"folio/api/internal/portfolio"
	"folio/api/internal/pubsub"
)

type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "watch",
		Short: "Print new notifications until interrupted",
		Long: "Checks for unseen SMS notifications on every change event and on a\n" +
			"fallback interval. With REDIS_URL set, writes from other folio\n" +
			"processes are picked up as they happen.",
		RunE: c.run,
	}
	return c
}

func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}
	store, err := c.ctx.Store()
	if err != nil {
		return err
	}
	logger := logging.New("watch")
	broker := c.ctx.Broker()
	watcher := notify.NewWatcher(collections.NewSettings(store), collections.NewSMS(store), broker, cfg.NotificationPoll)
	out := cmd.OutOrStdout()

	g, ctx := errgroup.WithContext(cmd.Context())
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		bridge := pubsub.NewRedisBridge(rdb, broker, cfg.EventsChannel)
		g.Go(func() error { return bridge.Run(ctx) })
		logger.Info("listening for remote changes", "channel", cfg.EventsChannel)
	}
	g.Go(func() error {
		return watcher.Run(ctx, func(items []portfolio.SMSNotification) {
			printBatch(out, items)
		})
	})
	fmt.Fprintln(out, "Watching for notifications, press Ctrl+C to stop")
	return g.Wait()
}

// printBatch writes oldest first so the newest ends up at the bottom.
func printBatch(out io.Writer, items []portfolio.SMSNotification) {
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		fmt.Fprintf(out, "[%s] %s (%s, %s) to %s: %s\n", n.Timestamp, strings.ToUpper(string(n.Priority)), categoryOf(n), n.Status, n.To, n.Message)
	}
}

func categoryOf(n portfolio.SMSNotification) string {
	if n.Category == "" {
		return "uncategorized"
	}
	return n.Category
}
