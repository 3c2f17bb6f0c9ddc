// Package shared holds the state passed to all folio commands.
package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"folio/api/internal/client"
	"folio/api/internal/config"
	"folio/api/internal/localstore"
	"folio/api/internal/logging"
	"folio/api/internal/pubsub"
)

// Context carries global CLI state (flags set on the root command) and the
// resources commands open lazily.
type Context struct {
	// ConfigPath names a YAML config file; it overrides FOLIO_CONFIG.
	ConfigPath string
	// StorePath overrides the local store location.
	StorePath string
	// RemoteURL overrides the API base URL.
	RemoteURL string
	// Markdown renders tables as Markdown.
	Markdown bool
	// JSON prints records as JSON instead of tables.
	JSON bool

	once    sync.Once
	cfg     config.Config
	cfgErr  error
	store   *localstore.Store
	broker  *pubsub.Broker
	changed []string
}

// Config loads the configuration once and applies flag overrides.
func (c *Context) Config() (config.Config, error) {
	c.once.Do(func() {
		if c.ConfigPath != "" {
			_ = os.Setenv("FOLIO_CONFIG", c.ConfigPath)
		}
		c.cfg, c.cfgErr = config.Load()
		if c.cfgErr != nil {
			return
		}
		if c.StorePath != "" {
			c.cfg.LocalStorePath = c.StorePath
		}
		if c.RemoteURL != "" {
			c.cfg.RemoteURL = c.RemoteURL
		}
		logging.Init(logging.ParseLevel(c.cfg.LogLevel), c.cfg.LogFormat)
	})
	return c.cfg, c.cfgErr
}

// Broker returns the process-local change broker. Every write through
// Store is published on it.
func (c *Context) Broker() *pubsub.Broker {
	if c.broker == nil {
		c.broker = pubsub.NewBroker("folio-" + uuid.NewString()[:8])
	}
	return c.broker
}

// Store opens the local store on first use.
func (c *Context) Store() (*localstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	broker := c.Broker()
	s, err := localstore.Open(cfg.LocalStorePath, localstore.Options{
		QuotaBytes: cfg.LocalQuotaBytes,
		OnChange: func(key string) {
			c.changed = append(c.changed, key)
			broker.Publish(key)
		},
	})
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Close releases the store and tells other folio processes, through Redis
// when configured, which keys this command changed.
func (c *Context) Close(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	defer func() { c.store = nil }()
	if err := c.announce(ctx); err != nil {
		logging.New("cli").Warn("announce changes", "error", err)
	}
	return c.store.Close()
}

func (c *Context) announce(ctx context.Context) error {
	if len(c.changed) == 0 || strings.TrimSpace(c.cfg.RedisURL) == "" {
		return nil
	}
	opts, err := redis.ParseURL(c.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	seen := map[string]bool{}
	for _, key := range c.changed {
		if seen[key] {
			continue
		}
		seen[key] = true
		ev := pubsub.Event{Key: key, Seq: c.broker.Seq(key), Origin: c.broker.Origin()}
		if err := pubsub.Announce(ctx, rdb, c.cfg.EventsChannel, ev); err != nil {
			return err
		}
	}
	return nil
}

// Client returns an API client authorised with the saved session, if any.
func (c *Context) Client() (*client.Client, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	opts := []client.Option{}
	if tokens, err := c.LoadTokens(); err == nil && tokens.Token != "" {
		opts = append(opts, client.WithToken(tokens.Token))
	}
	return client.New(cfg.RemoteURL, opts...)
}

func (c *Context) sessionPath() (string, error) {
	cfg, err := c.Config()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(cfg.LocalStorePath), "session.json"), nil
}

var ErrNotLoggedIn = errors.New("not logged in")

func (c *Context) LoadTokens() (client.Tokens, error) {
	var tokens client.Tokens
	path, err := c.sessionPath()
	if err != nil {
		return tokens, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return tokens, ErrNotLoggedIn
	}
	if err != nil {
		return tokens, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return tokens, fmt.Errorf("decode session: %w", err)
	}
	return tokens, nil
}

func (c *Context) SaveTokens(tokens client.Tokens) error {
	path, err := c.sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Context) ClearTokens() error {
	path, err := c.sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
