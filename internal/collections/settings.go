package collections

import (
	"context"

	"folio/api/internal/localstore"
	"folio/api/internal/portfolio"
)

// Settings groups the single-document keys.
type Settings struct {
	kv localstore.KV
}

func NewSettings(kv localstore.KV) *Settings {
	return &Settings{kv: kv}
}

func (s *Settings) GitSettings(ctx context.Context) (portfolio.GitSettings, error) {
	return localstore.LoadMerged(ctx, s.kv, portfolio.KeyGitSettings, portfolio.DefaultGitSettings)
}

func (s *Settings) SaveGitSettings(ctx context.Context, gs portfolio.GitSettings) error {
	return localstore.Save(ctx, s.kv, portfolio.KeyGitSettings, gs)
}

func (s *Settings) NotificationSettings(ctx context.Context) (portfolio.NotificationSettings, error) {
	return localstore.LoadMerged(ctx, s.kv, portfolio.KeyNotificationSettings, portfolio.DefaultNotificationSettings)
}

func (s *Settings) SaveNotificationSettings(ctx context.Context, ns portfolio.NotificationSettings) error {
	return localstore.Save(ctx, s.kv, portfolio.KeyNotificationSettings, ns)
}

func (s *Settings) LastSeenNotificationID(ctx context.Context) (int64, error) {
	return localstore.Load(ctx, s.kv, portfolio.KeyLastSeenNotification, func() int64 { return 0 })
}

func (s *Settings) MarkSeen(ctx context.Context, id int64) error {
	return localstore.Save(ctx, s.kv, portfolio.KeyLastSeenNotification, id)
}

// AdminUser returns nil when nobody is signed in.
func (s *Settings) AdminUser(ctx context.Context) (*portfolio.AdminUser, error) {
	return localstore.Load(ctx, s.kv, portfolio.KeyAdminUser, func() *portfolio.AdminUser { return nil })
}

func (s *Settings) SaveAdminUser(ctx context.Context, u portfolio.AdminUser) error {
	return localstore.Save(ctx, s.kv, portfolio.KeyAdminUser, u)
}

func (s *Settings) ClearAdminUser(ctx context.Context) error {
	return s.kv.Remove(ctx, portfolio.KeyAdminUser)
}
