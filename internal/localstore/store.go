// Package localstore is the file-backed key/value store the client keeps
// its documents in. Each key holds one JSON value.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// SchemaVersion is written next to every value.
const SchemaVersion = 1

var (
	ErrQuotaExceeded = errors.New("local store quota exceeded")
	ErrInvalidJSON   = errors.New("value is not valid JSON")
)

type Entry struct {
	Key           string         `gorm:"primaryKey"`
	Value         datatypes.JSON `gorm:"not null"`
	SchemaVersion int            `gorm:"not null;default:1"`
	UpdatedAt     time.Time
}

type Options struct {
	// QuotaBytes caps the summed size of all values. Zero disables the cap.
	QuotaBytes int
	// OnChange is called with the key of every successful write or removal.
	OnChange func(key string)
}

type Store struct {
	db       *gorm.DB
	sqlDB    *sql.DB
	quota    int
	onChange func(key string)
}

// Open opens or creates the store at path.
func Open(path string, opts Options) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	// one writer at a time
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	return &Store{db: db, sqlDB: sqlDB, quota: opts.QuotaBytes, onChange: opts.OnChange}, nil
}

// OnChange replaces the change callback.
func (s *Store) OnChange(fn func(key string)) {
	s.onChange = fn
}

// Get returns the raw JSON under key. ok is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(entry.Value), true, nil
}

// Set replaces the value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %s: %w", key, ErrInvalidJSON)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.quota > 0 {
			var others int64
			row := tx.Model(&Entry{}).
				Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)").
				Where("key <> ?", key).
				Row()
			if err := row.Scan(&others); err != nil {
				return fmt.Errorf("measure store: %w", err)
			}
			if int(others)+len(value) > s.quota {
				return ErrQuotaExceeded
			}
		}
		entry := Entry{
			Key:           key,
			Value:         datatypes.JSON(value),
			SchemaVersion: SchemaVersion,
			UpdatedAt:     time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "schema_version", "updated_at"}),
		}).Create(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	s.publish(key)
	return nil
}

// Remove deletes keys. Absent keys are not an error.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("remove keys: %w", err)
	}
	for _, key := range keys {
		s.publish(key)
	}
	return nil
}

// Keys lists stored keys in name order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).Order("key").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Size is the summed byte length of all values.
func (s *Store) Size(ctx context.Context) (int, error) {
	var total int64
	row := s.db.WithContext(ctx).Model(&Entry{}).Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("measure store: %w", err)
	}
	return int(total), nil
}

// Quota reports the configured cap in bytes; zero means none.
func (s *Store) Quota() int {
	return s.quota
}

func (s *Store) Close() error {
	return s.sqlDB.Close()
}

func (s *Store) publish(key string) {
	if s.onChange != nil {
		s.onChange(key)
	}
}
