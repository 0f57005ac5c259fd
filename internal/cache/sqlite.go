package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

// Entry is the persisted form of a cached value.
type Entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	ExpiresAt int64 `gorm:"index"` // unix nanoseconds, 0 never expires
	UpdatedAt string
}

func (Entry) TableName() string { return "view_cache" }

// SQLite keeps view results in a SQLite table so they survive restarts.
type SQLite struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Cache = (*SQLite)(nil)

// OpenSQLite opens (and creates) the database at path and migrates the
// cache table.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite cache")
	}
	return NewSQLite(ctx, db)
}

// NewSQLite uses an already open database.
func NewSQLite(ctx context.Context, db *gorm.DB) (*SQLite, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, errs.Wrap(err, "migrate cache table")
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (c *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkArgs(ctx, key); err != nil {
		return "", false, err
	}

	var row Entry
	if err := c.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query cache by key")
	}
	if row.ExpiresAt != 0 && c.now().UnixNano() >= row.ExpiresAt {
		if err := c.Delete(ctx, key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	return row.Value, true, nil
}

func (c *SQLite) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}

	now := c.now()
	row := Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: now.UTC().Format(time.RFC3339Nano),
	}
	if ttl > 0 {
		row.ExpiresAt = now.Add(ttl).UnixNano()
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"expires_at": row.ExpiresAt,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert cache key")
	}
	return nil
}

func (c *SQLite) Delete(ctx context.Context, key string) error {
	if err := checkArgs(ctx, key); err != nil {
		return err
	}
	if err := c.db.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error; err != nil {
		return errs.Wrap(err, "delete cache key")
	}
	return nil
}

// Purge removes expired rows and reports how many were dropped.
func (c *SQLite) Purge(ctx context.Context) (int64, error) {
	res := c.db.WithContext(ctx).
		Where("expires_at <> 0 AND expires_at <= ?", c.now().UnixNano()).
		Delete(&Entry{})
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "purge expired cache rows")
	}
	return res.RowsAffected, nil
}

func (c *SQLite) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return errs.Wrap(err, "sqlite handle")
	}
	return sqlDB.Close()
}

func ensureDir(dsn string) error {
	candidate := strings.TrimSpace(dsn)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}
	candidate = strings.TrimPrefix(candidate, "file:")
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}
	return nil
}
