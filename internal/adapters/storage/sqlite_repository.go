package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// dsnParams apply the pragmas to every pooled connection. Immediate
// transactions take the write lock up front so busy_timeout covers them.
const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=on&_txlock=immediate"

// SQLiteRepository implements ports.Store using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (and migrates) the database at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath+dsnParams), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newQueryLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&ProjectModel{},
		&FolderModel{},
		&SessionModel{},
		&SessionOutputModel{},
		&PreferenceModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	logging.Logger.Info("Opened state database", "path", dbPath)
	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// transaction runs fn in a write transaction, retrying while the database
// is busy or locked
func (r *SQLiteRepository) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return withRetry(ctx, maxBusyRetries, func() error {
		return r.db.WithContext(ctx).Transaction(fn)
	})
}

const maxBusyRetries = 3

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
}

// withRetry runs fn up to attempts times with linear backoff while it fails
// with SQLITE_BUSY or SQLITE_LOCKED. Other errors return immediately.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := range attempts {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		logging.Logger.Debug("Database busy, retrying", "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("database still busy after %d attempts: %w", attempts, err)
}

// translateError maps driver errors onto the domain taxonomy
func translateError(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError(kind, id)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return domain.ConflictError("%s %s already exists", kind, id)
		}
	}
	return err
}

// compactOrder rewrites display orders of one sibling scope to 0..n-1 in the
// order given, updating only rows whose value changed
func compactOrder(tx *gorm.DB, model any, ids []string, orders []int) ([]int, error) {
	result := make([]int, len(orders))
	for i := range ids {
		result[i] = i
		if orders[i] == i {
			continue
		}
		if err := tx.Model(model).Where("id = ?", ids[i]).UpdateColumn("display_order", i).Error; err != nil {
			return nil, fmt.Errorf("failed to normalize display order: %w", err)
		}
	}
	return result, nil
}

// nullableKey renders an optional id as a map key for scope grouping
func nullableKey(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
