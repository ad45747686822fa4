package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/features"
)

// ErrNotFound is returned when no feature has the requested id.
var ErrNotFound = errors.New("feature not found")

// Repository is the persistence contract the HTTP service and the bulk
// loader depend on.
type Repository interface {
	List(ctx context.Context, offset, limit int) ([]Feature, error)
	Get(ctx context.Context, id int64) (Feature, error)
	Create(ctx context.Context, p features.Payload) (Feature, error)
	Update(ctx context.Context, id int64, p features.Payload) (Feature, error)
	Delete(ctx context.Context, id int64) error
	Replace(ctx context.Context, rows []Feature) error
	Insert(ctx context.Context, rows []Feature) error
	Count(ctx context.Context) (int64, error)
}

// Compile-time check.
var _ Repository = (*Store)(nil)

const insertBatchSize = 200

// Store implements Repository with gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database, logger zerolog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite, "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection. The schema must already be migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or extends the features table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Feature{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// List returns one page ordered by id.
func (s *Store) List(ctx context.Context, offset, limit int) ([]Feature, error) {
	var rows []Feature
	err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	return rows, nil
}

// Get returns the feature with id.
func (s *Store) Get(ctx context.Context, id int64) (Feature, error) {
	var row Feature
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Feature{}, ErrNotFound
		}
		return Feature{}, fmt.Errorf("get feature %d: %w", id, err)
	}
	return row, nil
}

// Create inserts a feature and returns it with its id.
func (s *Store) Create(ctx context.Context, p features.Payload) (Feature, error) {
	row, err := NewFeature(p)
	if err != nil {
		return Feature{}, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Feature{}, fmt.Errorf("create feature: %w", err)
	}
	return row, nil
}

// Update replaces the editable columns of an existing feature.
func (s *Store) Update(ctx context.Context, id int64, p features.Payload) (Feature, error) {
	var row Feature
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := row.apply(p); err != nil {
			return err
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Feature{}, ErrNotFound
		}
		return Feature{}, fmt.Errorf("update feature %d: %w", id, err)
	}
	return row, nil
}

// Delete removes a feature.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Feature{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete feature %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Replace empties the table and inserts rows in one transaction.
func (s *Store) Replace(ctx context.Context, rows []Feature) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Feature{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("replace features: %w", err)
	}
	return nil
}

// Insert appends rows in batches.
func (s *Store) Insert(ctx context.Context, rows []Feature) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("insert features: %w", err)
	}
	return nil
}

// Count returns the number of stored features.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Feature{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}

// gormWriter routes gorm's slow query and error lines into zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.Warn().Str("component", "gorm").Msgf(format, args...)
}
