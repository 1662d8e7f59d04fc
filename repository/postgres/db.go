package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	postgresUniqueViolationErrorCode     = "23505"
	postgresForeignKeyViolationErrorCode = "23503"

	eventVenueConstraint = "fk_events_venue"
)

// PostgresStore implements repository.Store on top of GORM
type PostgresStore struct {
	db *gorm.DB
}

func NewStore(cfg *config.Database, log *logrus.Logger) (*PostgresStore, error) {
	return open(cfg.GetDatabaseURL(), cfg, log)
}

func open(dsn string, cfg *config.Database, log *logrus.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	store := &PostgresStore{db: db}
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	log.Info("Database connected and venue, event and booking tables migrated")

	return store, nil
}

// Migrate creates or updates the venue, event and booking tables. Order
// matters because of the foreign keys.
func (s *PostgresStore) Migrate() error {
	if err := s.db.AutoMigrate(&model.Venue{}, &model.Event{}, &model.Booking{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return s.migrateEventVenueCascade()
}

// migrateEventVenueCascade rebuilds fk_events_venue on schemas created while
// it was ON DELETE RESTRICT. AutoMigrate never alters an existing constraint.
func (s *PostgresStore) migrateEventVenueCascade() error {
	var deleteAction string
	err := s.db.Raw("SELECT confdeltype::text FROM pg_constraint WHERE conname = ?", eventVenueConstraint).
		Scan(&deleteAction).Error
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", eventVenueConstraint, err)
	}
	if deleteAction == "" || deleteAction == "c" {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropConstraint(&model.Event{}, eventVenueConstraint); err != nil {
			return fmt.Errorf("failed to drop %s: %w", eventVenueConstraint, err)
		}
		if err := tx.Migrator().CreateConstraint(&model.Event{}, "Venue"); err != nil {
			return fmt.Errorf("failed to create %s: %w", eventVenueConstraint, err)
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func (s *PostgresStore) GetDB() *gorm.DB {
	return s.db
}

func (s *PostgresStore) exists(ctx context.Context, entity interface{}, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(entity).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (s *PostgresStore) deleteByID(ctx context.Context, entity interface{}, id uint) error {
	result := s.db.WithContext(ctx).Delete(entity, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// translateError maps driver errors onto the repository sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case postgresUniqueViolationErrorCode:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case postgresForeignKeyViolationErrorCode:
			return fmt.Errorf("%w: %s", repository.ErrForeignKey, pgErr.ConstraintName)
		}
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching term as a literal substring
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
