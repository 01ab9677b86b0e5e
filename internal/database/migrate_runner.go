package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"inkwell/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog records one applied SQL migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string { return "migration_logs" }

const migrationLogDDL = `
CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrator applies and reverts a fixed, version-sorted migration list.
type Migrator struct {
	db         *gorm.DB
	registered []Migration
}

// NewMigrator returns a Migrator over the embedded blog migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, registered: migrations}
}

func newMigrator(db *gorm.DB, registered []Migration) *Migrator {
	return &Migrator{db: db, registered: registered}
}

// Applied returns applied versions in ascending order. A database that has
// never been migrated reports none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := m.db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error
	switch {
	case err == nil:
		return versions, nil
	case errors.Is(err, gorm.ErrRecordNotFound), isMissingTableError(err):
		return []int{}, nil
	default:
		return nil, fmt.Errorf("failed to read migration log: %w", err)
	}
}

// isMissingTableError matches the postgres and sqlite wording for an absent table.
func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// Pending returns registered migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return pendingMigrations(applied, m.registered), nil
}

// Up applies every pending migration, each in its own transaction. It refuses
// to run when the log holds versions this build does not know about.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.db.WithContext(ctx).Exec(migrationLogDDL).Error; err != nil {
		return fmt.Errorf("failed to ensure migration log table: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if err := checkKnownVersions(applied, m.registered); err != nil {
		return err
	}

	for _, mig := range pendingMigrations(applied, m.registered) {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", mig.String(), err)
			}
			return tx.Create(&MigrationLog{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return err
		}
		middleware.Logger.Info("migration applied", slog.Int("version", mig.Version), slog.String("name", mig.Name))
	}
	return nil
}

// Down reverts one applied migration and removes its log row atomically.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig := findMigration(m.registered, version)
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("failed to roll back migration %s: %w", mig.String(), err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("migration rolled back", slog.Int("version", version), slog.String("name", mig.Name))
	return nil
}

func checkKnownVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, v := range applied {
		if findMigration(registered, v) == nil {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("migration_logs contains versions unknown to this build: %s", strings.Join(unknown, ", "))
}

// RunMigrations applies all pending embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return NewMigrator(db).Up(ctx)
}

// RollbackMigration reverts one embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db).Down(ctx, version)
}
