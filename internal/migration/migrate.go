package migration

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openbanc/bankrecon/internal/config"
)

//go:embed sql/*.sql
var migrations embed.FS

// Run applies pending schema migrations. Only the postgres dialect is
// migrated here; sqlite is a test-only dialect whose schema comes from
// AutoMigrate in the tests themselves.
func Run(cfg config.Config, db *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")

	if cfg.DBType != "postgres" {
		log.Info("skipping migrations for dialect", zap.String("dialect", cfg.DBType))
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "sql")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
