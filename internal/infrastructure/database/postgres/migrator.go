package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// Migrate applies all pending schema migrations from the configured
// directory.  A database that is already up to date is not an error.
func Migrate(cfg config.DatabaseConfig, logger logging.Logger) error {
	source := fmt.Sprintf("file://%s", cfg.MigrationPath)

	m, err := migrate.New(source, DSN(cfg))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "opening migration source")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("closing migrator", logging.Err(errors.Join(srcErr, dbErr)))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("schema already up to date")
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "applying migrations")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "reading schema version")
	}
	logger.Info("schema migrated",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}
