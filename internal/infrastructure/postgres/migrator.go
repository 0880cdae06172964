package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	// DirectionUp applies every pending migration.
	DirectionUp Direction = "up"
	// DirectionDown rolls back the latest migration.
	DirectionDown Direction = "down"
)

// ErrUnknownDirection is returned for a Direction other than up or down.
var ErrUnknownDirection = errors.New("unknown migration direction")

// RunMigrations applies every pending migration.
func RunMigrations(databaseURL, migrationsPath string) error {
	return Migrate(databaseURL, migrationsPath, DirectionUp)
}

// Migrate moves the schema at databaseURL in dir. migrationsPath is either a
// directory or a golang-migrate source URL.
func Migrate(databaseURL, migrationsPath string, dir Direction) error {
	if dir != DirectionUp && dir != DirectionDown {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}

	m, err := migrate.New(sourceURL(migrationsPath), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if dir == DirectionUp {
		err = m.Up()
	} else {
		err = m.Steps(-1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("direction", string(dir)).Msg("database migrations: no change")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", dir, err)
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		log.Info().Str("direction", string(dir)).Msg("database migrations: schema empty")
		return nil
	}
	log.Info().
		Str("direction", string(dir)).
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("database migrations: done")
	return nil
}

func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
