// Package store persists the fetched broker entities in an embedded
// SQLite database. Values are stored as JSON documents keyed by the
// instrument id, one table per entity kind.
package store

import (
	"embed"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Config struct {
	// Path of the database file. The file and its schema are created on
	// first use.
	Path string
}

type Client struct {
	mutex    sync.RWMutex
	database *sqlx.DB
}

func NewClient(config *Config) (*Client, error) {
	database, err := connectDatabase(config)
	if err != nil {
		return nil, err
	}

	return &Client{database: database}, nil
}

func connectDatabase(config *Config) (*sqlx.DB, error) {
	// WAL keeps concurrent readers off the single writer's back; the busy
	// timeout covers writer handover between connections.
	address := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		config.Path,
	)

	database, err := sqlx.Connect("sqlite", address)
	if err != nil {
		return nil, fmt.Errorf("could not connect database: [%v]", err)
	}

	return database, nil
}

func (c *Client) instance() *sqlx.DB {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.database
}

func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.database.Close()
}

// RunMigration brings the database file schema up to date from the
// migrations embedded in the binary.
func RunMigration(logger trading.Logger, config *Config) error {
	logger.Infof("starting database migration")

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not read embedded migrations: [%v]", err)
	}

	migration, err := migrate.NewWithSourceInstance(
		"iofs",
		source,
		"sqlite://"+config.Path,
	)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migration.Close()
	}()

	err = migration.Up()
	if err != nil {
		if err == migrate.ErrNoChange {
			logger.Infof("database migration skipped as there are no changes")
			return nil
		}

		return err
	}

	logger.Infof("database migration performed successfully")

	return nil
}
