// Package daemon wires the actor tree behind the RPC server: the gateway
// owns the brokerage session, the cache owns the store, the settings actor
// owns the tracked-asset list and the calculator runs the portfolio math.
package daemon

import (
	"context"
	"fmt"

	"github.com/vogelsang/vogelsang/pkg/actor"
	"github.com/vogelsang/vogelsang/pkg/degiro"
	"github.com/vogelsang/vogelsang/pkg/rpc"
	"github.com/vogelsang/vogelsang/pkg/store"
	"github.com/vogelsang/vogelsang/pkg/trading"
)

type Config struct {
	// Address the RPC listener binds to.
	Address string
	// StorePath is the SQLite database file of the entity cache.
	StorePath string
	// SettingsPath is the YAML file holding the tracked-asset list.
	SettingsPath string

	// Broker credentials, held in memory only.
	Username string
	Password string
	// SecretsFile, when non-empty, persists the short-lived session token
	// between process runs. Credentials are never written there.
	SecretsFile string

	// Optional endpoint overrides, mainly for tests.
	BaseURL       string
	MarketDataURL string
}

// Run migrates the store, spawns the actors and serves RPC requests until
// the context is cancelled.
func Run(ctx context.Context, logger trading.Logger, config *Config) error {
	storeConfig := &store.Config{Path: config.StorePath}

	if err := store.RunMigration(logger, storeConfig); err != nil {
		return fmt.Errorf("could not run store migration: [%v]", err)
	}

	storeClient, err := store.NewClient(storeConfig)
	if err != nil {
		return fmt.Errorf("could not connect store: [%v]", err)
	}
	defer func() {
		_ = storeClient.Close()
	}()

	system := actor.NewSystem(ctx, logger)

	settingsRef := system.Spawn(
		"settings",
		newSettingsConstructor(config.SettingsPath, logger),
	)

	cacheRef := system.Spawn(
		"cache",
		newCacheConstructor(storeClient, logger),
	)

	gatewayRef := system.Spawn(
		"gateway",
		newGatewayConstructor(
			&degiro.Config{
				Username:      config.Username,
				Password:      config.Password,
				BaseURL:       config.BaseURL,
				MarketDataURL: config.MarketDataURL,
				SecretsFile:   config.SecretsFile,
				Logger:        logger,
			},
			cacheRef,
			settingsRef,
			logger,
		),
	)

	calculatorRef := system.Spawn(
		"calculator",
		newCalculatorConstructor(gatewayRef, cacheRef, settingsRef, logger),
	)

	server := rpc.NewServer(
		config.Address,
		&dispatcher{
			gateway:    gatewayRef,
			cache:      cacheRef,
			settings:   settingsRef,
			calculator: calculatorRef,
			logger:     logger.WithField("component", "dispatcher"),
		},
		logger,
	)

	return server.Run(ctx)
}
