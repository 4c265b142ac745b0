package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/vogelsang/vogelsang/cmd"
	"github.com/vogelsang/vogelsang/configs"
	"github.com/vogelsang/vogelsang/pkg/daemon"
	"github.com/vogelsang/vogelsang/pkg/logrus"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "vogelsang")
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()

	// Without a subcommand the process boots the daemon and blocks.
	if flag.NArg() == 0 {
		runDaemon()
		return
	}

	os.Exit(int(commander.Execute(context.Background())))
}

func runDaemon() {
	config, err := configs.ReadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not read config: [%v]\n", err)
		os.Exit(1)
	}

	logger := logrus.ConfigureStandardLogger(
		config.Logging.Format,
		config.Logging.Level,
	)

	ctx, cancelCtx := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancelCtx()

	err = daemon.Run(ctx, logger, &daemon.Config{
		Address:       config.Server.Address,
		StorePath:     config.Store.Path,
		SettingsPath:  config.Settings.Path,
		Username:      config.Degiro.Username,
		Password:      config.Degiro.Password,
		SecretsFile:   config.Degiro.SecretsFile,
		BaseURL:       config.Degiro.BaseURL,
		MarketDataURL: config.Degiro.MarketDataURL,
	})
	if err != nil {
		logger.Fatalf("daemon failed: [%v]", err)
	}
}
