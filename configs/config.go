package configs

import (
	"github.com/sherifabdlnaby/configuro"
)

// Config values can be set using either environment variables with `CONFIG_`
// prefix or config.yml file placed in working directory.
// See https://github.com/sherifabdlnaby/configuro.
type Config struct {
	Logging  Logging
	Server   Server
	Store    Store
	Settings Settings
	Degiro   Degiro
}

type Logging struct {
	Level  string
	Format string
}

type Server struct {
	Address string
}

type Store struct {
	Path string
}

type Settings struct {
	Path string
}

// Degiro carries the brokerage credentials. They are expected to come from
// the environment (CONFIG_DEGIRO_USERNAME, CONFIG_DEGIRO_PASSWORD) and stay
// in memory; only the short-lived session state goes to the secrets file.
type Degiro struct {
	Username    string
	Password    string
	SecretsFile string

	// Endpoint overrides, empty in normal operation.
	BaseURL       string
	MarketDataURL string
}

func ReadConfig() (*Config, error) {
	loader, err := configuro.NewConfig()
	if err != nil {
		return nil, err
	}

	// Default config values.
	config := &Config{
		Logging: Logging{
			Level: "info",
		},
		Server: Server{
			Address: "127.0.0.1:9123",
		},
		Store: Store{
			Path: "vogelsang.db",
		},
		Settings: Settings{
			Path: "assets.yml",
		},
		Degiro: Degiro{
			SecretsFile: ".vogelsang-session",
		},
	}

	err = loader.Load(config)
	if err != nil {
		return nil, err
	}

	err = loader.Validate(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
