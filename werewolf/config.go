package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// serverConfig is read from the environment first; command flags default
// to these values and override them.
type serverConfig struct {
	RelayURLs   []string      `env:"RELAY" envSeparator:","`
	Port        int           `env:"WEREWOLF_PORT" envDefault:"8080"`
	Name        string        `env:"WEREWOLF_NAME" envDefault:"werewolf"`
	CredKey     string        `env:"WEREWOLF_CRED_KEY"`
	DataPath    string        `env:"WEREWOLF_DATA_PATH"`
	Seed        int64         `env:"WEREWOLF_SEED"`
	BufferSize  int           `env:"WEREWOLF_BUFFER_SIZE" envDefault:"16"`
	IdleTimeout time.Duration `env:"WEREWOLF_IDLE_TIMEOUT" envDefault:"10m"`
}

func loadConfig() (serverConfig, error) {
	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return serverConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
