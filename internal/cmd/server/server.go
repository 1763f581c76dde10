// Package server parses server command flags and starts the meeting runtime.
package server

import (
	"context"
	"flag"
	"log"

	app "github.com/expohall/expohall/internal/app/server"
	"github.com/expohall/expohall/internal/platform/config"
	"github.com/expohall/expohall/internal/platform/otel"
)

// Config holds server command configuration.
type Config struct {
	Port int `env:"EXPOHALL_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The meeting server port")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the meeting coordination service.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "expohall-server")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	return app.Run(ctx, cfg.Port)
}
