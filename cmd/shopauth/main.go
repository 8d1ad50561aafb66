// shopauth es el servicio de autenticación y sesiones del storefront.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/shopauth/internal/config"
	"github.com/dropDatabas3/shopauth/internal/http/server"
	"github.com/dropDatabas3/shopauth/internal/observability/logger"
)

var version = "dev"

func main() {
	var (
		flagEnvFile    = ""
		flagConfigPath = ""
	)

	root := &cobra.Command{
		Use:     "shopauth",
		Short:   "Servicio de autenticación y sesiones del storefront",
		Version: version,
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "ruta a .env (vacío para omitir)")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "ruta a config.yaml (vacío usa defaults+env)")

	loadConfig := func() (*config.Config, error) {
		if flagEnvFile != "" {
			_ = godotenv.Load(flagEnvFile)
		}
		cfg, err := config.Load(flagConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.App.LogLevel,
			ServiceName: "shopauth",
			Version:     version,
		})
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta los listeners HTTP (app + métricas)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.Build(ctx, cfg)
			if err != nil {
				return err
			}

			log := logger.L().With(logger.Component("main"))
			log.Info("shopauth starting",
				logger.String("env", cfg.App.Env),
				logger.String("addr", cfg.Server.Addr),
				logger.String("storage", cfg.Storage.Driver),
				logger.String("sessions", cfg.Sessions.Backend),
			)

			if err := srv.Run(ctx); err != nil {
				log.Error("server exited with error", logger.Err(err))
				return err
			}
			log.Info("shopauth stopped")
			return nil
		},
	}

	root.AddCommand(serveCmd)
	root.AddCommand(newKeysCommand(loadConfig))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
