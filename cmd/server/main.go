package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stock-service/internal/app"
	"stock-service/internal/config"
	"stock-service/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:          "server",
		Short:        "Multi-user stock tracking server",
		Long:         `Serves newline-delimited JSON requests over TCP for inventory, supplier, transaction and report operations.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the TCP server and the ops HTTP endpoints",
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}
	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Register an Admin account",
		RunE:  runCreateAdmin,
	}
	adminUsername string
	adminPassword string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/stock.yaml", "path to the YAML config file")

	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(cfg.LogLevel)
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		cmd.Context(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("stock-service started", map[string]any{
		"port":     cfg.AppPort,
		"ops_addr": cfg.Ops.Addr,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownDeadline,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown incomplete", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	logger.Info("stock-service stopped cleanly", nil)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.Migrate(cmd.Context(), cfg)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = app.CreateAdmin(cmd.Context(), cfg, adminUsername, adminPassword)
	return err
}
