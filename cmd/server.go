/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/api"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/config"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/container"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the FieldForce Link API server.
The server listens on the configured host and port and provides the
REST API for work order lifecycle and time tracking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. load config
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if config.IsProduction(cfg) {
			gin.SetMode(gin.ReleaseMode)
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth.secret is required in production")
			}
		}

		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 2. initialize container
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// deliver anything left over from a previous run
		ctr.Notifications().RedeliverPending()

		// hot-reload log level on config file changes
		if configPath != "" {
			watcher := config.NewConfigWatcher(cfg, configPath)
			watcher.OnConfigChange(func(newCfg *config.Config) {
				if level, err := logrus.ParseLevel(newCfg.Log.Level); err == nil {
					logger.SetLevel(level)
				}
			})
			if err := watcher.Start(); err != nil {
				logger.WithField("error", err).Warn("config watcher failed to start")
			} else {
				defer watcher.Stop()
			}
		}

		// 3. controllers
		audit := ctr.Audit()
		controllers := api.Controllers{
			WorkOrders:    api.NewWorkOrderController(ctr.WorkOrders(), ctr.Completion(), audit),
			Sessions:      api.NewSessionController(ctr.Ledger(), audit),
			Attachments:   api.NewAttachmentController(ctr.Attachments()),
			Notifications: api.NewNotificationController(ctr.Notifications()),
		}
		if cfg.Auth.DevTokens && !config.IsProduction(cfg) {
			controllers.Auth = api.NewAuthController(cfg.Auth, ctr.Users())
		}

		// 4. router
		router := api.SetupRoutes(cfg, ctr.DB(), ctr.Hub(), ctr.Validator(), controllers)

		// 5. start server
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// wait for interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}
