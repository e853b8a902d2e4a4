package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/config"
	"github.com/jonathan/resume-studio/internal/db"
	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/server"
	"github.com/jonathan/resume-studio/internal/server/ratelimit"
	"github.com/jonathan/resume-studio/internal/storage"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the draft store and the editor session API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	log := observability.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	deps := server.Deps{
		Store:  database,
		Tokens: server.NewJWTService(jwtCfg).AsTokenValidator(),
		Log:    log,
	}

	if cfg.Storage.Enabled() {
		thumbs, err := storage.NewThumbnails(ctx, cfg.Storage, observability.Component("storage"))
		if err != nil {
			return fmt.Errorf("failed to initialize thumbnail storage: %w", err)
		}
		deps.Thumbnails = thumbs
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set; thumbnail saving is disabled")
	}

	if rlCfg := ratelimit.LoadConfig(); rlCfg.Enabled {
		deps.RateLimiter = ratelimit.NewLimiter(rlCfg)
	}

	eng, err := newEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer eng.Close() //nolint:errcheck
	deps.Snapshotter = eng.capturer

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		Export:         exportConfig(cfg),
		AllowedOrigins: allowedOrigins(),
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// allowedOrigins reads CORS_ALLOWED_ORIGINS as a comma-separated list.
func allowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
