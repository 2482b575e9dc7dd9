package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"vin-decoder-service/internal/auth"
	"vin-decoder-service/internal/config"
	"vin-decoder-service/internal/db"
	apihttp "vin-decoder-service/internal/http"
	"vin-decoder-service/internal/inference"
	"vin-decoder-service/internal/metrics"
	"vin-decoder-service/internal/report"
	"vin-decoder-service/internal/repository"
	"vin-decoder-service/internal/service"
	"vin-decoder-service/internal/session"
)

const (
	sweepInterval = time.Minute
	pruneInterval = time.Hour
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	m := metrics.New()

	client, err := inference.NewGeminiClient(ctx, geminiConfig(cfg.Inference), log)
	if err != nil {
		return err
	}

	var (
		audit       service.AuditLog
		credentials auth.CredentialStore = auth.NewStaticStore(cfg.Auth.Users)
	)
	if cfg.Database.DSN != "" {
		gdb, err := db.Connect(cfg.Database.DSN, log)
		if err != nil {
			return err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}
		audit = repository.NewAuditRepository(gdb)

		if cfg.Auth.UseDatabase {
			users := repository.NewUserRepository(gdb)
			if _, err := db.SeedUsers(ctx, users, cfg.Auth.Users, 0, log); err != nil {
				return err
			}
			credentials = auth.NewDBStore(users)
		}
	}

	sessions := session.NewStore(cfg.Auth.TokenTTL, log)
	sessions.SetMaxPerUser(cfg.Auth.MaxSessionsPerUser)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	lookups := service.NewLookupService(client, audit, m, log)
	handler := apihttp.NewHandler(
		service.NewAuthService(credentials, tokens, sessions, log),
		lookups,
		service.NewReportService(report.NewGenerator(reportOptions(cfg.Report)), m, log),
		log,
	)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      apihttp.NewRouter(cfg.HTTP, handler, auth.Middleware(tokens), m, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sessions.Run(gctx, sweepInterval)
		return nil
	})

	if audit != nil && cfg.Database.AuditRetention > 0 {
		g.Go(func() error {
			pruneAudit(gctx, lookups, cfg.Database.AuditRetention)
			return nil
		})
	}

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("model", client.Model()).
			Bool("database", audit != nil).
			Msg("vin decoder listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func pruneAudit(ctx context.Context, lookups *service.LookupService, retention time.Duration) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		_, _ = lookups.CleanupHistory(ctx, retention)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
