// Copyright 2026 The RateDesk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ratedesk/ratedesk/docs"
	"github.com/ratedesk/ratedesk/internal/audit"
	"github.com/ratedesk/ratedesk/internal/authz"
	"github.com/ratedesk/ratedesk/internal/config"
	"github.com/ratedesk/ratedesk/internal/observability/logger"
	"github.com/ratedesk/ratedesk/internal/observability/metrics"
	"github.com/ratedesk/ratedesk/internal/observability/tracing"
	"github.com/ratedesk/ratedesk/internal/org"
	"github.com/ratedesk/ratedesk/internal/rbac"
	"github.com/ratedesk/ratedesk/internal/store/postgres"
	transportHTTP "github.com/ratedesk/ratedesk/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting ratedesk authorization service")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	orgRepo := postgres.NewOrgRepository(db)
	directoryRepo := postgres.NewDirectoryRepository(db)
	ownershipRepo := postgres.NewOwnershipRepository(db)

	// Seed the authorization registries. A bad seed is a config error:
	// fail fast, never serve permissive defaults.
	registries, err := rbac.Bootstrap()
	if err != nil {
		slog.Error("authorization bootstrap failed", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("authorization registries loaded",
		slog.Int("permissions", registries.Catalog.Len()),
		slog.Int("roles", len(registries.Registry.List())),
	)

	// Decision sinks: audit trail plus the decision counter
	auditLogger := audit.NewSlogLogger()
	var sink authz.AuditSink = audit.NewDecisionSink(auditLogger)
	if meter != nil {
		if counter, err := meter.NewDecisionCounter(); err == nil {
			sink = &meteredSink{next: sink, counter: counter}
		} else {
			slog.Error("failed to create decision counter", logger.Error(err))
		}
	}

	engine := authz.NewEngine(
		registries.Catalog,
		registries.Registry,
		registries.Graph,
		registries.Actions,
		ownershipRepo,
		authz.WithAuditSink(sink),
		authz.WithResolverTimeout(cfg.Resolver.Timeout),
	)

	orgService := org.NewService(orgRepo, auditLogger)

	// Rate limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		engine,
		directoryRepo,
		orgService,
		registries.Registry,
		registries.Graph,
		logger.NewAuditLogger(slog.Default()),
		cfg.Auth,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

// meteredSink forwards decisions to the audit trail and counts them
type meteredSink struct {
	next    authz.AuditSink
	counter *metrics.DecisionCounter
}

func (s *meteredSink) Record(ctx context.Context, event authz.DecisionEvent) {
	s.next.Record(ctx, event)
	s.counter.Record(ctx, event.Allowed, string(event.Reason))
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
