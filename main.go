// @title Workflow Tickets API
// @version 1.0
// @description Deduplicated CI/CD workflow-failure tickets, one open ticket per repository.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kube-rca/workflow-tickets/internal/config"
	"github.com/kube-rca/workflow-tickets/internal/db"
	"github.com/kube-rca/workflow-tickets/internal/handler"
	"github.com/kube-rca/workflow-tickets/internal/service"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "", "optional YAML config file")
	addr := pflag.String("addr", "", "listen address (overrides HTTP_ADDR)")
	pflag.Parse()

	// .env는 있으면 로드 (없어도 무시)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] Failed to load .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Workflow.Secret == "" {
		log.Printf("[Config] WORKFLOW_SECRET is empty, /workflow-failure accepts unauthenticated requests")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Store] %v", err)
	}
	defer closeStore()

	dedupService := service.NewDedupService(store, cfg.Dedup.MaxAttempts)
	ingestService := service.NewIngestService(dedupService)
	ticketService := service.NewTicketService(store)

	router := handler.NewRouter(handler.RouterDeps{
		Workflow:       handler.NewWorkflowHandler(ingestService),
		Tickets:        handler.NewTicketHandler(ticketService),
		SecretVerifier: service.NewWorkflowSecretVerifier(cfg.Workflow),
		SecretHeader:   cfg.Workflow.SecretHeader,
		TokenVerifier:  service.NewAccessTokenVerifier(cfg.Auth),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on %s (store=%s)", cfg.Server.Addr, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[Server] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] Shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (db.TicketStore, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Printf("[Store] Using in-memory ticket store")
		return db.NewMemory(), func() {}, nil
	}

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	pg := &db.Postgres{Pool: pool}
	if err := pg.EnsureTicketSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Printf("[Store] Using Postgres ticket store")
	return pg, pool.Close, nil
}
