package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"docflow/api/internal/app"
	"docflow/api/internal/auth"
	"docflow/api/internal/config"
	"docflow/api/internal/docstore"
	"docflow/api/internal/export"
	"docflow/api/internal/metrics"
	"docflow/api/internal/notify"
	"docflow/api/internal/search"
	"docflow/api/internal/store"
	"docflow/api/internal/warehouse"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	warehouseStore := store.NewWarehouseStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		go searchService.ReindexAllFromPG(ctx)
	}

	registry := metrics.NewRegistry()

	service := app.NewService(warehouseStore, cfg).
		WithSearch(searchService).
		WithMetrics(registry)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		notifStore, err := notify.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer notifStore.Close()
		service.WithNotifications(notifStore)
	} else {
		log.Printf("REDIS_URL not set, notifications disabled")
	}

	if strings.TrimSpace(cfg.StorageEndpoint) != "" {
		docs, err := docstore.New(ctx, docstore.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		service.WithDocs(docs)
	} else {
		log.Printf("STORAGE_ENDPOINT not set, PDF routes disabled")
	}

	if strings.TrimSpace(cfg.WarehousePrivateKey) != "" {
		key, err := auth.ParsePrivateKey(cfg.WarehousePrivateKey)
		if err != nil {
			log.Fatalf("warehouse private key invalid: %v", err)
		}
		minter := auth.NewWarehouseJWT(cfg.WarehouseAccount, cfg.WarehouseUser, key)
		service.WithWarehouseJWT(minter)
		if fingerprint, err := minter.Fingerprint(); err == nil {
			log.Printf("warehouse keypair auth enabled, fingerprint %s", fingerprint)
		}
		if strings.TrimSpace(cfg.WarehouseAnalystURL) != "" {
			service.WithAnalyst(warehouse.NewAnalyst(cfg.WarehouseAnalystURL, minter))
			log.Printf("warehouse analyst enabled at %s", cfg.WarehouseAnalystURL)
		}
	}

	service.WithExporter(export.NewService(service))

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin).WithMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.Handle("/", httpServer.Handler())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	go pollNotifications(pollCtx, service, cfg.PollInterval)

	go func() {
		log.Printf("Docflow API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopPoll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// pollNotifications re-derives the notification list from the warehouse on a
// fixed interval so mismatches surface without anyone opening the dashboard.
func pollNotifications(ctx context.Context, service *app.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.RefreshNotifications(ctx); err != nil {
				log.Printf("notification refresh failed: %v", err)
			}
		}
	}
}
