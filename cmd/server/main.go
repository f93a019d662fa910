package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/projet-lalana/backend/internal/config"
	"github.com/projet-lalana/backend/internal/db"
	"github.com/projet-lalana/backend/internal/docstore"
	"github.com/projet-lalana/backend/internal/handlers"
	"github.com/projet-lalana/backend/internal/identity"
	"github.com/projet-lalana/backend/internal/images"
	"github.com/projet-lalana/backend/internal/services"
	"github.com/projet-lalana/backend/internal/status"
	syncengine "github.com/projet-lalana/backend/internal/sync"

	"github.com/joho/godotenv"
)

// simple middleware chain
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

var (
	migrateOnlyFlag  = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	syncIntervalFlag = flag.Duration("sync-interval", 0, "Run a sync cycle on this interval (0 disables the scheduler)")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(cfg.DatabaseDSN); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Erreur connexion DB: %v", err)
	}

	// Clients externes construits une fois au démarrage et injectés partout.
	// Les implémentations mémoire servent le développement local; les clients
	// réels (SDK document store / fournisseur d'identité) se branchent ici.
	store := docstore.NewMemoryStore()
	provider := identity.NewMemoryProvider()

	catalog := status.NewCatalog(dbConn)
	fetcher := images.NewFetcher(cfg.ImageDir)
	fetcher.Client.Timeout = cfg.CallTimeout
	outbox := syncengine.NewOutbox(store)
	notifier := syncengine.NewNotifier(outbox, store)

	orchestrator := syncengine.NewOrchestrator(
		syncengine.NewReconciler(dbConn, provider),
		syncengine.NewImporter(dbConn, store, fetcher, catalog, cfg.DefaultUserID),
		syncengine.NewPublisher(dbConn, store, outbox, catalog),
		syncengine.NewReaper(store, catalog),
		syncengine.NewTokenRefresher(dbConn, store),
		cfg.CycleTimeout,
	)

	h := &handlers.Handlers{
		Signalements: services.NewSignalementService(dbConn, catalog),
		Problemes:    services.NewProblemeService(dbConn, catalog, notifier),
		Users:        services.NewUserService(dbConn, provider, cfg.MaxLoginAttempts, cfg.LockWindow),
		Entreprises:  services.NewEntrepriseService(dbConn),
		Orchestrator: orchestrator,
	}

	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: withLogging(h.Router())}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *syncIntervalFlag > 0 {
		go func() {
			ticker := time.NewTicker(*syncIntervalFlag)
			defer ticker.Stop()
			for {
				select {
				case <-rootCtx.Done():
					return
				case <-ticker.C:
					if _, err := orchestrator.RunCycle(rootCtx); err != nil {
						log.Printf("cycle planifié: %v", err)
					}
				}
			}
		}()
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
