// cmd/shuttle/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/config"
	"campusshuttle/internal/eventstore"
	"campusshuttle/internal/httpapi"
	"campusshuttle/internal/membership"
	"campusshuttle/internal/reservation"
	"campusshuttle/internal/telemetry"

	_ "github.com/lib/pq"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(getEnv("SHUTTLE_CONFIG", config.DefaultPath))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load timezone: %v", err)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}

	trips := catalog.NewMemoryRepository()
	tt, err := cfg.CatalogTimetable()
	if err != nil {
		log.Fatalf("Failed to read timetable: %v", err)
	}
	seeded, err := catalog.Seed(trips, tt, clock())
	if err != nil {
		log.Fatalf("Failed to seed timetable: %v", err)
	}
	log.Printf("[CATALOG] action=seeded trips=%d routes=%d days=%d", seeded, len(tt.Routes), tt.Days)

	var journal reservation.Journal
	var history *eventstore.Journal
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Failed to reach database: %v", err)
		}
		es := eventstore.NewEventStore(db)
		if err := es.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare event store: %v", err)
		}
		history = eventstore.NewJournal(es)
		journal = history
		log.Printf("[EVENTSTORE] action=enabled")
	}

	members := membership.NewMemoryRepository()
	mgr := reservation.NewManager(trips, members, journal)
	router := httpapi.NewRouter(
		reservation.NewHandler(mgr, clock),
		catalog.NewHandler(trips),
		membership.NewHandler(members),
		httpapi.Options{
			LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
			LoginBurst:         cfg.Server.LoginBurst,
			Journal:            history,
		},
	)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting Campus Shuttle Service on port %d", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[HTTP] action=shutdown error=%v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("[TELEMETRY] action=shutdown error=%v", err)
	}
	log.Printf("Campus Shuttle Service stopped")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
