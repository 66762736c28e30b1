package main

import (
	"log"
	"net/http"
	"time"

	"dotstatus/app/internal/alerts"
	"dotstatus/app/internal/config"
	"dotstatus/app/internal/database"
	"dotstatus/app/internal/events"
	"dotstatus/app/internal/handlers"
	"dotstatus/app/internal/metrics"
	"dotstatus/app/internal/poller"
	"dotstatus/app/internal/scheduler"
	"dotstatus/app/internal/timeutil"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	if err := database.Init(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// First-run seed targets
	seedTargets(cfg)

	// Alert fan-out for event transitions
	events.SetNotifier(alerts.NewManager(cfg))

	p := poller.New(cfg.Location, cfg.ProbeTimeout, cfg.ProbeRetries, cfg.PollConcurrency)
	agg := metrics.New(cfg.Location)

	// Start the hourly scheduler (explicit object, idempotent Start)
	if cfg.EnableScheduler {
		sched := scheduler.New(cfg.Location, cfg.MisfireGrace, p.PollAll)
		sched.Start()
	} else {
		log.Println("Scheduler disabled by configuration")
	}

	// Setup HTTP routes
	handler := handlers.NewRouter(cfg, agg, p)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s (timezone %s)", cfg.Port, cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// seedTargets creates the configured seed targets when the targets
// table is empty, so a fresh install has something to show.
func seedTargets(cfg *config.Config) {
	count, err := database.GetTargetCount()
	if err != nil {
		log.Printf("Warning: failed to count targets: %v", err)
		return
	}
	if count > 0 || len(cfg.SeedTargets) == 0 {
		return
	}

	now := timeutil.Naive(time.Now().In(cfg.Location))
	for _, st := range cfg.SeedTargets {
		enabled := true
		if st.Enabled != nil {
			enabled = *st.Enabled
		}
		if _, err := database.CreateTarget(st.Name, st.BaseURL, st.StatsPath, enabled, now); err != nil {
			log.Printf("Warning: failed to seed target %s: %v", st.Name, err)
			continue
		}
		log.Printf("Seeded target %s (%s)", st.Name, st.BaseURL)
	}
}
