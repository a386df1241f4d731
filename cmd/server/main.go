package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/auth"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/cache"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/config"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/database"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/db"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/handlers"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/health"
	mfhttp "github.com/mileto808-collab/MeterFlo-Server-sub001/internal/http"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/lookups"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/middleware"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/monitoring"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/repositories"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/tenant"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/workorders"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/migrations"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (stats served from database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run shared reference-table migrations
	// Uses embedded migrations for standalone binary operation
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool, migrations.FS)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)

	// Start monitoring dashboard server in background
	go monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port).Start()

	jwtManager := auth.NewJWTManager(cfg)

	// Domain wiring: lookup resolution, project schemas, per-project stores
	resolver := lookups.NewResolver(pool)
	projectRepo := repositories.NewProjectRepository(pool)
	provisioner := tenant.NewProvisioner(pool)
	tenantMigrator := tenant.NewMigrator(pool)
	registry := workorders.NewRegistry(pool, resolver, tenantMigrator)

	projectHandler := handlers.NewProjectHandler(projectRepo, provisioner, registry)
	workOrderHandler := handlers.NewWorkOrderHandler(registry, projectRepo)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	identityMiddleware := middleware.NewIdentityMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	router := mfhttp.NewRouter(projectHandler, workOrderHandler, healthHandler)

	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			corsMiddleware(
				identityMiddleware.Attach(router))))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
