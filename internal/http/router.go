package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/handlers"
)

func NewRouter(
	projectHandler *handlers.ProjectHandler,
	workOrderHandler *handlers.WorkOrderHandler,
	healthHandler *handlers.HealthHandler,
) *mux.Router {
	r := mux.NewRouter()

	// Project lifecycle
	projectsAPI := r.PathPrefix("/api/projects").Subrouter()
	projectsAPI.HandleFunc("", projectHandler.ListProjects).Methods("GET")
	projectsAPI.HandleFunc("", projectHandler.CreateProject).Methods("POST")
	projectsAPI.HandleFunc("/{id}", projectHandler.DeleteProject).Methods("DELETE")

	// Work orders, scoped per project schema
	woAPI := r.PathPrefix("/api/projects/{schema}/workorders").Subrouter()
	woAPI.HandleFunc("", workOrderHandler.List).Methods("GET")
	woAPI.HandleFunc("", workOrderHandler.Create).Methods("POST")
	woAPI.HandleFunc("/stats", workOrderHandler.Stats).Methods("GET")
	woAPI.HandleFunc("/import", workOrderHandler.Import).Methods("POST")
	woAPI.HandleFunc("/bulk", workOrderHandler.BulkUpsert).Methods("POST")
	woAPI.HandleFunc("/by-customer-id/{woid}", workOrderHandler.GetByCustomerWoID).Methods("GET")
	woAPI.HandleFunc("/{id:[0-9]+}", workOrderHandler.Get).Methods("GET")
	woAPI.HandleFunc("/{id:[0-9]+}", workOrderHandler.Update).Methods("PUT")
	woAPI.HandleFunc("/{id:[0-9]+}", workOrderHandler.Delete).Methods("DELETE")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
