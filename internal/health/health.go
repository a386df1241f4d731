package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status    string         `json:"status"`
	Database  DatabaseHealth `json:"database"`
	Reference ReferenceHealth `json:"reference_tables"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// ReferenceHealth reports whether the shared lookup tables are present.
// Every tenant foreign key points at them, so the service cannot take
// writes until the shared migrations have run.
type ReferenceHealth struct {
	Status   string `json:"status"`
	Statuses int    `json:"statuses"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()
	refHealth := h.checkReferenceTables()

	status := "healthy"
	if dbHealth.Status != "healthy" || refHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:    status,
		Database:  dbHealth,
		Reference: refHealth,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func (h *HealthChecker) checkReferenceTables() ReferenceHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var n int
	if err := h.db.QueryRow(ctx, "SELECT COUNT(*) FROM statuses").Scan(&n); err != nil {
		return ReferenceHealth{Status: "unhealthy"}
	}
	if n == 0 {
		// Tables exist but the seed migration has not run.
		return ReferenceHealth{Status: "unhealthy"}
	}
	return ReferenceHealth{Status: "healthy", Statuses: n}
}
