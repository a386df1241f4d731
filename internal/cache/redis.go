package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

// Stats cache keys are per project schema
const statsKeyPrefix = "wo:stats:"

const statsTTL = 30 * time.Second

var client *redis.Client

// Init initializes the Redis connection. The cache is optional: when Redis
// is unreachable every lookup is a miss and stats are computed from the
// database.
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetStats returns the cached stats for a schema, if present.
func GetStats(ctx context.Context, schema string) (*models.WorkOrderStats, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, statsKeyPrefix+schema).Bytes()
	if err != nil {
		return nil, false
	}
	var stats models.WorkOrderStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// SetStats caches stats for a schema for a short window.
func SetStats(ctx context.Context, schema string, stats *models.WorkOrderStats) {
	if client == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	client.Set(ctx, statsKeyPrefix+schema, data, statsTTL)
}

// InvalidateStats drops the cached stats after any write into a schema.
func InvalidateStats(ctx context.Context, schema string) {
	if client == nil {
		return
	}
	client.Del(ctx, statsKeyPrefix+schema)
}
