package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("⚠️  WARNING: This will DELETE ALL USER DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Drop every project schema and its work orders")
	fmt.Println("  - Delete all projects, users and groups")
	fmt.Println("  - Delete all lookup rows (statuses, service types, trouble codes, meter types)")
	fmt.Println("  - Reset all ID sequences")
	fmt.Println()
	fmt.Println("Restart the server afterwards to re-run migrations and reseed lookups.")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	godotenv.Load()

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "meterflo")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	fmt.Println()
	fmt.Println("🔄 Resetting database...")

	ctx := context.Background()

	// Drop every schema a project owns before truncating the registry.
	rows, err := pool.Query(ctx, `SELECT schema_name FROM projects WHERE schema_name <> ''`)
	if err != nil {
		log.Fatalf("Failed to list project schemas: %v\n", err)
	}
	var schemas []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			log.Fatalf("Failed to scan schema name: %v\n", err)
		}
		schemas = append(schemas, s)
	}
	rows.Close()

	for _, schema := range schemas {
		_, err = pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		if err != nil {
			log.Fatalf("Failed to drop schema %s: %v\n", schema, err)
		}
		fmt.Printf("  ✓ Dropped schema %s\n", schema)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"projects",
		"user_groups",
		"users",
		"meter_types",
		"trouble_codes",
		"service_types",
		"statuses",
	}

	for _, table := range tables {
		_, err = tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		if err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  ✓ Cleared %s\n", table)
	}

	// Forget applied migrations so the seed migration reruns on next boot.
	_, err = tx.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations")
	if err != nil {
		log.Fatalf("Failed to drop schema_migrations: %v\n", err)
	}
	fmt.Println("  ✓ Cleared migration history")

	err = tx.Commit(ctx)
	if err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("✅ Database reset successful!")
	fmt.Println()
	fmt.Println("Start the server to recreate reference tables and seed lookups.")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
