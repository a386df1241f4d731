package tenant

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/database"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/migrations"
)

// getTestPool connects to the database named by TEST_DATABASE_URL and makes
// sure the shared reference tables exist. Tests skip when no database is
// reachable.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil
	}

	if err := database.NewMigrator(pool, migrations.FS).RunMigrations(ctx); err != nil {
		pool.Close()
		t.Fatalf("reference migrations failed: %v", err)
	}

	return pool
}

func columnNames(t *testing.T, pool *pgxpool.Pool, schema string) map[string]string {
	t.Helper()
	rows, err := pool.Query(context.Background(),
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = 'work_orders'`, schema)
	require.NoError(t, err)
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		cols[name] = typ
	}
	return cols
}

func TestProvisionerCreateIsIdempotent(t *testing.T) {
	pool := getTestPool(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	ctx := context.Background()
	prov := NewProvisioner(pool)

	schema, err := prov.Create(ctx, "Integration Test Project", 98001)
	require.NoError(t, err)
	defer prov.Destroy(ctx, schema)

	assert.Equal(t, "integration_test_project_98001", schema)

	// Second provision of the same project must be a no-op.
	again, err := prov.Create(ctx, "Integration Test Project", 98001)
	require.NoError(t, err)
	assert.Equal(t, schema, again)

	cols := columnNames(t, pool, schema)
	assert.Contains(t, cols, "customer_wo_id")
	assert.Contains(t, cols, "scheduled_at")
	assert.Contains(t, cols, "assigned_group_id")
	assert.NotContains(t, cols, "meter_size")
}

func TestMigratorBringsLegacySchemaForward(t *testing.T) {
	pool := getTestPool(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	ctx := context.Background()
	const schema = "legacy_migration_test_98002"

	pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))
	_, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	require.NoError(t, err)
	defer pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema))

	// A pre-canonical table: renamed columns, integer meter types and group
	// references, and columns the canonical shape no longer carries.
	_, err = pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE %s.work_orders (
		id SERIAL PRIMARY KEY,
		wo_number VARCHAR(100),
		customer_id VARCHAR(100),
		customer_name VARCHAR(255),
		address VARCHAR(255),
		scheduled_date TIMESTAMPTZ,
		completed_date TIMESTAMPTZ,
		old_meter_type INTEGER,
		new_meter_type INTEGER,
		assigned_group_id INTEGER,
		meter_size VARCHAR(50),
		book_number VARCHAR(50)
	)`, schema))
	require.NoError(t, err)

	// Seed catalog rows the conversion join will translate through.
	_, err = pool.Exec(ctx,
		`INSERT INTO meter_types (product_id, description) VALUES ('LGC-TEST', 'legacy conversion test')
		 ON CONFLICT (product_id) DO NOTHING`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO user_groups (group_name) VALUES ('Legacy Crew') ON CONFLICT (group_name) DO NOTHING`)
	require.NoError(t, err)

	var meterTypeID, groupID int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT meter_type_id FROM meter_types WHERE product_id = 'LGC-TEST'`).Scan(&meterTypeID))
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT group_id FROM user_groups WHERE group_name = 'Legacy Crew'`).Scan(&groupID))

	_, err = pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s.work_orders (wo_number, old_meter_type, assigned_group_id) VALUES ($1, $2, $3)`,
		schema), "LEG-1", meterTypeID, groupID)
	require.NoError(t, err)

	require.NoError(t, NewMigrator(pool).Migrate(ctx, schema))

	cols := columnNames(t, pool, schema)

	// Renames applied, deprecated columns gone, missing columns added.
	assert.Contains(t, cols, "customer_wo_id")
	assert.NotContains(t, cols, "wo_number")
	assert.Contains(t, cols, "scheduled_at")
	assert.NotContains(t, cols, "scheduled_date")
	assert.Contains(t, cols, "status")
	assert.Contains(t, cols, "trouble")
	assert.NotContains(t, cols, "meter_size")
	assert.NotContains(t, cols, "book_number")

	// Integer references rewritten to canonical string keys.
	assert.Equal(t, "character varying", cols["old_meter_type"])
	assert.Equal(t, "character varying", cols["assigned_group_id"])

	var productID, groupName string
	require.NoError(t, pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT old_meter_type, assigned_group_id FROM %s.work_orders WHERE customer_wo_id = 'LEG-1'`,
		schema)).Scan(&productID, &groupName))
	assert.Equal(t, "LGC-TEST", productID)
	assert.Equal(t, "Legacy Crew", groupName)

	// Re-running on the converted schema must be a no-op.
	require.NoError(t, NewMigrator(pool).Migrate(ctx, schema))
}

func TestMigratorIsIdempotentOnCanonicalSchema(t *testing.T) {
	pool := getTestPool(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	ctx := context.Background()
	prov := NewProvisioner(pool)

	schema, err := prov.Create(ctx, "Canonical Idempotence", 98003)
	require.NoError(t, err)
	defer prov.Destroy(ctx, schema)

	before := columnNames(t, pool, schema)
	require.NoError(t, NewMigrator(pool).Migrate(ctx, schema))
	require.NoError(t, NewMigrator(pool).Migrate(ctx, schema))
	after := columnNames(t, pool, schema)

	assert.Equal(t, before, after)
}
