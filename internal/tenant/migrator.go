package tenant

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/metrics"
)

// Migrator brings an existing project schema forward to the canonical
// work_orders shape. Idempotent: running it against an already-current
// schema issues no destructive DDL. Older schemas may carry superseded
// column names, numeric meter-type ids instead of catalog product ids, and
// numeric group ids instead of group names; all of those are converted in
// place, preserving data through correlated lookups against the shared
// reference tables.
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

// Migrate syncs one schema. Steps run in a fixed order: guarded renames,
// then additive columns (renames must land first or the additive pass would
// create the canonical name beside the legacy one), type conversions,
// group-id resolution, deprecated-column drops, foreign-key re-sync.
func (m *Migrator) Migrate(ctx context.Context, schema string) error {
	tbl := pgx.Identifier{schema, "work_orders"}.Sanitize()

	if err := m.renameLegacyColumns(ctx, schema, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.addMissingColumns(ctx, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.convertMeterTypeColumns(ctx, schema, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.convertGroupColumn(ctx, schema, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.dropDeprecatedColumns(ctx, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.syncForeignKeys(ctx, schema, tbl); err != nil {
		metrics.TenantMigrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.TenantMigrationsTotal.WithLabelValues("ok").Inc()
	return nil
}

// renameLegacyColumns renames superseded columns to their canonical name,
// but never when the canonical name already exists.
func (m *Migrator) renameLegacyColumns(ctx context.Context, schema, tbl string) error {
	for old, canonical := range legacyRenames {
		oldExists, err := m.columnExists(ctx, schema, old)
		if err != nil {
			return err
		}
		newExists, err := m.columnExists(ctx, schema, canonical)
		if err != nil {
			return err
		}
		if !oldExists || newExists {
			continue
		}
		q := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", tbl, old, canonical)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("rename %s.%s: %w", schema, old, err)
		}
		log.Printf("[TenantMigrator] %s: renamed %s -> %s", schema, old, canonical)
	}
	return nil
}

// addMissingColumns adds canonical columns absent from this schema.
// Additive only; new columns default to null.
func (m *Migrator) addMissingColumns(ctx context.Context, tbl string) error {
	for _, col := range canonicalColumns {
		q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", tbl, col.Name, col.Type)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("add column %s: %w", col.Name, err)
		}
	}
	// Business-id uniqueness rides along with the additive pass.
	q := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS work_orders_customer_wo_id_key ON %s (customer_wo_id)", tbl)
	if _, err := m.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("unique customer_wo_id index: %w", err)
	}
	return nil
}

// convertMeterTypeColumns rewrites meter-type columns that still hold a
// numeric catalog row id into the catalog's string product id. PostgreSQL
// rejects subqueries inside ALTER ... USING, so the conversion is a cast to
// text followed by a translation join against the catalog.
func (m *Migrator) convertMeterTypeColumns(ctx context.Context, schema, tbl string) error {
	for _, col := range []string{"old_meter_type", "new_meter_type"} {
		numeric, err := m.columnIsInteger(ctx, schema, col)
		if err != nil {
			return err
		}
		if !numeric {
			continue
		}

		fkName := "fk_work_orders_" + col
		if _, err := m.pool.Exec(ctx, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", tbl, fkName)); err != nil {
			return fmt.Errorf("drop %s: %w", fkName, err)
		}
		q := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE VARCHAR(100) USING %s::text", tbl, col, col)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("retype %s: %w", col, err)
		}
		q = fmt.Sprintf(`UPDATE %s w SET %s = mt.product_id
			FROM public.meter_types mt
			WHERE w.%s = mt.meter_type_id::text`, tbl, col, col)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("translate %s: %w", col, err)
		}
		log.Printf("[TenantMigrator] %s: converted %s from catalog row id to product id", schema, col)
	}
	return nil
}

// convertGroupColumn resolves a numeric group-id assignment column into the
// canonical group name, using the same drop-constraint / retype / translate
// pattern as the meter-type conversion.
func (m *Migrator) convertGroupColumn(ctx context.Context, schema, tbl string) error {
	numeric, err := m.columnIsInteger(ctx, schema, "assigned_group_id")
	if err != nil || !numeric {
		return err
	}

	if _, err := m.pool.Exec(ctx, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS fk_work_orders_assigned_group", tbl)); err != nil {
		return fmt.Errorf("drop group fk: %w", err)
	}
	q := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN assigned_group_id TYPE VARCHAR(100) USING assigned_group_id::text", tbl)
	if _, err := m.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("retype assigned_group_id: %w", err)
	}
	q = fmt.Sprintf(`UPDATE %s w SET assigned_group_id = g.group_name
		FROM public.user_groups g
		WHERE w.assigned_group_id = g.group_id::text`, tbl)
	if _, err := m.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("translate assigned_group_id: %w", err)
	}
	log.Printf("[TenantMigrator] %s: converted assigned_group_id from group id to group name", schema)
	return nil
}

func (m *Migrator) dropDeprecatedColumns(ctx context.Context, tbl string) error {
	for _, col := range deprecatedColumns {
		q := fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s CASCADE", tbl, col)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("drop deprecated %s: %w", col, err)
		}
	}
	return nil
}

// syncForeignKeys re-creates every canonical constraint. A constraint whose
// referencing column does not exist in this schema is skipped silently,
// tolerating partially-migrated or intentionally-reduced shapes.
func (m *Migrator) syncForeignKeys(ctx context.Context, schema, tbl string) error {
	for _, fk := range canonicalForeignKeys {
		exists, err := m.columnExists(ctx, schema, fk.Column)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if _, err := m.pool.Exec(ctx, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", tbl, fk.Name)); err != nil {
			return fmt.Errorf("drop %s: %w", fk.Name, err)
		}
		q := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES public.%s(%s) ON DELETE RESTRICT ON UPDATE CASCADE",
			tbl, fk.Name, fk.Column, fk.RefTable, fk.RefColumn)
		if _, err := m.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("add %s: %w", fk.Name, err)
		}
	}
	return nil
}

func (m *Migrator) columnExists(ctx context.Context, schema, col string) (bool, error) {
	var n int
	err := m.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = 'work_orders' AND column_name = $2`,
		schema, col).Scan(&n)
	return n > 0, err
}

func (m *Migrator) columnIsInteger(ctx context.Context, schema, col string) (bool, error) {
	var dataType string
	err := m.pool.QueryRow(ctx,
		`SELECT data_type FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = 'work_orders' AND column_name = $2`,
		schema, col).Scan(&dataType)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return dataType == "integer" || dataType == "bigint" || dataType == "smallint", nil
}
