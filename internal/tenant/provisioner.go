package tenant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Provisioner creates and destroys project schemas. Creation is idempotent;
// destruction is unconditional and cascades to everything in the schema.
type Provisioner struct {
	pool *pgxpool.Pool
}

func NewProvisioner(pool *pgxpool.Pool) *Provisioner {
	return &Provisioner{pool: pool}
}

// Create provisions the schema for a project and the canonical work_orders
// table inside it, with every foreign key pointed at the shared reference
// tables. Safe to call again for an existing project.
func (p *Provisioner) Create(ctx context.Context, projectName string, projectID int) (string, error) {
	schema := SchemaName(projectName, projectID)

	if _, err := p.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return "", fmt.Errorf("create schema %s: %w", schema, err)
	}

	if _, err := p.pool.Exec(ctx, workOrdersDDL(schema)); err != nil {
		// Malformed canonical DDL is a structural error, not a retryable one.
		return "", fmt.Errorf("create work_orders in %s: %w", schema, err)
	}

	log.Printf("[Provisioner] Schema %s ready for project %d", schema, projectID)
	return schema, nil
}

// Destroy drops the schema and all data in it. There is no soft delete and
// no recovery; callers confirm intent before getting here.
func (p *Provisioner) Destroy(ctx context.Context, schema string) error {
	_, err := p.pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
	if err != nil {
		return fmt.Errorf("drop schema %s: %w", schema, err)
	}
	log.Printf("[Provisioner] Schema %s dropped", schema)
	return nil
}

// workOrdersDDL renders the canonical CREATE TABLE for one schema.
func workOrdersDDL(schema string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgx.Identifier{schema, "work_orders"}.Sanitize())
	b.WriteString(" (\n    id SERIAL PRIMARY KEY")
	for _, col := range canonicalColumns {
		b.WriteString(",\n    ")
		b.WriteString(col.Name)
		b.WriteString(" ")
		b.WriteString(col.Type)
	}
	b.WriteString(",\n    CONSTRAINT work_orders_customer_wo_id_key UNIQUE (customer_wo_id)")
	for _, fk := range canonicalForeignKeys {
		b.WriteString(fmt.Sprintf(",\n    CONSTRAINT %s FOREIGN KEY (%s) REFERENCES public.%s(%s) ON DELETE RESTRICT ON UPDATE CASCADE",
			fk.Name, fk.Column, fk.RefTable, fk.RefColumn))
	}
	b.WriteString("\n)")
	return b.String()
}
