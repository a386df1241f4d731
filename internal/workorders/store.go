package workorders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/lookups"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/metrics"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/timeutil"
)

const selectColumns = `id, customer_wo_id, customer_id, customer_name, address, city, state, zip,
	phone, email, route, zone, status, service_type, old_meter_id, new_meter_id,
	old_reading, new_reading, old_gps, new_gps, old_meter_type, new_meter_type,
	trouble, assigned_user_id, assigned_group_id, scheduled_at, completed_at,
	scheduled_by, completed_by, created_by, updated_by, notes,
	COALESCE(attachments, '{}') AS attachments, signature, signature_name,
	created_at, updated_at`

// Store is the per-schema work-order engine. One instance lives per project
// schema for the life of the process; construction kicks off the schema
// migration in the background and every operation waits for that single
// shared result before touching the table.
//
// A failed migration is logged and the schema keeps serving in its prior
// shape: subsequent operations surface ordinary constraint errors instead.
// One bad tenant must not block the process or the other tenants.
type Store struct {
	pool     *pgxpool.Pool
	schema   string
	lookups  Lookups
	migrator SchemaMigrator

	migrateOnce sync.Once
	migrateErr  error
}

func NewStore(pool *pgxpool.Pool, schema string, lk Lookups, mig SchemaMigrator) *Store {
	s := &Store{
		pool:     pool,
		schema:   schema,
		lookups:  lk,
		migrator: mig,
	}
	go s.ensureMigrated()
	return s
}

// ensureMigrated runs the schema migration at most once per process
// lifetime. Concurrent callers block on the same attempt. The migration
// runs under its own context so an impatient first caller cannot abort it.
func (s *Store) ensureMigrated() {
	s.migrateOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := s.migrator.Migrate(ctx, s.schema); err != nil {
			log.Printf("[WorkOrders] %s: migration failed, serving prior shape: %v", s.schema, err)
			s.migrateErr = err
		}
	})
}

// MigrationErr reports the outcome of this schema's migration attempt, for
// observability. Operations proceed either way.
func (s *Store) MigrationErr() error {
	s.ensureMigrated()
	return s.migrateErr
}

func (s *Store) tbl() string {
	return pgx.Identifier{s.schema, "work_orders"}.Sanitize()
}

// List returns work orders newest-created-first. The status filter matches
// either stored representation (code or label); the group filter accepts a
// group id or name.
func (s *Store) List(ctx context.Context, f models.ListFilters) ([]*models.WorkOrder, error) {
	s.ensureMigrated()

	var where []string
	var args []any

	if f.Status != "" {
		candidates := []string{f.Status}
		rec, err := s.lookups.Status(ctx, f.Status)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			candidates = append(candidates, rec.Code, rec.Label)
		}
		args = append(args, candidates)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if f.AssignedUserID != nil {
		args = append(args, *f.AssignedUserID)
		where = append(where, fmt.Sprintf("assigned_user_id = $%d", len(args)))
	}
	if f.AssignedGroup != "" {
		group := f.AssignedGroup
		name, ok, err := s.lookups.GroupName(ctx, f.AssignedGroup)
		if err != nil {
			return nil, err
		}
		if ok {
			group = name
		}
		args = append(args, group)
		where = append(where, fmt.Sprintf("assigned_group_id = $%d", len(args)))
	}

	query := "SELECT " + selectColumns + " FROM " + s.tbl()
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, wo)
	}
	return orders, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int) (*models.WorkOrder, error) {
	s.ensureMigrated()
	row := s.pool.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM "+s.tbl()+" WHERE id = $1", id)
	wo, err := scanWorkOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return wo, err
}

func (s *Store) GetByCustomerWoID(ctx context.Context, customerWoID string) (*models.WorkOrder, error) {
	s.ensureMigrated()
	row := s.pool.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM "+s.tbl()+" WHERE customer_wo_id = $1", customerWoID)
	wo, err := scanWorkOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return wo, err
}

// Create inserts a new work order after running the derivation rules over
// the supplied fields. A colliding customerWoId surfaces as the database's
// uniqueness violation.
func (s *Store) Create(ctx context.Context, p *models.WorkOrderPatch, actor string) (*models.WorkOrder, error) {
	s.ensureMigrated()

	cs, err := derive(ctx, s.lookups, nil, p, actor, timeutil.Now())
	if err != nil {
		return nil, err
	}

	if _, ok := cs.get("status"); !ok {
		code, err := statusCodeByLabel(ctx, s.lookups, lookups.LabelOpen)
		if err != nil {
			return nil, err
		}
		cs.set("status", code)
	}
	if p.CreatedBy != nil {
		cs.set("created_by", *p.CreatedBy)
	} else if who, err := resolveActor(ctx, s.lookups, actor); err != nil {
		return nil, err
	} else if who.id != nil {
		cs.set("created_by", *who.id)
		cs.set("updated_by", *who.id)
	}
	if text := cs.noteText(p.Notes); text != "" {
		cs.set("notes", text)
	}

	cols := strings.Join(cs.cols, ", ")
	holders := make([]string, len(cs.vals))
	for i := range cs.vals {
		holders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.tbl(), cols, strings.Join(holders, ", "), selectColumns)

	wo, err := scanWorkOrder(s.pool.QueryRow(ctx, query, cs.vals...))
	if err != nil {
		metrics.WorkOrderWritesTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	metrics.WorkOrderWritesTotal.WithLabelValues("create", "ok").Inc()
	return wo, nil
}

// Update applies a partial update through the same derivation rules. Fields
// absent from the patch stay untouched and trigger no side effects. Returns
// nil when the id does not exist. Generated and user note text is appended
// in a single server-side concatenation so concurrent writers cannot lose
// each other's history.
func (s *Store) Update(ctx context.Context, id int, p *models.WorkOrderPatch, actor string) (*models.WorkOrder, error) {
	s.ensureMigrated()

	prev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, nil
	}

	cs, err := derive(ctx, s.lookups, prev, p, actor, timeutil.Now())
	if err != nil {
		return nil, err
	}
	if who, err := resolveActor(ctx, s.lookups, actor); err != nil {
		return nil, err
	} else if who.id != nil {
		cs.set("updated_by", *who.id)
	}

	var set []string
	var args []any
	for i, col := range cs.cols {
		args = append(args, cs.vals[i])
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if text := cs.noteText(p.Notes); text != "" {
		args = append(args, text)
		n := len(args)
		set = append(set, fmt.Sprintf(
			"notes = CASE WHEN notes IS NULL OR notes = '' THEN $%d ELSE notes || E'\\n' || $%d END", n, n))
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		s.tbl(), strings.Join(set, ", "), len(args), selectColumns)

	wo, err := scanWorkOrder(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.WorkOrderWritesTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}
	metrics.WorkOrderWritesTotal.WithLabelValues("update", "ok").Inc()
	return wo, nil
}

// Delete is an unconditional hard delete.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	s.ensureMigrated()
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+s.tbl()+" WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Stats counts work orders per status, folding codes and labels of the same
// status into one canonical label bucket. A value the lookup cannot resolve
// keeps its raw text as the bucket name.
func (s *Store) Stats(ctx context.Context) (*models.WorkOrderStats, error) {
	s.ensureMigrated()

	rows, err := s.pool.Query(ctx,
		"SELECT status, COUNT(*) FROM "+s.tbl()+" GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.WorkOrderStats{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status *string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		bucket := "Unknown"
		if status != nil {
			bucket = *status
			rec, err := s.lookups.Status(ctx, *status)
			if err != nil {
				return nil, err
			}
			if rec != nil {
				bucket = rec.Label
			}
		}
		stats.ByStatus[bucket] += count
		stats.Total += count
	}
	return stats, rows.Err()
}

// BulkUpsert is the best-effort batch import entry point: a row whose
// business id already exists is updated (createdBy excluded), a new one is
// created, and per-row failures are collected without aborting the batch.
func (s *Store) BulkUpsert(ctx context.Context, patches []*models.WorkOrderPatch, actor string) *models.BulkUpsertResult {
	s.ensureMigrated()

	res := &models.BulkUpsertResult{
		BatchID: uuid.NewString(),
		Errors:  []string{},
	}

	for i, p := range patches {
		s.upsertRow(ctx, i, p, actor, res)
	}

	log.Printf("[WorkOrders] %s: import batch %s: %d created, %d updated, %d errors",
		s.schema, res.BatchID, res.Created, res.Updated, len(res.Errors))
	return res
}

// ImportRecords maps column-mapped import rows into patches and upserts
// them, keeping row indices stable across mapping and write failures.
func (s *Store) ImportRecords(ctx context.Context, rows []map[string]string, actor string) *models.BulkUpsertResult {
	s.ensureMigrated()

	res := &models.BulkUpsertResult{
		BatchID: uuid.NewString(),
		Errors:  []string{},
	}

	for i, rec := range rows {
		p, err := PatchFromRecord(rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i, err))
			metrics.ImportRowsTotal.WithLabelValues("rejected").Inc()
			continue
		}
		s.upsertRow(ctx, i, p, actor, res)
	}

	log.Printf("[WorkOrders] %s: import batch %s: %d created, %d updated, %d errors",
		s.schema, res.BatchID, res.Created, res.Updated, len(res.Errors))
	return res
}

func (s *Store) upsertRow(ctx context.Context, i int, p *models.WorkOrderPatch, actor string, res *models.BulkUpsertResult) {
	if p == nil || p.CustomerWoID == nil || *p.CustomerWoID == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("row %d: missing customerWoId", i))
		metrics.ImportRowsTotal.WithLabelValues("rejected").Inc()
		return
	}

	existing, err := s.GetByCustomerWoID(ctx, *p.CustomerWoID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i, err))
		metrics.ImportRowsTotal.WithLabelValues("error").Inc()
		return
	}

	if existing != nil {
		up := *p
		up.CreatedBy = nil
		if _, err := s.Update(ctx, existing.ID, &up, actor); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i, err))
			metrics.ImportRowsTotal.WithLabelValues("error").Inc()
			return
		}
		res.Updated++
		metrics.ImportRowsTotal.WithLabelValues("updated").Inc()
		return
	}

	if err := validateImportCreate(p); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i, err))
		metrics.ImportRowsTotal.WithLabelValues("rejected").Inc()
		return
	}
	if _, err := s.Create(ctx, p, actor); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i, err))
		metrics.ImportRowsTotal.WithLabelValues("error").Inc()
		return
	}
	res.Created++
	metrics.ImportRowsTotal.WithLabelValues("created").Inc()
}

// validateImportCreate enforces the import contract's required fields for a
// row that would create a new work order.
func validateImportCreate(p *models.WorkOrderPatch) error {
	required := []struct {
		name string
		val  *string
	}{
		{"customerId", p.CustomerID},
		{"customerName", p.CustomerName},
		{"address", p.Address},
		{"serviceType", p.ServiceType},
	}
	for _, f := range required {
		if f.val == nil || *f.val == "" {
			return errors.New("missing required field " + f.name)
		}
	}
	return nil
}

func scanWorkOrder(row pgx.Row) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	err := row.Scan(
		&wo.ID, &wo.CustomerWoID, &wo.CustomerID, &wo.CustomerName, &wo.Address,
		&wo.City, &wo.State, &wo.Zip, &wo.Phone, &wo.Email, &wo.Route, &wo.Zone,
		&wo.Status, &wo.ServiceType, &wo.OldMeterID, &wo.NewMeterID,
		&wo.OldReading, &wo.NewReading, &wo.OldGPS, &wo.NewGPS,
		&wo.OldMeterType, &wo.NewMeterType, &wo.Trouble,
		&wo.AssignedUserID, &wo.AssignedGroupID, &wo.ScheduledAt, &wo.CompletedAt,
		&wo.ScheduledBy, &wo.CompletedBy, &wo.CreatedBy, &wo.UpdatedBy,
		&wo.Notes, &wo.Attachments, &wo.Signature, &wo.SignatureName,
		&wo.CreatedAt, &wo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wo, nil
}
