package lookups

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

// Canonical lookup labels the business rules key off. Status codes are
// administrator-configurable, so rules compare labels, never codes.
const (
	LabelOpen      = "Open"
	LabelScheduled = "Scheduled"
	LabelCompleted = "Completed"
	LabelTrouble   = "Trouble"
)

// Resolver reads the shared reference tables and translates human-facing
// identifiers into the canonical keys the tenant foreign keys expect. Every
// resolution miss is a nil/false result, never an error; callers decide
// whether a miss is fatal.
type Resolver struct {
	pool *pgxpool.Pool
}

func NewResolver(pool *pgxpool.Pool) *Resolver {
	return &Resolver{pool: pool}
}

func (r *Resolver) lookupOne(ctx context.Context, query, value string) (*models.Lookup, error) {
	var rec models.Lookup
	err := r.pool.QueryRow(ctx, query, value).Scan(&rec.ID, &rec.Code, &rec.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Status resolves a status code or label to its full record.
func (r *Resolver) Status(ctx context.Context, value string) (*models.Lookup, error) {
	return r.lookupOne(ctx,
		`SELECT status_id, status_code, status_label FROM statuses
		 WHERE status_code = $1 OR status_label = $1`, value)
}

// StatusByLabel resolves the status record carrying a canonical label.
func (r *Resolver) StatusByLabel(ctx context.Context, label string) (*models.Lookup, error) {
	return r.lookupOne(ctx,
		`SELECT status_id, status_code, status_label FROM statuses
		 WHERE status_label = $1`, label)
}

// IsCompletedStatus reports whether a status value resolves to the
// canonical "Completed" label.
func (r *Resolver) IsCompletedStatus(ctx context.Context, value string) (bool, error) {
	rec, err := r.Status(ctx, value)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.Label == LabelCompleted, nil
}

// ServiceType resolves a service-type code or label.
func (r *Resolver) ServiceType(ctx context.Context, value string) (*models.Lookup, error) {
	return r.lookupOne(ctx,
		`SELECT service_id, service_code, service_label FROM service_types
		 WHERE service_code = $1 OR service_label = $1`, value)
}

// TroubleCode resolves a trouble code or label.
func (r *Resolver) TroubleCode(ctx context.Context, value string) (*models.Lookup, error) {
	return r.lookupOne(ctx,
		`SELECT trouble_id, trouble_code, trouble_label FROM trouble_codes
		 WHERE trouble_code = $1 OR trouble_label = $1`, value)
}

// MeterType resolves a catalog product id, or a numeric catalog row id, to
// the catalog record. Code carries the string product id the tenant tables
// store.
func (r *Resolver) MeterType(ctx context.Context, value string) (*models.Lookup, error) {
	return r.lookupOne(ctx,
		`SELECT meter_type_id, product_id, description FROM meter_types
		 WHERE product_id = $1 OR meter_type_id::text = $1`, value)
}

// User resolves a user id, username or full display name.
func (r *Resolver) User(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, username, full_name, email FROM users
		 WHERE user_id::text = $1 OR username = $1 OR full_name = $1`,
		identifier).Scan(&u.ID, &u.Username, &u.FullName, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserID resolves an identifier to a canonical user id.
func (r *Resolver) UserID(ctx context.Context, identifier string) (int, bool, error) {
	u, err := r.User(ctx, identifier)
	if err != nil || u == nil {
		return 0, false, err
	}
	return u.ID, true, nil
}

// GroupName resolves a group id or name to the canonical group name, which
// is what the tenant tables store.
func (r *Resolver) GroupName(ctx context.Context, value string) (string, bool, error) {
	var name string
	var err error
	if _, convErr := strconv.Atoi(value); convErr == nil {
		err = r.pool.QueryRow(ctx,
			`SELECT group_name FROM user_groups WHERE group_id::text = $1 OR group_name = $1`,
			value).Scan(&name)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT group_name FROM user_groups WHERE group_name = $1`, value).Scan(&name)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}
