package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

type ProjectRepository struct {
	DB *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

func (r *ProjectRepository) Create(ctx context.Context, name string) (*models.Project, error) {
	var p models.Project
	err := r.DB.QueryRow(ctx,
		`INSERT INTO projects(project_name, schema_name)
         VALUES($1, '')
         RETURNING project_id, project_name, created_at`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	return &p, err
}

// SetSchemaName records the schema derived for a project. The schema name
// needs the project id, so it lands in a second statement after the insert.
func (r *ProjectRepository) SetSchemaName(ctx context.Context, id int, schema string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE projects SET schema_name=$1 WHERE project_id=$2`, schema, id)
	return err
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (*models.Project, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT project_id, project_name, schema_name, created_at
         FROM projects WHERE project_id=$1`, id)

	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.SchemaName, &p.CreatedAt)
	return &p, err
}

func (r *ProjectRepository) GetBySchema(ctx context.Context, schema string) (*models.Project, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT project_id, project_name, schema_name, created_at
         FROM projects WHERE schema_name=$1`, schema)

	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.SchemaName, &p.CreatedAt)
	return &p, err
}

func (r *ProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT project_id, project_name, schema_name, created_at
         FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		err := rows.Scan(&p.ID, &p.Name, &p.SchemaName, &p.CreatedAt)
		if err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM projects WHERE project_id=$1`, id)
	return err
}
