package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectKeysQuery = `SELECT project_key FROM reports`

// ProjectRepository lists the Jira projects tracked by the dashboard.
type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ProjectKeys returns every tracked project key in table order. The pooled
// connection is held for this one query only.
func (r *ProjectRepository) ProjectKeys(ctx context.Context) ([]string, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, projectKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("repository: query project keys: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repository: scan project keys: %w", err)
	}

	return keys, nil
}
