package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynook-backend/internal/models"
)

type ArtifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepo(pool *pgxpool.Pool) *ArtifactRepo {
	return &ArtifactRepo{pool: pool}
}

func scanArtifact(row pgx.Row) (*models.Artifact, error) {
	a := &models.Artifact{}
	if err := row.Scan(&a.ID, &a.UserID, &a.Kind, &a.Title, &a.PayloadJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ArtifactRepo) Create(ctx context.Context, a *models.Artifact) error {
	a.ID = uuid.New()
	payload := a.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query := `INSERT INTO artifacts (id, user_id, kind, title, payload_json)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, a.ID, a.UserID, a.Kind, a.Title, payload).Scan(&a.CreatedAt)
}

func (r *ArtifactRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	query := `SELECT id, user_id, kind, title, payload_json, created_at FROM artifacts WHERE id = $1`
	return scanArtifact(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns the user's artifacts newest first, optionally of one kind.
func (r *ArtifactRepo) ListByUser(ctx context.Context, userID uuid.UUID, kind models.ArtifactKind) ([]*models.Artifact, error) {
	query := `SELECT id, user_id, kind, title, payload_json, created_at FROM artifacts
		WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	artifacts := []*models.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func (r *ArtifactRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM artifacts WHERE id = $1", id)
	return err
}
