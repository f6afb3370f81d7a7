package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynook-backend/internal/models"
)

type MaterialRepo struct {
	pool *pgxpool.Pool
}

func NewMaterialRepo(pool *pgxpool.Pool) *MaterialRepo {
	return &MaterialRepo{pool: pool}
}

const materialColumns = `id, user_id, title, content, subject, file_type, source_url, created_at, updated_at`

func scanMaterial(row pgx.Row) (*models.StudyMaterial, error) {
	m := &models.StudyMaterial{}
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Content, &m.Subject, &m.FileType, &m.SourceURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MaterialRepo) Create(ctx context.Context, m *models.StudyMaterial) error {
	m.ID = uuid.New()
	if m.FileType == "" {
		m.FileType = "text"
	}

	query := `INSERT INTO study_materials (id, user_id, title, content, subject, file_type, source_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		m.ID, m.UserID, m.Title, m.Content, m.Subject, m.FileType, m.SourceURL,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *MaterialRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudyMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM study_materials WHERE id = $1`
	return scanMaterial(r.pool.QueryRow(ctx, query, id))
}

// ListByUser returns the user's materials, newest first. An empty subject
// matches all; limit <= 0 means no limit.
func (r *MaterialRepo) ListByUser(ctx context.Context, userID uuid.UUID, subject string, limit int) ([]*models.StudyMaterial, error) {
	query := `SELECT ` + materialColumns + ` FROM study_materials
		WHERE user_id = $1 AND ($2 = '' OR subject = $2)
		ORDER BY created_at DESC`
	args := []interface{}{userID, subject}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := []*models.StudyMaterial{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// GetManyForUser loads the given materials owned by userID in the order the
// ids were given. Unknown ids and other users' rows are skipped.
func (r *MaterialRepo) GetManyForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*models.StudyMaterial, error) {
	if len(ids) == 0 {
		return []*models.StudyMaterial{}, nil
	}

	query := `SELECT ` + materialColumns + ` FROM study_materials WHERE user_id = $1 AND id = ANY($2)`
	rows, err := r.pool.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := map[uuid.UUID]*models.StudyMaterial{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	materials := make([]*models.StudyMaterial, 0, len(byID))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			materials = append(materials, m)
			delete(byID, id)
		}
	}
	return materials, nil
}

func (r *MaterialRepo) Update(ctx context.Context, m *models.StudyMaterial) error {
	query := `UPDATE study_materials SET title = $1, content = $2, subject = $3, updated_at = NOW()
		WHERE id = $4 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, m.Title, m.Content, m.Subject, m.ID).Scan(&m.UpdatedAt)
}

func (r *MaterialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM study_materials WHERE id = $1", id)
	return err
}
