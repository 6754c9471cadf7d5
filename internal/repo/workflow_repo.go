package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akimenko/graphflow/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowRepo — репозиторий workflows и их версий.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// --- Workflow CRUD ---

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, w *domain.Workflow) error {
	query := `
		INSERT INTO workflows (id, name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		w.ID,
		w.Name,
		w.Description,
		w.IsActive,
		w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, name, description, is_active, created_at
		FROM workflows
		WHERE id = $1
	`
	var w domain.Workflow
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.IsActive,
		&w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by id: %w", err)
	}
	return &w, nil
}

// GetByName возвращает workflow по имени.
func (r *WorkflowRepo) GetByName(ctx context.Context, name string) (*domain.Workflow, error) {
	query := `
		SELECT id, name, description, is_active, created_at
		FROM workflows
		WHERE name = $1
	`
	var w domain.Workflow
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.IsActive,
		&w.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow by name: %w", err)
	}
	return &w, nil
}

// List возвращает все workflows, новые первыми.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, name, description, is_active, created_at
		FROM workflows
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var w domain.Workflow
		if err := rows.Scan(
			&w.ID,
			&w.Name,
			&w.Description,
			&w.IsActive,
			&w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// SetActive переключает флаг активности workflow.
func (r *WorkflowRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE workflows SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set workflow active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет workflow вместе с версиями.
func (r *WorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Versions ---

// CreateVersion сохраняет новую версию workflow с автоинкрементом номера.
func (r *WorkflowRepo) CreateVersion(ctx context.Context, v *domain.WorkflowVersion) error {
	promptJSON, err := json.Marshal(v.Prompt)
	if err != nil {
		return fmt.Errorf("marshal prompt: %w", err)
	}

	query := `
		INSERT INTO workflow_versions (workflow_id, version, graph, prompt, created_at)
		VALUES (
			$1,
			COALESCE((SELECT MAX(version) FROM workflow_versions WHERE workflow_id = $1), 0) + 1,
			$2, $3, $4
		)
		RETURNING version
	`
	err = r.pool.QueryRow(ctx, query,
		v.WorkflowID,
		v.Graph,
		promptJSON,
		v.CreatedAt,
	).Scan(&v.Version)
	if err != nil {
		return fmt.Errorf("insert workflow version: %w", err)
	}
	return nil
}

// GetVersion возвращает конкретную версию workflow.
func (r *WorkflowRepo) GetVersion(ctx context.Context, workflowID uuid.UUID, version int) (*domain.WorkflowVersion, error) {
	query := `
		SELECT workflow_id, version, graph, prompt, created_at
		FROM workflow_versions
		WHERE workflow_id = $1 AND version = $2
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, workflowID, version))
}

// LatestVersion возвращает последнюю версию workflow.
func (r *WorkflowRepo) LatestVersion(ctx context.Context, workflowID uuid.UUID) (*domain.WorkflowVersion, error) {
	query := `
		SELECT workflow_id, version, graph, prompt, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return r.scanVersion(r.pool.QueryRow(ctx, query, workflowID))
}

func (r *WorkflowRepo) scanVersion(row pgx.Row) (*domain.WorkflowVersion, error) {
	var v domain.WorkflowVersion
	var promptJSON []byte
	err := row.Scan(
		&v.WorkflowID,
		&v.Version,
		&v.Graph,
		&promptJSON,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow version: %w", err)
	}

	if len(promptJSON) > 0 {
		if err := json.Unmarshal(promptJSON, &v.Prompt); err != nil {
			return nil, fmt.Errorf("unmarshal prompt: %w", err)
		}
	}
	return &v, nil
}
