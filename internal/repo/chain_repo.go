package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/akimenko/graphflow/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChainRepo — репозиторий цепочек workflows.
type ChainRepo struct {
	pool *pgxpool.Pool
}

// NewChainRepo создаёт новый ChainRepo.
func NewChainRepo(pool *pgxpool.Pool) *ChainRepo {
	return &ChainRepo{pool: pool}
}

const chainColumns = `
	id, name, description, nodes, cron_expr, timezone, enabled,
	next_due_at, last_run_at, last_run_id, created_at, updated_at
`

// Create создаёт новую цепочку.
func (r *ChainRepo) Create(ctx context.Context, c *domain.Chain) error {
	nodesJSON, err := json.Marshal(c.Nodes)
	if err != nil {
		return fmt.Errorf("marshal chain nodes: %w", err)
	}

	query := `
		INSERT INTO chains (` + chainColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		nodesJSON,
		c.CronExpr,
		c.Timezone,
		c.Enabled,
		c.NextDueAt,
		c.LastRunAt,
		c.LastRunID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chain: %w", err)
	}
	return nil
}

// GetByID возвращает цепочку по ID.
func (r *ChainRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chain, error) {
	query := `SELECT ` + chainColumns + ` FROM chains WHERE id = $1`
	return r.scanChain(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все цепочки, новые первыми.
func (r *ChainRepo) List(ctx context.Context) ([]domain.Chain, error) {
	query := `SELECT ` + chainColumns + ` FROM chains ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	var chains []domain.Chain
	for rows.Next() {
		c, err := r.scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, *c)
	}
	return chains, rows.Err()
}

// ListDue возвращает включённые цепочки, чьё расписание наступило.
func (r *ChainRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Chain, error) {
	query := `
		SELECT ` + chainColumns + `
		FROM chains
		WHERE enabled = TRUE
		  AND cron_expr <> ''
		  AND next_due_at IS NOT NULL
		  AND next_due_at <= $1
		ORDER BY next_due_at
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due chains: %w", err)
	}
	defer rows.Close()

	var chains []domain.Chain
	for rows.Next() {
		c, err := r.scanChain(rows)
		if err != nil {
			return nil, err
		}
		chains = append(chains, *c)
	}
	return chains, rows.Err()
}

// Update перезаписывает цепочку.
func (r *ChainRepo) Update(ctx context.Context, c *domain.Chain) error {
	nodesJSON, err := json.Marshal(c.Nodes)
	if err != nil {
		return fmt.Errorf("marshal chain nodes: %w", err)
	}

	query := `
		UPDATE chains
		SET name = $2, description = $3, nodes = $4, cron_expr = $5,
		    timezone = $6, enabled = $7, next_due_at = $8,
		    last_run_at = $9, last_run_id = $10, updated_at = $11
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Description,
		nodesJSON,
		c.CronExpr,
		c.Timezone,
		c.Enabled,
		c.NextDueAt,
		c.LastRunAt,
		c.LastRunID,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update chain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordRun записывает факт запуска цепочки и следующее время расписания.
func (r *ChainRepo) RecordRun(ctx context.Context, chainID, runID uuid.UUID, nextDue time.Time) error {
	query := `
		UPDATE chains
		SET last_run_at = NOW(), last_run_id = $2, next_due_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, chainID, runID, nextDue)
	if err != nil {
		return fmt.Errorf("record chain run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет цепочку.
func (r *ChainRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ChainRepo) scanChain(row pgx.Row) (*domain.Chain, error) {
	var c domain.Chain
	var nodesJSON []byte
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&nodesJSON,
		&c.CronExpr,
		&c.Timezone,
		&c.Enabled,
		&c.NextDueAt,
		&c.LastRunAt,
		&c.LastRunID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chain: %w", err)
	}

	if len(nodesJSON) > 0 {
		if err := json.Unmarshal(nodesJSON, &c.Nodes); err != nil {
			return nil, fmt.Errorf("unmarshal chain nodes: %w", err)
		}
	}
	return &c, nil
}
