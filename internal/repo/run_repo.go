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

// RunRepo — репозиторий запусков цепочек.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `
	id, chain_id, execution_id, status, node_results, error,
	idempotency_key, started_at, finished_at, created_at
`

// Create создаёт запись запуска.
//
// Для scheduled-запусков конфликт по idempotency_key возвращает
// ErrAlreadyExists: планировщик не должен запускать один слот дважды.
func (r *RunRepo) Create(ctx context.Context, run *domain.ChainRun) error {
	resultsJSON, err := json.Marshal(run.NodeResults)
	if err != nil {
		return fmt.Errorf("marshal node results: %w", err)
	}

	query := `
		INSERT INTO chain_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		ON CONFLICT (idempotency_key) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		run.ID,
		run.ChainID,
		run.ExecutionID,
		run.Status,
		resultsJSON,
		run.Error,
		run.IdempotencyKey,
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chain run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetByID возвращает запуск по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChainRun, error) {
	query := `SELECT ` + runColumns + ` FROM chain_runs WHERE id = $1`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// Update перезаписывает статус и результаты запуска.
func (r *RunRepo) Update(ctx context.Context, run *domain.ChainRun) error {
	resultsJSON, err := json.Marshal(run.NodeResults)
	if err != nil {
		return fmt.Errorf("marshal node results: %w", err)
	}

	query := `
		UPDATE chain_runs
		SET status = $2, node_results = $3, error = $4,
		    started_at = $5, finished_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		resultsJSON,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update chain run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByChain возвращает запуски цепочки, новые первыми.
func (r *RunRepo) ListByChain(ctx context.Context, chainID uuid.UUID, limit int) ([]domain.ChainRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM chain_runs
		WHERE chain_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, chainID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs by chain: %w", err)
	}
	defer rows.Close()
	return r.collectRuns(rows)
}

// ListRecent возвращает последние запуски всех цепочек.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]domain.ChainRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM chain_runs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()
	return r.collectRuns(rows)
}

func (r *RunRepo) collectRuns(rows pgx.Rows) ([]domain.ChainRun, error) {
	var runs []domain.ChainRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *RunRepo) scanRun(row pgx.Row) (*domain.ChainRun, error) {
	var run domain.ChainRun
	var resultsJSON []byte
	var idempotencyKey *string
	err := row.Scan(
		&run.ID,
		&run.ChainID,
		&run.ExecutionID,
		&run.Status,
		&resultsJSON,
		&run.Error,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chain run: %w", err)
	}

	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &run.NodeResults); err != nil {
			return nil, fmt.Errorf("unmarshal node results: %w", err)
		}
	}
	return &run, nil
}
