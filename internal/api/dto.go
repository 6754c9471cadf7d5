package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/tracker"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(w domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		IsActive:    w.IsActive,
		CreatedAt:   w.CreatedAt,
	}
}

// CreateWorkflowVersionRequest — запрос на создание версии workflow.
type CreateWorkflowVersionRequest struct {
	// Graph — сохранённый граф редактора (формат serialize).
	Graph json.RawMessage `json:"graph"`

	// Prompt — уплощённый API-формат (необязателен).
	Prompt domain.PromptGraph `json:"prompt,omitempty"`
}

// WorkflowVersionResponse — ответ с версией workflow.
type WorkflowVersionResponse struct {
	WorkflowID uuid.UUID          `json:"workflow_id"`
	Version    int                `json:"version"`
	Graph      json.RawMessage    `json:"graph"`
	Prompt     domain.PromptGraph `json:"prompt,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// VersionFromDomain конвертирует domain.WorkflowVersion в WorkflowVersionResponse.
func VersionFromDomain(v domain.WorkflowVersion) WorkflowVersionResponse {
	return WorkflowVersionResponse{
		WorkflowID: v.WorkflowID,
		Version:    v.Version,
		Graph:      json.RawMessage(v.Graph),
		Prompt:     v.Prompt,
		CreatedAt:  v.CreatedAt,
	}
}

// Chain DTOs

// CreateChainRequest — запрос на создание цепочки.
type CreateChainRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Nodes       []domain.ChainNode `json:"nodes"`
	CronExpr    string             `json:"cron_expr,omitempty"`
	Timezone    string             `json:"timezone,omitempty"`
	Enabled     bool               `json:"enabled"`
}

// UpdateChainRequest — запрос на обновление цепочки.
type UpdateChainRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Nodes       *[]domain.ChainNode `json:"nodes,omitempty"`
	CronExpr    *string             `json:"cron_expr,omitempty"`
	Timezone    *string             `json:"timezone,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение расписания.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ChainResponse — ответ с цепочкой.
type ChainResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Nodes       []domain.ChainNode `json:"nodes"`
	CronExpr    string             `json:"cron_expr,omitempty"`
	Timezone    string             `json:"timezone,omitempty"`
	Enabled     bool               `json:"enabled"`
	NextDueAt   *time.Time         `json:"next_due_at,omitempty"`
	LastRunAt   *time.Time         `json:"last_run_at,omitempty"`
	LastRunID   *uuid.UUID         `json:"last_run_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ChainFromDomain конвертирует domain.Chain в ChainResponse.
func ChainFromDomain(c domain.Chain) ChainResponse {
	return ChainResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Nodes:       c.Nodes,
		CronExpr:    c.CronExpr,
		Timezone:    c.Timezone,
		Enabled:     c.Enabled,
		NextDueAt:   c.NextDueAt,
		LastRunAt:   c.LastRunAt,
		LastRunID:   c.LastRunID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// Run DTOs

// RunResponse — ответ с запуском цепочки.
type RunResponse struct {
	ID          uuid.UUID           `json:"id"`
	ChainID     uuid.UUID           `json:"chain_id"`
	ExecutionID string              `json:"execution_id"`
	Status      string              `json:"status"`
	NodeResults []domain.NodeResult `json:"node_results,omitempty"`
	Error       string              `json:"error,omitempty"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// RunFromDomain конвертирует domain.ChainRun в RunResponse.
func RunFromDomain(r domain.ChainRun) RunResponse {
	return RunResponse{
		ID:          r.ID,
		ChainID:     r.ChainID,
		ExecutionID: r.ExecutionID,
		Status:      string(r.Status),
		NodeResults: r.NodeResults,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		CreatedAt:   r.CreatedAt,
	}
}

// Execution DTOs

// ExecutionStateResponse — снимок состояния трекера исполнения.
type ExecutionStateResponse struct {
	State    string               `json:"state"`
	Progress tracker.Progress     `json:"progress"`
	Errors   []tracker.ErrorEntry `json:"errors,omitempty"`
}

// ExecutionMetricsResponse — накопленные метрики по типам узлов.
type ExecutionMetricsResponse struct {
	Metrics       map[string]tracker.TypeMetrics `json:"metrics"`
	RunsSucceeded int                            `json:"runs_succeeded"`
	RunsFailed    int                            `json:"runs_failed"`
}
