package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akimenko/graphflow/internal/chain"
	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/scheduler"
)

// ListChains возвращает список всех цепочек.
// GET /api/v1/chains
func (h *Handler) ListChains(w http.ResponseWriter, r *http.Request) {
	chains, err := h.chainRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ChainResponse, len(chains))
	for i, c := range chains {
		result[i] = ChainFromDomain(c)
	}

	List(w, result, len(result))
}

// CreateChain создаёт новую цепочку.
// POST /api/v1/chains
func (h *Handler) CreateChain(w http.ResponseWriter, r *http.Request) {
	var req CreateChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}
	if len(req.Nodes) == 0 {
		BadRequest(w, "chain must contain at least one node")
		return
	}

	now := time.Now()
	c := &domain.Chain{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		CronExpr:    req.CronExpr,
		Timezone:    req.Timezone,
		Enabled:     req.Enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if c.CronExpr != "" {
		if err := scheduler.ValidateCronExpr(c.CronExpr); err != nil {
			BadRequest(w, err.Error())
			return
		}
		nextDue, err := scheduler.CalculateInitialNextDue(c)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		c.NextDueAt = &nextDue
	}

	if err := h.chainRepo.Create(r.Context(), c); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	Created(w, ChainFromDomain(*c))
}

// GetChain возвращает цепочку по ID.
// GET /api/v1/chains/{id}
func (h *Handler) GetChain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	c, err := h.chainRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "chain not found") {
		return
	}

	Success(w, ChainFromDomain(*c))
}

// UpdateChain обновляет цепочку.
// PUT /api/v1/chains/{id}
func (h *Handler) UpdateChain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	var req UpdateChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	c, err := h.chainRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "chain not found") {
		return
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Nodes != nil {
		c.Nodes = *req.Nodes
	}
	if req.Timezone != nil {
		c.Timezone = *req.Timezone
	}
	if req.CronExpr != nil {
		c.CronExpr = *req.CronExpr
	}

	// При смене расписания пересчитываем следующее время запуска
	if req.CronExpr != nil || req.Timezone != nil {
		if c.CronExpr == "" {
			c.NextDueAt = nil
		} else {
			if err := scheduler.ValidateCronExpr(c.CronExpr); err != nil {
				BadRequest(w, err.Error())
				return
			}
			nextDue, err := scheduler.CalculateInitialNextDue(c)
			if err != nil {
				BadRequest(w, err.Error())
				return
			}
			c.NextDueAt = &nextDue
		}
	}

	c.UpdatedAt = time.Now()

	if err := h.chainRepo.Update(r.Context(), c); err != nil {
		HandleRepoError(w, h.logger, err, "chain not found")
		return
	}

	Success(w, ChainFromDomain(*c))
}

// DeleteChain удаляет цепочку.
// DELETE /api/v1/chains/{id}
func (h *Handler) DeleteChain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	if err := h.chainRepo.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "chain not found")
		return
	}

	NoContent(w)
}

// SetChainEnabled включает или выключает расписание цепочки.
// PUT /api/v1/chains/{id}/enabled
func (h *Handler) SetChainEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	var req SetEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	c, err := h.chainRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "chain not found") {
		return
	}

	if req.Enabled && c.CronExpr == "" {
		InvalidState(w, "chain has no cron expression")
		return
	}

	c.Enabled = req.Enabled
	if req.Enabled {
		nextDue, err := scheduler.CalculateInitialNextDue(c)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		c.NextDueAt = &nextDue
	}
	c.UpdatedAt = time.Now()

	if err := h.chainRepo.Update(r.Context(), c); err != nil {
		HandleRepoError(w, h.logger, err, "chain not found")
		return
	}

	Success(w, ChainFromDomain(*c))
}

// ExecuteChain запускает цепочку вручную.
// POST /api/v1/chains/{id}/execute
func (h *Handler) ExecuteChain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	c, err := h.chainRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "chain not found") {
		return
	}

	if h.executor.Running() {
		Conflict(w, "another chain is already executing")
		return
	}

	run := &domain.ChainRun{
		ID:          uuid.New(),
		ChainID:     c.ID,
		ExecutionID: chain.NewExecutionID(),
		Status:      domain.RunStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	if err := h.launcher.Launch(r.Context(), c, run); err != nil {
		Conflict(w, err.Error())
		return
	}

	JSON(w, http.StatusAccepted, DataResponse{Data: RunFromDomain(*run)})
}

// ListChainRuns возвращает запуски цепочки, новые первыми.
// GET /api/v1/chains/{id}/runs
func (h *Handler) ListChainRuns(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid chain id")
		return
	}

	runs, err := h.runRepo.ListByChain(r.Context(), id, listLimit(r))
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}
