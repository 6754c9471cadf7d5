package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		CORS(),
	)

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.DeleteWorkflow)))

	// Workflow Versions
	mux.Handle("POST /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.CreateWorkflowVersion)))
	mux.Handle("GET /api/v1/workflows/{id}/versions/latest", chain(http.HandlerFunc(h.GetLatestWorkflowVersion)))
	mux.Handle("GET /api/v1/workflows/{id}/versions/{version}", chain(http.HandlerFunc(h.GetWorkflowVersion)))

	// Chains
	mux.Handle("GET /api/v1/chains", chain(http.HandlerFunc(h.ListChains)))
	mux.Handle("POST /api/v1/chains", chain(http.HandlerFunc(h.CreateChain)))
	mux.Handle("GET /api/v1/chains/{id}", chain(http.HandlerFunc(h.GetChain)))
	mux.Handle("PUT /api/v1/chains/{id}", chain(http.HandlerFunc(h.UpdateChain)))
	mux.Handle("DELETE /api/v1/chains/{id}", chain(http.HandlerFunc(h.DeleteChain)))
	mux.Handle("PUT /api/v1/chains/{id}/enabled", chain(http.HandlerFunc(h.SetChainEnabled)))
	mux.Handle("POST /api/v1/chains/{id}/execute", chain(http.HandlerFunc(h.ExecuteChain)))
	mux.Handle("GET /api/v1/chains/{id}/runs", chain(http.HandlerFunc(h.ListChainRuns)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// Execution
	mux.Handle("GET /api/v1/execution", chain(http.HandlerFunc(h.GetExecutionState)))
	mux.Handle("GET /api/v1/execution/progress", chain(http.HandlerFunc(h.GetChainProgress)))
	mux.Handle("GET /api/v1/execution/nodes", chain(http.HandlerFunc(h.ListExecutionNodes)))
	mux.Handle("GET /api/v1/execution/nodes/{id}", chain(http.HandlerFunc(h.GetExecutionNode)))
	mux.Handle("GET /api/v1/execution/metrics", chain(http.HandlerFunc(h.GetExecutionMetrics)))
	mux.Handle("POST /api/v1/execution/interrupt", chain(http.HandlerFunc(h.InterruptExecution)))

	// Events
	mux.Handle("GET /api/v1/events/history", chain(http.HandlerFunc(h.GetEventHistory)))
	mux.Handle("GET /api/v1/ws", http.HandlerFunc(h.ServeWS))
}
