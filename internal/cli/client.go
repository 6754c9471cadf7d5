package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// WorkflowVersionResponse — версия workflow из API.
type WorkflowVersionResponse struct {
	WorkflowID string          `json:"workflow_id"`
	Version    int             `json:"version"`
	Graph      json.RawMessage `json:"graph"`
	Prompt     json.RawMessage `json:"prompt,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// ChainResponse — цепочка из API.
type ChainResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Nodes       []json.RawMessage `json:"nodes"`
	CronExpr    string            `json:"cron_expr,omitempty"`
	Timezone    string            `json:"timezone,omitempty"`
	Enabled     bool              `json:"enabled"`
	NextDueAt   string            `json:"next_due_at,omitempty"`
	LastRunAt   string            `json:"last_run_at,omitempty"`
	LastRunID   string            `json:"last_run_id,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// RunResponse — запуск цепочки из API.
type RunResponse struct {
	ID          string            `json:"id"`
	ChainID     string            `json:"chain_id"`
	ExecutionID string            `json:"execution_id"`
	Status      string            `json:"status"`
	NodeResults []json.RawMessage `json:"node_results,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   string            `json:"started_at,omitempty"`
	FinishedAt  string            `json:"finished_at,omitempty"`
	CreatedAt   string            `json:"created_at"`
}

// ExecutionStateResponse — снимок состояния трекера из API.
type ExecutionStateResponse struct {
	State    string          `json:"state"`
	Progress ProgressInfo    `json:"progress"`
	Errors   json.RawMessage `json:"errors,omitempty"`
}

// ProgressInfo — прогресс исполнения из API.
type ProgressInfo struct {
	Done               int     `json:"done"`
	Total              int     `json:"total"`
	Percent            float64 `json:"percent"`
	Elapsed            int64   `json:"elapsed,omitempty"`
	EstimatedRemaining int64   `json:"estimated_remaining,omitempty"`
}

// ChainProgressResponse — прогресс цепочки из API.
type ChainProgressResponse struct {
	ChainID     string             `json:"chain_id"`
	ChainName   string             `json:"chain_name"`
	ExecutionID string             `json:"execution_id"`
	Nodes       []ChainNodeProgress `json:"nodes"`
	Finished    bool               `json:"finished"`
	Success     bool               `json:"success"`
	StartedAt   string             `json:"started_at"`
}

// ChainNodeProgress — статус узла цепочки из API.
type ChainNodeProgress struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// NodeInfoResponse — учёт узла исполнения из API.
type NodeInfoResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	State      string `json:"state"`
	StartedAt  string `json:"started_at,omitzero"`
	FinishedAt string `json:"finished_at,omitzero"`
	Duration   int64  `json:"duration,omitempty"`
	Error      string `json:"error,omitempty"`
}

// MetricsResponse — метрики исполнения из API.
type MetricsResponse struct {
	Metrics       map[string]TypeMetricsInfo `json:"metrics"`
	RunsSucceeded int                        `json:"runs_succeeded"`
	RunsFailed    int                        `json:"runs_failed"`
}

// TypeMetricsInfo — метрики одного типа узлов из API.
type TypeMetricsInfo struct {
	Count  int   `json:"count"`
	Errors int   `json:"errors"`
	Total  int64 `json:"total"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
}

// --- Request types ---

// UpdateWorkflowRequest — обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateChainRequest — обновление цепочки.
type UpdateChainRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	CronExpr    *string          `json:"cron_expr,omitempty"`
	Timezone    *string          `json:"timezone,omitempty"`
	Nodes       *json.RawMessage `json:"nodes,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для graphflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", nil, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт новый workflow.
func (c *Client) CreateWorkflow(name, description string) (*WorkflowResponse, error) {
	body := map[string]string{"name": name, "description": description}
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", body, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// UpdateWorkflow обновляет workflow.
func (c *Client) UpdateWorkflow(id string, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+id, req, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// PushVersion создаёт новую версию workflow из графа.
func (c *Client) PushVersion(workflowID string, graph json.RawMessage) (*WorkflowVersionResponse, error) {
	body := map[string]json.RawMessage{"graph": graph}
	var version WorkflowVersionResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/versions", body, &version)
	return &version, err
}

// PullLatestVersion возвращает последнюю версию workflow.
func (c *Client) PullLatestVersion(workflowID string) (*WorkflowVersionResponse, error) {
	var version WorkflowVersionResponse
	err := c.get("/api/v1/workflows/"+workflowID+"/versions/latest", &version)
	return &version, err
}

// --- Chains ---

// ListChains возвращает все цепочки.
func (c *Client) ListChains() ([]ChainResponse, error) {
	var chains []ChainResponse
	err := c.list("/api/v1/chains", nil, &chains)
	return chains, err
}

// CreateChain создаёт цепочку из JSON-описания.
func (c *Client) CreateChain(body json.RawMessage) (*ChainResponse, error) {
	var chain ChainResponse
	err := c.doData(http.MethodPost, "/api/v1/chains", body, &chain)
	return &chain, err
}

// GetChain возвращает цепочку по ID.
func (c *Client) GetChain(id string) (*ChainResponse, error) {
	var chain ChainResponse
	err := c.get("/api/v1/chains/"+id, &chain)
	return &chain, err
}

// UpdateChain обновляет цепочку.
func (c *Client) UpdateChain(id string, req UpdateChainRequest) (*ChainResponse, error) {
	var chain ChainResponse
	err := c.put("/api/v1/chains/"+id, req, &chain)
	return &chain, err
}

// DeleteChain удаляет цепочку.
func (c *Client) DeleteChain(id string) error {
	return c.delete("/api/v1/chains/" + id)
}

// SetChainEnabled включает или выключает расписание цепочки.
func (c *Client) SetChainEnabled(id string, enabled bool) (*ChainResponse, error) {
	var chain ChainResponse
	body := map[string]bool{"enabled": enabled}
	err := c.put("/api/v1/chains/"+id+"/enabled", body, &chain)
	return &chain, err
}

// ExecuteChain запускает цепочку вручную.
func (c *Client) ExecuteChain(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/chains/"+id+"/execute", nil, &run)
	return &run, err
}

// ListChainRuns возвращает запуски цепочки.
func (c *Client) ListChainRuns(chainID string, limit int) ([]RunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/chains/"+chainID+"/runs", params, &runs)
	return runs, err
}

// --- Runs ---

// ListRuns возвращает последние запуски всех цепочек.
func (c *Client) ListRuns(limit int) ([]RunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// GetRun возвращает запуск по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// --- Execution ---

// GetExecutionState возвращает состояние трекера исполнения.
func (c *Client) GetExecutionState() (*ExecutionStateResponse, error) {
	var state ExecutionStateResponse
	err := c.get("/api/v1/execution", &state)
	return &state, err
}

// GetChainProgress возвращает прогресс текущей цепочки.
func (c *Client) GetChainProgress() (*ChainProgressResponse, error) {
	var progress ChainProgressResponse
	err := c.get("/api/v1/execution/progress", &progress)
	return &progress, err
}

// ListExecutionNodes возвращает учёт узлов текущего исполнения.
func (c *Client) ListExecutionNodes() ([]NodeInfoResponse, error) {
	var nodes []NodeInfoResponse
	err := c.list("/api/v1/execution/nodes", nil, &nodes)
	return nodes, err
}

// GetExecutionMetrics возвращает накопленные метрики.
func (c *Client) GetExecutionMetrics() (*MetricsResponse, error) {
	var metrics MetricsResponse
	err := c.get("/api/v1/execution/metrics", &metrics)
	return &metrics, err
}

// InterruptExecution прерывает выполняющуюся цепочку.
func (c *Client) InterruptExecution() error {
	return c.doData(http.MethodPost, "/api/v1/execution/interrupt", nil, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
