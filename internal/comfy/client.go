package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akimenko/graphflow/internal/domain"
)

const (
	// defaultClientID — клиентский id серверного исполнителя;
	// отличает его события от событий интерактивных клиентов.
	defaultClientID = "graphflow-chain-executor-v1"

	defaultBaseURL     = "http://127.0.0.1:8188"
	defaultHTTPTimeout = 30 * time.Second
)

// Ошибки клиента бэкенда.
var (
	// ErrSubmitFailed — бэкенд отклонил prompt.
	ErrSubmitFailed = errors.New("prompt submission failed")

	// ErrHistoryNotFound — в истории нет записи о prompt.
	ErrHistoryNotFound = errors.New("prompt not found in history")
)

// Client — HTTP-клиент генерационного бэкенда.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient создаёт клиент. Пустой baseURL берётся из переменной
// окружения COMFY_URL, иначе используется локальный бэкенд.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("COMFY_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: defaultClientID,
		http:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:   logger,
	}
}

// BaseURL возвращает адрес бэкенда.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WebSocketURL возвращает адрес WebSocket-endpoint'а бэкенда
// с клиентским id исполнителя.
func (c *Client) WebSocketURL() string {
	ws := strings.Replace(c.baseURL, "http://", "ws://", 1)
	ws = strings.Replace(ws, "https://", "wss://", 1)
	return ws + "/ws?clientId=" + c.clientID
}

// SubmitPrompt отправляет уплощённый граф на выполнение.
// Возвращает prompt_id, присвоенный бэкендом.
func (c *Client) SubmitPrompt(ctx context.Context, prompt domain.PromptGraph) (string, error) {
	payload := map[string]any{
		"prompt":    prompt,
		"client_id": c.clientID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrSubmitFailed, resp.StatusCode, string(text))
	}

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("%w: empty prompt_id", ErrSubmitFailed)
	}

	c.logger.Debug("prompt submitted", "prompt_id", out.PromptID)
	return out.PromptID, nil
}

// History возвращает outputs узлов из истории исполнения prompt.
// Используется для полностью кэшированных исполнений, по которым
// executed-сообщения могли не прийти.
func (c *Client) History(ctx context.Context, promptID string) (map[string]NodeOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+promptID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: HTTP %d", resp.StatusCode)
	}

	var data map[string]struct {
		Outputs map[string]NodeOutput `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	entry, ok := data[promptID]
	if !ok {
		return nil, ErrHistoryNotFound
	}
	return entry.Outputs, nil
}

// Interrupt прерывает текущее исполнение бэкенда.
func (c *Client) Interrupt(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interrupt", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("interrupt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("interrupt: HTTP %d", resp.StatusCode)
	}
	return nil
}

// DetectOutputNodes находит выходные узлы уплощённого графа:
// узлы с входом filename_prefix, у которых save_output не выключен.
func DetectOutputNodes(prompt domain.PromptGraph) []string {
	var out []string
	for id, node := range prompt {
		if _, ok := node.Inputs["filename_prefix"]; !ok {
			continue
		}
		if save, ok := node.Inputs["save_output"].(bool); ok && !save {
			continue
		}
		out = append(out, id)
	}
	return out
}
