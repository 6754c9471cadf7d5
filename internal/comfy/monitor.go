package comfy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// readPollInterval — шаг чтения сокета между проверками контекста.
	readPollInterval = 5 * time.Second

	// DefaultExecutionTimeout — таймаут ожидания одного prompt.
	DefaultExecutionTimeout = 10 * time.Minute
)

// Ошибки наблюдения за исполнением.
var (
	// ErrExecutionFailed — бэкенд сообщил об ошибке исполнения prompt.
	ErrExecutionFailed = errors.New("backend execution failed")

	// ErrMonitorTimeout — исполнение не завершилось за отведённое время.
	ErrMonitorTimeout = errors.New("execution monitoring timed out")
)

// Hooks — необязательные колбэки наблюдения; вызываются синхронно
// из цикла чтения сокета.
type Hooks struct {
	// NodeStarted — бэкенд начал выполнять узел.
	NodeStarted func(nodeID string)

	// NodeCompleted — узел выполнен, передаются его outputs.
	NodeCompleted func(nodeID string, output NodeOutput)

	// Progress — прогресс выполнения текущего узла.
	Progress func(nodeID string, value, max int)
}

// Monitor наблюдает за исполнением prompt через WebSocket бэкенда.
type Monitor struct {
	client *Client
	logger *slog.Logger
}

// NewMonitor создаёт наблюдатель для клиента бэкенда.
func NewMonitor(client *Client, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{client: client, logger: logger}
}

// WaitOutputs ждёт завершения prompt и возвращает файлы выходных узлов.
//
// Возвращает, когда все выходные узлы отдали executed-сообщения либо
// бэкенд просигналил завершение prompt. Для полностью кэшированных
// исполнений недостающие outputs добираются из истории. Общий таймаут
// задаётся контекстом вызывающего.
func (m *Monitor) WaitOutputs(ctx context.Context, promptID string, outputIDs []string, hooks Hooks) ([]Output, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.client.WebSocketURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial backend websocket: %w", err)
	}
	defer conn.Close()

	wanted := make(map[string]bool, len(outputIDs))
	for _, id := range outputIDs {
		wanted[id] = true
	}

	var outputs []Output
	completed := make(map[string]bool)
	cached := false

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrMonitorTimeout
			}
			return nil, ctx.Err()
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readPollInterval))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Таймаут чтения — штатная пауза между сообщениями
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return nil, fmt.Errorf("read backend message: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			m.logger.Warn("undecodable backend message", "error", err)
			continue
		}

		done, err := m.handle(&msg, promptID, wanted, completed, &outputs, &cached, hooks)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	// Кэшированное исполнение могло не прислать executed по всем
	// выходным узлам — добираем из истории.
	if cached && len(outputs) < len(outputIDs) {
		fromHistory, err := m.historyOutputs(ctx, promptID, outputIDs, completed)
		if err != nil {
			m.logger.Warn("history lookup failed", "prompt_id", promptID, "error", err)
		} else {
			outputs = append(outputs, fromHistory...)
		}
	}

	return outputs, nil
}

// handle обрабатывает одно сообщение; done=true — исполнение завершено.
func (m *Monitor) handle(
	msg *wsMessage,
	promptID string,
	wanted, completed map[string]bool,
	outputs *[]Output,
	cached *bool,
	hooks Hooks,
) (bool, error) {
	switch msg.Type {
	case MsgExecutionError:
		var data executionErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.PromptID != promptID {
			return false, nil
		}
		m.logger.Error("backend execution error",
			"prompt_id", promptID, "node", data.NodeID, "error", data.ExceptionMessage)
		return false, fmt.Errorf("%w: node %s (%s): %s",
			ErrExecutionFailed, data.NodeID, data.NodeType, data.ExceptionMessage)

	case MsgExecuted:
		var data executedData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.PromptID != promptID {
			return false, nil
		}
		if hooks.NodeCompleted != nil {
			hooks.NodeCompleted(data.Node, data.Output)
		}
		if !wanted[data.Node] {
			return false, nil
		}
		if file, ok := data.Output.FirstFile(); ok {
			*outputs = append(*outputs, Output{NodeID: data.Node, File: file})
		}
		completed[data.Node] = true
		return len(completed) >= len(wanted), nil

	case MsgExecutionCached:
		var data promptIDData
		if err := json.Unmarshal(msg.Data, &data); err == nil && data.PromptID == promptID {
			// executed-сообщения ещё могут прийти; ждём executing null
			*cached = true
		}
		return false, nil

	case MsgExecutionSuccess:
		var data promptIDData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.PromptID != promptID {
			return false, nil
		}
		return len(completed) >= len(wanted), nil

	case MsgExecuting:
		var data executingData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.PromptID != promptID {
			return false, nil
		}
		if data.Node == nil {
			// node == nil — prompt завершён; для кэшированного
			// исполнения всех executed может не быть
			return *cached || len(completed) >= len(wanted), nil
		}
		if hooks.NodeStarted != nil {
			hooks.NodeStarted(*data.Node)
		}
		return false, nil

	case MsgProgress:
		var data progressData
		if err := json.Unmarshal(msg.Data, &data); err == nil && hooks.Progress != nil {
			hooks.Progress(data.Node, data.Value, data.Max)
		}
		return false, nil
	}

	return false, nil
}

// historyOutputs добирает outputs выходных узлов из истории prompt.
func (m *Monitor) historyOutputs(ctx context.Context, promptID string, outputIDs []string, completed map[string]bool) ([]Output, error) {
	all, err := m.client.History(ctx, promptID)
	if err != nil {
		return nil, err
	}

	var out []Output
	for _, id := range outputIDs {
		if completed[id] {
			continue
		}
		nodeOut, ok := all[id]
		if !ok {
			continue
		}
		if file, ok := nodeOut.FirstFile(); ok {
			out = append(out, Output{NodeID: id, File: file})
		}
	}
	return out, nil
}
