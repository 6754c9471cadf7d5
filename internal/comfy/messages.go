package comfy

import "encoding/json"

// Типы сообщений WebSocket бэкенда.
const (
	// MsgExecuting — бэкенд начал выполнять узел; node == nil
	// означает завершение всего prompt.
	MsgExecuting = "executing"

	// MsgExecuted — узел выполнен, сообщение несёт его outputs.
	MsgExecuted = "executed"

	// MsgExecutionError — исполнение prompt упало.
	MsgExecutionError = "execution_error"

	// MsgExecutionCached — все узлы prompt взяты из кэша;
	// сигнала execution_success после этого не будет.
	MsgExecutionCached = "execution_cached"

	// MsgExecutionSuccess — prompt выполнен успешно.
	MsgExecutionSuccess = "execution_success"

	// MsgProgress — прогресс выполнения текущего узла.
	MsgProgress = "progress"
)

// wsMessage — конверт сообщения WebSocket.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// executingData — нагрузка сообщения executing.
type executingData struct {
	// Node — id выполняющегося узла; nil — исполнение завершено.
	Node     *string `json:"node"`
	PromptID string  `json:"prompt_id"`
}

// executedData — нагрузка сообщения executed.
type executedData struct {
	Node     string     `json:"node"`
	PromptID string     `json:"prompt_id"`
	Output   NodeOutput `json:"output"`
}

// executionErrorData — нагрузка сообщения execution_error.
type executionErrorData struct {
	PromptID         string `json:"prompt_id"`
	NodeID           string `json:"node_id"`
	NodeType         string `json:"node_type"`
	ExceptionMessage string `json:"exception_message"`
	ExceptionType    string `json:"exception_type"`
}

// promptIDData — нагрузка сообщений, несущих только prompt_id.
type promptIDData struct {
	PromptID string `json:"prompt_id"`
}

// progressData — нагрузка сообщения progress.
type progressData struct {
	Value    int    `json:"value"`
	Max      int    `json:"max"`
	PromptID string `json:"prompt_id"`
	Node     string `json:"node"`
}

// FileInfo — файл, произведённый узлом.
type FileInfo struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// NodeOutput — outputs одного узла.
//
// Видео-узлы кладут файлы в gifs, остальные — в images.
type NodeOutput struct {
	Images []FileInfo `json:"images"`
	Gifs   []FileInfo `json:"gifs"`
}

// FirstFile возвращает первый произведённый файл: сначала gifs
// (видео), затем images. ok=false, если файлов нет.
func (o *NodeOutput) FirstFile() (FileInfo, bool) {
	if len(o.Gifs) > 0 {
		return o.Gifs[0], true
	}
	if len(o.Images) > 0 {
		return o.Images[0], true
	}
	return FileInfo{}, false
}

// Output — файл, снятый с выходного узла во время исполнения.
type Output struct {
	// NodeID — id узла уплощённого графа, породившего файл.
	NodeID string `json:"node_id"`

	// File — описание файла.
	File FileInfo `json:"file"`
}
