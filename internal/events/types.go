package events

import "time"

// Type — тип события шины.
type Type string

// Таксономия событий движка.
const (
	// События узлов
	NodeAdded       Type = "node.added"
	NodeRemoved     Type = "node.removed"
	NodeModeChanged Type = "node.mode_changed"

	// События связей
	LinkCreated Type = "link.created"
	LinkRemoved Type = "link.removed"

	// События виджетов
	WidgetChanged Type = "widget.changed"

	// События исполнения
	ExecutionStarted       Type = "execution.started"
	ExecutionNodeStarted   Type = "execution.node_started"
	ExecutionNodeCompleted Type = "execution.node_completed"
	ExecutionNodeSkipped   Type = "execution.node_skipped"
	ExecutionNodeError     Type = "execution.node_error"
	ExecutionProgress      Type = "execution.progress"
	ExecutionCompleted     Type = "execution.completed"
	ExecutionCancelled     Type = "execution.cancelled"
	ExecutionPaused        Type = "execution.paused"
	ExecutionResumed       Type = "execution.resumed"

	// События валидации графа
	ValidationFailed Type = "validation.failed"

	// События канваса (для внешних наблюдателей; ядро их только ретранслирует)
	CanvasDirty Type = "canvas.dirty"

	// События workflow
	WorkflowLoaded Type = "workflow.loaded"
	WorkflowSaved  Type = "workflow.saved"

	// HandlerError — синтетическое событие об упавшем подписчике.
	// Никогда не переизлучается рекурсивно.
	HandlerError Type = "error.handler"
)

// Event — одно событие шины.
type Event struct {
	// Type — тип события.
	Type Type `json:"type"`

	// Payload — полезная нагрузка; структура зависит от типа.
	Payload any `json:"payload,omitempty"`

	// Source — метка источника (выставляется scoped-фасадом).
	Source string `json:"source,omitempty"`

	// Timestamp — момент излучения.
	Timestamp time.Time `json:"timestamp"`
}

// HandlerErrorPayload — нагрузка события HandlerError.
type HandlerErrorPayload struct {
	// EventType — тип события, на котором упал подписчик.
	EventType Type `json:"event_type"`

	// Subscription — id упавшей подписки.
	Subscription SubscriptionID `json:"subscription"`

	// Panic — значение паники, приведённое к строке.
	Panic string `json:"panic"`
}
