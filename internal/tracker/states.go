package tracker

// State — общее состояние исполнения.
//
// Переходы: Idle → Preparing → Running ⇄ Paused → {Completed | Error | Cancelled}.
// Cancelled достижимо из Preparing, Running и Paused.
type State int

const (
	// StateIdle — исполнение не начато.
	StateIdle State = iota

	// StatePreparing — порядок исполнения снят, узлы инициализируются.
	StatePreparing

	// StateRunning — исполнение идёт.
	StateRunning

	// StatePaused — исполнение приостановлено.
	StatePaused

	// StateCompleted — исполнение завершено (терминальное).
	StateCompleted

	// StateError — исполнение прервано ошибкой (терминальное).
	StateError

	// StateCancelled — исполнение отменено (терминальное).
	StateCancelled
)

// String возвращает строковое представление состояния.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal возвращает true для терминальных состояний.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}

// NodeState — состояние одного узла в рамках исполнения.
//
// Переходы: Pending → Queued (необязательно) → Executing →
// {Completed | Skipped | Error | Cancelled}.
type NodeState int

const (
	// NodePending — узел ждёт своей очереди.
	NodePending NodeState = iota

	// NodeQueued — узел поставлен в очередь бэкенда.
	NodeQueued

	// NodeExecuting — узел выполняется.
	NodeExecuting

	// NodeCompleted — узел выполнен.
	NodeCompleted

	// NodeSkipped — узел пропущен (заглушён или обойдён, работы нет).
	NodeSkipped

	// NodeError — узел упал.
	NodeError

	// NodeCancelled — узел отменён вместе с исполнением.
	NodeCancelled
)

// String возвращает строковое представление состояния узла.
func (s NodeState) String() string {
	switch s {
	case NodePending:
		return "pending"
	case NodeQueued:
		return "queued"
	case NodeExecuting:
		return "executing"
	case NodeCompleted:
		return "completed"
	case NodeSkipped:
		return "skipped"
	case NodeError:
		return "error"
	case NodeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsFinished возвращает true, если узел больше не будет работать.
func (s NodeState) IsFinished() bool {
	return s == NodeCompleted || s == NodeSkipped || s == NodeError || s == NodeCancelled
}
