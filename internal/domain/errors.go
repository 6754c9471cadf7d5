package domain

import "errors"

// Ошибки структуры графа.
var (
	// ErrNodeNotFound — узел с таким id отсутствует в графе.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode — узел с таким id уже есть в графе.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDuplicateLink — связь с таким id уже есть в графе.
	ErrDuplicateLink = errors.New("duplicate link id")

	// ErrSlotOutOfRange — индекс слота вне диапазона.
	ErrSlotOutOfRange = errors.New("slot index out of range")

	// ErrTypeMismatch — типы слотов несовместимы.
	ErrTypeMismatch = errors.New("slot types are not compatible")

	// ErrDanglingLink — связь ссылается на несуществующий узел или слот.
	ErrDanglingLink = errors.New("link references missing node or slot")

	// ErrUnknownNodeType — тип узла не зарегистрирован в реестре.
	ErrUnknownNodeType = errors.New("unknown node type")
)

// GraphError — ошибка валидации графа с контекстом.
type GraphError struct {
	// NodeID — узел, на котором обнаружена проблема (0, если не применимо).
	NodeID NodeID

	// LinkID — связь, на которой обнаружена проблема (0, если не применимо).
	LinkID LinkID

	// Message — описание проблемы.
	Message string

	// Err — базовая ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *GraphError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *GraphError) Unwrap() error {
	return e.Err
}
