package chain

import "errors"

// Ошибки исполнителя цепочек.
var (
	// ErrEmptyChain — в цепочке нет узлов.
	ErrEmptyChain = errors.New("chain has no workflow nodes")

	// ErrInterrupted — выполнение прервано пользователем.
	ErrInterrupted = errors.New("chain execution interrupted")

	// ErrNodeFailed — узел цепочки завершился неуспешно.
	ErrNodeFailed = errors.New("chain node failed")

	// ErrExecutorBusy — исполнитель уже выполняет цепочку.
	ErrExecutorBusy = errors.New("executor is already running a chain")
)
