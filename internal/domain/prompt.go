package domain

// PromptNode — узел уплощённого (API) формата workflow.
//
// Уплощённый формат — то, что уходит бэкенду на выполнение:
// таблица id → {тип, входы}. Значение входа — либо литерал
// (число, строка), либо соединение [id-узла, индекс-выхода].
type PromptNode struct {
	// ClassType — имя типа узла.
	ClassType string `json:"class_type"`

	// Inputs — входы узла: имя → литерал или соединение.
	Inputs map[string]any `json:"inputs"`
}

// PromptGraph — уплощённый граф: id узла → узел.
type PromptGraph map[string]*PromptNode

// Clone возвращает глубокую копию графа (без копирования литералов-значений).
func (p PromptGraph) Clone() PromptGraph {
	out := make(PromptGraph, len(p))
	for id, node := range p {
		inputs := make(map[string]any, len(node.Inputs))
		for k, v := range node.Inputs {
			inputs[k] = v
		}
		out[id] = &PromptNode{ClassType: node.ClassType, Inputs: inputs}
	}
	return out
}

// ParseConnection разбирает значение входа как соединение [id, slot].
//
// После json.Unmarshal соединение приходит как []any{string, float64}.
// Возвращает ok=false для литеральных значений.
func ParseConnection(v any) (nodeID string, slot int, ok bool) {
	arr, isArr := v.([]any)
	if !isArr || len(arr) != 2 {
		return "", 0, false
	}

	id, isStr := arr[0].(string)
	if !isStr {
		return "", 0, false
	}

	switch n := arr[1].(type) {
	case float64:
		return id, int(n), true
	case int:
		return id, n, true
	default:
		return "", 0, false
	}
}

// Connection конструирует значение-соединение [id, slot].
func Connection(nodeID string, slot int) []any {
	return []any{nodeID, slot}
}
