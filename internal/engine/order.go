package engine

import (
	"sort"

	"github.com/akimenko/graphflow/internal/domain"
)

// ExecutionOrder строит топологический порядок выполнения узлов графа
// (алгоритм Кана).
//
// Порядок детерминирован: при равной готовности узлы идут в порядке
// возрастания id. Возвращает ErrCyclicGraph, если граф содержит цикл
// по связям.
func ExecutionOrder(g *domain.Graph) ([]domain.NodeID, error) {
	nodes := g.Nodes()

	inDegree := make(map[domain.NodeID]int, len(nodes))
	dependents := make(map[domain.NodeID][]domain.NodeID, len(nodes))

	for _, node := range nodes {
		if _, ok := inDegree[node.ID]; !ok {
			inDegree[node.ID] = 0
		}
		for i := range node.Inputs {
			in := &node.Inputs[i]
			if in.Link == nil {
				continue
			}
			link := g.Link(*in.Link)
			if link == nil {
				continue
			}
			inDegree[node.ID]++
			dependents[link.OriginID] = append(dependents[link.OriginID], node.ID)
		}
	}

	// Очередь узлов без зависимостей
	queue := make([]domain.NodeID, 0, len(nodes))
	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	order := make([]domain.NodeID, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		released := make([]domain.NodeID, 0, len(dependents[id]))
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
		queue = append(queue, released...)
	}

	// Не все узлы обработаны — есть цикл
	if len(order) != len(nodes) {
		return nil, ErrCyclicGraph
	}

	return order, nil
}
