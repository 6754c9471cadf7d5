package engine

import (
	"errors"
	"testing"

	"github.com/akimenko/graphflow/internal/domain"
)

func TestExecutionOrder_Chain(t *testing.T) {
	g := domain.NewGraph()
	a := testNode(1, "Loader", nil, []string{"IMAGE"})
	b := testNode(2, "Filter", []string{"IMAGE"}, []string{"IMAGE"})
	c := testNode(3, "Save", []string{"IMAGE"}, nil)
	mustAdd(t, g, c, b, a) // порядок добавления не важен
	mustConnect(t, g, 1, 0, 2, 0)
	mustConnect(t, g, 2, 0, 3, 0)

	order, err := ExecutionOrder(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.NodeID{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected node %d, got %d", i, want[i], order[i])
		}
	}
}

func TestExecutionOrder_Diamond(t *testing.T) {
	// 1 → 2 → 4
	// 1 → 3 → 4
	g := domain.NewGraph()
	mustAdd(t, g,
		testNode(1, "Loader", nil, []string{"IMAGE", "IMAGE"}),
		testNode(2, "Filter", []string{"IMAGE"}, []string{"IMAGE"}),
		testNode(3, "Filter", []string{"IMAGE"}, []string{"IMAGE"}),
		testNode(4, "Blend", []string{"IMAGE", "IMAGE"}, nil),
	)
	mustConnect(t, g, 1, 0, 2, 0)
	mustConnect(t, g, 1, 1, 3, 0)
	mustConnect(t, g, 2, 0, 4, 0)
	mustConnect(t, g, 3, 0, 4, 1)

	order, err := ExecutionOrder(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[domain.NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos[1] > pos[2] || pos[1] > pos[3] {
		t.Error("node 1 must precede nodes 2 and 3")
	}
	if pos[2] > pos[4] || pos[3] > pos[4] {
		t.Error("node 4 must follow nodes 2 and 3")
	}
	// Детерминированный tie-break: 2 раньше 3
	if pos[2] > pos[3] {
		t.Error("equal-readiness nodes must come in id order")
	}
}

func TestExecutionOrder_Cycle(t *testing.T) {
	g := domain.NewGraph()
	mustAdd(t, g,
		testNode(1, "Filter", []string{"IMAGE"}, []string{"IMAGE"}),
		testNode(2, "Filter", []string{"IMAGE"}, []string{"IMAGE"}),
	)
	mustConnect(t, g, 1, 0, 2, 0)
	mustConnect(t, g, 2, 0, 1, 0)

	_, err := ExecutionOrder(g)
	if !errors.Is(err, ErrCyclicGraph) {
		t.Fatalf("expected ErrCyclicGraph, got %v", err)
	}
}

func TestExecutionOrder_Empty(t *testing.T) {
	order, err := ExecutionOrder(domain.NewGraph())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}
