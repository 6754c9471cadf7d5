package domain

import (
	"testing"
)

func newTestNode(id NodeID, nodeType string, inputs, outputs int) *Node {
	n := &Node{ID: id, Type: nodeType, Mode: ModeAlways}
	for i := 0; i < inputs; i++ {
		n.Inputs = append(n.Inputs, InputSlot{Name: "in", Type: "IMAGE"})
	}
	for i := 0; i < outputs; i++ {
		n.Outputs = append(n.Outputs, OutputSlot{Name: "out", Type: "IMAGE"})
	}
	return n
}

func TestGraph_AddNodeDuplicate(t *testing.T) {
	g := NewGraph()

	if err := g.AddNode(newTestNode(1, "A", 0, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.AddNode(newTestNode(1, "B", 0, 1)); err != ErrDuplicateNode {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestGraph_Connect(t *testing.T) {
	g := NewGraph()
	g.AddNode(newTestNode(1, "A", 0, 1))
	g.AddNode(newTestNode(2, "B", 1, 0))

	link, err := g.Connect(1, 0, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Оба слота должны ссылаться на связь
	out := g.Node(1).Output(0)
	if len(out.Links) != 1 || out.Links[0] != link.ID {
		t.Errorf("origin output does not reference link: %v", out.Links)
	}
	in := g.Node(2).Input(0)
	if in.Link == nil || *in.Link != link.ID {
		t.Error("target input does not reference link")
	}
}

func TestGraph_ConnectReplacesExistingIncomingLink(t *testing.T) {
	g := NewGraph()
	g.AddNode(newTestNode(1, "A", 0, 1))
	g.AddNode(newTestNode(2, "B", 0, 1))
	g.AddNode(newTestNode(3, "C", 1, 0))

	first, err := g.Connect(1, 0, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := g.Connect(2, 0, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Вход питается только одной связью: первая должна быть разорвана
	if g.Link(first.ID) != nil {
		t.Error("first link should be removed after reconnect")
	}
	if len(g.Node(1).Output(0).Links) != 0 {
		t.Error("old origin output should not reference removed link")
	}
	in := g.Node(3).Input(0)
	if in.Link == nil || *in.Link != second.ID {
		t.Error("input should reference the new link")
	}
}

func TestGraph_ConnectTypeMismatch(t *testing.T) {
	g := NewGraph()
	a := newTestNode(1, "A", 0, 1)
	a.Outputs[0].Type = "LATENT"
	g.AddNode(a)
	g.AddNode(newTestNode(2, "B", 1, 0))

	if _, err := g.Connect(1, 0, 2, 0); err != ErrTypeMismatch {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestGraph_ConnectWildcardCompatible(t *testing.T) {
	g := NewGraph()
	a := newTestNode(1, "Reroute", 0, 1)
	a.Outputs[0].Type = WildcardType
	g.AddNode(a)
	g.AddNode(newTestNode(2, "B", 1, 0))

	if _, err := g.Connect(1, 0, 2, 0); err != nil {
		t.Errorf("wildcard output should connect to typed input: %v", err)
	}
}

func TestGraph_ConnectSlotOutOfRange(t *testing.T) {
	g := NewGraph()
	g.AddNode(newTestNode(1, "A", 0, 1))
	g.AddNode(newTestNode(2, "B", 1, 0))

	if _, err := g.Connect(1, 5, 2, 0); err != ErrSlotOutOfRange {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
	if _, err := g.Connect(1, 0, 2, 5); err != ErrSlotOutOfRange {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
	if _, err := g.Connect(9, 0, 2, 0); err != ErrNodeNotFound {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestGraph_RemoveNodeCleansLinks(t *testing.T) {
	g := NewGraph()
	g.AddNode(newTestNode(1, "A", 0, 1))
	g.AddNode(newTestNode(2, "B", 1, 1))
	g.AddNode(newTestNode(3, "C", 1, 0))
	g.Connect(1, 0, 2, 0)
	g.Connect(2, 0, 3, 0)

	g.RemoveNode(2)

	if g.Node(2) != nil {
		t.Error("node should be removed")
	}
	if g.Size() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.Size())
	}
	if len(g.Links()) != 0 {
		t.Errorf("all links of removed node should be gone, got %d", len(g.Links()))
	}
	if g.Node(3).Input(0).Link != nil {
		t.Error("downstream input should be disconnected")
	}
	if len(g.Node(1).Output(0).Links) != 0 {
		t.Error("upstream output should be disconnected")
	}
}

func TestGraph_NodesPreserveInsertionOrder(t *testing.T) {
	g := NewGraph()
	for _, id := range []NodeID{5, 1, 3} {
		g.AddNode(newTestNode(id, "A", 0, 1))
	}

	nodes := g.Nodes()
	want := []NodeID{5, 1, 3}
	for i, n := range nodes {
		if n.ID != want[i] {
			t.Fatalf("expected order %v, got node %d at position %d", want, n.ID, i)
		}
	}
}

func TestNode_DisplayName(t *testing.T) {
	n := newTestNode(1, "KSampler", 0, 0)
	if got := n.DisplayName(); got != "KSampler" {
		t.Errorf("expected type name, got %q", got)
	}

	n.Title = "Мой сэмплер"
	if got := n.DisplayName(); got != "Мой сэмплер" {
		t.Errorf("expected title, got %q", got)
	}
}
