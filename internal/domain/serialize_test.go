package domain

import (
	"errors"
	"testing"
)

func TestParseGraph_RoundTrip(t *testing.T) {
	reg := NewTypeRegistry()

	g := NewGraph()
	g.ID = "main"
	g.AddNode(newTestNode(1, "LoadImage", 0, 1))
	reroute := newTestNode(2, "Reroute", 1, 1)
	reroute.Mode = ModeBypass
	g.AddNode(reroute)
	g.AddNode(newTestNode(3, "SaveImage", 1, 0))
	g.Connect(1, 0, 2, 0)
	g.Connect(2, 0, 3, 0)

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	parsed, err := ParseGraph(data, reg)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if parsed.ID != "main" {
		t.Errorf("expected graph id 'main', got %q", parsed.ID)
	}
	if parsed.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", parsed.Size())
	}
	if len(parsed.Links()) != 2 {
		t.Errorf("expected 2 links, got %d", len(parsed.Links()))
	}

	// Теги восстанавливаются из реестра, режимы — из JSON
	if parsed.Node(2).Tag != TagReroute {
		t.Errorf("expected TagReroute, got %v", parsed.Node(2).Tag)
	}
	if parsed.Node(2).Mode != ModeBypass {
		t.Errorf("expected ModeBypass, got %v", parsed.Node(2).Mode)
	}
	if parsed.Node(1).Tag != TagRegular {
		t.Errorf("expected TagRegular, got %v", parsed.Node(1).Tag)
	}
}

func TestParseGraph_InvalidJSON(t *testing.T) {
	if _, err := ParseGraph([]byte("{not json"), NewTypeRegistry()); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseGraph_DanglingLink(t *testing.T) {
	// Связь ссылается на несуществующий узел 9
	data := []byte(`{
		"nodes": [
			{"id": 1, "type": "A", "outputs": [{"name": "out", "type": "IMAGE", "links": []}]}
		],
		"links": [
			{"id": 1, "origin_id": 1, "origin_slot": 0, "target_id": 9, "target_slot": 0}
		]
	}`)

	_, err := ParseGraph(data, NewTypeRegistry())
	if err == nil {
		t.Fatal("expected validation error")
	}

	var gerr *GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *GraphError, got %T", err)
	}
	if !errors.Is(err, ErrDanglingLink) {
		t.Errorf("expected ErrDanglingLink, got %v", err)
	}
}

func TestValidate_WidgetInputMustNotBeLinked(t *testing.T) {
	g := NewGraph()
	a := newTestNode(1, "A", 0, 1)
	g.AddNode(a)
	b := newTestNode(2, "B", 1, 0)
	b.Inputs[0].Widget = "seed"
	g.AddNode(b)

	link := &Link{ID: 1, OriginID: 1, OriginSlot: 0, TargetID: 2, TargetSlot: 0}
	g.AddLink(link)
	a.Outputs[0].Links = append(a.Outputs[0].Links, link.ID)
	b.Inputs[0].Link = &link.ID

	if err := g.Validate(); !errors.Is(err, ErrDanglingLink) {
		t.Errorf("expected validation error for linked widget input, got %v", err)
	}
}
