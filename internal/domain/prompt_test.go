package domain

import (
	"encoding/json"
	"testing"
)

func TestPromptGraph_CloneIsIndependent(t *testing.T) {
	p := PromptGraph{
		"1": {ClassType: "LoadImage", Inputs: map[string]any{"image": "cat.png"}},
		"2": {ClassType: "SaveImage", Inputs: map[string]any{"images": Connection("1", 0)}},
	}

	clone := p.Clone()
	clone["1"].Inputs["image"] = "dog.png"

	if p["1"].Inputs["image"] != "cat.png" {
		t.Error("mutating clone must not affect original")
	}
}

func TestParseConnection(t *testing.T) {
	// Соединение после json.Unmarshal: []any{string, float64}
	var node PromptNode
	data := []byte(`{"class_type": "SaveImage", "inputs": {"images": ["4", 0], "prefix": "out"}}`)
	if err := json.Unmarshal(data, &node); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	id, slot, ok := ParseConnection(node.Inputs["images"])
	if !ok {
		t.Fatal("expected connection")
	}
	if id != "4" || slot != 0 {
		t.Errorf("expected (4, 0), got (%s, %d)", id, slot)
	}

	if _, _, ok := ParseConnection(node.Inputs["prefix"]); ok {
		t.Error("literal must not parse as connection")
	}
	if _, _, ok := ParseConnection([]any{"4"}); ok {
		t.Error("single-element array must not parse as connection")
	}
	if _, _, ok := ParseConnection([]any{4.0, 0.0}); ok {
		t.Error("numeric node id must not parse as connection")
	}
}

func TestParseConnection_ConstructedValue(t *testing.T) {
	id, slot, ok := ParseConnection(Connection("7", 2))
	if !ok || id != "7" || slot != 2 {
		t.Errorf("expected (7, 2, true), got (%s, %d, %v)", id, slot, ok)
	}
}
