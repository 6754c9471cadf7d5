package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/akimenko/graphflow/internal/domain"
)

func TestResolveVariables_RewritesGetConnections(t *testing.T) {
	reg := domain.NewTypeRegistry()
	// X → Set("v"); Get("v") → Y
	p := domain.PromptGraph{
		"1": {ClassType: "Loader", Inputs: map[string]any{}},
		"2": {ClassType: "SetNode", Inputs: map[string]any{
			"name":  "v",
			"value": domain.Connection("1", 0),
		}},
		"3": {ClassType: "GetNode", Inputs: map[string]any{"name": "v"}},
		"4": {ClassType: "Save", Inputs: map[string]any{
			"image": domain.Connection("3", 0),
		}},
	}

	out, err := ResolveVariables(p, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Set и Get вычищены
	if _, ok := out["2"]; ok {
		t.Error("set node should be pruned")
	}
	if _, ok := out["3"]; ok {
		t.Error("get node should be pruned")
	}

	// Вход Y переписан на источник, который нёс Set
	got := out["4"].Inputs["image"]
	if !reflect.DeepEqual(got, domain.Connection("1", 0)) {
		t.Errorf("expected input rewritten to [1 0], got %v", got)
	}

	// Исходный граф не тронут
	if _, ok := p["2"]; !ok {
		t.Error("original graph must not be mutated")
	}
}

func TestResolveVariables_PreservesSourceSlot(t *testing.T) {
	reg := domain.NewTypeRegistry()
	// Set подключён ко второму выходу источника
	p := domain.PromptGraph{
		"1": {ClassType: "Checkpoint", Inputs: map[string]any{}},
		"2": {ClassType: "SetNode", Inputs: map[string]any{
			"name":  "clip",
			"value": domain.Connection("1", 1),
		}},
		"3": {ClassType: "GetNode", Inputs: map[string]any{"name": "clip"}},
		"4": {ClassType: "Encode", Inputs: map[string]any{
			"clip": domain.Connection("3", 0),
		}},
	}

	out, err := ResolveVariables(p, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Номер слота источника сохраняется, не сбрасывается в 0
	got := out["4"].Inputs["clip"]
	if !reflect.DeepEqual(got, domain.Connection("1", 1)) {
		t.Errorf("expected input rewritten to [1 1], got %v", got)
	}
}

func TestResolveVariables_MissingVariable(t *testing.T) {
	reg := domain.NewTypeRegistry()
	p := domain.PromptGraph{
		"1": {ClassType: "GetNode", Inputs: map[string]any{"name": "ghost"}},
		"2": {ClassType: "Save", Inputs: map[string]any{
			"image": domain.Connection("1", 0),
		}},
	}

	_, err := ResolveVariables(p, reg)
	if !errors.Is(err, ErrMissingVariable) {
		t.Fatalf("expected ErrMissingVariable, got %v", err)
	}

	var missErr *MissingVariableError
	if !errors.As(err, &missErr) {
		t.Fatal("expected *MissingVariableError")
	}
	if missErr.Name != "ghost" || missErr.NodeID != "2" {
		t.Errorf("unexpected error details: %+v", missErr)
	}
}

func TestResolveVariables_LiteralValue(t *testing.T) {
	reg := domain.NewTypeRegistry()
	// Set несёт литерал, а не соединение
	p := domain.PromptGraph{
		"1": {ClassType: "SetNode", Inputs: map[string]any{
			"name":  "seed",
			"value": 42,
		}},
		"2": {ClassType: "GetNode", Inputs: map[string]any{"name": "seed"}},
		"3": {ClassType: "Sampler", Inputs: map[string]any{
			"seed": domain.Connection("2", 0),
		}},
	}

	out, err := ResolveVariables(p, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out["3"].Inputs["seed"]; got != 42 {
		t.Errorf("expected literal 42, got %v", got)
	}
}

func TestResolveVariables_Idempotent(t *testing.T) {
	reg := domain.NewTypeRegistry()
	p := domain.PromptGraph{
		"1": {ClassType: "Loader", Inputs: map[string]any{}},
		"2": {ClassType: "SetNode", Inputs: map[string]any{
			"name":  "v",
			"value": domain.Connection("1", 0),
		}},
		"3": {ClassType: "GetNode", Inputs: map[string]any{"name": "v"}},
		"4": {ClassType: "Save", Inputs: map[string]any{
			"image": domain.Connection("3", 0),
		}},
	}

	first, err := ResolveVariables(p, reg)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := ResolveVariables(first, reg)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("resolving an already flattened graph must be a no-op")
	}
}

func TestResolveVariables_NoVariables(t *testing.T) {
	reg := domain.NewTypeRegistry()
	p := domain.PromptGraph{
		"1": {ClassType: "Loader", Inputs: map[string]any{}},
		"2": {ClassType: "Save", Inputs: map[string]any{
			"image": domain.Connection("1", 0),
		}},
	}

	out, err := ResolveVariables(p, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, p) {
		t.Error("graph without variables must pass through unchanged")
	}
}
