package chain

import (
	"log/slog"
	"testing"

	"github.com/akimenko/graphflow/internal/domain"
)

func TestResolveBindings_Static(t *testing.T) {
	node := &domain.ChainNode{
		ID: "cn-1",
		Prompt: domain.PromptGraph{
			"3": {ClassType: "LoadImage", Inputs: map[string]any{"image": "old.png"}},
		},
		Bindings: map[string]domain.InputBinding{
			"3.image": {Type: domain.BindingStatic, Value: "fresh.png"},
		},
	}

	cache := NewOutputCache(t.TempDir(), slog.Default())
	prompt := ResolveBindings(node, []domain.ChainNode{*node}, cache, slog.Default())

	if got := prompt["3"].Inputs["image"]; got != "fresh.png" {
		t.Errorf("expected fresh.png, got %v", got)
	}
	// Исходный prompt не мутируется
	if got := node.Prompt["3"].Inputs["image"]; got != "old.png" {
		t.Errorf("source prompt mutated: %v", got)
	}
}

func TestResolveBindings_Dynamic(t *testing.T) {
	first := domain.ChainNode{ID: "cn-1", Prompt: domain.PromptGraph{}}
	second := domain.ChainNode{
		ID: "cn-2",
		Prompt: domain.PromptGraph{
			"5": {ClassType: "LoadImage", Inputs: map[string]any{}},
		},
		Bindings: map[string]domain.InputBinding{
			"5.image": {
				Type:            domain.BindingDynamic,
				SourceNodeIndex: 0,
				SourceOutputID:  "9",
			},
		},
	}

	cache := NewOutputCache(t.TempDir(), slog.Default())
	cache.Register("cn-1", "9", "chain_result/exec-1/cn-1/out.png")

	prompt := ResolveBindings(&second, []domain.ChainNode{first, second}, cache, slog.Default())

	if got := prompt["5"].Inputs["image"]; got != "chain_result/exec-1/cn-1/out.png" {
		t.Errorf("expected cached path, got %v", got)
	}
}

func TestResolveBindings_DynamicMissingCacheLeavesInput(t *testing.T) {
	first := domain.ChainNode{ID: "cn-1"}
	second := domain.ChainNode{
		ID: "cn-2",
		Prompt: domain.PromptGraph{
			"5": {ClassType: "LoadImage", Inputs: map[string]any{"image": "keep.png"}},
		},
		Bindings: map[string]domain.InputBinding{
			"5.image": {Type: domain.BindingDynamic, SourceNodeIndex: 0, SourceOutputID: "9"},
		},
	}

	cache := NewOutputCache(t.TempDir(), slog.Default())
	prompt := ResolveBindings(&second, []domain.ChainNode{first, second}, cache, slog.Default())

	if got := prompt["5"].Inputs["image"]; got != "keep.png" {
		t.Errorf("unresolvable binding must leave input untouched, got %v", got)
	}
}

func TestResolveBindings_MalformedKeysIgnored(t *testing.T) {
	node := &domain.ChainNode{
		ID: "cn-1",
		Prompt: domain.PromptGraph{
			"3": {ClassType: "LoadImage", Inputs: map[string]any{}},
		},
		Bindings: map[string]domain.InputBinding{
			"no-separator": {Type: domain.BindingStatic, Value: "x"},
			"99.image":     {Type: domain.BindingStatic, Value: "y"}, // неизвестный узел
		},
	}

	cache := NewOutputCache(t.TempDir(), slog.Default())
	prompt := ResolveBindings(node, []domain.ChainNode{*node}, cache, slog.Default())

	if len(prompt["3"].Inputs) != 0 {
		t.Errorf("no binding should have applied: %v", prompt["3"].Inputs)
	}
}

func TestSplitBindingKey(t *testing.T) {
	nodeID, widget, ok := splitBindingKey("12.filename_prefix")
	if !ok || nodeID != "12" || widget != "filename_prefix" {
		t.Errorf("unexpected parse: %q %q %v", nodeID, widget, ok)
	}

	// Имя виджета может содержать точку
	nodeID, widget, ok = splitBindingKey("12.opts.seed")
	if !ok || nodeID != "12" || widget != "opts.seed" {
		t.Errorf("unexpected parse: %q %q %v", nodeID, widget, ok)
	}

	if _, _, ok := splitBindingKey("nodot"); ok {
		t.Error("key without separator must not parse")
	}
	if _, _, ok := splitBindingKey(".widget"); ok {
		t.Error("empty node id must not parse")
	}
}
