package comfy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func rawMsg(t *testing.T, typ string, data any) *wsMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal message data: %v", err)
	}
	return &wsMessage{Type: typ, Data: raw}
}

func newTestMonitor() *Monitor {
	return NewMonitor(NewClient("http://backend:8188", slog.Default()), slog.Default())
}

func TestMonitor_ExecutedCollectsOutputs(t *testing.T) {
	m := newTestMonitor()
	wanted := map[string]bool{"9": true, "12": true}
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	msg := rawMsg(t, MsgExecuted, map[string]any{
		"node":      "9",
		"prompt_id": "p-1",
		"output": map[string]any{
			"images": []map[string]any{{"filename": "a.png", "type": "output"}},
		},
	})
	done, err := m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done {
		t.Error("one of two output nodes must not finish the wait")
	}
	if len(outputs) != 1 || outputs[0].NodeID != "9" || outputs[0].File.Filename != "a.png" {
		t.Errorf("unexpected outputs: %+v", outputs)
	}

	msg = rawMsg(t, MsgExecuted, map[string]any{
		"node":      "12",
		"prompt_id": "p-1",
		"output": map[string]any{
			"gifs": []map[string]any{{"filename": "b.mp4", "type": "output"}},
		},
	})
	done, err = m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("all output nodes completed, wait must finish")
	}
}

func TestMonitor_IgnoresForeignPrompt(t *testing.T) {
	m := newTestMonitor()
	wanted := map[string]bool{"9": true}
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	msg := rawMsg(t, MsgExecuted, map[string]any{
		"node":      "9",
		"prompt_id": "someone-else",
		"output": map[string]any{
			"images": []map[string]any{{"filename": "x.png"}},
		},
	})
	done, err := m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil || done || len(outputs) != 0 {
		t.Errorf("foreign prompt must be ignored: done=%v err=%v outputs=%v", done, err, outputs)
	}
}

func TestMonitor_ExecutionError(t *testing.T) {
	m := newTestMonitor()
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	msg := rawMsg(t, MsgExecutionError, map[string]any{
		"prompt_id":         "p-1",
		"node_id":           "5",
		"node_type":         "KSampler",
		"exception_message": "out of memory",
	})
	_, err := m.handle(msg, "p-1", map[string]bool{"9": true}, completed, &outputs, &cached, Hooks{})
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("expected ErrExecutionFailed, got %v", err)
	}
}

func TestMonitor_ExecutingNullFinishesCachedRun(t *testing.T) {
	m := newTestMonitor()
	wanted := map[string]bool{"9": true}
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	// Сигнал о полностью кэшированном исполнении
	msg := rawMsg(t, MsgExecutionCached, map[string]any{"prompt_id": "p-1"})
	done, err := m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil || done {
		t.Fatalf("cached signal must not finish the wait: done=%v err=%v", done, err)
	}
	if !cached {
		t.Fatal("cached flag must be set")
	}

	// executing null завершает кэшированное исполнение даже без executed
	msg = rawMsg(t, MsgExecuting, map[string]any{"node": nil, "prompt_id": "p-1"})
	done, err = m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("executing null must finish a cached run")
	}
}

func TestMonitor_ExecutingNullWaitsForOutputs(t *testing.T) {
	m := newTestMonitor()
	wanted := map[string]bool{"9": true}
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	msg := rawMsg(t, MsgExecuting, map[string]any{"node": nil, "prompt_id": "p-1"})
	done, err := m.handle(msg, "p-1", wanted, completed, &outputs, &cached, Hooks{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done {
		t.Error("non-cached run without outputs must keep waiting")
	}
}

func TestMonitor_Hooks(t *testing.T) {
	m := newTestMonitor()
	completed := map[string]bool{}
	var outputs []Output
	cached := false

	var started, finished string
	var progress [2]int
	hooks := Hooks{
		NodeStarted:   func(id string) { started = id },
		NodeCompleted: func(id string, _ NodeOutput) { finished = id },
		Progress:      func(_ string, v, max int) { progress = [2]int{v, max} },
	}

	node := "5"
	m.handle(rawMsg(t, MsgExecuting, map[string]any{"node": &node, "prompt_id": "p-1"}),
		"p-1", map[string]bool{}, completed, &outputs, &cached, hooks)
	m.handle(rawMsg(t, MsgExecuted, map[string]any{
		"node": "5", "prompt_id": "p-1", "output": map[string]any{},
	}), "p-1", map[string]bool{}, completed, &outputs, &cached, hooks)
	m.handle(rawMsg(t, MsgProgress, map[string]any{
		"node": "5", "prompt_id": "p-1", "value": 3, "max": 20,
	}), "p-1", map[string]bool{}, completed, &outputs, &cached, hooks)

	if started != "5" || finished != "5" {
		t.Errorf("hooks not invoked: started=%q finished=%q", started, finished)
	}
	if progress != [2]int{3, 20} {
		t.Errorf("progress hook not invoked: %v", progress)
	}
}
