package tracker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/akimenko/graphflow/internal/events"
)

func testRefs() []NodeRef {
	return []NodeRef{
		{ID: "1", Type: "Loader"},
		{ID: "2", Type: "Sampler"},
		{ID: "3", Type: "Save"},
	}
}

func TestTracker_StartInitializesNodes(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())

	if tr.State() != StateRunning {
		t.Errorf("expected running, got %s", tr.State())
	}

	infos := tr.AllNodeInfo()
	if len(infos) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(infos))
	}
	for _, info := range infos {
		if info.State != NodePending {
			t.Errorf("node %s: expected pending, got %s", info.ID, info.State)
		}
	}
}

func TestTracker_StartClearsPreviousRun(t *testing.T) {
	tr := New(nil, slog.Default())

	tr.Start(testRefs())
	tr.StartNode("1")
	tr.ErrorNode("1", "boom", nil)
	tr.Complete()

	tr.Start([]NodeRef{{ID: "7", Type: "Loader"}})

	if len(tr.Errors()) != 0 {
		t.Error("error log must be cleared by a new run")
	}
	if _, ok := tr.NodeInfo("1"); ok {
		t.Error("node state must not leak between runs")
	}
	infos := tr.AllNodeInfo()
	if len(infos) != 1 || infos[0].ID != "7" || infos[0].State != NodePending {
		t.Errorf("unexpected node snapshot: %+v", infos)
	}
}

func TestTracker_NodeLifecycle(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())

	tr.QueueNode("1")
	if info, _ := tr.NodeInfo("1"); info.State != NodeQueued {
		t.Errorf("expected queued, got %s", info.State)
	}

	tr.StartNode("1")
	info, _ := tr.NodeInfo("1")
	if info.State != NodeExecuting {
		t.Errorf("expected executing, got %s", info.State)
	}
	if info.StartedAt.IsZero() {
		t.Error("start timestamp must be recorded")
	}

	tr.CompleteNode("1", map[string]any{"images": 1})
	info, _ = tr.NodeInfo("1")
	if info.State != NodeCompleted {
		t.Errorf("expected completed, got %s", info.State)
	}
	if info.Duration < 0 {
		t.Errorf("duration must be non-negative, got %v", info.Duration)
	}
	if info.Output == nil {
		t.Error("output must be recorded")
	}
}

func TestTracker_ErrorNodeIsBookkeepingOnly(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())

	tr.StartNode("2")
	tr.ErrorNode("2", "out of memory", map[string]any{"step": 5})

	// Ошибка одного узла не трогает ни соседей, ни общее состояние
	if tr.State() != StateRunning {
		t.Errorf("overall state must stay running, got %s", tr.State())
	}
	if info, _ := tr.NodeInfo("1"); info.State != NodePending {
		t.Errorf("sibling must stay pending, got %s", info.State)
	}

	errs := tr.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(errs))
	}
	if errs[0].NodeID != "2" || errs[0].Message != "out of memory" {
		t.Errorf("unexpected entry: %+v", errs[0])
	}
}

func TestTracker_SkipNode(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())

	tr.SkipNode("2")

	info, _ := tr.NodeInfo("2")
	if info.State != NodeSkipped {
		t.Errorf("expected skipped, got %s", info.State)
	}
	if info.Duration != 0 {
		t.Errorf("skipped node must have zero duration, got %v", info.Duration)
	}
}

func TestTracker_CompleteCountsRuns(t *testing.T) {
	tr := New(nil, slog.Default())

	tr.Start(testRefs())
	for _, id := range []string{"1", "2", "3"} {
		tr.StartNode(id)
		tr.CompleteNode(id, nil)
	}
	tr.Complete()

	if tr.State() != StateCompleted {
		t.Errorf("expected completed, got %s", tr.State())
	}
	ok, failed := tr.RunCounters()
	if ok != 1 || failed != 0 {
		t.Errorf("expected 1 success, got %d/%d", ok, failed)
	}

	// Прогон с ошибкой считается неуспешным
	tr.Start(testRefs())
	tr.StartNode("1")
	tr.ErrorNode("1", "boom", nil)
	tr.Complete()

	ok, failed = tr.RunCounters()
	if ok != 1 || failed != 1 {
		t.Errorf("expected 1/1, got %d/%d", ok, failed)
	}
}

func TestTracker_CancelForcesUnfinishedNodes(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())

	tr.StartNode("1")
	tr.CompleteNode("1", nil)
	tr.StartNode("2")
	tr.Cancel()

	if tr.State() != StateCancelled {
		t.Errorf("expected cancelled, got %s", tr.State())
	}
	for _, info := range tr.AllNodeInfo() {
		if info.State == NodePending || info.State == NodeExecuting {
			t.Errorf("node %s left in %s after cancel", info.ID, info.State)
		}
	}
	// Завершённый узел не перетирается
	if info, _ := tr.NodeInfo("1"); info.State != NodeCompleted {
		t.Errorf("completed node must stay completed, got %s", info.State)
	}
}

func TestTracker_PauseResume(t *testing.T) {
	tr := New(nil, slog.Default())

	// До старта пауза — no-op
	tr.Pause()
	if tr.State() != StateIdle {
		t.Errorf("pause from idle must be a no-op, got %s", tr.State())
	}

	tr.Start(testRefs())
	tr.Pause()
	if tr.State() != StatePaused {
		t.Errorf("expected paused, got %s", tr.State())
	}

	// Повторная пауза — no-op
	tr.Pause()
	if tr.State() != StatePaused {
		t.Errorf("double pause must keep paused, got %s", tr.State())
	}

	tr.Resume()
	if tr.State() != StateRunning {
		t.Errorf("expected running after resume, got %s", tr.State())
	}

	tr.Resume()
	if tr.State() != StateRunning {
		t.Errorf("double resume must keep running, got %s", tr.State())
	}
}

func TestTracker_Fail(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start(testRefs())
	tr.Fail("backend unreachable")

	if tr.State() != StateError {
		t.Errorf("expected error state, got %s", tr.State())
	}
	if len(tr.Errors()) != 1 {
		t.Errorf("expected 1 error entry, got %d", len(tr.Errors()))
	}
	_, failed := tr.RunCounters()
	if failed != 1 {
		t.Errorf("expected failed counter 1, got %d", failed)
	}
}

func TestTracker_Progress(t *testing.T) {
	tr := New(nil, slog.Default())
	tr.Start([]NodeRef{
		{ID: "1", Type: "A"}, {ID: "2", Type: "A"},
		{ID: "3", Type: "A"}, {ID: "4", Type: "A"},
	})

	tr.StartNode("1")
	tr.CompleteNode("1", nil)
	tr.SkipNode("2")

	p := tr.Progress()
	if p.Done != 2 || p.Total != 4 {
		t.Errorf("expected 2/4, got %d/%d", p.Done, p.Total)
	}
	if p.Percent != 50 {
		t.Errorf("expected 50%%, got %v", p.Percent)
	}
	if p.Elapsed < 0 {
		t.Errorf("elapsed must be non-negative, got %v", p.Elapsed)
	}
	// Есть завершённые узлы и остаток — оценка должна быть неотрицательной
	if p.EstimatedRemaining < 0 {
		t.Errorf("estimate must be non-negative, got %v", p.EstimatedRemaining)
	}
}

func TestTracker_MetricsAccumulateAcrossRuns(t *testing.T) {
	tr := New(nil, slog.Default())

	for run := 0; run < 2; run++ {
		tr.Start([]NodeRef{{ID: "1", Type: "Sampler"}})
		tr.StartNode("1")
		time.Sleep(time.Millisecond)
		tr.CompleteNode("1", nil)
		tr.Complete()
	}

	m := tr.Metrics()["Sampler"]
	if m.Count != 2 {
		t.Errorf("expected 2 samples, got %d", m.Count)
	}
	if m.Total <= 0 || m.Min <= 0 || m.Max < m.Min {
		t.Errorf("inconsistent metric: %+v", m)
	}
	if m.Average() <= 0 {
		t.Errorf("average must be positive, got %v", m.Average())
	}

	tr.ResetMetrics()
	if len(tr.Metrics()) != 0 {
		t.Error("metrics must be empty after reset")
	}
}

func TestTracker_EmitsEvents(t *testing.T) {
	bus := events.NewBus(slog.Default())
	tr := New(bus, slog.Default())

	var seen []events.Type
	bus.SubscribeWith([]events.Type{
		events.ExecutionStarted,
		events.ExecutionNodeStarted,
		events.ExecutionNodeCompleted,
		events.ExecutionCompleted,
	}, func(ev events.Event) {
		seen = append(seen, ev.Type)
	}, events.SubscribeOptions{})

	tr.Start([]NodeRef{{ID: "1", Type: "A"}})
	tr.StartNode("1")
	tr.CompleteNode("1", nil)
	tr.Complete()

	want := []events.Type{
		events.ExecutionStarted,
		events.ExecutionNodeStarted,
		events.ExecutionNodeCompleted,
		events.ExecutionCompleted,
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected event order %v, got %v", want, seen)
		}
	}
}
