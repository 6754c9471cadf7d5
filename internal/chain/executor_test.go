package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/akimenko/graphflow/internal/comfy"
	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/tracker"
	"github.com/google/uuid"
)

// fakeBackend — бэкенд, принимающий все prompt'ы.
type fakeBackend struct {
	submitted   []domain.PromptGraph
	interrupted bool
	submitErr   error
}

func (f *fakeBackend) SubmitPrompt(_ context.Context, p domain.PromptGraph) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, p)
	return fmt.Sprintf("p-%d", len(f.submitted)), nil
}

func (f *fakeBackend) Interrupt(context.Context) error {
	f.interrupted = true
	return nil
}

// fakeWatcher — наблюдатель, мгновенно отдающий заготовленные outputs.
type fakeWatcher struct {
	outputs map[string][]comfy.Output // prompt_id → outputs
	err     error
	hooks   []comfy.Hooks
}

func (f *fakeWatcher) WaitOutputs(_ context.Context, promptID string, _ []string, hooks comfy.Hooks) ([]comfy.Output, error) {
	f.hooks = append(f.hooks, hooks)
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs[promptID], nil
}

// fakeStore — запоминает снимки статусов запуска.
type fakeStore struct {
	statuses []domain.RunStatus
}

func (f *fakeStore) Update(_ context.Context, run *domain.ChainRun) error {
	f.statuses = append(f.statuses, run.Status)
	return nil
}

func testChain(n int) *domain.Chain {
	c := &domain.Chain{ID: uuid.New(), Name: "test chain"}
	for i := 0; i < n; i++ {
		c.Nodes = append(c.Nodes, domain.ChainNode{
			ID:   fmt.Sprintf("cn-%d", i+1),
			Name: fmt.Sprintf("workflow %d", i+1),
			Prompt: domain.PromptGraph{
				"1": {ClassType: "Loader", Inputs: map[string]any{}},
				"9": {ClassType: "SaveImage", Inputs: map[string]any{"filename_prefix": "out"}},
			},
		})
	}
	return c
}

func newTestRun(c *domain.Chain) *domain.ChainRun {
	return &domain.ChainRun{
		ID:          uuid.New(),
		ChainID:     c.ID,
		ExecutionID: NewExecutionID(),
		Status:      domain.RunStatusPending,
	}
}

func newTestExecutor(t *testing.T, backend Backend, watcher Watcher, store RunStore) *Executor {
	t.Helper()
	return NewExecutor(Config{
		Backend:     backend,
		Watcher:     watcher,
		Store:       store,
		Tracker:     tracker.New(nil, slog.Default()),
		OutputDir:   t.TempDir(),
		SettleDelay: time.Millisecond,
		Logger:      slog.Default(),
	})
}

func TestExecutor_RunSucceeds(t *testing.T) {
	backend := &fakeBackend{}
	watcher := &fakeWatcher{outputs: map[string][]comfy.Output{
		"p-1": {{NodeID: "9", File: comfy.FileInfo{Filename: "a.png"}}},
		"p-2": {{NodeID: "9", File: comfy.FileInfo{Filename: "b.png"}}},
	}}
	store := &fakeStore{}

	c := testChain(2)
	run := newTestRun(c)
	e := newTestExecutor(t, backend, watcher, store)

	if err := e.Run(context.Background(), c, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusSucceeded {
		t.Errorf("expected succeeded, got %s", run.Status)
	}
	if len(run.NodeResults) != 2 {
		t.Fatalf("expected 2 node results, got %d", len(run.NodeResults))
	}
	for i, res := range run.NodeResults {
		if !res.Success {
			t.Errorf("node %d failed: %s", i, res.Error)
		}
		if res.PromptID == "" {
			t.Errorf("node %d has no prompt id", i)
		}
	}
	if len(backend.submitted) != 2 {
		t.Errorf("expected 2 submissions, got %d", len(backend.submitted))
	}

	// Персистентность: running, затем терминальный статус
	last := store.statuses[len(store.statuses)-1]
	if last != domain.RunStatusSucceeded {
		t.Errorf("last persisted status must be succeeded, got %s", last)
	}

	p, ok := e.Progress()
	if !ok || !p.Finished || !p.Success {
		t.Errorf("progress snapshot not finalized: %+v", p)
	}
}

func TestExecutor_EmptyChain(t *testing.T) {
	c := &domain.Chain{ID: uuid.New()}
	run := newTestRun(c)
	e := newTestExecutor(t, &fakeBackend{}, &fakeWatcher{}, nil)

	err := e.Run(context.Background(), c, run)
	if !errors.Is(err, ErrEmptyChain) {
		t.Fatalf("expected ErrEmptyChain, got %v", err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected failed, got %s", run.Status)
	}
}

func TestExecutor_NodeFailureStopsChain(t *testing.T) {
	backend := &fakeBackend{}
	watcher := &fakeWatcher{err: comfy.ErrExecutionFailed}

	c := testChain(3)
	run := newTestRun(c)
	e := newTestExecutor(t, backend, watcher, nil)

	err := e.Run(context.Background(), c, run)
	if !errors.Is(err, ErrNodeFailed) {
		t.Fatalf("expected ErrNodeFailed, got %v", err)
	}

	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected failed, got %s", run.Status)
	}
	// Остановились на первом узле
	if len(run.NodeResults) != 1 {
		t.Errorf("expected 1 node result, got %d", len(run.NodeResults))
	}
	if len(backend.submitted) != 1 {
		t.Errorf("chain must stop after first failure, submitted %d", len(backend.submitted))
	}

	p, _ := e.Progress()
	if p.Nodes[0].Status != NodeFailed {
		t.Errorf("first node must be failed, got %s", p.Nodes[0].Status)
	}
	if p.Nodes[1].Status != NodePending {
		t.Errorf("second node must stay pending, got %s", p.Nodes[1].Status)
	}
}

func TestExecutor_SubmitErrorFailsNode(t *testing.T) {
	backend := &fakeBackend{submitErr: errors.New("connection refused")}
	c := testChain(1)
	run := newTestRun(c)
	e := newTestExecutor(t, backend, &fakeWatcher{}, nil)

	err := e.Run(context.Background(), c, run)
	if !errors.Is(err, ErrNodeFailed) {
		t.Fatalf("expected ErrNodeFailed, got %v", err)
	}
	if run.NodeResults[0].Error == "" {
		t.Error("node result must carry the submit error")
	}
}

func TestExecutor_InterruptBetweenNodes(t *testing.T) {
	backend := &fakeBackend{}
	watcher := &fakeWatcher{outputs: map[string][]comfy.Output{}}

	c := testChain(3)
	run := newTestRun(c)
	e := NewExecutor(Config{
		Backend:     backend,
		Watcher:     watcher,
		OutputDir:   t.TempDir(),
		SettleDelay: 200 * time.Millisecond,
		Logger:      slog.Default(),
	})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background(), c, run) }()

	// Дожидаемся старта и прерываем во время паузы между узлами
	time.Sleep(50 * time.Millisecond)
	if err := e.Interrupt(context.Background()); err != nil {
		t.Fatalf("interrupt: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("expected ErrInterrupted, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not stop after interrupt")
	}

	if run.Status != domain.RunStatusCancelled {
		t.Errorf("expected cancelled, got %s", run.Status)
	}
	if !backend.interrupted {
		t.Error("backend interrupt must be requested")
	}
	if len(backend.submitted) >= 3 {
		t.Error("remaining nodes must not be submitted")
	}
}

func TestExecutor_RejectsConcurrentRun(t *testing.T) {
	backend := &fakeBackend{}
	blocker := make(chan struct{})
	watcher := &blockingWatcher{release: blocker}

	c := testChain(1)
	e := newTestExecutor(t, backend, watcher, nil)

	go e.Run(context.Background(), c, newTestRun(c))
	time.Sleep(50 * time.Millisecond)

	err := e.Run(context.Background(), c, newTestRun(c))
	if !errors.Is(err, ErrExecutorBusy) {
		t.Fatalf("expected ErrExecutorBusy, got %v", err)
	}
	close(blocker)
}

// blockingWatcher держит исполнение, пока не закроют release.
type blockingWatcher struct {
	release chan struct{}
}

func (w *blockingWatcher) WaitOutputs(ctx context.Context, _ string, _ []string, _ comfy.Hooks) ([]comfy.Output, error) {
	select {
	case <-w.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestExecutor_DynamicBindingAcrossNodes(t *testing.T) {
	backend := &fakeBackend{}
	watcher := &fakeWatcher{outputs: map[string][]comfy.Output{
		"p-1": {{NodeID: "9", File: comfy.FileInfo{Filename: "stage1.png"}}},
	}}

	c := testChain(2)
	// Второй узел берёт выход первого
	c.Nodes[1].Prompt = domain.PromptGraph{
		"5": {ClassType: "LoadImage", Inputs: map[string]any{}},
		"9": {ClassType: "SaveImage", Inputs: map[string]any{"filename_prefix": "out"}},
	}
	c.Nodes[1].Bindings = map[string]domain.InputBinding{
		"5.image": {Type: domain.BindingDynamic, SourceNodeIndex: 0, SourceOutputID: "9"},
	}

	run := newTestRun(c)
	e := newTestExecutor(t, backend, watcher, nil)

	if err := e.Run(context.Background(), c, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(backend.submitted) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(backend.submitted))
	}
	got := backend.submitted[1]["5"].Inputs["image"]
	if got == nil || got == "" {
		t.Errorf("dynamic binding not applied: %v", got)
	}
}
