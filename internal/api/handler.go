package api

import (
	"log/slog"

	"github.com/akimenko/graphflow/internal/chain"
	"github.com/akimenko/graphflow/internal/events"
	"github.com/akimenko/graphflow/internal/repo"
	"github.com/akimenko/graphflow/internal/scheduler"
	"github.com/akimenko/graphflow/internal/tracker"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflowRepo *repo.WorkflowRepo
	chainRepo    *repo.ChainRepo
	runRepo      *repo.RunRepo
	executor     *chain.Executor
	tracker      *tracker.Tracker
	bus          *events.Bus
	launcher     scheduler.Launcher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	ChainRepo    *repo.ChainRepo
	RunRepo      *repo.RunRepo
	Executor     *chain.Executor
	Tracker      *tracker.Tracker
	Bus          *events.Bus
	Launcher     scheduler.Launcher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		workflowRepo: cfg.WorkflowRepo,
		chainRepo:    cfg.ChainRepo,
		runRepo:      cfg.RunRepo,
		executor:     cfg.Executor,
		tracker:      cfg.Tracker,
		bus:          cfg.Bus,
		launcher:     cfg.Launcher,
		logger:       cfg.Logger,
	}
}
