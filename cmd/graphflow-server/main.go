// graphflow-server — API-сервер и исполнитель цепочек.
//
// Объединяет в одном процессе:
//   - REST API и WebSocket-трансляцию событий
//   - исполнитель цепочек (ComfyUI-бэкенд)
//   - планировщик scheduled-цепочек (leader election через advisory lock)
//   - ретрансляцию событий в RabbitMQ (если задан GRAPHFLOW_AMQP_URL)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akimenko/graphflow/internal/api"
	"github.com/akimenko/graphflow/internal/chain"
	"github.com/akimenko/graphflow/internal/comfy"
	"github.com/akimenko/graphflow/internal/domain"
	"github.com/akimenko/graphflow/internal/events"
	"github.com/akimenko/graphflow/internal/mq"
	"github.com/akimenko/graphflow/internal/repo"
	"github.com/akimenko/graphflow/internal/scheduler"
	"github.com/akimenko/graphflow/internal/telemetry"
	"github.com/akimenko/graphflow/internal/tracker"
)

// schedLockKey — ключ advisory lock для leader election планировщика.
const schedLockKey int64 = 732901

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting graphflow-server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// База данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	workflowRepo := repo.NewWorkflowRepo(pool)
	chainRepo := repo.NewChainRepo(pool)
	runRepo := repo.NewRunRepo(pool)

	// Шина событий и трекер исполнения
	bus := events.NewBus(logger)
	trk := tracker.New(bus, logger)

	// ComfyUI-бэкенд
	comfyClient := comfy.NewClient(os.Getenv("COMFY_URL"), logger)
	monitor := comfy.NewMonitor(comfyClient, logger)

	outputDir := os.Getenv("COMFY_OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./output"
	}

	registry := domain.NewTypeRegistry()

	executor := chain.NewExecutor(chain.Config{
		Backend:          comfyClient,
		Watcher:          monitor,
		Store:            runRepo,
		Tracker:          trk,
		Registry:         registry,
		OutputDir:        outputDir,
		ExecutionTimeout: comfy.DefaultExecutionTimeout,
		Logger:           logger,
	})

	launcher := &runLauncher{executor: executor, logger: logger}

	// RabbitMQ-ретрансляция (опциональна)
	if amqpURL := os.Getenv("GRAPHFLOW_AMQP_URL"); amqpURL != "" {
		conn, err := mq.NewConnection(amqpURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup RabbitMQ topology", "error", err)
			os.Exit(1)
		}

		relay := mq.NewRelay(ctx, bus, mq.NewPublisher(conn, logger), logger)
		defer relay.Stop()
		logger.Info("event relay enabled")
	}

	// Планировщик
	sched := scheduler.New(scheduler.Config{
		ChainRepo: chainRepo,
		RunRepo:   runRepo,
		Launcher:  launcher,
		Logger:    logger,
	})
	go runSchedulerLoop(ctx, pool, sched, logger)

	// HTTP
	handler := api.NewHandler(api.Config{
		WorkflowRepo: workflowRepo,
		ChainRepo:    chainRepo,
		RunRepo:      runRepo,
		Executor:     executor,
		Tracker:      trk,
		Bus:          bus,
		Launcher:     launcher,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Выполняющаяся цепочка прерывается, чтобы бэкенд не работал впустую
	if executor.Running() {
		if err := executor.Interrupt(context.Background()); err != nil {
			logger.Warn("failed to interrupt chain on shutdown", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// runSchedulerLoop тикает планировщиком раз в секунду.
// Лидерство между экземплярами сервера разыгрывается через
// pg advisory lock; не-лидер пропускает тики.
func runSchedulerLoop(ctx context.Context, pool *pgxpool.Pool, sched *scheduler.Scheduler, logger *slog.Logger) {
	tk := time.NewTicker(1 * time.Second)
	defer tk.Stop()

	var hasLock bool
	defer func() {
		if hasLock {
			_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if !hasLock {
				var ok bool
				if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
					logger.Error("scheduler lock error", "error", err)
					continue
				}
				hasLock = ok
			}
			if !hasLock {
				continue
			}

			if err := sched.Tick(ctx); err != nil {
				logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// runLauncher запускает цепочку в фоне через исполнитель.
type runLauncher struct {
	executor *chain.Executor
	logger   *slog.Logger
}

func (l *runLauncher) Launch(_ context.Context, c *domain.Chain, run *domain.ChainRun) error {
	if l.executor.Running() {
		return chain.ErrExecutorBusy
	}

	// Запуск отвязывается от контекста запроса: цепочка живёт дольше него
	go func() {
		if err := l.executor.Run(context.Background(), c, run); err != nil {
			l.logger.Error("chain run finished with error",
				"chain_id", c.ID,
				"run_id", run.ID,
				"error", err,
			)
		}
	}()

	return nil
}
