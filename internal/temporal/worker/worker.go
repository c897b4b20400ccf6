package worker

import (
	"sync"

	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/client"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	sdkworker "go.temporal.io/sdk/worker"
)

// TemporalWorker is a worker bound to one task queue
type TemporalWorker interface {
	RegisterWorkflow(workflow interface{}) error
	RegisterActivity(activity interface{}) error
	Start() error
	Stop() error
	IsStarted() bool
}

// TemporalWorkerManager owns one worker per task queue
type TemporalWorkerManager interface {
	GetOrCreateWorker(taskQueue types.TemporalTaskQueue, options models.WorkerOptions) (TemporalWorker, error)
	StartWorker(taskQueue types.TemporalTaskQueue) error
	StopWorker(taskQueue types.TemporalTaskQueue) error
	StopAllWorkers() error
}

type temporalWorker struct {
	taskQueue types.TemporalTaskQueue
	worker    sdkworker.Worker
	logger    *logger.Logger

	mu      sync.Mutex
	started bool
}

func (w *temporalWorker) RegisterWorkflow(workflow interface{}) error {
	w.worker.RegisterWorkflow(workflow)
	return nil
}

func (w *temporalWorker) RegisterActivity(activity interface{}) error {
	w.worker.RegisterActivity(activity)
	return nil
}

func (w *temporalWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := w.worker.Start(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to start temporal worker").
			WithReportableDetails(map[string]interface{}{
				"task_queue": w.taskQueue,
			}).
			Mark(ierr.ErrSystem)
	}
	w.started = true
	w.logger.Infow("temporal worker started", "task_queue", w.taskQueue)
	return nil
}

func (w *temporalWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	w.worker.Stop()
	w.started = false
	w.logger.Infow("temporal worker stopped", "task_queue", w.taskQueue)
	return nil
}

func (w *temporalWorker) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

type temporalWorkerManager struct {
	client client.TemporalClient
	cfg    config.TemporalConfig
	logger *logger.Logger

	mu      sync.Mutex
	workers map[types.TemporalTaskQueue]*temporalWorker
}

// NewTemporalWorkerManager creates a worker manager. Concurrency limits from
// configuration override the per-call worker options.
func NewTemporalWorkerManager(c client.TemporalClient, cfg *config.Configuration, log *logger.Logger) TemporalWorkerManager {
	return &temporalWorkerManager{
		client:  c,
		cfg:     cfg.Temporal,
		logger:  log,
		workers: make(map[types.TemporalTaskQueue]*temporalWorker),
	}
}

func (m *temporalWorkerManager) GetOrCreateWorker(taskQueue types.TemporalTaskQueue, options models.WorkerOptions) (TemporalWorker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.workers[taskQueue]; ok {
		return w, nil
	}

	sdk := m.client.GetRawClient()
	if sdk == nil {
		return nil, ierr.NewError("temporal client is not available").
			WithHint("Temporal client must be created before workers").
			Mark(ierr.ErrSystem)
	}

	options = options.WithConfig(m.cfg)
	w := &temporalWorker{
		taskQueue: taskQueue,
		worker:    sdkworker.New(sdk, taskQueue.String(), options.ToSDKOptions()),
		logger:    m.logger,
	}
	m.workers[taskQueue] = w

	m.logger.Infow("created temporal worker",
		"task_queue", taskQueue,
		"max_concurrent_activities", options.MaxConcurrentActivityExecutionSize,
		"max_concurrent_workflow_tasks", options.MaxConcurrentWorkflowTaskExecutionSize,
		"workflow_task_pollers", options.MaxConcurrentWorkflowTaskPollers,
	)
	return w, nil
}

func (m *temporalWorkerManager) StartWorker(taskQueue types.TemporalTaskQueue) error {
	w, err := m.get(taskQueue)
	if err != nil {
		return err
	}
	return w.Start()
}

func (m *temporalWorkerManager) StopWorker(taskQueue types.TemporalTaskQueue) error {
	w, err := m.get(taskQueue)
	if err != nil {
		return err
	}
	return w.Stop()
}

func (m *temporalWorkerManager) StopAllWorkers() error {
	m.mu.Lock()
	workers := make([]*temporalWorker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.mu.Unlock()

	var firstErr error
	for _, w := range workers {
		if err := w.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *temporalWorkerManager) get(taskQueue types.TemporalTaskQueue) (*temporalWorker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[taskQueue]
	if !ok {
		return nil, ierr.NewError("worker not found").
			WithHintf("No worker has been registered for task queue %s", taskQueue).
			Mark(ierr.ErrNotFound)
	}
	return w, nil
}
