package service

import (
	"context"
	"fmt"

	"github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/sentry"
	"github.com/subtrack/subtrack/internal/temporal/client"
	temporalInterceptor "github.com/subtrack/subtrack/internal/temporal/interceptor"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/temporal/worker"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	sdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
)

// TemporalService provides a centralized interface for all Temporal operations
type TemporalService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsHealthy(ctx context.Context) bool

	StartWorkflow(ctx context.Context, options models.StartWorkflowOptions, workflow types.TemporalWorkflowType, args ...interface{}) (models.WorkflowRun, error)
	ExecuteWorkflow(ctx context.Context, workflowType types.TemporalWorkflowType, params interface{}) (models.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (interface{}, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	GetWorkflowHistory(ctx context.Context, workflowID, runID string) (sdkclient.HistoryEventIterator, error)

	RegisterWorkflow(taskQueue types.TemporalTaskQueue, workflow interface{}) error
	RegisterActivity(taskQueue types.TemporalTaskQueue, activity interface{}) error
	StartWorker(taskQueue types.TemporalTaskQueue) error
	StopWorker(taskQueue types.TemporalTaskQueue) error
	StopAllWorkers() error
}

type temporalService struct {
	client        client.TemporalClient
	workerManager worker.TemporalWorkerManager
	logger        *logger.Logger
	sentry        *sentry.Service
}

// NewTemporalService creates a new temporal service instance
func NewTemporalService(client client.TemporalClient, workerManager worker.TemporalWorkerManager, logger *logger.Logger, sentryService *sentry.Service) TemporalService {
	return &temporalService{
		client:        client,
		workerManager: workerManager,
		logger:        logger,
		sentry:        sentryService,
	}
}

func (s *temporalService) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start temporal client: %w", err)
	}

	s.logger.Info("Temporal service started successfully")
	return nil
}

func (s *temporalService) Stop(ctx context.Context) error {
	// Stop all workers first
	if err := s.workerManager.StopAllWorkers(); err != nil {
		s.logger.Errorw("Failed to stop all workers", "error", err)
	}

	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop temporal client: %w", err)
	}

	s.logger.Info("Temporal service stopped successfully")
	return nil
}

func (s *temporalService) IsHealthy(ctx context.Context) bool {
	return s.client.IsHealthy(ctx)
}

func (s *temporalService) StartWorkflow(ctx context.Context, options models.StartWorkflowOptions, workflow types.TemporalWorkflowType, args ...interface{}) (models.WorkflowRun, error) {
	if err := workflow.Validate(); err != nil {
		return nil, errors.WithError(err).
			WithHint("Invalid workflow type provided").
			Mark(errors.ErrValidation)
	}
	if options.TaskQueue == "" {
		options.TaskQueue = workflow.TaskQueueName()
	}

	return s.client.StartWorkflow(ctx, options, workflow, args...)
}

func (s *temporalService) QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (interface{}, error) {
	if err := requireWorkflowID(workflowID); err != nil {
		return nil, err
	}
	if queryType == "" {
		return nil, errors.NewError("query type is required").
			WithHint("Query type cannot be empty").
			Mark(errors.ErrValidation)
	}

	return s.client.QueryWorkflow(ctx, workflowID, runID, queryType, args...)
}

func (s *temporalService) RegisterWorkflow(taskQueue types.TemporalTaskQueue, workflow interface{}) error {
	if workflow == nil {
		return errors.NewError("workflow is required").
			WithHint("Workflow parameter cannot be nil").
			Mark(errors.ErrValidation)
	}

	w, err := s.getOrCreateWorker(taskQueue)
	if err != nil {
		return err
	}
	return w.RegisterWorkflow(workflow)
}

func (s *temporalService) RegisterActivity(taskQueue types.TemporalTaskQueue, activity interface{}) error {
	if activity == nil {
		return errors.NewError("activity is required").
			WithHint("Activity parameter cannot be nil").
			Mark(errors.ErrValidation)
	}

	w, err := s.getOrCreateWorker(taskQueue)
	if err != nil {
		return err
	}
	return w.RegisterActivity(activity)
}

func (s *temporalService) getOrCreateWorker(taskQueue types.TemporalTaskQueue) (worker.TemporalWorker, error) {
	if err := validateTaskQueue(taskQueue); err != nil {
		return nil, err
	}

	options := models.DefaultWorkerOptions()
	options.Interceptors = []interceptor.WorkerInterceptor{
		temporalInterceptor.NewWorkflowLoggingInterceptor(),
	}
	if s.sentry != nil && s.sentry.IsEnabled() {
		options.Interceptors = append(options.Interceptors, temporalInterceptor.NewSentryInterceptor(s.sentry))
	}

	w, err := s.workerManager.GetOrCreateWorker(taskQueue, options)
	if err != nil {
		return nil, errors.WithError(err).
			WithHint("Failed to create or get worker for task queue").
			Mark(errors.ErrInternal)
	}
	return w, nil
}

func (s *temporalService) StartWorker(taskQueue types.TemporalTaskQueue) error {
	if err := validateTaskQueue(taskQueue); err != nil {
		return err
	}

	return s.workerManager.StartWorker(taskQueue)
}

func (s *temporalService) StopWorker(taskQueue types.TemporalTaskQueue) error {
	if err := validateTaskQueue(taskQueue); err != nil {
		return err
	}

	return s.workerManager.StopWorker(taskQueue)
}

func (s *temporalService) StopAllWorkers() error {
	return s.workerManager.StopAllWorkers()
}

func (s *temporalService) GetWorkflowHistory(ctx context.Context, workflowID, runID string) (sdkclient.HistoryEventIterator, error) {
	if err := requireWorkflowID(workflowID); err != nil {
		return nil, err
	}

	return s.client.GetWorkflowHistory(ctx, workflowID, runID)
}

func (s *temporalService) DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	if err := requireWorkflowID(workflowID); err != nil {
		return nil, err
	}

	return s.client.DescribeWorkflowExecution(ctx, workflowID, runID)
}

// ExecuteWorkflow builds the typed input for a workflow and starts it. Reminder runs are
// keyed by subscription id, so a second start while one is still running fails with
// serviceerror.WorkflowExecutionAlreadyStarted.
func (s *temporalService) ExecuteWorkflow(ctx context.Context, workflowType types.TemporalWorkflowType, params interface{}) (models.WorkflowRun, error) {
	if s == nil {
		return nil, errors.NewError("temporal service not initialized").
			WithHint("Temporal service must be initialized before use").
			Mark(errors.ErrInternal)
	}

	input, workflowID, err := s.buildWorkflowInput(ctx, workflowType, params)
	if err != nil {
		return nil, err
	}

	options := models.StartWorkflowOptions{
		ID:                      workflowID,
		TaskQueue:               workflowType.TaskQueueName(),
		WorkflowIDReusePolicy:   enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		ErrorWhenAlreadyStarted: true,
	}

	run, err := s.StartWorkflow(ctx, options, workflowType, input)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Infow("started workflow",
		"workflow_type", workflowType,
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
	)
	return run, nil
}

// buildWorkflowInput returns the typed input and the workflow id for a workflow type
func (s *temporalService) buildWorkflowInput(ctx context.Context, workflowType types.TemporalWorkflowType, params interface{}) (interface{}, string, error) {
	if err := workflowType.Validate(); err != nil {
		return nil, "", errors.WithError(err).
			WithHint("Invalid workflow type provided").
			Mark(errors.ErrValidation)
	}

	switch workflowType {
	case types.TemporalSubscriptionReminderWorkflow:
		return s.buildReminderWorkflowInput(ctx, params)
	default:
		return nil, "", errors.NewErrorf("unsupported workflow type: %s", workflowType).
			Mark(errors.ErrValidation)
	}
}

func (s *temporalService) buildReminderWorkflowInput(ctx context.Context, params interface{}) (interface{}, string, error) {
	var input models.ReminderWorkflowInput
	switch p := params.(type) {
	case models.ReminderWorkflowInput:
		input = p
	case *models.ReminderWorkflowInput:
		if p != nil {
			input = *p
		}
	case string:
		input = models.ReminderWorkflowInput{SubscriptionID: p}
	default:
		return nil, "", errors.NewError("invalid input for subscription reminder workflow").
			WithHint("Provide ReminderWorkflowInput or a subscription id").
			Mark(errors.ErrValidation)
	}

	if input.UserID == "" {
		input.UserID = types.GetUserID(ctx)
	}
	if err := input.Validate(); err != nil {
		return nil, "", err
	}

	return input, types.TemporalSubscriptionReminderWorkflow.WorkflowID(input.SubscriptionID), nil
}

func requireWorkflowID(workflowID string) error {
	if workflowID == "" {
		return errors.NewError("workflow ID is required").
			WithHint("Workflow ID cannot be empty").
			Mark(errors.ErrValidation)
	}
	return nil
}

func validateTaskQueue(taskQueue types.TemporalTaskQueue) error {
	if err := taskQueue.Validate(); err != nil {
		return errors.WithError(err).
			WithHintf("Unknown task queue %q", taskQueue).
			Mark(errors.ErrValidation)
	}
	return nil
}
