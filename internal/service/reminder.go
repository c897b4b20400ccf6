package service

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/subtrack/subtrack/internal/api/dto"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/api/serviceerror"
)

const (
	defaultBackfillConcurrency = 10
	maxBackfillErrors          = 20
)

// ReminderService starts and inspects subscription reminder runs
type ReminderService interface {
	// StartReminderWorkflow starts the reminder run of a subscription. A run that is still
	// in progress for the same subscription yields ErrAlreadyExists.
	StartReminderWorkflow(ctx context.Context, subscriptionID string) (*dto.WorkflowRunResponse, error)
	GetReminderStatus(ctx context.Context, subscriptionID, runID string) (*dto.ReminderRunStatusResponse, error)
	// Backfill starts a run for every active subscription that does not have one
	Backfill(ctx context.Context, req *dto.BackfillRemindersRequest) (*dto.BackfillRemindersResponse, error)
}

type reminderService struct {
	ServiceParams
}

func NewReminderService(params ServiceParams) ReminderService {
	return &reminderService{
		ServiceParams: params,
	}
}

func (s *reminderService) StartReminderWorkflow(ctx context.Context, subscriptionID string) (*dto.WorkflowRunResponse, error) {
	return s.start(ctx, models.ReminderWorkflowInput{
		SubscriptionID: subscriptionID,
		UserID:         types.GetUserID(ctx),
	})
}

func (s *reminderService) start(ctx context.Context, input models.ReminderWorkflowInput) (*dto.WorkflowRunResponse, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	run, err := s.TemporalService.ExecuteWorkflow(ctx, types.TemporalSubscriptionReminderWorkflow, input)
	if err != nil {
		if isAlreadyStarted(err) {
			return nil, ierr.WithError(err).
				WithHint("A reminder run is already in progress for this subscription").
				WithReportableDetails(map[string]interface{}{
					"subscription_id": input.SubscriptionID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, err
	}

	return &dto.WorkflowRunResponse{
		SubscriptionID: input.SubscriptionID,
		WorkflowID:     run.GetID(),
		RunID:          run.GetRunID(),
	}, nil
}

func (s *reminderService) GetReminderStatus(ctx context.Context, subscriptionID, runID string) (*dto.ReminderRunStatusResponse, error) {
	if _, err := getOwnedSubscription(ctx, s.SubRepo, subscriptionID); err != nil {
		return nil, err
	}

	workflowID := types.TemporalSubscriptionReminderWorkflow.WorkflowID(subscriptionID)
	execution, err := s.WorkflowQuerier.DescribeWorkflow(ctx, workflowID, runID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReminderRunStatusResponse{
		Execution: execution,
	}

	// A closed run may have no worker left to answer the query; the execution is still useful
	state, err := s.WorkflowQuerier.QueryReminderState(ctx, workflowID, execution.RunID)
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("failed to query reminder state",
			"workflow_id", workflowID,
			"run_id", execution.RunID,
			"error", err)
	} else {
		resp.State = state
	}

	timeline, err := s.WorkflowQuerier.ParseTimelineFromHistory(ctx, workflowID, execution.RunID)
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("failed to read reminder timeline",
			"workflow_id", workflowID,
			"error", err)
	} else {
		resp.Timeline = timeline
	}

	return resp, nil
}

func (s *reminderService) Backfill(ctx context.Context, req *dto.BackfillRemindersRequest) (*dto.BackfillRemindersResponse, error) {
	if req == nil {
		req = &dto.BackfillRemindersRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	batchSize := lo.CoalesceOrEmpty(req.BatchSize, s.Config.Reminder.BackfillBatchSize, types.DEFAULT_BATCH_SIZE)
	concurrency := lo.CoalesceOrEmpty(req.Concurrency, s.Config.Reminder.BackfillConcurrency, defaultBackfillConcurrency)

	log := s.Logger.WithContext(ctx)
	log.Infow("starting reminder backfill", "batch_size", batchSize, "concurrency", concurrency)

	var (
		mu   sync.Mutex
		resp = &dto.BackfillRemindersResponse{}
	)
	record := func(fn func(r *dto.BackfillRemindersResponse)) {
		mu.Lock()
		defer mu.Unlock()
		fn(resp)
	}

	p := pool.New().WithMaxGoroutines(concurrency)

	for offset := 0; ; offset += batchSize {
		filter := types.NewSubscriptionFilter()
		filter.Limit = lo.ToPtr(batchSize)
		filter.Offset = lo.ToPtr(offset)
		filter.SubscriptionStatus = []types.SubscriptionStatus{types.SubscriptionStatusActive}

		subs, err := s.SubRepo.List(ctx, filter)
		if err != nil {
			p.Wait()
			return nil, err
		}

		for _, sub := range subs {
			record(func(r *dto.BackfillRemindersResponse) { r.Total++ })

			p.Go(func() {
				_, err := s.start(ctx, models.ReminderWorkflowInput{
					SubscriptionID: sub.ID,
					UserID:         sub.UserID,
				})
				switch {
				case err == nil:
					record(func(r *dto.BackfillRemindersResponse) { r.Started++ })
				case ierr.IsAlreadyExists(err):
					record(func(r *dto.BackfillRemindersResponse) { r.Skipped++ })
				default:
					log.Warnw("failed to start reminder run",
						"subscription_id", sub.ID,
						"error", err)
					record(func(r *dto.BackfillRemindersResponse) {
						r.Failed++
						if len(r.Errors) < maxBackfillErrors {
							r.Errors = append(r.Errors, sub.ID+": "+err.Error())
						}
					})
				}
			})
		}

		if len(subs) < batchSize {
			break
		}
	}

	p.Wait()

	log.Infow("reminder backfill finished",
		"total", resp.Total,
		"started", resp.Started,
		"skipped", resp.Skipped,
		"failed", resp.Failed)
	return resp, nil
}

func isAlreadyStarted(err error) bool {
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	return ierr.As(err, &alreadyStarted)
}

// getOwnedSubscription loads a subscription of the caller. Subscriptions of other users are
// reported as not found.
func getOwnedSubscription(ctx context.Context, repo subscription.Repository, id string) (*subscription.Subscription, error) {
	if id == "" {
		return nil, ierr.NewError("subscription id is required").
			WithHint("Please provide a valid subscription ID").
			Mark(ierr.ErrValidation)
	}

	sub, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.UserID != types.GetUserID(ctx) {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}
