package models

import (
	"context"
	"time"

	"github.com/subtrack/subtrack/internal/config"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
)

// StartWorkflowOptions are the options used when starting a workflow run
type StartWorkflowOptions struct {
	ID                       string
	TaskQueue                string
	WorkflowExecutionTimeout time.Duration
	WorkflowRunTimeout       time.Duration
	WorkflowIDReusePolicy    enums.WorkflowIdReusePolicy
	ErrorWhenAlreadyStarted  bool
}

// ToSDKOptions converts to the Temporal SDK start options
func (o StartWorkflowOptions) ToSDKOptions() client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                       o.ID,
		TaskQueue:                o.TaskQueue,
		WorkflowExecutionTimeout: o.WorkflowExecutionTimeout,
		WorkflowRunTimeout:       o.WorkflowRunTimeout,
		WorkflowIDReusePolicy:    o.WorkflowIDReusePolicy,

		WorkflowExecutionErrorWhenAlreadyStarted: o.ErrorWhenAlreadyStarted,
	}
}

// WorkflowRun is a handle to a started workflow run. client.WorkflowRun satisfies it.
type WorkflowRun interface {
	GetID() string
	GetRunID() string
	Get(ctx context.Context, valuePtr interface{}) error
}

// WorkerOptions configures a task queue worker
type WorkerOptions struct {
	MaxConcurrentActivityExecutionSize     int
	MaxConcurrentWorkflowTaskExecutionSize int
	MaxConcurrentWorkflowTaskPollers       int
	Interceptors                           []interceptor.WorkerInterceptor
}

// DefaultWorkerOptions returns the worker options used when nothing is configured
func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		MaxConcurrentActivityExecutionSize:     50,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
		MaxConcurrentWorkflowTaskPollers:       4,
	}
}

// WithConfig overrides the concurrency limits with any values set in configuration
func (o WorkerOptions) WithConfig(cfg config.TemporalConfig) WorkerOptions {
	if cfg.MaxConcurrentActivityExecutionSize > 0 {
		o.MaxConcurrentActivityExecutionSize = cfg.MaxConcurrentActivityExecutionSize
	}
	if cfg.MaxConcurrentWorkflowTaskExecutionSize > 0 {
		o.MaxConcurrentWorkflowTaskExecutionSize = cfg.MaxConcurrentWorkflowTaskExecutionSize
	}
	if cfg.MaxConcurrentWorkflowTaskPollers > 0 {
		o.MaxConcurrentWorkflowTaskPollers = cfg.MaxConcurrentWorkflowTaskPollers
	}
	return o
}

// ToSDKOptions converts to the Temporal SDK worker options
func (o WorkerOptions) ToSDKOptions() worker.Options {
	return worker.Options{
		MaxConcurrentActivityExecutionSize:     o.MaxConcurrentActivityExecutionSize,
		MaxConcurrentWorkflowTaskExecutionSize: o.MaxConcurrentWorkflowTaskExecutionSize,
		MaxConcurrentWorkflowTaskPollers:       o.MaxConcurrentWorkflowTaskPollers,
		Interceptors:                           o.Interceptors,
	}
}
