package client

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

// TemporalClient is the subset of the Temporal client the application uses
type TemporalClient interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsHealthy(ctx context.Context) bool

	StartWorkflow(ctx context.Context, options models.StartWorkflowOptions, workflow types.TemporalWorkflowType, args ...interface{}) (models.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (interface{}, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	GetWorkflowHistory(ctx context.Context, workflowID, runID string) (client.HistoryEventIterator, error)

	// GetRawClient returns the SDK client, needed to create workers
	GetRawClient() client.Client
}

type temporalClient struct {
	cfg    config.TemporalConfig
	logger *logger.Logger

	mu     sync.Mutex
	client client.Client
}

// NewTemporalClient builds a lazy SDK client. No connection is made until the first call.
func NewTemporalClient(cfg *config.Configuration, log *logger.Logger) (TemporalClient, error) {
	options := client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
		Logger:    log.GetTemporalLogger(),
	}
	if cfg.Temporal.TLS {
		options.ConnectionOptions = client.ConnectionOptions{
			TLS: &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}
	if cfg.Temporal.APIKey != "" {
		options.Credentials = client.NewAPIKeyStaticCredentials(cfg.Temporal.APIKey)
	}

	c, err := client.NewLazyClient(options)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create temporal client").
			WithReportableDetails(map[string]interface{}{
				"address":   cfg.Temporal.Address,
				"namespace": cfg.Temporal.Namespace,
			}).
			Mark(ierr.ErrSystem)
	}

	return &temporalClient{
		cfg:    cfg.Temporal,
		logger: log,
		client: c,
	}, nil
}

// NewTemporalClientFromSDK wraps an existing SDK client
func NewTemporalClientFromSDK(c client.Client, log *logger.Logger) TemporalClient {
	return &temporalClient{logger: log, client: c}
}

func (c *temporalClient) Start(ctx context.Context) error {
	if _, err := c.sdk().CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return ierr.WithError(err).
			WithHint("Temporal server is not reachable").
			WithReportableDetails(map[string]interface{}{
				"address": c.cfg.Address,
			}).
			Mark(ierr.ErrSystem)
	}
	c.logger.Infow("connected to temporal", "address", c.cfg.Address, "namespace", c.cfg.Namespace)
	return nil
}

func (c *temporalClient) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	return nil
}

func (c *temporalClient) IsHealthy(ctx context.Context) bool {
	sdk := c.sdk()
	if sdk == nil {
		return false
	}
	_, err := sdk.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err == nil
}

func (c *temporalClient) StartWorkflow(ctx context.Context, options models.StartWorkflowOptions, workflow types.TemporalWorkflowType, args ...interface{}) (models.WorkflowRun, error) {
	sdk, err := c.require()
	if err != nil {
		return nil, err
	}
	run, err := sdk.ExecuteWorkflow(ctx, options.ToSDKOptions(), workflow.String(), args...)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (c *temporalClient) QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (interface{}, error) {
	sdk, err := c.require()
	if err != nil {
		return nil, err
	}
	return sdk.QueryWorkflow(ctx, workflowID, runID, queryType, args...)
}

func (c *temporalClient) DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	sdk, err := c.require()
	if err != nil {
		return nil, err
	}
	return sdk.DescribeWorkflowExecution(ctx, workflowID, runID)
}

func (c *temporalClient) GetWorkflowHistory(ctx context.Context, workflowID, runID string) (client.HistoryEventIterator, error) {
	sdk, err := c.require()
	if err != nil {
		return nil, err
	}
	return sdk.GetWorkflowHistory(ctx, workflowID, runID, false, enums.HISTORY_EVENT_FILTER_TYPE_ALL_EVENT), nil
}

func (c *temporalClient) GetRawClient() client.Client {
	return c.sdk()
}

func (c *temporalClient) sdk() client.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *temporalClient) require() (client.Client, error) {
	sdk := c.sdk()
	if sdk == nil {
		return nil, ierr.NewError("temporal client is closed").
			WithHint("Temporal client has been stopped").
			Mark(ierr.ErrSystem)
	}
	return sdk, nil
}
