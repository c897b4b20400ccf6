package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/subtrack/subtrack/internal/auth"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/email"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/models"
	"github.com/subtrack/subtrack/internal/temporal/queries"
	temporalservice "github.com/subtrack/subtrack/internal/temporal/service"
	"github.com/subtrack/subtrack/internal/testutil"
	"github.com/subtrack/subtrack/internal/types"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
)

const testUserID = "user_test"

type fakeRun struct {
	id    string
	runID string
}

func (r *fakeRun) GetID() string { return r.id }

func (r *fakeRun) GetRunID() string { return r.runID }

func (r *fakeRun) Get(_ context.Context, _ interface{}) error { return nil }

// fakeTemporalService starts no workflows; it records the inputs and rejects a second start
// of the same workflow id the way the server does
type fakeTemporalService struct {
	temporalservice.TemporalService

	mu      sync.Mutex
	started []models.ReminderWorkflowInput
	running map[string]bool
	err     error
}

func newFakeTemporalService() *fakeTemporalService {
	return &fakeTemporalService{running: map[string]bool{}}
}

func (f *fakeTemporalService) ExecuteWorkflow(_ context.Context, workflowType types.TemporalWorkflowType, params interface{}) (models.WorkflowRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	input := params.(models.ReminderWorkflowInput)
	id := workflowType.WorkflowID(input.SubscriptionID)
	if f.running[id] {
		return nil, ierr.WithError(serviceerror.NewWorkflowExecutionAlreadyStarted("workflow execution already started", "", "run_existing")).
			WithHint("Failed to start workflow").
			Mark(ierr.ErrSystem)
	}
	f.running[id] = true
	f.started = append(f.started, input)
	return &fakeRun{id: id, runID: "run_" + input.SubscriptionID}, nil
}

func (f *fakeTemporalService) Started() []models.ReminderWorkflowInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReminderWorkflowInput(nil), f.started...)
}

// fakeWorkflowReader answers describe and query calls for a single run
type fakeWorkflowReader struct {
	describe *workflowservice.DescribeWorkflowExecutionResponse
	state    *models.ReminderWorkflowState
	err      error
}

func (f *fakeWorkflowReader) DescribeWorkflowExecution(_ context.Context, _, _ string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	return f.describe, f.err
}

func (f *fakeWorkflowReader) GetWorkflowHistory(_ context.Context, _, _ string) (client.HistoryEventIterator, error) {
	return nil, f.err
}

func (f *fakeWorkflowReader) QueryWorkflow(_ context.Context, _, _, _ string, _ ...interface{}) (interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.state == nil {
		return nil, serviceerror.NewNotFound("query handler not found")
	}
	data, err := json.Marshal(f.state)
	if err != nil {
		return nil, err
	}
	return encodedState{data: data}, nil
}

type encodedState struct {
	data []byte
}

func (v encodedState) HasValue() bool { return len(v.data) > 0 }

func (v encodedState) Get(valuePtr interface{}) error {
	return json.Unmarshal(v.data, valuePtr)
}

type sentEmail struct {
	msg email.Message
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentEmail{msg: msg})
	return "msg_" + msg.To, nil
}

// ServiceTestSuite wires services over in-memory stores and fake Temporal and email clients
type ServiceTestSuite struct {
	suite.Suite

	ctx       context.Context
	subStore  *testutil.InMemorySubscriptionStore
	userStore *testutil.InMemoryUserStore
	temporal  *fakeTemporalService
	reader    *fakeWorkflowReader
	sender    *fakeSender
	params    ServiceParams
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = types.SetRequestID(types.SetUserID(context.Background(), testUserID), "req_test")
	s.subStore = testutil.NewInMemorySubscriptionStore()
	s.userStore = testutil.NewInMemoryUserStore()
	s.temporal = newFakeTemporalService()
	s.reader = &fakeWorkflowReader{}
	s.sender = &fakeSender{}

	cfg := &config.Configuration{
		Auth: config.AuthConfig{Secret: "test-secret", Expiry: time.Hour},
		Reminder: config.ReminderConfig{
			ClientURL:           "https://app.example.com/",
			BackfillConcurrency: 4,
			BackfillBatchSize:   2,
		},
	}

	log := logger.GetLogger()
	s.params = NewServiceParams(
		log,
		cfg,
		s.subStore,
		s.userStore,
		auth.NewProvider(cfg),
		s.sender,
		s.temporal,
		queries.NewWorkflowQuerier(s.reader, log),
	)
}

// GetContext returns the context of the default test user
func (s *ServiceTestSuite) GetContext() context.Context {
	return s.ctx
}
