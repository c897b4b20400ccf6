package service

import (
	"github.com/subtrack/subtrack/internal/auth"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	"github.com/subtrack/subtrack/internal/domain/user"
	"github.com/subtrack/subtrack/internal/email"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/temporal/queries"
	temporalservice "github.com/subtrack/subtrack/internal/temporal/service"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	SubRepo  subscription.Repository
	UserRepo user.Repository

	// Clients
	AuthProvider    auth.Provider
	EmailSender     email.Sender
	TemporalService temporalservice.TemporalService
	WorkflowQuerier *queries.WorkflowQuerier
}

// NewServiceParams creates a new ServiceParams instance
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	subRepo subscription.Repository,
	userRepo user.Repository,
	authProvider auth.Provider,
	emailSender email.Sender,
	temporalService temporalservice.TemporalService,
	workflowQuerier *queries.WorkflowQuerier,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		SubRepo:         subRepo,
		UserRepo:        userRepo,
		AuthProvider:    authProvider,
		EmailSender:     emailSender,
		TemporalService: temporalService,
		WorkflowQuerier: workflowQuerier,
	}
}
