package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/api"
	v1 "github.com/subtrack/subtrack/internal/api/v1"
	"github.com/subtrack/subtrack/internal/auth"
	"github.com/subtrack/subtrack/internal/cache"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	"github.com/subtrack/subtrack/internal/email"
	"github.com/subtrack/subtrack/internal/logger"
	"github.com/subtrack/subtrack/internal/mongo"
	"github.com/subtrack/subtrack/internal/redis"
	mongoRepo "github.com/subtrack/subtrack/internal/repository/mongo"
	"github.com/subtrack/subtrack/internal/sentry"
	"github.com/subtrack/subtrack/internal/service"
	"github.com/subtrack/subtrack/internal/temporal/activities/reminder"
	temporalClient "github.com/subtrack/subtrack/internal/temporal/client"
	"github.com/subtrack/subtrack/internal/temporal/queries"
	temporalService "github.com/subtrack/subtrack/internal/temporal/service"
	"github.com/subtrack/subtrack/internal/temporal/worker"
	"github.com/subtrack/subtrack/internal/temporal/workflows"
	"github.com/subtrack/subtrack/internal/types"
	"go.uber.org/fx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Storage
			mongo.NewClient,
			func(c *mongo.Client) mongo.IClient { return c },
			redis.NewOptionalClient,
			cache.Initialize,

			// Repositories
			mongoRepo.NewSubscriptionRepository,
			mongoRepo.NewUserRepository,

			// Email
			email.NewEmailClient,
			email.NewEmail,
			email.NewSender,

			// Auth
			auth.NewProvider,

			// Temporal
			temporalClient.NewTemporalClient,
			worker.NewTemporalWorkerManager,
			temporalService.NewTemporalService,
			func(ts temporalService.TemporalService) queries.WorkflowReader { return ts },
			queries.NewWorkflowQuerier,

			// Services
			service.NewServiceParams,
			service.NewReminderService,
			service.NewSubscriptionService,
			service.NewAnalyticsService,
			service.NewAuthService,
			service.NewUserService,
			service.NewReminderDispatcher,

			// Handlers
			provideHandlers,

			// Router
			provideRouter,
		),
	)

	opts = append(opts, fx.Invoke(
		sentry.RegisterHooks,
		mongo.RegisterHooks,
		redis.RegisterHooks,
		startServer,
	))

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	mongoClient mongo.IClient,
	temporal temporalService.TemporalService,
	authService service.AuthService,
	userService service.UserService,
	subscriptionService service.SubscriptionService,
	reminderService service.ReminderService,
	analyticsService service.AnalyticsService,
	logger *logger.Logger,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(mongoClient, temporal, logger),
		Auth:         v1.NewAuthHandler(authService, logger),
		User:         v1.NewUserHandler(userService),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, reminderService, logger),
		Analytics:    v1.NewAnalyticsHandler(analyticsService),
		Reminder:     v1.NewReminderHandler(reminderService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, authProvider auth.Provider) *gin.Engine {
	if cfg.Server.Env == types.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.GetGinLogger()
	return api.NewRouter(handlers, cfg, logger, authProvider)
}

type serverParams struct {
	fx.In

	Lifecycle       fx.Lifecycle
	Config          *config.Configuration
	Logger          *logger.Logger
	Router          *gin.Engine
	TemporalService temporalService.TemporalService
	SubRepo         subscription.Repository
	Dispatcher      reminder.Dispatcher
}

func startServer(params serverParams) error {
	mode := params.Config.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		if err := startTemporalWorker(params); err != nil {
			return err
		}
		startAPIServer(params)
	case types.ModeAPI:
		startTemporalClient(params)
		startAPIServer(params)
	case types.ModeTemporalWorker:
		if err := startTemporalWorker(params); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown deployment mode: %s", mode)
	}
	return nil
}

func startAPIServer(params serverParams) {
	srv := &http.Server{
		Addr:    params.Config.Server.Address,
		Handler: params.Router,
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Infow("starting API server", "address", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					params.Logger.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// startTemporalClient checks the Temporal connection without failing startup. Reminder
// scheduling degrades to a warning while Temporal is down.
func startTemporalClient(params serverParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := params.TemporalService.Start(ctx); err != nil {
				params.Logger.Warnw("temporal is not reachable, reminders will not be scheduled", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return params.TemporalService.Stop(ctx)
		},
	})
}

func startTemporalWorker(params serverParams) error {
	ts := params.TemporalService
	queue := types.TemporalTaskQueueReminder

	if err := ts.RegisterWorkflow(queue, workflows.SubscriptionReminderWorkflow); err != nil {
		return err
	}
	activities := reminder.NewReminderActivities(params.SubRepo, params.Dispatcher, params.Logger)
	if err := ts.RegisterActivity(queue, activities); err != nil {
		return err
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ts.Start(ctx); err != nil {
				return err
			}
			params.Logger.Infow("starting temporal worker", "task_queue", queue)
			return ts.StartWorker(queue)
		},
		OnStop: func(ctx context.Context) error {
			return ts.Stop(ctx)
		},
	})
	return nil
}
