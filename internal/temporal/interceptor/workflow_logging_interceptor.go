package interceptor

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// WorkflowLoggingInterceptor logs the start and end of every workflow run together with the
// fields of its input, and turns activity panics into non-retryable errors
type WorkflowLoggingInterceptor struct {
	interceptor.InterceptorBase
}

// NewWorkflowLoggingInterceptor creates a new workflow logging interceptor
func NewWorkflowLoggingInterceptor() *WorkflowLoggingInterceptor {
	return &WorkflowLoggingInterceptor{}
}

// InterceptWorkflow creates a workflow inbound interceptor
func (w *WorkflowLoggingInterceptor) InterceptWorkflow(
	ctx workflow.Context,
	next interceptor.WorkflowInboundInterceptor,
) interceptor.WorkflowInboundInterceptor {
	return &workflowLoggingInboundInterceptor{
		WorkflowInboundInterceptorBase: interceptor.WorkflowInboundInterceptorBase{
			Next: next,
		},
	}
}

// InterceptActivity creates an activity inbound interceptor
func (w *WorkflowLoggingInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	return &activityRecoveryInboundInterceptor{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{
			Next: next,
		},
	}
}

type workflowLoggingInboundInterceptor struct {
	interceptor.WorkflowInboundInterceptorBase
}

// ExecuteWorkflow logs the run input, its final status and its duration in workflow time
func (w *workflowLoggingInboundInterceptor) ExecuteWorkflow(
	ctx workflow.Context,
	in *interceptor.ExecuteWorkflowInput,
) (interface{}, error) {
	info := workflow.GetInfo(ctx)
	logger := workflow.GetLogger(ctx)

	entity, entityID, fields := extractWorkflowFields(in.Args)
	logger.Info("Workflow started",
		"workflow_type", info.WorkflowType.Name,
		"workflow_id", info.WorkflowExecution.ID,
		"run_id", info.WorkflowExecution.RunID,
		"task_queue", info.TaskQueueName,
		"entity", entity,
		"entity_id", entityID,
		"input", fields,
	)

	result, err := w.Next.ExecuteWorkflow(ctx, in)

	durationMs := workflow.Now(ctx).Sub(info.WorkflowStartTime).Milliseconds()
	if err != nil {
		logger.Error("Workflow failed",
			"workflow_type", info.WorkflowType.Name,
			"workflow_id", info.WorkflowExecution.ID,
			"duration_ms", durationMs,
			"error", err,
		)
		return result, err
	}

	logger.Info("Workflow completed",
		"workflow_type", info.WorkflowType.Name,
		"workflow_id", info.WorkflowExecution.ID,
		"duration_ms", durationMs,
	)
	return result, nil
}

type activityRecoveryInboundInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
}

// ExecuteActivity runs the activity and converts a panic into an application error
func (a *activityRecoveryInboundInterceptor) ExecuteActivity(
	ctx context.Context,
	in *interceptor.ExecuteActivityInput,
) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			info := activity.GetInfo(ctx)
			activity.GetLogger(ctx).Error("Panic recovered in activity",
				"activity_type", info.ActivityType.Name,
				"workflow_id", info.WorkflowExecution.ID,
				"panic", r,
			)
			result = nil
			err = temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("activity %s panicked: %v", info.ActivityType.Name, r),
				"ActivityPanic",
				nil,
			)
		}
	}()

	return a.Next.ExecuteActivity(ctx, in)
}

// extractWorkflowFields pulls the entity id and the non-zero fields out of a workflow input
// struct. It never panics; unexpected inputs yield empty values.
func extractWorkflowFields(args []interface{}) (entity, entityID string, fields map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			entity = ""
			entityID = ""
			fields = nil
		}
	}()

	if len(args) == 0 {
		return "", "", nil
	}

	val := reflect.ValueOf(args[0])
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return "", "", nil
	}

	fields = make(map[string]interface{})
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !fieldVal.CanInterface() || isZeroValue(fieldVal) {
			continue
		}

		if fieldVal.Kind() == reflect.String {
			switch field.Name {
			case "SubscriptionID":
				entity, entityID = "subscription", fieldVal.String()
			case "UserID":
				if entity == "" {
					entity, entityID = "user", fieldVal.String()
				}
			}
		}

		fields[toSnakeCase(field.Name)] = fieldVal.Interface()
	}

	return entity, entityID, fields
}

// isZeroValue checks if a reflect.Value is the zero value for its type
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	default:
		return false
	}
}

// toSnakeCase converts a string from CamelCase to snake_case.
// Acronyms stay together: UserID -> user_id, HTMLParser -> html_parser.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevIsLower := unicode.IsLower(rune(s[i-1]))
				nextIsLower := i+1 < len(s) && unicode.IsLower(rune(s[i+1]))

				// camelCase boundary, or the last capital of an acronym followed by a word
				if prevIsLower || (nextIsLower && unicode.IsUpper(rune(s[i-1]))) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
