package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

type cloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// LogWriter ships each written line to a CloudWatch Logs stream. It is meant to be the
// sink of the service logger.
type LogWriter struct {
	client cloudWatchLogsAPI
	group  string
	stream string
	mu     sync.Mutex
}

// NewLogWriter creates the log group (if missing) and a fresh stream named after the
// service and start time.
func NewLogWriter(ctx context.Context, cfg sdkaws.Config, group, serviceName string) (*LogWriter, error) {
	return newLogWriter(ctx, cloudwatchlogs.NewFromConfig(cfg), group, serviceName)
}

func newLogWriter(ctx context.Context, api cloudWatchLogsAPI, group, serviceName string) (*LogWriter, error) {
	if group == "" {
		group = "/visual-product-matcher"
	}
	w := &LogWriter{
		client: api,
		group:  group,
		stream: fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
	}

	_, err := api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: sdkaws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group: %w", err)
	}
	if _, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(w.stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return w, nil
}

// Write never fails; delivery errors go to stderr so logging keeps working.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(w.group),
		LogStreamName: sdkaws.String(w.stream),
		LogEvents: []types.InputLogEvent{{
			Message:   sdkaws.String(string(p)),
			Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
		}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudwatch logs write error: %v\n", err)
	}
	return len(p), nil
}
