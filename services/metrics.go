package services

import (
	"context"
	"time"
)

// Counter records count metrics. *aws.MetricsClient implements it.
type Counter interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// recordCount sends one data point in the background.
func recordCount(counter Counter, metricName string, dimensions map[string]string) {
	if counter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = counter.RecordCount(ctx, metricName, dimensions)
	}()
}
