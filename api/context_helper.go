package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// AnalysisTimeout bounds an on-demand case analysis, which waits on the model
const AnalysisTimeout = 2 * time.Minute

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, QueryTimeout)
}

// WithAnalysisTimeout creates a context bounded by AnalysisTimeout
func WithAnalysisTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(parent, AnalysisTimeout)
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}
