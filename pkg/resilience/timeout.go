package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the application's timeout hierarchy, outermost to
// innermost: HTTP handler > service operation > external gateway call.
// Each layer completes before its parent times out, preventing cascading
// timeout failures.
type TimeoutConfig struct {
	HTTPHandler time.Duration // overall request timeout
	Service     time.Duration // service operation timeout (must be < HTTPHandler)
	ExternalAPI time.Duration // outbound gateway calls
	Database    time.Duration // individual store operations
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 60 * time.Second,
		Service:     50 * time.Second,
		ExternalAPI: 30 * time.Second,
		Database:    5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Service:     4 * time.Second,
		ExternalAPI: 2 * time.Second,
		Database:    1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// ExternalAPIContext creates a context for outbound gateway calls
func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}

// DatabaseContext creates a context for individual store operations
func (tc *TimeoutConfig) DatabaseContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Database)
}
