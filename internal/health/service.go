package health

import "context"

// Service tracks process liveness against the root context: once that
// context is cancelled the probe reports shutting down.
type Service struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a health service tied to the given root context.
func NewService(ctx context.Context) *Service {
	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Shutdown marks the service as shutting down.
func (s *Service) Shutdown() {
	s.cancel()
}

// IsShuttingDown reports whether shutdown has begun.
func (s *Service) IsShuttingDown() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}
