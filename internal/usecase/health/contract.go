package health

import "context"

// CachePinger checks fit cache backend availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// TemplateChecker checks that the template library is loaded and usable.
type TemplateChecker interface {
	HealthCheck(ctx context.Context) error
}
