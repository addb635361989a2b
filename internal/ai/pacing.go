package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// pacedRuntime spaces calls to the wrapped runtime. It only delays; failed
// calls are never repeated.
type pacedRuntime struct {
	next    Runtime
	limiter *rate.Limiter
}

// Paced wraps rt so that at most rpm requests start per minute.
// rpm <= 0 returns rt unchanged.
func Paced(rt Runtime, rpm int) Runtime {
	if rpm <= 0 || rt == nil {
		return rt
	}
	return &pacedRuntime{next: rt, limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)}
}

func (p *pacedRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}
	return p.next.Generate(ctx, req)
}
