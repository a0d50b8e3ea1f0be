// Package retry runs startup steps that depend on services which may still be
// coming up (Postgres, Redis).
package retry

import (
	"context"
	"fmt"
	"time"

	"dealflow_backend/platform/logger"
)

// Policy bounds a retry loop. The wait before attempt n+1 is n*n*BaseDelay.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Startup is used for dependencies the process cannot run without.
var Startup = Policy{Attempts: 5, BaseDelay: 2 * time.Second}

// Do calls fn until it succeeds, the attempts run out or ctx ends. The last
// error is returned wrapped with name.
func Do(ctx context.Context, log *logger.Logger, name string, p Policy, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		return fmt.Errorf("%s: attempts must be positive", name)
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if log != nil {
			log.Warn("startup step failed", "step", name, "attempt", attempt, "of", p.Attempts, "error", lastErr)
		}
		if attempt == p.Attempts {
			break
		}

		timer := time.NewTimer(time.Duration(attempt*attempt) * p.BaseDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
