// Package classify decides the effective cause of a stop record and
// whether it counts as a micro-stop. The same classification runs at
// creation and at every update touching start/stop/cause, re-deriving
// everything from scratch.
package classify

import (
	"context"
	"strings"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/shift"
)

// CauseLookup resolves a cause code against durable storage. A missing
// cause is reported as (nil, nil), not as an error.
type CauseLookup interface {
	FindCauseByCode(ctx context.Context, code string) (*model.Cause, error)
}

// Result is the outcome of classifying one candidate stop.
type Result struct {
	// Cause is the effective cause after the micro-stop override and
	// default-cause substitution.
	Cause *model.Cause
	// IsMicro reports whether the stop fell under the micro-stop
	// threshold and was reassigned to the reserved cause.
	IsMicro bool
	// DurationSeconds is nil while the stop is open.
	DurationSeconds *int
}

// Classifier applies the configured stop-classification policy.
type Classifier struct {
	policy config.ClassifierConfig
	causes CauseLookup
}

// New creates a Classifier for the given policy and cause lookup.
func New(policy config.ClassifierConfig, causes CauseLookup) *Classifier {
	return &Classifier{policy: policy, causes: causes}
}

// Threshold returns the configured micro-stop threshold in seconds.
func (c *Classifier) Threshold() int {
	return c.policy.MicroStopThresholdSeconds
}

// NonConsideredCode returns the reserved cause code micro-stops are
// reassigned to.
func (c *Classifier) NonConsideredCode() string {
	return c.policy.NonConsideredCauseCode
}

// Classify derives the effective cause for a candidate stop.
//
// A micro-stop (known duration strictly below the threshold) is
// assigned the reserved non-considered cause regardless of the
// supplied code; that cause must be provisioned or classification
// fails with a configuration error. Any other stop needs an existing
// supplied cause, falling back to the configured default cause when
// one is set.
func (c *Classifier) Classify(ctx context.Context, startSec int, stopSec *int, suppliedCode string) (Result, error) {
	duration := shift.Duration(startSec, stopSec)

	if shift.IsMicro(duration, c.policy.MicroStopThresholdSeconds) {
		reserved, err := c.causes.FindCauseByCode(ctx, c.policy.NonConsideredCauseCode)
		if err != nil {
			return Result{}, err
		}
		if reserved == nil {
			return Result{}, apperr.Configurationf(
				"reserved non-considered cause %q is not provisioned", c.policy.NonConsideredCauseCode)
		}
		return Result{Cause: reserved, IsMicro: true, DurationSeconds: duration}, nil
	}

	code := strings.TrimSpace(suppliedCode)
	if code == "" {
		if c.policy.DefaultCauseCode == "" {
			return Result{}, apperr.Validationf("cause required")
		}
		code = c.policy.DefaultCauseCode
		cause, err := c.causes.FindCauseByCode(ctx, code)
		if err != nil {
			return Result{}, err
		}
		if cause == nil {
			return Result{}, apperr.Configurationf("default cause %q is not provisioned", code)
		}
		return Result{Cause: cause, DurationSeconds: duration}, nil
	}

	cause, err := c.causes.FindCauseByCode(ctx, code)
	if err != nil {
		return Result{}, err
	}
	if cause == nil {
		return Result{}, apperr.Validationf("unknown cause %q", code)
	}
	return Result{Cause: cause, DurationSeconds: duration}, nil
}
