// Package steps defines the uniform step-executor contract and the fixed
// deployment pipelines. Every executor is idempotent: re-invoking it against a
// partially-completed prior attempt detects existing resources by their
// deterministic, prefix-derived names instead of failing on conflicts.
package steps

import (
	"context"
	"errors"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/resilience"
)

// ErrInterrupted is returned by an executor that observed a pause or cancel
// request at an internal sub-step boundary. The step's result is not recorded;
// resume re-runs the whole step.
var ErrInterrupted = errors.New("step interrupted at sub-step boundary")

// ExecContext carries everything an executor may depend on: the immutable
// config, prior step outputs, the cloud collaborators, and callbacks back into
// the orchestrator.
type ExecContext struct {
	Config  entities.DeploymentConfig
	Results map[entities.StepKey]entities.StepResult
	Cloud   *cloud.Clients

	// Report publishes progress within the step (0-100), with an optional
	// sub-step key and free-text detail.
	Report func(stepProgress int, message, subStep string)

	// Interrupted reports whether a pause or cancel request is pending.
	// Long steps consult it between sub-steps.
	Interrupted func() bool

	// Retry and Propagation are the engine-wide resilience settings.
	Retry       resilience.RetryOptions
	Propagation resilience.PropagationOptions
}

func (ec *ExecContext) report(progress int, message, subStep string) {
	if ec.Report != nil {
		ec.Report(progress, message, subStep)
	}
}

func (ec *ExecContext) interrupted() bool {
	return ec.Interrupted != nil && ec.Interrupted()
}

// Executor is one unit of the deployment pipeline.
type Executor interface {
	Key() entities.StepKey
	// Weight is the step's relative share of total progress.
	Weight() int
	Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error)
}

// resultString pulls a field out of a prior step's recorded output. A missing
// result or field is a configuration error: the pipeline order guarantees the
// producing step ran first, so absence means the state was tampered with or
// the pipeline was misassembled.
func resultString(ec *ExecContext, step entities.StepKey, field string) (string, error) {
	result, ok := ec.Results[step]
	if !ok {
		return "", cloud.Configf(string(step), "missing result for step %q", step)
	}
	value, ok := result[field].(string)
	if !ok || value == "" {
		return "", cloud.Configf(string(step), "result for step %q has no %q", step, field)
	}
	return value, nil
}
