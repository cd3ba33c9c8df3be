// Package orchestrator drives the fixed deployment pipeline: it sequences the
// step executors, owns the persisted state machine, and reports progress over
// the event broker. Steps run strictly sequentially on one control-flow path;
// pause and cancel are cooperative and take effect at step (and gateway
// sub-step) boundaries.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/edgevision-ai/provision-backend/internal/logger"
	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/events"
	"github.com/edgevision-ai/provision-backend/pkg/resilience"
	"github.com/edgevision-ai/provision-backend/pkg/statemanager"
	"github.com/edgevision-ai/provision-backend/pkg/steps"
)

var (
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrDeploymentRunning  = errors.New("a deployment is already running")
)

// stepStateKey marks persistence failures on the error channel, distinct from
// step-logic failures.
const stepStateKey = "state"

// TaskRunner schedules the pipeline loop off the caller's goroutine so
// Start/Resume return immediately.
type TaskRunner interface {
	AddTask(task entities.Task)
}

type Option func(*Orchestrator)

func WithRetryOptions(opts resilience.RetryOptions) Option {
	return func(o *Orchestrator) { o.retry = opts }
}

func WithPropagationOptions(opts resilience.PropagationOptions) Option {
	return func(o *Orchestrator) { o.propagation = opts }
}

// Orchestrator is the deployment engine. One instance owns at most one active
// DeploymentState at a time; it is the single writer of that state.
type Orchestrator struct {
	states      *statemanager.StateManager
	clients     *cloud.Clients
	broker      *events.Broker
	tasks       TaskRunner
	retry       resilience.RetryOptions
	propagation resilience.PropagationOptions

	running   atomic.Bool
	paused    atomic.Bool
	cancelled atomic.Bool
}

func New(states *statemanager.StateManager, clients *cloud.Clients, broker *events.Broker, tasks TaskRunner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		states:  states,
		clients: clients,
		broker:  broker,
		tasks:   tasks,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Events exposes the broker so callers can subscribe before or after Start.
func (o *Orchestrator) Events() *events.Broker {
	return o.broker
}

// Start creates a fresh deployment state for the config (clearing any prior
// non-terminal state of the project) and schedules the pipeline loop. It
// returns the generated deployment id without waiting for any step.
func (o *Orchestrator) Start(ctx context.Context, config entities.DeploymentConfig) (string, error) {
	// Claim the run slot before touching state, so a concurrent Start cannot
	// clear the record this one is about to create.
	if !o.running.CompareAndSwap(false, true) {
		return "", ErrDeploymentRunning
	}

	state, err := o.states.CreateNewDeployment(config.ProjectID, config.Region, config)
	if err != nil {
		o.running.Store(false)
		return "", err
	}
	o.paused.Store(false)
	o.cancelled.Store(false)

	logger.Info("Deployment created",
		zap.String("deploymentId", state.DeploymentID),
		zap.String("projectId", config.ProjectID),
		zap.String("mode", string(config.Mode)))

	o.tasks.AddTask(func() { o.run(ctx) })
	return state.DeploymentID, nil
}

// Resume re-enters the pipeline loop at the last incomplete step of the
// active state. The caller must pass the deployment id it obtained from Start
// or CheckExistingDeployment; a mismatch is ErrDeploymentNotFound.
func (o *Orchestrator) Resume(ctx context.Context, deploymentID string) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrDeploymentRunning
	}

	state := o.states.GetState()
	if state == nil || state.DeploymentID != deploymentID {
		o.running.Store(false)
		return ErrDeploymentNotFound
	}
	o.paused.Store(false)
	o.cancelled.Store(false)

	logger.Info("Resuming deployment",
		zap.String("deploymentId", deploymentID),
		zap.String("currentStep", string(state.CurrentStep)))

	o.tasks.AddTask(func() { o.run(ctx) })
	return nil
}

// State returns a clone of the active deployment state, or nil.
func (o *Orchestrator) State() *entities.DeploymentState {
	return o.states.GetState()
}

// CheckExistingDeployment looks up a resumable state for the project so the
// caller can offer resume instead of restart.
func (o *Orchestrator) CheckExistingDeployment(projectID string) (*entities.DeploymentState, error) {
	return o.states.CheckExistingDeployment(projectID)
}

// Pause requests a pause. The in-flight step runs to its next boundary; a
// synthetic progress event acknowledges the request immediately.
func (o *Orchestrator) Pause() {
	o.paused.Store(true)
	o.broker.Progress(entities.DeploymentProgress{
		CurrentStep: entities.ProgressStepPaused,
		Message:     "Pause requested, waiting for the current step to reach a boundary",
	})
	o.broker.Log("Pause requested")
}

// Cancel abandons the deployment: the loop stops at the next boundary, the
// state is marked failed and cleared, and the run cannot be resumed.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
	if !o.running.Load() {
		o.finalizeCancel()
	}
}

// run executes the pipeline loop. The run slot was claimed by Start or Resume;
// releasing it here lets the next Start or Resume proceed.
func (o *Orchestrator) run(ctx context.Context) {
	defer o.running.Store(false)

	state := o.states.GetState()
	if state == nil {
		o.broker.Error(stepStateKey, "no active deployment state")
		return
	}

	pipeline := steps.BuildPipeline(state.Config)
	total := steps.TotalWeight(pipeline)
	completed := 0

	if err := o.states.UpdateState(statemanager.StateUpdate{Status: entities.DeploymentStatusRunning}); err != nil {
		o.persistFailure(err)
		return
	}

	for _, executor := range pipeline {
		key := executor.Key()
		weight := executor.Weight()

		if o.checkInterrupt(key) {
			return
		}

		if state.HasResult(key) {
			completed += weight
			o.broker.Progress(entities.DeploymentProgress{
				CurrentStep:   string(key),
				StepProgress:  100,
				TotalProgress: pct(completed, total),
				Message:       fmt.Sprintf("Step %s already complete", key),
			})
			continue
		}

		if err := o.states.UpdateState(statemanager.StateUpdate{
			Status:      entities.DeploymentStatusRunning,
			CurrentStep: key,
		}); err != nil {
			o.persistFailure(err)
			return
		}

		o.broker.Progress(entities.DeploymentProgress{
			CurrentStep:   string(key),
			StepProgress:  0,
			TotalProgress: pct(completed, total),
			Message:       fmt.Sprintf("Starting %s", key),
		})
		o.broker.Log(fmt.Sprintf("Starting step %s", key))

		base := completed
		ec := &steps.ExecContext{
			Config:  state.Config,
			Results: state.StepResults,
			Cloud:   o.clients,
			Report: func(progress int, message, subStep string) {
				o.broker.Progress(entities.DeploymentProgress{
					CurrentStep:   string(key),
					StepProgress:  progress,
					TotalProgress: pct(base+weight*progress/100, total),
					Message:       message,
					SubStep:       subStep,
				})
			},
			Interrupted: func() bool {
				return o.paused.Load() || o.cancelled.Load()
			},
			Retry:       o.retry,
			Propagation: o.propagation,
		}

		result, err := resilience.RetryWithBackoff(ctx, func() (entities.StepResult, error) {
			return executor.Run(ctx, ec)
		}, o.retry)
		if errors.Is(err, steps.ErrInterrupted) {
			if !o.checkInterrupt(key) {
				// Flag was cleared while the step unwound; treat as pause.
				o.pauseAt(key)
			}
			return
		}
		if err != nil {
			o.failStep(key, err)
			return
		}

		if err := o.states.UpdateState(statemanager.StateUpdate{
			CurrentStep: key,
			StepKey:     key,
			StepResult:  result,
		}); err != nil {
			o.persistFailure(err)
			return
		}
		state.StepResults[key] = result
		completed += weight

		o.broker.Progress(entities.DeploymentProgress{
			CurrentStep:   string(key),
			StepProgress:  100,
			TotalProgress: pct(completed, total),
			Message:       fmt.Sprintf("Completed %s", key),
		})
		o.broker.Log(fmt.Sprintf("Completed step %s", key))
	}

	result := o.buildResult(o.states.GetState())
	if err := o.states.UpdateState(statemanager.StateUpdate{Status: entities.DeploymentStatusCompleted}); err != nil {
		o.persistFailure(err)
		return
	}

	logger.Info("Deployment completed",
		zap.String("deploymentId", state.DeploymentID),
		zap.String("projectId", state.ProjectID))
	o.broker.Log("Deployment completed successfully")
	o.broker.Complete(result)

	if err := o.states.ClearState(); err != nil {
		logger.Error("Failed to clear deployment state after completion", zap.Error(err))
	}
}

// checkInterrupt handles a pending pause or cancel request at a step
// boundary. It returns true when the loop must stop.
func (o *Orchestrator) checkInterrupt(key entities.StepKey) bool {
	if o.cancelled.Load() {
		o.finalizeCancel()
		return true
	}
	if o.paused.Load() {
		o.pauseAt(key)
		return true
	}
	return false
}

func (o *Orchestrator) pauseAt(key entities.StepKey) {
	if err := o.states.UpdateState(statemanager.StateUpdate{Status: entities.DeploymentStatusPaused}); err != nil {
		o.persistFailure(err)
		return
	}
	logger.Info("Deployment paused", zap.String("step", string(key)))
	o.broker.Progress(entities.DeploymentProgress{
		CurrentStep: entities.ProgressStepPaused,
		Message:     fmt.Sprintf("Deployment paused at %s", key),
	})
	o.broker.Log(fmt.Sprintf("Deployment paused at %s", key))
}

func (o *Orchestrator) finalizeCancel() {
	if state := o.states.GetState(); state != nil {
		if err := o.states.UpdateState(statemanager.StateUpdate{Status: entities.DeploymentStatusFailed}); err != nil {
			logger.Error("Failed to persist cancelled status", zap.Error(err))
		}
		if err := o.states.ClearState(); err != nil {
			logger.Error("Failed to clear cancelled deployment", zap.Error(err))
		}
	}
	o.broker.Log("Deployment cancelled")
}

// failStep transitions to failed and reports the failure via the error
// channel. Errors never escape the public API as return values of the loop.
func (o *Orchestrator) failStep(key entities.StepKey, err error) {
	message := err.Error()
	if errors.Is(err, resilience.ErrPropagationTimeout) {
		message = fmt.Sprintf("%s; the resource may still be propagating, resuming in a few minutes is likely to succeed", message)
	}

	logger.Error("Step failed",
		zap.String("step", string(key)),
		zap.String("kind", cloud.KindOf(err).String()),
		zap.Error(err))

	if updateErr := o.states.UpdateState(statemanager.StateUpdate{
		Status:      entities.DeploymentStatusFailed,
		CurrentStep: key,
	}); updateErr != nil {
		logger.Error("Failed to persist failed status", zap.Error(updateErr))
	}

	o.broker.Error(string(key), message)
	o.broker.Log(fmt.Sprintf("Step %s failed: %s", key, message))
}

// persistFailure reports a persistence I/O failure, which is fatal to the
// current step: the engine cannot safely proceed without a durable record.
func (o *Orchestrator) persistFailure(err error) {
	logger.Error("Failed to persist deployment state", zap.Error(err))
	o.broker.Error(stepStateKey, err.Error())
}

func pct(completed, total int) int {
	if total <= 0 {
		return 100
	}
	return completed * 100 / total
}
