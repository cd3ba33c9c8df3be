package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/cloud/cloudtest"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/events"
	"github.com/edgevision-ai/provision-backend/pkg/resilience"
	"github.com/edgevision-ai/provision-backend/pkg/statemanager"
	"github.com/edgevision-ai/provision-backend/pkg/statemanager/statemanagertest"
)

// inlineRunner executes the pipeline loop on the caller's goroutine so tests
// observe a finished run as soon as Start returns.
type inlineRunner struct{}

func (inlineRunner) AddTask(task entities.Task) { task() }

// heldRunner queues tasks without running them, so tests can observe the
// window between scheduling and execution.
type heldRunner struct {
	tasks []entities.Task
}

func (r *heldRunner) AddTask(task entities.Task) { r.tasks = append(r.tasks, task) }

// asyncRunner executes tasks on their own goroutine and signals completion.
type asyncRunner struct {
	done chan struct{}
}

func newAsyncRunner() *asyncRunner {
	return &asyncRunner{done: make(chan struct{}, 1)}
}

func (r *asyncRunner) AddTask(task entities.Task) {
	go func() {
		task()
		r.done <- struct{}{}
	}()
}

func (r *asyncRunner) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline loop did not finish")
	}
}

// recorder drains a broker subscription into memory.
type recorder struct {
	broker *events.Broker
	ch     chan events.Event

	mu     sync.Mutex
	events []events.Event
	closed chan struct{}
}

func record(broker *events.Broker) *recorder {
	r := &recorder{broker: broker, ch: broker.Subscribe(), closed: make(chan struct{})}
	go func() {
		for event := range r.ch {
			r.mu.Lock()
			r.events = append(r.events, event)
			r.mu.Unlock()
		}
		close(r.closed)
	}()
	return r
}

func (r *recorder) stop() []events.Event {
	r.broker.Unsubscribe(r.ch)
	<-r.closed
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events
}

func completeEvent(t *testing.T, recorded []events.Event) *entities.DeploymentResult {
	t.Helper()
	for _, event := range recorded {
		if event.Type == events.EventComplete {
			return event.Result
		}
	}
	t.Fatal("no complete event recorded")
	return nil
}

func errorEvents(recorded []events.Event) []*entities.DeploymentError {
	var out []*entities.DeploymentError
	for _, event := range recorded {
		if event.Type == events.EventError {
			out = append(out, event.Error)
		}
	}
	return out
}

// progressOrder returns the step keys of progress events, deduplicating
// consecutive repeats.
func progressOrder(recorded []events.Event) []string {
	var out []string
	for _, event := range recorded {
		if event.Type != events.EventProgress {
			continue
		}
		step := event.Progress.CurrentStep
		if len(out) == 0 || out[len(out)-1] != step {
			out = append(out, step)
		}
	}
	return out
}

func fullConfig() entities.DeploymentConfig {
	return entities.DeploymentConfig{
		ProjectID:     "demo-project",
		Region:        "us-central1",
		Prefix:        "acme",
		Mode:          entities.DeploymentModeFull,
		AdminPassword: "hunter2",
		EnabledServices: entities.EnabledServices{
			Auth:             true,
			Firestore:        true,
			CloudFunctions:   true,
			ApiGateway:       true,
			WorkloadIdentity: true,
		},
	}
}

func fastOptions() []Option {
	return []Option{
		WithRetryOptions(resilience.RetryOptions{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}),
		WithPropagationOptions(resilience.PropagationOptions{Interval: time.Millisecond, Timeout: 100 * time.Millisecond}),
	}
}

func newEngine(tasks TaskRunner) (*Orchestrator, *cloudtest.Fake, *statemanagertest.MemoryRepository) {
	fake := cloudtest.NewFake()
	repo := statemanagertest.NewMemoryRepository()
	o := New(statemanager.New(repo), fake.Clients(), events.NewBroker(), tasks, fastOptions()...)
	return o, fake, repo
}

func TestFullDeploymentRunsAllSteps(t *testing.T) {
	o, fake, repo := newEngine(inlineRunner{})
	rec := record(o.Events())

	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	recorded := rec.stop()
	result := completeEvent(t, recorded)

	assert.True(t, result.Success)
	assert.Equal(t, id, result.DeploymentID)
	assert.Equal(t, "https://acme-gateway-abc123.us-central1.gateway.dev", result.GatewayURL)
	assert.Equal(t, "AIza-fake-demo-project", result.AccessKey)
	require.NotNil(t, result.Firebase)
	assert.Equal(t, "demo-project.firebaseapp.com", result.Firebase.AuthDomain)
	assert.Equal(t, "admin@demo-project.firebaseapp.com", result.AdminEmail)
	assert.Equal(t, "hunter2", result.AdminPassword)
	assert.Equal(t, "acme-device-auth-sa@demo-project.iam.gserviceaccount.com", result.Resources["deviceAuthSa"])
	assert.Equal(t, "acme-wif-pool", result.Resources["poolId"])

	// Progress moves through the pipeline in declared order.
	order := progressOrder(recorded)
	var steps []string
	for _, step := range order {
		if step != entities.ProgressStepPaused {
			steps = append(steps, step)
		}
	}
	assert.Equal(t, []string{
		"authenticate",
		"enableApis",
		"createFirebaseWebApp",
		"createServiceAccounts",
		"assignIamRoles",
		"setupFirestore",
		"deployCloudFunctions",
		"createApiGateway",
		"configureWorkloadIdentity",
	}, steps)

	assert.Empty(t, errorEvents(recorded))
	assert.Equal(t, 1, fake.CallCount("sa/acme-device-auth-sa"))
	assert.Equal(t, 1, fake.CallCount("function/acme-tvm"))
	assert.Equal(t, 1, fake.CallCount("gateway/acme-gateway"))

	// The terminal result was consumed, so no resumable record remains.
	assert.Zero(t, repo.Len())
	assert.Nil(t, o.states.GetState())
}

func TestSimpleAIDeployment(t *testing.T) {
	o, fake, _ := newEngine(inlineRunner{})
	rec := record(o.Events())

	config := fullConfig()
	config.Mode = entities.DeploymentModeSimpleAI

	_, err := o.Start(context.Background(), config)
	require.NoError(t, err)

	recorded := rec.stop()
	result := completeEvent(t, recorded)

	assert.Equal(t, "AIza-demo-acme-ai-key", result.AccessKey)
	assert.Empty(t, result.GatewayURL)
	assert.Nil(t, result.Firebase)
	assert.Zero(t, fake.CallCount("sa/acme-device-auth-sa"))
	assert.Equal(t, 1, fake.CallCount("apikey/acme-ai-key"))
}

func TestFailedStepThenResumeRunsOnlyRemainder(t *testing.T) {
	o, fake, repo := newEngine(inlineRunner{})
	fake.FailOn["EnsureAPIConfig"] = cloud.Fatal("apigateway.createConfig", errors.New("invalid spec"))

	rec := record(o.Events())
	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	recorded := rec.stop()

	failures := errorEvents(recorded)
	require.Len(t, failures, 1)
	assert.Equal(t, "createApiGateway", failures[0].Step)
	assert.Contains(t, failures[0].Message, "invalid spec")

	stored := repo.Stored(id)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DeploymentStatusFailed, stored.Status)
	assert.Equal(t, entities.StepCreateApiGateway, stored.CurrentStep)
	// The interrupted step recorded nothing; every earlier step did.
	assert.False(t, stored.HasResult(entities.StepCreateApiGateway))
	assert.True(t, stored.HasResult(entities.StepDeployCloudFunctions))
	assert.Equal(t, 1, fake.CallCount("service/acme-api.apigateway.demo-project.cloud.goog"))

	delete(fake.FailOn, "EnsureAPIConfig")
	rec = record(o.Events())
	require.NoError(t, o.Resume(context.Background(), id))
	recorded = rec.stop()

	result := completeEvent(t, recorded)
	assert.True(t, result.Success)

	// Completed steps were skipped, not re-executed.
	assert.Equal(t, 1, fake.CallCount("sa/acme-device-auth-sa"))
	assert.Equal(t, 1, fake.CallCount("sa/acme-tvm-sa"))
	assert.Equal(t, 1, fake.CallCount("function/acme-device-auth"))
	assert.Equal(t, 1, fake.CallCount("webapp/acme-web"))
	assert.Equal(t, 1, fake.CallCount("service/acme-api.apigateway.demo-project.cloud.goog"))
	assert.Equal(t, 1, fake.CallCount("gateway/acme-gateway"))
}

func TestResumeUnknownDeployment(t *testing.T) {
	o, _, _ := newEngine(inlineRunner{})
	err := o.Resume(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrDeploymentNotFound)
}

func TestStartRejectedWhileRunning(t *testing.T) {
	runner := newAsyncRunner()
	o, fake, _ := newEngine(runner)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake.Hooks["EnsureServiceAccount"] = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	_, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	<-entered

	_, err = o.Start(context.Background(), fullConfig())
	assert.ErrorIs(t, err, ErrDeploymentRunning)
	assert.ErrorIs(t, o.Resume(context.Background(), "whatever"), ErrDeploymentRunning)

	close(release)
	runner.wait(t)
}

func TestStartClaimsRunSlotBeforeScheduling(t *testing.T) {
	runner := &heldRunner{}
	o, _, repo := newEngine(runner)

	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)

	// The loop has not executed yet; a second Start must still be rejected and
	// must not clear the first run's record.
	_, err = o.Start(context.Background(), fullConfig())
	assert.ErrorIs(t, err, ErrDeploymentRunning)
	assert.ErrorIs(t, o.Resume(context.Background(), id), ErrDeploymentRunning)
	require.NotNil(t, repo.Stored(id))
	assert.Equal(t, 1, repo.Len())

	require.Len(t, runner.tasks, 1)
	runner.tasks[0]()
	assert.Zero(t, repo.Len())
}

func TestPersistenceFailureEmitsStateErrorEvent(t *testing.T) {
	o, fake, repo := newEngine(inlineRunner{})

	// The write that fails is the one recording the step's result, after the
	// service accounts were already created.
	fake.Hooks["EnsureServiceAccount"] = func() { repo.FailNextSave = errors.New("disk full") }

	rec := record(o.Events())
	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	recorded := rec.stop()

	failures := errorEvents(recorded)
	require.Len(t, failures, 1)
	assert.Equal(t, "state", failures[0].Step)
	assert.Contains(t, failures[0].Message, "disk full")
	for _, event := range recorded {
		require.NotEqual(t, events.EventComplete, event.Type)
	}

	// The durable record never saw the unpersistable result, and the loop
	// halted before the next step.
	stored := repo.Stored(id)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DeploymentStatusRunning, stored.Status)
	assert.Equal(t, entities.StepCreateServiceAccounts, stored.CurrentStep)
	assert.False(t, stored.HasResult(entities.StepCreateServiceAccounts))
	assert.Zero(t, fake.CallCount("binding/serviceAccount:acme-device-auth-sa@demo-project.iam.gserviceaccount.com|roles/firebaseauth.admin"))
}

func TestPauseAtStepBoundaryThenResume(t *testing.T) {
	runner := newAsyncRunner()
	o, fake, repo := newEngine(runner)

	// Request the pause while the function deploy is in flight. The step must
	// still run to completion before the loop stops.
	fake.Hooks["EnsureFunction"] = func() { o.Pause() }

	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	runner.wait(t)

	stored := repo.Stored(id)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DeploymentStatusPaused, stored.Status)
	assert.True(t, stored.HasResult(entities.StepDeployCloudFunctions))
	assert.False(t, stored.HasResult(entities.StepCreateApiGateway))
	assert.Zero(t, fake.CallCount("gateway/acme-gateway"))

	delete(fake.Hooks, "EnsureFunction")
	rec := record(o.Events())
	require.NoError(t, o.Resume(context.Background(), id))
	runner.wait(t)

	result := completeEvent(t, rec.stop())
	assert.True(t, result.Success)
	assert.Equal(t, 1, fake.CallCount("function/acme-device-auth"))
	assert.Equal(t, 1, fake.CallCount("gateway/acme-gateway"))
}

func TestCancelStopsAndClearsState(t *testing.T) {
	runner := newAsyncRunner()
	o, fake, repo := newEngine(runner)

	fake.Hooks["EnsureServiceAccount"] = func() { o.Cancel() }

	_, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	runner.wait(t)

	assert.Zero(t, repo.Len())
	assert.Nil(t, o.states.GetState())
	// The loop stopped before role assignment.
	assert.Zero(t, fake.CallCount("binding/serviceAccount:acme-device-auth-sa@demo-project.iam.gserviceaccount.com|roles/firebaseauth.admin"))
}

func TestPropagationTimeoutSuggestsResume(t *testing.T) {
	o, fake, repo := newEngine(inlineRunner{})
	fake.PropagationProbes = 1 << 20

	rec := record(o.Events())
	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)
	recorded := rec.stop()

	failures := errorEvents(recorded)
	require.Len(t, failures, 1)
	assert.Equal(t, "assignIamRoles", failures[0].Step)
	assert.Contains(t, failures[0].Message, "resuming")

	stored := repo.Stored(id)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DeploymentStatusFailed, stored.Status)
	assert.False(t, stored.HasResult(entities.StepAssignIamRoles))
}

func TestSkippedStepsReannouncedOnResume(t *testing.T) {
	o, fake, _ := newEngine(inlineRunner{})
	fake.FailOn["EnsureDatabase"] = cloud.Fatal("firestore.create", errors.New("region mismatch"))

	id, err := o.Start(context.Background(), fullConfig())
	require.NoError(t, err)

	delete(fake.FailOn, "EnsureDatabase")
	rec := record(o.Events())
	require.NoError(t, o.Resume(context.Background(), id))
	recorded := rec.stop()

	// Completed steps show up once each at 100% before the pipeline continues.
	var reannounced []string
	for _, event := range recorded {
		if event.Type != events.EventProgress {
			continue
		}
		if event.Progress.StepProgress == 100 && event.Progress.Message == "Step "+event.Progress.CurrentStep+" already complete" {
			reannounced = append(reannounced, event.Progress.CurrentStep)
		}
	}
	assert.Equal(t, []string{
		"authenticate",
		"enableApis",
		"createFirebaseWebApp",
		"createServiceAccounts",
		"assignIamRoles",
	}, reannounced)
	completeEvent(t, recorded)
}
