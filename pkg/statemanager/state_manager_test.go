package statemanager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/statemanager/statemanagertest"
)

func testConfig(projectID string) entities.DeploymentConfig {
	return entities.DeploymentConfig{
		ProjectID: projectID,
		Region:    "us-central1",
		Prefix:    "acme",
		Mode:      entities.DeploymentModeFull,
	}
}

func TestCreateNewDeploymentPersistsPendingState(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()
	mgr := New(repo)

	state, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	assert.NotEmpty(t, state.DeploymentID)
	assert.Equal(t, entities.DeploymentStatusPending, state.Status)
	assert.Equal(t, "demo-proj", state.ProjectID)
	assert.NotNil(t, state.StepResults)

	stored := repo.Stored(state.DeploymentID)
	require.NotNil(t, stored)
	assert.Equal(t, entities.DeploymentStatusPending, stored.Status)
}

func TestCreateNewDeploymentClearsPriorNonTerminalState(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()
	mgr := New(repo)

	first, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	second, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	assert.NotEqual(t, first.DeploymentID, second.DeploymentID)
	assert.Nil(t, repo.Stored(first.DeploymentID), "prior non-terminal state must be cleared")
	assert.Equal(t, 1, repo.Len())
}

func TestUpdateStateMergesAndBumpsUpdatedAt(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()
	mgr := New(repo)

	state, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	err = mgr.UpdateState(StateUpdate{
		Status:      entities.DeploymentStatusRunning,
		CurrentStep: entities.StepAuthenticate,
		StepKey:     entities.StepAuthenticate,
		StepResult:  entities.StepResult{"account": "installer@demo"},
	})
	require.NoError(t, err)

	got := mgr.GetState()
	assert.Equal(t, entities.DeploymentStatusRunning, got.Status)
	assert.Equal(t, entities.StepAuthenticate, got.CurrentStep)
	assert.Equal(t, "installer@demo", got.StepResults[entities.StepAuthenticate]["account"])
	assert.False(t, got.UpdatedAt.Before(state.CreatedAt))

	// Merging another step never drops earlier results.
	err = mgr.UpdateState(StateUpdate{
		CurrentStep: entities.StepEnableApis,
		StepKey:     entities.StepEnableApis,
		StepResult:  entities.StepResult{"enabledApis": 3},
	})
	require.NoError(t, err)
	got = mgr.GetState()
	assert.Len(t, got.StepResults, 2)
}

func TestUpdateStateFailedSaveKeepsDurableRecordAuthoritative(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()
	mgr := New(repo)

	state, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	repo.FailNextSave = errors.New("disk full")
	err = mgr.UpdateState(StateUpdate{
		StepKey:    entities.StepAuthenticate,
		StepResult: entities.StepResult{"account": "x"},
	})
	require.Error(t, err)

	// The in-memory view must match the last durable write: the step result
	// is treated as not recorded, so resume re-executes the step.
	got := mgr.GetState()
	assert.False(t, got.HasResult(entities.StepAuthenticate))
	stored := repo.Stored(state.DeploymentID)
	assert.False(t, stored.HasResult(entities.StepAuthenticate))
}

func TestUpdateStateWithoutActiveDeployment(t *testing.T) {
	mgr := New(statemanagertest.NewMemoryRepository())
	err := mgr.UpdateState(StateUpdate{Status: entities.DeploymentStatusRunning})
	assert.ErrorIs(t, err, ErrNoActiveDeployment)
}

func TestCheckExistingDeploymentLoadsFromRepository(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()

	seeded := New(repo)
	state, err := seeded.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	// Fresh manager simulates a process restart.
	mgr := New(repo)
	assert.Nil(t, mgr.GetState())

	found, err := mgr.CheckExistingDeployment("demo-proj")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, state.DeploymentID, found.DeploymentID)

	// Now cached as the active record.
	assert.NotNil(t, mgr.GetState())

	missing, err := mgr.CheckExistingDeployment("other-proj")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClearState(t *testing.T) {
	repo := statemanagertest.NewMemoryRepository()
	mgr := New(repo)

	_, err := mgr.CreateNewDeployment("demo-proj", "us-central1", testConfig("demo-proj"))
	require.NoError(t, err)

	require.NoError(t, mgr.ClearState())
	assert.Nil(t, mgr.GetState())
	assert.Equal(t, 0, repo.Len())

	// Clearing twice is a no-op.
	require.NoError(t, mgr.ClearState())
}
