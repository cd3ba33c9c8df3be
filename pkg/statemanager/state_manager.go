// Package statemanager owns the persisted DeploymentState record: creation,
// merge-style mutation, lookup, and clearing. It enforces the
// one-active-deployment-per-project invariant and is the source of truth for
// resumability.
package statemanager

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

var ErrNoActiveDeployment = errors.New("no active deployment")

// Repository is the durable store behind the state manager. FindActiveByProject
// returns (nil, nil) when no non-terminal state exists for the project.
type Repository interface {
	Save(state *entities.DeploymentState) error
	FindActiveByProject(projectID string) (*entities.DeploymentState, error)
	Delete(state *entities.DeploymentState) error
}

// StateUpdate merges into the active record. Zero-valued fields are left
// untouched; StepKey and StepResult must be set together.
type StateUpdate struct {
	Status      entities.DeploymentStatus
	CurrentStep entities.StepKey
	StepKey     entities.StepKey
	StepResult  entities.StepResult
}

// StateManager serializes all access to the single active DeploymentState.
// Only the orchestrator mutates it; API queries are read-only clones.
type StateManager struct {
	mu     sync.Mutex
	repo   Repository
	active *entities.DeploymentState
}

func New(repo Repository) *StateManager {
	return &StateManager{repo: repo}
}

// CreateNewDeployment clears any prior non-terminal state for the project,
// then persists a fresh pending record with a generated deployment id.
func (m *StateManager) CreateNewDeployment(projectID, region string, config entities.DeploymentConfig) (*entities.DeploymentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.repo.FindActiveByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing deployment: %w", err)
	}
	if existing != nil {
		if err := m.repo.Delete(existing); err != nil {
			return nil, fmt.Errorf("failed to clear prior deployment state: %w", err)
		}
	}

	now := time.Now().UTC()
	state := &entities.DeploymentState{
		DeploymentID: uuid.NewString(),
		ProjectID:    projectID,
		Region:       region,
		Status:       entities.DeploymentStatusPending,
		StepResults:  make(map[entities.StepKey]entities.StepResult),
		Config:       config,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.repo.Save(state); err != nil {
		return nil, fmt.Errorf("failed to persist deployment state: %w", err)
	}
	m.active = state
	return state.Clone(), nil
}

// GetState returns the currently active state, or nil.
func (m *StateManager) GetState() *entities.DeploymentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active.Clone()
}

// CheckExistingDeployment looks up a resumable state for the project, caching
// it as the active record so a subsequent Resume can re-enter the loop.
func (m *StateManager) CheckExistingDeployment(projectID string) (*entities.DeploymentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.ProjectID == projectID {
		return m.active.Clone(), nil
	}
	state, err := m.repo.FindActiveByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up deployment for project %s: %w", projectID, err)
	}
	if state == nil {
		return nil, nil
	}
	if state.StepResults == nil {
		state.StepResults = make(map[entities.StepKey]entities.StepResult)
	}
	m.active = state
	return state.Clone(), nil
}

// UpdateState merges the update into the active record and persists it. The
// in-memory record is only committed once the save succeeds, so a failed write
// leaves the last durable state authoritative.
func (m *StateManager) UpdateState(update StateUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveDeployment
	}

	next := m.active.Clone()
	if update.Status != "" {
		next.Status = update.Status
	}
	if update.CurrentStep != "" {
		next.CurrentStep = update.CurrentStep
	}
	if update.StepKey != "" && update.StepResult != nil {
		next.StepResults[update.StepKey] = update.StepResult
	}
	next.UpdatedAt = time.Now().UTC()

	if err := m.repo.Save(next); err != nil {
		return fmt.Errorf("failed to persist deployment state: %w", err)
	}
	m.active = next
	return nil
}

// ClearState removes the active record, after a consumed terminal result or an
// explicit user reset.
func (m *StateManager) ClearState() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil
	}
	if err := m.repo.Delete(m.active); err != nil {
		return fmt.Errorf("failed to clear deployment state: %w", err)
	}
	m.active = nil
	return nil
}
