// Package statemanagertest provides an in-memory Repository for tests.
package statemanagertest

import (
	"sync"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// MemoryRepository keeps states in a map. FailNextSave simulates a persistence
// I/O failure on the next Save call.
type MemoryRepository struct {
	mu           sync.Mutex
	states       map[string]*entities.DeploymentState
	FailNextSave error
	SaveCount    int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string]*entities.DeploymentState)}
}

func (r *MemoryRepository) Save(state *entities.DeploymentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCount++
	if r.FailNextSave != nil {
		err := r.FailNextSave
		r.FailNextSave = nil
		return err
	}
	r.states[state.DeploymentID] = state.Clone()
	return nil
}

func (r *MemoryRepository) FindActiveByProject(projectID string) (*entities.DeploymentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, state := range r.states {
		if state.ProjectID == projectID && !state.Status.Terminal() {
			return state.Clone(), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Delete(state *entities.DeploymentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state.DeploymentID)
	return nil
}

// Stored returns the persisted copy of the given deployment, or nil.
func (r *MemoryRepository) Stored(deploymentID string) *entities.DeploymentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[deploymentID].Clone()
}

// Len reports how many records are persisted.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
