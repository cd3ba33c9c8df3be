// Package keyring stores the active deployment state in the OS keychain, the
// local encrypted key-value store used when the backend runs next to the
// installer UI instead of against Postgres.
package keyring

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

const defaultService = "provision-backend"

// StateStore implements statemanager.Repository over the OS keychain. One
// entry per project keeps the single-active-deployment-per-project invariant
// structural: a new Save for the same project overwrites the old record.
type StateStore struct {
	service string
}

func NewStateStore(service string) *StateStore {
	if service == "" {
		service = defaultService
	}
	return &StateStore{service: service}
}

func (s *StateStore) Save(state *entities.DeploymentState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment state: %w", err)
	}
	if err := keyring.Set(s.service, state.ProjectID, string(payload)); err != nil {
		return fmt.Errorf("failed to write deployment state to keychain: %w", err)
	}
	return nil
}

func (s *StateStore) FindActiveByProject(projectID string) (*entities.DeploymentState, error) {
	payload, err := keyring.Get(s.service, projectID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment state from keychain: %w", err)
	}
	var state entities.DeploymentState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment state: %w", err)
	}
	if state.Status.Terminal() {
		return nil, nil
	}
	if state.StepResults == nil {
		state.StepResults = make(map[entities.StepKey]entities.StepResult)
	}
	return &state, nil
}

func (s *StateStore) Delete(state *entities.DeploymentState) error {
	err := keyring.Delete(s.service, state.ProjectID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete deployment state from keychain: %w", err)
	}
	return nil
}
