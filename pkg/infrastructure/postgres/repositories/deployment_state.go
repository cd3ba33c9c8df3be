package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/infrastructure/postgres/schemas"
)

var nonTerminalStatuses = []entities.DeploymentStatus{
	entities.DeploymentStatusPending,
	entities.DeploymentStatusRunning,
	entities.DeploymentStatusPaused,
}

type DeploymentStateRepository struct {
	db *gorm.DB
}

func NewDeploymentStateRepository(db *gorm.DB) *DeploymentStateRepository {
	return &DeploymentStateRepository{db: db}
}

func (r *DeploymentStateRepository) Save(state *entities.DeploymentState) error {
	row, err := toRow(state)
	if err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "deployment_id"}},
		UpdateAll: true,
	}).Create(row).Error
}

func (r *DeploymentStateRepository) FindActiveByProject(projectID string) (*entities.DeploymentState, error) {
	var row schemas.DeploymentState
	err := r.db.
		Where("project_id = ? AND status IN ?", projectID, nonTerminalStatuses).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toEntity(&row)
}

func (r *DeploymentStateRepository) Delete(state *entities.DeploymentState) error {
	return r.db.
		Where("deployment_id = ?", state.DeploymentID).
		Delete(&schemas.DeploymentState{}).Error
}

func toRow(state *entities.DeploymentState) (*schemas.DeploymentState, error) {
	results, err := json.Marshal(state.StepResults)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step results: %w", err)
	}
	config, err := json.Marshal(state.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deployment config: %w", err)
	}
	return &schemas.DeploymentState{
		DeploymentID: state.DeploymentID,
		ProjectID:    state.ProjectID,
		Region:       state.Region,
		Status:       state.Status,
		CurrentStep:  string(state.CurrentStep),
		StepResults:  datatypes.JSON(results),
		Config:       datatypes.JSON(config),
		CreatedAt:    state.CreatedAt,
		UpdatedAt:    state.UpdatedAt,
	}, nil
}

func toEntity(row *schemas.DeploymentState) (*entities.DeploymentState, error) {
	state := &entities.DeploymentState{
		DeploymentID: row.DeploymentID,
		ProjectID:    row.ProjectID,
		Region:       row.Region,
		Status:       row.Status,
		CurrentStep:  entities.StepKey(row.CurrentStep),
		StepResults:  make(map[entities.StepKey]entities.StepResult),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.StepResults) > 0 {
		if err := json.Unmarshal(row.StepResults, &state.StepResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step results: %w", err)
		}
	}
	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &state.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal deployment config: %w", err)
		}
	}
	return state, nil
}
