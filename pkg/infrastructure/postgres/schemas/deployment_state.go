package schemas

import (
	"time"

	"gorm.io/datatypes"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

type DeploymentState struct {
	DeploymentID string                    `gorm:"type:uuid;primaryKey;column:deployment_id"`
	ProjectID    string                    `gorm:"column:project_id;index;not null"`
	Region       string                    `gorm:"column:region;not null"`
	Status       entities.DeploymentStatus `gorm:"column:status;not null"`
	CurrentStep  string                    `gorm:"column:current_step"`
	StepResults  datatypes.JSON            `gorm:"type:jsonb;column:step_results"`
	Config       datatypes.JSON            `gorm:"type:jsonb;not null;column:config"`
	CreatedAt    time.Time                 `gorm:"column:created_at"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at"`
}

func (DeploymentState) TableName() string {
	return "deployment_states"
}
