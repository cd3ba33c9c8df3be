package dtos

import (
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/edgevision-ai/provision-backend/internal/logger"
	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

var (
	projectIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{4,28}[a-z0-9]$`)
	regionRegex    = regexp.MustCompile(`^[a-z]+-[a-z]+[0-9]$`)
)

type StartDeploymentRequest struct {
	ProjectID       string                   `json:"projectId"     binding:"required"`
	Region          string                   `json:"region"        binding:"required"`
	Prefix          string                   `json:"prefix"        binding:"required"`
	Mode            string                   `json:"mode"`
	EnabledServices entities.EnabledServices `json:"enabledServices"`
	AdminPassword   string                   `json:"adminPassword"`
	LicenseKey      string                   `json:"licenseKey"`
	CustomerID      string                   `json:"customerId"`
}

func (request *StartDeploymentRequest) Validate() error {
	if !projectIDRegex.MatchString(request.ProjectID) {
		logger.Error("invalid projectId", zap.String("projectId", request.ProjectID))
		return errors.New("invalid projectId, must be a valid cloud project id (6-30 lowercase letters, digits, hyphens)")
	}

	if !regionRegex.MatchString(request.Region) {
		logger.Error("invalid region", zap.String("region", request.Region))
		return errors.New("invalid region, expected a region id such as us-central1")
	}

	if utils.NormalizePrefix(request.Prefix) == "" {
		logger.Error("invalid prefix", zap.String("prefix", request.Prefix))
		return errors.New("invalid prefix, must contain at least one letter or digit")
	}

	switch request.Mode {
	case "", string(entities.DeploymentModeFull), string(entities.DeploymentModeSimpleAI):
	default:
		logger.Error("invalid mode", zap.String("mode", request.Mode))
		return errors.New("invalid mode, must be full or simpleAi")
	}

	if request.mode() == entities.DeploymentModeFull && request.EnabledServices.Auth {
		if len(request.AdminPassword) < 8 {
			return errors.New("adminPassword must be at least 8 characters when auth is enabled")
		}
	}

	return nil
}

func (request *StartDeploymentRequest) mode() entities.DeploymentMode {
	if request.Mode == string(entities.DeploymentModeSimpleAI) {
		return entities.DeploymentModeSimpleAI
	}
	return entities.DeploymentModeFull
}

func (request *StartDeploymentRequest) ToConfig() entities.DeploymentConfig {
	return entities.DeploymentConfig{
		ProjectID:       request.ProjectID,
		Region:          request.Region,
		Prefix:          utils.NormalizePrefix(request.Prefix),
		Mode:            request.mode(),
		EnabledServices: request.EnabledServices,
		AdminPassword:   request.AdminPassword,
		LicenseKey:      request.LicenseKey,
		CustomerID:      request.CustomerID,
	}
}
