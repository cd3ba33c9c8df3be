package dtos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

func validRequest() StartDeploymentRequest {
	return StartDeploymentRequest{
		ProjectID:     "demo-project",
		Region:        "us-central1",
		Prefix:        "Acme Cameras",
		Mode:          "full",
		AdminPassword: "correct-horse",
		EnabledServices: entities.EnabledServices{
			Auth:      true,
			Firestore: true,
		},
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	request := validRequest()
	require.NoError(t, request.Validate())
}

func TestValidateRejectsBadProjectID(t *testing.T) {
	for _, projectID := range []string{"Demo", "ab", "demo_project", "-demo", "demo-"} {
		request := validRequest()
		request.ProjectID = projectID
		assert.Error(t, request.Validate(), "projectId %q", projectID)
	}
}

func TestValidateRejectsBadRegion(t *testing.T) {
	request := validRequest()
	request.Region = "nowhere"
	assert.Error(t, request.Validate())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	request := validRequest()
	request.Mode = "turbo"
	assert.Error(t, request.Validate())
}

func TestValidateRequiresAdminPasswordWithAuth(t *testing.T) {
	request := validRequest()
	request.AdminPassword = "short"
	assert.Error(t, request.Validate())

	// No auth, no password needed.
	request.EnabledServices.Auth = false
	assert.NoError(t, request.Validate())

	// Simple AI mode never provisions auth.
	request = validRequest()
	request.Mode = "simpleAi"
	request.AdminPassword = ""
	assert.NoError(t, request.Validate())
}

func TestToConfigNormalizesPrefixAndDefaultsMode(t *testing.T) {
	request := validRequest()
	request.Mode = ""

	config := request.ToConfig()
	assert.Equal(t, "acme-cameras", config.Prefix)
	assert.Equal(t, entities.DeploymentModeFull, config.Mode)
	assert.Equal(t, "demo-project", config.ProjectID)
	assert.True(t, config.EnabledServices.Auth)
}
