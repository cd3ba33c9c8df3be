package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

func keys(pipeline []Executor) []entities.StepKey {
	out := make([]entities.StepKey, len(pipeline))
	for i, executor := range pipeline {
		out[i] = executor.Key()
	}
	return out
}

func TestBuildPipelineFullMode(t *testing.T) {
	pipeline := BuildPipeline(entities.DeploymentConfig{
		Mode: entities.DeploymentModeFull,
		EnabledServices: entities.EnabledServices{
			Auth:             true,
			Firestore:        true,
			CloudFunctions:   true,
			ApiGateway:       true,
			WorkloadIdentity: true,
		},
	})

	assert.Equal(t, []entities.StepKey{
		entities.StepAuthenticate,
		entities.StepEnableApis,
		entities.StepCreateFirebaseWebApp,
		entities.StepCreateServiceAccounts,
		entities.StepAssignIamRoles,
		entities.StepSetupFirestore,
		entities.StepDeployCloudFunctions,
		entities.StepCreateApiGateway,
		entities.StepConfigureWorkloadIdentity,
	}, keys(pipeline))
	assert.Positive(t, TotalWeight(pipeline))
}

func TestBuildPipelineSimpleAIMode(t *testing.T) {
	pipeline := BuildPipeline(entities.DeploymentConfig{Mode: entities.DeploymentModeSimpleAI})

	assert.Equal(t, []entities.StepKey{
		entities.StepAuthenticate,
		entities.StepEnableApis,
		entities.StepCreateApiKey,
	}, keys(pipeline))
}

func TestBuildPipelineDropsDisabledSubsystems(t *testing.T) {
	pipeline := BuildPipeline(entities.DeploymentConfig{
		Mode: entities.DeploymentModeFull,
		EnabledServices: entities.EnabledServices{
			CloudFunctions: true,
		},
	})

	got := keys(pipeline)
	require.NotContains(t, got, entities.StepCreateFirebaseWebApp)
	require.NotContains(t, got, entities.StepSetupFirestore)
	require.NotContains(t, got, entities.StepCreateApiGateway)
	require.NotContains(t, got, entities.StepConfigureWorkloadIdentity)
	assert.Contains(t, got, entities.StepDeployCloudFunctions)
	assert.Contains(t, got, entities.StepCreateServiceAccounts)
}

func TestRequiredAPIsByMode(t *testing.T) {
	simple := requiredAPIs(entities.DeploymentConfig{Mode: entities.DeploymentModeSimpleAI})
	assert.Equal(t, []string{"generativelanguage.googleapis.com"}, simple)

	full := requiredAPIs(entities.DeploymentConfig{
		Mode: entities.DeploymentModeFull,
		EnabledServices: entities.EnabledServices{
			Auth:             true,
			Firestore:        true,
			CloudFunctions:   true,
			ApiGateway:       true,
			WorkloadIdentity: true,
		},
	})
	assert.Contains(t, full, "iam.googleapis.com")
	assert.Contains(t, full, "apigateway.googleapis.com")
	assert.Contains(t, full, "firestore.googleapis.com")
	assert.Contains(t, full, "sts.googleapis.com")
	assert.NotContains(t, full, "generativelanguage.googleapis.com")
}
