package orchestrator

import (
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// buildResult assembles the terminal DeploymentResult from the recorded step
// outputs. Missing fields are simply omitted; a subsystem that was disabled
// never recorded a result.
func (o *Orchestrator) buildResult(state *entities.DeploymentState) entities.DeploymentResult {
	result := entities.DeploymentResult{
		Success:      true,
		DeploymentID: state.DeploymentID,
		ProjectID:    state.ProjectID,
		Resources:    map[string]string{},
	}

	if state.Config.Mode == entities.DeploymentModeSimpleAI {
		result.AccessKey = stringField(state, entities.StepCreateApiKey, "apiKey")
		return result
	}

	result.GatewayURL = stringField(state, entities.StepCreateApiGateway, "gatewayUrl")

	if web, ok := state.StepResults[entities.StepCreateFirebaseWebApp]; ok {
		result.AccessKey, _ = web["apiKey"].(string)
		result.Firebase = &entities.FirebaseWebConfig{
			APIKey:     result.AccessKey,
			AuthDomain: str(web["authDomain"]),
			ProjectID:  str(web["projectId"]),
			AppID:      str(web["appId"]),
		}
	}

	if email := stringField(state, entities.StepSetupFirestore, "adminEmail"); email != "" {
		result.AdminEmail = email
		result.AdminPassword = state.Config.AdminPassword
	}

	copyResource(result.Resources, state, entities.StepCreateServiceAccounts, "deviceAuthSa")
	copyResource(result.Resources, state, entities.StepCreateServiceAccounts, "tvmSa")
	copyResource(result.Resources, state, entities.StepDeployCloudFunctions, "deviceAuthUrl")
	copyResource(result.Resources, state, entities.StepDeployCloudFunctions, "tvmUrl")
	copyResource(result.Resources, state, entities.StepCreateApiGateway, "managedService")
	copyResource(result.Resources, state, entities.StepConfigureWorkloadIdentity, "poolId")

	return result
}

func stringField(state *entities.DeploymentState, step entities.StepKey, field string) string {
	if result, ok := state.StepResults[step]; ok {
		return str(result[field])
	}
	return ""
}

func copyResource(resources map[string]string, state *entities.DeploymentState, step entities.StepKey, field string) {
	if value := stringField(state, step, field); value != "" {
		resources[field] = value
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
