package steps

import (
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// BuildPipeline selects the ordered step list for the given config. The full
// infrastructure mode runs up to nine steps in dependency order; the simple AI
// mode collapses to three. Optional sub-systems that are disabled drop their
// steps entirely.
func BuildPipeline(config entities.DeploymentConfig) []Executor {
	if config.Mode == entities.DeploymentModeSimpleAI {
		return []Executor{
			Authenticate{},
			EnableAPIs{},
			CreateAPIKey{},
		}
	}

	pipeline := []Executor{
		Authenticate{},
		EnableAPIs{},
	}
	if config.EnabledServices.Auth {
		pipeline = append(pipeline, CreateFirebaseWebApp{})
	}
	pipeline = append(pipeline,
		CreateServiceAccounts{},
		AssignIAMRoles{},
	)
	if config.EnabledServices.Firestore {
		pipeline = append(pipeline, SetupFirestore{})
	}
	if config.EnabledServices.CloudFunctions {
		pipeline = append(pipeline, DeployCloudFunctions{})
	}
	if config.EnabledServices.ApiGateway {
		pipeline = append(pipeline, CreateAPIGateway{})
	}
	if config.EnabledServices.WorkloadIdentity {
		pipeline = append(pipeline, ConfigureWorkloadIdentity{})
	}
	return pipeline
}

// TotalWeight sums the relative progress weights of a pipeline.
func TotalWeight(pipeline []Executor) int {
	total := 0
	for _, executor := range pipeline {
		total += executor.Weight()
	}
	return total
}
