package entities

type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusRunning   DeploymentStatus = "running"
	DeploymentStatusPaused    DeploymentStatus = "paused"
	DeploymentStatusCompleted DeploymentStatus = "completed"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// Terminal reports whether a deployment in this status can no longer be resumed
// by re-entering the pipeline loop.
func (s DeploymentStatus) Terminal() bool {
	return s == DeploymentStatusCompleted || s == DeploymentStatusFailed
}

type DeploymentMode string

const (
	DeploymentModeFull     DeploymentMode = "full"
	DeploymentModeSimpleAI DeploymentMode = "simpleAi"
)

type StepKey string

const (
	StepAuthenticate              StepKey = "authenticate"
	StepEnableApis                StepKey = "enableApis"
	StepCreateFirebaseWebApp      StepKey = "createFirebaseWebApp"
	StepCreateServiceAccounts     StepKey = "createServiceAccounts"
	StepAssignIamRoles            StepKey = "assignIamRoles"
	StepSetupFirestore            StepKey = "setupFirestore"
	StepDeployCloudFunctions      StepKey = "deployCloudFunctions"
	StepCreateApiGateway          StepKey = "createApiGateway"
	StepConfigureWorkloadIdentity StepKey = "configureWorkloadIdentity"
	StepCreateApiKey              StepKey = "createApiKey"
)

// Sub-steps of StepCreateApiGateway, reported individually because the step
// can take up to ~15 minutes end to end.
const (
	SubStepManagedService = "managed-service"
	SubStepAPIConfig      = "api-config"
	SubStepCreateGateway  = "create-gateway"
)

type Task func()
