package entities

// ProgressStepPaused is the synthetic CurrentStep value emitted when a pause
// request is acknowledged before the in-flight step finishes.
const ProgressStepPaused = "paused"

// DeploymentProgress is a transient observability signal derived from state
// transitions. It is never persisted.
type DeploymentProgress struct {
	CurrentStep   string `json:"currentStep"`
	StepProgress  int    `json:"stepProgress"`
	TotalProgress int    `json:"totalProgress"`
	Message       string `json:"message"`
	SubStep       string `json:"subStep,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// DeploymentError identifies the step a failure occurred in. The step key
// "state" marks persistence failures, which are distinct from step logic
// failures.
type DeploymentError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// FirebaseWebConfig is the client-side auth project descriptor handed to edge
// devices.
type FirebaseWebConfig struct {
	APIKey     string `json:"apiKey"`
	AuthDomain string `json:"authDomain"`
	ProjectID  string `json:"projectId"`
	AppID      string `json:"appId"`
}

// DeploymentResult is the terminal output of a successful or failed run.
type DeploymentResult struct {
	Success       bool               `json:"success"`
	DeploymentID  string             `json:"deploymentId"`
	ProjectID     string             `json:"projectId"`
	GatewayURL    string             `json:"gatewayUrl,omitempty"`
	AccessKey     string             `json:"accessKey,omitempty"`
	Firebase      *FirebaseWebConfig `json:"firebase,omitempty"`
	AdminEmail    string             `json:"adminEmail,omitempty"`
	AdminPassword string             `json:"adminPassword,omitempty"`
	Resources     map[string]string  `json:"resources,omitempty"`
	Error         string             `json:"error,omitempty"`
}
