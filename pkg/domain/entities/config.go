package entities

// EnabledServices selects which optional sub-systems a full deployment
// provisions. Fields that are false cause the corresponding pipeline steps to
// be omitted entirely.
type EnabledServices struct {
	Auth             bool `json:"auth"`
	Firestore        bool `json:"firestore"`
	CloudFunctions   bool `json:"cloudFunctions"`
	ApiGateway       bool `json:"apiGateway"`
	WorkloadIdentity bool `json:"workloadIdentity"`
}

// DeploymentConfig is the immutable input of a deployment. It is provided once
// by the caller and retained verbatim inside DeploymentState for resume.
type DeploymentConfig struct {
	ProjectID       string          `json:"projectId"`
	Region          string          `json:"region"`
	Prefix          string          `json:"prefix"`
	Mode            DeploymentMode  `json:"mode"`
	EnabledServices EnabledServices `json:"enabledServices"`
	AdminPassword   string          `json:"adminPassword,omitempty"`
	LicenseKey      string          `json:"licenseKey,omitempty"`
	CustomerID      string          `json:"customerId,omitempty"`
}
