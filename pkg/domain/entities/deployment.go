package entities

import "time"

// StepResult is the structured output of a single pipeline step, merged into
// DeploymentState.StepResults under the step's key.
type StepResult map[string]interface{}

// DeploymentState is the single persisted record driving resumability. At most
// one state with a non-terminal status exists per project at a time.
type DeploymentState struct {
	DeploymentID string                 `json:"deploymentId"`
	ProjectID    string                 `json:"projectId"`
	Region       string                 `json:"region"`
	Status       DeploymentStatus       `json:"status"`
	CurrentStep  StepKey                `json:"currentStep"`
	StepResults  map[StepKey]StepResult `json:"stepResults"`
	Config       DeploymentConfig       `json:"config"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (s *DeploymentState) HasResult(key StepKey) bool {
	if s.StepResults == nil {
		return false
	}
	_, ok := s.StepResults[key]
	return ok
}

// Clone returns a deep copy so callers can read state without racing the
// orchestrator's single writer.
func (s *DeploymentState) Clone() *DeploymentState {
	if s == nil {
		return nil
	}
	out := *s
	out.StepResults = make(map[StepKey]StepResult, len(s.StepResults))
	for key, result := range s.StepResults {
		copied := make(StepResult, len(result))
		for k, v := range result {
			copied[k] = v
		}
		out.StepResults[key] = copied
	}
	return &out
}
