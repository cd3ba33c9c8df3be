package steps

import (
	"context"
	"fmt"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// Authenticate verifies the ambient credentials can act on the target project.
// It has no dependencies and its output anchors the rest of the pipeline.
type Authenticate struct{}

func (Authenticate) Key() entities.StepKey { return entities.StepAuthenticate }

func (Authenticate) Weight() int { return 5 }

func (Authenticate) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	ec.report(10, "Verifying credentials", "")
	identity, err := ec.Cloud.Auth.Verify(ctx, ec.Config.ProjectID)
	if err != nil {
		return nil, err
	}
	ec.report(100, fmt.Sprintf("Authenticated as %s", identity.Account), "")
	return entities.StepResult{
		"account":       identity.Account,
		"projectNumber": identity.ProjectNumber,
	}, nil
}
