package steps

import (
	"context"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// CreateAPIKey provisions the restricted Generative Language API key used by
// the simple AI mode, which skips the full infrastructure pipeline.
type CreateAPIKey struct{}

func (CreateAPIKey) Key() entities.StepKey { return entities.StepCreateApiKey }

func (CreateAPIKey) Weight() int { return 10 }

func (CreateAPIKey) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	keyID := utils.APIKeyID(ec.Config.Prefix)
	ec.report(10, "Creating API key "+keyID, "")

	key, err := ec.Cloud.APIKeys.EnsureAPIKey(
		ctx,
		ec.Config.ProjectID,
		keyID,
		"Edge AI demo key",
		[]string{"generativelanguage.googleapis.com"},
	)
	if err != nil {
		return nil, err
	}

	ec.report(100, "API key ready", "")
	return entities.StepResult{"apiKey": key}, nil
}
