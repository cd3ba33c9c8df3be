package steps

import (
	"context"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// CreateFirebaseWebApp registers the product's web-app descriptor. The
// descriptor (apiKey/authDomain/projectId/appId) is what edge devices use to
// sign in; the step is skipped entirely in simple AI mode.
type CreateFirebaseWebApp struct{}

func (CreateFirebaseWebApp) Key() entities.StepKey { return entities.StepCreateFirebaseWebApp }

func (CreateFirebaseWebApp) Weight() int { return 5 }

func (CreateFirebaseWebApp) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	displayName := utils.WebAppDisplayName(ec.Config.Prefix)
	ec.report(10, "Registering Firebase web app "+displayName, "")

	app, err := ec.Cloud.WebApps.EnsureWebApp(ctx, ec.Config.ProjectID, displayName)
	if err != nil {
		return nil, err
	}

	ec.report(100, "Firebase web app ready", "")
	return entities.StepResult{
		"appId":      app.AppID,
		"apiKey":     app.APIKey,
		"authDomain": app.AuthDomain,
		"projectId":  app.ProjectID,
	}, nil
}
