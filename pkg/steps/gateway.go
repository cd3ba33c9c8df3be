package steps

import (
	"context"
	"fmt"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// CreateAPIGateway builds the managed front door over the deployed functions.
// It is the longest step overall (up to ~15 minutes) and decomposes into three
// strictly ordered sub-steps, each reported separately. Pause and cancel
// requests are honored between sub-steps; the step result is only recorded
// once all three have finished, so a resume re-runs the step and each
// sub-step's ensure call finds what was already created.
type CreateAPIGateway struct{}

func (CreateAPIGateway) Key() entities.StepKey { return entities.StepCreateApiGateway }

func (CreateAPIGateway) Weight() int { return 25 }

func (CreateAPIGateway) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	deviceAuthURL, err := resultString(ec, entities.StepDeployCloudFunctions, "deviceAuthUrl")
	if err != nil {
		return nil, err
	}
	tvmURL, err := resultString(ec, entities.StepDeployCloudFunctions, "tvmUrl")
	if err != nil {
		return nil, err
	}

	projectID := ec.Config.ProjectID
	prefix := ec.Config.Prefix
	serviceName := utils.ManagedServiceName(prefix, projectID)
	apiID := utils.APIID(prefix)
	configID := utils.APIConfigID(prefix)
	gatewayID := utils.GatewayID(prefix)

	ec.report(0, "Creating managed service "+serviceName, entities.SubStepManagedService)
	if err := ec.Cloud.Gateway.EnsureManagedService(ctx, projectID, serviceName); err != nil {
		return nil, err
	}
	ec.report(33, "Managed service ready", entities.SubStepManagedService)

	if ec.interrupted() {
		return nil, ErrInterrupted
	}

	ec.report(34, "Creating API config "+configID, entities.SubStepAPIConfig)
	spec := openAPISpec(serviceName, deviceAuthURL, tvmURL)
	if err := ec.Cloud.Gateway.EnsureAPIConfig(ctx, projectID, apiID, configID, spec); err != nil {
		return nil, err
	}
	ec.report(66, "API config ready", entities.SubStepAPIConfig)

	if ec.interrupted() {
		return nil, ErrInterrupted
	}

	ec.report(67, "Creating gateway "+gatewayID, entities.SubStepCreateGateway)
	hostname, err := ec.Cloud.Gateway.EnsureGateway(ctx, projectID, ec.Config.Region, gatewayID, apiID, configID)
	if err != nil {
		return nil, err
	}
	ec.report(100, "API gateway ready", entities.SubStepCreateGateway)

	return entities.StepResult{
		"gatewayUrl":     "https://" + hostname,
		"apiId":          apiID,
		"configId":       configID,
		"managedService": serviceName,
	}, nil
}

// openAPISpec renders the gateway's API surface: device authentication and
// token exchange routed to their respective functions.
func openAPISpec(serviceName, deviceAuthURL, tvmURL string) []byte {
	return []byte(fmt.Sprintf(`swagger: "2.0"
info:
  title: %s
  version: "1.0"
schemes:
  - https
produces:
  - application/json
paths:
  /device-auth/initiate:
    post:
      operationId: deviceAuthInitiate
      x-google-backend:
        address: %s
      responses:
        "200":
          description: Challenge issued
  /gcp-token/vend:
    post:
      operationId: vendGcpToken
      x-google-backend:
        address: %s
      responses:
        "200":
          description: Scoped token vended
`, serviceName, deviceAuthURL, tvmURL))
}
