package googlecloud

import (
	"context"
	"encoding/base64"
	"fmt"

	apigateway "google.golang.org/api/apigateway/v1"
	servicemanagement "google.golang.org/api/servicemanagement/v1"
)

type gatewayAdmin struct {
	mgmt *servicemanagement.APIService
	gw   *apigateway.Service
}

func (g *gatewayAdmin) EnsureManagedService(ctx context.Context, projectID, serviceName string) error {
	service := &servicemanagement.ManagedService{
		ServiceName:       serviceName,
		ProducerProjectId: projectID,
	}
	op, err := g.mgmt.Services.Create(service).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("servicemanagement.create", err)
	}
	return await(ctx, "servicemanagement.create", func() (bool, error) {
		current, err := g.mgmt.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("servicemanagement.create", err)
		}
		if current.Error != nil {
			return false, operationErr("servicemanagement.create", current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	})
}

// EnsureAPIConfig ensures the API resource, then attaches an immutable config
// rendered from the OpenAPI document. The managed service name is derived from
// the API id, matching what EnsureManagedService registered.
func (g *gatewayAdmin) EnsureAPIConfig(ctx context.Context, projectID, apiID, configID string, openAPISpec []byte) error {
	parent := fmt.Sprintf("projects/%s/locations/global", projectID)
	apiName := parent + "/apis/" + apiID

	api := &apigateway.ApigatewayApi{
		ManagedService: fmt.Sprintf("%s.apigateway.%s.cloud.goog", apiID, projectID),
	}
	op, err := g.gw.Projects.Locations.Apis.Create(parent, api).ApiId(apiID).Context(ctx).Do()
	if err != nil && !isConflict(err) {
		return classify("apigateway.apis.create", err)
	}
	if op != nil {
		if err := g.awaitOperation(ctx, "apigateway.apis.create", op.Name); err != nil {
			return err
		}
	}

	config := &apigateway.ApigatewayApiConfig{
		OpenapiDocuments: []*apigateway.ApigatewayApiConfigOpenApiDocument{
			{
				Document: &apigateway.ApigatewayApiConfigFile{
					Path:     "openapi.yaml",
					Contents: base64.StdEncoding.EncodeToString(openAPISpec),
				},
			},
		},
	}
	op, err = g.gw.Projects.Locations.Apis.Configs.Create(apiName, config).ApiConfigId(configID).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("apigateway.configs.create", err)
	}
	return g.awaitOperation(ctx, "apigateway.configs.create", op.Name)
}

func (g *gatewayAdmin) EnsureGateway(ctx context.Context, projectID, region, gatewayID, apiID, configID string) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, region)
	name := parent + "/gateways/" + gatewayID

	gateway := &apigateway.ApigatewayGateway{
		ApiConfig: fmt.Sprintf("projects/%s/locations/global/apis/%s/configs/%s", projectID, apiID, configID),
	}
	op, err := g.gw.Projects.Locations.Gateways.Create(parent, gateway).GatewayId(gatewayID).Context(ctx).Do()
	if err != nil && !isConflict(err) {
		return "", classify("apigateway.gateways.create", err)
	}
	if op != nil {
		if err := g.awaitOperation(ctx, "apigateway.gateways.create", op.Name); err != nil {
			return "", err
		}
	}

	deployed, err := g.gw.Projects.Locations.Gateways.Get(name).Context(ctx).Do()
	if err != nil {
		return "", classify("apigateway.gateways.get", err)
	}
	return deployed.DefaultHostname, nil
}

func (g *gatewayAdmin) awaitOperation(ctx context.Context, op, name string) error {
	return await(ctx, op, func() (bool, error) {
		current, err := g.gw.Projects.Locations.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return false, classify(op, err)
		}
		if current.Error != nil {
			return false, operationErr(op, current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	})
}
