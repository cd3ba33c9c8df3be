package steps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgevision-ai/provision-backend/pkg/cloud/cloudtest"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

func gatewayContext(fake *cloudtest.Fake) *ExecContext {
	return &ExecContext{
		Config: entities.DeploymentConfig{
			ProjectID: "demo-project",
			Region:    "us-central1",
			Prefix:    "acme",
		},
		Results: map[entities.StepKey]entities.StepResult{
			entities.StepDeployCloudFunctions: {
				"deviceAuthUrl": "https://us-central1-demo-project.cloudfunctions.net/acme-device-auth",
				"tvmUrl":        "https://us-central1-demo-project.cloudfunctions.net/acme-tvm",
			},
		},
		Cloud: fake.Clients(),
	}
}

func TestGatewayStepProducesGatewayURL(t *testing.T) {
	fake := cloudtest.NewFake()
	result, err := CreateAPIGateway{}.Run(context.Background(), gatewayContext(fake))
	require.NoError(t, err)

	assert.Equal(t, "https://acme-gateway-abc123.us-central1.gateway.dev", result["gatewayUrl"])
	assert.Equal(t, "acme-api", result["apiId"])
	assert.Equal(t, "acme-api-config", result["configId"])
	assert.Equal(t, "acme-api.apigateway.demo-project.cloud.goog", result["managedService"])
}

func TestGatewayStepRequiresFunctionURLs(t *testing.T) {
	ec := gatewayContext(cloudtest.NewFake())
	delete(ec.Results, entities.StepDeployCloudFunctions)

	_, err := CreateAPIGateway{}.Run(context.Background(), ec)
	assert.Error(t, err)
}

func TestGatewayStepStopsBetweenSubSteps(t *testing.T) {
	fake := cloudtest.NewFake()
	ec := gatewayContext(fake)

	// Interrupt raised while the managed service call is in flight: the
	// sub-step finishes, the next two never start, and no result is returned.
	interrupted := false
	fake.Hooks["EnsureManagedService"] = func() { interrupted = true }
	ec.Interrupted = func() bool { return interrupted }

	result, err := CreateAPIGateway{}.Run(context.Background(), ec)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Nil(t, result)

	assert.Equal(t, 1, fake.CallCount("service/acme-api.apigateway.demo-project.cloud.goog"))
	assert.Zero(t, fake.CallCount("apiconfig/acme-api/acme-api-config"))
	assert.Zero(t, fake.CallCount("gateway/acme-gateway"))
}

func TestGatewayStepIsIdempotentAcrossReruns(t *testing.T) {
	fake := cloudtest.NewFake()

	_, err := CreateAPIGateway{}.Run(context.Background(), gatewayContext(fake))
	require.NoError(t, err)
	result, err := CreateAPIGateway{}.Run(context.Background(), gatewayContext(fake))
	require.NoError(t, err)

	assert.Equal(t, "https://acme-gateway-abc123.us-central1.gateway.dev", result["gatewayUrl"])
	assert.Equal(t, 1, fake.CallCount("service/acme-api.apigateway.demo-project.cloud.goog"))
	assert.Equal(t, 1, fake.CallCount("apiconfig/acme-api/acme-api-config"))
	assert.Equal(t, 1, fake.CallCount("gateway/acme-gateway"))
}
