package steps

import (
	"context"
	"fmt"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

const (
	functionsRuntime      = "python311"
	functionsSourceBucket = "edgevision-function-sources"
)

// DeployCloudFunctions deploys the two serverless handlers that back device
// authentication and token exchange. Typically the first multi-minute step of
// a run.
type DeployCloudFunctions struct{}

func (DeployCloudFunctions) Key() entities.StepKey { return entities.StepDeployCloudFunctions }

func (DeployCloudFunctions) Weight() int { return 25 }

func (DeployCloudFunctions) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	deviceAuthSa, err := resultString(ec, entities.StepCreateServiceAccounts, "deviceAuthSa")
	if err != nil {
		return nil, err
	}
	tvmSa, err := resultString(ec, entities.StepCreateServiceAccounts, "tvmSa")
	if err != nil {
		return nil, err
	}

	functions := []struct {
		field string
		spec  cloud.FunctionSpec
	}{
		{
			field: "deviceAuthUrl",
			spec: cloud.FunctionSpec{
				ProjectID:      ec.Config.ProjectID,
				Region:         ec.Config.Region,
				Name:           utils.DeviceAuthFunctionName(ec.Config.Prefix),
				EntryPoint:     "device_authenticator",
				Runtime:        functionsRuntime,
				SourceBucket:   functionsSourceBucket,
				SourceObject:   "device-auth.zip",
				ServiceAccount: deviceAuthSa,
				Env:            map[string]string{"GCP_PROJECT": ec.Config.ProjectID},
			},
		},
		{
			field: "tvmUrl",
			spec: cloud.FunctionSpec{
				ProjectID:      ec.Config.ProjectID,
				Region:         ec.Config.Region,
				Name:           utils.TokenVendorFunctionName(ec.Config.Prefix),
				EntryPoint:     "token_vendor",
				Runtime:        functionsRuntime,
				SourceBucket:   functionsSourceBucket,
				SourceObject:   "tvm.zip",
				ServiceAccount: tvmSa,
				Env:            map[string]string{"GCP_PROJECT": ec.Config.ProjectID},
			},
		},
	}

	result := entities.StepResult{}
	for i, fn := range functions {
		ec.report(i*100/len(functions), fmt.Sprintf("Deploying function %s", fn.spec.Name), "")
		url, err := ec.Cloud.Functions.EnsureFunction(ctx, fn.spec)
		if err != nil {
			return nil, err
		}
		result[fn.field] = url
	}

	ec.report(100, "Cloud functions deployed", "")
	return result, nil
}
