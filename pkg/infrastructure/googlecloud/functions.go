package googlecloud

import (
	"context"
	"fmt"

	cloudfunctions "google.golang.org/api/cloudfunctions/v2"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

type functionAdmin struct {
	svc *cloudfunctions.Service
}

// EnsureFunction creates the function, or patches it when a prior run already
// created it, then waits for the deployment to finish and returns the trigger
// URL.
func (f *functionAdmin) EnsureFunction(ctx context.Context, spec cloud.FunctionSpec) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", spec.ProjectID, spec.Region)
	name := parent + "/functions/" + spec.Name

	fn := &cloudfunctions.Function{
		Name: name,
		BuildConfig: &cloudfunctions.BuildConfig{
			Runtime:    spec.Runtime,
			EntryPoint: spec.EntryPoint,
			Source: &cloudfunctions.Source{
				StorageSource: &cloudfunctions.StorageSource{
					Bucket: spec.SourceBucket,
					Object: spec.SourceObject,
				},
			},
		},
		ServiceConfig: &cloudfunctions.ServiceConfig{
			ServiceAccountEmail:  spec.ServiceAccount,
			EnvironmentVariables: spec.Env,
		},
	}

	op, err := f.svc.Projects.Locations.Functions.Create(parent, fn).
		FunctionId(spec.Name).Context(ctx).Do()
	if isConflict(err) {
		op, err = f.svc.Projects.Locations.Functions.Patch(name, fn).Context(ctx).Do()
	}
	if err != nil {
		return "", classify("cloudfunctions.deploy", err)
	}

	if err := await(ctx, "cloudfunctions.deploy", func() (bool, error) {
		current, err := f.svc.Projects.Locations.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("cloudfunctions.deploy", err)
		}
		if current.Error != nil {
			return false, operationErr("cloudfunctions.deploy", current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	}); err != nil {
		return "", err
	}

	deployed, err := f.svc.Projects.Locations.Functions.Get(name).Context(ctx).Do()
	if err != nil {
		return "", classify("cloudfunctions.get", err)
	}
	if deployed.Url == "" {
		return "", cloud.Configf("cloudfunctions.get", "function %s has no trigger url", spec.Name)
	}
	return deployed.Url, nil
}
