package steps

import (
	"context"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// ConfigureWorkloadIdentity federates device identities (Firebase tokens) with
// the device-auth service account, so cameras reach cloud resources without
// long-lived credentials.
type ConfigureWorkloadIdentity struct{}

func (ConfigureWorkloadIdentity) Key() entities.StepKey {
	return entities.StepConfigureWorkloadIdentity
}

func (ConfigureWorkloadIdentity) Weight() int { return 5 }

func (ConfigureWorkloadIdentity) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	deviceAuthSa, err := resultString(ec, entities.StepCreateServiceAccounts, "deviceAuthSa")
	if err != nil {
		return nil, err
	}

	projectID := ec.Config.ProjectID
	poolID := utils.WorkloadPoolID(ec.Config.Prefix)
	providerID := utils.WorkloadProviderID(ec.Config.Prefix)

	ec.report(10, "Creating workload identity pool "+poolID, "")
	if err := ec.Cloud.Identity.EnsurePool(ctx, projectID, poolID, "Edge device pool"); err != nil {
		return nil, err
	}

	ec.report(40, "Creating identity provider "+providerID, "")
	issuer := utils.FirebaseIssuerURI(projectID)
	if err := ec.Cloud.Identity.EnsureProvider(ctx, projectID, poolID, providerID, issuer); err != nil {
		return nil, err
	}

	ec.report(70, "Granting impersonation to "+deviceAuthSa, "")
	if err := ec.Cloud.Identity.EnsureImpersonation(ctx, projectID, poolID, deviceAuthSa); err != nil {
		return nil, err
	}

	ec.report(100, "Workload identity federation ready", "")
	return entities.StepResult{
		"poolId":     poolID,
		"providerId": providerID,
	}, nil
}
