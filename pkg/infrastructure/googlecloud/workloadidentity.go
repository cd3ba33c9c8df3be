package googlecloud

import (
	"context"
	"fmt"

	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	iam "google.golang.org/api/iam/v1"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

const workloadIdentityUserRole = "roles/iam.workloadIdentityUser"

type workloadIdentityAdmin struct {
	svc *iam.Service
	crm *cloudresourcemanager.Service
}

func (w *workloadIdentityAdmin) EnsurePool(ctx context.Context, projectID, poolID, displayName string) error {
	parent := fmt.Sprintf("projects/%s/locations/global", projectID)
	pool := &iam.WorkloadIdentityPool{DisplayName: displayName}

	op, err := w.svc.Projects.Locations.WorkloadIdentityPools.Create(parent, pool).
		WorkloadIdentityPoolId(poolID).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("iam.workloadidentitypools.create", err)
	}
	return await(ctx, "iam.workloadidentitypools.create", func() (bool, error) {
		current, err := w.svc.Projects.Locations.WorkloadIdentityPools.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("iam.workloadidentitypools.create", err)
		}
		return current.Done, nil
	})
}

func (w *workloadIdentityAdmin) EnsureProvider(ctx context.Context, projectID, poolID, providerID, issuerURI string) error {
	parent := fmt.Sprintf("projects/%s/locations/global/workloadIdentityPools/%s", projectID, poolID)
	provider := &iam.WorkloadIdentityPoolProvider{
		Oidc: &iam.Oidc{IssuerUri: issuerURI},
		AttributeMapping: map[string]string{
			"google.subject": "assertion.sub",
		},
	}

	op, err := w.svc.Projects.Locations.WorkloadIdentityPools.Providers.Create(parent, provider).
		WorkloadIdentityPoolProviderId(providerID).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("iam.workloadidentityproviders.create", err)
	}
	return await(ctx, "iam.workloadidentityproviders.create", func() (bool, error) {
		current, err := w.svc.Projects.Locations.WorkloadIdentityPools.Providers.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("iam.workloadidentityproviders.create", err)
		}
		return current.Done, nil
	})
}

// EnsureImpersonation lets every identity in the pool mint tokens for the
// service account. The principalSet member requires the project number, not
// the project id.
func (w *workloadIdentityAdmin) EnsureImpersonation(ctx context.Context, projectID, poolID, serviceAccountEmail string) error {
	project, err := w.crm.Projects.Get(projectID).Context(ctx).Do()
	if err != nil {
		return classify("resourcemanager.get", err)
	}
	member := fmt.Sprintf(
		"principalSet://iam.googleapis.com/projects/%d/locations/global/workloadIdentityPools/%s/*",
		project.ProjectNumber, poolID,
	)
	resource := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, serviceAccountEmail)

	policy, err := w.svc.Projects.ServiceAccounts.GetIamPolicy(resource).Context(ctx).Do()
	if err != nil {
		return classify("iam.serviceaccounts.getiampolicy", err)
	}

	for _, binding := range policy.Bindings {
		if binding.Role != workloadIdentityUserRole {
			continue
		}
		for _, m := range binding.Members {
			if m == member {
				return nil
			}
		}
	}

	var binding *iam.Binding
	for _, b := range policy.Bindings {
		if b.Role == workloadIdentityUserRole {
			binding = b
			break
		}
	}
	if binding == nil {
		binding = &iam.Binding{Role: workloadIdentityUserRole}
		policy.Bindings = append(policy.Bindings, binding)
	}
	binding.Members = append(binding.Members, member)

	_, err = w.svc.Projects.ServiceAccounts.SetIamPolicy(resource, &iam.SetIamPolicyRequest{Policy: policy}).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return cloud.Transient("iam.serviceaccounts.setiampolicy", err)
		}
		return classify("iam.serviceaccounts.setiampolicy", err)
	}
	return nil
}
