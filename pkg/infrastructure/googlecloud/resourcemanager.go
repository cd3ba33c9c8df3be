package googlecloud

import (
	"context"

	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

type iamBinder struct {
	crm *cloudresourcemanager.Service
}

// EnsureBinding runs a read-modify-write on the project policy. A concurrent
// writer invalidates the etag and the set returns 409; that is reported as
// transient so the retry layer re-reads and re-applies.
func (b *iamBinder) EnsureBinding(ctx context.Context, projectID, member, role string) error {
	policy, err := b.crm.Projects.GetIamPolicy(projectID, &cloudresourcemanager.GetIamPolicyRequest{}).Context(ctx).Do()
	if err != nil {
		return classify("resourcemanager.getiampolicy", err)
	}

	if hasBinding(policy, member, role) {
		return nil
	}

	var binding *cloudresourcemanager.Binding
	for _, b := range policy.Bindings {
		if b.Role == role {
			binding = b
			break
		}
	}
	if binding == nil {
		binding = &cloudresourcemanager.Binding{Role: role}
		policy.Bindings = append(policy.Bindings, binding)
	}
	binding.Members = append(binding.Members, member)

	_, err = b.crm.Projects.SetIamPolicy(projectID, &cloudresourcemanager.SetIamPolicyRequest{Policy: policy}).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return cloud.Transient("resourcemanager.setiampolicy", err)
		}
		return classify("resourcemanager.setiampolicy", err)
	}
	return nil
}

func hasBinding(policy *cloudresourcemanager.Policy, member, role string) bool {
	for _, binding := range policy.Bindings {
		if binding.Role != role {
			continue
		}
		for _, m := range binding.Members {
			if m == member {
				return true
			}
		}
	}
	return false
}
