package steps

import (
	"context"
	"fmt"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
	"github.com/edgevision-ai/provision-backend/pkg/resilience"
)

// AssignIAMRoles binds project roles to the accounts created one step earlier.
// A freshly created identity is not immediately visible to the IAM policy
// backend, so each account is waited on with the propagation primitive before
// any binding is attempted.
type AssignIAMRoles struct{}

func (AssignIAMRoles) Key() entities.StepKey { return entities.StepAssignIamRoles }

func (AssignIAMRoles) Weight() int { return 10 }

var rolesByAccount = map[string][]string{
	"deviceAuthSa": {
		"roles/firebaseauth.admin",
		"roles/datastore.user",
	},
	"tvmSa": {
		"roles/iam.serviceAccountTokenCreator",
		"roles/datastore.viewer",
	},
}

func (AssignIAMRoles) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	bindings := make([]string, 0, 4)
	fields := []string{"deviceAuthSa", "tvmSa"}

	for i, field := range fields {
		email, err := resultString(ec, entities.StepCreateServiceAccounts, field)
		if err != nil {
			return nil, err
		}

		ec.report(i*50, fmt.Sprintf("Waiting for %s to propagate", email), "")
		err = resilience.WaitForServiceAccountPropagation(ctx, func(ctx context.Context) (bool, error) {
			return ec.Cloud.Accounts.Exists(ctx, ec.Config.ProjectID, email)
		}, ec.Propagation)
		if err != nil {
			return nil, err
		}

		member := "serviceAccount:" + email
		for _, role := range rolesByAccount[field] {
			if err := ec.Cloud.Bindings.EnsureBinding(ctx, ec.Config.ProjectID, member, role); err != nil {
				return nil, err
			}
			bindings = append(bindings, member+"|"+role)
		}
		ec.report((i+1)*50, fmt.Sprintf("Roles bound for %s", email), "")
	}

	return entities.StepResult{"bindings": bindings}, nil
}
