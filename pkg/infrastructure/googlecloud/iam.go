package googlecloud

import (
	"context"
	"fmt"

	iam "google.golang.org/api/iam/v1"

	"github.com/edgevision-ai/provision-backend/internal/utils"
)

type serviceAccountAdmin struct {
	svc *iam.Service
}

func (s *serviceAccountAdmin) EnsureServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error) {
	email := utils.ServiceAccountEmail(projectID, accountID)

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}
	_, err := s.svc.Projects.ServiceAccounts.Create("projects/"+projectID, req).Context(ctx).Do()
	if err != nil && !isConflict(err) {
		return "", classify("iam.serviceaccounts.create", err)
	}
	return email, nil
}

func (s *serviceAccountAdmin) Exists(ctx context.Context, projectID, email string) (bool, error) {
	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, email)
	_, err := s.svc.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, classify("iam.serviceaccounts.get", err)
	}
	return true, nil
}
