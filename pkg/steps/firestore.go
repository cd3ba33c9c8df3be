package steps

import (
	"context"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// defaultFirestoreRules locks every collection to authenticated users and
// keeps device token documents owner-only.
const defaultFirestoreRules = `rules_version = '2';
service cloud.firestore {
  match /databases/{database}/documents {
    match /device_tokens/{deviceId} {
      allow read, write: if request.auth != null && request.auth.uid == deviceId;
    }
    match /{document=**} {
      allow read, write: if request.auth != null;
    }
  }
}`

// SetupFirestore provisions the document database, deploys its security
// rules, enables the email/password auth provider, and ensures the generated
// admin user exists.
type SetupFirestore struct{}

func (SetupFirestore) Key() entities.StepKey { return entities.StepSetupFirestore }

func (SetupFirestore) Weight() int { return 10 }

func (SetupFirestore) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	projectID := ec.Config.ProjectID

	ec.report(10, "Provisioning Firestore database", "")
	if err := ec.Cloud.Firestore.EnsureDatabase(ctx, projectID, ec.Config.Region); err != nil {
		return nil, err
	}

	ec.report(40, "Deploying Firestore security rules", "")
	if err := ec.Cloud.Firestore.DeployRules(ctx, projectID, defaultFirestoreRules); err != nil {
		return nil, err
	}

	result := entities.StepResult{"database": "(default)"}
	if ec.Config.EnabledServices.Auth {
		ec.report(70, "Configuring authentication providers", "")
		if err := ec.Cloud.Firestore.EnsureAuthProviders(ctx, projectID); err != nil {
			return nil, err
		}

		adminEmail := utils.AdminEmail(projectID)
		if err := ec.Cloud.Firestore.EnsureAdminUser(ctx, projectID, adminEmail, ec.Config.AdminPassword); err != nil {
			return nil, err
		}
		result["adminEmail"] = adminEmail
	}

	ec.report(100, "Firestore ready", "")
	return result, nil
}
