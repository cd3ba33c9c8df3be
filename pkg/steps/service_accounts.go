package steps

import (
	"context"
	"fmt"

	"github.com/edgevision-ai/provision-backend/internal/utils"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// CreateServiceAccounts creates one service account per functional role:
// device authentication and token vending.
type CreateServiceAccounts struct{}

func (CreateServiceAccounts) Key() entities.StepKey { return entities.StepCreateServiceAccounts }

func (CreateServiceAccounts) Weight() int { return 10 }

func (CreateServiceAccounts) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	accounts := []struct {
		field       string
		accountID   string
		displayName string
	}{
		{"deviceAuthSa", utils.DeviceAuthAccountID(ec.Config.Prefix), "Device authentication"},
		{"tvmSa", utils.TokenVendorAccountID(ec.Config.Prefix), "Token vending machine"},
	}

	result := entities.StepResult{}
	for i, account := range accounts {
		ec.report(i*100/len(accounts), fmt.Sprintf("Creating service account %s", account.accountID), "")
		email, err := ec.Cloud.Accounts.EnsureServiceAccount(ctx, ec.Config.ProjectID, account.accountID, account.displayName)
		if err != nil {
			return nil, err
		}
		result[account.field] = email
	}

	ec.report(100, "Service accounts ready", "")
	return result, nil
}
