package steps

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// enableWorkers bounds the concurrent Enable calls within the step. The calls
// have no ordering dependency on each other, but all must finish before the
// step completes.
const enableWorkers = 4

// EnableAPIs idempotently enables the cloud APIs required by the enabled
// sub-systems.
type EnableAPIs struct{}

func (EnableAPIs) Key() entities.StepKey { return entities.StepEnableApis }

func (EnableAPIs) Weight() int { return 5 }

func (EnableAPIs) Run(ctx context.Context, ec *ExecContext) (entities.StepResult, error) {
	apis := requiredAPIs(ec.Config)
	ec.report(0, fmt.Sprintf("Enabling %d cloud APIs", len(apis)), "")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	sem := make(chan struct{}, enableWorkers)
	for _, api := range apis {
		wg.Add(1)
		go func(api string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := ec.Cloud.Services.EnsureEnabled(ctx, ec.Config.ProjectID, api)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = err
				return
			}
			done++
			ec.report(done*100/len(apis), fmt.Sprintf("Enabled %s", api), "")
		}(api)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	return entities.StepResult{"enabledApis": apis}, nil
}

func requiredAPIs(config entities.DeploymentConfig) []string {
	if config.Mode == entities.DeploymentModeSimpleAI {
		return []string{"generativelanguage.googleapis.com"}
	}

	apis := []string{
		"iam.googleapis.com",
		"iamcredentials.googleapis.com",
		"cloudresourcemanager.googleapis.com",
		"serviceusage.googleapis.com",
	}
	if config.EnabledServices.Auth {
		apis = append(apis,
			"firebase.googleapis.com",
			"identitytoolkit.googleapis.com",
		)
	}
	if config.EnabledServices.Firestore {
		apis = append(apis,
			"firestore.googleapis.com",
			"firebaserules.googleapis.com",
		)
	}
	if config.EnabledServices.CloudFunctions {
		apis = append(apis,
			"cloudfunctions.googleapis.com",
			"cloudbuild.googleapis.com",
			"run.googleapis.com",
		)
	}
	if config.EnabledServices.ApiGateway {
		apis = append(apis,
			"apigateway.googleapis.com",
			"servicemanagement.googleapis.com",
			"servicecontrol.googleapis.com",
		)
	}
	if config.EnabledServices.WorkloadIdentity {
		apis = append(apis, "sts.googleapis.com")
	}
	return apis
}
