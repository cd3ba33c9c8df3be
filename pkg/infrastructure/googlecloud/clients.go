// Package googlecloud implements the cloud collaborator interfaces against the
// real Google control planes. All calls share one set of application-default
// credentials; every mutation is ensure-style, so a 409 from a prior partial
// run reads back the existing resource instead of failing.
package googlecloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	apigateway "google.golang.org/api/apigateway/v1"
	apikeys "google.golang.org/api/apikeys/v2"
	cloudfunctions "google.golang.org/api/cloudfunctions/v2"
	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	firebase "google.golang.org/api/firebase/v1beta1"
	firebaserules "google.golang.org/api/firebaserules/v1"
	firestore "google.golang.org/api/firestore/v1"
	iam "google.golang.org/api/iam/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	servicemanagement "google.golang.org/api/servicemanagement/v1"
	serviceusage "google.golang.org/api/serviceusage/v1"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	// pollInterval paces long-running operation polling. The slowest
	// operations (gateway creation) take minutes, so there is no point
	// polling faster.
	pollInterval = 3 * time.Second
)

// NewClients builds every collaborator on top of application-default
// credentials.
func NewClients(ctx context.Context) (*cloud.Clients, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load application default credentials: %w", err)
	}
	opts := []option.ClientOption{option.WithCredentials(creds)}

	crm, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource manager client: %w", err)
	}
	usage, err := serviceusage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build service usage client: %w", err)
	}
	fb, err := firebase.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build firebase client: %w", err)
	}
	iamSvc, err := iam.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build iam client: %w", err)
	}
	fs, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build firestore client: %w", err)
	}
	rules, err := firebaserules.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build firebase rules client: %w", err)
	}
	fns, err := cloudfunctions.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build cloud functions client: %w", err)
	}
	mgmt, err := servicemanagement.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build service management client: %w", err)
	}
	gw, err := apigateway.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build api gateway client: %w", err)
	}
	keys, err := apikeys.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build api keys client: %w", err)
	}
	userinfo, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo client: %w", err)
	}

	// Raw REST calls (identity platform) reuse the same credentials.
	authedHTTP := oauth2.NewClient(ctx, creds.TokenSource)

	return &cloud.Clients{
		Auth:      &authenticator{crm: crm, userinfo: userinfo},
		Services:  &serviceEnabler{svc: usage},
		WebApps:   &webAppAdmin{svc: fb},
		Accounts:  &serviceAccountAdmin{svc: iamSvc},
		Bindings:  &iamBinder{crm: crm},
		Firestore: &firestoreAdmin{db: fs, rules: rules, http: authedHTTP},
		Functions: &functionAdmin{svc: fns},
		Gateway:   &gatewayAdmin{mgmt: mgmt, gw: gw},
		Identity:  &workloadIdentityAdmin{svc: iamSvc, crm: crm},
		APIKeys:   &apiKeyAdmin{svc: keys},
	}, nil
}

// await polls a long-running operation until it reports done, the poll fails,
// or the context ends.
func await(ctx context.Context, op string, poll func() (bool, error)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		done, err := poll()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return cloud.Fatal(op, ctx.Err())
		case <-ticker.C:
		}
	}
}
