// Package cloud declares the boundary between the deployment engine and the
// Google Cloud control planes it provisions against. Every mutation is an
// ensure-style operation: re-invoking it against an already-created resource
// reports the existing resource instead of failing on a conflict, which is
// what makes step re-execution after a crash safe.
package cloud

import (
	"context"

	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// Identity describes the verified caller credentials.
type Identity struct {
	Account       string
	ProjectNumber int64
}

type Authenticator interface {
	// Verify confirms the ambient credentials can act on the project.
	Verify(ctx context.Context, projectID string) (Identity, error)
}

type APIEnabler interface {
	// EnsureEnabled enables one cloud API, succeeding if it already is.
	EnsureEnabled(ctx context.Context, projectID, service string) error
}

type WebAppAdmin interface {
	// EnsureWebApp registers the product's Firebase web app, returning its
	// client config descriptor whether it was created now or earlier.
	EnsureWebApp(ctx context.Context, projectID, displayName string) (*entities.FirebaseWebConfig, error)
}

type ServiceAccountAdmin interface {
	// EnsureServiceAccount creates the account if absent and returns its email.
	EnsureServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error)
	// Exists probes whether the account is visible yet. A false result with a
	// nil error means "not propagated", not "gone".
	Exists(ctx context.Context, projectID, email string) (bool, error)
}

type IAMBinder interface {
	// EnsureBinding adds member to role on the project policy if absent.
	EnsureBinding(ctx context.Context, projectID, member, role string) error
}

type FirestoreAdmin interface {
	EnsureDatabase(ctx context.Context, projectID, region string) error
	DeployRules(ctx context.Context, projectID, rules string) error
	// EnsureAuthProviders turns on email/password sign-in for the project.
	EnsureAuthProviders(ctx context.Context, projectID string) error
	EnsureAdminUser(ctx context.Context, projectID, email, password string) error
}

// FunctionSpec describes one serverless handler deployment.
type FunctionSpec struct {
	ProjectID      string
	Region         string
	Name           string
	EntryPoint     string
	Runtime        string
	SourceBucket   string
	SourceObject   string
	ServiceAccount string
	Env            map[string]string
}

type FunctionAdmin interface {
	// EnsureFunction deploys or updates the function and returns its trigger URL.
	EnsureFunction(ctx context.Context, spec FunctionSpec) (string, error)
}

type GatewayAdmin interface {
	EnsureManagedService(ctx context.Context, projectID, serviceName string) error
	EnsureAPIConfig(ctx context.Context, projectID, apiID, configID string, openAPISpec []byte) error
	// EnsureGateway instantiates the gateway and returns its default hostname.
	EnsureGateway(ctx context.Context, projectID, region, gatewayID, apiID, configID string) (string, error)
}

type WorkloadIdentityAdmin interface {
	EnsurePool(ctx context.Context, projectID, poolID, displayName string) error
	EnsureProvider(ctx context.Context, projectID, poolID, providerID, issuerURI string) error
	// EnsureImpersonation lets identities from the pool mint tokens for the
	// given service account.
	EnsureImpersonation(ctx context.Context, projectID, poolID, serviceAccountEmail string) error
}

type APIKeyAdmin interface {
	// EnsureAPIKey creates a restricted API key and returns the key string.
	EnsureAPIKey(ctx context.Context, projectID, keyID, displayName string, apiTargets []string) (string, error)
}

// Clients bundles one implementation of every collaborator the step executors
// need.
type Clients struct {
	Auth      Authenticator
	Services  APIEnabler
	WebApps   WebAppAdmin
	Accounts  ServiceAccountAdmin
	Bindings  IAMBinder
	Firestore FirestoreAdmin
	Functions FunctionAdmin
	Gateway   GatewayAdmin
	Identity  WorkloadIdentityAdmin
	APIKeys   APIKeyAdmin
}
