// Package cloudtest provides an in-memory cloud.Clients implementation for
// exercising the deployment engine without touching real control planes.
package cloudtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

// Fake implements every collaborator interface with in-memory resources.
// Failures are injected per operation key: either the bare method name
// ("EnsureFunction") or method plus resource ("EnsureFunction/acme-tvm").
type Fake struct {
	mu sync.Mutex

	// FailOn returns the error on every matching call until removed.
	FailOn map[string]error
	// FailOnce returns the error on the first matching call only.
	FailOnce map[string]error
	// Hooks run at the start of a matching call, outside the lock, so tests
	// can block a step mid-flight.
	Hooks map[string]func()
	// PropagationProbes makes Exists report false that many times per account
	// before turning true, simulating IAM propagation delay.
	PropagationProbes int

	enabled         map[string]bool
	webApps         map[string]*entities.FirebaseWebConfig
	accounts        map[string]bool
	existsProbes    map[string]int
	bindings        map[string]bool
	databases       map[string]bool
	rules           map[string]string
	authProviders   map[string]bool
	adminUsers      map[string]string
	functions       map[string]string
	managedServices map[string]bool
	apiConfigs      map[string]bool
	gateways        map[string]string
	pools           map[string]bool
	providers       map[string]bool
	impersonations  map[string]bool
	apiKeys         map[string]string

	// CreateCalls counts actual create mutations per resource, so tests can
	// assert that re-execution does not duplicate side effects.
	CreateCalls map[string]int
	// Ops records every call in order.
	Ops []string
}

func NewFake() *Fake {
	return &Fake{
		FailOn:          map[string]error{},
		FailOnce:        map[string]error{},
		Hooks:           map[string]func(){},
		enabled:         map[string]bool{},
		webApps:         map[string]*entities.FirebaseWebConfig{},
		accounts:        map[string]bool{},
		existsProbes:    map[string]int{},
		bindings:        map[string]bool{},
		databases:       map[string]bool{},
		rules:           map[string]string{},
		authProviders:   map[string]bool{},
		adminUsers:      map[string]string{},
		functions:       map[string]string{},
		managedServices: map[string]bool{},
		apiConfigs:      map[string]bool{},
		gateways:        map[string]string{},
		pools:           map[string]bool{},
		providers:       map[string]bool{},
		impersonations:  map[string]bool{},
		apiKeys:         map[string]string{},
		CreateCalls:     map[string]int{},
	}
}

// Clients bundles the fake behind every collaborator interface.
func (f *Fake) Clients() *cloud.Clients {
	return &cloud.Clients{
		Auth:      f,
		Services:  f,
		WebApps:   f,
		Accounts:  f,
		Bindings:  f,
		Firestore: f,
		Functions: f,
		Gateway:   f,
		Identity:  f,
		APIKeys:   f,
	}
}

func (f *Fake) begin(method, resource string) error {
	scoped := method + "/" + resource
	f.mu.Lock()
	hook := f.Hooks[method]
	if h, ok := f.Hooks[scoped]; ok {
		hook = h
	}
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, scoped)
	for _, key := range []string{scoped, method} {
		if err, ok := f.FailOnce[key]; ok {
			delete(f.FailOnce, key)
			return err
		}
		if err, ok := f.FailOn[key]; ok {
			return err
		}
	}
	return nil
}

func (f *Fake) created(resource string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls[resource]++
}

func (f *Fake) Verify(ctx context.Context, projectID string) (cloud.Identity, error) {
	if err := f.begin("Verify", projectID); err != nil {
		return cloud.Identity{}, err
	}
	return cloud.Identity{Account: "installer@" + projectID + ".iam.gserviceaccount.com", ProjectNumber: 123456}, nil
}

func (f *Fake) EnsureEnabled(ctx context.Context, projectID, service string) error {
	if err := f.begin("EnsureEnabled", service); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled[service] {
		f.enabled[service] = true
		f.CreateCalls["api/"+service]++
	}
	return nil
}

func (f *Fake) EnsureWebApp(ctx context.Context, projectID, displayName string) (*entities.FirebaseWebConfig, error) {
	if err := f.begin("EnsureWebApp", displayName); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if app, ok := f.webApps[displayName]; ok {
		return app, nil
	}
	app := &entities.FirebaseWebConfig{
		APIKey:     "AIza-fake-" + projectID,
		AuthDomain: projectID + ".firebaseapp.com",
		ProjectID:  projectID,
		AppID:      "1:123456:web:" + displayName,
	}
	f.webApps[displayName] = app
	f.CreateCalls["webapp/"+displayName]++
	return app, nil
}

func (f *Fake) EnsureServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error) {
	if err := f.begin("EnsureServiceAccount", accountID); err != nil {
		return "", err
	}
	email := fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accounts[email] {
		f.accounts[email] = true
		f.CreateCalls["sa/"+accountID]++
	}
	return email, nil
}

func (f *Fake) Exists(ctx context.Context, projectID, email string) (bool, error) {
	if err := f.begin("Exists", email); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.accounts[email] {
		return false, nil
	}
	f.existsProbes[email]++
	return f.existsProbes[email] > f.PropagationProbes, nil
}

func (f *Fake) EnsureBinding(ctx context.Context, projectID, member, role string) error {
	if err := f.begin("EnsureBinding", role); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := member + "|" + role
	if !f.bindings[key] {
		f.bindings[key] = true
		f.CreateCalls["binding/"+key]++
	}
	return nil
}

func (f *Fake) EnsureDatabase(ctx context.Context, projectID, region string) error {
	if err := f.begin("EnsureDatabase", projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.databases[projectID] {
		f.databases[projectID] = true
		f.CreateCalls["database/"+projectID]++
	}
	return nil
}

func (f *Fake) DeployRules(ctx context.Context, projectID, rules string) error {
	if err := f.begin("DeployRules", projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[projectID] = rules
	return nil
}

func (f *Fake) EnsureAuthProviders(ctx context.Context, projectID string) error {
	if err := f.begin("EnsureAuthProviders", projectID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authProviders[projectID] = true
	return nil
}

func (f *Fake) EnsureAdminUser(ctx context.Context, projectID, email, password string) error {
	if err := f.begin("EnsureAdminUser", email); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.adminUsers[email]; !ok {
		f.adminUsers[email] = password
		f.CreateCalls["user/"+email]++
	}
	return nil
}

func (f *Fake) EnsureFunction(ctx context.Context, spec cloud.FunctionSpec) (string, error) {
	if err := f.begin("EnsureFunction", spec.Name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if url, ok := f.functions[spec.Name]; ok {
		return url, nil
	}
	url := fmt.Sprintf("https://%s-%s.cloudfunctions.net/%s", spec.Region, spec.ProjectID, spec.Name)
	f.functions[spec.Name] = url
	f.CreateCalls["function/"+spec.Name]++
	return url, nil
}

func (f *Fake) EnsureManagedService(ctx context.Context, projectID, serviceName string) error {
	if err := f.begin("EnsureManagedService", serviceName); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.managedServices[serviceName] {
		f.managedServices[serviceName] = true
		f.CreateCalls["service/"+serviceName]++
	}
	return nil
}

func (f *Fake) EnsureAPIConfig(ctx context.Context, projectID, apiID, configID string, openAPISpec []byte) error {
	if err := f.begin("EnsureAPIConfig", configID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := apiID + "/" + configID
	if !f.apiConfigs[key] {
		f.apiConfigs[key] = true
		f.CreateCalls["apiconfig/"+key]++
	}
	return nil
}

func (f *Fake) EnsureGateway(ctx context.Context, projectID, region, gatewayID, apiID, configID string) (string, error) {
	if err := f.begin("EnsureGateway", gatewayID); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if hostname, ok := f.gateways[gatewayID]; ok {
		return hostname, nil
	}
	hostname := fmt.Sprintf("%s-abc123.%s.gateway.dev", gatewayID, region)
	f.gateways[gatewayID] = hostname
	f.CreateCalls["gateway/"+gatewayID]++
	return hostname, nil
}

func (f *Fake) EnsurePool(ctx context.Context, projectID, poolID, displayName string) error {
	if err := f.begin("EnsurePool", poolID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.pools[poolID] {
		f.pools[poolID] = true
		f.CreateCalls["pool/"+poolID]++
	}
	return nil
}

func (f *Fake) EnsureProvider(ctx context.Context, projectID, poolID, providerID, issuerURI string) error {
	if err := f.begin("EnsureProvider", providerID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := poolID + "/" + providerID
	if !f.providers[key] {
		f.providers[key] = true
		f.CreateCalls["provider/"+key]++
	}
	return nil
}

func (f *Fake) EnsureImpersonation(ctx context.Context, projectID, poolID, serviceAccountEmail string) error {
	if err := f.begin("EnsureImpersonation", serviceAccountEmail); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := poolID + "|" + serviceAccountEmail
	if !f.impersonations[key] {
		f.impersonations[key] = true
		f.CreateCalls["impersonation/"+key]++
	}
	return nil
}

func (f *Fake) EnsureAPIKey(ctx context.Context, projectID, keyID, displayName string, apiTargets []string) (string, error) {
	if err := f.begin("EnsureAPIKey", keyID); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if key, ok := f.apiKeys[keyID]; ok {
		return key, nil
	}
	key := "AIza-demo-" + keyID
	f.apiKeys[keyID] = key
	f.CreateCalls["apikey/"+keyID]++
	return key, nil
}

// CallCount returns how many create mutations hit the given resource.
func (f *Fake) CallCount(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CreateCalls[resource]
}
