// Package utils derives the deterministic, prefix-based names of every cloud
// resource the pipeline provisions. Deterministic naming is what lets a step
// re-executed after a crash find the resource a prior attempt already created.
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9-]`)

// NormalizePrefix lowercases the resource prefix and strips everything cloud
// resource ids reject.
func NormalizePrefix(prefix string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	prefix = invalidNameChars.ReplaceAllString(prefix, "-")
	return strings.Trim(prefix, "-")
}

func DeviceAuthAccountID(prefix string) string {
	return prefix + "-device-auth-sa"
}

func TokenVendorAccountID(prefix string) string {
	return prefix + "-tvm-sa"
}

func ServiceAccountEmail(projectID, accountID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)
}

func DeviceAuthFunctionName(prefix string) string {
	return prefix + "-device-auth"
}

func TokenVendorFunctionName(prefix string) string {
	return prefix + "-tvm"
}

func APIID(prefix string) string {
	return prefix + "-api"
}

func APIConfigID(prefix string) string {
	return prefix + "-api-config"
}

func GatewayID(prefix string) string {
	return prefix + "-gateway"
}

// ManagedServiceName is the service-management name backing the API gateway.
func ManagedServiceName(prefix, projectID string) string {
	return fmt.Sprintf("%s-api.apigateway.%s.cloud.goog", prefix, projectID)
}

func WorkloadPoolID(prefix string) string {
	return prefix + "-wif-pool"
}

func WorkloadProviderID(prefix string) string {
	return prefix + "-wif-provider"
}

func APIKeyID(prefix string) string {
	return prefix + "-ai-key"
}

func WebAppDisplayName(prefix string) string {
	return prefix + "-web"
}

// AdminEmail is the generated admin identity created during Firestore setup.
func AdminEmail(projectID string) string {
	return fmt.Sprintf("admin@%s.firebaseapp.com", projectID)
}

// FirebaseIssuerURI is the OIDC issuer devices authenticate against through
// workload identity federation.
func FirebaseIssuerURI(projectID string) string {
	return "https://securetoken.google.com/" + projectID
}
