package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefix(t *testing.T) {
	assert.Equal(t, "acme-site", NormalizePrefix("  Acme Site "))
	assert.Equal(t, "acme", NormalizePrefix("-acme-"))
	assert.Equal(t, "cam-42", NormalizePrefix("Cam_42"))
}

func TestDerivedNamesAreDeterministic(t *testing.T) {
	assert.Equal(t, "acme-device-auth-sa", DeviceAuthAccountID("acme"))
	assert.Equal(t, "acme-tvm-sa", TokenVendorAccountID("acme"))
	assert.Equal(t,
		"acme-device-auth-sa@demo-proj.iam.gserviceaccount.com",
		ServiceAccountEmail("demo-proj", DeviceAuthAccountID("acme")))
	assert.Equal(t, "acme-api.apigateway.demo-proj.cloud.goog", ManagedServiceName("acme", "demo-proj"))
	assert.Equal(t, "admin@demo-proj.firebaseapp.com", AdminEmail("demo-proj"))
	assert.Equal(t, "https://securetoken.google.com/demo-proj", FirebaseIssuerURI("demo-proj"))
}
