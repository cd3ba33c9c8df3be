package googlecloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	firebaserules "google.golang.org/api/firebaserules/v1"
	firestore "google.golang.org/api/firestore/v1"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

const identityToolkitBase = "https://identitytoolkit.googleapis.com"

// firestoreAdmin covers the database, its security rules, and the identity
// platform pieces (sign-in providers, seeded admin user). The identity
// platform admin surface has no discovery client in the Google API module, so
// those two calls go over raw REST with the shared credentials.
type firestoreAdmin struct {
	db    *firestore.Service
	rules *firebaserules.Service
	http  *http.Client
}

func (f *firestoreAdmin) EnsureDatabase(ctx context.Context, projectID, region string) error {
	database := &firestore.GoogleFirestoreAdminV1Database{
		LocationId: region,
		Type:       "FIRESTORE_NATIVE",
	}
	op, err := f.db.Projects.Databases.Create("projects/"+projectID, database).
		DatabaseId("(default)").Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("firestore.databases.create", err)
	}
	return await(ctx, "firestore.databases.create", func() (bool, error) {
		current, err := f.db.Projects.Databases.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("firestore.databases.create", err)
		}
		if current.Error != nil {
			return false, operationErr("firestore.databases.create", current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	})
}

// DeployRules publishes a new ruleset and points the cloud.firestore release
// at it. Rulesets are immutable; each deploy creates a fresh one.
func (f *firestoreAdmin) DeployRules(ctx context.Context, projectID, content string) error {
	parent := "projects/" + projectID
	ruleset := &firebaserules.Ruleset{
		Source: &firebaserules.Source{
			Files: []*firebaserules.File{
				{Name: "firestore.rules", Content: content},
			},
		},
	}
	created, err := f.rules.Projects.Rulesets.Create(parent, ruleset).Context(ctx).Do()
	if err != nil {
		return classify("firebaserules.rulesets.create", err)
	}

	releaseName := parent + "/releases/cloud.firestore"
	release := &firebaserules.Release{Name: releaseName, RulesetName: created.Name}

	_, err = f.rules.Projects.Releases.Patch(releaseName, &firebaserules.UpdateReleaseRequest{Release: release}).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return classify("firebaserules.releases.patch", err)
	}
	if _, err := f.rules.Projects.Releases.Create(parent, release).Context(ctx).Do(); err != nil && !isConflict(err) {
		return classify("firebaserules.releases.create", err)
	}
	return nil
}

func (f *firestoreAdmin) EnsureAuthProviders(ctx context.Context, projectID string) error {
	url := fmt.Sprintf("%s/admin/v2/projects/%s/config?updateMask=signIn.email", identityToolkitBase, projectID)
	body := map[string]interface{}{
		"signIn": map[string]interface{}{
			"email": map[string]interface{}{
				"enabled":          true,
				"passwordRequired": true,
			},
		},
	}
	_, err := f.doJSON(ctx, http.MethodPatch, "identitytoolkit.updateconfig", url, body)
	return err
}

func (f *firestoreAdmin) EnsureAdminUser(ctx context.Context, projectID, email, password string) error {
	url := fmt.Sprintf("%s/v1/projects/%s/accounts", identityToolkitBase, projectID)
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	resp, err := f.doJSON(ctx, http.MethodPost, "identitytoolkit.signup", url, body)
	if err != nil {
		// The account surviving a prior partial run is success.
		if strings.Contains(string(resp), "EMAIL_EXISTS") {
			return nil
		}
		return err
	}
	return nil
}

func (f *firestoreAdmin) doJSON(ctx context.Context, method, op, url string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, cloud.Fatal(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, cloud.Fatal(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, cloud.Transient(op, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusConflict:
		return data, cloud.Conflict(op, fmt.Errorf("%s: %s", resp.Status, data))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return data, cloud.Transient(op, fmt.Errorf("%s: %s", resp.Status, data))
	default:
		return data, cloud.Config(op, fmt.Errorf("%s: %s", resp.Status, data))
	}
}
