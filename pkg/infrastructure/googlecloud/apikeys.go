package googlecloud

import (
	"context"
	"fmt"

	apikeys "google.golang.org/api/apikeys/v2"
)

type apiKeyAdmin struct {
	svc *apikeys.Service
}

// EnsureAPIKey creates an API key locked to the given service targets and
// returns the key string, reading back the existing key when a prior run
// already created it.
func (a *apiKeyAdmin) EnsureAPIKey(ctx context.Context, projectID, keyID, displayName string, apiTargets []string) (string, error) {
	parent := fmt.Sprintf("projects/%s/locations/global", projectID)
	name := parent + "/keys/" + keyID

	targets := make([]*apikeys.V2ApiTarget, 0, len(apiTargets))
	for _, service := range apiTargets {
		targets = append(targets, &apikeys.V2ApiTarget{Service: service})
	}
	key := &apikeys.V2Key{
		DisplayName:  displayName,
		Restrictions: &apikeys.V2Restrictions{ApiTargets: targets},
	}

	op, err := a.svc.Projects.Locations.Keys.Create(parent, key).KeyId(keyID).Context(ctx).Do()
	if err != nil && !isConflict(err) {
		return "", classify("apikeys.create", err)
	}
	if op != nil {
		if err := await(ctx, "apikeys.create", func() (bool, error) {
			current, err := a.svc.Operations.Get(op.Name).Context(ctx).Do()
			if err != nil {
				return false, classify("apikeys.create", err)
			}
			if current.Error != nil {
				return false, operationErr("apikeys.create", current.Error.Code, current.Error.Message)
			}
			return current.Done, nil
		}); err != nil {
			return "", err
		}
	}

	keyString, err := a.svc.Projects.Locations.Keys.GetKeyString(name).Context(ctx).Do()
	if err != nil {
		return "", classify("apikeys.getkeystring", err)
	}
	return keyString.KeyString, nil
}
