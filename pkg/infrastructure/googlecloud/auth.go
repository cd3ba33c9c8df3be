package googlecloud

import (
	"context"

	cloudresourcemanager "google.golang.org/api/cloudresourcemanager/v1"
	oauth2api "google.golang.org/api/oauth2/v2"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

// authenticator proves the ambient credentials can read the target project
// before any mutation runs, so misconfiguration fails the run in seconds
// instead of minutes.
type authenticator struct {
	crm      *cloudresourcemanager.Service
	userinfo *oauth2api.Service
}

func (a *authenticator) Verify(ctx context.Context, projectID string) (cloud.Identity, error) {
	project, err := a.crm.Projects.Get(projectID).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return cloud.Identity{}, cloud.Configf("resourcemanager.get", "project %q not found or not accessible", projectID)
		}
		return cloud.Identity{}, classify("resourcemanager.get", err)
	}

	info, err := a.userinfo.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return cloud.Identity{}, classify("oauth2.userinfo", err)
	}

	return cloud.Identity{
		Account:       info.Email,
		ProjectNumber: project.ProjectNumber,
	}, nil
}
