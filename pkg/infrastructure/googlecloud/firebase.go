package googlecloud

import (
	"context"

	firebase "google.golang.org/api/firebase/v1beta1"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
	"github.com/edgevision-ai/provision-backend/pkg/domain/entities"
)

type webAppAdmin struct {
	svc *firebase.Service
}

// EnsureWebApp attaches Firebase to the project if needed, then finds or
// registers the web app and reads back its client config.
func (w *webAppAdmin) EnsureWebApp(ctx context.Context, projectID, displayName string) (*entities.FirebaseWebConfig, error) {
	parent := "projects/" + projectID

	if err := w.ensureFirebaseProject(ctx, parent); err != nil {
		return nil, err
	}

	app, err := w.findWebApp(ctx, parent, displayName)
	if err != nil {
		return nil, err
	}
	if app == nil {
		op, err := w.svc.Projects.WebApps.Create(parent, &firebase.WebApp{DisplayName: displayName}).Context(ctx).Do()
		if err != nil && !isConflict(err) {
			return nil, classify("firebase.webapps.create", err)
		}
		if op != nil {
			if err := w.awaitOperation(ctx, "firebase.webapps.create", op.Name); err != nil {
				return nil, err
			}
		}
		if app, err = w.findWebApp(ctx, parent, displayName); err != nil {
			return nil, err
		}
		if app == nil {
			return nil, cloud.Configf("firebase.webapps.create", "web app %q not visible after creation", displayName)
		}
	}

	config, err := w.svc.Projects.WebApps.GetConfig(app.Name + "/config").Context(ctx).Do()
	if err != nil {
		return nil, classify("firebase.webapps.getconfig", err)
	}
	return &entities.FirebaseWebConfig{
		APIKey:     config.ApiKey,
		AuthDomain: config.AuthDomain,
		ProjectID:  config.ProjectId,
		AppID:      app.AppId,
	}, nil
}

func (w *webAppAdmin) ensureFirebaseProject(ctx context.Context, parent string) error {
	_, err := w.svc.Projects.Get(parent).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return classify("firebase.projects.get", err)
	}

	op, err := w.svc.Projects.AddFirebase(parent, &firebase.AddFirebaseRequest{}).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return nil
		}
		return classify("firebase.addfirebase", err)
	}
	return w.awaitOperation(ctx, "firebase.addfirebase", op.Name)
}

func (w *webAppAdmin) findWebApp(ctx context.Context, parent, displayName string) (*firebase.WebApp, error) {
	resp, err := w.svc.Projects.WebApps.List(parent).Context(ctx).Do()
	if err != nil {
		return nil, classify("firebase.webapps.list", err)
	}
	for _, app := range resp.Apps {
		if app.DisplayName == displayName {
			return app, nil
		}
	}
	return nil, nil
}

func (w *webAppAdmin) awaitOperation(ctx context.Context, op, name string) error {
	return await(ctx, op, func() (bool, error) {
		current, err := w.svc.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return false, classify(op, err)
		}
		if current.Error != nil {
			return false, operationErr(op, current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	})
}
