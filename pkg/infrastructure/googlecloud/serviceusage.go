package googlecloud

import (
	"context"
	"fmt"

	serviceusage "google.golang.org/api/serviceusage/v1"
)

type serviceEnabler struct {
	svc *serviceusage.Service
}

func (s *serviceEnabler) EnsureEnabled(ctx context.Context, projectID, service string) error {
	name := fmt.Sprintf("projects/%s/services/%s", projectID, service)
	op, err := s.svc.Services.Enable(name, &serviceusage.EnableServiceRequest{}).Context(ctx).Do()
	if err != nil {
		return classify("serviceusage.enable", err)
	}
	if op.Done {
		return nil
	}
	return await(ctx, "serviceusage.enable", func() (bool, error) {
		current, err := s.svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return false, classify("serviceusage.enable", err)
		}
		if current.Error != nil {
			return false, operationErr("serviceusage.enable", current.Error.Code, current.Error.Message)
		}
		return current.Done, nil
	})
}
