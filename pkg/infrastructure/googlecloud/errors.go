package googlecloud

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

// classify maps a Google API failure onto the engine's error taxonomy.
// 404s are deliberately transient: right after a create, reads routinely miss
// the new resource until it propagates.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return cloud.Fatal(op, err)
	}
	switch {
	case gerr.Code == http.StatusConflict:
		return cloud.Conflict(op, err)
	case gerr.Code == http.StatusNotFound,
		gerr.Code == http.StatusTooManyRequests,
		gerr.Code >= http.StatusInternalServerError:
		return cloud.Transient(op, err)
	case gerr.Code == http.StatusBadRequest,
		gerr.Code == http.StatusUnauthorized,
		gerr.Code == http.StatusForbidden:
		return cloud.Config(op, err)
	default:
		return cloud.Fatal(op, err)
	}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusConflict
}

// gRPC status codes carried inside long-running operation errors.
const (
	codeAborted       = 10
	codeAlreadyExists = 6
	codeDeadline      = 4
	codeUnavailable   = 14
)

// operationErr converts a finished operation's error status into the taxonomy.
func operationErr(op string, code int64, message string) error {
	err := errors.New(message)
	switch code {
	case codeAlreadyExists:
		return cloud.Conflict(op, err)
	case codeAborted, codeDeadline, codeUnavailable:
		return cloud.Transient(op, err)
	default:
		return cloud.Fatal(op, err)
	}
}
