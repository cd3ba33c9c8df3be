package googlecloud

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/edgevision-ai/provision-backend/pkg/cloud"
)

func TestClassifyHTTPCodes(t *testing.T) {
	cases := []struct {
		code int
		kind cloud.ErrorKind
	}{
		{409, cloud.KindConflict},
		{404, cloud.KindTransient},
		{429, cloud.KindTransient},
		{500, cloud.KindTransient},
		{503, cloud.KindTransient},
		{400, cloud.KindConfig},
		{401, cloud.KindConfig},
		{403, cloud.KindConfig},
		{418, cloud.KindFatal},
	}
	for _, tc := range cases {
		err := classify("op", &googleapi.Error{Code: tc.code})
		assert.Equal(t, tc.kind, cloud.KindOf(err), "code %d", tc.code)
	}
}

func TestClassifyNonAPIErrorIsFatal(t *testing.T) {
	err := classify("op", errors.New("connection reset"))
	assert.Equal(t, cloud.KindFatal, cloud.KindOf(err))
}

func TestOperationErrMapping(t *testing.T) {
	assert.Equal(t, cloud.KindConflict, cloud.KindOf(operationErr("op", codeAlreadyExists, "exists")))
	assert.Equal(t, cloud.KindTransient, cloud.KindOf(operationErr("op", codeUnavailable, "unavailable")))
	assert.Equal(t, cloud.KindTransient, cloud.KindOf(operationErr("op", codeAborted, "aborted")))
	assert.Equal(t, cloud.KindFatal, cloud.KindOf(operationErr("op", 13, "internal")))
}
