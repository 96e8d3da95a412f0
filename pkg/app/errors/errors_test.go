package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryMatching(t *testing.T) {
	sentinel := errors.New("session expired")
	err := SessionExpiredError(sentinel, "platform rejected the session id")

	assert.True(t, Is(err, CategorySessionExpired))
	assert.False(t, Is(err, CategoryUnauthorized))
	assert.True(t, errors.Is(err, sentinel))

	wrapped := fmt.Errorf("query failed: %w", err)
	assert.True(t, Is(wrapped, CategorySessionExpired))
	assert.True(t, errors.Is(wrapped, sentinel))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ConfigMissingError(nil, "no source"), http.StatusBadRequest},
		{ConfigInvalidError(nil, "bad url"), http.StatusBadRequest},
		{BadRequestError(nil, "missing parameter"), http.StatusBadRequest},
		{UnAuthorizedError(nil, "no session"), http.StatusUnauthorized},
		{SessionExpiredError(nil, "expired"), http.StatusUnauthorized},
		{ForbiddenError(nil, "not allowed"), http.StatusForbidden},
		{ResourceNotFoundError(nil, "gone"), http.StatusNotFound},
		{DependencyFailureError(nil, "platform down"), http.StatusBadGateway},
		{GeneralError(nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var svcErr *ServiceError
		assert.True(t, errors.As(tt.err, &svcErr))
		assert.Equal(t, tt.want, svcErr.StatusCode())
	}
}

func TestNilWrappedErrorStillReads(t *testing.T) {
	err := BadRequestError(nil, "missing parameter q")
	assert.NotEmpty(t, err.Error())
}
