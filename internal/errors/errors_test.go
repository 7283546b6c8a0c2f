package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/listenup-tracker/internal/errors"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := errors.Network("tracker unreachable")

	assert.True(t, errors.Is(err, errors.ErrNetwork))
	assert.False(t, errors.Is(err, errors.ErrEmptyResult))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := stderrors.New("dial tcp: timeout")
	err := errors.Wrap(cause, errors.CodeNetwork, "fetch library")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, errors.ErrNetwork)
	assert.Equal(t, "fetch library: dial tcp: timeout", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   errors.Code
		status int
	}{
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeEmptyResult, http.StatusNotFound},
		{errors.CodeNetwork, http.StatusBadGateway},
		{errors.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errors.CodeEmptyResult, errors.CodeOf(errors.EmptyResult("none")))
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(stderrors.New("plain")))
}
