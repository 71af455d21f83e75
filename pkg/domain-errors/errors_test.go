package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil cause returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
	})

	t.Run("preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "store unreachable")
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("code survives further wrapping", func(t *testing.T) {
		err := fmt.Errorf("create bond: %w", New(CodeConflict, "duplicate"))
		assert.True(t, HasCode(err, CodeConflict))
		assert.Equal(t, CodeConflict, CodeOf(err))
	})
}

func TestHasCode(t *testing.T) {
	assert.False(t, HasCode(nil, CodeInternal))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	assert.False(t, HasCode(New(CodeNotFound, "gone"), CodeConflict))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "bond not found", Message(New(CodeNotFound, "bond not found")))
	assert.Equal(t, "internal error", Message(errors.New("raw db error with a DSN in it")))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeValidation:   http.StatusUnprocessableEntity,
		CodeInvalidInput: http.StatusUnprocessableEntity,
		CodeBadRequest:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
		Code("made-up"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, HTTPStatus(code), "code %s", code)
	}
}
