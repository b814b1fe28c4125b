package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outermost code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeGateClosed, "slot closed"))
		assert.True(t, HasCode(err, CodeGateClosed))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("wrap keeps cause in chain", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(cause, CodeStorage, "write blob")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, CodeStorage, CodeOf(err))
		assert.Equal(t, "write blob", MessageOf(err))
		assert.Equal(t, "write blob: disk full", err.Error())
	})
}

func TestErrorIs(t *testing.T) {
	err := New(CodeInvalidTransition, "cannot move from hired")
	require.ErrorIs(t, err, New(CodeInvalidTransition, ""))
	require.ErrorIs(t, err, New(CodeInvalidTransition, "cannot move from hired"))
	assert.NotErrorIs(t, err, New(CodeInvalidTransition, "other message"))
	assert.NotErrorIs(t, err, New(CodeGateClosed, ""))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:          http.StatusBadRequest,
		CodeDuplicateSubmission: http.StatusConflict,
		CodeInvalidTransition:   http.StatusConflict,
		CodeGateClosed:          http.StatusConflict,
		CodeNotFound:            http.StatusNotFound,
		CodeStorage:             http.StatusServiceUnavailable,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeInternal:            http.StatusInternalServerError,
		Code("unknown"):         http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
