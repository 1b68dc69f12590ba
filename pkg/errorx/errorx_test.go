package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), CodeInternal},
		{"coded", NotFound("Trade with id %d not found", 7), CodeNotFound},
		{"wrapped by fmt", fmt.Errorf("save: %w", Conflict("dup")), CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Invalid symbol: UNKNOWN", MessageOf(InvalidReference("Invalid symbol: %s", "UNKNOWN")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("db down")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("driver failure")
	err := Wrap(CodeInternal, cause, "load ticker")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[INTERNAL] load ticker: driver failure", err.Error())
	assert.True(t, Is(err, CodeInternal))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(InvalidArgument("bad page")))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("missing")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(fmt.Errorf("create: %w", InvalidReference("Invalid symbol: X"))))
	assert.Equal(t, http.StatusConflict, StatusOf(Conflict("dup")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(Wrap(CodeInternal, errors.New("io"), "load")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}
