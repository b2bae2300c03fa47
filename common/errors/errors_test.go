package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMessage(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	withCause := SourceUnavailable("fetching dataset", cause)
	assert.Equal(t, "SOURCE_UNAVAILABLE: fetching dataset: dial tcp: connection refused", withCause.Error())
	assert.NotEmpty(t, withCause.StackTrace())
	assert.ErrorIs(t, withCause, cause)

	bare := EmptyResult("no rows", nil)
	assert.Equal(t, "EMPTY_RESULT: no rows", bare.Error())
	assert.NotEmpty(t, bare.StackTrace())
}

func TestIs(t *testing.T) {
	inner := MalformedField("salary", nil)
	outer := Internal("normalizing", inner)
	wrapped := fmt.Errorf("pipeline: %w", outer)

	tests := []struct {
		name     string
		err      error
		errType  ErrorType
		expected bool
	}{
		{"direct match", inner, ErrTypeMalformedField, true},
		{"outer type", wrapped, ErrTypeInternal, true},
		{"nested type", wrapped, ErrTypeMalformedField, true},
		{"absent type", wrapped, ErrTypeSourceUnavailable, false},
		{"plain error", stderrors.New("boom"), ErrTypeInternal, false},
		{"nil error", nil, ErrTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Is(tt.err, tt.errType))
		})
	}
}
