package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	custom := NewDomainError("NOT_FOUND", "Payable not found")
	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.False(t, errors.Is(custom, ErrInvalidInput))

	wrapped := fmt.Errorf("repository: %w", custom)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestWithCause(t *testing.T) {
	failed := NewDomainError("FAILED", "operation failed")
	cause := errors.New("connection reset")

	err := WithCause(failed, cause)
	assert.Equal(t, "operation failed", err.Error())
	assert.True(t, errors.Is(err, failed))
	assert.True(t, errors.Is(err, cause))

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "FAILED", de.Code)

	assert.Same(t, failed, WithCause(failed, nil))
}
