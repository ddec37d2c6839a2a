package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	id := uuid.New()
	err := NewNotFoundError("Sale", id)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, fmt.Sprintf("Sale with id %s not found", id), err.Error())

	wrapped := fmt.Errorf("loading sale: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("sale number is required")
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, "sale number is required", err.Error())
}
