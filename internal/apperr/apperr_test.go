package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("placing order: %w", Wrap(ErrInsufficientStock, errors.New("row update affected 0 rows")))

	assert.ErrorIs(t, wrapped, ErrInsufficientStock)
	assert.NotErrorIs(t, wrapped, ErrProductNotFound)
	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
}

func TestWithMessageKeepsIdentity(t *testing.T) {
	err := WithMessage(ErrProductNotFound, "Product not found: 42")

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, "Product not found: 42", err.Error())
	assert.Equal(t, "Product not found", ErrProductNotFound.Message)
}

func TestWithPayload(t *testing.T) {
	cause := errors.New("status 502")
	err := WithPayload(ErrGateway, map[string]any{"message": "bad gateway"}, cause)

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindUpstream, e.Kind)
	assert.Equal(t, map[string]any{"message": "bad gateway"}, e.Payload)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, ErrGateway.Payload)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "invalid_secret", KindInvalidSecret.String())
}
