package models

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode_UnwrapsChain(t *testing.T) {
	base := NewNotFoundError("Thread", "t1")
	wrapped := fmt.Errorf("failed to delete thread: %w", base)

	assert.Equal(t, CodeNotFound, ErrorCode(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Contains(t, wrapped.Error(), "Thread with ID t1 not found")
}

func TestNewStoreError_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStoreError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeStoreFailed, err.Code)
}

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusConflict, NewConflictError("Username is already taken"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
