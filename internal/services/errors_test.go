package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

func TestNewAPIErrorExtractsMessages(t *testing.T) {
	body := []byte(`{
		"message": "Multiple field constraints have been violated.",
		"_embedded": {"errors": [
			{"message": "Subject can't be blank."},
			{"message": "Start date is invalid."}
		]},
		"errors": {"subject": ["can't be blank"]}
	}`)

	apiErr := NewAPIError(http.StatusUnprocessableEntity, body)

	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "Multiple field constraints have been violated.", apiErr.Message)
	assert.Equal(t, []string{"Subject can't be blank.", "Start date is invalid."}, apiErr.DetailedErrors)
	assert.Equal(t, map[string][]string{"subject": {"can't be blank"}}, apiErr.ValidationErrors)
	assert.Contains(t, apiErr.ResponseData, "message")

	msg := apiErr.Error()
	assert.Contains(t, msg, "OpenProject API error (422)")
	assert.Contains(t, msg, "Subject can't be blank.")
}

func TestNewAPIErrorDefaultMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "Resource not found"},
		{http.StatusUnauthorized, "Authentication failed"},
		{http.StatusUnprocessableEntity, "Validation failed"},
		{http.StatusBadGateway, "Request failed with status 502"},
	}

	for _, tt := range tests {
		apiErr := NewAPIError(tt.status, nil)
		assert.Equal(t, tt.want, apiErr.Message, "status %d", tt.status)
	}
}

func TestNewAPIErrorNonJSONBody(t *testing.T) {
	apiErr := NewAPIError(http.StatusInternalServerError, []byte("<html>gateway error</html>"))
	assert.Equal(t, "Request failed with status 500", apiErr.Message)
	assert.Nil(t, apiErr.ResponseData)
}

func TestNewTransportError(t *testing.T) {
	apiErr := NewTransportError(errors.New("dial tcp: connection refused"))

	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "request failed")
	assert.Contains(t, apiErr.Error(), "connection refused")
	assert.NotContains(t, apiErr.Error(), "(0)")
}

func TestErrorPredicates(t *testing.T) {
	notFound := &APIError{StatusCode: http.StatusNotFound, Message: "Resource not found"}
	wrapped := fmt.Errorf("get work package: %w", notFound)

	assert.True(t, IsAPIError(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidationError(wrapped))

	valErr := &models.ValidationError{Field: "subject", Message: "Subject cannot be empty"}
	assert.True(t, IsValidationError(fmt.Errorf("create: %w", valErr)))
	assert.False(t, IsNotFound(valErr))

	assert.False(t, IsAPIError(errors.New("plain error")))
	assert.False(t, IsAPIError(nil))
}
