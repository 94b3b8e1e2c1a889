package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// APIError ошибка, которой удалённый сервис ответил на запрос.
// Хранит статус, сырое тело ответа и извлечённые из него сообщения.
// StatusCode равен нулю, когда запрос не дошёл до сервера
// (сетевая ошибка или таймаут транспорта).
type APIError struct {
	StatusCode       int
	Message          string
	ResponseData     map[string]any
	DetailedErrors   []string
	ValidationErrors map[string][]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.DetailedErrors) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.DetailedErrors, "; "))
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("OpenProject API error (%d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("OpenProject API error: %s", msg)
}

// NewAPIError строит APIError из статуса и сырого тела ответа,
// извлекая сообщения из _embedded.errors и карты errors верхнего уровня.
func NewAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    defaultMessage(statusCode),
	}

	var payload struct {
		Message  string `json:"message"`
		Embedded struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"_embedded"`
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// тело не JSON, оставляем общий текст
		return apiErr
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		apiErr.ResponseData = raw
	}

	if payload.Message != "" {
		apiErr.Message = payload.Message
	}
	for _, e := range payload.Embedded.Errors {
		if e.Message != "" {
			apiErr.DetailedErrors = append(apiErr.DetailedErrors, e.Message)
		}
	}
	if len(payload.Errors) > 0 {
		apiErr.ValidationErrors = payload.Errors
	}

	return apiErr
}

// NewTransportError оборачивает ошибку транспорта (таймаут, обрыв
// соединения) в тот же канал APIError, которым идут ошибки HTTP.
func NewTransportError(err error) *APIError {
	return &APIError{Message: fmt.Sprintf("request failed: %v", err)}
}

func defaultMessage(statusCode int) string {
	switch statusCode {
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusUnprocessableEntity:
		return "Validation failed"
	default:
		return fmt.Sprintf("Request failed with status %d", statusCode)
	}
}

// IsAPIError проверяет, является ли ошибка APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsNotFound проверяет, что сервер ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsValidationError проверяет, что ошибка вызвана локальной проверкой входа.
func IsValidationError(err error) bool {
	var valErr *models.ValidationError
	return errors.As(err, &valErr)
}
