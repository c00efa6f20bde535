package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/task-tracker/internal/services"
)

var (
	errInvalidRequestBody = errors.New("invalid request body")
	errInvalidQuery       = errors.New("invalid query parameters")
	errInvalidTaskID      = errors.New("task id must be an integer")
	errMissingBearerToken = errors.New("not authenticated")
	errUserNotInContext   = errors.New("no authenticated user in context")
)

type apiError struct {
	Code    int
	Message string
	Details []string
}

func newAPIError(code int, message string, details ...string) apiError {
	return apiError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	if err.Code == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}

	body := gin.H{"error": err.Message}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	c.AbortWithStatusJSON(err.Code, body)
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newValidationError(message string, details ...string) apiError {
	return newAPIError(http.StatusUnprocessableEntity, message, details...)
}

// newServiceError maps an error returned by the services onto the
// response status. Unknown errors become a bare 500.
func newServiceError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrValidation):
		detail := strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
		return newValidationError(services.ErrValidation.Error(), detail)
	case errors.Is(err, services.ErrTokenExpired):
		return newUnauthorizedError(services.ErrTokenExpired.Error())
	case errors.Is(err, services.ErrInvalidToken):
		return newUnauthorizedError(services.ErrInvalidToken.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return newUnauthorizedError(services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrForbidden):
		return newForbiddenError(services.ErrForbidden.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		return newNotFoundError(services.ErrTaskNotFound.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return newNotFoundError(services.ErrUserNotFound.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return newBadRequestError(services.ErrUserAlreadyExists.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}

// newBindError turns a gin binding failure into a 422 listing every
// rejected field.
func newBindError(err error, message string) apiError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, describeFieldError(fe))
		}
		return newValidationError(message, details...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return newValidationError(message, "body is empty")
	case errors.As(err, &syntaxErr):
		return newValidationError(message, fmt.Sprintf("malformed json at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return newValidationError(message, fmt.Sprintf("%s: must be %s", typeErr.Field, typeErr.Type))
	default:
		return newValidationError(message, err.Error())
	}
}
