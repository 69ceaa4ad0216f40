package metrics

import (
	"context"
	"errors"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Error type constants for metrics labels.
const (
	ErrorTypeAuth        = "auth"
	ErrorTypeConflict    = "conflict"
	ErrorTypeNotFound    = "not_found"
	ErrorTypeTimeout     = "timeout"
	ErrorTypeNetwork     = "network"
	ErrorTypeValidation  = "validation"
	ErrorTypeServerError = "server_error"
	ErrorTypeUnknown     = "unknown"
)

// ClassifyError classifies an error from the cluster API or Helm for metrics labeling.
// Returns an empty string for nil errors.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err):
		return ErrorTypeAuth
	case apierrors.IsConflict(err) || apierrors.IsAlreadyExists(err):
		return ErrorTypeConflict
	case apierrors.IsNotFound(err):
		return ErrorTypeNotFound
	case apierrors.IsTimeout(err) || apierrors.IsServerTimeout(err):
		return ErrorTypeTimeout
	case apierrors.IsInvalid(err) || apierrors.IsBadRequest(err):
		return ErrorTypeValidation
	case apierrors.IsInternalError(err) || apierrors.IsServiceUnavailable(err) || apierrors.IsTooManyRequests(err):
		return ErrorTypeServerError
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	}

	return classifyByErrorMessage(err.Error())
}

func classifyByErrorMessage(errStr string) string {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "connection reset") ||
		strings.Contains(errLower, "no such host"):
		return ErrorTypeNetwork
	case strings.Contains(errLower, "not found"):
		return ErrorTypeNotFound
	case strings.Contains(errLower, "unable to parse") || strings.Contains(errLower, "invalid"):
		return ErrorTypeValidation
	default:
		return ErrorTypeUnknown
	}
}
