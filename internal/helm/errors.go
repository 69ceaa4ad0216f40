package helm

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// IsRetryable reports whether a deploy failure is transient and worth
// retrying with backoff. Fatal failures (bad chart reference, malformed
// values, permission denied) and unrecognized errors are not retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if isFatal(err) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if apierrors.IsConflict(err) ||
		apierrors.IsAlreadyExists(err) ||
		apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsInternalError(err) {
		return true
	}

	return isRetryableMessage(err.Error())
}

func isFatal(err error) bool {
	if apierrors.IsUnauthorized(err) ||
		apierrors.IsForbidden(err) ||
		apierrors.IsInvalid(err) ||
		apierrors.IsBadRequest(err) {
		return true
	}

	errLower := strings.ToLower(err.Error())

	fatalMarkers := []string{
		"chart not found",
		"no chart version found",
		"no cached repo found",
		"failed to parse",
		"unable to parse",
		"cannot load values",
		"values don't meet the specifications of the schema",
		"unauthorized",
		"forbidden",
	}

	for _, marker := range fatalMarkers {
		if strings.Contains(errLower, marker) {
			return true
		}
	}

	return false
}

func isRetryableMessage(errStr string) bool {
	errLower := strings.ToLower(errStr)

	retryableMarkers := []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"no such host",
		"tls handshake",
		"etcdserver",
		"try again",
		"temporarily unavailable",
		"another operation (install/upgrade/rollback) is in progress",
		"conflict",
	}

	for _, marker := range retryableMarkers {
		if strings.Contains(errLower, marker) {
			return true
		}
	}

	return false
}
