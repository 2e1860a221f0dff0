package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/upb/route-optimizer/services"
)

// TransportError classifies a failure to complete an HTTP exchange.
// Deadlines become timeout errors, anything else means the backend
// could not be reached.
func TransportError(provider string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return services.WrapError(services.ErrorTypeTimeout, fmt.Sprintf("%s request timed out", provider), err)
	case errors.Is(err, context.Canceled):
		return services.WrapError(services.ErrorTypeTimeout, fmt.Sprintf("%s request canceled", provider), err)
	default:
		return services.WrapError(services.ErrorTypeUnreachable, fmt.Sprintf("%s is unreachable", provider), err)
	}
}

// StatusError classifies a non-2xx response. Credential rejections are
// auth errors only when authenticated is set.
func StatusError(provErr *ProviderError, authenticated bool) error {
	errType := services.ErrorTypeProvider
	if authenticated && (provErr.StatusCode == http.StatusUnauthorized || provErr.StatusCode == http.StatusForbidden) {
		errType = services.ErrorTypeAuth
	}
	return services.NewDomainError(errType, fmt.Sprintf("%s returned status %d", provErr.Provider, provErr.StatusCode), provErr).
		WithDetail("status_code", provErr.StatusCode)
}

// ResponseError reports a 2xx response whose body could not be used
func ResponseError(provider, message string, cause error) error {
	return services.WrapError(services.ErrorTypeProvider, fmt.Sprintf("%s: %s", provider, message), cause)
}
