package handlers

import (
	"net/http"

	"github.com/upb/route-optimizer/utils"
)

const (
	// ServiceName identifies this service in health responses
	ServiceName = "route-optimizer"

	// Version is reported by the root banner
	Version = "1.0.0"
)

// Root returns the service banner handler
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]string{
			"message": "Fleet route optimization service is running",
			"status":  "healthy",
			"version": Version,
		})
	}
}

// HealthCheck returns a simple health check handler
func HealthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]string{
			"status":  "healthy",
			"service": ServiceName,
		})
	}
}

// NotFound answers unmatched routes with a JSON 404
func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "endpoint not found")
}
