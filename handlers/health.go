package handlers

import (
	"net/http"

	"github.com/dagengine/dagengine-sub004/app"
	"github.com/dagengine/dagengine-sub004/utils"
)

// Version is reported by the status endpoint
const Version = "0.1.0"

// HealthCheck returns a simple health check handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessCheck reports ready once at least one provider is registered
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		status := "ready"

		if deps.Adapter == nil || len(deps.Adapter.Providers()) == 0 {
			status = "not_ready"
			checks["providers"] = "none_configured"
		} else {
			checks["providers"] = "configured"
		}

		code := http.StatusOK
		if status != "ready" {
			code = http.StatusServiceUnavailable
		}
		_ = utils.WriteJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	}
}

// StatusHandler returns application status information
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerNames := []string{}
		if deps.Adapter != nil {
			providerNames = deps.Adapter.Providers()
		}

		_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"version":     Version,
			"environment": deps.Config.Environment,
			"providers":   providerNames,
		})
	}
}
