package router

import (
	"net/http"
	"strings"

	"github.com/otterhq/otter/internal/pkg/config"
)

// middlewareMaintenance blocks the route patterns listed under
// app.maintenance.endpoints with a 503, leaving everything else
// untouched. The set is read once at startup.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := maintenanceSet(cfg)

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, down := blocked[matchedRoutePath(r)]; down {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func maintenanceSet(cfg config.Config) map[string]struct{} {
	if cfg == nil {
		return nil
	}

	set := make(map[string]struct{})
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			set[endpoint] = struct{}{}
		}
	}

	return set
}
