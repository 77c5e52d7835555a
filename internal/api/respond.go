package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/storefront-gateway/internal/remote"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// upstreamStatus maps an upstream fetch error to the status this
// gateway reports: 401 when the upstream rejected the session token,
// 502 for everything else.
func upstreamStatus(err error) int {
	if remote.IsUnauthorized(err) {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

// extractPathParam returns the path segment following prefix, trimmed
// of any trailing sub-path.
func extractPathParam(path, prefix string) string {
	param := strings.TrimPrefix(path, prefix)
	if i := strings.Index(param, "/"); i >= 0 {
		param = param[:i]
	}
	return param
}
