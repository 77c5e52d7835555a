package api

import (
	"net/http"

	"github.com/example/storefront-gateway/internal/api/middleware"
)

// AdminHandlers serves the admin user list and report counters.
type AdminHandlers struct {
	runtimes *Runtimes
}

func NewAdminHandlers(runtimes *Runtimes) *AdminHandlers {
	return &AdminHandlers{runtimes: runtimes}
}

func (h *AdminHandlers) runtime(r *http.Request) *Runtime {
	return h.runtimes.Get(middleware.GetSessionID(r.Context()))
}

func (h *AdminHandlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.runtime(r).Fetchers.FetchAdminUsers(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *AdminHandlers) GetReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.runtime(r).Fetchers.FetchAdminReports(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), upstreamStatus(err))
		return
	}
	respondJSON(w, http.StatusOK, reports)
}
