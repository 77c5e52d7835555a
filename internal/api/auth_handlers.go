package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/storefront-gateway/internal/api/middleware"
	"github.com/example/storefront-gateway/internal/auth"
	"github.com/example/storefront-gateway/internal/bootstrap"
	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/session"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	runtimes   *Runtimes
	sessions   session.Store
	jwtService *auth.JWTService
}

func NewAuthHandlers(runtimes *Runtimes, sessions session.Store, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		runtimes:   runtimes,
		sessions:   sessions,
		jwtService: jwtService,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    catalog.Profile `json:"user"`
	Message string          `json:"message,omitempty"`
}

// Login proxies credentials upstream, establishes a gateway session on
// success and hands the browser edge-token cookies.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := uuid.New().String()
	rt := h.runtimes.Get(sessionID)

	profile, err := rt.Fetchers.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.runtimes.Drop(sessionID)
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
		return
	}

	if !h.setAuthCookies(w, r, sessionID, profile) {
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{User: profile})
}

// Register creates an upstream account and logs the new user in.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := uuid.New().String()
	rt := h.runtimes.Get(sessionID)

	profile, err := rt.Fetchers.Register(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		h.runtimes.Drop(sessionID)
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.setAuthCookies(w, r, sessionID, profile) {
		return
	}
	respondJSON(w, http.StatusCreated, AuthResponse{User: profile})
}

// Logout clears the persisted session and expires the cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	rt := h.runtimes.Get(sessionID)

	if err := rt.Fetchers.Logout(r.Context()); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.runtimes.Drop(sessionID)

	clearCookie(w, "access_token")
	clearCookie(w, "refresh_token")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Refresh exchanges a valid refresh token for a new access token. The
// claims come from the persisted session record, the only identity that
// survives gateway restarts.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "refresh token missing", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.jwtService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		respondJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	sess, ok, err := h.sessions.Load(r.Context(), sessionID)
	if err != nil {
		respondJSONError(w, "session lookup failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		respondJSONError(w, "session expired", http.StatusUnauthorized)
		return
	}

	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(sessionID, sess.UserID, sess.Role)
	if err != nil {
		respondJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

// Bootstrap resolves the caller's persisted session into a terminal
// auth state. With no resumable session the result is anonymous and no
// upstream call is made.
func (h *AuthHandlers) Bootstrap(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		// No edge token at all: anonymous, no verification call.
		respondJSON(w, http.StatusOK, map[string]any{
			"phase":               bootstrap.PhaseAnonymous.String(),
			"is_authenticated":    false,
			"auth_check_complete": true,
			"user":                nil,
		})
		return
	}
	sessionID := claims.SessionID
	rt := h.runtimes.Get(sessionID)

	phase, err := rt.Boot.Run(r.Context(), sessionID)
	snapshot := rt.Store.Snapshot()

	resp := map[string]any{
		"phase":               phase.String(),
		"is_authenticated":    snapshot.IsAuthenticated,
		"auth_check_complete": snapshot.AuthCheckComplete,
		"user":                snapshot.User,
	}
	if err != nil && phase == bootstrap.PhaseAnonymous {
		// Verification failures settle anonymous rather than erroring;
		// the UI redirects to the logged-out view.
		clearCookie(w, "access_token")
		clearCookie(w, "refresh_token")
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, sessionID string, profile catalog.Profile) bool {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(sessionID, profile.ID, profile.Role)
	if err != nil {
		respondJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return false
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(sessionID)
	if err != nil {
		respondJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return false
	}

	secure := r.TLS != nil
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/auth",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
