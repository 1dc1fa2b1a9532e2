package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/campusworks/winter-registry/internal/domain"
	"github.com/campusworks/winter-registry/internal/service"
)

const sessionCookieName = "session_token"

// RegistrationHandler handles registration-related HTTP requests.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	sessions      *service.SessionService
	cookieSecure  bool
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, sessions *service.SessionService, cookieSecure bool) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		sessions:      sessions,
		cookieSecure:  cookieSecure,
	}
}

// HandleRegister processes a JSON registration request.
// POST /api/register
// Request:  {"identifier":"...","email":"...","rollNumber":"...","phone":"...","projectId":"...","password":"..."}
// Response: {"success":true,"message":"...","data":{...}}
func (h *RegistrationHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		RollNumber string `json:"rollNumber"`
		Phone      string `json:"phone"`
		ProjectID  string `json:"projectId"`
		Password   string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	reg, err := h.registrations.Register(r.Context(), service.RegisterRequest{
		Identifier: req.Identifier,
		Email:      req.Email,
		RollNumber: req.RollNumber,
		Phone:      req.Phone,
		ProjectID:  req.ProjectID,
		Password:   req.Password,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrConflictingIdentity) {
			writeError(w, http.StatusConflict, "These details match more than one existing registration.")
			return
		}
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			writeError(w, http.StatusConflict, "Email or roll number already registered.")
			return
		}
		slog.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error during registration.")
		return
	}

	token, err := h.sessions.Issue(reg)
	if err != nil {
		// The registration is durable; a failed mirror cookie is not fatal.
		slog.Error("issue session token", "error", err)
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   30 * 86400,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Registration successful!",
		"data":    toRegistrationDTO(reg),
	})
}

// HandleGetUser returns the registration matching the path identifier by
// identifier, email, or roll number.
// GET /api/user/{identifier}
func (h *RegistrationHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	value := r.PathValue("identifier")

	reg, err := h.registrations.Lookup(r.Context(), value)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found.")
		case errors.Is(err, domain.ErrConflictingIdentity):
			writeError(w, http.StatusConflict, "Identifier matches more than one registration.")
		case domain.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("lookup user", "error", err)
			writeError(w, http.StatusInternalServerError, "Error fetching user data.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    toRegistrationDTO(reg),
	})
}

// HandleSession reconciles the session mirror cookie against the store.
// Server data wins; a stale cookie for a vanished registration is cleared.
// GET /api/session
func (h *RegistrationHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No active session.")
		return
	}

	reg, err := h.sessions.Reconcile(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Invalid session.")
		case errors.Is(err, domain.ErrNotFound):
			h.clearSessionCookie(w)
			writeError(w, http.StatusNotFound, "Registration no longer exists.")
		default:
			slog.Error("reconcile session", "error", err)
			writeError(w, http.StatusInternalServerError, "Error reading session.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    toRegistrationDTO(reg),
	})
}

func (h *RegistrationHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// clientIP prefers the first X-Forwarded-For entry, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
