package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/getsentry/sentry-go"

	"auth-serverless/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
	cookies CookiePolicy
	logger  *observability.Logger
}

func NewHandler(service *Service, cookies CookiePolicy, logger *observability.Logger) *Handler {
	return &Handler{service: service, cookies: cookies, logger: logger}
}

// Routes mounts the auth endpoints under prefix, e.g. "/auth" or "/api/auth".
func (h *Handler) Routes(mux *http.ServeMux, prefix string, access, refresh *Guard) {
	mux.HandleFunc("POST "+prefix+"/login", h.Login)
	mux.HandleFunc("POST "+prefix+"/logout", h.Logout)
	mux.Handle("GET "+prefix+"/profile", access.Middleware(http.HandlerFunc(h.Profile)))
	mux.Handle("POST "+prefix+"/refresh", refresh.Middleware(http.HandlerFunc(h.Refresh)))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if addr, err := mail.ParseAddress(body.Email); err != nil || addr.Address != body.Email {
		writeError(w, http.StatusBadRequest, "email format is invalid")
		return
	}
	if body.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	pair, err := h.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrNotFound) {
			h.logger.Warn("login_failed", map[string]any{"reason": loginFailureReason(err)})
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("login_error", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.cookies.Set(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	writeJSON(w, http.StatusOK, id)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	pair, err := h.service.UpdateTokens(r.Context(), id.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.logger.Warn("token_refresh_failed", map[string]any{"reason": "user_not_found", "user_id": id.Subject})
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		sentry.CaptureException(err)
		h.logger.Error("token_refresh_error", map[string]any{"error": err.Error(), "user_id": id.Subject})
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	h.cookies.Set(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func loginFailureReason(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "user_not_found"
	}
	return "password_mismatch"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
