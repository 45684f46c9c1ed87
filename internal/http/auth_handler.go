package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/auth"
	"github.com/fjod/plantshop/internal/logging"
)

type Sessions interface {
	Current() (auth.Identity, bool)
	Login(ctx context.Context, username, password string) (auth.Result, error)
	Register(ctx context.Context, username, password string) (auth.Result, error)
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	sessions Sessions
	timeout  time.Duration
	logger   *zap.Logger
}

func NewAuthHandler(sessions Sessions, timeout time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, timeout: timeout, logger: logging.OrNop(logger)}
}

type CredentialsRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

var failureCodes = map[auth.Failure]string{
	auth.FailureUsernameRequired:   "invalid_username",
	auth.FailureUsernameFormat:     "invalid_username",
	auth.FailurePasswordRequired:   "invalid_password",
	auth.FailurePasswordTooShort:   "invalid_password",
	auth.FailurePasswordNoLower:    "invalid_password",
	auth.FailurePasswordNoUpper:    "invalid_password",
	auth.FailurePasswordNoDigit:    "invalid_password",
	auth.FailurePasswordNoSpecial:  "invalid_password",
	auth.FailurePasswordTooLong:    "invalid_password",
	auth.FailureUsernameTaken:      "username_taken",
	auth.FailureInvalidCredentials: "invalid_credentials",
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, _ *http.Request) {
	id, ok := h.sessions.Current()
	respondJSON(w, h.logger, http.StatusOK, SessionResponse{Authenticated: ok, Username: id.Username})
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.sessions.Login, http.StatusOK, http.StatusUnauthorized)
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.sessions.Register, http.StatusCreated, http.StatusBadRequest)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.sessions.Logout(ctx); err != nil {
		if errors.Is(err, auth.ErrClosed) {
			respondError(w, h.logger, http.StatusServiceUnavailable, "session_closed", "session is closed")
			return
		}
		h.logger.Error("logged out but session was not cleared from storage", zap.Error(err))
	}
	respondJSON(w, h.logger, http.StatusOK, SessionResponse{})
}

type authFunc func(ctx context.Context, username, password string) (auth.Result, error)

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, fn authFunc, okStatus, failStatus int) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CredentialsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := fn(ctx, req.Username, req.Password)
	if err != nil && !res.OK() {
		if errors.Is(err, auth.ErrClosed) {
			respondError(w, h.logger, http.StatusServiceUnavailable, "session_closed", "session is closed")
			return
		}
		handleError(w, h.logger, err)
		return
	}
	if err != nil {
		// logged in, but the session was not saved
		h.logger.Error("session started but was not saved", zap.Error(err))
	}
	if !res.OK() {
		respondError(w, h.logger, failStatus, failureCodes[res.Failure], res.Failure.Message())
		return
	}
	respondJSON(w, h.logger, okStatus, SessionResponse{Authenticated: true, Username: res.Identity.Username})
}
