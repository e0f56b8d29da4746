package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/audit"
	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/service"
)

type AuthHandler struct {
	authService   *service.AuthService
	portalBaseURL string
	isProduction  bool
}

func NewAuthHandler(authService *service.AuthService, portalBaseURL string, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		portalBaseURL: strings.TrimRight(portalBaseURL, "/"),
		isProduction:  isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/magic-link", h.MagicLink)
	r.Post("/password", h.SetupPassword)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/resend-link", h.ResendLink)

	return r
}

// MagicLink redeems a single-use token from an emailed link. The
// browser is redirected, never shown JSON: to the password setup screen
// for first-time users, the dashboard for returning ones, or the error
// screen with a machine-readable code.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")

	outcome, err := h.authService.RedeemToken(r.Context(), rawToken, audit.GetClientIP(r))
	if err != nil {
		code := apperrors.RedirectCode(err)
		if code == "server_error" {
			log.Error().Err(err).Msg("magic link redemption failed")
		}
		http.Redirect(w, r, fmt.Sprintf("%s/auth/error?code=%s", h.portalBaseURL, code), http.StatusFound)
		return
	}

	if outcome.NeedsPasswordSetup {
		target := fmt.Sprintf("%s/auth/setup-password?userId=%s&email=%s",
			h.portalBaseURL,
			url.QueryEscape(outcome.User.ID),
			url.QueryEscape(outcome.User.Email))
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	middleware.SetSessionCookie(w, outcome.SessionToken, h.isProduction)
	http.Redirect(w, r, h.portalBaseURL+"/dashboard", http.StatusFound)
}

type setupPasswordRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	var req setupPasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.authService.SetupPassword(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, outcome.SessionToken, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    outcome.User,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.authService.Login(r.Context(), req.Email, req.Password, audit.GetClientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, outcome.SessionToken, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    outcome.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("logout failed")
		}
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resendLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) ResendLink(w http.ResponseWriter, r *http.Request) {
	var req resendLinkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.ResendLink(r.Context(), req.Email, audit.GetClientIP(r)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If the account exists, a new sign-in link has been issued.",
	})
}

func decodeAndValidate(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validate.Struct(dest); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	return nil
}
