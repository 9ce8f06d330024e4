package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"darsly/internal/apperrors"
	"darsly/internal/models"
	"darsly/internal/services"
	"darsly/internal/utils"
)

type AuthHandler struct {
	authService       services.AuthService
	socialAuthService services.SocialAuthService
}

func NewAuthHandler(authService services.AuthService, socialAuthService services.SocialAuthService) *AuthHandler {
	return &AuthHandler{authService: authService, socialAuthService: socialAuthService}
}

func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Login

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Login")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if creds.Identifier == "" || creds.Password == "" {
		apperrors.WriteError(w, apperrors.BadRequest("identifier and password are required"))
		return
	}

	result, err := a.authService.Login(r.Context(), creds.Identifier, creds.Password)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (a *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.AdminLogin

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Error().Err(err).Msg("Invalid request body for AdminLogin")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if creds.PhoneNumber == "" || creds.Password == "" {
		apperrors.WriteError(w, apperrors.BadRequest("phone number and password are required"))
		return
	}

	result, err := a.authService.AdminLogin(r.Context(), creds.PhoneNumber, creds.Password)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// VerifyTwoFactor trades a temp token plus a TOTP code for a session.
func (a *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTwoFactorRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for VerifyTwoFactor")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.TempToken == "" || req.TOTPCode == "" {
		apperrors.WriteError(w, apperrors.BadRequest("tempToken and totpCode are required"))
		return
	}

	result, err := a.authService.VerifyTwoFactor(r.Context(), req.TempToken, req.TOTPCode)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (a *AuthHandler) BeginProviderAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

func (a *AuthHandler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("Provider auth failed")
		http.Redirect(w, r, "/auth/error", http.StatusTemporaryRedirect)
		return
	}

	token, err := a.socialAuthService.HandleProviderLogin(r.Context(), gothUser)
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("Failed to complete provider login")
		http.Redirect(w, r, "/auth/error", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/auth/success?token="+token, http.StatusTemporaryRedirect)
}

func (a *AuthHandler) AuthSuccess(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apperrors.WriteError(w, apperrors.ErrInvalidToken)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (a *AuthHandler) AuthError(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteError(w, apperrors.ErrInvalidCredentials)
}
