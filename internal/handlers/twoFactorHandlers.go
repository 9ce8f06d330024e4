package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"darsly/internal/apperrors"
	"darsly/internal/models"
	"darsly/internal/services"
	"darsly/internal/utils"
)

type TwoFactorHandler struct {
	twoFactorService services.TwoFactorService
}

func NewTwoFactorHandler(twoFactorService services.TwoFactorService) *TwoFactorHandler {
	return &TwoFactorHandler{twoFactorService: twoFactorService}
}

// Setup provisions a fresh secret and returns it with the otpauth URL. The
// secret stays inert until Enable confirms a valid code.
func (t *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	setup, err := t.twoFactorService.Setup(r.Context(), userID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, setup)
}

func (t *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.EnableTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Enable 2FA")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.Token == "" {
		apperrors.WriteError(w, apperrors.BadRequest("token is required"))
		return
	}

	if err := t.twoFactorService.Enable(r.Context(), userID, req.Token); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"enabled": true})
}

func (t *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.DisableTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Disable 2FA")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.Password == "" || req.TOTPCode == "" {
		apperrors.WriteError(w, apperrors.BadRequest("password and totpCode are required"))
		return
	}

	if err := t.twoFactorService.Disable(r.Context(), userID, req.Password, req.TOTPCode); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
}

func (t *TwoFactorHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	enabled, err := t.twoFactorService.Status(r.Context(), userID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"enabled": enabled})
}
