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

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (u *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var user models.User

	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Error().Err(err).Msg("Invalid user data input for Register")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	registeredUser, err := u.userService.Register(r.Context(), &user)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, registeredUser)
}

func (u *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for VerifyOTP")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.Identifier == "" || req.Code == "" {
		apperrors.WriteError(w, apperrors.BadRequest("identifier and code are required"))
		return
	}

	if err := u.userService.VerifyAccount(r.Context(), req.Identifier, req.Code); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "account verified"})
}

func (u *UserHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.ResendOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for ResendOTP")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.Identifier == "" {
		apperrors.WriteError(w, apperrors.BadRequest("identifier is required"))
		return
	}

	if err := u.userService.ResendCode(r.Context(), req.Identifier); err != nil {
		apperrors.WriteError(w, err)
		return
	}

	// Same answer whether or not the identifier exists.
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a code has been sent"})
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	user, err := u.userService.GetProfile(r.Context(), userID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}

func (u *UserHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var payload models.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error().Err(err).Msg("Invalid request body for UpdateMyProfile")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	updatedUser, err := u.userService.UpdateProfile(r.Context(), userID, &payload)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, updatedUser)
}
