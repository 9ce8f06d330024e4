package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"darsly/internal/apperrors"
	"darsly/internal/models"
	"darsly/internal/services"
	"darsly/internal/utils"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

func (e *EnrollmentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for Purchase")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	lessonID, err := primitive.ObjectIDFromHex(req.LessonID)
	if err != nil {
		apperrors.WriteError(w, apperrors.BadRequest("invalid lesson id"))
		return
	}

	enrollment, err := e.enrollmentService.PurchaseLesson(r.Context(), userID, lessonID, req.PaymentID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, enrollment)
}

func (e *EnrollmentHandler) CheckEnrollment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}

	status, err := e.enrollmentService.CheckEnrollment(r.Context(), userID, lessonID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, status)
}

func (e *EnrollmentHandler) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	enrollments, err := e.enrollmentService.ListEnrollments(r.Context(), userID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, enrollments)
}
