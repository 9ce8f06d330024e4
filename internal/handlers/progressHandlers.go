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

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// TrackView is the view gate endpoint: it either records a view and returns
// the updated counter, or rejects with 403 when the caller is not enrolled or
// has exhausted the cap.
func (p *ProgressHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.TrackProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Invalid request body for TrackView")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	videoID, err := primitive.ObjectIDFromHex(req.VideoID)
	if err != nil {
		apperrors.WriteError(w, apperrors.BadRequest("invalid video id"))
		return
	}

	progress, err := p.progressService.RecordView(r.Context(), userID, videoID, req.DeviceFingerprint, utils.ClientIP(r))
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, progress)
}

func (p *ProgressHandler) GetVideoProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	videoID, err := utils.GetObjectIDFromVars(w, r, "videoId")
	if err != nil {
		return
	}

	progress, err := p.progressService.GetVideoProgress(r.Context(), userID, videoID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, progress)
}

func (p *ProgressHandler) GetLessonProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}

	progress, err := p.progressService.GetLessonProgress(r.Context(), userID, lessonID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, progress)
}
