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

type CurriculumHandler struct {
	curriculumService services.CurriculumService
}

func NewCurriculumHandler(curriculumService services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculumService: curriculumService}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Invalid request body")
		apperrors.WriteError(w, apperrors.BadRequest("invalid request body"))
		return false
	}
	return true
}

func (c *CurriculumHandler) AddGrade(w http.ResponseWriter, r *http.Request) {
	var grade models.Grade
	if !decodeBody(w, r, &grade) {
		return
	}

	created, err := c.curriculumService.AddGrade(r.Context(), grade)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (c *CurriculumHandler) GetGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := c.curriculumService.GetGrades(r.Context())
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, grades)
}

func (c *CurriculumHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	gradeID, err := utils.GetObjectIDFromVars(w, r, "gradeId")
	if err != nil {
		return
	}
	var payload models.GradeUpdate
	if !decodeBody(w, r, &payload) {
		return
	}

	updated, err := c.curriculumService.UpdateGrade(r.Context(), gradeID, payload)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (c *CurriculumHandler) DeleteGrade(w http.ResponseWriter, r *http.Request) {
	gradeID, err := utils.GetObjectIDFromVars(w, r, "gradeId")
	if err != nil {
		return
	}
	if err := c.curriculumService.DeleteGrade(r.Context(), gradeID); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CurriculumHandler) AddSubject(w http.ResponseWriter, r *http.Request) {
	var subject models.Subject
	if !decodeBody(w, r, &subject) {
		return
	}

	created, err := c.curriculumService.AddSubject(r.Context(), subject)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (c *CurriculumHandler) GetSubjectsByGrade(w http.ResponseWriter, r *http.Request) {
	gradeID, err := utils.GetObjectIDFromVars(w, r, "gradeId")
	if err != nil {
		return
	}

	subjects, err := c.curriculumService.GetSubjectsByGrade(r.Context(), gradeID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, subjects)
}

func (c *CurriculumHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := utils.GetObjectIDFromVars(w, r, "subjectId")
	if err != nil {
		return
	}
	var payload models.SubjectUpdate
	if !decodeBody(w, r, &payload) {
		return
	}

	updated, err := c.curriculumService.UpdateSubject(r.Context(), subjectID, payload)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (c *CurriculumHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := utils.GetObjectIDFromVars(w, r, "subjectId")
	if err != nil {
		return
	}
	if err := c.curriculumService.DeleteSubject(r.Context(), subjectID); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CurriculumHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	var lesson models.Lesson
	if !decodeBody(w, r, &lesson) {
		return
	}

	created, err := c.curriculumService.AddLesson(r.Context(), lesson)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (c *CurriculumHandler) GetLessonsBySubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := utils.GetObjectIDFromVars(w, r, "subjectId")
	if err != nil {
		return
	}

	lessons, err := c.curriculumService.GetLessonsBySubject(r.Context(), subjectID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, lessons)
}

func (c *CurriculumHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}
	var payload models.LessonUpdate
	if !decodeBody(w, r, &payload) {
		return
	}

	updated, err := c.curriculumService.UpdateLesson(r.Context(), lessonID, payload)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (c *CurriculumHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}
	if err := c.curriculumService.DeleteLesson(r.Context(), lessonID); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CurriculumHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	var video models.Video
	if !decodeBody(w, r, &video) {
		return
	}

	created, err := c.curriculumService.AddVideo(r.Context(), video)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, created)
}

func (c *CurriculumHandler) GetVideosByLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}

	videos, err := c.curriculumService.GetVideosByLesson(r.Context(), lessonID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, videos)
}

func (c *CurriculumHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := utils.GetObjectIDFromVars(w, r, "videoId")
	if err != nil {
		return
	}
	var payload models.VideoUpdate
	if !decodeBody(w, r, &payload) {
		return
	}

	updated, err := c.curriculumService.UpdateVideo(r.Context(), videoID, payload)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (c *CurriculumHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := utils.GetObjectIDFromVars(w, r, "videoId")
	if err != nil {
		return
	}
	if err := c.curriculumService.DeleteVideo(r.Context(), videoID); err != nil {
		apperrors.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
