package handlers

import (
	"net/http"
	"time"

	"darsly/internal/apperrors"
	"darsly/internal/services"
	"darsly/internal/utils"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetOverview reports totals for a window given as RFC 3339 `since`/`until`
// query params, defaulting to the last 30 days.
func (a *AnalyticsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	until := time.Now()
	since := until.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.WriteError(w, apperrors.BadRequest("invalid since timestamp"))
			return
		}
		since = parsed
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.WriteError(w, apperrors.BadRequest("invalid until timestamp"))
			return
		}
		until = parsed
	}

	overview, err := a.analyticsService.GetOverview(r.Context(), since, until)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, overview)
}

func (a *AnalyticsHandler) GetLessonStats(w http.ResponseWriter, r *http.Request) {
	lessonID, err := utils.GetObjectIDFromVars(w, r, "lessonId")
	if err != nil {
		return
	}

	stats, err := a.analyticsService.GetLessonStats(r.Context(), lessonID)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, stats)
}
