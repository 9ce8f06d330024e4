package handlers

import (
	"net/http"

	"darsly/internal/database"
	"darsly/internal/utils"
)

type CommonHandler struct {
	db database.Service
}

func NewCommonHandler(db database.Service) *CommonHandler {
	return &CommonHandler{db: db}
}

func (c *CommonHandler) Hello(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello from Darsly"})
}

func (c *CommonHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.db.Health())
}
