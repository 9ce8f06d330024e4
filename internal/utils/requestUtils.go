package utils

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"darsly/internal/models"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextRole   = "userRole"
)

func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	RespondWithJSON(w, statusCode, map[string]interface{}{
		"error": message,
		"code":  statusCode,
	})
}

// GetUserIDFromContext extracts and parses the userID set by the auth
// middleware. It writes the error response itself; callers just return.
func GetUserIDFromContext(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, error) {
	userIDStr, ok := r.Context().Value(ContextUserID).(string)
	if !ok {
		SendJSONError(w, "Invalid user ID", http.StatusUnauthorized)
		return primitive.NilObjectID, errors.New("invalid user ID in context")
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		SendJSONError(w, "Invalid user ID format", http.StatusUnauthorized)
		return primitive.NilObjectID, errors.New("invalid user ID format in context")
	}
	return userID, nil
}

// GetRoleFromContext returns the caller's role, defaulting to student when
// the claim is missing or malformed.
func GetRoleFromContext(r *http.Request) models.Role {
	role, ok := r.Context().Value(ContextRole).(models.Role)
	if !ok || !role.Valid() {
		return models.RoleStudent
	}
	return role
}

// GetObjectIDFromVars extracts and parses an ObjectID from mux.Vars.
func GetObjectIDFromVars(w http.ResponseWriter, r *http.Request, paramName string) (primitive.ObjectID, error) {
	idStr := mux.Vars(r)[paramName]
	if idStr == "" {
		SendJSONError(w, "Missing ID parameter", http.StatusBadRequest)
		return primitive.NilObjectID, errors.New("missing ID parameter")
	}

	objID, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		SendJSONError(w, "Invalid ID format", http.StatusBadRequest)
		return primitive.NilObjectID, errors.New("invalid ID format")
	}
	return objID, nil
}

// ClientIP returns the remote host without the port.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
