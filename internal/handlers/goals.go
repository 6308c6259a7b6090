package handlers

import (
	"encoding/json"
	"net/http"

	"studylog-backend/internal/middleware"
	"studylog-backend/internal/models"
	"studylog-backend/internal/services"
)

type GoalHandler struct {
	goals *services.GoalService
}

func NewGoalHandler(goals *services.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	goal, err := h.goals.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SetWeeklyGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	goal, err := h.goals.SetWeeklyGoal(r.Context(), userID, req.TargetMinutes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	progress, err := h.goals.Progress(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}
