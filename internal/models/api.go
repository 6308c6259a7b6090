package models

// Request bodies for the session and goal endpoints.

type StartSessionRequest struct {
	InitialActivity string `json:"initial_activity,omitempty"`
}

type EndSessionRequest struct {
	NotesStudied int        `json:"notes_studied"`
	QuizzesTaken int        `json:"quizzes_taken"`
	AverageScore *float64   `json:"average_score,omitempty"`
	FocusLevel   FocusLevel `json:"focus_level,omitempty"`
}

type AppendActivityRequest struct {
	Activity string `json:"activity"`
}

type SetWeeklyGoalRequest struct {
	TargetMinutes int `json:"target_minutes"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
