package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrStudyNotFound       = "Study not found"
	ErrNoActiveSession     = "No active session"
)
