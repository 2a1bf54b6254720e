package handlers

import (
	"errors"
	"log"
	"net/http"

	"repertoire/internal/security"
	"repertoire/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService       *service.AuthService
	studyService      *service.StudyService
	emailService      *service.EmailService
	csrf              *security.CSRFStore
	googleClientID    string
	googleSecret      string
	oauthRedirectBase string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, studyService *service.StudyService, emailService *service.EmailService, csrf *security.CSRFStore, googleClientID, googleSecret, oauthRedirectBase string) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		studyService:      studyService,
		emailService:      emailService,
		csrf:              csrf,
		googleClientID:    googleClientID,
		googleSecret:      googleSecret,
		oauthRedirectBase: oauthRedirectBase,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a new account, seeds the starter studies, and logs
// the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrEmailTaken) {
			status = http.StatusConflict
		}
		respondWithError(w, status, err.Error(), "", nil)
		return
	}

	h.studyService.SeedStarterStudies(user.ID)

	if err := h.emailService.SendWelcomeEmail(r.Context(), user.Email, user.Name); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to log in after registration", err)
		return
	}

	security.SetSessionCookie(w, r, session.ID, session.ExpiresAt.Sub(session.CreatedAt))
	respondJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Login authenticates a user and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
		return
	}

	security.SetSessionCookie(w, r, session.ID, session.ExpiresAt.Sub(session.CreatedAt))
	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Logout invalidates the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := security.SessionIDFromRequest(r); sessionID != "" {
		if err := h.authService.Logout(sessionID); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	security.ClearSessionCookie(w, r)
	respondJSON(w, http.StatusNoContent, nil)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// CSRFToken issues a token for the client to echo on mutating requests
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token := h.csrf.Issue(w, r)
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}
