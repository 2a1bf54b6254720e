package handlers

import (
	"log"
	"net/http"
	"time"

	"repertoire/internal/review"
	"repertoire/internal/service"
)

// ReviewHandler handles spaced-repetition review HTTP requests
type ReviewHandler struct {
	studyService  *service.StudyService
	reviewService *service.ReviewService
	sessions      *sessionStore[*review.Session]
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(studyService *service.StudyService, reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		studyService:  studyService,
		reviewService: reviewService,
		sessions:      newSessionStore[*review.Session](),
	}
}

// Overview returns due counts, total and per study
func (h *ReviewHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	now := time.Now()

	grouped, err := h.reviewService.DueByStudy(user.ID, now)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load due reviews", err)
		return
	}

	perStudy := make(map[string]int, len(grouped))
	total := 0
	for studyID, records := range grouped {
		perStudy[studyID] = len(records)
		total += len(records)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"perStudy": perStudy,
	})
}

// Start begins a review session over a study's due mistakes
func (h *ReviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	study, err := h.studyService.GetStudy(user.ID, r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "", nil)
		return
	}

	session, err := h.reviewService.NewSession(user.ID, study, time.Now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.sessions.Set(user.ID, session)
	h.respondState(w, user.ID, nil)
}

// Move submits an answer for the current review item
func (h *ReviewHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := session.SubmitMove(req.From, req.To, req.Promo)
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
		return
	}

	// Correct and lapsed answers carry an updated schedule to persist
	if result.Record != nil {
		if err := h.reviewService.SaveResult(result.Record); err != nil {
			log.Printf("Failed to save review result: %v", err)
		}
	}

	if result.Done {
		h.sessions.Delete(user.ID)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"result": result,
			"done":   true,
		})
		return
	}
	h.respondState(w, user.ID, result)
}

// Skip moves past the current item without answering
func (h *ReviewHandler) Skip(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	done, err := session.Skip()
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
		return
	}
	if done {
		h.sessions.Delete(user.ID)
		respondJSON(w, http.StatusOK, map[string]interface{}{"done": true})
		return
	}
	h.respondState(w, user.ID, nil)
}

// State returns the current session state and board configuration
func (h *ReviewHandler) State(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if _, ok := h.sessions.Get(user.ID); !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}
	h.respondState(w, user.ID, nil)
}

func (h *ReviewHandler) respondState(w http.ResponseWriter, userID int64, result *review.Result) {
	session, ok := h.sessions.Get(userID)
	if !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	payload := map[string]interface{}{
		"board":     session.BoardConfig(),
		"remaining": session.Remaining(),
		"done":      session.Finished(),
	}
	if result != nil {
		payload["result"] = result
	}
	respondJSON(w, http.StatusOK, payload)
}
