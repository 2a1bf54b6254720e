package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"repertoire/internal/models"
	"repertoire/internal/practice"
	"repertoire/internal/service"
)

// PracticeHandler handles practice session HTTP requests
type PracticeHandler struct {
	studyService  *service.StudyService
	reviewService *service.ReviewService
	sessions      *sessionStore[*practiceState]
}

// NewPracticeHandler creates a new practice handler
func NewPracticeHandler(studyService *service.StudyService, reviewService *service.ReviewService) *PracticeHandler {
	return &PracticeHandler{
		studyService:  studyService,
		reviewService: reviewService,
		sessions:      newSessionStore[*practiceState](),
	}
}

type practiceState struct {
	study  *models.Study
	engine *practice.Engine
}

type moveRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Promo string `json:"promo,omitempty"`
}

// Start begins a practice session over a study
func (h *PracticeHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	study, err := h.studyService.GetStudy(user.ID, r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "", nil)
		return
	}

	engine, err := practice.NewEngine(study)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.sessions.Set(user.ID, &practiceState{study: study, engine: engine})
	h.respondState(w, user.ID, nil)
}

// Move submits a user move to the active session. A rejected move is
// recorded as a mistake for spaced-repetition review.
func (h *PracticeHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := state.engine.SubmitMove(req.From, req.To)
	if err != nil {
		if errors.Is(err, practice.ErrLineComplete) || errors.Is(err, practice.ErrPromotionPending) {
			respondWithError(w, http.StatusConflict, err.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.afterResult(user.ID, state, result)
	h.respondState(w, user.ID, result)
}

// ChoosePromotion resolves a deferred promotion with the chosen piece
func (h *PracticeHandler) ChoosePromotion(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req struct {
		Piece string `json:"piece"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := state.engine.ChoosePromotion(req.Piece)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.afterResult(user.ID, state, result)
	h.respondState(w, user.ID, result)
}

// CancelPromotion abandons a deferred promotion
func (h *PracticeHandler) CancelPromotion(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	if err := state.engine.CancelPromotion(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	h.respondState(w, user.ID, nil)
}

// Restart rewinds the current line to its beginning
func (h *PracticeHandler) Restart(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	if err := state.engine.Restart(); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to restart line", err)
		return
	}
	h.respondState(w, user.ID, nil)
}

// JumpToEnd plays the rest of the current line out automatically
func (h *PracticeHandler) JumpToEnd(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	replies, err := state.engine.JumpToEnd()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to jump to end", err)
		return
	}
	h.respondState(w, user.ID, &practice.Result{Outcome: practice.OutcomeCompleted, Replies: replies})
}

// SwitchLine selects another enumerated line of the study
func (h *PracticeHandler) SwitchLine(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	state, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req struct {
		Index int `json:"index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := state.engine.SwitchLine(req.Index); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	h.respondState(w, user.ID, nil)
}

// State returns the current session state and board configuration
func (h *PracticeHandler) State(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if _, ok := h.sessions.Get(user.ID); !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}
	h.respondState(w, user.ID, nil)
}

// afterResult records mistakes on rejections and progress on completions
func (h *PracticeHandler) afterResult(userID int64, state *practiceState, result *practice.Result) {
	switch result.Outcome {
	case practice.OutcomeRejected:
		if result.Expected != nil {
			if _, err := h.reviewService.RecordMiss(userID, state.study, result.Expected.ID, time.Now()); err != nil {
				log.Printf("Failed to record mistake: %v", err)
			}
		}
	case practice.OutcomeCompleted:
		h.saveProgress(userID, state)
	}
}

func (h *PracticeHandler) saveProgress(userID int64, state *practiceState) {
	progress, err := h.studyService.GetProgress(userID, state.study.ID)
	if err != nil {
		log.Printf("Failed to load progress: %v", err)
		return
	}
	if progress == nil {
		progress = &models.PracticeProgress{UserID: userID, StudyID: state.study.ID}
	}
	progress.LinesCompleted++
	progress.LastLineIndex = state.engine.LineIndex()
	if err := h.studyService.SaveProgress(progress); err != nil {
		log.Printf("Failed to save progress: %v", err)
	}
}

func (h *PracticeHandler) respondState(w http.ResponseWriter, userID int64, result *practice.Result) {
	state, ok := h.sessions.Get(userID)
	if !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	payload := map[string]interface{}{
		"board":     state.engine.BoardConfig(),
		"fen":       state.engine.FEN(),
		"lineIndex": state.engine.LineIndex(),
		"lineCount": state.engine.LineCount(),
		"completed": state.engine.Completed(),
	}
	if result != nil {
		payload["result"] = result
	}
	respondJSON(w, http.StatusOK, payload)
}
