package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"repertoire/internal/drill"
	"repertoire/internal/service"
)

// DrillHandler handles speed-drill HTTP requests
type DrillHandler struct {
	studyService *service.StudyService
	drillService *service.DrillService
	sessions     *sessionStore[*drill.Runner]
}

// NewDrillHandler creates a new drill handler
func NewDrillHandler(studyService *service.StudyService, drillService *service.DrillService) *DrillHandler {
	return &DrillHandler{
		studyService: studyService,
		drillService: drillService,
		sessions:     newSessionStore[*drill.Runner](),
	}
}

// Start begins a drill run over every line of a study
func (h *DrillHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	study, err := h.studyService.GetStudy(user.ID, r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "", nil)
		return
	}

	// The time limit is optional, as is the request body itself.
	var req struct {
		TimeLimitSeconds int `json:"timeLimitSeconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "Failed to decode request body", err)
		return
	}

	runner, err := h.drillService.StartRun(study, time.Duration(req.TimeLimitSeconds)*time.Second)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	h.sessions.Set(user.ID, runner)
	h.respondState(w, user.ID, nil)
}

// Move submits a move to the active drill. The clock starts on the
// first submission; a finished run is persisted to the history.
func (h *DrillHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	runner, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := runner.SubmitMove(req.From, req.To, req.Promo)
	if err != nil {
		if errors.Is(err, drill.ErrDrillFinished) {
			respondWithError(w, http.StatusConflict, err.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	if runner.Finished() {
		if err := h.drillService.SaveRun(runner.Session(user.ID)); err != nil {
			log.Printf("Failed to save drill run: %v", err)
		}
		h.sessions.Delete(user.ID)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"result": result,
			"stats":  runner.Stats(),
			"done":   true,
		})
		return
	}
	h.respondState(w, user.ID, result)
}

// State returns the current drill state, stats, and board
func (h *DrillHandler) State(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if _, ok := h.sessions.Get(user.ID); !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}
	h.respondState(w, user.ID, nil)
}

// History returns recent drill runs and the best clean time for a study
func (h *DrillHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	studyID := r.PathValue("id")

	sessions, err := h.drillService.History(user.ID, studyID, 20)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load drill history", err)
		return
	}
	best, err := h.drillService.BestTime(user.ID, studyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load best time", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions":      sessions,
		"bestElapsedMs": best,
	})
}

func (h *DrillHandler) respondState(w http.ResponseWriter, userID int64, result *drill.Result) {
	runner, ok := h.sessions.Get(userID)
	if !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}

	payload := map[string]interface{}{
		"board": runner.BoardConfig(),
		"stats": runner.Stats(),
		"done":  runner.Finished(),
	}
	if result != nil {
		payload["result"] = result
	}
	respondJSON(w, http.StatusOK, payload)
}
