package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"repertoire/internal/models"
	"repertoire/internal/puzzle"
	"repertoire/internal/service"
)

// puzzleRun is one user's in-flight puzzle attempt
type puzzleRun struct {
	puzzle    *models.Puzzle
	runner    *puzzle.Runner
	startedAt time.Time
}

// PuzzleHandler handles puzzle HTTP requests
type PuzzleHandler struct {
	puzzleService *service.PuzzleService
	sessions      *sessionStore[*puzzleRun]
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzleService *service.PuzzleService) *PuzzleHandler {
	return &PuzzleHandler{
		puzzleService: puzzleService,
		sessions:      newSessionStore[*puzzleRun](),
	}
}

// Next serves the lowest-rated puzzle the user has not solved yet. The
// opponent's opening move is still pending; the client calls Step after
// its presentation delay.
func (h *PuzzleHandler) Next(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	p, runner, err := h.puzzleService.NextPuzzle(user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoPuzzles) {
			respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to pick puzzle", err)
		return
	}

	h.sessions.Set(user.ID, &puzzleRun{puzzle: p, runner: runner, startedAt: time.Now()})
	h.respondState(w, user.ID, nil)
}

// Move submits a user move. During an opponent reply the move is held
// as a premove rather than rejected.
func (h *PuzzleHandler) Move(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	run, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := run.runner.SubmitMove(req.From, req.To, req.Promo)
	if err != nil {
		if errors.Is(err, puzzle.ErrPuzzleOver) {
			respondWithError(w, http.StatusConflict, err.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	h.finishIfOver(user.ID, run)
	h.respondRun(w, run, result)
}

// Step resolves the pending opponent reply and any queued premove
func (h *PuzzleHandler) Step(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	run, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}

	result, err := run.runner.Step()
	if err != nil {
		if errors.Is(err, puzzle.ErrPuzzleOver) || errors.Is(err, puzzle.ErrNoStep) {
			respondWithError(w, http.StatusConflict, err.Error(), "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to step puzzle", err)
		return
	}
	h.finishIfOver(user.ID, run)
	h.respondRun(w, run, result)
}

// CancelPremove drops the queued premove, if any
func (h *PuzzleHandler) CancelPremove(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	run, ok := h.sessions.Get(user.ID)
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrNoActiveSession, "", nil)
		return
	}
	run.runner.CancelPremove()
	h.respondRun(w, run, nil)
}

// State returns the current puzzle state and board
func (h *PuzzleHandler) State(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	h.respondState(w, user.ID, nil)
}

// History returns recent attempts and the solved tally
func (h *PuzzleHandler) History(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	attempts, err := h.puzzleService.History(user.ID, 20)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load puzzle history", err)
		return
	}
	solved, err := h.puzzleService.SolvedCount(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to count solved puzzles", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
		"solved":   solved,
	})
}

// finishIfOver persists the attempt and drops the session once the
// puzzle reaches a terminal state.
func (h *PuzzleHandler) finishIfOver(userID int64, run *puzzleRun) {
	state := run.runner.CurrentState()
	if state != puzzle.StateCompleted && state != puzzle.StateFailed {
		return
	}
	elapsed := time.Since(run.startedAt).Milliseconds()
	if err := h.puzzleService.RecordAttempt(run.runner.Attempt(userID, elapsed)); err != nil {
		log.Printf("Failed to record puzzle attempt: %v", err)
	}
	h.sessions.Delete(userID)
}

func (h *PuzzleHandler) respondState(w http.ResponseWriter, userID int64, result *puzzle.Result) {
	run, ok := h.sessions.Get(userID)
	if !ok {
		respondWithError(w, http.StatusNotFound, ErrNoActiveSession, "", nil)
		return
	}
	h.respondRun(w, run, result)
}

func (h *PuzzleHandler) respondRun(w http.ResponseWriter, run *puzzleRun, result *puzzle.Result) {
	payload := map[string]interface{}{
		"puzzleId": run.puzzle.ID,
		"rating":   run.puzzle.Rating,
		"themes":   run.puzzle.ThemeList(),
		"state":    run.runner.CurrentState(),
		"side":     run.runner.UserSide(),
		"board":    run.runner.BoardConfig(),
	}
	if result != nil {
		payload["result"] = result
	}
	respondJSON(w, http.StatusOK, payload)
}
