package handlers

import (
	"errors"
	"net/http"

	"repertoire/internal/models"
	"repertoire/internal/service"
)

// StudyHandler handles study CRUD HTTP requests
type StudyHandler struct {
	studyService *service.StudyService
}

// NewStudyHandler creates a new study handler
func NewStudyHandler(studyService *service.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

type createStudyRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Side        string            `json:"side"`
	RootFEN     string            `json:"rootFen"`
	Moves       []models.MoveNode `json:"moves"`
	// Lines is an alternative to Moves: whole lines of coordinate
	// moves that get merged into a tree server-side.
	Lines [][]string `json:"lines,omitempty"`
}

// List returns all of the user's studies
func (h *StudyHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	studies, err := h.studyService.ListStudies(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list studies", err)
		return
	}
	if studies == nil {
		studies = []models.Study{}
	}
	respondJSON(w, http.StatusOK, studies)
}

// Create stores a new study from a move tree or whole lines
func (h *StudyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createStudyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var study *models.Study
	var err error
	if len(req.Lines) > 0 {
		study, err = h.studyService.ImportLines(user.ID, req.Name, req.Description, req.Side, req.Lines)
	} else {
		study, err = h.studyService.CreateStudy(user.ID, req.Name, req.Description, req.Side, req.RootFEN, req.Moves)
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	respondJSON(w, http.StatusCreated, study)
}

// Get returns one study
func (h *StudyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	study, err := h.studyService.GetStudy(user.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudyNotFound) {
			respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to get study", err)
		return
	}
	respondJSON(w, http.StatusOK, study)
}

// Update replaces a study's metadata and move tree
func (h *StudyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	study, err := h.studyService.GetStudy(user.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudyNotFound) {
			respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to get study", err)
		return
	}

	var req createStudyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	study.Name = req.Name
	study.Description = req.Description
	study.Side = req.Side
	if req.RootFEN != "" {
		study.RootFEN = req.RootFEN
	}
	study.Moves = req.Moves

	if err := h.studyService.UpdateStudy(study); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	respondJSON(w, http.StatusOK, study)
}

// Delete removes a study and its mistake records
func (h *StudyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.studyService.DeleteStudy(user.ID, r.PathValue("id")); err != nil {
		respondWithError(w, http.StatusNotFound, ErrStudyNotFound, "Failed to delete study", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Progress returns how far the user has practised a study
func (h *StudyHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	progress, err := h.studyService.GetProgress(user.ID, r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to get progress", err)
		return
	}
	if progress == nil {
		progress = &models.PracticeProgress{UserID: user.ID, StudyID: r.PathValue("id")}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"linesCompleted": progress.LinesCompleted,
		"lastLineIndex":  progress.LastLineIndex,
	})
}
