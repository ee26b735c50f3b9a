package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"kulturabooking.org/internal/booking"
)

type programRequest struct {
	NameCS        string `json:"name_cs"`
	NameEN        string `json:"name_en"`
	DescriptionCS string `json:"description_cs"`
	DescriptionEN string `json:"description_en"`
	Duration      int    `json:"duration"`
	AgeGroup      string `json:"age_group"`
	MinCapacity   int    `json:"min_capacity"`
	MaxCapacity   int    `json:"max_capacity"`
	TargetGroup   string `json:"target_group"`
	Price         int64  `json:"price"`
	Status        string `json:"status"`
}

func (req programRequest) toProgram(institutionID, id string) *booking.Program {
	return &booking.Program{
		ID:            id,
		InstitutionID: institutionID,
		NameCS:        strings.TrimSpace(req.NameCS),
		NameEN:        strings.TrimSpace(req.NameEN),
		DescriptionCS: req.DescriptionCS,
		DescriptionEN: req.DescriptionEN,
		Duration:      req.Duration,
		AgeGroup:      req.AgeGroup,
		MinCapacity:   req.MinCapacity,
		MaxCapacity:   req.MaxCapacity,
		TargetGroup:   req.TargetGroup,
		Price:         req.Price,
		Status:        req.Status,
	}
}

func (a *API) handleProgramsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPrograms(w, r)
	case http.MethodPost:
		a.createProgram(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProgramResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/programs/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if instID, ok := strings.CutPrefix(path, "public/"); ok {
		if instID == "" || strings.Contains(instID, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listPublicPrograms(w, r, instID)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getProgram(w, r, path)
	case http.MethodPut:
		a.updateProgram(w, r, path)
	case http.MethodDelete:
		a.deleteProgram(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listPrograms(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	programs, err := a.booking.ListPrograms(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	if programs == nil {
		programs = []*booking.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (a *API) listPublicPrograms(w http.ResponseWriter, r *http.Request, institutionID string) {
	if institutionID == booking.DemoInstitutionID {
		writeJSON(w, http.StatusOK, booking.DemoPrograms())
		return
	}
	programs, err := a.booking.ListPublicPrograms(r.Context(), institutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	if programs == nil {
		programs = []*booking.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

func (a *API) createProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req programRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	program, err := a.booking.CreateProgram(r.Context(), req.toProgram(id.InstitutionID, ""))
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/programs/"+program.ID)
	writeJSON(w, http.StatusCreated, program)
}

func (a *API) getProgram(w http.ResponseWriter, r *http.Request, programID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	program, err := a.booking.FindProgram(r.Context(), id.InstitutionID, programID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (a *API) updateProgram(w http.ResponseWriter, r *http.Request, programID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req programRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	program, err := a.booking.UpdateProgram(r.Context(), req.toProgram(id.InstitutionID, programID))
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, program)
}

func (a *API) deleteProgram(w http.ResponseWriter, r *http.Request, programID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	if err := a.booking.DeleteProgram(r.Context(), id.InstitutionID, programID); err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func handleBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
