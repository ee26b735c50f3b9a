package httpapi

import (
	"errors"
	"net/http"
	"time"

	"kulturabooking.org/internal/audit"
	"kulturabooking.org/internal/auth"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	InstitutionName string `json:"institution_name"`
	InstitutionType string `json:"institution_type"`
	Country         string `json:"country"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type sessionUser struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	InstitutionID   string `json:"institution_id"`
	InstitutionName string `json:"institution_name,omitempty"`
	Role            string `json:"role"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      sessionUser `json:"user"`
}

func sessionToResponse(s auth.Session) sessionResponse {
	resp := sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User: sessionUser{
			ID:            s.User.ID,
			Email:         s.User.Email,
			InstitutionID: s.User.InstitutionID,
			Role:          s.User.Role,
		},
	}
	if s.Institution != nil {
		resp.User.InstitutionName = s.Institution.Name
	}
	return resp
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Register(r.Context(), auth.RegisterRequest{
		Email:           req.Email,
		Password:        req.Password,
		InstitutionName: req.InstitutionName,
		InstitutionType: req.InstitutionType,
		Country:         req.Country,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	// Registration predates the first theme write; seed the default.
	if err := a.booking.EnsureDefaultTheme(r.Context(), session.Institution.ID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id":        session.User.ID,
		"institution_id": session.Institution.ID,
		"email":          session.User.Email,
	})
	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":        session.User.ID,
		"institution_id": session.User.InstitutionID,
	})
	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user": map[string]any{
			"user_id":        id.UserID,
			"institution_id": id.InstitutionID,
			"email":          id.Email,
		},
	})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.auth.ForgotPassword(r.Context(), req.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If email exists, password reset link has been sent",
	})
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, r, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
