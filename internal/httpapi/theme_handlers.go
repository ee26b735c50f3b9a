package httpapi

import (
	"net/http"
	"strings"

	"kulturabooking.org/internal/booking"
)

type themeRequest struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	AccentColor    string `json:"accent_color"`
	LogoURL        string `json:"logo_url"`
	HeaderStyle    string `json:"header_style"`
	FooterText     string `json:"footer_text"`
}

func (a *API) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getTheme(w, r)
	case http.MethodPut:
		a.putTheme(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) getTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	theme, err := a.booking.Theme(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

func (a *API) putTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	theme, err := a.booking.SaveTheme(r.Context(), &booking.Theme{
		InstitutionID:  id.InstitutionID,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		AccentColor:    req.AccentColor,
		LogoURL:        req.LogoURL,
		HeaderStyle:    req.HeaderStyle,
		FooterText:     req.FooterText,
	})
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

func (a *API) handlePublicTheme(w http.ResponseWriter, r *http.Request) {
	instID := strings.TrimPrefix(r.URL.Path, "/api/settings/theme/public/")
	if instID == "" || strings.Contains(instID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if instID == booking.DemoInstitutionID {
		writeJSON(w, http.StatusOK, booking.DemoTheme())
		return
	}
	theme, err := a.booking.Theme(r.Context(), instID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}
