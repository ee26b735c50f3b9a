package httpapi

import (
	"net/http"
	"strings"

	"kulturabooking.org/internal/audit"
	"kulturabooking.org/internal/booking"
	"kulturabooking.org/internal/stream"
)

type bookingRequest struct {
	ProgramID           string `json:"program_id"`
	Date                string `json:"date"`
	TimeBlock           string `json:"time_block"`
	SchoolName          string `json:"school_name"`
	GroupType           string `json:"group_type"`
	AgeOrClass          string `json:"age_or_class"`
	NumStudents         int    `json:"num_students"`
	SpecialRequirements string `json:"special_requirements"`
	ContactName         string `json:"contact_name"`
	ContactEmail        string `json:"contact_email"`
	ContactPhone        string `json:"contact_phone"`
	GDPRConsent         bool   `json:"gdpr_consent"`
}

type bookingStatusRequest struct {
	Status string `json:"status"`
}

func (req bookingRequest) toBooking(institutionID string) *booking.Booking {
	return &booking.Booking{
		InstitutionID:       institutionID,
		ProgramID:           req.ProgramID,
		Date:                req.Date,
		TimeBlock:           req.TimeBlock,
		SchoolName:          strings.TrimSpace(req.SchoolName),
		GroupType:           req.GroupType,
		AgeOrClass:          req.AgeOrClass,
		NumStudents:         req.NumStudents,
		SpecialRequirements: req.SpecialRequirements,
		ContactName:         strings.TrimSpace(req.ContactName),
		ContactEmail:        strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:        req.ContactPhone,
		GDPRConsent:         req.GDPRConsent,
	}
}

func (a *API) handleBookingsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listBookings(w, r)
	case http.MethodPost:
		a.createBooking(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBookingResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if instID, ok := strings.CutPrefix(path, "public/"); ok {
		if instID == "" || strings.Contains(instID, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.createPublicBooking(w, r, instID)
		return
	}

	if id, ok := strings.CutSuffix(path, "/status"); ok {
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.updateBookingStatus(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.getBooking(w, r, path)
}

func (a *API) listBookings(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	bookings, err := a.booking.ListBookings(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*booking.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (a *API) getBooking(w http.ResponseWriter, r *http.Request, bookingID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	b, err := a.booking.FindBooking(r.Context(), id.InstitutionID, bookingID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// createBooking is the authenticated variant used by admins entering phone
// reservations; it runs the same path as the public form.
func (a *API) createBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, err := a.booking.CreateBooking(r.Context(), req.toBooking(id.InstitutionID))
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	a.publishBookingEvent(stream.EventBookingCreated, b)
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) createPublicBooking(w http.ResponseWriter, r *http.Request, institutionID string) {
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if institutionID == booking.DemoInstitutionID {
		b := booking.RecordDemoBooking(req.toBooking(booking.DemoInstitutionID))
		writeJSON(w, http.StatusCreated, b)
		return
	}

	b, err := a.booking.CreateBooking(r.Context(), req.toBooking(institutionID))
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	a.publishBookingEvent(stream.EventBookingCreated, b)
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) updateBookingStatus(w http.ResponseWriter, r *http.Request, bookingID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req bookingStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b, err := a.booking.UpdateBookingStatus(r.Context(), id.InstitutionID, bookingID, req.Status)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "booking.status.updated", map[string]any{
		"booking_id": b.ID,
		"status":     b.Status,
	})
	a.publishBookingEvent(stream.EventBookingStatusChanged, b)
	writeJSON(w, http.StatusOK, b)
}

func (a *API) publishBookingEvent(eventType string, b *booking.Booking) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(stream.Event{
		Type:          eventType,
		InstitutionID: b.InstitutionID,
		Payload:       b,
	})
}

func (a *API) handleSchools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	schools, err := a.booking.ListSchools(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	if schools == nil {
		schools = []*booking.School{}
	}
	writeJSON(w, http.StatusOK, schools)
}
