package httpapi

import (
	"net/http"
)

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	stats, err := a.booking.DashboardStats(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleBookingsOverTime(w http.ResponseWriter, r *http.Request) {
	a.statisticsSeries(w, r, "monthly_bookings")
}

func (a *API) handlePopularPrograms(w http.ResponseWriter, r *http.Request) {
	a.statisticsSeries(w, r, "program_bookings")
}

func (a *API) statisticsSeries(w http.ResponseWriter, r *http.Request, key string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	series, err := a.booking.Statistics(r.Context(), id.InstitutionID)
	if err != nil {
		handleBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series[key])
}
