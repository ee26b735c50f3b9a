package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"/metrics":                           "/metrics",
		"/api/programs":                      "/api/programs",
		"/api/programs/abc":                  "/api/programs/:id",
		"/api/programs/public/inst-1":        "/api/programs/public/:institution_id",
		"/api/bookings/abc":                  "/api/bookings/:id",
		"/api/bookings/abc/status":           "/api/bookings/:id/status",
		"/api/bookings/public/inst-1":        "/api/bookings/public/:institution_id",
		"/api/settings/theme":                "/api/settings/theme",
		"/api/settings/theme/public/inst-1":  "/api/settings/theme/public/:institution_id",
		"/api/payments/status/cs_test_123":   "/api/payments/status/:session_id",
		"/api/payments/create-session":       "/api/payments/create-session",
		"/api/payments/status/a/b":           "/api/payments/status/a/b",
		"/api/webhook/stripe?source=retried": "/api/webhook/stripe",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
