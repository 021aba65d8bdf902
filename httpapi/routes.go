package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"campusride/account"
	"campusride/identity"
)

// NewRouter builds the token-surface router. Verify, refresh and logout
// resolve the token themselves so they can answer with precise codes; the
// rest run behind the shared middleware.
func NewRouter(h *Handlers, mw *identity.Middleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", h.Verify).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	r.Handle("/auth/me", mw.Authenticate(http.HandlerFunc(h.CurrentIdentity))).Methods(http.MethodGet)

	// Role completion is only meaningful for accounts still unassigned.
	r.Handle("/auth/role", mw.Authenticate(
		identity.RequireRole(account.RoleUnassigned)(http.HandlerFunc(h.CompleteRole)),
	)).Methods(http.MethodPost)

	r.Handle("/driver/profile", mw.Authenticate(
		identity.RequireRole(account.RoleDriver)(http.HandlerFunc(h.DriverProfile)),
	)).Methods(http.MethodGet)
	r.Handle("/passenger/profile", mw.Authenticate(
		identity.RequireRole(account.RolePassenger)(http.HandlerFunc(h.PassengerProfile)),
	)).Methods(http.MethodGet)

	return r
}

// NewAdminRouter builds the session-surface router. It reuses the exact
// same gate logic as the API router; only the resolver behind mw differs.
func NewAdminRouter(h *Handlers, mw *identity.Middleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	r.Handle("/auth/me", mw.Authenticate(http.HandlerFunc(h.CurrentIdentity))).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(mw.Authenticate)
	admin.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet)
	admin.HandleFunc("/accounts/{id}/verify-driver", h.VerifyDriverAccount).Methods(http.MethodPost)

	return r
}
