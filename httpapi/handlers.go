// Package httpapi exposes the authentication and registration endpoints
// over HTTP. The same handlers serve both deployed processes; the router a
// process mounts decides which identity resolver guards which routes.
package httpapi

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"campusride/account"
	"campusride/docstore"
	"campusride/identity"
	"campusride/registration"
	"campusride/session"
	"campusride/token"
)

// maxUploadBytes bounds a role-completion submission including images.
const maxUploadBytes = 10 << 20

// Handlers carries the collaborators behind the HTTP surface.
type Handlers struct {
	reg      *registration.Service
	tokens   *token.Service
	dir      account.Directory
	bridge   *session.Bridge
	docs     docstore.Store
	tokenTTL time.Duration
	log      *logrus.Logger
}

// NewHandlers wires the HTTP surface.
func NewHandlers(
	reg *registration.Service,
	tokens *token.Service,
	dir account.Directory,
	bridge *session.Bridge,
	docs docstore.Store,
	tokenTTL time.Duration,
	log *logrus.Logger,
) *Handlers {
	return &Handlers{
		reg:      reg,
		tokens:   tokens,
		dir:      dir,
		bridge:   bridge,
		docs:     docs,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

type accountView struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Role      account.Role   `json:"role"`
	Status    account.Status `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

func viewOf(acct account.Account) accountView {
	return accountView{
		ID:        acct.ID,
		Email:     acct.Email,
		Phone:     acct.Phone,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Role:      acct.Role,
		Status:    acct.Status,
		CreatedAt: acct.CreatedAt,
	}
}

type authResponse struct {
	Token   string      `json:"token"`
	Account accountView `json:"account"`
}

// Register handles base signup. A fresh account always starts unassigned;
// the response carries a token and the parallel session cookie.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registration.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	res, err := h.reg.Signup(r.Context(), req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	h.establish(w, r, res)
	h.log.WithField("account_id", res.Account.ID).Info("account registered")
	writeJSON(w, http.StatusCreated, authResponse{Token: res.Token, Account: viewOf(res.Account)})
}

// Login authenticates credentials and establishes both identity carriers.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req registration.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	res, err := h.reg.Login(r.Context(), req)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	h.establish(w, r, res)
	writeJSON(w, http.StatusOK, authResponse{Token: res.Token, Account: viewOf(res.Account)})
}

// establish sets the token cookie and mirrors the identity into a session.
// A session-store failure does not block the token flow; the API surface
// stays usable and the bridge failure is logged.
func (h *Handlers) establish(w http.ResponseWriter, r *http.Request, res registration.AuthResult) {
	token.SetCookie(w, res.Token, h.tokenTTL)
	if h.bridge != nil {
		if _, err := h.bridge.Mirror(r.Context(), w, res.Claims); err != nil {
			h.log.WithError(err).Warn("session bridge failed")
		}
	}
}

// CompleteRole handles the unassigned → driver/passenger transition. The
// request is multipart: scalar fields plus the document images, which are
// uploaded to the document store before the transition guard runs.
func (h *Handlers) CompleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing or invalid credentials"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid multipart form"})
		return
	}

	switch account.Role(r.FormValue("role")) {
	case account.RoleDriver:
		h.completeDriver(w, r, id.AccountID)
	case account.RolePassenger:
		h.completePassenger(w, r, id.AccountID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "validation_failed",
			Fields: map[string][]string{"role": {"must be driver or passenger"}},
		})
	}
}

func (h *Handlers) completeDriver(w http.ResponseWriter, r *http.Request, accountID string) {
	app := registration.DriverApplication{
		LicenseNumber: r.FormValue("license_number"),
		LicenseType:   r.FormValue("license_type"),
		VehicleBrand:  r.FormValue("vehicle_brand"),
		VehicleModel:  r.FormValue("vehicle_model"),
		VehicleColor:  r.FormValue("vehicle_color"),
		PlateNumber:   r.FormValue("plate_number"),
	}
	if raw := r.FormValue("license_expiry"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			app.LicenseExpiry = ts
		}
	}
	if raw := r.FormValue("vehicle_year"); raw != "" {
		app.VehicleYear, _ = strconv.Atoi(raw)
	}
	if raw := r.FormValue("seats_available"); raw != "" {
		app.SeatsAvailable, _ = strconv.Atoi(raw)
	}

	// Upload the three documents; an absent file simply leaves its
	// reference empty and the transition guard reports it with the rest.
	app.LicenseImageRef = h.upload(r, "license_image")
	app.VehiclePhotoRef = h.upload(r, "vehicle_photo")
	app.ProfilePhotoRef = h.upload(r, "profile_photo")

	acct, err := h.reg.CompleteDriver(r.Context(), accountID, app)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{"account_id": acct.ID, "role": acct.Role}).Info("role completed")
	writeJSON(w, http.StatusOK, map[string]any{"account": viewOf(acct)})
}

func (h *Handlers) completePassenger(w http.ResponseWriter, r *http.Request, accountID string) {
	app := registration.PassengerApplication{
		PreferredPayment: r.FormValue("preferred_payment"),
		ProfilePhotoRef:  h.upload(r, "profile_photo"),
	}

	acct, err := h.reg.CompletePassenger(r.Context(), accountID, app)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{"account_id": acct.ID, "role": acct.Role}).Info("role completed")
	writeJSON(w, http.StatusOK, map[string]any{"account": viewOf(acct)})
}

// upload stores one multipart file and returns its reference, or "" when
// the part is missing or the store rejects it.
func (h *Handlers) upload(r *http.Request, field string) string {
	file, header, err := r.FormFile(field)
	if err != nil {
		return ""
	}
	defer file.Close()

	ref, err := h.docs.Put(r.Context(), file, contentTypeOf(header))
	if err != nil {
		h.log.WithError(err).WithField("field", field).Warn("document upload failed")
		return ""
	}
	return ref
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

type claimsView struct {
	UserID    string       `json:"user_id"`
	Role      account.Role `json:"role"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func claimsViewOf(c token.Claims) claimsView {
	v := claimsView{
		UserID:    c.UserID,
		Role:      c.Role,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
	if c.IssuedAt != nil {
		v.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		v.ExpiresAt = c.ExpiresAt.Time
	}
	return v
}

// Verify checks the transported token and echoes its claims. Runs without
// middleware so expired and malformed tokens produce their distinct codes.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	raw, ok := token.FromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing or invalid credentials"})
		return
	}

	claims, err := h.tokens.Verify(raw)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"claims": claimsViewOf(claims)})
}

// Refresh issues a new token with the same identity payload and a renewed
// lifetime. It accepts only still-valid tokens; an expired token cannot
// refresh itself.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	raw, ok := token.FromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing or invalid credentials"})
		return
	}

	claims, err := h.tokens.Verify(raw)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	refreshed, err := h.tokens.Refresh(claims)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	token.SetCookie(w, refreshed, h.tokenTTL)
	writeJSON(w, http.StatusOK, map[string]any{"token": refreshed})
}

// Logout clears the token cookie and destroys the server-side session.
// Outstanding tokens are not revoked; they simply age out.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token.ClearCookie(w)
	if h.bridge != nil {
		if err := h.bridge.Destroy(r.Context(), w, r); err != nil {
			h.log.WithError(err).Warn("session destroy failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CurrentIdentity returns the identity resolved by the middleware.
func (h *Handlers) CurrentIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing or invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identity": id})
}

// DriverProfile returns the caller's driver profile. Gated to drivers.
func (h *Handlers) DriverProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	profile, err := h.dir.GetDriverProfile(r.Context(), id.AccountID)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// PassengerProfile returns the caller's passenger profile. Gated to passengers.
func (h *Handlers) PassengerProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	profile, err := h.dir.GetPassengerProfile(r.Context(), id.AccountID)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}
