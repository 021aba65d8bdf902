package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"campusride/account"
	"campusride/identity"
	"campusride/registration"
	"campusride/token"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// writeError maps domain errors onto the wire taxonomy. Expected failures
// keep their detail; anything unrecognized is a server fault that is logged
// in full and answered with a generic message.
func writeError(log *logrus.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var v *registration.ValidationError
	switch {
	case errors.As(err, &v):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation_failed", Fields: v.Fields})
	case account.IsDuplicate(err):
		writeJSON(w, http.StatusConflict, errorBody{Error: "duplicate_resource", Message: dupMessage(err)})
	case errors.Is(err, account.ErrRoleAlreadySet):
		writeJSON(w, http.StatusConflict, errorBody{Error: "role_already_set", Message: "account already completed role selection"})
	case errors.Is(err, account.ErrNotPendingVerification):
		writeJSON(w, http.StatusConflict, errorBody{Error: "not_pending_verification", Message: "driver is not awaiting verification"})
	case errors.Is(err, account.ErrNotFound), errors.Is(err, account.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "resource not found"})
	case errors.Is(err, registration.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid_credentials", Message: "wrong email or password"})
	case errors.Is(err, identity.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "role not permitted for this resource"})
	case errors.Is(err, token.ErrExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "token_expired", Message: "token expired, refresh required"})
	case errors.Is(err, token.ErrSignature), errors.Is(err, token.ErrMalformed):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing or invalid credentials"})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server_error", Message: "internal server error"})
	}
}

func dupMessage(err error) string {
	switch {
	case errors.Is(err, account.ErrDuplicateEmail):
		return "email already registered"
	case errors.Is(err, account.ErrDuplicatePhone):
		return "phone already registered"
	case errors.Is(err, account.ErrDuplicateLicense):
		return "license number already registered"
	case errors.Is(err, account.ErrDuplicatePlate):
		return "plate number already registered"
	default:
		return "duplicate resource"
	}
}
