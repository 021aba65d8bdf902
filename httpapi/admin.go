package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ListAccounts returns a page of accounts for the admin surface.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	accounts, total, err := h.dir.ListAccounts(r.Context(), page, pageSize)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, viewOf(acct))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": views, "total": total})
}

// VerifyDriverAccount flips a pending driver to active. This is the manual
// admin action closing the driver lifecycle; it does not touch outstanding
// tokens or sessions.
func (h *Handlers) VerifyDriverAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["id"]

	acct, err := h.dir.VerifyDriver(r.Context(), accountID)
	if err != nil {
		writeError(h.log, w, r, err)
		return
	}

	h.log.WithField("account_id", acct.ID).Info("driver verified")
	writeJSON(w, http.StatusOK, map[string]any{"account": viewOf(acct)})
}
