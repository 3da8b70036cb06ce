package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/identity"
	"adrenaline_backend/internal/service"
	"adrenaline_backend/internal/transport/http/middleware"
)

type AccountHandler struct {
	accounts *service.AccountService
	log      *logrus.Entry
}

func NewAccountHandler(accounts *service.AccountService, log *logrus.Entry) *AccountHandler {
	return &AccountHandler{accounts: accounts, log: log}
}

// Delete handles DELETE /me
// Purges every record of the caller, then removes their auth identity. The
// response carries the purge counts.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	report, err := h.accounts.DeleteAccount(r.Context(), identity.Session{
		UserID:      userID,
		AccessToken: middleware.GetAccessTokenFromContext(r.Context()),
	})
	if err != nil {
		h.log.WithField("user", userID).WithError(err).Error("DeleteAccount failed")
		if errors.Is(err, service.ErrPurgeIncomplete) {
			httputil.WriteError(w, http.StatusInternalServerError, httputil.ErrCodePurgeIncomplete,
				"Account signed out but some records could not be removed")
			return
		}
		httputil.WriteInternalError(w, "Failed to delete account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
