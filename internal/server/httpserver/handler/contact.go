package handler

import (
	"net/http"

	"github.com/yndnr/gatekeep/internal/core/domain"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
)

// handleContact handles POST /api/contact.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	fields, err := h.readJSONObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := domain.ContactMessage{
		Name:    stringField(fields, "name"),
		Email:   stringField(fields, "email"),
		Message: stringField(fields, "message"),
	}

	receipt, err := h.contact.Submit(r.Context(), msg, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	log := logger.L(r.Context())
	if receipt.ArchiveErr != nil {
		log.Warn("contact message delivered but not archived", "id", receipt.ID, "error", receipt.ArchiveErr)
	}
	log.Info("contact message delivered", "id", receipt.ID)
	writeJSON(w, r, http.StatusOK, response{OK: true})
}
