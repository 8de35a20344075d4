package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/gatekeep/internal/core/domain"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
	"github.com/yndnr/gatekeep/pkg/token"
)

// DefaultNordlysRedirect is where the front end goes after logging in.
const DefaultNordlysRedirect = "/nordlys"

// ContentData is the protected nordlys payload.
type ContentData struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var nordlysContent = ContentData{
	Title:   "Nordlys",
	Message: "Protected content placeholder. Replace with real data or render server-side.",
}

// handleNordlysLogin handles POST /api/nordlys-login.
func (h *Handler) handleNordlysLogin(w http.ResponseWriter, r *http.Request) {
	fields, err := h.readJSONObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.nordlys.Login(r.Context(), textField(fields, "password"), clientIP(r))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			err = domain.ErrUnauthorized.WithMessage("Invalid password")
		}
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.nordlys.SessionCookie(sess))
	logger.L(r.Context()).Info("nordlys session issued",
		"session", token.Fingerprint(sess.Token),
		"expires", sess.Payload.Exp,
	)
	writeJSON(w, r, http.StatusOK, response{OK: true, Redirect: safeRedirect(fields["redirect"])})
}

// safeRedirect accepts only same-origin absolute paths.
func safeRedirect(v any) string {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, `/\`) {
		return DefaultNordlysRedirect
	}
	return s
}

// handleNordlysLogout handles POST /api/nordlys-logout.
func (h *Handler) handleNordlysLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.nordlys.ClearCookie())
	writeJSON(w, r, http.StatusOK, response{OK: true})
}

// handleNordlysSession handles GET /api/nordlys-session.
func (h *Handler) handleNordlysSession(w http.ResponseWriter, r *http.Request) {
	err := h.authorizeNordlys(r)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, response{OK: true})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, r, http.StatusUnauthorized, response{})
	default:
		writeError(w, r, err)
	}
}

// handleNordlysContent handles GET /api/nordlys-content.
func (h *Handler) handleNordlysContent(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeNordlys(r); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: nordlysContent})
}

// handleNordlysPhoto handles GET /api/nordlys-photo?id=.
func (h *Handler) handleNordlysPhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeNordlys(r); err != nil {
		writeError(w, r, err)
		return
	}

	asset, err := h.assets.Open(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer asset.Close()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=0, no-store")
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, asset.File); err != nil {
		logger.L(r.Context()).Warn("photo stream interrupted", "photo", asset.Name, "error", err)
	}
}

func (h *Handler) authorizeNordlys(r *http.Request) error {
	return h.nordlys.AuthorizeRequest(r)
}
