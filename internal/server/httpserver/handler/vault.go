package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"net/url"

	"github.com/gorilla/schema"

	"github.com/yndnr/gatekeep/internal/core/domain"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
	"github.com/yndnr/gatekeep/pkg/token"
)

// vaultCSP allows inline styles and same-origin images, nothing else.
const vaultCSP = "default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'; " +
	"script-src 'none'; base-uri 'none'; form-action 'self'; frame-ancestors 'none'; connect-src 'none'"

const defaultVaultContent template.HTML = `
    <h1>Secret page</h1>
    <p>Replace this placeholder by pointing <code>assets.vault_content_file</code> at your own HTML.</p>
    <p>Keep it self-contained (no external scripts): the page is served with a strict Content-Security-Policy.</p>
`

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type vaultForm struct {
	Password string `schema:"password"`
}

type passwordPage struct {
	Error   string
	Message string
}

type secretPage struct {
	LogoutHref string
	Content    template.HTML
}

var passwordTemplate = template.Must(template.New("password").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Vault</title>
    <style>
      :root { color-scheme: dark; }
      body { margin: 0; min-height: 100vh; display: grid; place-items: center; font-family: ui-sans-serif, system-ui, Segoe UI, Roboto, Arial; background: #070A12; color: #E7EAF4; }
      .card { width: min(420px, calc(100vw - 32px)); border-radius: 16px; border: 1px solid rgba(255,255,255,.10); background: rgba(255,255,255,.04); box-shadow: 0 20px 80px rgba(0,0,0,.45); padding: 20px; }
      h1 { font-size: 18px; margin: 0 0 8px; letter-spacing: .3px; }
      p { margin: 0 0 14px; color: rgba(231,234,244,.8); font-size: 13px; line-height: 1.45; }
      label { display: block; font-size: 12px; margin: 0 0 8px; color: rgba(231,234,244,.85); }
      input { width: 100%; box-sizing: border-box; padding: 12px 12px; border-radius: 12px; border: 1px solid rgba(255,255,255,.12); background: rgba(255,255,255,.06); color: #E7EAF4; outline: none; }
      input:focus { border-color: rgba(120,140,255,.55); box-shadow: 0 0 0 4px rgba(120,140,255,.18); }
      button { margin-top: 12px; width: 100%; padding: 12px 12px; border-radius: 12px; border: 1px solid rgba(255,255,255,.12); background: linear-gradient(135deg, rgba(120,140,255,.95), rgba(76,210,255,.85)); color: #071018; font-weight: 800; letter-spacing: .2px; cursor: pointer; }
      button:hover { filter: brightness(1.05); }
      .msg { margin: 0 0 12px; padding: 10px 12px; border-radius: 12px; font-size: 13px; }
      .msg.err { background: rgba(255, 80, 80, .12); border: 1px solid rgba(255, 80, 80, .25); color: rgba(255, 200, 200, .95); }
      .msg.ok { background: rgba(80, 255, 160, .10); border: 1px solid rgba(80, 255, 160, .22); color: rgba(200, 255, 230, .95); }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>Enter password</h1>
      <p>This page is protected.</p>
      {{if .Message}}<p class="msg ok">{{.Message}}</p>{{end}}
      {{if .Error}}<p class="msg err">{{.Error}}</p>{{end}}
      <form method="POST" autocomplete="off">
        <label for="password">Password</label>
        <input id="password" name="password" type="password" required autofocus />
        <button type="submit">Unlock</button>
      </form>
    </div>
  </body>
</html>
`))

var secretTemplate = template.Must(template.New("secret").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Vault</title>
    <style>
      :root { color-scheme: dark; }
      body { margin: 0; min-height: 100vh; font-family: ui-sans-serif, system-ui, Segoe UI, Roboto, Arial; background: #070A12; color: #E7EAF4; }
      .wrap { max-width: 860px; margin: 0 auto; padding: 28px 18px; }
      .panel { border-radius: 16px; border: 1px solid rgba(255,255,255,.10); background: rgba(255,255,255,.04); box-shadow: 0 20px 80px rgba(0,0,0,.45); padding: 22px; }
      h1, h2, h3 { margin: 0 0 10px; }
      p, li { color: rgba(231,234,244,.82); line-height: 1.6; }
      code { padding: 2px 6px; border-radius: 8px; background: rgba(255,255,255,.08); border: 1px solid rgba(255,255,255,.10); }
      .top { display: flex; align-items: center; justify-content: space-between; gap: 12px; margin-bottom: 12px; }
      a.btn { display: inline-flex; align-items: center; justify-content: center; padding: 10px 12px; border-radius: 12px; border: 1px solid rgba(255,255,255,.12); background: rgba(255,255,255,.06); color: rgba(231,234,244,.9); text-decoration: none; font-weight: 700; }
      a.btn:hover { background: rgba(255,255,255,.10); }
      .stamp { font-size: 12px; color: rgba(231,234,244,.55); }
      hr { border: none; border-top: 1px solid rgba(255,255,255,.10); margin: 14px 0; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <div class="panel">
        <div class="top">
          <div>
            <div class="stamp">Private area</div>
          </div>
          <a class="btn" href="{{.LogoutHref}}">Log out</a>
        </div>
        <hr />
        {{.Content}}
      </div>
    </div>
  </body>
</html>
`))

// handleVault serves the server-rendered vault at /vault.
func (h *Handler) handleVault(w http.ResponseWriter, r *http.Request) {
	if !h.vault.Configured() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Vault is not configured."))
		return
	}

	setVaultHeaders(w.Header())

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("logout") == "1" {
			http.SetCookie(w, h.vault.ClearCookie())
			renderPage(w, r, http.StatusOK, passwordTemplate, passwordPage{Message: "Logged out."})
			return
		}
		if h.vault.Authorized(r.Header.Get("Cookie")) {
			h.renderSecret(w, r)
			return
		}
		renderPage(w, r, http.StatusOK, passwordTemplate, passwordPage{})

	case http.MethodPost:
		password, err := h.readVaultPassword(w, r)
		if err != nil {
			renderPage(w, r, http.StatusBadRequest, passwordTemplate, passwordPage{Error: "Bad request."})
			return
		}

		sess, err := h.vault.Login(r.Context(), password, clientIP(r))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrUnauthorized):
			renderPage(w, r, http.StatusUnauthorized, passwordTemplate, passwordPage{Error: "Incorrect password."})
			return
		case errors.Is(err, domain.ErrTooManyAttempts):
			w.Header().Set("Retry-After", "60")
			renderPage(w, r, http.StatusTooManyRequests, passwordTemplate, passwordPage{Error: "Too many attempts. Try again later."})
			return
		default:
			logger.L(r.Context()).Error("vault login failed", "error", err)
			renderPage(w, r, http.StatusInternalServerError, passwordTemplate, passwordPage{Error: "Unexpected error."})
			return
		}

		http.SetCookie(w, h.vault.SessionCookie(sess))
		logger.L(r.Context()).Info("vault session issued",
			"session", token.Fingerprint(sess.Token),
			"expires", sess.Payload.Exp,
		)
		h.renderSecret(w, r)

	default:
		w.Header().Set("Allow", "GET, POST")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(domain.ErrMethodNotAllowed.Message))
	}
}

func (h *Handler) renderSecret(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, secretTemplate, secretPage{
		LogoutHref: r.URL.Path + "?logout=1",
		Content:    h.vaultContent,
	})
}

// readVaultPassword accepts both the HTML form and a JSON body.
func (h *Handler) readVaultPassword(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := h.readBody(w, r)
	if err != nil {
		return "", err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	isForm := mediaType == "application/x-www-form-urlencoded" ||
		(mediaType != "application/json" && bytes.IndexByte(data, '=') >= 0)

	if isForm {
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return "", nil
		}
		var form vaultForm
		if err := formDecoder.Decode(&form, values); err != nil {
			return "", nil
		}
		return form.Password, nil
	}

	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return "", nil
	}
	return stringField(fields, "password"), nil
}

func setVaultHeaders(header http.Header) {
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", "no-store")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("Referrer-Policy", "no-referrer")
	header.Set("X-Frame-Options", "DENY")
	header.Set("Cross-Origin-Opener-Policy", "same-origin")
	header.Set("Cross-Origin-Resource-Policy", "same-origin")
	header.Set("Content-Security-Policy", vaultCSP)
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logger.L(r.Context()).Error("failed to render vault page", "template", tmpl.Name(), "error", err)
		http.Error(w, domain.ErrInternal.Message, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// handleVaultCheck handles /api/vault-check: a password probe for
// client-side vault pages. It issues no session.
func (h *Handler) handleVaultCheck(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	header.Set("Content-Type", "application/json; charset=utf-8")
	header.Set("Cache-Control", "no-store")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		header.Set("Allow", "POST, OPTIONS")
		writeJSON(w, r, http.StatusMethodNotAllowed, response{Error: domain.ErrMethodNotAllowed.Message})
		return
	}

	fields, err := h.readJSONObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.vault.CheckPassword(r.Context(), stringField(fields, "password"), clientIP(r))
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, response{OK: true})
	case errors.Is(err, domain.ErrNotConfigured):
		writeJSON(w, r, http.StatusInternalServerError, response{Error: "Vault not configured"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, r, http.StatusUnauthorized, response{})
	default:
		writeError(w, r, err)
	}
}
