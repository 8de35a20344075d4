package handler

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/gatekeep/internal/core/domain"
	"github.com/yndnr/gatekeep/internal/core/service"
	"github.com/yndnr/gatekeep/internal/telemetry/logger"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 64 << 10

// Config wires the services behind the endpoints. A nil service is
// replaced by an unconfigured one, so its endpoints fail closed.
type Config struct {
	Nordlys *service.GateService
	Vault   *service.GateService
	Assets  *service.AssetService
	Contact *service.ContactService

	// VaultContent is the trusted HTML shown once the vault is unlocked.
	VaultContent template.HTML

	// Ready reports whether the process can take traffic. Nil means always.
	Ready func(ctx context.Context) error

	MaxBodyBytes int64
}

// Route is one registered endpoint.
type Route struct {
	// Pattern is the http.ServeMux pattern.
	Pattern string
	// Name labels metrics and logs.
	Name    string
	Handler http.Handler
}

// Handler serves the gatekeep endpoints.
type Handler struct {
	nordlys *service.GateService
	vault   *service.GateService
	assets  *service.AssetService
	contact *service.ContactService

	vaultContent template.HTML
	ready        func(ctx context.Context) error
	maxBody      int64
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		nordlys:      cfg.Nordlys,
		vault:        cfg.Vault,
		assets:       cfg.Assets,
		contact:      cfg.Contact,
		vaultContent: cfg.VaultContent,
		ready:        cfg.Ready,
		maxBody:      cfg.MaxBodyBytes,
	}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxBodyBytes
	}
	if h.vaultContent == "" {
		h.vaultContent = defaultVaultContent
	}
	if h.nordlys == nil {
		h.nordlys = unconfiguredGate(domain.NordlysSurface())
	}
	if h.vault == nil {
		h.vault = unconfiguredGate(domain.VaultSurface())
	}
	if h.assets == nil {
		h.assets = service.NewAssetService("")
	}
	if h.contact == nil {
		h.contact = service.NewContactService(service.ContactServiceConfig{}, nil)
	}
	return h
}

func unconfiguredGate(surface domain.Surface) *service.GateService {
	gate, err := service.NewGateService(surface)
	if err != nil {
		panic("handler: default surface rejected: " + err.Error())
	}
	return gate
}

// Routes returns every endpoint.
func (h *Handler) Routes() []Route {
	return []Route{
		{"/api/nordlys-login", "nordlys_login", methods(map[string]http.HandlerFunc{http.MethodPost: h.handleNordlysLogin})},
		{"/api/nordlys-logout", "nordlys_logout", methods(map[string]http.HandlerFunc{http.MethodPost: h.handleNordlysLogout})},
		{"/api/nordlys-session", "nordlys_session", methods(map[string]http.HandlerFunc{http.MethodGet: h.handleNordlysSession})},
		{"/api/nordlys-content", "nordlys_content", methods(map[string]http.HandlerFunc{http.MethodGet: h.handleNordlysContent})},
		{"/api/nordlys-photo", "nordlys_photo", methods(map[string]http.HandlerFunc{http.MethodGet: h.handleNordlysPhoto})},
		{"/api/vault-check", "vault_check", http.HandlerFunc(h.handleVaultCheck)},
		{"/vault", "vault", http.HandlerFunc(h.handleVault)},
		{"/api/contact", "contact", methods(map[string]http.HandlerFunc{http.MethodPost: h.handleContact})},
		{"/health", "health", methods(map[string]http.HandlerFunc{http.MethodGet: h.handleHealth})},
		{"/ready", "ready", methods(map[string]http.HandlerFunc{http.MethodGet: h.handleReady})},
	}
}

// ServeHTTP serves the routes on a private mux, mainly for tests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.Handle(rt.Pattern, rt.Handler)
	}
	mux.ServeHTTP(w, r)
}

// response is the JSON body shared by every API endpoint.
type response struct {
	OK          bool              `json:"ok"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Details     string            `json:"details,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
	Data        any               `json:"data,omitempty"`
}

// methods dispatches on r.Method and answers 405 for anything else.
func methods(handlers map[string]http.HandlerFunc) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fn, ok := handlers[r.Method]; ok {
			fn(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		writeJSON(w, r, http.StatusMethodNotAllowed, response{Error: domain.ErrMethodNotAllowed.Message})
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.L(r.Context()).Warn("failed to encode response", "error", err)
	}
}

// writeError maps err to its HTTP status and writes the JSON error body.
// Errors outside the domain taxonomy are logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		de = domain.ErrInternal.WithCause(err)
	}

	status := StatusFor(de)
	if status >= http.StatusInternalServerError && !errors.Is(de, domain.ErrNotConfigured) {
		logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
	}
	if errors.Is(de, domain.ErrTooManyAttempts) {
		w.Header().Set("Retry-After", "60")
	}

	w.Header().Set("X-Error-Code", de.Code)
	body := response{Error: de.Message, FieldErrors: de.Fields}
	if errors.Is(de, domain.ErrMailProvider) {
		body.Details = de.Details
	}
	writeJSON(w, r, status, body)
}

// StatusFor returns the HTTP status encoded in a domain error code: the
// first three digits of its numeric suffix.
func StatusFor(err error) int {
	code := domain.GetErrorCode(err)
	i := strings.LastIndexByte(code, '-')
	if i < 0 || len(code)-i-1 < 3 {
		return http.StatusInternalServerError
	}
	status, convErr := strconv.Atoi(code[i+1 : i+4])
	if convErr != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// readBody reads at most h.maxBody bytes of the request body.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		return nil, domain.ErrBadRequest.WithCause(err)
	}
	return data, nil
}

// readJSONObject decodes a JSON object body. Bodies that are not a JSON
// object decode to an empty map, which callers see as missing fields.
func (h *Handler) readJSONObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	data, err := h.readBody(w, r)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
			fields = map[string]any{}
		}
	}
	return fields, nil
}

// stringField stringifies a decoded JSON value; absent and null are "".
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// textField returns a string field, or "" when it holds any other type.
func textField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// clientIP prefers the address resolved by the ClientIP middleware.
func clientIP(r *http.Request) string {
	if ip := logger.ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
