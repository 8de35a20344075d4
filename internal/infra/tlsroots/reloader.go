package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CertReloader holds the current server key pair.
type CertReloader struct {
	certFile string
	keyFile  string
	debounce time.Duration
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// ReloaderOption configures a CertReloader.
type ReloaderOption func(*CertReloader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ReloaderOption {
	return func(r *CertReloader) {
		r.logger = logger
	}
}

// WithDebounce sets how long to wait after the last change before
// reloading.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *CertReloader) {
		r.debounce = d
	}
}

// NewCertReloader loads the key pair and returns a reloader for it.
func NewCertReloader(certFile, keyFile string, opts ...ReloaderOption) (*CertReloader, error) {
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reads the key pair from disk. The previous pair stays in use if
// the files cannot be loaded.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// ServerConfig returns a TLS 1.2+ server configuration backed by r.
func (r *CertReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Run watches the key pair until ctx is cancelled.
func (r *CertReloader) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Directories rather than files, so rename-based updates are seen.
	watched := map[string]bool{
		filepath.Clean(r.certFile): true,
		filepath.Clean(r.keyFile):  true,
	}
	dirs := map[string]bool{}
	for f := range watched {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	r.logger.Info("certificate watcher started", "cert_file", r.certFile, "key_file", r.keyFile)

	timer := time.NewTimer(r.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			timer.Reset(r.debounce)

		case <-timer.C:
			if err := r.Reload(); err != nil {
				r.logger.Error("certificate reload failed", "error", err)
				continue
			}
			r.logger.Info("certificate reloaded", "cert_file", r.certFile)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
