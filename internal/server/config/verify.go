package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration.
//
// Missing passwords and secrets are not an error: the affected surface
// answers "Server not configured" at request time.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyGate(&cfg.Gate); err != nil {
		return err
	}
	if err := verifyAssets(&cfg.Assets); err != nil {
		return err
	}
	if err := verifyContact(&cfg.Contact); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("tls file: %w", err)
		}
	}

	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 || cfg.HTTP.IdleTimeout < 0 {
		return errors.New("server.http timeouts must not be negative")
	}
	return nil
}

func verifyGate(cfg *GateSection) error {
	for name, s := range map[string]SurfaceConfig{"nordlys": cfg.Nordlys, "vault": cfg.Vault} {
		if s.FailureDelay < 0 {
			return fmt.Errorf("gate.%s.failure_delay must not be negative", name)
		}
		if s.LoginRate < 0 || s.LoginBurst < 0 {
			return fmt.Errorf("gate.%s.login_rate and login_burst must not be negative", name)
		}
	}
	return nil
}

func verifyAssets(cfg *AssetsSection) error {
	if cfg.VaultContentFile == "" {
		return nil
	}
	info, err := os.Stat(cfg.VaultContentFile)
	if err != nil {
		return fmt.Errorf("assets.vault_content_file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("assets.vault_content_file %q is not a regular file", cfg.VaultContentFile)
	}
	return nil
}

func verifyContact(cfg *ContactSection) error {
	switch cfg.Provider {
	case "", ProviderResend:
	case ProviderSMTP:
		if cfg.SMTPHost == "" {
			return errors.New("contact.smtp_host is required for the smtp provider")
		}
		if cfg.SMTPCAFile != "" {
			if _, err := os.Stat(cfg.SMTPCAFile); err != nil {
				return fmt.Errorf("contact.smtp_ca_file: %w", err)
			}
		}
	default:
		return fmt.Errorf("contact.provider %q: must be resend or smtp", cfg.Provider)
	}
	for _, to := range cfg.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("contact.to: invalid address %q", to)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if !cfg.ArchiveEnabled {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}

	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}
	if cfg.MaxSizeMB < 0 || cfg.MaxBackups < 0 || cfg.MaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	return nil
}
