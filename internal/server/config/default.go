package config

import (
	"time"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// Contact providers.
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second

	DefaultAssetsDir = "assets/nordlys"

	DefaultContactFrom    = "onboarding@resend.dev"
	DefaultContactTimeout = 10 * time.Second

	DefaultDataDir    = "/var/lib/gatekeep/data"
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
		},
		Gate: GateSection{
			Nordlys: SurfaceConfig{
				TTL:          domain.DefaultLoginTTL,
				FailureDelay: domain.DefaultLoginFailureDelay,
			},
			Vault: SurfaceConfig{
				TTL:          domain.DefaultVaultTTL,
				FailureDelay: domain.DefaultVaultFailureDelay,
			},
		},
		Assets: AssetsSection{
			Dir: DefaultAssetsDir,
		},
		Contact: ContactSection{
			Provider: ProviderResend,
			From:     DefaultContactFrom,
			Timeout:  DefaultContactTimeout,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			GCInterval: DefaultGCInterval,
		},
		Log: LogSection{
			Level:      DefaultLogLevel,
			Format:     DefaultLogFormat,
			MaxSizeMB:  DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAgeDays: DefaultMaxAgeDays,
		},
	}
}

// Normalize replaces out-of-range values with defaults and returns a note
// for each replacement.
func Normalize(cfg *ServerConfig) []string {
	var notes []string

	if cfg.Gate.Nordlys.TTL < time.Second {
		cfg.Gate.Nordlys.TTL = domain.DefaultLoginTTL
		notes = append(notes, "gate.nordlys.ttl below 1s, using default")
	}
	// A vault override is only honored when longer than a minute.
	if cfg.Gate.Vault.TTL <= domain.MinVaultTTL {
		cfg.Gate.Vault.TTL = domain.DefaultVaultTTL
		notes = append(notes, "gate.vault.ttl must exceed 60s, using default")
	}
	if cfg.Contact.From == "" {
		cfg.Contact.From = DefaultContactFrom
	}
	if cfg.Contact.Timeout <= 0 {
		cfg.Contact.Timeout = DefaultContactTimeout
	}

	return notes
}

// NordlysSurface builds the login-flow surface from cfg.
func (cfg *ServerConfig) NordlysSurface() domain.Surface {
	return cfg.Gate.Nordlys.apply(domain.NordlysSurface())
}

// VaultSurface builds the vault surface from cfg.
func (cfg *ServerConfig) VaultSurface() domain.Surface {
	return cfg.Gate.Vault.apply(domain.VaultSurface())
}

func (c SurfaceConfig) apply(s domain.Surface) domain.Surface {
	s.Password = c.Password
	s.Secret = c.Secret
	if c.TTL > 0 {
		s.TTL = c.TTL
	}
	if c.FailureDelay >= 0 {
		s.FailureDelay = c.FailureDelay
	}
	s.LoginRate = c.LoginRate
	s.LoginBurst = c.LoginBurst
	return s
}
