package config

import "time"

// ServerConfig is the root configuration for gatekeep-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Gate    GateSection    `koanf:"gate"`
	Assets  AssetsSection  `koanf:"assets"`
	Contact ContactSection `koanf:"contact"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// CORSAllowedOrigins lists origins allowed on the JSON API routes.
	// "*" allows any origin. /api/vault-check always allows any origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// TrustProxy makes the client IP come from X-Forwarded-For.
	TrustProxy bool `koanf:"trust_proxy"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	TLSCertFile  string        `koanf:"tls_cert_file"`
	TLSKeyFile   string        `koanf:"tls_key_file"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// GateSection configures the password-gated surfaces.
type GateSection struct {
	Nordlys SurfaceConfig `koanf:"nordlys"`
	Vault   SurfaceConfig `koanf:"vault"`
}

// SurfaceConfig configures one gated surface.
type SurfaceConfig struct {
	// Password is plaintext or an argon2id PHC hash.
	Password string `koanf:"password"`
	// Secret is the HMAC key for session tokens.
	Secret string `koanf:"secret"`

	TTL          time.Duration `koanf:"ttl"`
	FailureDelay time.Duration `koanf:"failure_delay"`

	// LoginRate is attempts per second per client IP; 0 disables throttling.
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

// AssetsSection configures protected static assets.
type AssetsSection struct {
	// Dir holds the nordlys photos.
	Dir string `koanf:"dir"`

	// VaultContentFile is trusted HTML shown on the unlocked vault page.
	// Empty shows a placeholder.
	VaultContentFile string `koanf:"vault_content_file"`
}

// ContactSection configures the contact form mailer.
type ContactSection struct {
	// Provider is "resend" or "smtp".
	Provider string `koanf:"provider"`

	APIKey string `koanf:"api_key"`
	APIURL string `koanf:"api_url"`

	To   []string `koanf:"to"`
	From string   `koanf:"from"`

	SMTPHost     string `koanf:"smtp_host"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	// SMTPCAFile adds a PEM root bundle for servers with private CAs.
	SMTPCAFile string `koanf:"smtp_ca_file"`

	Timeout time.Duration `koanf:"timeout"`
}

// StorageSection configures the contact archive.
type StorageSection struct {
	DataDir        string        `koanf:"data_dir"`
	ArchiveEnabled bool          `koanf:"archive_enabled"`
	GCInterval     time.Duration `koanf:"gc_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`

	// File enables rotated file output in addition to stderr.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}
