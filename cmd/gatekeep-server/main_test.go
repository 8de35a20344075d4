package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/gatekeep/internal/infra/mail"
	"github.com/yndnr/gatekeep/internal/server/config"
	"github.com/yndnr/gatekeep/internal/telemetry/metric"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http:
    addr: "127.0.0.1:9090"
gate:
  nordlys:
    password: from-file
  vault:
    ttl: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GATEKEEP_GATE_NORDLYS_SECRET", "env-secret")
	t.Setenv("VAULT_PASSWORD", "legacy-vault")
	t.Setenv("NORDLYS_PASSWORD", "legacy-ignored")

	cfg, notes, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:9090" {
		t.Errorf("addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Gate.Nordlys.Password != "from-file" || cfg.Gate.Nordlys.Secret != "env-secret" {
		t.Errorf("nordlys = %+v", cfg.Gate.Nordlys)
	}
	if cfg.Gate.Vault.Password != "legacy-vault" {
		t.Errorf("vault password = %q", cfg.Gate.Vault.Password)
	}
	if cfg.Gate.Vault.TTL != 7*24*time.Hour || len(notes) == 0 {
		t.Errorf("vault ttl = %v, notes = %v; short override should fall back", cfg.Gate.Vault.TTL, notes)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("GATEKEEP_LOG_LEVEL", "loud")
	if _, _, err := loadConfig(""); err == nil {
		t.Error("loadConfig() accepted an invalid log level")
	}
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ContactSection
		wantNil bool
		check   func(t *testing.T, m any)
	}{
		{"resend without key", config.ContactSection{Provider: config.ProviderResend}, true, nil},
		{"resend", config.ContactSection{Provider: config.ProviderResend, APIKey: "re_test"}, false, func(t *testing.T, m any) {
			if _, ok := m.(*mail.ResendMailer); !ok {
				t.Errorf("mailer = %T", m)
			}
		}},
		{"smtp", config.ContactSection{
			Provider: config.ProviderSMTP,
			SMTPHost: "smtp.example.com:465",
			From:     "Portfolio <me@example.com>",
		}, false, func(t *testing.T, m any) {
			if _, ok := m.(*mail.SMTPMailer); !ok {
				t.Errorf("mailer = %T", m)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newMailer(&tt.cfg)
			if err != nil {
				t.Fatalf("newMailer() error = %v", err)
			}
			if (m == nil) != tt.wantNil {
				t.Fatalf("mailer = %v, wantNil %v", m, tt.wantNil)
			}
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestInitHandler_Components(t *testing.T) {
	cfg := config.Default()
	cfg.Gate.Nordlys.Password = "pw"
	cfg.Gate.Nordlys.Secret = "secret"

	_, components, err := initHandler(cfg, metric.NewRegistry(), nil)
	if err != nil {
		t.Fatalf("initHandler() error = %v", err)
	}

	want := map[string]bool{"nordlys": true, "vault": false, "contact": false}
	for name, configured := range want {
		c, ok := components[name]
		if !ok {
			t.Errorf("missing component %q", name)
			continue
		}
		if c.Configured() != configured {
			t.Errorf("%s Configured() = %v, want %v", name, c.Configured(), configured)
		}
	}
}

func TestHostOnly(t *testing.T) {
	for in, want := range map[string]string{
		"smtp.example.com:465": "smtp.example.com",
		"smtp.example.com":     "smtp.example.com",
		"[::1]:465":            "::1",
	} {
		if got := hostOnly(in); got != want {
			t.Errorf("hostOnly(%q) = %q, want %q", in, got, want)
		}
	}
}
