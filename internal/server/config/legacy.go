package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyLegacyEnv fills unset values from the unprefixed environment
// variables (NORDLYS_PASSWORD, VAULT_PASSWORD, RESEND_API_KEY and the
// rest). GATEKEEP_ variables and the config file take precedence. A nil
// lookup uses os.LookupEnv.
func ApplyLegacyEnv(cfg *ServerConfig, lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v
			}
		}
		return ""
	}
	fill := func(dst *string, keys ...string) {
		if *dst == "" {
			*dst = get(keys...)
		}
	}

	fill(&cfg.Gate.Nordlys.Password, "NORDLYS_PASSWORD")
	fill(&cfg.Gate.Nordlys.Secret, "NORDLYS_SECRET")
	fill(&cfg.Gate.Vault.Password, "VAULT_PASSWORD")
	fill(&cfg.Gate.Vault.Secret, "VAULT_SESSION_SECRET")
	fill(&cfg.Contact.APIKey, "RESEND_API_KEY")

	if v := get("RESEND_FROM_EMAIL"); v != "" && (cfg.Contact.From == "" || cfg.Contact.From == DefaultContactFrom) {
		cfg.Contact.From = v
	}
	if len(cfg.Contact.To) == 0 {
		if v := get("CONTACT_TO_EMAIL", "TO_EMAIL"); v != "" {
			cfg.Contact.To = splitList(v)
		}
	}

	// Seconds; values that do not parse are ignored. Normalize enforces
	// the minimum.
	if v := get("VAULT_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 &&
			cfg.Gate.Vault.TTL == Default().Gate.Vault.TTL {
			cfg.Gate.Vault.TTL = time.Duration(n) * time.Second
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
