package command

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/gatekeep/pkg/token"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestTokenIssue(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fixClock(t, start)

	out, err := runApp(t, "", "token", "issue", "--secret", "nordlys-secret", "--ttl", "1h")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	tok := strings.TrimSpace(out)
	signer, _ := token.NewSigner([]byte("nordlys-secret"))
	p, err := signer.Verify(tok, start)
	if err != nil {
		t.Fatalf("Verify(%q) error = %v", tok, err)
	}
	if p.Exp != start.Add(time.Hour).Unix() {
		t.Errorf("exp = %d", p.Exp)
	}
}

func TestTokenIssue_JSON(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fixClock(t, start)

	out, err := runApp(t, "", "-o", "json", "token", "issue", "--secret", "s", "--ttl", "24h")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var got issuedToken
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Token == "" || !got.Expires.Equal(start.Add(24*time.Hour)) {
		t.Errorf("issued = %+v", got)
	}
}

func TestTokenIssue_Errors(t *testing.T) {
	if _, err := runApp(t, "", "token", "issue"); err == nil {
		t.Error("issue without --secret succeeded")
	}
	if _, err := runApp(t, "", "token", "issue", "--secret", "s", "--ttl", "0s"); !errors.Is(err, token.ErrInvalidTTL) {
		t.Errorf("zero ttl err = %v", err)
	}
}

func TestTokenVerify(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	signer, _ := token.NewSigner([]byte("s"))
	good, _, err := signer.Issue(time.Hour, start)
	if err != nil {
		t.Fatal(err)
	}
	other, _ := token.NewSigner([]byte("other"))
	forged, _, _ := other.Issue(time.Hour, start)

	tests := []struct {
		name       string
		at         time.Time
		tok        string
		stdin      string
		wantValid  bool
		wantReason string
	}{
		{"valid", start, good, "", true, ""},
		{"valid from stdin", start, "-", good + "\n", true, ""},
		{"expired", start.Add(time.Hour), good, "", false, "expired"},
		{"wrong secret", start, forged, "", false, "signature mismatch"},
		{"malformed", start, "not-a-token", "", false, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixClock(t, tt.at)

			out, err := runApp(t, tt.stdin, "-o", "json", "token", "verify", "--secret", "s", tt.tok)
			if tt.wantValid != (err == nil) {
				t.Fatalf("err = %v, wantValid %v", err, tt.wantValid)
			}
			if err != nil && !errors.Is(err, errTokenInvalid) {
				t.Fatalf("err = %v, want errTokenInvalid", err)
			}

			var got verifiedToken
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if got.Valid != tt.wantValid || got.Reason != tt.wantReason {
				t.Errorf("result = %+v", got)
			}
		})
	}
}

func TestTokenVerify_TableOutput(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	fixClock(t, start)
	signer, _ := token.NewSigner([]byte("s"))
	tok, _, _ := signer.Issue(time.Hour, start)

	out, err := runApp(t, "", "token", "verify", "--secret", "s", tok)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{"FIELD", "valid", "true", "2023-11-14T23:13:20Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestTokenVerify_Args(t *testing.T) {
	if _, err := runApp(t, "", "token", "verify", "--secret", "s"); err == nil {
		t.Error("verify without TOKEN succeeded")
	}
}
