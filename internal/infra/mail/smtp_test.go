package mail

import (
	"context"
	"testing"
)

func TestNewSMTPMailer_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		wantErr bool
	}{
		{"missing host", SMTPConfig{From: "me@example.com"}, true},
		{"bad from", SMTPConfig{Host: "smtp.example.com:465", From: "not an address"}, true},
		{"valid", SMTPConfig{Host: "smtp.example.com:465", User: "u", Password: "p", From: "Portfolio <me@example.com>"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSMTPMailer(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSMTPMailer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (m.name != "Portfolio" || m.address != "me@example.com") {
				t.Errorf("from = %q <%s>", m.name, m.address)
			}
		})
	}
}

func TestSMTPMailer_SendChecksInput(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com:465", From: "me@example.com"})
	if err != nil {
		t.Fatalf("NewSMTPMailer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, testEmail()); err == nil {
		t.Error("Send() with a cancelled context should fail")
	}

	email := testEmail()
	email.To = nil
	if err := m.Send(context.Background(), email); err == nil {
		t.Error("Send() without recipients should fail")
	}
}
