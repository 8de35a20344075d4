package domain

import "time"

// Contact form limits.
const (
	MinContactNameLength    = 2
	MinContactMessageLength = 10
)

// ContactMessage is a message submitted through the portfolio contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Email is an outbound email handed to a mail transport.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Delivery states recorded for archived contact messages.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// ContactRecord is an archived contact message.
type ContactRecord struct {
	ID         string         `json:"id"`
	Message    ContactMessage `json:"message"`
	ReceivedAt time.Time      `json:"received_at"`
	Delivery   string         `json:"delivery"`
	ClientIP   string         `json:"client_ip,omitempty"`
}
