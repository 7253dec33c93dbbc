package model

import "time"

// ContactMessage is a contact-form submission, kept in Redis as an audit
// trail after the notification email goes out.
type ContactMessage struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}
