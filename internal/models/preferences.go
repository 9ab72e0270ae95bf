package models

import "time"

// ChatMessage is one persisted entry of the chat widget history.
type ChatMessage struct {
	Role      string    `json:"role" validate:"required,oneof=user assistant"`
	Content   string    `json:"content" validate:"required,max=2000"`
	Timestamp time.Time `json:"timestamp"`
}

// CookieConsent is the stored answer to the cookie banner.
type CookieConsent string

const (
	ConsentAccepted CookieConsent = "accepted"
	ConsentDeclined CookieConsent = "declined"
)
