package notify

import (
	"errors"
	"strings"
)

// Contact is a single mail address with an optional display name.
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Content is one body part of an outbound email.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Personalization carries the recipient list of an outbound email.
type Personalization struct {
	To []Contact `json:"to"`
}

// Email is the transactional-send payload relayed to the mail provider.
type Email struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Contact           `json:"from"`
	ReplyTo          *Contact          `json:"reply_to,omitempty"`
	CC               []Contact         `json:"cc,omitempty"`
	BCC              []Contact         `json:"bcc,omitempty"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
}

// SendRequest is the inbound request body.
type SendRequest struct {
	Email Email `json:"email"`
}

// Validate checks the payload carries everything the mail provider needs.
func (e *Email) Validate() error {
	if len(e.Personalizations) == 0 {
		return errors.New("at least one personalization is required")
	}
	for _, p := range e.Personalizations {
		if len(p.To) == 0 {
			return errors.New("each personalization needs at least one recipient")
		}
		for _, to := range p.To {
			if !validAddress(to.Email) {
				return errors.New("invalid recipient address")
			}
		}
	}

	if !validAddress(e.From.Email) {
		return errors.New("invalid sender address")
	}
	if e.Subject == "" {
		return errors.New("subject is required")
	}
	if len(e.Content) == 0 {
		return errors.New("content is required")
	}
	for _, content := range e.Content {
		if content.Type == "" || content.Value == "" {
			return errors.New("content parts need a type and a value")
		}
	}

	return nil
}

func validAddress(address string) bool {
	at := strings.Index(address, "@")
	return at > 0 && at < len(address)-1
}
