package handlers

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ChengYu2002/juxin-website-backend/internal/models"
)

// inquiryPayload is the raw public submission body. Company is a honeypot:
// the form never shows it, so a populated value means automation.
type inquiryPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Company string `json:"company"`
}

// Minimal email shape check: local part, @, domain, dot, suffix. Deliverability
// is not verified here; a bounced notification is handled downstream.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	errBadRequest     = errors.New("bad request")
	errMissingFields  = errors.New("missing fields")
	errInvalidEmail   = errors.New("invalid email")
	errNameTooLong    = errors.New("name too long")
	errEmailTooLong   = errors.New("email too long")
	errMessageTooLong = errors.New("message too long")
)

// validateInquiry normalizes the payload or rejects it. The honeypot
// rejection deliberately reuses the generic message so bots learn nothing.
func validateInquiry(p *inquiryPayload) (name, email, message string, err error) {
	if strings.TrimSpace(p.Company) != "" {
		return "", "", "", errBadRequest
	}

	name = strings.TrimSpace(p.Name)
	email = strings.ToLower(strings.TrimSpace(p.Email))
	message = strings.TrimSpace(p.Message)

	if name == "" || email == "" || message == "" {
		return "", "", "", errMissingFields
	}
	if !emailPattern.MatchString(email) {
		return "", "", "", errInvalidEmail
	}
	// Ceilings are in characters, not bytes: CJK names and messages are the
	// common case for this site.
	if utf8.RuneCountInString(name) > models.InquiryNameMaxLen {
		return "", "", "", errNameTooLong
	}
	if utf8.RuneCountInString(email) > models.InquiryEmailMaxLen {
		return "", "", "", errEmailTooLong
	}
	if utf8.RuneCountInString(message) > models.InquiryMessageMaxLen {
		return "", "", "", errMessageTooLong
	}

	return name, email, message, nil
}
