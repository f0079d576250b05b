package email

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// Message is one outbound notification email.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	ReplyTo string // submitter address so a human can answer directly
}

// Sender delivers a Message through one transport. Implementations surface
// every failure mode (auth, timeout, bad recipient) as a single error; the
// caller only distinguishes success from failure.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender picks the transport once, at startup: the Resend HTTP API when a
// key is configured (stable on cloud hosts), otherwise SMTP, otherwise a
// logging sender for development. There is no per-call fallback between them.
func NewSender(cfg *config.Config) Sender {
	if cfg.ResendAPIKey != "" {
		log.Println("Mailer using Resend")
		return NewResendSender(cfg)
	}
	if cfg.SmtpHost != "" {
		log.Println("Mailer using SMTP")
		return NewSMTPSender(cfg)
	}
	log.Println("No mail transport configured, using logging email sender")
	return &LoggingSender{}
}

// rawMessage renders the Message with SMTP headers.
func rawMessage(msg *Message) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	if msg.ReplyTo != "" {
		sb.WriteString(fmt.Sprintf("Reply-To: %s\r\n", msg.ReplyTo))
	}
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Text)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// LoggingSender is a mock implementation that just logs email details.
// Useful for development when no transport is configured.
type LoggingSender struct{}

// Send logs the email details instead of sending.
func (s *LoggingSender) Send(ctx context.Context, msg *Message) error {
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("From: %s", msg.From)
	log.Printf("To: %v", msg.To)
	log.Printf("Reply-To: %s", msg.ReplyTo)
	log.Printf("Subject: %s", msg.Subject)
	log.Println(msg.Text)
	log.Println("--- End Email ---")
	return nil
}
