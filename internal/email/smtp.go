package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"time"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// SMTPSender implements Sender over a direct SMTP connection.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	secure   bool // implicit TLS (465); otherwise STARTTLS when offered
	timeout  time.Duration
}

// NewSMTPSender creates an SMTP sender from configuration.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SmtpHost,
		port:     cfg.SmtpPort,
		username: cfg.SmtpUsername,
		password: cfg.SmtpPassword,
		secure:   cfg.SmtpSecure,
		timeout:  cfg.MailTimeout,
	}
}

// Send delivers the message over SMTP. The whole exchange is bounded by the
// configured timeout via a connection deadline, so a hung server cannot pin
// the worker.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(time.Now().Add(s.timeout)) {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(s.timeout))
	}

	if s.secure {
		conn = tls.Client(conn, &tls.Config{ServerName: s.host})
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if !s.secure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.username != "" {
		auth := smtp.PlainAuth("", s.username, s.password, s.host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(rawMessage(msg)); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	if err := c.Quit(); err != nil {
		// Delivery already succeeded; a failed QUIT is not worth surfacing.
		log.Printf("smtp quit after successful send: %v", err)
	}
	return nil
}
