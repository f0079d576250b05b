package email

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// InquiryData is everything the notification email mentions about a submission.
type InquiryData struct {
	Name    string
	Email   string
	Message string
	Country *string
	Region  *string
}

// IInquiryMailer formats and dispatches the new-inquiry notification.
type IInquiryMailer interface {
	SendInquiryNotification(ctx context.Context, data *InquiryData) error
}

// InquiryMailer builds the plain-text notification and hands it to the
// configured Sender. One transport per call, no cascading retry.
type InquiryMailer struct {
	sender   Sender
	appName  string
	from     string
	to       string
	location *time.Location
	tzLabel  string
	now      func() time.Time
}

// NewInquiryMailer creates the mailer. An unknown reporting timezone falls
// back to UTC rather than failing startup.
func NewInquiryMailer(cfg *config.Config, sender Sender) *InquiryMailer {
	loc, err := time.LoadLocation(cfg.MailTimezone)
	if err != nil {
		log.Printf("Unknown MAIL_TIMEZONE %q, falling back to UTC: %v", cfg.MailTimezone, err)
		loc = time.UTC
	}
	return &InquiryMailer{
		sender:   sender,
		appName:  cfg.AppName,
		from:     cfg.MailFrom,
		to:       cfg.MailTo,
		location: loc,
		tzLabel:  cfg.MailTimezone,
		now:      time.Now,
	}
}

// SendInquiryNotification sends one notification email for an accepted inquiry.
func (m *InquiryMailer) SendInquiryNotification(ctx context.Context, data *InquiryData) error {
	if m.to == "" {
		return fmt.Errorf("MAIL_TO not configured")
	}

	name := data.Name
	if name == "" {
		name = "Anonymous"
	}
	msg := &Message{
		From:    m.from,
		To:      []string{m.to},
		Subject: fmt.Sprintf("[New Inquiry] %s | %s Website", name, m.appName),
		Text:    m.buildBody(data),
		ReplyTo: strings.TrimSpace(data.Email),
	}
	return m.sender.Send(ctx, msg)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func orDashPtr(v *string) string {
	if v == nil {
		return "-"
	}
	return orDash(*v)
}

// buildBody renders the deterministic plain-text notification. The timestamp
// is the server time in the fixed reporting timezone so the sales team reads
// a consistent clock regardless of where the process runs.
func (m *InquiryMailer) buildBody(data *InquiryData) string {
	lines := []string{
		fmt.Sprintf("You have received a new inquiry from the %s website.", m.appName),
		"",
		"==============================",
		"Buyer Information",
		"==============================",
		fmt.Sprintf("Name   : %s", orDash(data.Name)),
		fmt.Sprintf("Email  : %s", orDash(data.Email)),
		fmt.Sprintf("Country: %s", orDashPtr(data.Country)),
		fmt.Sprintf("Region : %s", orDashPtr(data.Region)),
		"",
		"==============================",
		"Inquiry Message",
		"==============================",
		orDash(data.Message),
		"",
		"==============================",
		fmt.Sprintf("Submitted at (%s): %s", m.tzLabel, m.now().In(m.location).Format("2006-01-02 15:04:05")),
		"",
		fmt.Sprintf("This is an automated notification from the %s website.", m.appName),
		"Please reply directly to this email to contact the buyer.",
	}
	return strings.Join(lines, "\n")
}
