package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailStatus tracks the delivery state of the inquiry notification email.
// It starts as pending and transitions exactly once to sent or failed.
type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// Inquiry is one contact-form submission.
// Name, Email, Message and IP are immutable after creation; only the
// enrichment fields (Country, Region, Emailed) are updated afterwards.
type Inquiry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Message   string             `bson:"message" json:"message"`
	IP        string             `bson:"ip" json:"ip"`
	Country   *string            `bson:"country,omitempty" json:"country,omitempty"`
	Region    *string            `bson:"region,omitempty" json:"region,omitempty"`
	Emailed   EmailStatus        `bson:"emailed" json:"emailed"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Field length ceilings enforced at validation time.
const (
	InquiryNameMaxLen    = 120
	InquiryEmailMaxLen   = 200
	InquiryMessageMaxLen = 5000
)
