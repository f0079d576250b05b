package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/models"
)

// IInquiryService defines the interface for inquiry persistence.
type IInquiryService interface {
	// CreateInquiry persists a new inquiry with status pending. The record is
	// durable before this returns; enrichment happens later in the background.
	CreateInquiry(ctx context.Context, name, email, message, ip string) (*models.Inquiry, error)
	// ApplyEnrichment writes the geo fields and the final email status. The
	// update only matches records still in the pending state, so the status
	// transition happens at most once and never reverts.
	ApplyEnrichment(ctx context.Context, id primitive.ObjectID, country, region *string, status models.EmailStatus) error
	FindInquiryByID(ctx context.Context, id primitive.ObjectID) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, limit int64) ([]models.Inquiry, error)
	DeleteInquiry(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

const inquiriesCollection = "inquiries"

// inquiryService implements IInquiryService.
type inquiryService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database, cfg *config.Config) IInquiryService {
	return &inquiryService{db: db, cfg: cfg}
}

func (s *inquiryService) CreateInquiry(ctx context.Context, name, email, message, ip string) (*models.Inquiry, error) {
	now := time.Now().UTC()
	inquiry := &models.Inquiry{
		Name:      name,
		Email:     email,
		Message:   message,
		IP:        ip,
		Emailed:   models.EmailStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.db.Collection(inquiriesCollection).InsertOne(ctx, inquiry)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inquiry: %w", err)
	}
	inquiry.ID = res.InsertedID.(primitive.ObjectID)
	return inquiry, nil
}

func (s *inquiryService) ApplyEnrichment(ctx context.Context, id primitive.ObjectID, country, region *string, status models.EmailStatus) error {
	set := bson.M{
		"emailed":    status,
		"updated_at": time.Now().UTC(),
	}
	if country != nil {
		set["country"] = *country
	}
	if region != nil {
		set["region"] = *region
	}

	// Matching on the pending state makes the transition one-shot: a second
	// write (or a write racing a concurrent one) matches nothing.
	filter := bson.M{"_id": id, "emailed": models.EmailStatusPending}
	res, err := s.db.Collection(inquiriesCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update inquiry %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		// Record deleted or already transitioned. Log-only: the caller has
		// nothing useful to do about it.
		log.Printf("Inquiry %s not updated (missing or already %s/%s)", id.Hex(), models.EmailStatusSent, models.EmailStatusFailed)
	}
	return nil
}

func (s *inquiryService) FindInquiryByID(ctx context.Context, id primitive.ObjectID) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&inquiry)
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// listLimit bounds the admin listing page size: 100 by default, capped at 500.
func listLimit(limit int64) int64 {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// ListInquiries returns inquiries most recent first, for the admin panel.
func (s *inquiryService) ListInquiries(ctx context.Context, limit int64) ([]models.Inquiry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(listLimit(limit))

	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Inquiry
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries: %w", err)
	}
	return results, nil
}

func (s *inquiryService) DeleteInquiry(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(inquiriesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete inquiry %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the indexes the admin listing relies on.
func (s *inquiryService) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(inquiriesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create inquiry indexes: %w", err)
	}
	return nil
}
