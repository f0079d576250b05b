package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif" // registered for decoding only
	"image/jpeg"
	_ "image/png"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/email"
	"github.com/ChengYu2002/juxin-website-backend/internal/geo"
	"github.com/ChengYu2002/juxin-website-backend/internal/models"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
	"github.com/ChengYu2002/juxin-website-backend/internal/storage"
)

// TaskType defines the type of a background task.
const (
	TypeInquiryEnrich  = "inquiry:enrich"
	TypeImageNormalize = "image:normalize"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// InquiryEnrichPayload carries only the id and the client address; the
// handler reloads the record so it always works from persisted state.
type InquiryEnrichPayload struct {
	InquiryID string `json:"inquiry_id"`
	IP        string `json:"ip"`
}

// NewInquiryEnrichTask builds the enrichment task for a freshly persisted inquiry.
func NewInquiryEnrichTask(inquiryID, ip string) (*asynq.Task, error) {
	payload, err := json.Marshal(InquiryEnrichPayload{InquiryID: inquiryID, IP: ip})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enrich payload: %w", err)
	}
	return asynq.NewTask(TypeInquiryEnrich, payload), nil
}

// ImageNormalizePayload names the uploaded object to normalize in place.
type ImageNormalizePayload struct {
	Key string `json:"key"`
}

// NewImageNormalizeTask builds the image normalization task.
func NewImageNormalizeTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageNormalizePayload{Key: key})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image payload: %w", err)
	}
	return asynq.NewTask(TypeImageNormalize, payload), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	inquiryService services.IInquiryService
	geoClient      geo.ILookupClient
	mailer         email.IInquiryMailer
	storage        storage.IObjectStorage
}

func NewTaskProcessor(
	cfg *config.Config,
	inquiryService services.IInquiryService,
	geoClient geo.ILookupClient,
	mailer email.IInquiryMailer,
	store storage.IObjectStorage,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		inquiryService: inquiryService,
		geoClient:      geoClient,
		mailer:         mailer,
		storage:        store,
	}
}

// SetupServer configures and runs an Asynq server instance. It blocks until
// the server stops.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) error {
	opts := rdb.Options()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: opts.Addr, Password: opts.Password, DB: opts.DB},
		asynq.Config{
			Queues: map[string]int{
				"default": 6,
				"images":  3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInquiryEnrich, processor.HandleInquiryEnrichTask)
	mux.HandleFunc(TypeImageNormalize, processor.HandleImageNormalizeTask)

	return srv.Run(mux)
}

// --- Task Handlers ---

// HandleInquiryEnrichTask runs the post-acceptance side effects for one
// inquiry: geo lookup, notification email, status write-back. Every step is
// attempted exactly once; failures degrade the record (null geo fields,
// status=failed) but are never retried and never reach the submitter, whose
// response was sent before this task ran.
func (p *TaskProcessor) HandleInquiryEnrichTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryEnrichPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal enrich payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiryID, err := primitive.ObjectIDFromHex(payload.InquiryID)
	if err != nil {
		return fmt.Errorf("invalid inquiry id in payload: %w", asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.FindInquiryByID(ctx, inquiryID)
	if err != nil {
		log.Printf("Inquiry %s not found for enrichment: %v", payload.InquiryID, err)
		return fmt.Errorf("inquiry not found: %w", asynq.SkipRetry)
	}
	if inquiry.Emailed != models.EmailStatusPending {
		log.Printf("Inquiry %s already processed (%s), skipping", payload.InquiryID, inquiry.Emailed)
		return nil
	}

	// Step A: geo lookup, best effort. Unknown location is fine.
	var country, region *string
	if payload.IP != "" {
		geoCtx, cancel := context.WithTimeout(ctx, p.cfg.GeoTimeout)
		location, err := p.geoClient.Lookup(geoCtx, payload.IP)
		cancel()
		if err != nil {
			log.Printf("Geo lookup failed for inquiry %s: %v", payload.InquiryID, err)
		} else {
			if location.Country != "" {
				country = &location.Country
			}
			if location.Region != "" {
				region = &location.Region
			}
		}
	}

	// Step B: notification email through the configured transport.
	status := models.EmailStatusSent
	mailCtx, cancel := context.WithTimeout(ctx, p.cfg.MailTimeout)
	err = p.mailer.SendInquiryNotification(mailCtx, &email.InquiryData{
		Name:    inquiry.Name,
		Email:   inquiry.Email,
		Message: inquiry.Message,
		Country: country,
		Region:  region,
	})
	cancel()
	if err != nil {
		log.Printf("Failed to send inquiry notification for %s: %v", payload.InquiryID, err)
		status = models.EmailStatusFailed
	}

	// Step C: write the outcome back. Log-only on failure; a permanently
	// pending record is a visible anomaly, not data loss.
	writeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.inquiryService.ApplyEnrichment(writeCtx, inquiryID, country, region, status); err != nil {
		log.Printf("Failed to record enrichment for inquiry %s: %v", payload.InquiryID, err)
	}

	return nil
}

// HandleImageNormalizeTask downloads an uploaded product image, resizes it if
// it exceeds the configured dimension, and overwrites it in place.
func (p *TaskProcessor) HandleImageNormalizeTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageNormalizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image payload: %v: %w", err, asynq.SkipRetry)
	}

	data, _, err := p.storage.Download(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("failed to download image %s: %w", payload.Key, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("Undecodable image %s: %v", payload.Key, err)
		return fmt.Errorf("unsupported or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := p.cfg.ImageMaxDimension
	if img.Bounds().Dx() <= maxDim && img.Bounds().Dy() <= maxDim {
		return nil
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode image %s: %w", payload.Key, err)
	}

	if err := p.storage.Upload(ctx, payload.Key, buf.Bytes(), "image/jpeg"); err != nil {
		return fmt.Errorf("failed to upload normalized image %s: %w", payload.Key, err)
	}

	log.Printf("Normalized image %s (%s, %dx%d -> %dx%d)", payload.Key, format,
		img.Bounds().Dx(), img.Bounds().Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
	return nil
}
