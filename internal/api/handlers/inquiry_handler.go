package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChengYu2002/juxin-website-backend/internal/api/middleware"
	"github.com/ChengYu2002/juxin-website-backend/internal/models"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
	"github.com/ChengYu2002/juxin-website-backend/internal/tasks"
)

// IAsynqClient abstracts the asynq client for testability.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// InquiryHandler handles the public inquiry endpoint and the admin views of it.
type InquiryHandler struct {
	inquiryService services.IInquiryService
	dedupStore     services.IDedupStore
	taskClient     IAsynqClient
}

// NewInquiryHandler creates a new InquiryHandler.
func NewInquiryHandler(inquiryService services.IInquiryService, dedupStore services.IDedupStore, taskClient IAsynqClient) *InquiryHandler {
	return &InquiryHandler{
		inquiryService: inquiryService,
		dedupStore:     dedupStore,
		taskClient:     taskClient,
	}
}

// CreateInquiry handles POST /api/inquiries.
//
// Order matters: validation and the duplicate filter run before anything is
// persisted, the record is persisted before the response, and enrichment
// (geo + notification email) runs afterwards in the background so a slow or
// failing mail provider never blocks the submitter.
func (h *InquiryHandler) CreateInquiry(c *gin.Context) {
	var payload inquiryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad request"})
		return
	}

	name, email, message, err := validateInquiry(&payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	identity := middleware.ClientIdentity(c)

	// Only well-formed payloads count toward dedup state.
	dup, err := h.dedupStore.CheckAndRecord(c.Request.Context(), services.DedupKey(identity, name, email, message))
	if err != nil {
		// Dedup is advisory; a broken store must not block submissions.
		log.Printf("Dedup store check failed: %v", err)
	}
	if dup {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "duplicate submission"})
		return
	}

	inquiry, err := h.inquiryService.CreateInquiry(c.Request.Context(), name, email, message, identity)
	if err != nil {
		log.Printf("Failed to persist inquiry: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}

	task, err := tasks.NewInquiryEnrichTask(inquiry.ID.Hex(), identity)
	if err == nil {
		// Enqueue with a background context: the job belongs to the server,
		// not the request, and a client disconnect must not cancel it.
		_, err = h.taskClient.EnqueueContext(context.Background(), task, asynq.MaxRetry(0), asynq.Queue("default"))
	}
	if err != nil {
		// The record is already durable; it just stays pending until an
		// operator notices. That beats failing an accepted submission.
		log.Printf("Failed to enqueue enrichment for inquiry %s: %v", inquiry.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":          true,
		"id":          inquiry.ID.Hex(),
		"emailStatus": models.EmailStatusPending,
	})
}

// ListInquiries handles GET /api/admin/inquiries (most recent first).
func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 100
	}

	inquiries, err := h.inquiryService.ListInquiries(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Failed to list inquiries: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": inquiries})
}

// DeleteInquiry handles DELETE /api/admin/inquiries/:id.
func (h *InquiryHandler) DeleteInquiry(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformatted id"})
		return
	}

	if err := h.inquiryService.DeleteInquiry(c.Request.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "inquiry not found"})
			return
		}
		log.Printf("Failed to delete inquiry %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
