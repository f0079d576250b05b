package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChengYu2002/juxin-website-backend/internal/api/handlers"
	"github.com/ChengYu2002/juxin-website-backend/internal/api/middleware"
	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
	"github.com/ChengYu2002/juxin-website-backend/internal/storage"
)

// SetupRouter wires services, middleware and handlers into the HTTP surface.
func SetupRouter(
	cfg *config.Config,
	db *mongo.Database,
	dedupStore services.IDedupStore,
	objectStorage storage.IObjectStorage,
	taskClient handlers.IAsynqClient,
) *gin.Engine {
	inquiryService := services.NewInquiryService(db, cfg)
	productService := services.NewProductService(db, cfg)

	inquiryHandler := handlers.NewInquiryHandler(inquiryService, dedupStore, taskClient)
	productHandler := handlers.NewProductHandler(productService)
	adminAuthHandler := handlers.NewAdminAuthHandler(cfg)
	uploadHandler := handlers.NewUploadHandler(cfg, objectStorage, taskClient)

	inquiryGuard := middleware.NewInquiryGuard(cfg)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Public surface.
	api.POST("/inquiries", inquiryGuard.Limit(), inquiryHandler.CreateInquiry)
	api.GET("/products", rateLimiter.Limit(), productHandler.GetPublicProducts)
	api.GET("/products/:sku", rateLimiter.Limit(), productHandler.GetPublicProduct)

	// Login is rate limited but obviously not behind the admin token.
	api.POST("/admin/login", rateLimiter.Limit(), adminAuthHandler.Login)

	admin := api.Group("/admin")
	admin.Use(rateLimiter.Limit(), middleware.AdminMiddleware(cfg.JwtSecret))
	{
		admin.GET("/inquiries", inquiryHandler.ListInquiries)
		admin.DELETE("/inquiries/:id", inquiryHandler.DeleteInquiry)

		admin.GET("/products", productHandler.ListAllProducts)
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		admin.POST("/uploads", uploadHandler.Upload)
		admin.DELETE("/uploads", uploadHandler.Delete)
	}

	return r
}
