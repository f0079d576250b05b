package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChengYu2002/juxin-website-backend/internal/models"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
)

// ProductHandler handles public catalog reads and admin catalog CRUD.
type ProductHandler struct {
	productService services.IProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService services.IProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func categoryFilter(c *gin.Context) (*models.ProductCategory, bool) {
	raw := c.Query("category")
	if raw == "" {
		return nil, true
	}
	category := models.ProductCategory(raw)
	if !models.ValidCategory(category) {
		return nil, false
	}
	return &category, true
}

// GetPublicProducts handles GET /api/products. Only active products are shown.
func (h *ProductHandler) GetPublicProducts(c *gin.Context) {
	category, ok := categoryFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown category"})
		return
	}

	products, err := h.productService.ListPublicProducts(c.Request.Context(), category)
	if err != nil {
		log.Printf("Failed to list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetPublicProduct handles GET /api/products/:sku. Inactive products 404 here.
func (h *ProductHandler) GetPublicProduct(c *gin.Context) {
	product, err := h.productService.FindPublicProductBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Product not found"})
			return
		}
		log.Printf("Failed to fetch product %s: %v", c.Param("sku"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListAllProducts handles GET /api/admin/products with optional
// category/isActive filters.
func (h *ProductHandler) ListAllProducts(c *gin.Context) {
	category, ok := categoryFilter(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown category"})
		return
	}

	var isActive *bool
	if raw := c.Query("isActive"); raw != "" {
		v := raw == "true"
		isActive = &v
	}

	products, err := h.productService.ListAllProducts(c.Request.Context(), category, isActive)
	if err != nil {
		log.Printf("Failed to list products (admin): %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /api/admin/products.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad request"})
		return
	}

	created, err := h.productService.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		if errors.Is(err, services.ErrSKUTaken) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "product id already in use"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// productUpdateRequest uses pointer fields so only provided values are updated.
type productUpdateRequest struct {
	Name         *string                 `json:"name"`
	Category     *models.ProductCategory `json:"category"`
	MOQ          *int                    `json:"moq"`
	Variants     *[]models.Variant       `json:"variants"`
	Specs        *models.Specs           `json:"specs"`
	IsPopular    *bool                   `json:"isPopular"`
	ProfitMargin *string                 `json:"profitMargin"`
	SortOrder    *int                    `json:"sortOrder"`
	IsActive     *bool                   `json:"isActive"`
}

// UpdateProduct handles PUT /api/admin/products/:id.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformatted id"})
		return
	}

	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad request"})
		return
	}

	update := bson.M{}
	if req.Name != nil {
		update["name"] = *req.Name
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown category"})
			return
		}
		update["category"] = *req.Category
	}
	if req.MOQ != nil {
		update["moq"] = *req.MOQ
	}
	if req.Variants != nil {
		update["variants"] = *req.Variants
	}
	if req.Specs != nil {
		update["specs"] = *req.Specs
	}
	if req.IsPopular != nil {
		update["is_popular"] = *req.IsPopular
	}
	if req.ProfitMargin != nil {
		update["profit_margin"] = *req.ProfitMargin
	}
	if req.SortOrder != nil {
		update["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		update["is_active"] = *req.IsActive
	}
	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "empty update"})
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Product not found"})
			return
		}
		log.Printf("Failed to update product %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/admin/products/:id.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformatted id"})
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Product not found"})
			return
		}
		log.Printf("Failed to delete product %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
