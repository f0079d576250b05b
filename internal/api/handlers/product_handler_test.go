package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ChengYu2002/juxin-website-backend/internal/models"
	"github.com/ChengYu2002/juxin-website-backend/internal/services"
)

func productRouter(svc *MockProductService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProductHandler(svc)
	r := gin.New()
	r.GET("/api/products", h.GetPublicProducts)
	r.GET("/api/products/:sku", h.GetPublicProduct)
	r.GET("/api/admin/products", h.ListAllProducts)
	r.POST("/api/admin/products", h.CreateProduct)
	r.PUT("/api/admin/products/:id", h.UpdateProduct)
	r.DELETE("/api/admin/products/:id", h.DeleteProduct)
	return r
}

func TestGetPublicProducts(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	svc.On("ListPublicProducts", mock.Anything, (*models.ProductCategory)(nil)).
		Return([]models.Product{{SKU: "jx-1", Name: "Wagon"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jx-1")
}

func TestGetPublicProductsCategoryFilter(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	category := models.CategoryCampingWagon
	svc.On("ListPublicProducts", mock.Anything, &category).Return([]models.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category=camping-wagon", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/products?category=flying-carpet", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPublicProductNotFound(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	svc.On("FindPublicProductBySKU", mock.Anything, "jx-missing").Return(nil, mongo.ErrNoDocuments)

	req := httptest.NewRequest(http.MethodGet, "/api/products/jx-missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Product not found")
}

func TestCreateProductConflict(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	svc.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, services.ErrSKUTaken)

	raw, _ := json.Marshal(gin.H{"id": "jx-1", "name": "Wagon", "category": "camping-wagon"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateProductPartial(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	id := primitive.NewObjectID()
	svc.On("UpdateProduct", mock.Anything, id, bson.M{"name": "Renamed", "is_active": false}).
		Return(&models.Product{MongoID: id, Name: "Renamed"}, nil)

	raw, _ := json.Marshal(gin.H{"name": "Renamed", "isActive": false})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/"+id.Hex(), bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProductRejectsEmptyAndBadCategory(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	raw, _ := json.Marshal(gin.H{})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/products/"+primitive.NewObjectID().Hex(), bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	raw, _ = json.Marshal(gin.H{"category": "flying-carpet"})
	req = httptest.NewRequest(http.MethodPut, "/api/admin/products/"+primitive.NewObjectID().Hex(), bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteProductNotFound(t *testing.T) {
	svc := new(MockProductService)
	r := productRouter(svc)

	id := primitive.NewObjectID()
	svc.On("DeleteProduct", mock.Anything, id).Return(mongo.ErrNoDocuments)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/"+id.Hex(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
