package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
	"github.com/ChengYu2002/juxin-website-backend/internal/db"
	"github.com/ChengYu2002/juxin-website-backend/internal/models"
)

// IProductService defines the interface for catalog operations.
type IProductService interface {
	ListPublicProducts(ctx context.Context, category *models.ProductCategory) ([]models.Product, error)
	FindPublicProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListAllProducts(ctx context.Context, category *models.ProductCategory, isActive *bool) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

const productsCollection = "products"

// ErrSKUTaken is returned when creating a product with an existing business id.
var ErrSKUTaken = fmt.Errorf("product id already in use")

// productService implements IProductService.
type productService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewProductService creates a new ProductService.
func NewProductService(database *mongo.Database, cfg *config.Config) IProductService {
	return &productService{db: database, cfg: cfg}
}

// listSort is the catalog display order: pinned items first, newest changes next.
var listSort = bson.D{{Key: "sort_order", Value: -1}, {Key: "created_at", Value: -1}}

func (s *productService) ListPublicProducts(ctx context.Context, category *models.ProductCategory) ([]models.Product, error) {
	filter := bson.M{"is_active": true}
	if category != nil {
		filter["category"] = *category
	}
	return s.find(ctx, filter)
}

func (s *productService) FindPublicProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection(productsCollection).
		FindOne(ctx, bson.M{"sku": strings.ToLower(strings.TrimSpace(sku))}).
		Decode(&product)
	if err != nil {
		return nil, err
	}
	// Inactive products are invisible to the public site.
	if !product.IsActive {
		return nil, mongo.ErrNoDocuments
	}
	return &product, nil
}

func (s *productService) ListAllProducts(ctx context.Context, category *models.ProductCategory, isActive *bool) ([]models.Product, error) {
	filter := bson.M{}
	if category != nil {
		filter["category"] = *category
	}
	if isActive != nil {
		filter["is_active"] = *isActive
	}
	return s.find(ctx, filter)
}

func (s *productService) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	opts := options.Find().SetSort(listSort)
	cursor, err := s.db.Collection(productsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.Product
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return results, nil
}

func (s *productService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.SKU = strings.ToLower(strings.TrimSpace(p.SKU))
	if p.SKU == "" || p.Name == "" {
		return nil, fmt.Errorf("product id and name are required")
	}
	if !models.ValidCategory(p.Category) {
		return nil, fmt.Errorf("unknown category: %s", p.Category)
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	if p.ProfitMargin == "" {
		p.ProfitMargin = "mid"
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err := db.Try(func() error {
		res, err := s.db.Collection(productsCollection).InsertOne(ctx, p)
		if err != nil {
			return err
		}
		p.MongoID = res.InsertedID.(primitive.ObjectID)
		return nil
	})
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrSKUTaken
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Product, error) {
	if len(update) == 0 {
		return nil, fmt.Errorf("empty product update")
	}
	update["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := s.db.Collection(productsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).
		Decode(&product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(productsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the unique SKU index and the list-page compound index.
func (s *productService) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(productsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "sort_order", Value: -1},
				{Key: "updated_at", Value: -1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}
