package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductCategory enumerates the catalog categories shown on the site.
type ProductCategory string

const (
	CategoryShoppingTrolley  ProductCategory = "shopping-trolley"
	CategoryUtilityTrolley   ProductCategory = "utility-trolley"
	CategoryCampingWagon     ProductCategory = "camping-wagon"
	CategoryOutdoorFurniture ProductCategory = "outdoor-furniture"
)

// ValidCategory reports whether c is one of the known catalog categories.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryShoppingTrolley, CategoryUtilityTrolley, CategoryCampingWagon, CategoryOutdoorFurniture:
		return true
	}
	return false
}

// Variant is a colour/style variation of a product with its own image set.
type Variant struct {
	Key    string   `bson:"key" json:"key"`
	Label  string   `bson:"label" json:"label"`
	Images []string `bson:"images" json:"images"`
}

// Specs holds display-only specification strings.
type Specs struct {
	MaxSize       string `bson:"max_size,omitempty" json:"maxSize,omitempty"`
	FoldedSize    string `bson:"folded_size,omitempty" json:"foldedSize,omitempty"`
	CartonSize    string `bson:"carton_size,omitempty" json:"cartonSize,omitempty"`
	PcsPerCarton  int    `bson:"pcs_per_carton,omitempty" json:"pcsPerCarton,omitempty"`
	NetWeight     string `bson:"net_weight,omitempty" json:"netWeight,omitempty"`
	GrossWeight   string `bson:"gross_weight,omitempty" json:"grossWeight,omitempty"`
	WheelSize     string `bson:"wheel_size,omitempty" json:"wheelSize,omitempty"`
	ContainerLoad string `bson:"container_load,omitempty" json:"containerLoad,omitempty"`
}

// Product is a catalog entry. SKU is the business identifier (e.g. "jx-25zp")
// and is unique across the collection, independent of the Mongo _id.
type Product struct {
	MongoID      primitive.ObjectID `bson:"_id,omitempty" json:"mongoId"`
	SKU          string             `bson:"sku" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Category     ProductCategory    `bson:"category" json:"category"`
	MOQ          int                `bson:"moq" json:"moq"`
	Variants     []Variant          `bson:"variants" json:"variants"`
	Specs        Specs              `bson:"specs" json:"specs"`
	IsPopular    bool               `bson:"is_popular" json:"isPopular"`
	ProfitMargin string             `bson:"profit_margin" json:"profitMargin"` // low|mid|high
	SortOrder    int                `bson:"sort_order" json:"sortOrder"`       // higher sorts first
	IsActive     bool               `bson:"is_active" json:"isActive"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
