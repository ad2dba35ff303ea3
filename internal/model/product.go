package model

import "time"

// ProductType controls how a purchased product is fulfilled.
type ProductType string

const (
	ProductTypeDownload ProductType = "download"
	ProductTypeBuy      ProductType = "buy"
)

// Valid reports whether t is an accepted product type.
func (t ProductType) Valid() bool {
	return t == ProductTypeDownload || t == ProductTypeBuy
}

// Product is a catalog entry. Prices are in minor currency units.
type Product struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"size:255;not null"`
	Description string      `json:"description" gorm:"type:text"`
	Price       int64       `json:"price" gorm:"not null"`
	Discount    int64       `json:"discount" gorm:"not null;default:0"`
	Pinned      bool        `json:"pinned" gorm:"not null;default:false;index:idx_products_listing,priority:1"`
	Type        ProductType `json:"type" gorm:"size:20;not null;check:chk_products_type,type IN ('download','buy')"`
	FileURL     string      `json:"fileUrl" gorm:"column:file_url;size:1024"`
	FunpayURL   string      `json:"funpayUrl" gorm:"column:funpay_url;size:1024"`
	StarURL     string      `json:"starUrl" gorm:"column:star_url;size:1024"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"not null;index:idx_products_listing,priority:2"`
}

// ProductFields are the caller-supplied fields of a product. Create and
// Update both take the full set.
type ProductFields struct {
	Title       string
	Description string
	Price       int64
	Discount    int64
	Pinned      bool
	Type        ProductType
	FileURL     string
	FunpayURL   string
	StarURL     string
}

// Apply overwrites every mutable field of p with f.
func (f ProductFields) Apply(p *Product) {
	p.Title = f.Title
	p.Description = f.Description
	p.Price = f.Price
	p.Discount = f.Discount
	p.Pinned = f.Pinned
	p.Type = f.Type
	p.FileURL = f.FileURL
	p.FunpayURL = f.FunpayURL
	p.StarURL = f.StarURL
}
