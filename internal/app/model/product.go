package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the read-only catalog entry. Rows are written by the catalog
// import (cmd/seed), never by the storefront API.
type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Image       string          `gorm:"size:1024" json:"image"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Category    string          `gorm:"size:100;index" json:"category"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}
