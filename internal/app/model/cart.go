package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (user, product title) line in a cart. Rows are hard-deleted
// so the natural-key unique index never collides with tombstones.
type CartItem struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	UserID       uint            `gorm:"not null;uniqueIndex:idx_cart_user_product,priority:1" json:"user_id"`
	ProductTitle string          `gorm:"size:255;not null;uniqueIndex:idx_cart_user_product,priority:2" json:"product_title"`
	ProductImage *string         `gorm:"size:1024" json:"product_image"`
	ProductDesc  *string         `gorm:"type:text" json:"product_desc"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"product_price"`
	Quantity     int             `gorm:"not null;default:1" json:"quantity"`
	AddedAt      time.Time       `gorm:"not null;index" json:"added_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal is price × quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.ProductPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
