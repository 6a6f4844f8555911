package repository

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository persists cart rows. Every id-based mutation is scoped to the
// owning user in the same statement; a row owned by someone else behaves as
// missing (gorm.ErrRecordNotFound).
type CartRepository interface {
	Upsert(ctx context.Context, item *model.CartItem) (*model.CartItem, error)
	FindByUserAndTitle(ctx context.Context, userID uint, title string) (*model.CartItem, error)
	FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error)
	FindByIDForUser(ctx context.Context, id, userID uint) (*model.CartItem, error)
	DeleteForUser(ctx context.Context, id, userID uint) (*model.CartItem, error)
	UpdateQuantityForUser(ctx context.Context, id, userID uint, quantity int, at time.Time) (*model.CartItem, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
	CountUnits(ctx context.Context, userID uint) (int, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// Upsert inserts item or, when the (user_id, product_title) pair exists, adds
// item.Quantity to the stored quantity and refreshes added_at. The merge and
// the returned row come from one statement, so concurrent adds never lose an
// increment and each caller sees the quantity its own write produced.
func (r *cartRepository) Upsert(ctx context.Context, item *model.CartItem) (*model.CartItem, error) {
	logger.Debug("Upserting cart item", map[string]interface{}{
		"user_id":       item.UserID,
		"product_title": item.ProductTitle,
		"quantity":      item.Quantity,
	})

	row := *item
	row.ID = 0
	// added_at is not returned: it is always the value written, and SQLite
	// hands RETURNING timestamps back as untyped text.
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "product_title"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
					"added_at": gorm.Expr("excluded.added_at"),
				}),
			},
			clause.Returning{Columns: []clause.Column{
				{Name: "id"},
				{Name: "quantity"},
				{Name: "product_price"},
				{Name: "product_image"},
				{Name: "product_desc"},
			}},
		).
		Create(&row).Error
	if err != nil {
		logger.Error("Failed to upsert cart item", err, map[string]interface{}{
			"user_id":       item.UserID,
			"product_title": item.ProductTitle,
		})
		return nil, err
	}

	return &row, nil
}

func (r *cartRepository) FindByUserAndTitle(ctx context.Context, userID uint, title string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_title = ?", userID, title).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByUserID returns the user's rows, most recently touched first. The id
// tiebreak keeps the order stable when timestamps collide.
func (r *cartRepository) FindByUserID(ctx context.Context, userID uint) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to list cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart items listed", map[string]interface{}{
		"user_id": userID,
		"count":   len(items),
	})
	return items, nil
}

func (r *cartRepository) FindByIDForUser(ctx context.Context, id, userID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteForUser removes the row only if userID owns it and returns what was
// removed. The conditional delete decides; the preceding read only supplies
// the response body.
func (r *cartRepository) DeleteForUser(ctx context.Context, id, userID uint) (*model.CartItem, error) {
	var removed model.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&removed).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.CartItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Cart item deleted", map[string]interface{}{
		"cart_item_id": id,
		"user_id":      userID,
	})
	return &removed, nil
}

// UpdateQuantityForUser sets an absolute quantity on a row userID owns.
func (r *cartRepository) UpdateQuantityForUser(ctx context.Context, id, userID uint, quantity int, at time.Time) (*model.CartItem, error) {
	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"quantity": quantity,
			"added_at": at,
		})
	if result.Error != nil {
		logger.Error("Failed to update cart item quantity", result.Error, map[string]interface{}{
			"cart_item_id": id,
			"user_id":      userID,
		})
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.FindByIDForUser(ctx, id, userID)
}

func (r *cartRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to clear cart", result.Error, map[string]interface{}{
			"user_id": userID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountUnits is the sum of quantities across the user's cart.
func (r *cartRepository) CountUnits(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
