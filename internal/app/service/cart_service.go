package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxCartPrice is the first value numeric(10,2) cannot hold.
var maxCartPrice = decimal.New(1, 8)

var (
	ErrCartItemNotFound = errors.New("cart item not found or does not belong to user")
	ErrCartUserNotFound = errors.New("user does not exist")
	ErrInvalidCartInput = errors.New("invalid cart input")
)

// CartNotifier is told the new unit count after any change to a user's cart.
type CartNotifier interface {
	NotifyCartChanged(userID uint, itemCount int)
}

type AddCartItemInput struct {
	UserID       uint
	ProductTitle string
	ProductImage *string
	ProductDesc  *string
	ProductPrice *decimal.Decimal
	Quantity     int
}

// CartSummary is the list view: rows plus unit count and total price.
type CartSummary struct {
	Items []model.CartItem
	Count int
	Total decimal.Decimal
}

type CartService interface {
	AddItem(ctx context.Context, input AddCartItemInput) (*model.CartItem, bool, error)
	ListItems(ctx context.Context, userID uint) ([]model.CartItem, error)
	Summary(ctx context.Context, userID uint) (*CartSummary, error)
	RemoveItem(ctx context.Context, userID, cartItemID uint) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, cartItemID uint, quantity int) (*model.CartItem, bool, error)
	ClearCart(ctx context.Context, userID uint) error
}

type cartService struct {
	cartRepo repository.CartRepository
	notifier CartNotifier
	now      func() time.Time
}

type CartOption func(*cartService)

func WithCartNotifier(n CartNotifier) CartOption {
	return func(s *cartService) { s.notifier = n }
}

func WithCartClock(now func() time.Time) CartOption {
	return func(s *cartService) { s.now = now }
}

func NewCartService(cartRepo repository.CartRepository, opts ...CartOption) CartService {
	s := &cartService{cartRepo: cartRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem adds quantity of a product to the user's cart, merging into the
// existing row for the same title. created reports whether a new row was
// inserted.
func (s *cartService) AddItem(ctx context.Context, input AddCartItemInput) (*model.CartItem, bool, error) {
	if err := validateAddInput(input); err != nil {
		return nil, false, err
	}

	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":       input.UserID,
		"product_title": input.ProductTitle,
		"quantity":      input.Quantity,
	})

	stored, err := s.cartRepo.Upsert(ctx, &model.CartItem{
		UserID:       input.UserID,
		ProductTitle: input.ProductTitle,
		ProductImage: emptyToNil(input.ProductImage),
		ProductDesc:  emptyToNil(input.ProductDesc),
		ProductPrice: *input.ProductPrice,
		Quantity:     input.Quantity,
		AddedAt:      s.now().UTC(),
	})
	if err != nil {
		if apperrors.IsForeignKeyViolation(err) {
			logger.Warn("Cannot add to cart: user not found", map[string]interface{}{
				"user_id": input.UserID,
			})
			return nil, false, ErrCartUserNotFound
		}
		return nil, false, fmt.Errorf("add cart item: %w", err)
	}

	// An existing row always holds at least 1, so a merge lands above the
	// requested quantity.
	created := stored.Quantity == input.Quantity

	s.notify(ctx, input.UserID)
	return stored, created, nil
}

func validateAddInput(input AddCartItemInput) error {
	switch {
	case input.UserID == 0:
		return fmt.Errorf("%w: user is required", ErrInvalidCartInput)
	case strings.TrimSpace(input.ProductTitle) == "":
		return fmt.Errorf("%w: product_title is required", ErrInvalidCartInput)
	case input.ProductPrice == nil:
		return fmt.Errorf("%w: product_price is required", ErrInvalidCartInput)
	case input.ProductPrice.IsNegative():
		return fmt.Errorf("%w: product_price must be a non-negative number", ErrInvalidCartInput)
	case !input.ProductPrice.Equal(input.ProductPrice.Round(2)):
		return fmt.Errorf("%w: product_price must have at most 2 decimal places", ErrInvalidCartInput)
	case input.ProductPrice.GreaterThanOrEqual(maxCartPrice):
		return fmt.Errorf("%w: product_price must be less than %s", ErrInvalidCartInput, maxCartPrice.String())
	case input.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be a positive number", ErrInvalidCartInput)
	}
	return nil
}

func (s *cartService) ListItems(ctx context.Context, userID uint) ([]model.CartItem, error) {
	items, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return items, nil
}

func (s *cartService) Summary(ctx context.Context, userID uint) (*CartSummary, error) {
	items, err := s.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{Items: items, Total: decimal.Zero}
	for _, item := range items {
		summary.Count += item.Quantity
		summary.Total = summary.Total.Add(item.LineTotal())
	}
	return summary, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, cartItemID uint) (*model.CartItem, error) {
	removed, err := s.cartRepo.DeleteForUser(ctx, cartItemID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
	})
	s.notify(ctx, userID)
	return removed, nil
}

// UpdateQuantity sets an absolute quantity. Zero removes the row, in which
// case removed is true and the returned item is the deleted row.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, cartItemID uint, quantity int) (*model.CartItem, bool, error) {
	if quantity < 0 {
		return nil, false, fmt.Errorf("%w: quantity must be a non-negative number", ErrInvalidCartInput)
	}
	if quantity == 0 {
		removed, err := s.RemoveItem(ctx, userID, cartItemID)
		return removed, err == nil, err
	}

	updated, err := s.cartRepo.UpdateQuantityForUser(ctx, cartItemID, userID, quantity, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCartItemNotFound
		}
		return nil, false, fmt.Errorf("update cart item: %w", err)
	}

	s.notify(ctx, userID)
	return updated, false, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uint) error {
	n, err := s.cartRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"user_id": userID,
		"removed": n,
	})
	s.notify(ctx, userID)
	return nil
}

// notify is best effort; a failed count only means a stale badge.
func (s *cartService) notify(ctx context.Context, userID uint) {
	if s.notifier == nil {
		return
	}
	count, err := s.cartRepo.CountUnits(ctx, userID)
	if err != nil {
		logger.Warn("Failed to count cart units for notification", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	s.notifier.NotifyCartChanged(userID, count)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
