package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu     sync.Mutex
	counts map[uint][]int
}

func (f *fakeNotifier) NotifyCartChanged(userID uint, itemCount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[uint][]int{}
	}
	f.counts[userID] = append(f.counts[userID], itemCount)
}

func (f *fakeNotifier) last(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.counts[userID]
	if len(c) == 0 {
		return -1
	}
	return c[len(c)-1]
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

// now advances one second per call so successive writes order deterministically.
func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupCartServiceTest(t *testing.T) (CartService, *fakeNotifier, *model.User, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	notifier := &fakeNotifier{}
	clock := &stepClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewCartService(
		repository.NewCartRepository(testDB),
		WithCartNotifier(notifier),
		WithCartClock(clock.now),
	)

	user := &model.User{Username: "ann", Email: "ann@example.com", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(user).Error)

	return svc, notifier, user, testDB
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func addInput(userID uint, title string, qty int) AddCartItemInput {
	return AddCartItemInput{
		UserID:       userID,
		ProductTitle: title,
		ProductPrice: price("12.50"),
		Quantity:     qty,
	}
}

func TestCartService_AddItemCreatesThenMerges(t *testing.T) {
	svc, notifier, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	item, created, err := svc.AddItem(ctx, addInput(user.ID, "Cozy Hat", 2))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, item.Quantity)

	item2, created, err := svc.AddItem(ctx, addInput(user.ID, "Cozy Hat", 3))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, item2.ID)
	assert.Equal(t, 5, item2.Quantity)
	assert.True(t, item2.AddedAt.After(item.AddedAt))

	items, err := svc.ListItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 5, notifier.last(user.ID))
}

func TestCartService_AddItemValidation(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input AddCartItemInput
	}{
		{"missing user", addInput(0, "Hat", 1)},
		{"blank title", addInput(user.ID, "  ", 1)},
		{"zero quantity", addInput(user.ID, "Hat", 0)},
		{"negative quantity", addInput(user.ID, "Hat", -2)},
		{"missing price", AddCartItemInput{UserID: user.ID, ProductTitle: "Hat", Quantity: 1}},
		{"negative price", AddCartItemInput{UserID: user.ID, ProductTitle: "Hat", ProductPrice: price("-1"), Quantity: 1}},
		{"sub-cent price", AddCartItemInput{UserID: user.ID, ProductTitle: "Hat", ProductPrice: price("9.999"), Quantity: 1}},
		{"price too large", AddCartItemInput{UserID: user.ID, ProductTitle: "Hat", ProductPrice: price("100000000"), Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.AddItem(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidCartInput)
		})
	}

	items, err := svc.ListItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_AddItemZeroPriceAllowed(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)

	input := addInput(user.ID, "Free Sticker", 1)
	input.ProductPrice = price("0")
	item, created, err := svc.AddItem(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, item.ProductPrice.IsZero())
}

func TestCartService_AddItemPriceBounds(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	input := addInput(user.ID, "Gold Ring", 1)
	input.ProductPrice = price("99999999.99")
	item, _, err := svc.AddItem(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", item.ProductPrice.StringFixed(2))

	input = addInput(user.ID, "Pen", 1)
	input.ProductPrice = price("1.500")
	item, _, err = svc.AddItem(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "1.50", item.ProductPrice.StringFixed(2))
}

func TestCartService_AddItemUnknownUser(t *testing.T) {
	svc, _, _, _ := setupCartServiceTest(t)

	_, _, err := svc.AddItem(context.Background(), addInput(4242, "Hat", 1))

	assert.ErrorIs(t, err, ErrCartUserNotFound)
}

func TestCartService_AddItemStoresOptionalFields(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)

	image := "/img/hat.png"
	empty := ""
	input := addInput(user.ID, "Cozy Hat", 1)
	input.ProductImage = &image
	input.ProductDesc = &empty

	item, _, err := svc.AddItem(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, item.ProductImage)
	assert.Equal(t, image, *item.ProductImage)
	assert.Nil(t, item.ProductDesc)
}

func TestCartService_ListItemsNewestFirstAndSummary(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, addInput(user.ID, "First", 1))
	require.NoError(t, err)
	second := addInput(user.ID, "Second", 3)
	second.ProductPrice = price("2.25")
	_, _, err = svc.AddItem(ctx, second)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, "Second", summary.Items[0].ProductTitle)
	assert.Equal(t, 4, summary.Count)
	assert.True(t, summary.Total.Equal(decimal.RequireFromString("19.25")), summary.Total.String())
}

func TestCartService_RemoveItem(t *testing.T) {
	svc, notifier, user, testDB := setupCartServiceTest(t)
	ctx := context.Background()
	other := &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(other).Error)

	item, _, err := svc.AddItem(ctx, addInput(user.ID, "Cozy Hat", 2))
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, other.ID, item.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	removed, err := svc.RemoveItem(ctx, user.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, removed.ID)
	assert.Equal(t, 0, notifier.last(user.ID))

	items, err := svc.ListItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.RemoveItem(ctx, user.ID, item.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	svc, _, user, testDB := setupCartServiceTest(t)
	ctx := context.Background()
	other := &model.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"}
	require.NoError(t, testDB.Create(other).Error)

	item, _, err := svc.AddItem(ctx, addInput(user.ID, "Cozy Hat", 2))
	require.NoError(t, err)

	_, _, err = svc.UpdateQuantity(ctx, user.ID, item.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidCartInput)

	_, _, err = svc.UpdateQuantity(ctx, other.ID, item.ID, 9)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	updated, removed, err := svc.UpdateQuantity(ctx, user.ID, item.ID, 9)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 9, updated.Quantity)
	assert.True(t, updated.AddedAt.After(item.AddedAt))

	_, _, err = svc.UpdateQuantity(ctx, user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_UpdateQuantityZeroRemoves(t *testing.T) {
	svc, _, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	item, _, err := svc.AddItem(ctx, addInput(user.ID, "Cozy Hat", 2))
	require.NoError(t, err)

	got, removed, err := svc.UpdateQuantity(ctx, user.ID, item.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, item.ID, got.ID)

	items, err := svc.ListItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, removed, err = svc.UpdateQuantity(ctx, user.ID, item.ID, 0)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.False(t, removed)
}

func TestCartService_ClearCart(t *testing.T) {
	svc, notifier, user, _ := setupCartServiceTest(t)
	ctx := context.Background()

	_, _, err := svc.AddItem(ctx, addInput(user.ID, "A", 1))
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, addInput(user.ID, "B", 1))
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, user.ID))

	items, err := svc.ListItems(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, notifier.last(user.ID))
}
