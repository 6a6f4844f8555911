package service

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProductServiceTest(t *testing.T) ProductService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return NewProductService(repository.NewProductRepository(testDB))
}

func TestProductService_ImportAndList(t *testing.T) {
	svc := setupProductServiceTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	n, err := svc.ImportProducts(ctx, []model.Product{
		{Title: "Beanie", Price: decimal.RequireFromString("15"), Category: "hats", CreatedAt: now},
		{Title: "Blanket", Price: decimal.RequireFromString("80"), Category: "home", CreatedAt: now.Add(time.Minute)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := svc.ListProducts(ctx, ProductListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Blanket", all[0].Title)

	hats, err := svc.ListProducts(ctx, ProductListOptions{Category: " hats "})
	require.NoError(t, err)
	require.Len(t, hats, 1)

	got, err := svc.GetProductByID(ctx, hats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Beanie", got.Title)

	_, err = svc.GetProductByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_ListEmpty(t *testing.T) {
	svc := setupProductServiceTest(t)

	products, err := svc.ListProducts(context.Background(), ProductListOptions{})

	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestProductService_ImportRejectsBadRows(t *testing.T) {
	svc := setupProductServiceTest(t)
	ctx := context.Background()

	_, err := svc.ImportProducts(ctx, []model.Product{
		{Title: "Good", Price: decimal.RequireFromString("1")},
		{Title: "", Price: decimal.RequireFromString("1")},
	})
	assert.ErrorIs(t, err, ErrInvalidProductInput)

	_, err = svc.ImportProducts(ctx, []model.Product{
		{Title: "Refund", Price: decimal.RequireFromString("-5")},
	})
	assert.ErrorIs(t, err, ErrInvalidProductInput)

	products, err := svc.ListProducts(ctx, ProductListOptions{})
	require.NoError(t, err)
	assert.Empty(t, products)
}
