package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductTest(t *testing.T) ProductRepository {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return NewProductRepository(testDB)
}

func TestProductRepository_BulkCreateAndFind(t *testing.T) {
	repo := setupProductTest(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := repo.BulkCreate(ctx, []model.Product{
		{Title: "Beanie", Price: decimal.RequireFromString("15.00"), Category: "hats", CreatedAt: now},
		{Title: "Bucket Hat", Price: decimal.RequireFromString("22.50"), Category: "hats", CreatedAt: now.Add(time.Minute)},
		{Title: "Blanket", Price: decimal.RequireFromString("80.00"), Category: "home", CreatedAt: now.Add(2 * time.Minute)},
	})
	require.NoError(t, err)

	all, err := repo.FindAll(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Blanket", all[0].Title)

	hats, err := repo.FindAll(ctx, ProductFilter{Category: "hats"})
	require.NoError(t, err)
	require.Len(t, hats, 2)
	assert.Equal(t, "Bucket Hat", hats[0].Title)
	assert.True(t, hats[0].Price.Equal(decimal.RequireFromString("22.5")))

	page, err := repo.FindAll(ctx, ProductFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	found, err := repo.FindByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Blanket", found.Title)

	_, err = repo.FindByID(ctx, 9999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestProductRepository_BulkCreateEmpty(t *testing.T) {
	repo := setupProductTest(t)
	assert.NoError(t, repo.BulkCreate(context.Background(), nil))
}
