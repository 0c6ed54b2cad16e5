package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokolabs/sokobot-backend/internal/models"
)

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetUserByPhone(ctx, "+254712345678")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := store.CreateUser(ctx, &models.User{
		Phone:          "+254712345678",
		Role:           models.RoleSeller,
		Community:      "kibera",
		VoucherBalance: 50,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.UserID)

	got, err := store.GetUserByPhone(ctx, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, got.Role)
	assert.Equal(t, 50, got.VoucherBalance)

	got.VoucherBalance = 45
	require.NoError(t, store.UpdateUser(ctx, got))

	got, err = store.GetUserByPhone(ctx, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, 45, got.VoucherBalance)
}

func TestMemoryStoreShopNameUniquePerCommunity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.CreateShop(ctx, &models.Shop{
		OwnerPhone: "+254700000001",
		Community:  "kibera",
		Name:       "Mama Njeri Groceries",
	})
	require.NoError(t, err)

	taken, err := store.IsShopNameTaken(ctx, "mama njeri groceries", "kibera")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = store.IsShopNameTaken(ctx, "Mama Njeri Groceries", "mathare")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = store.CreateShop(ctx, &models.Shop{
		OwnerPhone: "+254700000002",
		Community:  "kibera",
		Name:       "MAMA NJERI GROCERIES",
	})
	var nameTaken *NameTakenError
	require.ErrorAs(t, err, &nameTaken)
	assert.Equal(t, "MAMA NJERI GROCERIES", nameTaken.Name)

	// Same name in another community is fine.
	_, err = store.CreateShop(ctx, &models.Shop{
		OwnerPhone: "+254700000003",
		Community:  "mathare",
		Name:       "Mama Njeri Groceries",
	})
	require.NoError(t, err)
}

func TestMemoryStoreShopsByOwnerAndCommunity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetShopByOwner(ctx, "+254700000001")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.CreateShop(ctx, &models.Shop{
		OwnerPhone: "+254700000001",
		Community:  "kibera",
		Name:       "Corner Hardware",
	})
	require.NoError(t, err)

	shop, err := store.GetShopByOwner(ctx, "+254700000001")
	require.NoError(t, err)
	assert.Equal(t, "Corner Hardware", shop.Name)

	shops, err := store.GetShopsByCommunity(ctx, "kibera")
	require.NoError(t, err)
	assert.Len(t, shops, 1)
}

func TestMemoryStoreSessionSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetSessionSnapshot(ctx, "+254712345678")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpsertSessionSnapshot(ctx, &models.SessionSnapshot{
		Phone:       "+254712345678",
		CurrentFlow: "main_menu",
		Role:        models.RoleBuyer,
		Community:   "mukuru",
	}))

	snap, err := store.GetSessionSnapshot(ctx, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, "main_menu", snap.CurrentFlow)

	require.NoError(t, store.UpsertSessionSnapshot(ctx, &models.SessionSnapshot{
		Phone:       "+254712345678",
		CurrentFlow: "seller_menu",
		Role:        models.RoleSeller,
		Community:   "mukuru",
	}))

	snap, err = store.GetSessionSnapshot(ctx, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, "seller_menu", snap.CurrentFlow)

	require.NoError(t, store.DeleteSessionSnapshot(ctx, "+254712345678"))
	require.NoError(t, store.DeleteSessionSnapshot(ctx, "+254712345678")) // idempotent

	_, err = store.GetSessionSnapshot(ctx, "+254712345678")
	assert.ErrorIs(t, err, ErrNotFound)
}
