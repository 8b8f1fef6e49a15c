package repository

import (
	"context"
	"testing"

	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetQuantityMissingVariant(t *testing.T) {
	repo := NewMemoryRepository()

	qty, err := repo.GetQuantity(context.Background(), "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestMemoryDeclareVariantsCreatesGrid(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	err := repo.DeclareVariants(ctx, "p1", []string{"red", "blue"}, []string{"S", "M", "L"})
	require.NoError(t, err)

	variants, err := repo.ListByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, variants, 6)
	for _, v := range variants {
		assert.Equal(t, int64(0), v.Quantity)
	}

	// Re-declaring must not reset quantities already on hand.
	repo.Seed("p1", "red", "M", 7)
	err = repo.DeclareVariants(ctx, "p1", []string{"red"}, []string{"M"})
	require.NoError(t, err)

	qty, err := repo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)
}

func TestMemoryApplyDeltasUnknownVariant(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Seed("p1", "red", "M", 10)

	err := repo.ApplyDeltas(context.Background(), []stock.Delta{
		{ProductID: "p1", Color: "green", Size: "M", Delta: -1},
	}, nil, nil)

	var unknown *stock.UnknownVariantError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "green", unknown.Color)
}

func TestMemoryApplyDeltasAllOrNothing(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	repo.Seed("p1", "red", "M", 10)
	repo.Seed("p1", "blue", "L", 2)

	err := repo.ApplyDeltas(ctx, []stock.Delta{
		{ProductID: "p1", Color: "red", Size: "M", Delta: -4},
		{ProductID: "p1", Color: "blue", Size: "L", Delta: -5},
	}, nil, nil)

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "blue", insufficient.Color)
	assert.Equal(t, int64(5), insufficient.Requested)
	assert.Equal(t, int64(2), insufficient.Available)

	// The valid line must not have been applied.
	qty, err := repo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)

	total, err := repo.GetAggregate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
}

func TestMemoryApplyDeltasDuplicateKeysAccumulate(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Seed("p1", "red", "M", 5)

	// Each delta alone fits, together they overdraw the cell.
	err := repo.ApplyDeltas(context.Background(), []stock.Delta{
		{ProductID: "p1", Color: "red", Size: "M", Delta: -3},
		{ProductID: "p1", Color: "red", Size: "M", Delta: -3},
	}, nil, nil)

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	qty, err := repo.GetQuantity(context.Background(), "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)
}

func TestMemoryApplyDeltasAttachFailureUndoes(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	repo.Seed("p1", "red", "M", 10)

	attachErr := errors.New("boom")
	err := repo.ApplyDeltas(ctx, []stock.Delta{
		{ProductID: "p1", Color: "red", Size: "M", Delta: -4},
	}, nil, func(ctx context.Context, _ sqlx.ExtContext) error {
		return attachErr
	})
	require.ErrorIs(t, err, attachErr)

	qty, err := repo.GetQuantity(ctx, "p1", "red", "M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)

	movements, total, err := repo.ListMovements(ctx, &dto.MovementFilters{ProductID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, movements)
	assert.Equal(t, 0, total)
}

func TestMemoryApplyDeltasRecordsMovements(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	repo.Seed("p1", "red", "M", 10)

	ref := &stock.MovementRef{Type: "sale", ReferenceType: "pos", ReferenceID: "tx-1"}
	err := repo.ApplyDeltas(ctx, []stock.Delta{
		{ProductID: "p1", Color: "red", Size: "M", Delta: -4},
	}, ref, nil)
	require.NoError(t, err)

	movements, total, err := repo.ListMovements(ctx, &dto.MovementFilters{ProductID: "p1", MovementType: "sale"})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	m := movements[0]
	assert.Equal(t, int64(-4), m.QuantityChange)
	assert.Equal(t, int64(10), m.QuantityBefore)
	assert.Equal(t, int64(6), m.QuantityAfter)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, "tx-1", *m.ReferenceID)
}
