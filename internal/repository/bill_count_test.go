package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/cash-acceptor/internal/hardware"
)

func TestBillCountRepository_Seed(t *testing.T) {
	db := TestDB(t)
	repo := NewBillCountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))

	counts, err := repo.GetCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, len(hardware.Denominations))

	// 每个已知面额一行，初始计数为0
	for i, denom := range hardware.Denominations {
		assert.Equal(t, denom.Value(), counts[i].Denomination)
		assert.Equal(t, int64(0), counts[i].Quantity)
	}
}

func TestBillCountRepository_SeedIdempotent(t *testing.T) {
	db := TestDB(t)
	repo := NewBillCountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom5000))

	// 重复播种不重置已有计数
	require.NoError(t, repo.Seed(ctx))

	counts, err := repo.GetCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, len(hardware.Denominations))
	for _, row := range counts {
		if row.Denomination == hardware.Denom5000.Value() {
			assert.Equal(t, int64(1), row.Quantity)
		} else {
			assert.Equal(t, int64(0), row.Quantity)
		}
	}
}

func TestBillCountRepository_RecordAccepted(t *testing.T) {
	db := TestDB(t)
	repo := NewBillCountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))

	// 同一面额记录多次，其他面额不受影响
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom1000))
	}
	require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom20000))

	counts, err := repo.GetCounts(ctx)
	require.NoError(t, err)

	byDenom := make(map[int]int64)
	for _, row := range counts {
		byDenom[row.Denomination] = row.Quantity
	}
	assert.Equal(t, int64(3), byDenom[1000])
	assert.Equal(t, int64(1), byDenom[20000])
	assert.Equal(t, int64(0), byDenom[5000])
	assert.Equal(t, int64(0), byDenom[10000])
	assert.Equal(t, int64(0), byDenom[2000])
}

func TestBillCountRepository_GetTotal(t *testing.T) {
	db := TestDB(t)
	repo := NewBillCountRepository(db)
	ctx := context.Background()

	// 空表总额为0
	total, err := repo.GetTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	require.NoError(t, repo.Seed(ctx))

	// 2×1000 + 1×5000 + 3×20000 = 67000
	require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom1000))
	require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom1000))
	require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom5000))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordAccepted(ctx, hardware.Denom20000))
	}

	total, err = repo.GetTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(67000), total)
}

func TestBillCountRepository_GetCountsOrdered(t *testing.T) {
	db := TestDB(t)
	repo := NewBillCountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))

	counts, err := repo.GetCounts(ctx)
	require.NoError(t, err)

	// 按面额升序返回
	for i := 1; i < len(counts); i++ {
		assert.Less(t, counts[i-1].Denomination, counts[i].Denomination)
	}
}
