package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/models"
)

func TestAcceptorEventRepository_Record(t *testing.T) {
	db := TestDB(t)
	repo := NewAcceptorEventRepository(db)
	ctx := context.Background()

	row, err := repo.Record(ctx, hardware.BillEvent{
		Type:         hardware.EventAccepted,
		Denomination: hardware.Denom10000,
		Raw:          []byte{0x02, 0x03, 0x06, 0x81, 0x02},
	})
	require.NoError(t, err)

	assert.Equal(t, models.AcceptorEventAccepted, row.Type)
	assert.Equal(t, 10000, row.Denomination)
	assert.Equal(t, "0203068102", row.RawFrame)
	assert.False(t, row.CreatedAt.IsZero())

	// EventID是合法UUID
	_, err = uuid.Parse(row.EventID)
	assert.NoError(t, err)
}

func TestAcceptorEventRepository_RecordRejected(t *testing.T) {
	db := TestDB(t)
	repo := NewAcceptorEventRepository(db)
	ctx := context.Background()

	row, err := repo.Record(ctx, hardware.BillEvent{
		Type:   hardware.EventRejected,
		Reason: "Insertion error",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AcceptorEventRejected, row.Type)
	assert.Equal(t, "Insertion error", row.Reason)
	// 非收钞事件不带面额
	assert.Equal(t, 0, row.Denomination)
	assert.Empty(t, row.RawFrame)
}

func TestAcceptorEventRepository_Recent(t *testing.T) {
	db := TestDB(t)
	repo := NewAcceptorEventRepository(db)
	ctx := context.Background()

	denoms := []hardware.Denomination{
		hardware.Denom1000, hardware.Denom5000, hardware.Denom10000,
	}
	for _, denom := range denoms {
		_, err := repo.Record(ctx, hardware.BillEvent{
			Type:         hardware.EventAccepted,
			Denomination: denom,
		})
		require.NoError(t, err)
	}

	// 倒序返回，最新的在前
	events, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 10000, events[0].Denomination)
	assert.Equal(t, 5000, events[1].Denomination)

	// 非法limit回落到默认值
	events, err = repo.Recent(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = repo.Recent(ctx, 501)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestAcceptorEventRepository_CountByType(t *testing.T) {
	db := TestDB(t)
	repo := NewAcceptorEventRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, hardware.BillEvent{
			Type:         hardware.EventAccepted,
			Denomination: hardware.Denom1000,
		})
		require.NoError(t, err)
	}
	_, err := repo.Record(ctx, hardware.BillEvent{
		Type:   hardware.EventJam,
		Reason: "Bill jam in stacker",
	})
	require.NoError(t, err)

	accepted, err := repo.CountByType(ctx, models.AcceptorEventAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(3), accepted)

	jams, err := repo.CountByType(ctx, models.AcceptorEventJam)
	require.NoError(t, err)
	assert.Equal(t, int64(1), jams)

	rejected, err := repo.CountByType(ctx, models.AcceptorEventRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rejected)
}
