package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/models"
	"gorm.io/gorm"
)

// AcceptorEventRepository 事件审计仓储接口
type AcceptorEventRepository interface {
	BaseRepository
	// Record 持久化一个纸币事件
	Record(ctx context.Context, event hardware.BillEvent) (*models.AcceptorEvent, error)
	// Recent 按时间倒序返回最近的事件
	Recent(ctx context.Context, limit int) ([]models.AcceptorEvent, error)
	// CountByType 按事件类型统计数量
	CountByType(ctx context.Context, eventType models.AcceptorEventType) (int64, error)
}

// acceptorEventRepo 事件审计仓储实现
type acceptorEventRepo struct {
	*BaseRepo
}

// NewAcceptorEventRepository 创建事件审计仓储
func NewAcceptorEventRepository(db *gorm.DB) AcceptorEventRepository {
	return &acceptorEventRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Record 持久化一个纸币事件
func (r *acceptorEventRepo) Record(ctx context.Context, event hardware.BillEvent) (*models.AcceptorEvent, error) {
	row := &models.AcceptorEvent{
		EventID: uuid.NewString(),
		Type:    models.AcceptorEventType(event.Type),
		Reason:  event.Reason,
	}

	if event.Type == hardware.EventAccepted {
		row.Denomination = event.Denomination.Value()
	}
	if len(event.Raw) > 0 {
		row.RawFrame = fmt.Sprintf("%02X", event.Raw)
	}

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Recent 按时间倒序返回最近的事件
func (r *acceptorEventRepo) Recent(ctx context.Context, limit int) ([]models.AcceptorEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []models.AcceptorEvent
	err := r.db.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountByType 按事件类型统计数量
func (r *acceptorEventRepo) CountByType(ctx context.Context, eventType models.AcceptorEventType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AcceptorEvent{}).
		Where("type = ?", eventType).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *acceptorEventRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &acceptorEventRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
