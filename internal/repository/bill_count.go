package repository

import (
	"context"

	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillCountRepository 面额账本仓储接口
// 轮询线程写、API线程读，所有操作走同一个串行化的数据库句柄
type BillCountRepository interface {
	BaseRepository
	// Seed 为所有已知面额播种计数行（幂等，每次启动都可调用）
	Seed(ctx context.Context) error
	// RecordAccepted 指定面额计数加一
	RecordAccepted(ctx context.Context, denom hardware.Denomination) error
	// GetCounts 按面额升序返回所有计数
	GetCounts(ctx context.Context) ([]models.BillCount, error)
	// GetTotal 累计总金额 Σ(面额×张数)，表为空或查询失败时为0
	GetTotal(ctx context.Context) (int64, error)
}

// billCountRepo 面额账本仓储实现
type billCountRepo struct {
	*BaseRepo
}

// NewBillCountRepository 创建面额账本仓储
func NewBillCountRepository(db *gorm.DB) BillCountRepository {
	return &billCountRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Seed 播种计数行
func (r *billCountRepo) Seed(ctx context.Context) error {
	rows := make([]models.BillCount, 0, len(hardware.Denominations))
	for _, denom := range hardware.Denominations {
		rows = append(rows, models.BillCount{Denomination: denom.Value()})
	}

	// 已存在的行不动，保证计数不被重置
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// RecordAccepted 指定面额计数加一
func (r *billCountRepo) RecordAccepted(ctx context.Context, denom hardware.Denomination) error {
	return r.db.WithContext(ctx).
		Model(&models.BillCount{}).
		Where("denomination = ?", denom.Value()).
		UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error
}

// GetCounts 按面额升序返回所有计数
func (r *billCountRepo) GetCounts(ctx context.Context) ([]models.BillCount, error) {
	var counts []models.BillCount
	err := r.db.WithContext(ctx).
		Order("denomination asc").
		Find(&counts).Error
	return counts, err
}

// GetTotal 累计总金额
func (r *billCountRepo) GetTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.BillCount{}).
		Select("COALESCE(SUM(denomination * quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// WithTx 使用事务
func (r *billCountRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &billCountRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
