package database

import (
	"fmt"

	"github.com/wfunc/cash-acceptor/internal/logger"
	"github.com/wfunc/cash-acceptor/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	migrationModels := []interface{}{
		// 面额账本
		&models.BillCount{},

		// 事件审计
		&models.AcceptorEvent{},
	}

	if err := DB.AutoMigrate(migrationModels...); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	logger.Info("数据库迁移完成", zap.Int("models", len(migrationModels)))

	return nil
}
