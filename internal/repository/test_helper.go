package repository

import (
	"testing"

	"github.com/wfunc/cash-acceptor/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建测试数据库
// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.BillCount{},
		&models.AcceptorEvent{},
	)
	if err != nil {
		t.Fatalf("测试数据库迁移失败: %v", err)
	}

	return db
}
