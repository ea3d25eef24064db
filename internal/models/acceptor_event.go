package models

import (
	"time"

	"gorm.io/gorm"
)

// AcceptorEventType 纸币器事件类型
type AcceptorEventType string

const (
	AcceptorEventAccepted        AcceptorEventType = "accepted"
	AcceptorEventRejected        AcceptorEventType = "rejected"
	AcceptorEventStackerRemoved  AcceptorEventType = "stacker_removed"
	AcceptorEventStackerReplaced AcceptorEventType = "stacker_replaced"
	AcceptorEventJam             AcceptorEventType = "jam"
	AcceptorEventDeviceError     AcceptorEventType = "device_error"
)

// AcceptorEvent 纸币器事件审计日志
// 每个上报给消费者的事件都会落一行，收钞事件落账失败时
// 可以用这张表和bill_counts对账
type AcceptorEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`

	EventID      string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"event_id"` // UUID
	Type         AcceptorEventType `gorm:"type:varchar(20);index;not null" json:"type"`
	Denomination int               `gorm:"index" json:"denomination,omitempty"` // 仅accepted事件
	Reason       string            `gorm:"type:varchar(255)" json:"reason,omitempty"`
	RawFrame     string            `gorm:"type:varchar(64)" json:"raw_frame,omitempty"` // 原始响应帧（十六进制）
}

// TableName 指定表名
func (AcceptorEvent) TableName() string {
	return "acceptor_events"
}

// BeforeCreate 创建前的钩子
func (e *AcceptorEvent) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}
