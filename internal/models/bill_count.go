package models

// BillCount 面额账本
// 一个已知面额对应一行，计数单调递增，表在首次启动时播种为0
type BillCount struct {
	Denomination int   `gorm:"primaryKey" json:"denomination"`      // 面额（德拉姆）
	Quantity     int64 `gorm:"not null;default:0" json:"quantity"` // 累计收钞张数
}

// TableName 指定表名
func (BillCount) TableName() string {
	return "bill_counts"
}

// Amount 该面额的累计金额
func (b *BillCount) Amount() int64 {
	return int64(b.Denomination) * b.Quantity
}
