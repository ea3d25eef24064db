package hardware

import "fmt"

// Denomination 纸币面额（德拉姆）
type Denomination int

const (
	Denom1000  Denomination = 1000
	Denom2000  Denomination = 2000
	Denom5000  Denomination = 5000
	Denom10000 Denomination = 10000
	Denom20000 Denomination = 20000
)

// 面额在协议中的编码（设备索引）
const (
	nominalCode1000  byte = 0x00
	nominalCode5000  byte = 0x01
	nominalCode10000 byte = 0x02
	nominalCode20000 byte = 0x03
	nominalCode2000  byte = 0x0C
)

// Denominations 所有已知面额（按面值升序）
var Denominations = []Denomination{
	Denom1000, Denom2000, Denom5000, Denom10000, Denom20000,
}

// DenominationFromCode 根据协议编码解析面额
// 未知编码返回 false，不视为错误
func DenominationFromCode(code byte) (Denomination, bool) {
	switch code {
	case nominalCode1000:
		return Denom1000, true
	case nominalCode2000:
		return Denom2000, true
	case nominalCode5000:
		return Denom5000, true
	case nominalCode10000:
		return Denom10000, true
	case nominalCode20000:
		return Denom20000, true
	default:
		return 0, false
	}
}

// Value 面额数值
func (d Denomination) Value() int {
	return int(d)
}

// String 实现fmt.Stringer
func (d Denomination) String() string {
	return fmt.Sprintf("%d dram", int(d))
}

// BillEventType 纸币事件类型
type BillEventType string

const (
	EventAccepted        BillEventType = "accepted"         // 纸币已入钞箱
	EventRejected        BillEventType = "rejected"         // 纸币被退回
	EventStackerRemoved  BillEventType = "stacker_removed"  // 钞箱被取出
	EventStackerReplaced BillEventType = "stacker_replaced" // 钞箱已放回
	EventJam             BillEventType = "jam"              // 卡钞
	EventDeviceError     BillEventType = "device_error"     // 设备故障
)

// BillEvent 纸币事件
// 由状态分发器产生，经事件通道交给消费者，驱动本身不保留
type BillEvent struct {
	Type         BillEventType `json:"type"`
	Denomination Denomination  `json:"denomination,omitempty"` // 仅 accepted 事件
	Reason       string        `json:"reason,omitempty"`       // rejected/jam/device_error 的描述
	Raw          []byte        `json:"-"`                      // 原始响应帧（审计用）
}

// AcceptorCommand 外部控制命令
type AcceptorCommand int

const (
	CommandEnable AcceptorCommand = iota + 1 // 开始收钞
	CommandDisable                           // 停止收钞
)

// String 实现fmt.Stringer
func (c AcceptorCommand) String() string {
	switch c {
	case CommandEnable:
		return "enable"
	case CommandDisable:
		return "disable"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}
