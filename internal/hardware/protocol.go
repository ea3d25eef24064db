package hardware

import (
	"bytes"
	"fmt"
)

// CashCode协议固定命令帧
// 帧格式: [0x02 0x03] [长度] [命令] [参数...] [校验和x2]
// 命令集固定，校验和预先算好，运行时不做动态计算
var (
	cmdPoll    = []byte{0x02, 0x03, 0x06, 0x33, 0xDA, 0x81}
	cmdReset   = []byte{0x02, 0x03, 0x06, 0x30, 0x41, 0xB3}
	cmdEnable  = []byte{0x02, 0x03, 0x0C, 0x34, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0xB5, 0xC1}
	cmdDisable = []byte{0x02, 0x03, 0x0C, 0x34, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xB5, 0xC1}
	cmdAck     = []byte{0x02, 0x03, 0x06, 0x00, 0xC2, 0x82}
)

// 协议状态码
const (
	StatusInitializing   byte = 0x13
	StatusIdling         byte = 0x14
	StatusAccepting      byte = 0x15
	StatusStacking       byte = 0x17
	StatusDisabled       byte = 0x19
	StatusRejected       byte = 0x1C
	StatusStackerFull    byte = 0x41
	StatusStackerRemoved byte = 0x42
	StatusJamInAcceptor  byte = 0x43
	StatusJamInStacker   byte = 0x44
	StatusFailure        byte = 0x47
	StatusBillStacked    byte = 0x81
)

// 退钞原因码
const (
	rejectInsertion      byte = 0x60
	rejectConveying      byte = 0x64
	rejectIdentification byte = 0x65
	rejectVerification   byte = 0x66
	rejectInhibited      byte = 0x68
	rejectCapacity       byte = 0x69
	rejectOperation      byte = 0x6A
)

// 故障码
const failureSensorCover byte = 0x55

// rejectReasons 退钞原因表
var rejectReasons = map[byte]string{
	rejectInsertion:      "Insertion error",
	rejectConveying:      "Conveying error",
	rejectIdentification: "Identification error",
	rejectVerification:   "Verification error",
	rejectInhibited:      "Denomination inhibited",
	rejectCapacity:       "Capacity error",
	rejectOperation:      "Operation error",
}

// RejectReason 根据退钞码返回原因描述，未知码返回兜底描述
func RejectReason(code byte) string {
	if reason, ok := rejectReasons[code]; ok {
		return reason
	}
	return "Unknown error"
}

// FailureMessage 根据故障码返回故障描述
// 0x55 是已知故障（传感器盖被打开），其余按十六进制原样上报
func FailureMessage(code byte) string {
	if code == failureSensorCover {
		return "FAILURE 55"
	}
	return fmt.Sprintf("FAILURE 0x%02X", code)
}

// Frame 解码后的响应帧
type Frame struct {
	Length     byte   // 声明长度（不做独立校验）
	Status     byte   // 状态字节
	Payload    byte   // 附加字节（仅部分状态携带）
	HasPayload bool   // 是否携带附加字节
	Raw        []byte // 原始字节（日志与审计用）
}

// statusHasPayload 该状态是否要求附加字节
func statusHasPayload(status byte) bool {
	switch status {
	case StatusFailure, StatusRejected, StatusBillStacked:
		return true
	default:
		return false
	}
}

// Decode 解码响应缓冲区
// 返回 false 表示本轮没有可用帧，这是正常情况而不是错误:
//   - 缓冲区为空或不足4字节
//   - 帧头不是 0x02 0x03
//   - 携带附加字节的状态缺少第5字节（此时不回ACK，等设备重发完整帧）
func Decode(buf []byte) (Frame, bool) {
	if len(buf) < 2 {
		return Frame{}, false
	}

	if buf[0] != 0x02 || buf[1] != 0x03 {
		return Frame{}, false
	}

	if len(buf) < 4 {
		return Frame{}, false
	}

	frame := Frame{
		Length: buf[2],
		Status: buf[3],
		Raw:    buf,
	}

	if statusHasPayload(frame.Status) {
		if len(buf) < 5 {
			return Frame{}, false
		}
		frame.Payload = buf[4]
		frame.HasPayload = true
	}

	return frame, true
}

// IsAck 判断响应是否为ACK帧
func IsAck(buf []byte) bool {
	return bytes.Equal(buf, cmdAck)
}
