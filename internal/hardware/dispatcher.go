package hardware

import (
	"fmt"

	"github.com/wfunc/cash-acceptor/internal/logger"
	"go.uber.org/zap"
)

// StackerState 钞箱子状态
// 只有两个取值，由分发器独占维护，设备空闲时会反复上报同一状态，
// 因此取出事件只在状态翻转的那一刻发出一次
type StackerState int

const (
	StackerPresent StackerState = iota // 钞箱在位
	StackerPulled                      // 钞箱被取出
)

// String 实现fmt.Stringer
func (s StackerState) String() string {
	if s == StackerPulled {
		return "removed"
	}
	return "present"
}

// DispatchResult 一次状态分发的结果
type DispatchResult struct {
	Event    *BillEvent // 产生的事件，可能为nil
	SendAck  bool       // 是否需要回ACK
	ReEnable bool       // 钞箱放回后需要延迟重新使能
}

// Dispatcher 状态分发器
// 把（状态码, 附加字节, 当前子状态）映射为事件/ACK/子状态迁移，
// 不做任何I/O，串口操作由驱动循环执行
type Dispatcher struct {
	stacker StackerState
	logger  *zap.Logger
}

// NewDispatcher 创建状态分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		stacker: StackerPresent,
		logger:  logger.GetModuleLogger("acceptor"),
	}
}

// StackerState 当前钞箱子状态
func (d *Dispatcher) StackerState() StackerState {
	return d.stacker
}

// Dispatch 处理一个已解码的响应帧
func (d *Dispatcher) Dispatch(frame Frame) DispatchResult {
	switch frame.Status {
	case StatusInitializing:
		d.logger.Info("纸币器初始化完成")
		return DispatchResult{SendAck: true}

	case StatusDisabled:
		d.logger.Debug("纸币器处于禁用状态")
		// 钞箱之前被取出、现在设备回到禁用态，说明钞箱已放回
		if d.stacker == StackerPulled {
			d.stacker = StackerPresent
			d.logger.Info("钞箱已放回，准备重新使能")
			return DispatchResult{
				Event:    &BillEvent{Type: EventStackerReplaced, Raw: frame.Raw},
				SendAck:  true,
				ReEnable: true,
			}
		}
		return DispatchResult{SendAck: true}

	case StatusIdling, StatusAccepting, StatusStacking:
		return DispatchResult{SendAck: true}

	case StatusStackerRemoved:
		// 只在翻转沿发一次事件，设备会持续上报该状态
		if d.stacker == StackerPresent {
			d.stacker = StackerPulled
			d.logger.Error("钞箱被取出")
			return DispatchResult{
				Event:   &BillEvent{Type: EventStackerRemoved, Raw: frame.Raw},
				SendAck: true,
			}
		}
		return DispatchResult{SendAck: true}

	case StatusJamInStacker:
		// 卡钞在物理排除前每次轮询都会上报，事件不去重
		d.logger.Error("钞箱卡钞")
		return DispatchResult{
			Event:   &BillEvent{Type: EventJam, Reason: "Bill jam in stacker", Raw: frame.Raw},
			SendAck: true,
		}

	case StatusJamInAcceptor:
		d.logger.Error("入钞口卡钞")
		return DispatchResult{
			Event:   &BillEvent{Type: EventJam, Reason: "Bill jam in acceptor", Raw: frame.Raw},
			SendAck: true,
		}

	case StatusFailure:
		msg := FailureMessage(frame.Payload)
		d.logger.Error("设备故障", zap.String("failure", msg))
		return DispatchResult{
			Event:   &BillEvent{Type: EventDeviceError, Reason: msg, Raw: frame.Raw},
			SendAck: true,
		}

	case StatusRejected:
		reason := RejectReason(frame.Payload)
		d.logger.Warn("纸币被退回", zap.String("reason", reason))
		return DispatchResult{
			Event:   &BillEvent{Type: EventRejected, Reason: reason, Raw: frame.Raw},
			SendAck: true,
		}

	case StatusBillStacked:
		denom, ok := DenominationFromCode(frame.Payload)
		if !ok {
			// 未知面额照样上报事件，但不记账
			d.logger.Warn("收到未知面额", zap.String("code", fmt.Sprintf("0x%02X", frame.Payload)))
			return DispatchResult{
				Event: &BillEvent{
					Type:   EventDeviceError,
					Reason: fmt.Sprintf("Unknown nominal: 0x%02X", frame.Payload),
					Raw:    frame.Raw,
				},
				SendAck: true,
			}
		}
		d.logger.Info("纸币已入钞箱", zap.Int("denomination", denom.Value()))
		return DispatchResult{
			Event:   &BillEvent{Type: EventAccepted, Denomination: denom, Raw: frame.Raw},
			SendAck: true,
		}

	default:
		// 未知状态不回ACK，设备会重发，这正是预期的恢复路径
		d.logger.Warn("未知状态码",
			zap.String("status", fmt.Sprintf("0x%02X", frame.Status)),
			zap.String("raw", fmt.Sprintf("%02X", frame.Raw)))
		return DispatchResult{}
	}
}
