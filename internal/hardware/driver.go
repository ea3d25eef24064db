package hardware

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/cash-acceptor/internal/config"
	"github.com/wfunc/cash-acceptor/internal/errors"
	"github.com/wfunc/cash-acceptor/internal/logger"
	"go.uber.org/zap"
)

// Ledger 面额账本写入口
// 由repository实现，收钞事件落账失败不会中断轮询循环
type Ledger interface {
	RecordAccepted(ctx context.Context, denom Denomination) error
}

// Driver 纸币器驱动
// 单独goroutine独占串口和协议状态，外部只通过两个通道交互:
// 控制命令进（多生产者），纸币事件出（单消费者）
type Driver struct {
	cfg        *config.AcceptorConfig
	transport  Transport
	dispatcher *Dispatcher
	ledger     Ledger
	logger     *zap.Logger

	commands chan AcceptorCommand
	events   chan BillEvent

	enabled   atomic.Bool
	running   atomic.Bool
	stopChan  chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDriver 创建驱动
// transport必须已打开，ledger必须已完成初始化（两者失败都是致命错误，
// 应在调用方阻止驱动启动）
func NewDriver(cfg *config.AcceptorConfig, transport Transport, ledger Ledger) *Driver {
	return &Driver{
		cfg:        cfg,
		transport:  transport,
		dispatcher: NewDispatcher(),
		ledger:     ledger,
		logger:     logger.GetModuleLogger("acceptor"),
		commands:   make(chan AcceptorCommand, cfg.CommandBuffer),
		events:     make(chan BillEvent, cfg.EventBuffer),
		stopChan:   make(chan struct{}),
	}
}

// Events 纸币事件通道
// 消费者按自己的节奏取事件，驱动从不阻塞等待消费者
func (d *Driver) Events() <-chan BillEvent {
	return d.events
}

// Enable 请求开始收钞（非阻塞入队）
func (d *Driver) Enable() error {
	return d.submit(CommandEnable)
}

// Disable 请求停止收钞（非阻塞入队）
func (d *Driver) Disable() error {
	return d.submit(CommandDisable)
}

// IsEnabled 当前是否处于收钞状态
func (d *Driver) IsEnabled() bool {
	return d.enabled.Load()
}

// IsRunning 轮询循环是否在运行
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// StackerRemoved 钞箱当前是否被取出
func (d *Driver) StackerRemoved() bool {
	return d.dispatcher.StackerState() == StackerPulled
}

// submit 命令入队，队列满时报错而不阻塞调用方
func (d *Driver) submit(cmd AcceptorCommand) error {
	select {
	case d.commands <- cmd:
		return nil
	default:
		return errors.Newf(errors.ErrDeviceBusy, "command queue full, dropped %s", cmd)
	}
}

// Start 启动驱动循环
func (d *Driver) Start() error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrDeviceBusy, "driver already running")
	}

	d.wg.Add(1)
	go d.run()
	return nil
}

// Stop 停止驱动循环并等待退出
// 循环退出后关闭事件通道，消费者的range循环随之结束
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.wg.Wait()

	d.closeOnce.Do(func() {
		close(d.events)
	})

	if err := d.transport.Close(); err != nil {
		d.logger.Warn("关闭串口失败", zap.Error(err))
	}
}

// run 驱动主循环
func (d *Driver) run() {
	defer d.wg.Done()
	defer d.running.Store(false)

	d.logger.Info("纸币器驱动启动，开始复位")

	// 启动序列: 复位 → 等设备重新初始化 → 丢弃前两次轮询结果
	// （第一次吃掉INITIALIZING，第二次吃掉首个DISABLED），
	// 之后保持禁用，等外部Enable命令
	if err := d.reset(); err != nil {
		d.logger.Error("复位失败", zap.Error(err))
	}
	if !d.sleep(d.cfg.ResetSettle) {
		return
	}

	for i := 0; i < 2; i++ {
		if _, err := d.pollCycle(true); err != nil {
			d.logger.Error("初始化轮询失败", zap.Error(err))
		}
		if !d.sleep(d.cfg.InitSettle) {
			return
		}
	}

	d.logger.Info("纸币器初始化完成，等待使能命令")

	for {
		select {
		case <-d.stopChan:
			d.logger.Info("纸币器驱动停止")
			return
		default:
		}

		d.drainCommands()

		event, err := d.pollCycle(false)
		if err != nil {
			// 轮询中的I/O错误只记录并退避，循环永不因此退出
			d.logger.Error("轮询失败", zap.Error(err))
			if !d.sleep(d.cfg.ErrorBackoff) {
				return
			}
			continue
		}

		if event != nil {
			d.emit(*event)
		}

		if !d.sleep(d.cfg.PollInterval) {
			return
		}
	}
}

// drainCommands 处理所有待执行的控制命令
// 命令执行失败只记录日志，不向上传播
func (d *Driver) drainCommands() {
	for {
		select {
		case cmd := <-d.commands:
			switch cmd {
			case CommandEnable:
				if err := d.enable(); err != nil {
					d.logger.Error("使能收钞失败", zap.Error(err))
				} else {
					d.logger.Info("收钞已使能")
				}
			case CommandDisable:
				if err := d.disable(); err != nil {
					d.logger.Error("禁用收钞失败", zap.Error(err))
				} else {
					d.logger.Info("收钞已禁用")
				}
			}
		default:
			return
		}
	}
}

// pollCycle 一个完整的轮询周期: 发POLL → 读响应 → 解码 → 分发 → 回ACK
// discard为true时（启动阶段）丢弃产生的事件
func (d *Driver) pollCycle(discard bool) (*BillEvent, error) {
	if err := d.sendCommand(cmdPoll); err != nil {
		return nil, err
	}

	buf, err := d.readResponse()
	if err != nil {
		return nil, err
	}

	frame, ok := Decode(buf)
	if !ok {
		// 没有可用帧是正常结果；残缺帧不回ACK，等设备重发
		if len(buf) > 0 && (buf[0] != 0x02 || len(buf) < 2 || buf[1] != 0x03) {
			d.logger.Debug("收到无法识别的数据", zap.String("raw", fmt.Sprintf("%02X", buf)))
		}
		return nil, nil
	}

	result := d.dispatcher.Dispatch(frame)

	if result.SendAck {
		if err := d.transport.Send(cmdAck); err != nil {
			return nil, err
		}
		if err := d.transport.Drain(); err != nil {
			return nil, err
		}
	}

	// 钞箱放回后延迟一段时间再重新使能，给设备留出稳定时间
	if result.ReEnable {
		if !d.sleep(d.cfg.ReEnableDelay) {
			return nil, nil
		}
		if err := d.enable(); err != nil {
			d.logger.Error("钞箱放回后重新使能失败", zap.Error(err))
		}
	}

	if result.Event == nil || discard {
		return nil, nil
	}

	// 收钞事件先落账再上报；落账失败只记录差异，事件照常发出
	if result.Event.Type == EventAccepted {
		if err := d.ledger.RecordAccepted(context.Background(), result.Event.Denomination); err != nil {
			d.logger.Error("收钞计数落账失败，账面与事件流存在差异待对账",
				zap.Int("denomination", result.Event.Denomination.Value()),
				zap.Error(err))
		}
	}

	return result.Event, nil
}

// reset 发送复位命令
func (d *Driver) reset() error {
	d.logger.Info("复位纸币器...")
	return d.controlExchange(cmdReset)
}

// enable 发送使能命令
func (d *Driver) enable() error {
	if err := d.controlExchange(cmdEnable); err != nil {
		return err
	}
	d.enabled.Store(true)
	return nil
}

// disable 发送禁用命令
func (d *Driver) disable() error {
	if err := d.controlExchange(cmdDisable); err != nil {
		return err
	}
	d.enabled.Store(false)
	return nil
}

// controlExchange 发送控制命令并确认ACK
// 设备没有按预期回ACK时，主动回一个ACK并清空缓冲，让设备回到已知状态
func (d *Driver) controlExchange(cmd []byte) error {
	if err := d.sendCommand(cmd); err != nil {
		return err
	}

	buf, err := d.readResponse()
	if err != nil {
		return err
	}

	if IsAck(buf) {
		return d.transport.Drain()
	}

	d.logger.Warn("控制命令响应异常", zap.String("raw", fmt.Sprintf("%02X", buf)))
	if err := d.transport.Send(cmdAck); err != nil {
		return err
	}
	return d.transport.Drain()
}

// sendCommand 写命令并等待设备处理
// 每次写之后必须停一小段时间再去读响应，这是硬件的时序要求
func (d *Driver) sendCommand(cmd []byte) error {
	if err := d.transport.Send(cmd); err != nil {
		return err
	}
	d.sleep(d.cfg.WriteSettle)
	return nil
}

// readResponse 等一小段时间让响应到齐，再读走缓冲区内容
func (d *Driver) readResponse() ([]byte, error) {
	d.sleep(d.cfg.ReadDelay)
	return d.transport.ReadAvailable()
}

// emit 非阻塞发出事件
// 事件缓冲满说明消费者跟不上，丢弃并记录，绝不阻塞轮询
func (d *Driver) emit(event BillEvent) {
	select {
	case d.events <- event:
	default:
		d.logger.Error("事件缓冲已满，事件被丢弃",
			zap.String("type", string(event.Type)))
	}
}

// sleep 可被停止信号打断的休眠，返回false表示收到停止信号
func (d *Driver) sleep(dur time.Duration) bool {
	if dur <= 0 {
		return true
	}
	select {
	case <-time.After(dur):
		return true
	case <-d.stopChan:
		return false
	}
}
