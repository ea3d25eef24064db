package hardware

import (
	"io"

	"github.com/tarm/serial"
	"github.com/wfunc/cash-acceptor/internal/config"
	"github.com/wfunc/cash-acceptor/internal/errors"
	"github.com/wfunc/cash-acceptor/internal/logger"
	"go.uber.org/zap"
)

// Transport 串口传输层接口
// 由驱动循环独占持有，只允许一个goroutine读写
type Transport interface {
	// Send 写入全部字节
	Send(p []byte) error
	// ReadAvailable 读取当前已缓冲的字节，没有数据时返回空切片
	ReadAvailable() ([]byte, error)
	// Drain 丢弃当前已缓冲的字节
	Drain() error
	// Close 关闭串口
	Close() error
}

// serialTransport 基于tarm/serial的传输层实现
type serialTransport struct {
	port   *serial.Port
	logger *zap.Logger
}

// OpenTransport 打开串口
// 打开失败是致命错误，驱动不会启动
func OpenTransport(cfg *config.AcceptorConfig) (Transport, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSerialPortOpen, "port=%s baud=%d", cfg.Port, cfg.BaudRate)
	}

	logger.GetModuleLogger("acceptor").Info("串口已打开",
		zap.String("port", cfg.Port),
		zap.Int("baud_rate", cfg.BaudRate))

	return &serialTransport{
		port:   port,
		logger: logger.GetModuleLogger("acceptor"),
	}, nil
}

// Send 写入全部字节
func (t *serialTransport) Send(p []byte) error {
	n, err := t.port.Write(p)
	if err != nil {
		return errors.Wrap(err, errors.ErrSerialPortWrite)
	}
	if n != len(p) {
		return errors.Newf(errors.ErrSerialPortWrite, "short write: %d/%d", n, len(p))
	}
	return nil
}

// ReadAvailable 读取当前已缓冲的字节
// 串口配置了短读超时，超时前到达多少就返回多少；
// 超时返回空切片，不算错误
func (t *serialTransport) ReadAvailable() ([]byte, error) {
	buf := make([]byte, 256)
	n, err := t.port.Read(buf)
	if err != nil {
		// 读超时时tarm/serial返回io.EOF
		if err == io.EOF {
			return buf[:n], nil
		}
		return nil, errors.Wrap(err, errors.ErrSerialPortRead)
	}
	return buf[:n], nil
}

// Drain 丢弃已缓冲的字节
func (t *serialTransport) Drain() error {
	if err := t.port.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrSerialPortRead)
	}
	return nil
}

// Close 关闭串口
func (t *serialTransport) Close() error {
	return t.port.Close()
}
