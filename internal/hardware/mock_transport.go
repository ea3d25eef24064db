package hardware

import (
	"sync"
)

// MockTransport 模拟传输层（用于测试和无硬件调试模式）
// 按脚本顺序返回预置响应: 对POLL返回下一个脚本帧，
// 对RESET/ENABLE/DISABLE返回ACK
type MockTransport struct {
	mu        sync.Mutex
	responses [][]byte // 待返回的POLL响应脚本
	pending   []byte   // 下一次ReadAvailable要返回的数据
	writes    [][]byte // 记录所有写入，测试断言用
	drains    int
	closed    bool
}

// NewMockTransport 创建模拟传输层
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Script 追加一个POLL响应帧
func (m *MockTransport) Script(frames ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, frames...)
}

// Writes 返回已记录的写入副本
func (m *MockTransport) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// DrainCount 返回Drain被调用的次数
func (m *MockTransport) DrainCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drains
}

// Send 记录写入并安排对应的响应
func (m *MockTransport) Send(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(p))
	copy(cp, p)
	m.writes = append(m.writes, cp)

	// ACK本身不需要响应
	if IsAck(p) {
		return nil
	}

	if len(p) > 3 && p[3] == cmdPoll[3] {
		// POLL: 弹出脚本里的下一帧，脚本耗尽时返回DISABLED
		if len(m.responses) > 0 {
			m.pending = m.responses[0]
			m.responses = m.responses[1:]
		} else {
			m.pending = []byte{0x02, 0x03, 0x06, StatusDisabled, 0x00, 0x00}
		}
		return nil
	}

	// RESET/ENABLE/DISABLE: 回ACK
	m.pending = append([]byte(nil), cmdAck...)
	return nil
}

// ReadAvailable 返回挂起的响应
func (m *MockTransport) ReadAvailable() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = nil
	if out == nil {
		return []byte{}, nil
	}
	return out, nil
}

// Drain 丢弃挂起的数据
func (m *MockTransport) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.drains++
	return nil
}

// Close 关闭
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
