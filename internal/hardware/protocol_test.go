package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ShortBuffer(t *testing.T) {
	// 不足4字节的缓冲区都不算帧，也不算错误
	cases := [][]byte{
		nil,
		{},
		{0x02},
		{0x02, 0x03},
		{0x02, 0x03, 0x06},
	}

	for _, buf := range cases {
		_, ok := Decode(buf)
		assert.False(t, ok, "buf=%02X", buf)
	}
}

func TestDecode_BadHeader(t *testing.T) {
	_, ok := Decode([]byte{0xAA, 0x55, 0x06, 0x14, 0x00, 0x00})
	assert.False(t, ok)

	_, ok = Decode([]byte{0x02, 0x04, 0x06, 0x14, 0x00, 0x00})
	assert.False(t, ok)
}

func TestDecode_StatusFrame(t *testing.T) {
	frame, ok := Decode([]byte{0x02, 0x03, 0x06, StatusIdling, 0x00, 0x00})
	require.True(t, ok)
	assert.Equal(t, StatusIdling, frame.Status)
	assert.Equal(t, byte(0x06), frame.Length)
	assert.False(t, frame.HasPayload)
}

func TestDecode_PayloadStatuses(t *testing.T) {
	// FAILURE/REJECTED/BILL_STACKED要求第5字节
	for _, status := range []byte{StatusFailure, StatusRejected, StatusBillStacked} {
		// 缺少附加字节 → 无帧（此时不回ACK，等设备重发）
		_, ok := Decode([]byte{0x02, 0x03, 0x06, status})
		assert.False(t, ok, "status=0x%02X", status)

		// 附加字节齐全
		frame, ok := Decode([]byte{0x02, 0x03, 0x06, status, 0x42, 0x00, 0x00})
		require.True(t, ok, "status=0x%02X", status)
		assert.True(t, frame.HasPayload)
		assert.Equal(t, byte(0x42), frame.Payload)
	}
}

func TestDenominationFromCode(t *testing.T) {
	// 5个已知编码一一对应，无冲突
	expected := map[byte]Denomination{
		0x00: Denom1000,
		0x01: Denom5000,
		0x02: Denom10000,
		0x03: Denom20000,
		0x0C: Denom2000,
	}

	seen := make(map[Denomination]bool)
	for code, want := range expected {
		got, ok := DenominationFromCode(code)
		require.True(t, ok, "code=0x%02X", code)
		assert.Equal(t, want, got)
		assert.False(t, seen[got], "面额冲突: %v", got)
		seen[got] = true
	}

	// 其余任何字节都是未知面额
	for code := 0; code < 256; code++ {
		if _, known := expected[byte(code)]; known {
			continue
		}
		_, ok := DenominationFromCode(byte(code))
		assert.False(t, ok, "code=0x%02X", code)
	}
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "Insertion error", RejectReason(0x60))
	assert.Equal(t, "Conveying error", RejectReason(0x64))
	assert.Equal(t, "Identification error", RejectReason(0x65))
	assert.Equal(t, "Verification error", RejectReason(0x66))
	assert.Equal(t, "Denomination inhibited", RejectReason(0x68))
	assert.Equal(t, "Capacity error", RejectReason(0x69))
	assert.Equal(t, "Operation error", RejectReason(0x6A))

	// 未知退钞码走兜底描述
	assert.Equal(t, "Unknown error", RejectReason(0x00))
	assert.Equal(t, "Unknown error", RejectReason(0xFF))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "FAILURE 55", FailureMessage(0x55))
	assert.Equal(t, "FAILURE 0xAB", FailureMessage(0xAB))
	assert.Equal(t, "FAILURE 0x01", FailureMessage(0x01))
}

func TestIsAck(t *testing.T) {
	assert.True(t, IsAck([]byte{0x02, 0x03, 0x06, 0x00, 0xC2, 0x82}))
	assert.False(t, IsAck([]byte{0x02, 0x03, 0x06, 0x00, 0xC2}))
	assert.False(t, IsAck(cmdPoll))
	assert.False(t, IsAck(nil))
}

func TestCommandFrames(t *testing.T) {
	// 协议命令是固定字节序列，校验和已预先算好
	assert.Equal(t, []byte{0x02, 0x03, 0x06, 0x33, 0xDA, 0x81}, cmdPoll)
	assert.Equal(t, []byte{0x02, 0x03, 0x06, 0x30, 0x41, 0xB3}, cmdReset)
	assert.Equal(t, []byte{0x02, 0x03, 0x0C, 0x34, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0xB5, 0xC1}, cmdEnable)
	assert.Equal(t, []byte{0x02, 0x03, 0x0C, 0x34, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xB5, 0xC1}, cmdDisable)
}
