package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameWith(status byte, payload ...byte) Frame {
	raw := []byte{0x02, 0x03, 0x06, status}
	raw = append(raw, payload...)
	frame, ok := Decode(raw)
	if !ok {
		panic("测试帧解码失败")
	}
	return frame
}

func TestDispatch_PlainStatuses(t *testing.T) {
	d := NewDispatcher()

	// 普通状态: 回ACK，无事件，无子状态变化
	for _, status := range []byte{StatusInitializing, StatusIdling, StatusAccepting, StatusStacking} {
		result := d.Dispatch(frameWith(status))
		assert.True(t, result.SendAck, "status=0x%02X", status)
		assert.Nil(t, result.Event, "status=0x%02X", status)
		assert.False(t, result.ReEnable, "status=0x%02X", status)
	}
	assert.Equal(t, StackerPresent, d.StackerState())
}

func TestDispatch_StackerRemovedDeduplicated(t *testing.T) {
	d := NewDispatcher()

	// 第一次上报: 翻转沿，发事件
	result := d.Dispatch(frameWith(StatusStackerRemoved))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventStackerRemoved, result.Event.Type)
	assert.Equal(t, StackerPulled, d.StackerState())

	// 设备持续上报同一状态: 只回ACK，不再发事件
	for i := 0; i < 5; i++ {
		result = d.Dispatch(frameWith(StatusStackerRemoved))
		assert.True(t, result.SendAck)
		assert.Nil(t, result.Event, "第%d次重复上报不应产生事件", i+2)
	}
}

func TestDispatch_StackerReplaced(t *testing.T) {
	d := NewDispatcher()

	// 钞箱先被取出
	d.Dispatch(frameWith(StatusStackerRemoved))
	require.Equal(t, StackerPulled, d.StackerState())

	// DISABLED到来说明钞箱放回: 发一次事件并要求重新使能
	result := d.Dispatch(frameWith(StatusDisabled))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventStackerReplaced, result.Event.Type)
	assert.True(t, result.ReEnable)
	assert.Equal(t, StackerPresent, d.StackerState())

	// 紧接着的DISABLED不再产生事件
	result = d.Dispatch(frameWith(StatusDisabled))
	assert.True(t, result.SendAck)
	assert.Nil(t, result.Event)
	assert.False(t, result.ReEnable)
}

func TestDispatch_JamRepeatsEveryPoll(t *testing.T) {
	d := NewDispatcher()

	// 卡钞在排除前每次轮询都上报事件，不去重
	for i := 0; i < 3; i++ {
		result := d.Dispatch(frameWith(StatusJamInStacker))
		require.NotNil(t, result.Event)
		assert.Equal(t, EventJam, result.Event.Type)
		assert.Equal(t, "Bill jam in stacker", result.Event.Reason)
	}

	result := d.Dispatch(frameWith(StatusJamInAcceptor))
	require.NotNil(t, result.Event)
	assert.Equal(t, EventJam, result.Event.Type)
	assert.Equal(t, "Bill jam in acceptor", result.Event.Reason)
}

func TestDispatch_Failure(t *testing.T) {
	d := NewDispatcher()

	result := d.Dispatch(frameWith(StatusFailure, 0x55))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventDeviceError, result.Event.Type)
	assert.Equal(t, "FAILURE 55", result.Event.Reason)

	result = d.Dispatch(frameWith(StatusFailure, 0xAB))
	require.NotNil(t, result.Event)
	assert.Equal(t, "FAILURE 0xAB", result.Event.Reason)
}

func TestDispatch_Rejected(t *testing.T) {
	d := NewDispatcher()

	result := d.Dispatch(frameWith(StatusRejected, 0x60))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventRejected, result.Event.Type)
	assert.Equal(t, "Insertion error", result.Event.Reason)

	result = d.Dispatch(frameWith(StatusRejected, 0xEE))
	require.NotNil(t, result.Event)
	assert.Equal(t, "Unknown error", result.Event.Reason)
}

func TestDispatch_BillStacked(t *testing.T) {
	d := NewDispatcher()

	// 已知面额 → accepted事件
	result := d.Dispatch(frameWith(StatusBillStacked, 0x01))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventAccepted, result.Event.Type)
	assert.Equal(t, Denom5000, result.Event.Denomination)

	// 未知面额 → device_error事件，不记账
	result = d.Dispatch(frameWith(StatusBillStacked, 0x7F))
	assert.True(t, result.SendAck)
	require.NotNil(t, result.Event)
	assert.Equal(t, EventDeviceError, result.Event.Type)
	assert.Equal(t, "Unknown nominal: 0x7F", result.Event.Reason)
}

func TestDispatch_UnknownStatus(t *testing.T) {
	d := NewDispatcher()

	// 未知状态码不回ACK，让设备重发
	result := d.Dispatch(frameWith(0xEE))
	assert.False(t, result.SendAck)
	assert.Nil(t, result.Event)
	assert.False(t, result.ReEnable)
}
