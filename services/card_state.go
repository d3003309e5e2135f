package services

import "sync"

// CardState 分析卡片的生命周期状态。
// 状态流转：Idle → Analyzing → {Result, Error}；Result → Saving → {Saved, Error}。
// 同一卡片同时只允许一个 Analyzing 或 Saving 流转，重复请求直接拒绝而不是排队。
type CardState int

const (
	CardIdle CardState = iota
	CardAnalyzing
	CardResult
	CardSaving
	CardSaved
	CardError
)

// CardStateManager 按卡片维护分析状态，互斥锁保证单写入者
type CardStateManager struct {
	mu     sync.Mutex
	states map[string]CardState
}

func NewCardStateManager() *CardStateManager {
	return &CardStateManager{
		states: make(map[string]CardState),
	}
}

// State 返回卡片当前状态，未知卡片为 Idle
func (m *CardStateManager) State(cardID string) CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[cardID]
}

// BeginAnalyze 尝试进入 Analyzing 状态。
// 已有分析或保存在进行中时返回 ErrCardBusy。
func (m *CardStateManager) BeginAnalyze(cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.states[cardID] {
	case CardAnalyzing, CardSaving:
		return ErrCardBusy
	}
	m.states[cardID] = CardAnalyzing
	return nil
}

// FinishAnalyze 结束分析，成功进入 Result，失败进入 Error
func (m *CardStateManager) FinishAnalyze(cardID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.states[cardID] = CardResult
	} else {
		m.states[cardID] = CardError
	}
}

// BeginSave 尝试进入 Saving 状态。
// 只拒绝进行中的 Analyzing/Saving，Idle 和 Saved 也放行：
// 服务重启后卡片状态丢失，客户端重试保存时不能被挡在门外。
func (m *CardStateManager) BeginSave(cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.states[cardID] {
	case CardAnalyzing, CardSaving:
		return ErrCardBusy
	}
	m.states[cardID] = CardSaving
	return nil
}

// FinishSave 结束保存，成功进入 Saved，失败进入 Error
func (m *CardStateManager) FinishSave(cardID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.states[cardID] = CardSaved
	} else {
		m.states[cardID] = CardError
	}
}

// Reset 清除卡片状态（卡片关闭时调用）
func (m *CardStateManager) Reset(cardID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, cardID)
}
