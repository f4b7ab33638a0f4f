package model

import (
	"sync"
	"time"
)

// 轨迹事件类型
const (
	EventStart = "start"
	EventInfo  = "info"
	EventWarn  = "warn"
	EventError = "error"
	EventDone  = "done"
)

// ProgressEvent 执行轨迹中的一步
type ProgressEvent struct {
	Type      string    `json:"type"`           // start/info/warn/error/done
	Message   string    `json:"message"`        // 事件消息
	Data      any       `json:"data,omitempty"` // 附加数据
	Timestamp time.Time `json:"timestamp"`      // 时间戳
}

// Trace 一次生成的执行轨迹，可选地把事件实时转发给订阅者
type Trace struct {
	mu     sync.Mutex
	events []ProgressEvent
	notify func(ProgressEvent)
	now    func() time.Time
}

// NewTrace 创建轨迹；notify 可为 nil
func NewTrace(notify func(ProgressEvent)) *Trace {
	return &Trace{notify: notify, now: time.Now}
}

// Add 追加事件
func (t *Trace) Add(typ, message string, data any) {
	if t == nil {
		return
	}
	ev := ProgressEvent{Type: typ, Message: message, Data: data, Timestamp: t.now()}
	t.mu.Lock()
	t.events = append(t.events, ev)
	notify := t.notify
	t.mu.Unlock()
	if notify != nil {
		notify(ev)
	}
}

// Events 按发生顺序返回事件副本
func (t *Trace) Events() []ProgressEvent {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ProgressEvent(nil), t.events...)
}

// Lines 事件消息列表（CLI / 纯文本展示）
func (t *Trace) Lines() []string {
	events := t.Events()
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, ev.Message)
	}
	return lines
}
