// Package llm talks to the language model that writes the narrative parts
// of a report.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse 模型返回了空内容
var ErrEmptyResponse = errors.New("model returned empty response")

// ErrDisabled 配置中关闭了模型调用
var ErrDisabled = errors.New("model call disabled")

// Client 对话模型
type Client interface {
	// Chat 发送一轮系统提示 + 用户消息，返回助手回复文本
	Chat(ctx context.Context, system, user string) (string, error)
	// Name 形如 ollama:qwen3:14b
	Name() string
}

// Disabled 不调用模型，Chat 总是返回 ErrDisabled
type Disabled struct{}

// Chat implements Client.
func (Disabled) Chat(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// Name implements Client.
func (Disabled) Name() string { return "disabled" }
