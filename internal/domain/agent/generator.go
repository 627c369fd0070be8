package agent

import "fmt"

// Turn 对话轮次
// Role 取 "user" 或 "assistant"，提示组装保证严格交替
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator 回复生成接口
type Generator interface {
	// Generate 在系统指令与历史轮次的基础上，针对最后一条用户消息生成回复原文
	Generate(systemInstruction string, turns []Turn, finalMessage string) (string, error)
}

// GenerationErrorKind 生成错误类别
type GenerationErrorKind string

const (
	// GenerationKindNoCredentials 缺少 API 凭证
	GenerationKindNoCredentials GenerationErrorKind = "no_credentials"
	// GenerationKindHTTP 请求失败或超时
	GenerationKindHTTP GenerationErrorKind = "http_error"
	// GenerationKindAPI 服务端返回错误状态
	GenerationKindAPI GenerationErrorKind = "api_error"
	// GenerationKindNoContent 响应缺少生成文本
	GenerationKindNoContent GenerationErrorKind = "no_content"
)

// GenerationError 生成失败错误
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
