package rag

import "fmt"

// Embedder 文本向量化接口
type Embedder interface {
	// EmbedTexts 批量向量化，返回与输入等长的向量列表
	EmbedTexts(texts []string) ([][]float32, error)
	// EmbedText 向量化单条文本
	EmbedText(text string) ([]float32, error)
}

// EmbeddingErrorKind 向量化错误类别
type EmbeddingErrorKind string

const (
	// EmbeddingKindNoCredentials 缺少 API 凭证
	EmbeddingKindNoCredentials EmbeddingErrorKind = "no_credentials"
	// EmbeddingKindHTTP 请求失败或非 200 响应
	EmbeddingKindHTTP EmbeddingErrorKind = "http_error"
	// EmbeddingKindNoContent 响应缺少向量数据
	EmbeddingKindNoContent EmbeddingErrorKind = "no_content"
)

// EmbeddingError 向量化失败错误
type EmbeddingError struct {
	Kind EmbeddingErrorKind
	Err  error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Kind, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
