package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 确保 Client 实现了 rag.Embedder 接口
var _ domainRAG.Embedder = (*Client)(nil)

// Client Embedding API 客户端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(cfg *config.EmbeddingConfig) domainRAG.Embedder {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.NewModuleLogger("embedding", "client"),
	}
}

// buildEmbeddingURL 构建 Embedding API URL
// 兼容 baseURL 已含 /v1 或完整路径的情况
func buildEmbeddingURL(baseURL string) string {
	if strings.Contains(baseURL, "/v1/embeddings") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/embeddings"
	}
	return fmt.Sprintf("%s/v1/embeddings", baseURL)
}

// embeddingRequest Embedding 请求
// Dimensions 固定请求 768 维，保持与已入库向量一致
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse Embedding 响应
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedText 向量化单条文本
func (c *Client) EmbedText(text string) ([]float32, error) {
	vectors, err := c.EmbedTexts([]string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts 批量向量化文本
func (c *Client) EmbedTexts(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &domainRAG.EmbeddingError{
			Kind: domainRAG.EmbeddingKindNoContent,
			Err:  fmt.Errorf("texts cannot be empty"),
		}
	}
	if c.apiKey == "" {
		return nil, &domainRAG.EmbeddingError{
			Kind: domainRAG.EmbeddingKindNoCredentials,
			Err:  fmt.Errorf("embedding API key not configured"),
		}
	}

	// OpenAI embeddings API 批量限制
	const maxBatchSize = 2048

	allVectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := c.embedBatch(texts[i:end])
		if err != nil {
			return nil, err
		}
		allVectors = append(allVectors, vectors...)
	}
	return allVectors, nil
}

// embedBatch 处理单个批次，带重试
func (c *Client) embedBatch(texts []string) ([][]float32, error) {
	const maxRetries = 3

	jsonData, err := json.Marshal(embeddingRequest{
		Model:      c.model,
		Input:      texts,
		Dimensions: domainRAG.EmbeddingDim,
	})
	if err != nil {
		return nil, &domainRAG.EmbeddingError{Kind: domainRAG.EmbeddingKindHTTP, Err: err}
	}

	url := buildEmbeddingURL(c.baseURL)
	c.logger.Debug("Sending embedding request",
		"url", url,
		"batch_size", len(texts),
		"model", c.model,
	)

	var resp *http.Response
	var lastErr error
	for retry := 0; retry < maxRetries; retry++ {
		req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, &domainRAG.EmbeddingError{Kind: domainRAG.EmbeddingKindHTTP, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
			resp = nil
		}
		c.logger.Warn("Embedding request failed, retrying",
			"attempt", retry+1,
			"max_retries", maxRetries,
			"error", lastErr,
		)
		if retry < maxRetries-1 {
			time.Sleep(time.Duration(retry+1) * time.Second)
		}
	}
	if resp == nil {
		return nil, &domainRAG.EmbeddingError{Kind: domainRAG.EmbeddingKindHTTP, Err: lastErr}
	}
	defer resp.Body.Close()

	var embResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, &domainRAG.EmbeddingError{Kind: domainRAG.EmbeddingKindNoContent, Err: err}
	}
	if len(embResp.Data) != len(texts) {
		return nil, &domainRAG.EmbeddingError{
			Kind: domainRAG.EmbeddingKindNoContent,
			Err:  fmt.Errorf("got %d embeddings for %d texts", len(embResp.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(embResp.Data))
	for _, data := range embResp.Data {
		if len(data.Embedding) != domainRAG.EmbeddingDim {
			return nil, &domainRAG.EmbeddingError{
				Kind: domainRAG.EmbeddingKindNoContent,
				Err:  fmt.Errorf("embedding dimension %d, want %d", len(data.Embedding), domainRAG.EmbeddingDim),
			}
		}
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, &domainRAG.EmbeddingError{
				Kind: domainRAG.EmbeddingKindNoContent,
				Err:  fmt.Errorf("embedding index %d out of range", data.Index),
			}
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}
