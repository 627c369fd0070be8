package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 确保 Client 实现了 agent.Generator 接口
var _ domainAgent.Generator = (*Client)(nil)

// Client 回复生成客户端（OpenAI 兼容 chat/completions）
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建生成客户端
func NewClient(cfg *config.LLMConfig) domainAgent.Generator {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.NewModuleLogger("llm", "client"),
	}
}

// buildChatURL 构建 chat/completions URL
func buildChatURL(baseURL string) string {
	if strings.Contains(baseURL, "/v1/chat/completions") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/chat/completions"
	}
	return fmt.Sprintf("%s/v1/chat/completions", baseURL)
}

// chatMessage 请求里的一条消息
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest chat/completions 请求
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatResponse chat/completions 响应
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate 生成回复原文
// 消息顺序：system 指令 → 历史轮次 → 最后一条用户消息
func (c *Client) Generate(systemInstruction string, turns []domainAgent.Turn, finalMessage string) (string, error) {
	if c.apiKey == "" {
		return "", &domainAgent.GenerationError{
			Kind: domainAgent.GenerationKindNoCredentials,
			Err:  fmt.Errorf("LLM API key not configured"),
		}
	}

	messages := make([]chatMessage, 0, len(turns)+2)
	messages = append(messages, chatMessage{Role: "system", Content: systemInstruction})
	for _, turn := range turns {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: finalMessage})

	jsonData, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", &domainAgent.GenerationError{Kind: domainAgent.GenerationKindHTTP, Err: err}
	}

	url := buildChatURL(c.baseURL)
	c.logger.Debug("Sending generation request",
		"url", url,
		"model", c.model,
		"message_count", len(messages),
	)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &domainAgent.GenerationError{Kind: domainAgent.GenerationKindHTTP, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domainAgent.GenerationError{Kind: domainAgent.GenerationKindHTTP, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &domainAgent.GenerationError{
			Kind: domainAgent.GenerationKindAPI,
			Err:  fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &domainAgent.GenerationError{Kind: domainAgent.GenerationKindNoContent, Err: err}
	}
	if chatResp.Error != nil {
		return "", &domainAgent.GenerationError{
			Kind: domainAgent.GenerationKindAPI,
			Err:  fmt.Errorf("API error: %s", chatResp.Error.Message),
		}
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &domainAgent.GenerationError{
			Kind: domainAgent.GenerationKindNoContent,
			Err:  fmt.Errorf("response has no content"),
		}
	}

	return chatResp.Choices[0].Message.Content, nil
}
