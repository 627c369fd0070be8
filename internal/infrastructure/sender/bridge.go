package sender

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/petersenmatthew/MEI/internal/domain/message"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 确保 BridgeSender 实现了 message.Sender 接口
var _ message.Sender = (*BridgeSender)(nil)

// BridgeSender 本地发送桥客户端
// 实际投递由宿主机上的桥接进程完成，这里只负责转发
type BridgeSender struct {
	bridgeURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBridgeSender 创建发送桥客户端
func NewBridgeSender(cfg *config.SenderConfig) message.Sender {
	return &BridgeSender{
		bridgeURL:  strings.TrimSuffix(cfg.BridgeURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log.NewModuleLogger("sender", "bridge"),
	}
}

// sendRequest 发送桥请求
type sendRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Send 向指定会话发送一条消息
func (s *BridgeSender) Send(conversationID, text string) error {
	jsonData, err := json.Marshal(sendRequest{Recipient: conversationID, Text: text})
	if err != nil {
		return &message.SendError{ConversationID: conversationID, Err: err}
	}

	resp, err := s.httpClient.Post(
		s.bridgeURL+"/send", "application/json", bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return &message.SendError{ConversationID: conversationID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &message.SendError{
			ConversationID: conversationID,
			Err:            fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	s.logger.Info("message sent", "conversation_id", conversationID, "length", len(text))
	return nil
}
