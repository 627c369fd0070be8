package agent

import (
	"strconv"
	"strings"
)

// confidencePrefix 生成文本的置信度标记前缀
const confidencePrefix = "CONF:"

// DefaultConfidence 缺少置信度标记时的默认值
const DefaultConfidence = 0.9

// segmentDelimiter 多段回复的分隔符
const segmentDelimiter = "|||"

// ParsedResponse 解析后的生成结果
type ParsedResponse struct {
	// Confidence 模型自报的置信度 [0,1]
	Confidence float64
	// Flagged 置信度标记存在但无法解析
	Flagged bool
	// Segments 拆分后的出站消息段，已去空白、去空段
	Segments []string
}

// ParseResponse 解析生成服务返回的原始文本
// 可选首行 "CONF:<float>" 标记置信度，其余按 ||| 拆成多段
func ParseResponse(raw string) ParsedResponse {
	parsed := ParsedResponse{Confidence: DefaultConfidence}
	body := strings.TrimSpace(raw)

	if strings.HasPrefix(body, confidencePrefix) {
		line := body
		rest := ""
		if idx := strings.IndexByte(body, '\n'); idx >= 0 {
			line = body[:idx]
			rest = body[idx+1:]
		} else {
			rest = ""
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, confidencePrefix))
		conf, err := strconv.ParseFloat(value, 64)
		if err != nil {
			parsed.Flagged = true
		} else {
			parsed.Confidence = clampConfidence(conf)
		}
		body = rest
	}

	for _, segment := range strings.Split(body, segmentDelimiter) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		parsed.Segments = append(parsed.Segments, segment)
	}
	return parsed
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
