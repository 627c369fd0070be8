package agent

import (
	"fmt"
	"strings"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
)

// aiDisclosurePhrases 泄露助手身份的短语黑名单
// 任何一条出现在原始回复里都视为破坏人设，触发 defer
var aiDisclosurePhrases = []string{
	"as an ai",
	"as a language model",
	"i'm an ai",
	"i am an ai",
	"i'm a language model",
	"i am a language model",
	"ai assistant",
	"virtual assistant",
	"i'm a bot",
	"i am a bot",
	"i cannot assist with",
	"i can't assist with",
	"how can i assist you",
}

// GateInput 消息前置门控的输入快照
// RecentOutgoing 惰性求值：前面的门已拒绝时不触发消息库查询
type GateInput struct {
	Message          *message.Message
	Mode             domainAgent.Mode
	Settings         *domainAgent.Settings
	ContactPolicy    domainAgent.ContactPolicy
	HasContactPolicy bool
	Now              time.Time
	RecentOutgoing   func() bool
}

// EvaluateIncoming 生成前门控
// 判断是否值得为这条消息调用模型，规则按固定顺序短路
func EvaluateIncoming(in GateInput) domainAgent.Decision {
	msg := in.Message

	if msg.IsFromMe {
		return domainAgent.Skip("self-authored message")
	}
	if msg.IsGroup {
		return domainAgent.Skip("group conversation")
	}
	if !in.Mode.IsPolling() {
		return domainAgent.Skip(fmt.Sprintf("agent mode is %s", in.Mode))
	}
	if !in.Settings.ActiveHours.Contains(in.Now) {
		return domainAgent.Skip("outside active hours")
	}
	if in.HasContactPolicy {
		switch in.ContactPolicy {
		case domainAgent.PolicyBlacklist:
			return domainAgent.Skip("contact is blacklisted")
		case domainAgent.PolicyWhitelist:
			// 仅白名单不代表参与，需显式 active/shadow_only
			return domainAgent.Skip("contact is whitelisted but not enrolled")
		}
	}
	if in.RecentOutgoing != nil && in.RecentOutgoing() {
		return domainAgent.Defer("user replied recently, backing off")
	}
	if word, hit := matchKillWord(msg.Text, in.Settings.KillWords); hit {
		return domainAgent.Kill(fmt.Sprintf("kill word %q received", word))
	}
	return domainAgent.Proceed()
}

// EvaluateResponse 生成后门控
// 置信度由模型自报，必须独立复核后才允许发送
func EvaluateResponse(parsed ParsedResponse, raw string, threshold float64) domainAgent.Decision {
	if parsed.Flagged {
		return domainAgent.Defer("response flagged: unparseable confidence marker")
	}
	if parsed.Confidence < threshold {
		return domainAgent.Defer(fmt.Sprintf("confidence %.2f below threshold %.2f", parsed.Confidence, threshold))
	}
	if len(parsed.Segments) == 0 {
		return domainAgent.Skip("response contains no sendable segments")
	}
	lowered := strings.ToLower(raw)
	for _, phrase := range aiDisclosurePhrases {
		if strings.Contains(lowered, phrase) {
			return domainAgent.Defer(fmt.Sprintf("response leaked assistant language: %q", phrase))
		}
	}
	return domainAgent.Proceed()
}

func matchKillWord(text string, killWords []string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, word := range killWords {
		if word == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(word)) {
			return word, true
		}
	}
	return "", false
}
