package agent

import (
	"fmt"
	"strings"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/llm"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// ragTokenBudget 参考片段在系统指令里的 Token 预算
const ragTokenBudget = 2000

// placeholderUserTurn 首轮为助手侧时补插的占位用户轮
const placeholderUserTurn = "(start of conversation)"

// Prompt 组装好的生成请求
type Prompt struct {
	SystemInstruction string
	Turns             []domainAgent.Turn
	FinalMessage      string
}

// PromptBuilder 提示词组装器
// tiktoken 编码加载失败时退化为按字符数估算
type PromptBuilder struct {
	selfName string
	counter  *llm.TokenCounter
	now      func() time.Time
}

// NewPromptBuilder 创建提示词组装器
func NewPromptBuilder(chatCfg *config.ChatStoreConfig) *PromptBuilder {
	counter, err := llm.GetTokenCounter()
	if err != nil {
		log.NewModuleLogger("agent", "prompt").Warn("Tiktoken unavailable, falling back to character estimate", "error", err)
		counter = nil
	}
	return &PromptBuilder{
		selfName: chatCfg.SelfName,
		counter:  counter,
		now:      time.Now,
	}
}

// Build 组装一次生成调用的完整提示
// 任何输入缺失都降级而不失败：无画像用默认口吻，无片段省略参考段
func (p *PromptBuilder) Build(
	msg *message.Message,
	chunks []*domainRAG.Chunk,
	profile *domainAgent.StyleProfile,
	history []*message.Message,
	restrictedTopics []string,
) *Prompt {
	var system strings.Builder
	p.writePersona(&system, msg, profile)
	p.writeStyleRules(&system, profile)
	p.writeRestrictedTopics(&system, restrictedTopics, profile)
	p.writeReferenceChunks(&system, chunks)
	p.writeProtocol(&system)

	turns := buildTurns(history, msg)

	return &Prompt{
		SystemInstruction: system.String(),
		Turns:             turns,
		FinalMessage:      msg.Text,
	}
}

func (p *PromptBuilder) writePersona(b *strings.Builder, msg *message.Message, profile *domainAgent.StyleProfile) {
	contact := msg.DisplayName
	if contact == "" {
		contact = msg.SenderID
	}
	fmt.Fprintf(b, "You are %s, texting with %s over iMessage. ", p.selfName, contact)
	b.WriteString("Reply exactly the way you normally text: short, natural, in character. ")
	b.WriteString("Never reveal that anything other than a person is writing these messages.\n")

	if profile != nil && profile.RelationshipTier != "" {
		fmt.Fprintf(b, "Relationship: %s is your %s.\n", contact, strings.ReplaceAll(profile.RelationshipTier, "_", " "))
	}
	b.WriteString("\n")
}

func (p *PromptBuilder) writeStyleRules(b *strings.Builder, profile *domainAgent.StyleProfile) {
	b.WriteString("Texting style:\n")
	if profile == nil {
		b.WriteString("- casual, lowercase-leaning, brief\n")
		b.WriteString("- no formal punctuation, no long paragraphs\n\n")
		return
	}

	st := profile.Style
	if st.Capitalization != "" {
		fmt.Fprintf(b, "- capitalization: %s\n", st.Capitalization)
	}
	if !st.UsesPeriods {
		b.WriteString("- do not end messages with periods\n")
	}
	if st.AbbreviationLevel != "" {
		fmt.Fprintf(b, "- abbreviation level: %s\n", st.AbbreviationLevel)
	}
	if st.AvgWordsPerSentence > 0 {
		fmt.Fprintf(b, "- keep sentences around %.0f words\n", st.AvgWordsPerSentence)
	}
	if profile.Emoji.Frequency > 0 && len(profile.Emoji.TopEmojis) > 0 {
		fmt.Fprintf(b, "- emojis you actually use: %s\n", strings.Join(profile.Emoji.TopEmojis, " "))
	} else if profile.Emoji.Frequency == 0 {
		b.WriteString("- you rarely use emojis\n")
	}
	if len(profile.Vocabulary.TopPhrases) > 0 {
		fmt.Fprintf(b, "- phrases you often use: %s\n", strings.Join(profile.Vocabulary.TopPhrases, ", "))
	}
	if profile.Sentiment.ToneLabel != "" {
		fmt.Fprintf(b, "- overall tone: %s\n", profile.Sentiment.ToneLabel)
	}
	if len(profile.Topics.InsideReferences) > 0 {
		fmt.Fprintf(b, "- inside references you share: %s\n", strings.Join(profile.Topics.InsideReferences, ", "))
	}
	b.WriteString("\n")
}

func (p *PromptBuilder) writeRestrictedTopics(b *strings.Builder, restricted []string, profile *domainAgent.StyleProfile) {
	topics := append([]string{}, restricted...)
	if profile != nil {
		topics = append(topics, profile.Topics.Avoids...)
	}
	if len(topics) == 0 {
		return
	}
	b.WriteString("Restricted topics: if the conversation heads here, deflect briefly and lower your confidence score.\n")
	for _, t := range topics {
		fmt.Fprintf(b, "- %s\n", t)
	}
	b.WriteString("\n")
}

// writeReferenceChunks 按相关度降序写入参考片段，超出 Token 预算即停
func (p *PromptBuilder) writeReferenceChunks(b *strings.Builder, chunks []*domainRAG.Chunk) {
	if len(chunks) == 0 {
		return
	}
	b.WriteString("Reference material from your past conversations (most relevant first):\n")
	now := p.now()
	used := 0
	for _, chunk := range chunks {
		entry := fmt.Sprintf("[relevance %.0f%%, %.0f days ago]\n%s\n\n",
			chunk.Similarity*100, chunk.AgeDays(now), chunk.Text)
		cost := p.countTokens(entry)
		if used+cost > ragTokenBudget {
			break
		}
		b.WriteString(entry)
		used += cost
	}
}

func (p *PromptBuilder) writeProtocol(b *strings.Builder) {
	b.WriteString("Response protocol:\n")
	b.WriteString("- First line must be CONF:<0.0-1.0>, your honest confidence that this reply sounds like you and is safe to send.\n")
	b.WriteString("- Use a low score when unsure, when the topic is sensitive, or when a real decision is being asked of you.\n")
	b.WriteString("- To send multiple messages in a burst, separate them with |||.\n")
}

func (p *PromptBuilder) countTokens(text string) int {
	if p.counter != nil {
		return p.counter.CountTokens(text)
	}
	return len(text) / 4
}

// buildTurns 把原始历史转成严格交替的对话轮
// 同角色相邻消息合并；触发消息从历史尾部剥离，单独作为最终轮
func buildTurns(history []*message.Message, trigger *message.Message) []domainAgent.Turn {
	var turns []domainAgent.Turn
	for _, m := range history {
		if m.RowID == trigger.RowID {
			continue
		}
		if m.Text == "" {
			continue
		}
		role := "user"
		if m.IsFromMe {
			role = "assistant"
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n" + m.Text
			continue
		}
		turns = append(turns, domainAgent.Turn{Role: role, Content: m.Text})
	}
	if len(turns) > 0 && turns[0].Role != "user" {
		turns = append([]domainAgent.Turn{{Role: "user", Content: placeholderUserTurn}}, turns...)
	}
	return turns
}
