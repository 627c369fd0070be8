package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

func testPromptBuilder() *PromptBuilder {
	return NewPromptBuilder(&config.ChatStoreConfig{SelfName: "Matthew"})
}

func historyMessage(rowID int64, text string, fromMe bool) *message.Message {
	return &message.Message{
		RowID:          rowID,
		Text:           text,
		IsFromMe:       fromMe,
		ConversationID: "+15551234567",
		DisplayName:    "Alice",
	}
}

func TestBuild_AlternatingTurns(t *testing.T) {
	history := []*message.Message{
		historyMessage(1, "hey", false),
		historyMessage(2, "you there?", false),
		historyMessage(3, "yeah", true),
		historyMessage(4, "what's up", true),
		historyMessage(5, "dinner tonight?", false),
	}
	trigger := history[4]

	prompt := testPromptBuilder().Build(trigger, nil, nil, history, nil)

	require.Len(t, prompt.Turns, 2)
	assert.Equal(t, "user", prompt.Turns[0].Role)
	assert.Equal(t, "hey\nyou there?", prompt.Turns[0].Content)
	assert.Equal(t, "assistant", prompt.Turns[1].Role)
	assert.Equal(t, "yeah\nwhat's up", prompt.Turns[1].Content)
	assert.Equal(t, "dinner tonight?", prompt.FinalMessage)
}

// 触发消息从历史尾部剥离，不会在轮次里重复出现
func TestBuild_TriggerNotDuplicated(t *testing.T) {
	history := []*message.Message{
		historyMessage(1, "hey", false),
		historyMessage(2, "dinner tonight?", false),
	}
	trigger := history[1]

	prompt := testPromptBuilder().Build(trigger, nil, nil, history, nil)

	require.Len(t, prompt.Turns, 1)
	assert.Equal(t, "hey", prompt.Turns[0].Content)
}

// 合并后首轮是助手侧时插入占位用户轮，保证严格交替
func TestBuild_PlaceholderWhenHistoryStartsWithSelf(t *testing.T) {
	history := []*message.Message{
		historyMessage(1, "yo", true),
		historyMessage(2, "hey!", false),
	}
	trigger := historyMessage(3, "free tonight?", false)

	prompt := testPromptBuilder().Build(trigger, nil, nil, history, nil)

	require.GreaterOrEqual(t, len(prompt.Turns), 2)
	assert.Equal(t, "user", prompt.Turns[0].Role)
	assert.Equal(t, placeholderUserTurn, prompt.Turns[0].Content)
	assert.Equal(t, "assistant", prompt.Turns[1].Role)
}

func TestBuild_NoHistory(t *testing.T) {
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, nil, nil, nil, nil)

	assert.Empty(t, prompt.Turns)
	assert.Equal(t, "hey", prompt.FinalMessage)
}

func TestBuild_SystemInstructionBasics(t *testing.T) {
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, nil, nil, nil, nil)

	assert.Contains(t, prompt.SystemInstruction, "You are Matthew")
	assert.Contains(t, prompt.SystemInstruction, "Alice")
	assert.Contains(t, prompt.SystemInstruction, "CONF:")
	assert.Contains(t, prompt.SystemInstruction, "|||")
}

func TestBuild_StyleProfileRules(t *testing.T) {
	profile := &domainAgent.StyleProfile{
		Contact:          "Alice",
		RelationshipTier: "close_friend",
		Style: domainAgent.StyleTraits{
			Capitalization:    "never",
			AbbreviationLevel: "heavy",
		},
		Vocabulary: domainAgent.StyleVocabulary{
			TopPhrases: []string{"lol", "fr"},
		},
	}
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, nil, profile, nil, nil)

	assert.Contains(t, prompt.SystemInstruction, "close friend")
	assert.Contains(t, prompt.SystemInstruction, "capitalization: never")
	assert.Contains(t, prompt.SystemInstruction, "lol, fr")
}

func TestBuild_RestrictedTopics(t *testing.T) {
	profile := &domainAgent.StyleProfile{
		Topics: domainAgent.StyleTopics{Avoids: []string{"politics"}},
	}
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, nil, profile, nil, []string{"money"})

	assert.Contains(t, prompt.SystemInstruction, "Restricted topics")
	assert.Contains(t, prompt.SystemInstruction, "money")
	assert.Contains(t, prompt.SystemInstruction, "politics")
}

func TestBuild_ReferenceChunks(t *testing.T) {
	chunks := []*domainRAG.Chunk{
		{
			ID:         "abc123",
			Text:       "Matthew: pizza friday?\nAlice: always",
			Timestamp:  time.Now().Add(-48 * time.Hour),
			Similarity: 0.83,
		},
	}
	trigger := historyMessage(1, "dinner?", false)

	prompt := testPromptBuilder().Build(trigger, chunks, nil, nil, nil)

	assert.Contains(t, prompt.SystemInstruction, "relevance 83%")
	assert.Contains(t, prompt.SystemInstruction, "pizza friday?")
}

func TestBuild_NoChunksOmitsReferenceSection(t *testing.T) {
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, nil, nil, nil, nil)

	assert.NotContains(t, prompt.SystemInstruction, "Reference material")
}

// 片段按预算截断，超预算的后续片段不进入提示
func TestBuild_ChunkTokenBudget(t *testing.T) {
	big := strings.Repeat("Matthew: blah blah blah\n", 600)
	chunks := []*domainRAG.Chunk{
		{ID: "a", Text: big, Timestamp: time.Now(), Similarity: 0.9},
		{ID: "b", Text: "Alice: short one", Timestamp: time.Now(), Similarity: 0.8},
	}
	trigger := historyMessage(1, "hey", false)

	prompt := testPromptBuilder().Build(trigger, chunks, nil, nil, nil)

	assert.NotContains(t, prompt.SystemInstruction, "short one")
}
