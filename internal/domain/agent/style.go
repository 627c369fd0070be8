package agent

// StyleProfile 联系人风格画像
// 由离线分析脚本从聊天历史生成后导入，JSON 字段与导入格式一致
type StyleProfile struct {
	// Contact 联系人显示名
	Contact string `json:"contact"`
	// Phone 电话标识（可为空）
	Phone string `json:"phone,omitempty"`
	// RelationshipTier 关系层级（friend/close_friend/family/acquaintance）
	RelationshipTier string `json:"relationship_tier"`

	MessageStats StyleMessageStats `json:"message_stats"`
	Style        StyleTraits       `json:"style"`
	Emoji        StyleEmoji        `json:"emoji"`
	Vocabulary   StyleVocabulary   `json:"vocabulary"`
	Sentiment    StyleSentiment    `json:"sentiment"`
	Behavior     StyleBehavior     `json:"behavior"`
	Topics       StyleTopics       `json:"topics"`
}

// StyleMessageStats 消息统计
type StyleMessageStats struct {
	TotalMessagesFromYou int `json:"total_messages_from_you"`
	AvgMessageLength     int `json:"avg_message_length"`
	MedianMessageLength  int `json:"median_message_length"`
	MaxMessageLength     int `json:"max_message_length"`
}

// StyleTraits 书写习惯
type StyleTraits struct {
	// Capitalization 首字母大小写习惯：never/always/mixed
	Capitalization      string  `json:"capitalization"`
	UsesPeriods         bool    `json:"uses_periods"`
	UsesCommas          string  `json:"uses_commas"`
	UsesExclamation     string  `json:"uses_exclamation"`
	UsesQuestionMarks   bool    `json:"uses_question_marks"`
	UsesEllipsis        bool    `json:"uses_ellipsis"`
	UsesApostrophes     bool    `json:"uses_apostrophes"`
	AbbreviationLevel   string  `json:"abbreviation_level"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
}

// StyleEmoji 表情使用
type StyleEmoji struct {
	Frequency           float64  `json:"frequency"`
	TopEmojis           []string `json:"top_emojis"`
	UsesEmojiAsResponse bool     `json:"uses_emoji_as_response"`
}

// StyleVocabulary 词汇习惯
type StyleVocabulary struct {
	SlangLevel       string   `json:"slang_level"`
	TopPhrases       []string `json:"top_phrases"`
	GreetingPatterns []string `json:"greeting_patterns"`
	FarewellPatterns []string `json:"farewell_patterns"`
	FillerWords      []string `json:"filler_words"`
}

// StyleSentiment 情感倾向
type StyleSentiment struct {
	AvgCompound     float64 `json:"avg_compound"`
	ToneLabel       string  `json:"tone_label"`
	PositivityRatio float64 `json:"positivity_ratio"`
	NegativityRatio float64 `json:"negativity_ratio"`
}

// StyleBehavior 行为特征
// 响应时间分布（分钟）用于行为模型的延迟采样
type StyleBehavior struct {
	MultiMessageTendency    float64 `json:"multi_message_tendency"`
	AvgMessagesPerBurst     float64 `json:"avg_messages_per_burst"`
	ResponseTimeMeanMinutes float64 `json:"response_time_mean_minutes"`
	ResponseTimeStdMinutes  float64 `json:"response_time_std_minutes"`
}

// StyleTopics 话题偏好
type StyleTopics struct {
	Common           []string `json:"common"`
	Avoids           []string `json:"avoids"`
	InsideReferences []string `json:"inside_references"`
}
