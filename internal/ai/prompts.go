package ai

import (
	"fmt"
	"strings"

	"github.com/wenjia-li/digestbot/internal/database"
)

// SummarySystemInstruction steers the model toward a structured digest
// of the conversation rather than a reply to it.
const SummarySystemInstruction = "你是一个专业的群聊内容总结助手。你的任务是阅读群聊记录，" +
	"提炼出主要话题、关键讨论点和结论。忽略闲聊和无关内容，不要逐条复述消息，" +
	"只输出总结正文，不要添加任何前缀或标题。"

// wordTargets maps a summary length setting to the requested number of
// words in the generated text.
var wordTargets = map[string]int{
	database.SummaryLengthShort:  100,
	database.SummaryLengthMedium: 200,
	database.SummaryLengthLong:   400,
}

// lengthWords returns the target word count for a length setting,
// falling back to the medium target for unknown values.
func lengthWords(length string) int {
	if n, ok := wordTargets[length]; ok {
		return n
	}
	return wordTargets[database.SummaryLengthMedium]
}

func languageInstruction(language string) string {
	if language == database.LanguageEnglish {
		return "Write the summary in English."
	}
	return "请使用中文输出总结。"
}

// formatTranscript renders messages as one "name: text" line each, in
// the order given.
func formatTranscript(messages []database.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		name := m.UserName
		if name == "" {
			name = fmt.Sprintf("用户%d", m.UserID)
		}
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// buildUserPrompt assembles the request text sent to the model:
// the length and language directives followed by the transcript.
func buildUserPrompt(messages []database.Message, length, language string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("请总结以下群聊记录，总结长度约%d字。%s\n\n", lengthWords(length), languageInstruction(language)))
	sb.WriteString("聊天记录:\n")
	sb.WriteString(formatTranscript(messages))
	return sb.String()
}
