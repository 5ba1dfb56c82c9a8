package usecase

import (
	"strings"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

const contextualizeSystemPrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, " +
	"formulate a standalone question which can be understood " +
	"without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

const answerSystemPrompt = "You are a NetSuite support assistant. Answer the user's question " +
	"using the documentation context provided. Cite the relevant feature or page when it helps. " +
	"If the context does not cover the question, say so instead of guessing."

func contextualizeMessages(question string, history []domain.ChatMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: contextualizeSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleHuman, Content: question})
	return messages
}

func answerMessages(question string, history []domain.ChatMessage, contextChunks []domain.Chunk) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+3)
	messages = append(messages, domain.ChatMessage{Role: "system", Content: answerSystemPrompt})
	messages = append(messages, domain.ChatMessage{Role: "system", Content: "Context: " + renderContext(contextChunks)})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleHuman, Content: question})
	return messages
}

func renderContext(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return "(no documentation context found)"
	}
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if chunk.SourceTitle != "" {
			b.WriteString(chunk.SourceTitle)
			if chunk.SourceURL != "" {
				b.WriteString(" (")
				b.WriteString(chunk.SourceURL)
				b.WriteString(")")
			}
			b.WriteString(":\n")
		}
		b.WriteString(chunk.Text)
	}
	return b.String()
}
