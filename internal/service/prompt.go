package service

import (
	"strings"

	"github.com/docchat-io/docchat/internal/domain"
)

const systemPrompt = `You are a helpful assistant answering questions about documents the user has uploaded.
Answer using only the context below and the conversation so far.
If the context does not contain the answer, say that the documents do not cover it.`

const noContextNote = "No relevant context was found in the uploaded documents."

// buildMessages assembles the chat request: a system message carrying the
// retrieved context, the prior turns in ask order, and the new question.
func buildMessages(history []domain.ConversationTurn, contexts []string, question string) []domain.ChatMessage {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\nContext:\n")
	if len(contexts) == 0 {
		sb.WriteString(noContextNote)
	} else {
		for i, c := range contexts {
			if i > 0 {
				sb.WriteString("\n---\n")
			}
			sb.WriteString(c)
		}
	}

	messages := make([]domain.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: sb.String(),
	})

	for _, turn := range history {
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: turn.Question},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: turn.Answer},
		)
	}

	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: question,
	})

	return messages
}
