package rag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/annai/internal/models"
)

// promptContextFields is the allow-list of metadata keys exposed to the
// generation model. Everything else (internal ids, flags) stays out of the
// prompt.
var promptContextFields = []string{
	"name", "description", "category", "brand", "price", "gender",
	"collections", "sizes", "colors", "material", "content",
}

const promptPersona = `You are an expert fashion consultant and customer service representative for a premium clothing brand. Your role is to provide helpful, accurate, and engaging responses about our products, policies, and services.`

const promptGuidelines = `Guidelines for your response:
1. Focus on helping customers find the right products for their needs
2. Provide accurate information about product features, materials, and sizing
3. Explain our policies (shipping, returns, sizing) clearly
4. If the context doesn't provide enough information, acknowledge this and provide general guidance
5. Keep the response helpful and informative
6. Include relevant product recommendations when appropriate
7. Maintain a professional yet friendly tone
8. If this is a follow-up question, maintain context from the previous conversation
9. If the question is unclear, ask for clarification
10. Always prioritize customer satisfaction and provide actionable advice

Please provide a comprehensive and helpful response:`

// buildPrompt assembles the generation prompt: persona, recent history,
// retrieved context projected through the field allow-list, the query, and
// the response guidelines.
func buildPrompt(query string, context []models.RetrievalResult, history []models.ConversationTurn) string {
	var b strings.Builder
	b.WriteString(promptPersona)
	b.WriteString("\n")

	if block := historyBlock(history); block != "" {
		b.WriteString(block)
	}

	b.WriteString("\nAvailable Product Information:\n")
	b.WriteString(contextJSON(context))
	b.WriteString("\nUser Question: ")
	b.WriteString(sanitize(query))
	b.WriteString("\n\n")
	b.WriteString(promptGuidelines)
	return b.String()
}

// historyBlock renders prior turns as alternating User/Assistant lines.
func historyBlock(history []models.ConversationTurn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nPrevious conversation context:\n")
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", sanitize(turn.Content))
		case models.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", sanitize(turn.Content))
		}
	}
	return b.String()
}

// contextJSON projects retrieved metadata through the allow-list, with all
// values flattened to sanitized strings.
func contextJSON(context []models.RetrievalResult) string {
	items := make([]map[string]string, 0, len(context))
	for _, result := range context {
		item := make(map[string]string)
		for _, key := range promptContextFields {
			if v, ok := result.Metadata[key]; ok {
				item[key] = sanitize(fmt.Sprintf("%v", v))
			}
		}
		items = append(items, item)
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// sanitize strips newlines so context values cannot break prompt structure.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
