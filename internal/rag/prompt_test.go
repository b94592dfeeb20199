package rag

import (
	"strings"
	"testing"

	"github.com/hyperjump/annai/internal/models"
)

func TestBuildPromptStructure(t *testing.T) {
	context := []models.RetrievalResult{
		{Metadata: models.Metadata{
			"type": "product", "id": "p1", "name": "Wool Coat",
			"category": "outerwear", "price": 240.0, "is_featured": true,
			"content": "Wool Coat outerwear",
		}, Score: 0.9, Rank: 1},
	}
	history := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "Do you have coats?"},
		{Role: models.RoleAssistant, Content: "Yes, several."},
	}

	prompt := buildPrompt("What about wool?", context, history)

	if !strings.Contains(prompt, "expert fashion consultant") {
		t.Error("missing persona preamble")
	}
	if !strings.Contains(prompt, "Previous conversation context:") {
		t.Error("missing history block")
	}
	if !strings.Contains(prompt, "User: Do you have coats?") ||
		!strings.Contains(prompt, "Assistant: Yes, several.") {
		t.Error("history turns not rendered")
	}
	if !strings.Contains(prompt, "User Question: What about wool?") {
		t.Error("missing query")
	}
	if !strings.Contains(prompt, "Wool Coat") {
		t.Error("missing context data")
	}
	if !strings.Contains(prompt, "Guidelines for your response:") {
		t.Error("missing guidelines")
	}
}

func TestBuildPromptFieldAllowList(t *testing.T) {
	context := []models.RetrievalResult{
		{Metadata: models.Metadata{
			"name": "Wool Coat", "id": "p1", "is_featured": true,
			"user_id": "u1", "price": 240.0,
		}},
	}
	prompt := buildPrompt("q", context, nil)

	// Internal fields never reach the model.
	if strings.Contains(prompt, "is_featured") || strings.Contains(prompt, "user_id") ||
		strings.Contains(prompt, `"id"`) {
		t.Errorf("allow-list leaked internal fields:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"name": "Wool Coat"`) {
		t.Error("allowed field missing")
	}
}

func TestBuildPromptSanitizesNewlines(t *testing.T) {
	context := []models.RetrievalResult{
		{Metadata: models.Metadata{"description": "line one\nline two\r\nline three"}},
	}
	prompt := buildPrompt("multi\nline\nquery", context, nil)

	if !strings.Contains(prompt, "User Question: multi line query") {
		t.Error("query newlines not stripped")
	}
	if !strings.Contains(prompt, "line one line two") {
		t.Error("context newlines not stripped")
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt := buildPrompt("anything", nil, nil)
	if !strings.Contains(prompt, "Available Product Information:\n[]") {
		t.Error("empty context must render an empty JSON array")
	}
	if strings.Contains(prompt, "Previous conversation context:") {
		t.Error("no history block expected")
	}
}
