// Package prompt composes the request payloads sent to the language model.
// Everything here is a pure transformation from conversation state and
// settings selections to payload structs; no I/O.
package prompt

import (
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
)

// HistoryLimit bounds reply-generation history to the most recent turns.
const HistoryLimit = 6

// DefaultTranslationTarget is the target language when none is given.
const DefaultTranslationTarget = "中文"

// DefaultReplyLanguage is the resolved value of the "auto" preference.
const DefaultReplyLanguage = "match-external"

// TranslationPayload is the single-shot translation request shape.
type TranslationPayload struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// ContextBlock carries the resolved reference and quote texts.
type ContextBlock struct {
	References []string `json:"references"`
	Quotes     []string `json:"quotes"`
}

// HistoryMessage is one prior turn included in a reply request.
type HistoryMessage struct {
	Role      conversation.Role `json:"role"`
	Content   string            `json:"content"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// ReplyPayload is the structured reply-generation request shape.
type ReplyPayload struct {
	Task          string           `json:"task"`
	System        string           `json:"system"`
	Instruction   string           `json:"instruction"`
	Tone          Tone             `json:"tone"`
	ReplyLanguage string           `json:"replyLanguage"`
	Intent        *string          `json:"intent"`
	Context       ContextBlock     `json:"context"`
	History       []HistoryMessage `json:"history"`
}

// ComposeTranslation substitutes the content and target language into the
// fixed translation template. Empty target defaults to 中文.
func ComposeTranslation(content, targetLanguage string) TranslationPayload {
	if targetLanguage == "" {
		targetLanguage = DefaultTranslationTarget
	}
	user := strings.Replace(translationTemplate, "{{TARGET_LANGUAGE}}", targetLanguage, 1)
	user = strings.Replace(user, "{{CONTENT}}", content, 1)
	return TranslationPayload{System: TranslationSystem, User: user}
}

// ReplyInput collects the inputs to ComposeReply.
type ReplyInput struct {
	Message       string
	Intent        *string
	ReplyLanguage string
	ToneKey       string
	Context       ContextBlock
	History       []HistoryMessage
}

// ComposeReply builds the structured reply payload: tone resolved from the
// closed table, intent falling back to the trimmed message (nil when both
// are empty), and history bounded to the most recent non-empty turns.
func ComposeReply(in ReplyInput) ReplyPayload {
	intent := in.Intent
	if intent == nil {
		if trimmed := strings.TrimSpace(in.Message); trimmed != "" {
			intent = &trimmed
		}
	}
	return ReplyPayload{
		Task:          "reply",
		System:        ReplySystem,
		Instruction:   ReplyInstruction,
		Tone:          ResolveTone(in.ToneKey),
		ReplyLanguage: in.ReplyLanguage,
		Intent:        intent,
		Context:       in.Context,
		History:       sanitizeHistory(in.History),
	}
}

// sanitizeHistory drops blank turns, keeps the most recent HistoryLimit in
// chronological order, and trims each surviving turn.
func sanitizeHistory(history []HistoryMessage) []HistoryMessage {
	kept := make([]HistoryMessage, 0, len(history))
	for _, item := range history {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		kept = append(kept, item)
	}
	if len(kept) > HistoryLimit {
		kept = kept[len(kept)-HistoryLimit:]
	}
	out := make([]HistoryMessage, len(kept))
	for i, item := range kept {
		out[i] = HistoryMessage{
			Role:      item.Role,
			Content:   strings.TrimSpace(item.Content),
			Timestamp: item.Timestamp,
		}
	}
	return out
}

// BuildHistory extracts the prompt history from a conversation feed,
// optionally excluding one row (the row being regenerated must not appear
// in its own history).
func BuildHistory(c conversation.Conversation, excludeRowID string) []HistoryMessage {
	history := make([]HistoryMessage, 0, len(c.Feed))
	for _, row := range c.Feed {
		if excludeRowID != "" && row.ID == excludeRowID {
			continue
		}
		if row.Message.Content == "" {
			continue
		}
		history = append(history, HistoryMessage{
			Role:      row.Message.Role,
			Content:   row.Message.Content,
			Timestamp: row.Message.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return history
}

// ResolveReplyLanguage maps the stored preference to the prompt value:
// "auto" (or empty) means "match the partner's language".
func ResolveReplyLanguage(value string) string {
	if value == "" || value == conversation.DefaultReplyLanguage {
		return DefaultReplyLanguage
	}
	return value
}
