// Package aiclient sends composed prompts to an OpenAI-compatible
// chat-completions endpoint and maps failures into the error taxonomy.
// An unconfigured endpoint (empty or "mock:"-prefixed base URL) resolves to
// a deterministic local responder that issues no network requests.
package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	perrors "github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/prompt"
)

// Task selects which prompt shape a request carries.
type Task string

const (
	TaskTranslate Task = "translate"
	TaskReply     Task = "reply"
)

// Per-task default sampling temperatures; translation is deterministic.
const (
	defaultTranslationTemperature float32 = 0
	defaultReplyTemperature       float32 = 0.4
)

// Config is the per-call endpoint configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float32
}

// Request is one AI task invocation. Exactly one payload field is set,
// matching Task.
type Request struct {
	Task        Task
	Translation *prompt.TranslationPayload
	Reply       *prompt.ReplyPayload
	Config      Config
}

// Response is the model output. Raw carries the provider response for
// debugging and is nil for mock responses.
type Response struct {
	Content string
	Raw     *openai.ChatCompletionResponse
}

// EmptyResponseContent is returned when the provider answers with no
// choices or an empty message.
const EmptyResponseContent = "[Empty response]"

// IsMockEndpoint reports whether the base URL selects the local mock
// responder.
func IsMockEndpoint(baseURL string) bool {
	trimmed := strings.TrimSpace(baseURL)
	return trimmed == "" || strings.HasPrefix(trimmed, "mock:")
}

// Invoke resolves the call strategy from configuration and executes it.
// Mock endpoints answer locally; otherwise the request goes to
// {baseUrl}/v1/chat/completions. All failures are *errors.AssistError.
func Invoke(ctx context.Context, req Request) (Response, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(req.Config.BaseURL), "/")
	if IsMockEndpoint(baseURL) {
		return mockResponse(req), nil
	}
	if req.Config.Model == "" {
		return Response{}, perrors.NewMissingConfig("no model configured")
	}

	cfg := openai.DefaultConfig(req.Config.APIKey)
	cfg.BaseURL = baseURL + "/v1"
	client := openai.NewClientWithConfig(cfg)

	completion, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Config.Model,
		Temperature: resolveTemperature(req),
		Messages:    toChatMessages(req),
	})
	if err != nil {
		return Response{}, mapError(err)
	}

	content := EmptyResponseContent
	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		content = completion.Choices[0].Message.Content
	}
	return Response{Content: content, Raw: &completion}, nil
}

// mockResponse fabricates a deterministic answer: the translation echo
// carries the composed user prompt, the reply echo carries the intent.
func mockResponse(req Request) Response {
	if req.Task == TaskTranslate {
		input := ""
		if req.Translation != nil {
			input = req.Translation.User
		}
		return Response{Content: "[Mock Translation]\n" + input}
	}
	input := ""
	if req.Reply != nil && req.Reply.Intent != nil {
		input = *req.Reply.Intent
	}
	return Response{Content: "[Mock Reply]\n" + input}
}

func resolveTemperature(req Request) float32 {
	if req.Config.Temperature != nil {
		return *req.Config.Temperature
	}
	if req.Task == TaskTranslate {
		return defaultTranslationTemperature
	}
	return defaultReplyTemperature
}

// toChatMessages flattens a request into the chat message list. Reply
// requests interleave bounded history (partner as user, self as assistant)
// before a final user message carrying the structured payload as JSON.
func toChatMessages(req Request) []openai.ChatCompletionMessage {
	if req.Task == TaskTranslate {
		return []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Translation.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Translation.User},
		}
	}

	payload := req.Reply
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: payload.System},
	}
	for _, item := range payload.History {
		role := openai.ChatMessageRoleAssistant
		if item.Role == "partner" {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: item.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: encodeReplyEnvelope(payload),
	})
	return messages
}

// replyEnvelope is the JSON body of the final user message.
type replyEnvelope struct {
	Task          string                  `json:"task"`
	Instruction   string                  `json:"instruction"`
	ReplyLanguage string                  `json:"replyLanguage"`
	TonePrompt    string                  `json:"tonePrompt"`
	Intent        *string                 `json:"intent"`
	Context       prompt.ContextBlock     `json:"context"`
	History       []prompt.HistoryMessage `json:"history"`
}

func encodeReplyEnvelope(payload *prompt.ReplyPayload) string {
	envelope := replyEnvelope{
		Task:          payload.Task,
		Instruction:   payload.Instruction,
		ReplyLanguage: payload.ReplyLanguage,
		TonePrompt:    payload.Tone.Prompt,
		Intent:        payload.Intent,
		Context:       payload.Context,
		History:       payload.History,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// mapError converts transport and provider failures into the taxonomy:
// 401/403 unauthorized, 400 bad-request with the provider body attached,
// >=500 server-error, other non-2xx unknown, cancellation/deadline timeout,
// everything else network-error.
func mapError(err error) *perrors.AssistError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return mapHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return mapHTTPStatus(reqErr.HTTPStatusCode, string(reqErr.Body))
		}
		return timeoutOrNetwork(reqErr.Err)
	}
	return timeoutOrNetwork(err)
}

func mapHTTPStatus(status int, body string) *perrors.AssistError {
	switch {
	case status == 401 || status == 403:
		return perrors.NewUnauthorized()
	case status == 400:
		return perrors.NewBadRequest(body)
	case status >= 500:
		return perrors.NewServer()
	default:
		return perrors.NewUnknown(status, body)
	}
}

func timeoutOrNetwork(err error) *perrors.AssistError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return perrors.NewTimeout()
	}
	return perrors.NewNetwork(err)
}
