// Package workflow ties user intent to the conversation state model and
// the AI task client, driving the loading/ready/error lifecycle of mirror
// cells. Transport errors never escape as panics or raw errors into
// callers' state: they settle the mirror into status=error first.
package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/parleyhq/parley/internal/aiclient"
	"github.com/parleyhq/parley/internal/conversation"
	perrors "github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/prompt"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
)

// GenerationFailedContent replaces the pending placeholder when reply
// generation fails.
const GenerationFailedContent = "(generation failed)"

const replyTemperature float32 = 0.6

// Notifier receives transient user-facing feedback. Implementations must
// not block.
type Notifier interface {
	Success(message, description string)
	Error(message, description string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string, string) {}
func (NopNotifier) Error(string, string)   {}

// Invoker abstracts the AI task client for tests.
type Invoker func(ctx context.Context, req aiclient.Request) (aiclient.Response, error)

// Workflow orchestrates AI tasks over the active conversation.
type Workflow struct {
	Conversations *state.Store
	Settings      *settings.Store
	Invoke        Invoker
	Notify        Notifier

	// TranslationTarget overrides the target language for partner message
	// translation. Empty means the built-in default.
	TranslationTarget string
}

// New wires a workflow over the given stores with the live AI client.
func New(conversations *state.Store, settingsStore *settings.Store, notify Notifier) *Workflow {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Workflow{
		Conversations: conversations,
		Settings:      settingsStore,
		Invoke:        aiclient.Invoke,
		Notify:        notify,
	}
}

// ReplyResult reports a completed reply generation.
type ReplyResult struct {
	RowID    string
	Response aiclient.Response
	Payload  prompt.ReplyPayload
}

// TranslatePartnerMessage translates one partner row of the active
// conversation into the configured target language. Missing rows and non-
// partner rows are silent no-ops; configuration and transport failures
// settle the row's mirror into status=error before returning the error.
func (w *Workflow) TranslatePartnerMessage(ctx context.Context, rowID string) error {
	snapshot := w.Conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return nil
	}
	row := active.Row(rowID)
	if row == nil || row.Message.Role != conversation.RolePartner {
		return nil
	}

	models := w.Settings.Get().Models
	if models.BaseURL == "" || models.TranslationModel == "" {
		err := perrors.NewMissingConfig("translation model not configured, set it in settings")
		w.settleMirror(active.ID, rowID, err.Message)
		w.Notify.Error("Translation model not configured", "Set the model base URL and translation model in settings first")
		return err
	}

	w.setMirrorLoading(active.ID, rowID, true)

	payload := prompt.ComposeTranslation(row.Message.Content, w.TranslationTarget)
	response, err := w.Invoke(ctx, aiclient.Request{
		Task:        aiclient.TaskTranslate,
		Translation: &payload,
		Config: aiclient.Config{
			BaseURL: models.BaseURL,
			APIKey:  models.APIKey,
			Model:   models.TranslationModel,
		},
	})
	if err != nil {
		message := errorMessage(err, "translation failed")
		w.settleMirror(active.ID, rowID, message)
		w.Notify.Error("Translation failed", message)
		return err
	}

	ready := conversation.StatusReady
	empty := ""
	w.Conversations.Dispatch(state.UpdateMirror{
		ConversationID: active.ID,
		RowID:          rowID,
		Patch: conversation.MirrorPatch{
			Status:  &ready,
			Content: &response.Content,
			Error:   &empty,
		},
	})
	return nil
}

// GenerateReplyOptions tunes GenerateReply. RowID, when set, regenerates an
// existing draft row in place instead of appending a new one.
type GenerateReplyOptions struct {
	RowID string
}

// GenerateReply drafts a reply for the active conversation from the given
// intent. A blank intent falls back to the target row's stored intent. On
// success the draft row's message is replaced with the generated text and
// its mirror settles to ready; on failure the mirror settles to error and
// the placeholder message records the failure.
func (w *Workflow) GenerateReply(ctx context.Context, intentRaw string, opts GenerateReplyOptions) (*ReplyResult, error) {
	snapshot := w.Conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		w.Notify.Error("Select a conversation before generating a reply", "")
		return nil, perrors.NewInvalidRequest("no active conversation")
	}

	models := w.Settings.Get().Models
	if models.BaseURL == "" || models.ReplyModel == "" {
		w.Notify.Error("Reply model not configured", "Set the model base URL and reply model in settings first")
		return nil, perrors.NewMissingConfig("reply model not configured, set it in settings")
	}

	inputIntent := strings.TrimSpace(intentRaw)
	history := prompt.BuildHistory(active, opts.RowID)
	contextBlock := w.buildContext(active)

	rowID := opts.RowID
	if rowID == "" {
		var next state.State
		rowID, next = w.Conversations.AddIntentDraft(active.ID, inputIntent)
		if c, ok := next.Conversations[active.ID]; !ok || c.Row(rowID) == nil {
			w.Notify.Error("Failed to create the reply draft", "")
			return nil, perrors.NewInternal(nil)
		}
	}
	w.setMirrorLoading(active.ID, rowID, false)

	intent := inputIntent
	if intent == "" {
		if existing := active.Row(rowID); existing != nil && existing.Mirror != nil {
			intent = strings.TrimSpace(existing.Mirror.Content)
		}
	}

	payload := prompt.ComposeReply(prompt.ReplyInput{
		Message:       intent,
		Intent:        &intent,
		ReplyLanguage: prompt.ResolveReplyLanguage(active.ReplyLanguage),
		ToneKey:       active.TonePresetID,
		Context:       contextBlock,
		History:       history,
	})

	temperature := replyTemperature
	response, err := w.Invoke(ctx, aiclient.Request{
		Task:  aiclient.TaskReply,
		Reply: &payload,
		Config: aiclient.Config{
			BaseURL:     models.BaseURL,
			APIKey:      models.APIKey,
			Model:       models.ReplyModel,
			Temperature: &temperature,
		},
	})
	if err != nil {
		message := errorMessage(err, "reply generation failed")
		w.settleMirror(active.ID, rowID, message)
		w.updateDraftMessage(active.ID, rowID, GenerationFailedContent, intent)
		w.Notify.Error("Failed to generate the reply", message)
		return nil, err
	}

	w.updateDraftMessage(active.ID, rowID, response.Content, intent)
	ready := conversation.StatusReady
	empty := ""
	w.Conversations.Dispatch(state.UpdateMirror{
		ConversationID: active.ID,
		RowID:          rowID,
		Patch:          conversation.MirrorPatch{Status: &ready, Error: &empty},
	})
	w.Notify.Success("Reply generated", "")
	return &ReplyResult{RowID: rowID, Response: response, Payload: payload}, nil
}

// ReplyPromptPreview is the composed payload plus its pretty-printed JSON,
// for inspection surfaces.
type ReplyPromptPreview struct {
	Payload prompt.ReplyPayload
	JSON    string
}

// BuildReplyPromptPreview composes the reply payload for the active
// conversation without invoking the model.
func (w *Workflow) BuildReplyPromptPreview(draftIntent string) (*ReplyPromptPreview, error) {
	snapshot := w.Conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return nil, perrors.NewInvalidRequest("no active conversation")
	}

	var intent *string
	if trimmed := strings.TrimSpace(draftIntent); trimmed != "" {
		intent = &trimmed
	}
	payload := prompt.ComposeReply(prompt.ReplyInput{
		Message:       draftIntent,
		Intent:        intent,
		ReplyLanguage: prompt.ResolveReplyLanguage(active.ReplyLanguage),
		ToneKey:       active.TonePresetID,
		Context:       w.buildContext(active),
		History:       prompt.BuildHistory(active, ""),
	})

	pretty, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, perrors.NewInternal(err)
	}
	return &ReplyPromptPreview{Payload: payload, JSON: string(pretty)}, nil
}

// buildContext resolves the conversation's selected reference and quote ids
// against the settings libraries, concatenating title and body. Dangling
// ids drop out silently.
func (w *Workflow) buildContext(c conversation.Conversation) prompt.ContextBlock {
	s := w.Settings.Get()
	block := prompt.ContextBlock{References: []string{}, Quotes: []string{}}
	for _, item := range s.ResolveReferences(c.SelectedReferenceIDs) {
		block.References = append(block.References, item.Title+"\n"+item.Content)
	}
	for _, item := range s.ResolveQuotes(c.SelectedQuoteIDs) {
		block.Quotes = append(block.Quotes, item.Title+"\n"+item.Content)
	}
	return block
}

// setMirrorLoading moves a mirror into loading and clears any stale error.
// Translation additionally blanks the previous content.
func (w *Workflow) setMirrorLoading(conversationID, rowID string, clearContent bool) {
	loading := conversation.StatusLoading
	empty := ""
	patch := conversation.MirrorPatch{Status: &loading, Error: &empty}
	if clearContent {
		patch.Content = &empty
	}
	w.Conversations.Dispatch(state.UpdateMirror{
		ConversationID: conversationID,
		RowID:          rowID,
		Patch:          patch,
	})
}

// settleMirror records a failure on the row's mirror.
func (w *Workflow) settleMirror(conversationID, rowID, message string) {
	errStatus := conversation.StatusError
	w.Conversations.Dispatch(state.UpdateMirror{
		ConversationID: conversationID,
		RowID:          rowID,
		Patch:          conversation.MirrorPatch{Status: &errStatus, Error: &message},
	})
}

func (w *Workflow) updateDraftMessage(conversationID, rowID, content, intent string) {
	action := state.UpdateMessage{
		ConversationID: conversationID,
		RowID:          rowID,
		Content:        content,
	}
	if intent != "" {
		action.Intent = &intent
	}
	w.Conversations.Dispatch(action)
}

func errorMessage(err error, fallback string) string {
	if aErr, ok := err.(*perrors.AssistError); ok {
		return aErr.Message
	}
	return fallback
}
