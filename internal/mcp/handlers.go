package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
	gsync "github.com/parleyhq/parley/internal/sync"
	"github.com/parleyhq/parley/internal/workflow"
)

// BackupTransport is the backup round trip, abstracted for tests.
type BackupTransport interface {
	Upload(ctx context.Context, backup gsync.Backup) error
	Download(ctx context.Context) (*gsync.Backup, error)
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	conversations *state.Store
	settings      *settings.Store
	workflow      *workflow.Workflow
	cfg           *config.Config

	// newTransport builds the backup transport from sync settings.
	// Overridden in tests.
	newTransport func(settings.SyncConfig) BackupTransport
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(conversations *state.Store, settingsStore *settings.Store, wf *workflow.Workflow, cfg *config.Config) *Handlers {
	return &Handlers{
		conversations: conversations,
		settings:      settingsStore,
		workflow:      wf,
		cfg:           cfg,
		newTransport: func(sc settings.SyncConfig) BackupTransport {
			return gsync.NewServiceFromConfig(sc)
		},
	}
}

// Request types for each tool

// CreateRequest represents the arguments for conversation_create.
type CreateRequest struct {
	Title string `json:"title,omitempty"`
}

// ListRequest represents the arguments for conversation_list.
type ListRequest struct {
	View  string `json:"view,omitempty"`
	TagID string `json:"tag_id,omitempty"`
}

// GetRequest represents the arguments for conversation_get.
type GetRequest struct {
	ID string `json:"id,omitempty"`
}

// IDRequest covers the tools taking a single conversation id.
type IDRequest struct {
	ID string `json:"id"`
}

// RenameRequest represents the arguments for conversation_rename.
type RenameRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AddPartnerMessageRequest represents the arguments for conversation_add_partner_message.
type AddPartnerMessageRequest struct {
	Content   string `json:"content"`
	Translate bool   `json:"translate,omitempty"`
}

// AddSelfMessageRequest represents the arguments for conversation_add_self_message.
type AddSelfMessageRequest struct {
	Content string `json:"content"`
	Intent  string `json:"intent,omitempty"`
}

// RowRequest covers the tools taking a single row id.
type RowRequest struct {
	RowID string `json:"row_id"`
}

// SetPreferencesRequest represents the arguments for conversation_set_preferences.
type SetPreferencesRequest struct {
	ReplyLanguage *string  `json:"reply_language,omitempty"`
	TonePreset    *string  `json:"tone_preset,omitempty"`
	ReferenceIDs  []string `json:"reference_ids,omitempty"`
	QuoteIDs      []string `json:"quote_ids,omitempty"`
}

// GenerateReplyRequest represents the arguments for conversation_generate_reply.
type GenerateReplyRequest struct {
	Intent string `json:"intent,omitempty"`
	RowID  string `json:"row_id,omitempty"`
}

// ReplyPreviewRequest represents the arguments for conversation_reply_preview.
type ReplyPreviewRequest struct {
	Intent string `json:"intent,omitempty"`
}

// TagCreateRequest represents the arguments for tag_create.
type TagCreateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TagToggleRequest represents the arguments for tag_toggle.
type TagToggleRequest struct {
	ConversationID string `json:"conversation_id"`
	TagID          string `json:"tag_id"`
}

// SetModelsRequest represents the arguments for settings_set_models.
type SetModelsRequest struct {
	BaseURL          *string `json:"base_url,omitempty"`
	APIKey           *string `json:"api_key,omitempty"`
	TranslationModel *string `json:"translation_model,omitempty"`
	ReplyModel       *string `json:"reply_model,omitempty"`
}

// Output shapes

type rowView struct {
	ID      string               `json:"id"`
	Role    conversation.Role    `json:"role"`
	Content string               `json:"content"`
	Time    string               `json:"time"`
	Mirror  *conversation.Mirror `json:"mirror,omitempty"`
}

type conversationSummary struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	UpdatedAt  string   `json:"updatedAt"`
	Pinned     bool     `json:"pinned"`
	Archived   bool     `json:"archived"`
	Active     bool     `json:"active"`
	Tags       []string `json:"tags,omitempty"`
	FeedLength int      `json:"feedLength"`
}

type conversationDetail struct {
	conversationSummary
	ReplyLanguage        string    `json:"replyLanguage"`
	TonePresetID         string    `json:"tonePresetId"`
	SelectedReferenceIDs []string  `json:"selectedReferenceIds,omitempty"`
	SelectedQuoteIDs     []string  `json:"selectedQuoteIds,omitempty"`
	Feed                 []rowView `json:"feed"`
}

func summarize(c conversation.Conversation, activeID string) conversationSummary {
	return conversationSummary{
		ID:         c.ID,
		Title:      c.Title,
		UpdatedAt:  c.UpdatedAt.UTC().Format(time.RFC3339),
		Pinned:     c.PinnedAt != nil,
		Archived:   c.ArchivedAt != nil,
		Active:     c.ID == activeID,
		Tags:       c.Tags,
		FeedLength: len(c.Feed),
	}
}

func detail(c conversation.Conversation, activeID string) conversationDetail {
	d := conversationDetail{
		conversationSummary:  summarize(c, activeID),
		ReplyLanguage:        c.ReplyLanguage,
		TonePresetID:         c.TonePresetID,
		SelectedReferenceIDs: c.SelectedReferenceIDs,
		SelectedQuoteIDs:     c.SelectedQuoteIDs,
		Feed:                 make([]rowView, 0, len(c.Feed)),
	}
	for _, row := range c.Feed {
		d.Feed = append(d.Feed, rowView{
			ID:      row.ID,
			Role:    row.Message.Role,
			Content: row.Message.Content,
			Time:    row.Message.Timestamp.UTC().Format(time.RFC3339),
			Mirror:  row.Mirror,
		})
	}
	return d
}

// Handler implementations

// HandleCreate handles the conversation_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	id, next := h.conversations.Create(input.Title)
	return successResult(detail(next.Conversations[id], next.ActiveID))
}

// HandleList handles the conversation_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	result := map[string]any{"activeId": snapshot.ActiveID}

	include := func(cs []conversation.Conversation) []conversationSummary {
		out := make([]conversationSummary, 0, len(cs))
		for _, c := range cs {
			if input.TagID != "" && !containsTag(c.Tags, input.TagID) {
				continue
			}
			out = append(out, summarize(c, snapshot.ActiveID))
		}
		return out
	}

	switch input.View {
	case "pinned":
		result["pinned"] = include(state.PinnedConversations(snapshot))
	case "recent":
		result["recent"] = include(state.RecentConversations(snapshot))
	case "archived":
		result["archived"] = include(state.ArchivedConversations(snapshot))
	case "", "all":
		result["pinned"] = include(state.PinnedConversations(snapshot))
		result["recent"] = include(state.RecentConversations(snapshot))
		result["archived"] = include(state.ArchivedConversations(snapshot))
	default:
		return errorResult(errors.NewInvalidRequest("unknown view: " + input.View)), nil
	}
	return successResult(result)
}

func containsTag(tags []string, id string) bool {
	for _, t := range tags {
		if t == id {
			return true
		}
	}
	return false
}

// HandleGet handles the conversation_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	id := input.ID
	if id == "" {
		id = snapshot.ActiveID
	}
	c, ok := snapshot.Conversations[id]
	if !ok {
		return errorResult(errors.NewNotFound(id)), nil
	}
	return successResult(detail(c, snapshot.ActiveID))
}

// HandleSetActive handles the conversation_set_active tool call.
func (h *Handlers) HandleSetActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	if _, ok := snapshot.Conversations[input.ID]; !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	next := h.conversations.Dispatch(state.SetActive{ID: input.ID})
	return successResult(map[string]any{"activeId": next.ActiveID})
}

// HandleRename handles the conversation_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	next := h.conversations.Dispatch(state.Rename{ID: input.ID, Title: input.Title})
	c, ok := next.Conversations[input.ID]
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(summarize(c, next.ActiveID))
}

// HandleTogglePin handles the conversation_toggle_pin tool call.
func (h *Handlers) HandleTogglePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	next := h.conversations.Dispatch(state.TogglePin{ID: input.ID})
	c, ok := next.Conversations[input.ID]
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(summarize(c, next.ActiveID))
}

// HandleToggleArchive handles the conversation_toggle_archive tool call.
func (h *Handlers) HandleToggleArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	next := h.conversations.Dispatch(state.ToggleArchive{ID: input.ID})
	c, ok := next.Conversations[input.ID]
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(summarize(c, next.ActiveID))
}

// HandleDelete handles the conversation_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	if _, ok := snapshot.Conversations[input.ID]; !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	next := h.conversations.Dispatch(state.Delete{ID: input.ID})
	return successResult(map[string]any{"deleted": input.ID, "activeId": next.ActiveID})
}

// HandleAddPartnerMessage handles the conversation_add_partner_message tool call.
func (h *Handlers) HandleAddPartnerMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddPartnerMessageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return errorResult(errors.NewInvalidRequest("no active conversation")), nil
	}

	rowID, next := h.conversations.AddPartnerMessage(active.ID, input.Content)
	if next.Conversations[active.ID].Row(rowID) == nil {
		return errorResult(errors.NewInvalidRequest("message content must not be blank")), nil
	}

	if input.Translate {
		// Failures are recorded on the row's mirror, so the stored row is
		// returned either way.
		_ = h.workflow.TranslatePartnerMessage(ctx, rowID)
		next = h.conversations.Snapshot()
	}
	return successResult(detail(next.Conversations[active.ID], next.ActiveID))
}

// HandleAddSelfMessage handles the conversation_add_self_message tool call.
func (h *Handlers) HandleAddSelfMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddSelfMessageRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return errorResult(errors.NewInvalidRequest("no active conversation")), nil
	}

	rowID, next := h.conversations.AddSelfMessage(active.ID, input.Content, input.Intent)
	if next.Conversations[active.ID].Row(rowID) == nil {
		return errorResult(errors.NewInvalidRequest("message content must not be blank")), nil
	}
	return successResult(detail(next.Conversations[active.ID], next.ActiveID))
}

// HandleRemoveRow handles the conversation_remove_row tool call.
func (h *Handlers) HandleRemoveRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return errorResult(errors.NewInvalidRequest("no active conversation")), nil
	}
	if active.Row(input.RowID) == nil {
		return errorResult(errors.NewNotFound(input.RowID)), nil
	}

	next := h.conversations.Dispatch(state.RemoveFeedRow{ConversationID: active.ID, RowID: input.RowID})
	return successResult(detail(next.Conversations[active.ID], next.ActiveID))
}

// HandleSetPreferences handles the conversation_set_preferences tool call.
func (h *Handlers) HandleSetPreferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetPreferencesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return errorResult(errors.NewInvalidRequest("no active conversation")), nil
	}

	if input.ReplyLanguage != nil {
		h.conversations.Dispatch(state.SetReplyLanguage{ConversationID: active.ID, ReplyLanguage: *input.ReplyLanguage})
	}
	if input.TonePreset != nil {
		h.conversations.Dispatch(state.SetTonePreset{ConversationID: active.ID, TonePresetID: *input.TonePreset})
	}
	if input.ReferenceIDs != nil {
		h.conversations.Dispatch(state.SetSelectedReferenceIDs{ConversationID: active.ID, IDs: input.ReferenceIDs})
	}
	if input.QuoteIDs != nil {
		h.conversations.Dispatch(state.SetSelectedQuoteIDs{ConversationID: active.ID, IDs: input.QuoteIDs})
	}

	next := h.conversations.Snapshot()
	return successResult(detail(next.Conversations[active.ID], next.ActiveID))
}

// HandleTranslateRow handles the conversation_translate_row tool call.
func (h *Handlers) HandleTranslateRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	active, ok := snapshot.Active()
	if !ok {
		return errorResult(errors.NewInvalidRequest("no active conversation")), nil
	}
	row := active.Row(input.RowID)
	if row == nil {
		return errorResult(errors.NewNotFound(input.RowID)), nil
	}
	if row.Message.Role != conversation.RolePartner {
		return errorResult(errors.NewInvalidRequest("only partner rows can be translated")), nil
	}

	if err := h.workflow.TranslatePartnerMessage(ctx, input.RowID); err != nil {
		return errorResult(err), nil
	}

	next := h.conversations.Snapshot()
	updated := next.Conversations[active.ID].Row(input.RowID)
	return successResult(map[string]any{"rowId": input.RowID, "mirror": updated.Mirror})
}

// HandleGenerateReply handles the conversation_generate_reply tool call.
func (h *Handlers) HandleGenerateReply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GenerateReplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.workflow.GenerateReply(ctx, input.Intent, workflow.GenerateReplyOptions{RowID: input.RowID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"rowId":   result.RowID,
		"content": result.Response.Content,
	})
}

// HandleReplyPreview handles the conversation_reply_preview tool call.
func (h *Handlers) HandleReplyPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReplyPreviewRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	preview, err := h.workflow.BuildReplyPromptPreview(input.Intent)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(preview.Payload)
}

// HandleTagCreate handles the tag_create tool call.
func (h *Handlers) HandleTagCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	id, next := h.conversations.CreateTag(input.Name, input.Color)
	if id == "" {
		return errorResult(errors.NewInvalidRequest("tag name is blank or already in use")), nil
	}
	return successResult(next.Tags[id])
}

// HandleTagDelete handles the tag_delete tool call.
func (h *Handlers) HandleTagDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	if _, ok := snapshot.Tags[input.ID]; !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	h.conversations.Dispatch(state.DeleteTag{ID: input.ID})
	return successResult(map[string]any{"deleted": input.ID})
}

// HandleTagToggle handles the tag_toggle tool call.
func (h *Handlers) HandleTagToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagToggleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	snapshot := h.conversations.Snapshot()
	if _, ok := snapshot.Conversations[input.ConversationID]; !ok {
		return errorResult(errors.NewNotFound(input.ConversationID)), nil
	}
	if _, ok := snapshot.Tags[input.TagID]; !ok {
		return errorResult(errors.NewNotFound(input.TagID)), nil
	}

	next := h.conversations.Dispatch(state.ToggleConversationTag{ConversationID: input.ConversationID, TagID: input.TagID})
	return successResult(summarize(next.Conversations[input.ConversationID], next.ActiveID))
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.settings.Get()
	s.Models.APIKey = redact(s.Models.APIKey)
	if s.Sync != nil {
		s.Sync.GithubToken = redact(s.Sync.GithubToken)
	}
	return successResult(s)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "(redacted)"
}

// HandleSettingsSetModels handles the settings_set_models tool call.
func (h *Handlers) HandleSettingsSetModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetModelsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	next := h.settings.Update(func(st *settings.Settings) {
		if input.BaseURL != nil {
			st.Models.BaseURL = *input.BaseURL
		}
		if input.APIKey != nil {
			st.Models.APIKey = *input.APIKey
		}
		if input.TranslationModel != nil {
			st.Models.TranslationModel = *input.TranslationModel
		}
		if input.ReplyModel != nil {
			st.Models.ReplyModel = *input.ReplyModel
		}
	})
	next.Models.APIKey = redact(next.Models.APIKey)
	return successResult(next.Models)
}

// HandleBackupSync handles the backup_sync tool call.
func (h *Handlers) HandleBackupSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.settings.Get()
	if s.Sync == nil || s.Sync.GithubToken == "" || s.Sync.GithubRepo == "" {
		return errorResult(errors.NewMissingConfig("GitHub sync is not configured")), nil
	}

	snapshot := h.conversations.Snapshot()
	backup := gsync.NewBackup(snapshot.Conversations, snapshot.Tags, snapshot.ActiveID, s)
	if err := h.newTransport(*s.Sync).Upload(ctx, backup); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"uploaded":      true,
		"conversations": len(snapshot.Conversations),
		"timestamp":     backup.Timestamp,
	})
}

// HandleBackupRestore handles the backup_restore tool call.
func (h *Handlers) HandleBackupRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s := h.settings.Get()
	if s.Sync == nil || s.Sync.GithubToken == "" || s.Sync.GithubRepo == "" {
		return errorResult(errors.NewMissingConfig("GitHub sync is not configured")), nil
	}

	backup, err := h.newTransport(*s.Sync).Download(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if backup == nil {
		return errorResult(errors.NewNotFound("remote backup")), nil
	}

	// The downloaded document goes through the same hydration rules as a
	// persisted snapshot before it replaces local state.
	activeID := ""
	if backup.ActiveID != nil {
		activeID = *backup.ActiveID
	}
	imported := state.DecodeImported(backup.Conversations, backup.Tags, activeID, time.Now())
	next := h.conversations.Dispatch(state.Import{State: imported})
	h.settings.Replace(backup.Settings)

	return successResult(map[string]any{
		"restored":      true,
		"conversations": len(next.Conversations),
		"tags":          len(next.Tags),
		"activeId":      next.ActiveID,
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.AssistError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
