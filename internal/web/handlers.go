package web

import (
	"net/http"
	"strings"

	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/prompt"
	"github.com/parleyhq/parley/internal/state"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	conversations *state.Store
	renderer      *Renderer
}

// HandleList handles GET /conversations — pinned, recent and archived sections.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	snapshot := h.conversations.Snapshot()

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Conversations",
			Version: h.renderer.version,
			Nav:     "conversations",
		},
		Pinned:   items(state.PinnedConversations(snapshot), snapshot),
		Recent:   items(state.RecentConversations(snapshot), snapshot),
		Archived: items(state.ArchivedConversations(snapshot), snapshot),
	})
}

// HandleDetail handles GET /conversations/{id} — feed with mirrors.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("conversation ID is required"))
		return
	}

	snapshot := h.conversations.Snapshot()
	c, ok := snapshot.Conversations[id]
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	feed := make([]FeedRowView, 0, len(c.Feed))
	for _, row := range c.Feed {
		view := FeedRowView{
			ID:          row.ID,
			Role:        string(row.Message.Role),
			Timestamp:   row.Message.Timestamp,
			ContentHTML: renderMarkdown(row.Message.Content),
		}
		if row.Mirror != nil {
			view.HasMirror = true
			view.MirrorType = string(row.Mirror.Type)
			view.MirrorStatus = string(row.Mirror.Status)
			view.MirrorPending = row.Mirror.Status == conversation.StatusIdle || row.Mirror.Status == conversation.StatusLoading
			view.MirrorError = row.Mirror.Error
			if row.Mirror.Content != "" {
				view.MirrorHTML = renderMarkdown(row.Mirror.Content)
			}
		}
		feed = append(feed, view)
	}

	tone := prompt.ResolveTone(c.TonePresetID)

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   c.Title,
			Version: h.renderer.version,
			Nav:     "conversations",
		},
		Conversation:  item(c, snapshot),
		ReplyLanguage: prompt.ResolveReplyLanguage(c.ReplyLanguage),
		ToneLabel:     tone.Label,
		Feed:          feed,
		TagNames:      tagNames(c, snapshot),
	})
}

// HandleDelete handles DELETE /conversations/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("conversation ID is required"))
		return
	}

	snapshot := h.conversations.Snapshot()
	if _, ok := snapshot.Conversations[id]; !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}
	h.conversations.Dispatch(state.Delete{ID: id})

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/conversations")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"id":      id,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/conversations", http.StatusFound)
}

func item(c conversation.Conversation, s state.State) ConversationItem {
	return ConversationItem{
		ID:         c.ID,
		Title:      c.Title,
		UpdatedAt:  c.UpdatedAt,
		Pinned:     c.PinnedAt != nil,
		Archived:   c.ArchivedAt != nil,
		Active:     c.ID == s.ActiveID,
		FeedLength: len(c.Feed),
		TagNames:   tagNames(c, s),
	}
}

func items(cs []conversation.Conversation, s state.State) []ConversationItem {
	out := make([]ConversationItem, 0, len(cs))
	for _, c := range cs {
		out = append(out, item(c, s))
	}
	return out
}

// tagNames resolves a conversation's tag ids to display names, dropping
// ids with no backing tag.
func tagNames(c conversation.Conversation, s state.State) []string {
	names := make([]string, 0, len(c.Tags))
	for _, id := range c.Tags {
		if tag, ok := s.Tags[id]; ok {
			names = append(names, tag.Name)
		}
	}
	return names
}
