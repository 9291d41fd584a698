package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
)

// Apply computes the next state for an action. It is pure: the input state
// is never mutated, and actions that change nothing return the input state
// unchanged so callers can detect no-ops by identity.
func Apply(s State, action Action) State {
	switch a := action.(type) {
	case Create:
		return applyCreate(s, a)
	case SetActive:
		return applySetActive(s, a)
	case Rename:
		return applyRename(s, a)
	case TogglePin:
		return applyTogglePin(s, a)
	case ToggleArchive:
		return applyToggleArchive(s, a)
	case AddPartnerMessage:
		return applyAddPartnerMessage(s, a)
	case AddSelfMessage:
		return applyAddSelfMessage(s, a)
	case AddIntentDraft:
		return applyAddIntentDraft(s, a)
	case UpdateMessage:
		return applyUpdateMessage(s, a)
	case UpdateMirror:
		return applyUpdateMirror(s, a)
	case RemoveFeedRow:
		return applyRemoveFeedRow(s, a)
	case SetReplyLanguage:
		return applySetReplyLanguage(s, a)
	case SetTonePreset:
		return applySetTonePreset(s, a)
	case SetSelectedReferenceIDs:
		return applySetSelectedReferenceIDs(s, a)
	case SetSelectedQuoteIDs:
		return applySetSelectedQuoteIDs(s, a)
	case Delete:
		return applyDelete(s, a)
	case CreateTag:
		return applyCreateTag(s, a)
	case DeleteTag:
		return applyDeleteTag(s, a)
	case ToggleConversationTag:
		return applyToggleConversationTag(s, a)
	case Import:
		return a.State
	default:
		return s
	}
}

func actionTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// withConversation returns a shallow copy of s with one conversation
// replaced. The conversations map is copied; other conversations are shared.
func withConversation(s State, c conversation.Conversation) State {
	next := s
	next.Conversations = make(map[string]conversation.Conversation, len(s.Conversations)+1)
	for id, existing := range s.Conversations {
		next.Conversations[id] = existing
	}
	next.Conversations[c.ID] = c
	return next
}

// generateDefaultTitle produces "Untitled Conversation", "Untitled
// Conversation 2", ... skipping titles already in use, optionally excluding
// one conversation from the collision check.
func generateDefaultTitle(conversations map[string]conversation.Conversation, excludeID string) string {
	used := map[string]bool{}
	for id, c := range conversations {
		if id == excludeID {
			continue
		}
		used[c.Title] = true
	}
	if !used[DefaultTitleBase] {
		return DefaultTitleBase
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", DefaultTitleBase, n)
		if !used[candidate] {
			return candidate
		}
	}
}

func applyCreate(s State, a Create) State {
	if a.ID == "" {
		return s
	}
	if _, exists := s.Conversations[a.ID]; exists {
		return s
	}
	now := actionTime(a.Time)
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = generateDefaultTitle(s.Conversations, "")
	}
	c := conversation.Conversation{
		ID:            a.ID,
		Title:         title,
		UpdatedAt:     now,
		Feed:          []conversation.FeedRow{},
		ReplyLanguage: conversation.DefaultReplyLanguage,
		TonePresetID:  conversation.DefaultTonePresetID,
	}
	next := withConversation(s, c)
	next.ActiveID = a.ID
	return next
}

func applySetActive(s State, a SetActive) State {
	if a.ID == s.ActiveID {
		return s
	}
	if a.ID != "" {
		if _, ok := s.Conversations[a.ID]; !ok {
			return s
		}
	}
	next := s
	next.ActiveID = a.ID
	return next
}

func applyRename(s State, a Rename) State {
	c, ok := s.Conversations[a.ID]
	if !ok {
		return s
	}
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = generateDefaultTitle(s.Conversations, a.ID)
	}
	if title == c.Title {
		return s
	}
	updated := c.Clone()
	updated.Title = title
	updated.UpdatedAt = actionTime(a.Time)
	return withConversation(s, updated)
}

func applyTogglePin(s State, a TogglePin) State {
	c, ok := s.Conversations[a.ID]
	if !ok {
		return s
	}
	now := actionTime(a.Time)
	updated := c.Clone()
	if updated.PinnedAt != nil {
		updated.PinnedAt = nil
	} else {
		t := now
		updated.PinnedAt = &t
	}
	updated.UpdatedAt = now
	return withConversation(s, updated)
}

func applyToggleArchive(s State, a ToggleArchive) State {
	c, ok := s.Conversations[a.ID]
	if !ok {
		return s
	}
	now := actionTime(a.Time)
	updated := c.Clone()
	if updated.ArchivedAt != nil {
		updated.ArchivedAt = nil
	} else {
		t := now
		updated.ArchivedAt = &t
	}
	updated.UpdatedAt = now
	return withConversation(s, updated)
}

// appendFeedRow appends a row to a conversation's feed, bumps UpdatedAt to
// the row timestamp, and claims the active slot when none is set.
func appendFeedRow(s State, conversationID string, row conversation.FeedRow, now time.Time) State {
	c, ok := s.Conversations[conversationID]
	if !ok {
		return s
	}
	updated := c.Clone()
	updated.Feed = append(updated.Feed, row)
	updated.UpdatedAt = now
	next := withConversation(s, updated)
	if next.ActiveID == "" {
		next.ActiveID = conversationID
	}
	return next
}

func applyAddPartnerMessage(s State, a AddPartnerMessage) State {
	content := strings.TrimSpace(a.Content)
	if content == "" {
		return s
	}
	now := actionTime(a.Time)
	rowID := a.RowID
	if rowID == "" {
		rowID = NewRowID(a.ConversationID)
	}
	row := conversation.NewPartnerRow(rowID, content, now)
	return appendFeedRow(s, a.ConversationID, row, now)
}

func applyAddSelfMessage(s State, a AddSelfMessage) State {
	content := strings.TrimSpace(a.Content)
	if content == "" {
		return s
	}
	now := actionTime(a.Time)
	rowID := a.RowID
	if rowID == "" {
		rowID = NewRowID(a.ConversationID)
	}
	intent := strings.TrimSpace(a.Intent)
	if intent == "" {
		intent = NoIntentMarker
	}
	row := conversation.NewSelfRow(rowID, content, intent, now)
	return appendFeedRow(s, a.ConversationID, row, now)
}

// applyAddIntentDraft appends a self row whose message is a pending
// placeholder; the reply content arrives through a later UpdateMessage.
func applyAddIntentDraft(s State, a AddIntentDraft) State {
	intent := strings.TrimSpace(a.Intent)
	if intent == "" {
		intent = NoIntentMarker
	}
	now := actionTime(a.Time)
	rowID := a.RowID
	if rowID == "" {
		rowID = NewRowID(a.ConversationID)
	}
	row := conversation.NewSelfRow(rowID, PendingReplyContent, intent, now)
	return appendFeedRow(s, a.ConversationID, row, now)
}

func applyUpdateMessage(s State, a UpdateMessage) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	idx := rowIndex(c.Feed, a.RowID)
	if idx < 0 {
		return s
	}
	now := actionTime(a.Time)
	updated := c.Clone()
	row := &updated.Feed[idx]
	row.Message.Content = a.Content
	row.Message.Timestamp = now
	if a.Intent != nil && row.Message.Role == conversation.RoleSelf {
		if row.Mirror == nil {
			row.Mirror = &conversation.Mirror{
				Type:      conversation.MirrorIntent,
				Content:   *a.Intent,
				Timestamp: now,
				Status:    conversation.StatusReady,
			}
		} else {
			row.Mirror.Content = *a.Intent
			row.Mirror.Timestamp = now
		}
	}
	updated.UpdatedAt = now
	return withConversation(s, updated)
}

func applyUpdateMirror(s State, a UpdateMirror) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	idx := rowIndex(c.Feed, a.RowID)
	if idx < 0 {
		return s
	}
	if c.Feed[idx].Mirror == nil {
		return s
	}
	now := actionTime(a.Time)
	updated := c.Clone()
	mirror := updated.Feed[idx].Mirror
	if a.Patch.Status != nil {
		mirror.Status = *a.Patch.Status
	}
	if a.Patch.Content != nil {
		mirror.Content = *a.Patch.Content
	}
	if a.Patch.Highlights != nil {
		mirror.Highlights = append([]string(nil), a.Patch.Highlights...)
	}
	if a.Patch.Error != nil {
		mirror.Error = *a.Patch.Error
	}
	if mirror.Status != conversation.StatusError {
		mirror.Error = ""
	}
	mirror.Timestamp = now
	updated.UpdatedAt = now
	return withConversation(s, updated)
}

func applyRemoveFeedRow(s State, a RemoveFeedRow) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	idx := rowIndex(c.Feed, a.RowID)
	if idx < 0 {
		return s
	}
	now := actionTime(a.Time)
	updated := c.Clone()
	updated.Feed = append(updated.Feed[:idx], updated.Feed[idx+1:]...)
	updated.UpdatedAt = now
	return withConversation(s, updated)
}

func applySetReplyLanguage(s State, a SetReplyLanguage) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	lang := strings.TrimSpace(a.ReplyLanguage)
	if lang == "" {
		lang = conversation.DefaultReplyLanguage
	}
	if lang == c.ReplyLanguage {
		return s
	}
	updated := c.Clone()
	updated.ReplyLanguage = lang
	updated.UpdatedAt = actionTime(a.Time)
	return withConversation(s, updated)
}

func applySetTonePreset(s State, a SetTonePreset) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	preset := strings.TrimSpace(a.TonePresetID)
	if preset == "" {
		preset = conversation.DefaultTonePresetID
	}
	if preset == c.TonePresetID {
		return s
	}
	updated := c.Clone()
	updated.TonePresetID = preset
	updated.UpdatedAt = actionTime(a.Time)
	return withConversation(s, updated)
}

func applySetSelectedReferenceIDs(s State, a SetSelectedReferenceIDs) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	ids := conversation.DedupeIDs(a.IDs)
	if conversation.SameIDSet(ids, c.SelectedReferenceIDs) {
		return s
	}
	updated := c.Clone()
	updated.SelectedReferenceIDs = ids
	updated.UpdatedAt = actionTime(a.Time)
	return withConversation(s, updated)
}

func applySetSelectedQuoteIDs(s State, a SetSelectedQuoteIDs) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	ids := conversation.DedupeIDs(a.IDs)
	if conversation.SameIDSet(ids, c.SelectedQuoteIDs) {
		return s
	}
	updated := c.Clone()
	updated.SelectedQuoteIDs = ids
	updated.UpdatedAt = actionTime(a.Time)
	return withConversation(s, updated)
}

func applyDelete(s State, a Delete) State {
	if _, ok := s.Conversations[a.ID]; !ok {
		return s
	}
	next := s
	next.Conversations = make(map[string]conversation.Conversation, len(s.Conversations))
	for id, c := range s.Conversations {
		if id != a.ID {
			next.Conversations[id] = c
		}
	}
	if s.ActiveID == a.ID {
		next.ActiveID = fallbackActiveID(next.Conversations)
	}
	return next
}

func applyCreateTag(s State, a CreateTag) State {
	if a.ID == "" {
		return s
	}
	if _, exists := s.Tags[a.ID]; exists {
		return s
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return s
	}
	for _, tag := range s.Tags {
		if strings.EqualFold(tag.Name, name) {
			return s
		}
	}
	next := s
	next.Tags = make(map[string]conversation.Tag, len(s.Tags)+1)
	for id, tag := range s.Tags {
		next.Tags[id] = tag
	}
	next.Tags[a.ID] = conversation.Tag{ID: a.ID, Name: name, Color: a.Color}
	return next
}

func applyDeleteTag(s State, a DeleteTag) State {
	if _, ok := s.Tags[a.ID]; !ok {
		return s
	}
	next := s
	next.Tags = make(map[string]conversation.Tag, len(s.Tags))
	for id, tag := range s.Tags {
		if id != a.ID {
			next.Tags[id] = tag
		}
	}
	next.Conversations = make(map[string]conversation.Conversation, len(s.Conversations))
	for id, c := range s.Conversations {
		if containsID(c.Tags, a.ID) {
			updated := c.Clone()
			updated.Tags = removeID(updated.Tags, a.ID)
			next.Conversations[id] = updated
		} else {
			next.Conversations[id] = c
		}
	}
	return next
}

func applyToggleConversationTag(s State, a ToggleConversationTag) State {
	c, ok := s.Conversations[a.ConversationID]
	if !ok {
		return s
	}
	if _, ok := s.Tags[a.TagID]; !ok {
		return s
	}
	updated := c.Clone()
	if containsID(updated.Tags, a.TagID) {
		updated.Tags = removeID(updated.Tags, a.TagID)
	} else {
		updated.Tags = append(updated.Tags, a.TagID)
	}
	return withConversation(s, updated)
}

func rowIndex(feed []conversation.FeedRow, rowID string) int {
	for i := range feed {
		if feed[i].ID == rowID {
			return i
		}
	}
	return -1
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
