package state

import (
	"sort"

	"github.com/parleyhq/parley/internal/conversation"
)

// PinnedConversations lists pinned, non-archived conversations sorted by
// pin time descending, ties broken by most recent update.
func PinnedConversations(s State) []conversation.Conversation {
	var out []conversation.Conversation
	for _, c := range s.Conversations {
		if c.PinnedAt != nil && c.ArchivedAt == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PinnedAt.Equal(*out[j].PinnedAt) {
			return out[i].PinnedAt.After(*out[j].PinnedAt)
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RecentConversations lists conversations that are neither pinned nor
// archived, most recently updated first.
func RecentConversations(s State) []conversation.Conversation {
	var out []conversation.Conversation
	for _, c := range s.Conversations {
		if c.PinnedAt == nil && c.ArchivedAt == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ArchivedConversations lists archived conversations sorted by archive time
// descending, ties broken by most recent update.
func ArchivedConversations(s State) []conversation.Conversation {
	var out []conversation.Conversation
	for _, c := range s.Conversations {
		if c.ArchivedAt != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ArchivedAt.Equal(*out[j].ArchivedAt) {
			return out[i].ArchivedAt.After(*out[j].ArchivedAt)
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AllTags lists tags sorted by name.
func AllTags(s State) []conversation.Tag {
	out := make([]conversation.Tag, 0, len(s.Tags))
	for _, tag := range s.Tags {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
