package state

import (
	"crypto/rand"
	"encoding/json"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parleyhq/parley/internal/conversation"
)

// Placeholder markers written into draft reply rows.
const (
	PendingReplyContent = "(pending reply generation)"
	NoIntentMarker      = "(no intent provided)"
)

// DefaultTitleBase is the stem of auto-generated conversation titles.
const DefaultTitleBase = "Untitled Conversation"

// State is the global conversation state: the active conversation id (empty
// means none) plus the conversation and tag registries. Values are treated
// as immutable snapshots; Apply never mutates its input.
type State struct {
	ActiveID      string
	Conversations map[string]conversation.Conversation
	Tags          map[string]conversation.Tag
}

// Empty returns a fresh empty state.
func Empty() State {
	return State{
		Conversations: map[string]conversation.Conversation{},
		Tags:          map[string]conversation.Tag{},
	}
}

// legacySeedIDs are bundled demo conversations from early releases; they are
// filtered out of every loaded snapshot.
var legacySeedIDs = map[string]bool{
	"acme-rfp":          true,
	"launch-brief":      true,
	"supplier-checkin":  true,
	"support-ticket":    true,
	"contract-revision": true,
	"pricing-followup":  true,
	"pilot-feedback":    true,
	"holiday-offer":     true,
}

// document is the persisted JSON shape of State.
type document struct {
	ActiveID      *string                              `json:"activeId"`
	Conversations map[string]conversation.Conversation `json:"conversations"`
	Tags          map[string]conversation.Tag          `json:"tags"`
}

// rawDocument is the loosely-typed shape used during hydration; entities
// decode individually so one malformed entry cannot poison the rest.
type rawDocument struct {
	ActiveID      *string                    `json:"activeId"`
	Conversations json.RawMessage            `json:"conversations"`
	Tags          map[string]json.RawMessage `json:"tags"`
}

// Encode serializes the state into its persisted document form.
func Encode(s State) (string, error) {
	doc := document{
		Conversations: s.Conversations,
		Tags:          s.Tags,
	}
	if s.ActiveID != "" {
		id := s.ActiveID
		doc.ActiveID = &id
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a persisted snapshot, dropping malformed entities and legacy
// seed data, and revalidating the active id. It never fails: unparseable
// input degrades to the empty state.
func Decode(raw string, now time.Time) State {
	var doc rawDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Empty()
	}

	conversations := decodeConversations(doc.Conversations, now)
	for id := range conversations {
		if legacySeedIDs[id] {
			delete(conversations, id)
		}
	}
	tags := map[string]conversation.Tag{}
	for _, rawTag := range doc.Tags {
		if tag, ok := conversation.DecodeTag(rawTag); ok {
			tags[tag.ID] = tag
		}
	}

	activeID := ""
	if doc.ActiveID != nil {
		if _, ok := conversations[*doc.ActiveID]; ok {
			activeID = *doc.ActiveID
		}
	}
	if activeID == "" {
		activeID = fallbackActiveID(conversations)
	}

	return State{
		ActiveID:      activeID,
		Conversations: conversations,
		Tags:          tags,
	}
}

// DecodeImported runs an externally sourced snapshot (a restored backup)
// through the same per-entity hydration rules as a persisted document, so
// mismatched mirrors, malformed entities, and legacy seed conversations
// are dropped before the snapshot enters the store.
func DecodeImported(conversations map[string]conversation.Conversation, tags map[string]conversation.Tag, activeID string, now time.Time) State {
	doc := document{Conversations: conversations, Tags: tags}
	if activeID != "" {
		id := activeID
		doc.ActiveID = &id
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return Empty()
	}
	return Decode(string(data), now)
}

// decodeConversations accepts both the current object form and the legacy
// array form of the conversations collection.
func decodeConversations(raw json.RawMessage, now time.Time) map[string]conversation.Conversation {
	out := map[string]conversation.Conversation{}
	if len(raw) == 0 {
		return out
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for _, entry := range asMap {
			if c, ok := conversation.DecodeConversation(entry, now); ok {
				out[c.ID] = c
			}
		}
		return out
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, entry := range asList {
			if c, ok := conversation.DecodeConversation(entry, now); ok {
				out[c.ID] = c
			}
		}
	}
	return out
}

// fallbackActiveID picks the most-recently-updated non-archived
// conversation, falling back to any conversation.
func fallbackActiveID(conversations map[string]conversation.Conversation) string {
	candidates := make([]conversation.Conversation, 0, len(conversations))
	for _, c := range conversations {
		if c.ArchivedAt == nil {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		for _, c := range conversations {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].UpdatedAt.Equal(candidates[j].UpdatedAt) {
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0].ID
}

// Active returns the active conversation, if any.
func (s State) Active() (conversation.Conversation, bool) {
	if s.ActiveID == "" {
		return conversation.Conversation{}, false
	}
	c, ok := s.Conversations[s.ActiveID]
	return c, ok
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewConversationID allocates a conversation id.
func NewConversationID() string {
	return "conversation-" + newULID()
}

// NewRowID allocates a feed row id scoped to a conversation.
func NewRowID(conversationID string) string {
	return conversationID + "-row-" + newULID()
}

// NewTagID allocates a tag id.
func NewTagID() string {
	return "tag-" + newULID()
}
