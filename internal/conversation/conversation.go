package conversation

import (
	"strings"
	"time"
)

// Role identifies who authored a feed message.
type Role string

const (
	// RolePartner is the external counterparty.
	RolePartner Role = "partner"

	// RoleSelf is the local user.
	RoleSelf Role = "self"
)

// MirrorType identifies the kind of AI-derived counterpart a row carries.
// It is fully determined by the message role: partner messages carry an
// analysis mirror, self messages carry an intent mirror.
type MirrorType string

const (
	MirrorAnalysis MirrorType = "analysis"
	MirrorIntent   MirrorType = "intent"
)

// MirrorTypeFor returns the mirror type a message role requires.
func MirrorTypeFor(role Role) MirrorType {
	if role == RolePartner {
		return MirrorAnalysis
	}
	return MirrorIntent
}

// Status is the lifecycle state of a mirror cell.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusIdle, StatusLoading, StatusReady, StatusError:
		return true
	}
	return false
}

// Message is one human-authored turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Mirror is the AI-derived counterpart of a message: a translation/analysis
// for partner messages, or the originating intent for self messages.
// Error is non-empty only while Status is StatusError.
type Mirror struct {
	Type       MirrorType `json:"type"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Highlights []string   `json:"highlights,omitempty"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// MirrorPatch is a partial mirror update. Nil fields are left unchanged.
type MirrorPatch struct {
	Status     *Status
	Content    *string
	Highlights []string
	Error      *string
}

// FeedRow pairs a message with its optional mirror.
type FeedRow struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`
	Mirror  *Mirror `json:"mirror,omitempty"`
}

// Conversation is one business thread.
type Conversation struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	PinnedAt   *time.Time `json:"pinnedAt,omitempty"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	Feed       []FeedRow  `json:"feed"`

	// Generation preferences
	ReplyLanguage        string   `json:"replyLanguage"`
	TonePresetID         string   `json:"tonePresetId"`
	SelectedReferenceIDs []string `json:"selectedReferenceIds"`
	SelectedQuoteIDs     []string `json:"selectedQuoteIds"`

	// Tag ids are weak references into the global tag registry.
	Tags []string `json:"tags"`
}

// Tag is a named label with a style token color.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

const (
	// DefaultReplyLanguage means "match the partner's language".
	DefaultReplyLanguage = "auto"

	// DefaultTonePresetID is the fallback tone preset.
	DefaultTonePresetID = "concise"
)

// NewPartnerRow builds a partner feed row with an idle analysis mirror.
func NewPartnerRow(id, content string, now time.Time) FeedRow {
	return FeedRow{
		ID: id,
		Message: Message{
			Role:      RolePartner,
			Content:   content,
			Timestamp: now,
		},
		Mirror: &Mirror{
			Type:      MirrorAnalysis,
			Content:   "",
			Timestamp: now,
			Status:    StatusIdle,
		},
	}
}

// NewSelfRow builds a self feed row with an intent mirror seeded with the
// optional intent text.
func NewSelfRow(id, content, intent string, now time.Time) FeedRow {
	return FeedRow{
		ID: id,
		Message: Message{
			Role:      RoleSelf,
			Content:   content,
			Timestamp: now,
		},
		Mirror: &Mirror{
			Type:      MirrorIntent,
			Content:   intent,
			Timestamp: now,
			Status:    StatusIdle,
		},
	}
}

// Clone returns a deep copy of the conversation. The feed slice, each row's
// mirror, and the id slices are copied so the result can be mutated without
// touching the original.
func (c Conversation) Clone() Conversation {
	out := c
	out.Feed = make([]FeedRow, len(c.Feed))
	for i, row := range c.Feed {
		out.Feed[i] = row.Clone()
	}
	out.SelectedReferenceIDs = append([]string(nil), c.SelectedReferenceIDs...)
	out.SelectedQuoteIDs = append([]string(nil), c.SelectedQuoteIDs...)
	out.Tags = append([]string(nil), c.Tags...)
	if c.PinnedAt != nil {
		t := *c.PinnedAt
		out.PinnedAt = &t
	}
	if c.ArchivedAt != nil {
		t := *c.ArchivedAt
		out.ArchivedAt = &t
	}
	return out
}

// Clone returns a deep copy of the row.
func (r FeedRow) Clone() FeedRow {
	out := r
	if r.Mirror != nil {
		m := *r.Mirror
		m.Highlights = append([]string(nil), r.Mirror.Highlights...)
		out.Mirror = &m
	}
	return out
}

// Row returns the feed row with the given id, or nil if absent.
func (c Conversation) Row(rowID string) *FeedRow {
	for i := range c.Feed {
		if c.Feed[i].ID == rowID {
			return &c.Feed[i]
		}
	}
	return nil
}

// DedupeIDs trims, drops empties, and removes duplicates preserving the
// first-seen order.
func DedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

// SameIDSet reports whether a and b contain the same ids, ignoring order.
func SameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
