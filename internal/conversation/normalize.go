package conversation

import (
	"encoding/json"
	"strings"
	"time"
)

// Hydration tolerates malformed persisted data by dropping the offending
// entity and keeping the rest. Each Decode* function unmarshals one raw
// entity into a loose shape and normalizes it; ok=false means "skip".

type rawConversation struct {
	ID                   string            `json:"id"`
	Title                string            `json:"title"`
	UpdatedAt            *time.Time        `json:"updatedAt"`
	PinnedAt             *time.Time        `json:"pinnedAt"`
	ArchivedAt           *time.Time        `json:"archivedAt"`
	Feed                 []json.RawMessage `json:"feed"`
	ReplyLanguage        string            `json:"replyLanguage"`
	TonePresetID         string            `json:"tonePresetId"`
	SelectedReferenceIDs []string          `json:"selectedReferenceIds"`
	SelectedQuoteIDs     []string          `json:"selectedQuoteIds"`
	Tags                 []string          `json:"tags"`
}

type rawRow struct {
	ID      string          `json:"id"`
	Message json.RawMessage `json:"message"`
	Mirror  json.RawMessage `json:"mirror"`
}

type rawMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	Timestamp *time.Time `json:"timestamp"`
}

type rawMirror struct {
	Type       string     `json:"type"`
	Content    *string    `json:"content"`
	Timestamp  *time.Time `json:"timestamp"`
	Highlights []string   `json:"highlights"`
	Status     string     `json:"status"`
	Error      string     `json:"error"`
}

// DecodeConversation normalizes one persisted conversation. A conversation
// without a string id and title is dropped; malformed feed rows are dropped
// individually, the rest of the feed survives.
func DecodeConversation(raw json.RawMessage, now time.Time) (Conversation, bool) {
	var rc rawConversation
	if err := json.Unmarshal(raw, &rc); err != nil {
		return Conversation{}, false
	}
	if rc.ID == "" || rc.Title == "" {
		return Conversation{}, false
	}

	feed := make([]FeedRow, 0, len(rc.Feed))
	for _, rawEntry := range rc.Feed {
		if row, ok := decodeFeedRow(rawEntry, now); ok {
			feed = append(feed, row)
		}
	}

	updatedAt := now
	if rc.UpdatedAt != nil {
		updatedAt = *rc.UpdatedAt
	}

	replyLanguage := strings.TrimSpace(rc.ReplyLanguage)
	if replyLanguage == "" {
		replyLanguage = DefaultReplyLanguage
	}
	tonePresetID := rc.TonePresetID
	if tonePresetID == "" {
		tonePresetID = DefaultTonePresetID
	}

	return Conversation{
		ID:                   rc.ID,
		Title:                rc.Title,
		UpdatedAt:            updatedAt,
		PinnedAt:             rc.PinnedAt,
		ArchivedAt:           rc.ArchivedAt,
		Feed:                 feed,
		ReplyLanguage:        replyLanguage,
		TonePresetID:         tonePresetID,
		SelectedReferenceIDs: DedupeIDs(rc.SelectedReferenceIDs),
		SelectedQuoteIDs:     DedupeIDs(rc.SelectedQuoteIDs),
		Tags:                 DedupeIDs(rc.Tags),
	}, true
}

// decodeFeedRow normalizes one feed row. Rows without an id or a valid
// message are dropped; a mirror whose type does not match the message role
// is dropped while the row itself is kept.
func decodeFeedRow(raw json.RawMessage, now time.Time) (FeedRow, bool) {
	var rr rawRow
	if err := json.Unmarshal(raw, &rr); err != nil {
		return FeedRow{}, false
	}
	if rr.ID == "" {
		return FeedRow{}, false
	}

	message, ok := decodeMessage(rr.Message, now)
	if !ok {
		return FeedRow{}, false
	}

	row := FeedRow{ID: rr.ID, Message: message}
	if len(rr.Mirror) > 0 && string(rr.Mirror) != "null" {
		if mirror, ok := decodeMirror(rr.Mirror, message.Role, now); ok {
			row.Mirror = &mirror
		}
	}
	return row, true
}

func decodeMessage(raw json.RawMessage, now time.Time) (Message, bool) {
	if len(raw) == 0 {
		return Message{}, false
	}
	var rm rawMessage
	if err := json.Unmarshal(raw, &rm); err != nil {
		return Message{}, false
	}
	role := Role(rm.Role)
	if role != RolePartner && role != RoleSelf {
		return Message{}, false
	}
	if rm.Content == nil {
		return Message{}, false
	}
	timestamp := now
	if rm.Timestamp != nil {
		timestamp = *rm.Timestamp
	}
	return Message{Role: role, Content: *rm.Content, Timestamp: timestamp}, true
}

func decodeMirror(raw json.RawMessage, role Role, now time.Time) (Mirror, bool) {
	var rm rawMirror
	if err := json.Unmarshal(raw, &rm); err != nil {
		return Mirror{}, false
	}
	if MirrorType(rm.Type) != MirrorTypeFor(role) {
		return Mirror{}, false
	}
	if rm.Content == nil {
		return Mirror{}, false
	}

	timestamp := now
	if rm.Timestamp != nil {
		timestamp = *rm.Timestamp
	}

	var highlights []string
	for _, h := range rm.Highlights {
		if h != "" {
			highlights = append(highlights, h)
		}
	}

	// Backfill a missing or unknown status from the content: non-empty
	// content means a completed generation.
	status := Status(rm.Status)
	if !ValidStatus(status) {
		if strings.TrimSpace(*rm.Content) != "" {
			status = StatusReady
		} else {
			status = StatusIdle
		}
	}

	errMsg := rm.Error
	if status != StatusError {
		errMsg = ""
	}

	return Mirror{
		Type:       MirrorTypeFor(role),
		Content:    *rm.Content,
		Timestamp:  timestamp,
		Highlights: highlights,
		Status:     status,
		Error:      errMsg,
	}, true
}

// DecodeTag normalizes one persisted tag; tags without id or name are dropped.
func DecodeTag(raw json.RawMessage) (Tag, bool) {
	var tag Tag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return Tag{}, false
	}
	if tag.ID == "" || tag.Name == "" {
		return Tag{}, false
	}
	return tag, true
}
