package state

import (
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/internal/kv"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Quarterly Review")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "能提前交付吗", RowID: "r1", Time: testNow})
	s = Apply(s, CreateTag{ID: "tag-1", Name: "supplier", Color: "#28a"})
	s = Apply(s, ToggleConversationTag{ConversationID: "c1", TagID: "tag-1"})

	encoded, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded := Decode(encoded, testNow)

	if decoded.ActiveID != "c1" {
		t.Errorf("activeId = %q, want c1", decoded.ActiveID)
	}
	c, ok := decoded.Conversations["c1"]
	if !ok {
		t.Fatal("conversation lost in round trip")
	}
	if c.Title != "Quarterly Review" || len(c.Feed) != 1 {
		t.Errorf("conversation = %+v", c)
	}
	if c.Feed[0].Message.Content != "能提前交付吗" {
		t.Errorf("message content = %q", c.Feed[0].Message.Content)
	}
	if _, ok := decoded.Tags["tag-1"]; !ok {
		t.Error("tag lost in round trip")
	}
}

func TestDecodeDropsLegacySeeds(t *testing.T) {
	raw := `{
		"activeId": "acme-rfp",
		"conversations": {
			"acme-rfp": {"id": "acme-rfp", "title": "Acme RFP", "updatedAt": "2025-01-01T00:00:00Z"},
			"c1": {"id": "c1", "title": "Real", "updatedAt": "2025-01-02T00:00:00Z"}
		},
		"tags": {}
	}`
	s := Decode(raw, testNow)

	if _, ok := s.Conversations["acme-rfp"]; ok {
		t.Error("legacy seed conversation survived hydration")
	}
	if _, ok := s.Conversations["c1"]; !ok {
		t.Fatal("real conversation dropped")
	}
	// Active id pointed at a filtered seed; it falls back to c1.
	if s.ActiveID != "c1" {
		t.Errorf("activeId = %q, want c1", s.ActiveID)
	}
}

func TestDecodeDropsMalformedEntries(t *testing.T) {
	raw := `{
		"activeId": "c1",
		"conversations": {
			"c1": {"id": "c1", "title": "Good", "updatedAt": "2025-01-01T00:00:00Z"},
			"c2": {"title": "missing id"},
			"c3": "not an object"
		},
		"tags": {
			"tag-1": {"id": "tag-1", "name": "ok", "color": "#000"},
			"tag-2": {"name": "missing id"}
		}
	}`
	s := Decode(raw, testNow)

	if len(s.Conversations) != 1 {
		t.Errorf("conversations = %d, want 1 surviving entry", len(s.Conversations))
	}
	if len(s.Tags) != 1 {
		t.Errorf("tags = %d, want 1 surviving entry", len(s.Tags))
	}
}

func TestDecodeUnparseableInputIsEmpty(t *testing.T) {
	s := Decode("{not json", testNow)
	if len(s.Conversations) != 0 || len(s.Tags) != 0 || s.ActiveID != "" {
		t.Errorf("garbage input should hydrate empty, got %+v", s)
	}
}

func TestDecodeRevalidatesActiveID(t *testing.T) {
	raw := `{
		"activeId": "ghost",
		"conversations": {
			"c1": {"id": "c1", "title": "Only", "updatedAt": "2025-01-01T00:00:00Z"}
		}
	}`
	s := Decode(raw, testNow)
	if s.ActiveID != "c1" {
		t.Errorf("activeId = %q, want fallback c1", s.ActiveID)
	}
}

func TestDecodeImported(t *testing.T) {
	conversations := map[string]conversation.Conversation{
		"c1": {
			ID:        "c1",
			Title:     "Restored",
			UpdatedAt: testNow,
			Feed: []conversation.FeedRow{
				{
					ID:      "r1",
					Message: conversation.Message{Role: conversation.RolePartner, Content: "能提前交付吗", Timestamp: testNow},
					Mirror: &conversation.Mirror{
						Type:      conversation.MirrorIntent,
						Content:   "mismatched",
						Timestamp: testNow,
						Status:    conversation.StatusReady,
					},
				},
			},
		},
		"acme-rfp": {ID: "acme-rfp", Title: "Seed", UpdatedAt: testNow},
		"":         {Title: "missing id", UpdatedAt: testNow},
	}
	tags := map[string]conversation.Tag{
		"tag-1": {ID: "tag-1", Name: "supplier", Color: "#28a"},
	}

	s := DecodeImported(conversations, tags, "ghost", testNow)

	c, ok := s.Conversations["c1"]
	if !ok {
		t.Fatal("conversation lost on import")
	}
	if len(c.Feed) != 1 {
		t.Fatalf("feed length = %d, want 1", len(c.Feed))
	}
	// A partner row cannot carry an intent mirror; the mirror is dropped
	// while the row survives.
	if c.Feed[0].Mirror != nil {
		t.Errorf("mismatched mirror survived import: %+v", c.Feed[0].Mirror)
	}
	if _, ok := s.Conversations["acme-rfp"]; ok {
		t.Error("legacy seed conversation survived import")
	}
	if len(s.Conversations) != 1 {
		t.Errorf("conversations = %d, want 1 surviving entry", len(s.Conversations))
	}
	// The imported active id is unknown; it falls back like any hydration.
	if s.ActiveID != "c1" {
		t.Errorf("activeId = %q, want fallback c1", s.ActiveID)
	}
	if _, ok := s.Tags["tag-1"]; !ok {
		t.Error("tag lost on import")
	}
}

func TestDecodeImportedNilMaps(t *testing.T) {
	s := DecodeImported(nil, nil, "", testNow)
	if s.Conversations == nil || s.Tags == nil {
		t.Error("imported state must have initialized maps")
	}
	if s.ActiveID != "" {
		t.Errorf("activeId = %q, want empty", s.ActiveID)
	}
}

func TestStoreWriteThrough(t *testing.T) {
	kvStore, err := kv.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	defer kvStore.Close()

	store, err := Open(kvStore)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	id, _ := store.Create("Negotiation")
	rowID, after := store.AddPartnerMessage(id, "We need the shipment by Friday.")
	if after.Conversations[id].Feed[0].ID != rowID {
		t.Fatalf("row id %q not in feed", rowID)
	}

	// Every dispatch is immediately readable from the KV document.
	raw, ok, err := kvStore.Get(StorageKey)
	if err != nil || !ok {
		t.Fatalf("Get(%s): ok=%v err=%v", StorageKey, ok, err)
	}
	if !strings.Contains(raw, "We need the shipment by Friday.") {
		t.Error("persisted snapshot missing latest dispatch")
	}

	// A second Store sees the same state.
	reopened, err := Open(kvStore)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Snapshot(); got.ActiveID != id || len(got.Conversations) != 1 {
		t.Errorf("reopened state = %+v", got)
	}
}

func TestStoreNoOpSkipsPersist(t *testing.T) {
	kvStore, err := kv.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	defer kvStore.Close()

	store, err := Open(kvStore)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, _ := store.Create("Foo")

	before, _, _ := kvStore.Get(StorageKey)
	store.Dispatch(SetActive{ID: id}) // already active
	store.Dispatch(RemoveFeedRow{ConversationID: id, RowID: "ghost"})
	after, _, _ := kvStore.Get(StorageKey)

	if before != after {
		t.Error("no-op dispatches rewrote the snapshot")
	}
}

func TestGeneratedIDs(t *testing.T) {
	convID := NewConversationID()
	if !strings.HasPrefix(convID, "conversation-") {
		t.Errorf("conversation id = %q", convID)
	}
	rowID := NewRowID(convID)
	if !strings.HasPrefix(rowID, convID+"-row-") {
		t.Errorf("row id = %q", rowID)
	}
	if NewTagID() == NewTagID() {
		t.Error("tag ids should be unique")
	}
}

func TestImportReplacesState(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Old")
	replacement := seedConversation(t, Empty(), "c2", "Imported")
	replacement.Conversations["c2"] = withUpdatedAt(replacement.Conversations["c2"], testNow.Add(time.Hour))

	next := Apply(s, Import{State: replacement})
	if _, ok := next.Conversations["c1"]; ok {
		t.Error("import should replace, not merge")
	}
	if _, ok := next.Conversations["c2"]; !ok {
		t.Error("imported conversation missing")
	}
}

func withUpdatedAt(c conversation.Conversation, t time.Time) conversation.Conversation {
	c = c.Clone()
	c.UpdatedAt = t
	return c
}
