package state

import (
	"reflect"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedConversation(t *testing.T, s State, id, title string) State {
	t.Helper()
	next := Apply(s, Create{ID: id, Title: title, Time: testNow})
	if _, ok := next.Conversations[id]; !ok {
		t.Fatalf("Create(%q) did not register the conversation", id)
	}
	return next
}

func TestCreateSetsDefaultsAndActive(t *testing.T) {
	s := Apply(Empty(), Create{ID: "conversation-1", Time: testNow})

	c, ok := s.Conversations["conversation-1"]
	if !ok {
		t.Fatal("conversation not created")
	}
	if c.Title != DefaultTitleBase {
		t.Errorf("title = %q, want %q", c.Title, DefaultTitleBase)
	}
	if c.ReplyLanguage != conversation.DefaultReplyLanguage {
		t.Errorf("replyLanguage = %q, want %q", c.ReplyLanguage, conversation.DefaultReplyLanguage)
	}
	if c.TonePresetID != conversation.DefaultTonePresetID {
		t.Errorf("tonePresetId = %q, want %q", c.TonePresetID, conversation.DefaultTonePresetID)
	}
	if len(c.Feed) != 0 {
		t.Errorf("feed length = %d, want 0", len(c.Feed))
	}
	if s.ActiveID != "conversation-1" {
		t.Errorf("activeId = %q, want conversation-1", s.ActiveID)
	}
}

func TestCreateUntitledSuffixes(t *testing.T) {
	s := Apply(Empty(), Create{ID: "c1", Time: testNow})
	s = Apply(s, Create{ID: "c2", Time: testNow})
	s = Apply(s, Create{ID: "c3", Time: testNow})

	titles := map[string]bool{}
	for _, c := range s.Conversations {
		if titles[c.Title] {
			t.Fatalf("duplicate title %q", c.Title)
		}
		titles[c.Title] = true
	}
	if !titles["Untitled Conversation"] || !titles["Untitled Conversation 2"] || !titles["Untitled Conversation 3"] {
		t.Errorf("unexpected title set: %v", titles)
	}
}

// Scenario: create then addPartnerMessage yields one partner row with an
// idle, empty analysis mirror.
func TestAddPartnerMessage(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "Hello", RowID: "c1-row-1", Time: testNow.Add(time.Minute)})

	c := s.Conversations["c1"]
	if len(c.Feed) != 1 {
		t.Fatalf("feed length = %d, want 1", len(c.Feed))
	}
	row := c.Feed[0]
	if row.Message.Role != conversation.RolePartner {
		t.Errorf("role = %q, want partner", row.Message.Role)
	}
	if row.Message.Content != "Hello" {
		t.Errorf("content = %q, want Hello", row.Message.Content)
	}
	if row.Mirror == nil {
		t.Fatal("partner row has no mirror")
	}
	if row.Mirror.Type != conversation.MirrorAnalysis {
		t.Errorf("mirror type = %q, want analysis", row.Mirror.Type)
	}
	if row.Mirror.Status != conversation.StatusIdle {
		t.Errorf("mirror status = %q, want idle", row.Mirror.Status)
	}
	if row.Mirror.Content != "" {
		t.Errorf("mirror content = %q, want empty", row.Mirror.Content)
	}
	if !c.UpdatedAt.Equal(testNow.Add(time.Minute)) {
		t.Errorf("updatedAt = %v, want message timestamp", c.UpdatedAt)
	}
}

func TestAddSelfMessageSeedsIntentMirror(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddSelfMessage{ConversationID: "c1", Content: "Sure, Friday works.", Intent: "confirm the meeting", RowID: "r1", Time: testNow})

	row := s.Conversations["c1"].Feed[0]
	if row.Message.Role != conversation.RoleSelf {
		t.Errorf("role = %q, want self", row.Message.Role)
	}
	if row.Mirror == nil || row.Mirror.Type != conversation.MirrorIntent {
		t.Fatalf("mirror = %+v, want intent mirror", row.Mirror)
	}
	if row.Mirror.Content != "confirm the meeting" {
		t.Errorf("mirror content = %q", row.Mirror.Content)
	}
	if row.Mirror.Status != conversation.StatusReady {
		t.Errorf("mirror status = %q, want ready", row.Mirror.Status)
	}
}

func TestAddSelfMessageWithoutIntent(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddSelfMessage{ConversationID: "c1", Content: "ok", RowID: "r1", Time: testNow})

	row := s.Conversations["c1"].Feed[0]
	if row.Mirror == nil || row.Mirror.Content != NoIntentMarker {
		t.Errorf("mirror = %+v, want %q marker", row.Mirror, NoIntentMarker)
	}
}

func TestAddIntentDraft(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddIntentDraft{ConversationID: "c1", Intent: "decline politely", RowID: "r1", Time: testNow})

	row := s.Conversations["c1"].Feed[0]
	if row.Message.Content != PendingReplyContent {
		t.Errorf("placeholder content = %q, want %q", row.Message.Content, PendingReplyContent)
	}
	if row.Mirror == nil || row.Mirror.Content != "decline politely" {
		t.Errorf("mirror = %+v, want intent text", row.Mirror)
	}

	// Blank intent falls back to the explicit marker.
	s = Apply(s, AddIntentDraft{ConversationID: "c1", Intent: "  ", RowID: "r2", Time: testNow})
	if got := s.Conversations["c1"].Feed[1].Mirror.Content; got != NoIntentMarker {
		t.Errorf("blank intent mirror = %q, want %q", got, NoIntentMarker)
	}
}

// Role/mirror correspondence holds across every row-producing action.
func TestMirrorTypeMatchesRole(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "a", RowID: "r1", Time: testNow})
	s = Apply(s, AddSelfMessage{ConversationID: "c1", Content: "b", Intent: "x", RowID: "r2", Time: testNow})
	s = Apply(s, AddIntentDraft{ConversationID: "c1", Intent: "y", RowID: "r3", Time: testNow})
	intent := "z"
	s = Apply(s, UpdateMessage{ConversationID: "c1", RowID: "r3", Content: "done", Intent: &intent, Time: testNow})

	for _, row := range s.Conversations["c1"].Feed {
		if row.Mirror == nil {
			continue
		}
		want := conversation.MirrorTypeFor(row.Message.Role)
		if row.Mirror.Type != want {
			t.Errorf("row %s: mirror type %q does not match role %q", row.ID, row.Mirror.Type, row.Message.Role)
		}
	}
}

// Missing-row mutations return the input state unchanged.
func TestMissingRowActionsAreNoOps(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "hi", RowID: "r1", Time: testNow})

	status := conversation.StatusReady
	actions := []Action{
		UpdateMirror{ConversationID: "c1", RowID: "nope", Patch: conversation.MirrorPatch{Status: &status}, Time: testNow},
		UpdateMessage{ConversationID: "c1", RowID: "nope", Content: "x", Time: testNow},
		RemoveFeedRow{ConversationID: "c1", RowID: "nope", Time: testNow},
		UpdateMirror{ConversationID: "nope", RowID: "r1", Patch: conversation.MirrorPatch{Status: &status}, Time: testNow},
	}
	for _, a := range actions {
		next := Apply(s, a)
		if !sameSnapshot(next, s) {
			t.Errorf("%T with absent target should return the input state", a)
		}
		if !reflect.DeepEqual(next, s) {
			t.Errorf("%T with absent target changed state", a)
		}
	}
}

func TestUpdateMirrorMergesPatch(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "hi", RowID: "r1", Time: testNow})

	loading := conversation.StatusLoading
	s = Apply(s, UpdateMirror{ConversationID: "c1", RowID: "r1", Patch: conversation.MirrorPatch{Status: &loading}, Time: testNow})
	if got := s.Conversations["c1"].Feed[0].Mirror.Status; got != conversation.StatusLoading {
		t.Fatalf("status = %q, want loading", got)
	}

	ready := conversation.StatusReady
	content := "translated"
	s = Apply(s, UpdateMirror{ConversationID: "c1", RowID: "r1", Patch: conversation.MirrorPatch{
		Status:     &ready,
		Content:    &content,
		Highlights: []string{"deadline"},
	}, Time: testNow.Add(time.Second)})

	mirror := s.Conversations["c1"].Feed[0].Mirror
	if mirror.Status != conversation.StatusReady || mirror.Content != "translated" {
		t.Errorf("mirror = %+v", mirror)
	}
	if len(mirror.Highlights) != 1 || mirror.Highlights[0] != "deadline" {
		t.Errorf("highlights = %v", mirror.Highlights)
	}
	if !mirror.Timestamp.Equal(testNow.Add(time.Second)) {
		t.Errorf("timestamp not refreshed: %v", mirror.Timestamp)
	}
}

func TestUpdateMirrorClearsErrorOutsideErrorStatus(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "hi", RowID: "r1", Time: testNow})

	errStatus := conversation.StatusError
	msg := "network unreachable"
	s = Apply(s, UpdateMirror{ConversationID: "c1", RowID: "r1", Patch: conversation.MirrorPatch{Status: &errStatus, Error: &msg}, Time: testNow})
	if got := s.Conversations["c1"].Feed[0].Mirror.Error; got != msg {
		t.Fatalf("error = %q, want %q", got, msg)
	}

	ready := conversation.StatusReady
	s = Apply(s, UpdateMirror{ConversationID: "c1", RowID: "r1", Patch: conversation.MirrorPatch{Status: &ready}, Time: testNow})
	if got := s.Conversations["c1"].Feed[0].Mirror.Error; got != "" {
		t.Errorf("error = %q, want cleared on non-error status", got)
	}
}

func TestRenameBlankFallsBackToDefault(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, Rename{ID: "c1", Title: "  ", Time: testNow})

	if got := s.Conversations["c1"].Title; got != DefaultTitleBase {
		t.Errorf("title = %q, want %q", got, DefaultTitleBase)
	}
}

func TestRenameBlankAvoidsSiblingCollision(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", DefaultTitleBase)
	s = seedConversation(t, s, "c2", "Foo")
	s = Apply(s, Rename{ID: "c2", Title: "", Time: testNow})

	got := s.Conversations["c2"].Title
	if got == DefaultTitleBase {
		t.Errorf("renamed title collides with sibling: %q", got)
	}
	if got != DefaultTitleBase+" 2" {
		t.Errorf("title = %q, want %q", got, DefaultTitleBase+" 2")
	}
}

func TestPreferenceSettersDedupeAndNoOp(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, SetSelectedReferenceIDs{ConversationID: "c1", IDs: []string{" a ", "b", "a", ""}, Time: testNow})

	got := s.Conversations["c1"].SelectedReferenceIDs
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("selectedReferenceIds = %v, want [a b]", got)
	}

	next := Apply(s, SetSelectedReferenceIDs{ConversationID: "c1", IDs: []string{"b", "a"}, Time: testNow})
	if !sameSnapshot(next, s) {
		t.Error("same id set in different order should be a no-op")
	}
}

func TestDeleteReassignsActive(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Old")
	s = seedConversation(t, s, "c2", "Newer")
	s = seedConversation(t, s, "c3", "Newest")
	s = Apply(s, AddPartnerMessage{ConversationID: "c2", Content: "bump", RowID: "r1", Time: testNow.Add(time.Hour)})
	s = Apply(s, ToggleArchive{ID: "c3", Time: testNow})
	s = Apply(s, SetActive{ID: "c1"})

	s = Apply(s, Delete{ID: "c1"})
	if _, ok := s.Conversations["c1"]; ok {
		t.Fatal("conversation not deleted")
	}
	// c2 is the most recently updated non-archived conversation.
	if s.ActiveID != "c2" {
		t.Errorf("activeId = %q, want c2", s.ActiveID)
	}

	s = Apply(s, Delete{ID: "c2"})
	// Only the archived c3 remains.
	if s.ActiveID != "c3" {
		t.Errorf("activeId = %q, want archived fallback c3", s.ActiveID)
	}

	s = Apply(s, Delete{ID: "c3"})
	if s.ActiveID != "" {
		t.Errorf("activeId = %q, want empty", s.ActiveID)
	}
}

// Tag lifecycle: create, assign, delete cascades off every conversation.
func TestTagCascade(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, CreateTag{ID: "tag-1", Name: "urgent", Color: "#d33"})
	s = Apply(s, ToggleConversationTag{ConversationID: "c1", TagID: "tag-1"})

	if got := s.Conversations["c1"].Tags; len(got) != 1 || got[0] != "tag-1" {
		t.Fatalf("conversation tags = %v, want [tag-1]", got)
	}

	s = Apply(s, DeleteTag{ID: "tag-1"})
	if _, ok := s.Tags["tag-1"]; ok {
		t.Error("tag still registered after delete")
	}
	if got := s.Conversations["c1"].Tags; len(got) != 0 {
		t.Errorf("conversation tags = %v, want empty after cascade", got)
	}
}

func TestCreateTagRejectsDuplicateName(t *testing.T) {
	s := Apply(Empty(), CreateTag{ID: "tag-1", Name: "Urgent"})
	next := Apply(s, CreateTag{ID: "tag-2", Name: " urgent "})
	if !sameSnapshot(next, s) {
		t.Error("case-insensitive duplicate tag name should be a no-op")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Foo")
	s = Apply(s, AddPartnerMessage{ConversationID: "c1", Content: "hi", RowID: "r1", Time: testNow})
	before := s.Conversations["c1"].Feed[0].Mirror.Status

	loading := conversation.StatusLoading
	Apply(s, UpdateMirror{ConversationID: "c1", RowID: "r1", Patch: conversation.MirrorPatch{Status: &loading}, Time: testNow})

	if got := s.Conversations["c1"].Feed[0].Mirror.Status; got != before {
		t.Errorf("input state mutated: status %q -> %q", before, got)
	}
}

func TestPinnedViewOrder(t *testing.T) {
	t1 := testNow
	t2 := testNow.Add(time.Hour)
	s := seedConversation(t, Empty(), "c1", "First")
	s = seedConversation(t, s, "c2", "Second")
	s = Apply(s, TogglePin{ID: "c1", Time: t1})
	s = Apply(s, TogglePin{ID: "c2", Time: t2})

	pinned := PinnedConversations(s)
	if len(pinned) != 2 {
		t.Fatalf("pinned length = %d, want 2", len(pinned))
	}
	if pinned[0].ID != "c2" || pinned[1].ID != "c1" {
		t.Errorf("pinned order = [%s %s], want [c2 c1]", pinned[0].ID, pinned[1].ID)
	}
}

func TestViewsPartitionConversations(t *testing.T) {
	s := seedConversation(t, Empty(), "c1", "Pinned")
	s = seedConversation(t, s, "c2", "Recent")
	s = seedConversation(t, s, "c3", "Archived")
	s = Apply(s, TogglePin{ID: "c1", Time: testNow})
	s = Apply(s, ToggleArchive{ID: "c3", Time: testNow})

	if got := PinnedConversations(s); len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("pinned = %v", ids(got))
	}
	if got := RecentConversations(s); len(got) != 1 || got[0].ID != "c2" {
		t.Errorf("recent = %v", ids(got))
	}
	if got := ArchivedConversations(s); len(got) != 1 || got[0].ID != "c3" {
		t.Errorf("archived = %v", ids(got))
	}
}

func ids(cs []conversation.Conversation) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
