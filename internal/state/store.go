package state

import (
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/kv"
)

// StorageKey is the KV document key holding the conversation snapshot.
const StorageKey = "parley.conversations.v1"

// Store serializes reducer dispatches over a shared state snapshot and
// writes the full document back to the KV store after every change.
type Store struct {
	kv    *kv.Store
	mu    sync.Mutex
	state State
}

// Open hydrates a Store from the KV snapshot. A missing or unreadable
// document starts empty.
func Open(kvStore *kv.Store) (*Store, error) {
	s := &Store{kv: kvStore, state: Empty()}
	raw, ok, err := kvStore.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if ok {
		s.state = Decode(raw, time.Now())
	}
	return s, nil
}

// Snapshot returns the current state. Values are copy-on-write; callers
// must not mutate the returned maps or slices.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies an action and persists the result. The returned state is
// the post-action snapshot. Persistence failures are logged, not fatal: the
// in-memory state still advances.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Apply(s.state, action)
	if sameSnapshot(next, s.state) {
		return s.state
	}
	s.state = next
	s.persistLocked()
	return next
}

func (s *Store) persistLocked() {
	encoded, err := Encode(s.state)
	if err != nil {
		log.Printf("[state] encode snapshot: %v", err)
		return
	}
	if err := s.kv.Put(StorageKey, encoded); err != nil {
		log.Printf("[state] persist snapshot: %v", err)
	}
}

// sameSnapshot reports whether Apply returned its input unchanged. The
// reducer copies maps on every change, so map identity is a reliable no-op
// signal.
func sameSnapshot(a, b State) bool {
	return a.ActiveID == b.ActiveID &&
		reflect.ValueOf(a.Conversations).Pointer() == reflect.ValueOf(b.Conversations).Pointer() &&
		reflect.ValueOf(a.Tags).Pointer() == reflect.ValueOf(b.Tags).Pointer()
}

// Create allocates a conversation and returns its id.
func (s *Store) Create(title string) (string, State) {
	id := NewConversationID()
	return id, s.Dispatch(Create{ID: id, Title: title})
}

// AddPartnerMessage appends a partner message to a conversation and returns
// the new row id.
func (s *Store) AddPartnerMessage(conversationID, content string) (string, State) {
	rowID := NewRowID(conversationID)
	return rowID, s.Dispatch(AddPartnerMessage{ConversationID: conversationID, Content: content, RowID: rowID})
}

// AddSelfMessage appends a self message and returns the new row id.
func (s *Store) AddSelfMessage(conversationID, content, intent string) (string, State) {
	rowID := NewRowID(conversationID)
	return rowID, s.Dispatch(AddSelfMessage{ConversationID: conversationID, Content: content, Intent: intent, RowID: rowID})
}

// AddIntentDraft reserves a placeholder self row for a pending reply and
// returns the new row id.
func (s *Store) AddIntentDraft(conversationID, intent string) (string, State) {
	rowID := NewRowID(conversationID)
	return rowID, s.Dispatch(AddIntentDraft{ConversationID: conversationID, Intent: intent, RowID: rowID})
}

// CreateTag allocates a tag and returns its id. The empty id is returned
// when the name is rejected (blank or duplicate).
func (s *Store) CreateTag(name, color string) (string, State) {
	id := NewTagID()
	next := s.Dispatch(CreateTag{ID: id, Name: name, Color: color})
	if _, ok := next.Tags[id]; !ok {
		return "", next
	}
	return id, next
}
