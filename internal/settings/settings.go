package settings

import (
	"crypto/rand"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parleyhq/parley/internal/kv"
)

// StorageKey is the KV document key holding the settings snapshot, separate
// from the conversation snapshot.
const StorageKey = "parley.settings.v1"

// ModelConfig holds the OpenAI-compatible endpoint configuration. An empty
// or "mock:"-prefixed base URL keeps the client in mock mode.
type ModelConfig struct {
	BaseURL          string `json:"baseUrl"`
	APIKey           string `json:"apiKey"`
	TranslationModel string `json:"translationModel"`
	ReplyModel       string `json:"replyModel"`
}

// Item is one entry in the reference or quote library.
type Item struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SyncConfig holds the GitHub backup target.
type SyncConfig struct {
	GithubToken    string `json:"githubToken"`
	GithubUsername string `json:"githubUsername"`
	GithubRepo     string `json:"githubRepo"`
}

// Settings is the full settings document.
type Settings struct {
	Models     ModelConfig `json:"models"`
	References []Item      `json:"references"`
	Quotes     []Item      `json:"quotes"`
	Sync       *SyncConfig `json:"sync,omitempty"`
}

// Default returns the zero-configured settings document.
func Default() Settings {
	return Settings{
		References: []Item{},
		Quotes:     []Item{},
	}
}

// Clone deep-copies the settings document.
func (s Settings) Clone() Settings {
	out := s
	out.References = append([]Item(nil), s.References...)
	out.Quotes = append([]Item(nil), s.Quotes...)
	if s.Sync != nil {
		cfg := *s.Sync
		out.Sync = &cfg
	}
	return out
}

// ResolveReferences returns the library entries matching the given ids, in
// id order, silently dropping ids with no backing entry.
func (s Settings) ResolveReferences(ids []string) []Item {
	return resolveItems(s.References, ids)
}

// ResolveQuotes returns the quote entries matching the given ids, in id
// order, silently dropping dangling ids.
func (s Settings) ResolveQuotes(ids []string) []Item {
	return resolveItems(s.Quotes, ids)
}

func resolveItems(library []Item, ids []string) []Item {
	byID := make(map[string]Item, len(library))
	for _, item := range library {
		byID[item.ID] = item
	}
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// decode hydrates a settings document, degrading to defaults on malformed
// input and dropping library entries without an id.
func decode(raw string) Settings {
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Printf("[settings] unreadable document, using defaults: %v", err)
		return Default()
	}
	s.References = dropInvalidItems(s.References)
	s.Quotes = dropInvalidItems(s.Quotes)
	return s
}

func dropInvalidItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Store serializes settings mutations and writes the document back to the
// KV store after every change.
type Store struct {
	kv       *kv.Store
	mu       sync.Mutex
	settings Settings
}

// Open hydrates a settings Store from the KV snapshot.
func Open(kvStore *kv.Store) (*Store, error) {
	s := &Store{kv: kvStore, settings: Default()}
	raw, ok, err := kvStore.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if ok {
		s.settings = decode(raw)
	}
	return s, nil
}

// Get returns the current settings snapshot as a deep copy.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// Update applies fn to a copy of the current settings and persists the
// result. fn runs under the store lock.
func (s *Store) Update(fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings.Clone()
	fn(&next)
	next.References = dropInvalidItems(next.References)
	next.Quotes = dropInvalidItems(next.Quotes)
	s.settings = next
	s.persistLocked()
	return next.Clone()
}

// SetModels replaces the model endpoint configuration.
func (s *Store) SetModels(cfg ModelConfig) Settings {
	return s.Update(func(st *Settings) {
		st.Models = cfg
	})
}

// AddReference appends a reference entry and returns its id.
func (s *Store) AddReference(title, content string) (string, Settings) {
	id := newItemID("reference")
	next := s.Update(func(st *Settings) {
		st.References = append(st.References, Item{ID: id, Title: title, Content: content})
	})
	return id, next
}

// AddQuote appends a quote entry and returns its id.
func (s *Store) AddQuote(title, content string) (string, Settings) {
	id := newItemID("quote")
	next := s.Update(func(st *Settings) {
		st.Quotes = append(st.Quotes, Item{ID: id, Title: title, Content: content})
	})
	return id, next
}

// RemoveReference deletes a reference entry by id.
func (s *Store) RemoveReference(id string) Settings {
	return s.Update(func(st *Settings) {
		st.References = removeItem(st.References, id)
	})
}

// RemoveQuote deletes a quote entry by id.
func (s *Store) RemoveQuote(id string) Settings {
	return s.Update(func(st *Settings) {
		st.Quotes = removeItem(st.Quotes, id)
	})
}

// SetSync replaces the backup target; nil clears it.
func (s *Store) SetSync(cfg *SyncConfig) Settings {
	return s.Update(func(st *Settings) {
		if cfg == nil {
			st.Sync = nil
			return
		}
		c := *cfg
		st.Sync = &c
	})
}

// Replace swaps in a whole settings document (backup restore).
func (s *Store) Replace(settings Settings) Settings {
	return s.Update(func(st *Settings) {
		*st = settings.Clone()
	})
}

func removeItem(items []Item, id string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(s.settings)
	if err != nil {
		log.Printf("[settings] encode document: %v", err)
		return
	}
	if err := s.kv.Put(StorageKey, string(data)); err != nil {
		log.Printf("[settings] persist document: %v", err)
	}
}

// newItemID allocates a library entry id.
func newItemID(kind string) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return kind + "-" + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
