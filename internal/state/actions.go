package state

import (
	"time"

	"github.com/parleyhq/parley/internal/conversation"
)

// Action is the sealed set of state mutations. Every mutation takes the
// current state and an action and produces a new state; see Apply.
//
// Actions that stamp timestamps carry an optional Time; the zero value
// means "now". Tests set it explicitly for deterministic ordering.
type Action interface {
	isAction()
}

// Create allocates a fresh conversation and makes it active. The caller
// supplies the id (see Store.Create); a blank title gets the default.
type Create struct {
	ID    string
	Title string
	Time  time.Time
}

// SetActive switches the viewed conversation. No-op if the id does not
// exist or is already active.
type SetActive struct {
	ID string
}

// Rename retitles a conversation. A blank trimmed title falls back to the
// auto-generated default, unique among siblings.
type Rename struct {
	ID    string
	Title string
	Time  time.Time
}

// TogglePin flips the pinned-at timestamp between nil and now.
type TogglePin struct {
	ID   string
	Time time.Time
}

// ToggleArchive flips the archived-at timestamp between nil and now.
type ToggleArchive struct {
	ID   string
	Time time.Time
}

// AddPartnerMessage appends a partner row with an idle analysis mirror.
type AddPartnerMessage struct {
	ConversationID string
	Content        string
	RowID          string
	Time           time.Time
}

// AddSelfMessage appends a self row with an intent mirror seeded with the
// optional intent text.
type AddSelfMessage struct {
	ConversationID string
	Content        string
	Intent         string
	RowID          string
	Time           time.Time
}

// AddIntentDraft appends a placeholder self row reserving space for a reply
// that is still being generated.
type AddIntentDraft struct {
	ConversationID string
	Intent         string
	RowID          string
	Time           time.Time
}

// UpdateMessage replaces a row's message content. When Intent is non-nil it
// also updates (or, for self rows, creates) the mirror content.
type UpdateMessage struct {
	ConversationID string
	RowID          string
	Content        string
	Intent         *string
	Time           time.Time
}

// UpdateMirror merges a partial mirror update into an existing mirror.
// No-op if the row or its mirror is absent.
type UpdateMirror struct {
	ConversationID string
	RowID          string
	Patch          conversation.MirrorPatch
	Time           time.Time
}

// RemoveFeedRow deletes exactly one row.
type RemoveFeedRow struct {
	ConversationID string
	RowID          string
	Time           time.Time
}

// SetReplyLanguage sets the per-conversation reply language preference.
type SetReplyLanguage struct {
	ConversationID string
	ReplyLanguage  string
	Time           time.Time
}

// SetTonePreset sets the per-conversation tone preset.
type SetTonePreset struct {
	ConversationID string
	TonePresetID   string
	Time           time.Time
}

// SetSelectedReferenceIDs replaces the selected reference id set.
type SetSelectedReferenceIDs struct {
	ConversationID string
	IDs            []string
	Time           time.Time
}

// SetSelectedQuoteIDs replaces the selected quote id set.
type SetSelectedQuoteIDs struct {
	ConversationID string
	IDs            []string
	Time           time.Time
}

// Delete removes a conversation, reassigning the active id if needed.
type Delete struct {
	ID string
}

// CreateTag registers a new tag under a caller-supplied id. No-op when the
// trimmed name is empty or collides with an existing tag.
type CreateTag struct {
	ID    string
	Name  string
	Color string
}

// DeleteTag removes a tag and cascades its removal from every
// conversation's tag set.
type DeleteTag struct {
	ID string
}

// ToggleConversationTag adds or removes a tag id on a conversation.
type ToggleConversationTag struct {
	ConversationID string
	TagID          string
}

// Import replaces the whole state (hydration and backup restore).
type Import struct {
	State State
}

func (Create) isAction()                  {}
func (SetActive) isAction()               {}
func (Rename) isAction()                  {}
func (TogglePin) isAction()               {}
func (ToggleArchive) isAction()           {}
func (AddPartnerMessage) isAction()       {}
func (AddSelfMessage) isAction()          {}
func (AddIntentDraft) isAction()          {}
func (UpdateMessage) isAction()           {}
func (UpdateMirror) isAction()            {}
func (RemoveFeedRow) isAction()           {}
func (SetReplyLanguage) isAction()        {}
func (SetTonePreset) isAction()           {}
func (SetSelectedReferenceIDs) isAction() {}
func (SetSelectedQuoteIDs) isAction()     {}
func (Delete) isAction()                  {}
func (CreateTag) isAction()               {}
func (DeleteTag) isAction()               {}
func (ToggleConversationTag) isAction()   {}
func (Import) isAction()                  {}
