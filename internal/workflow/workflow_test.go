package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/aiclient"
	"github.com/parleyhq/parley/internal/conversation"
	perrors "github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/kv"
	"github.com/parleyhq/parley/internal/prompt"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message, _ string) { n.successes = append(n.successes, message) }
func (n *recordingNotifier) Error(message, _ string)   { n.errors = append(n.errors, message) }

type fixture struct {
	workflow      *Workflow
	conversations *state.Store
	settings      *settings.Store
	notifier      *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kvStore, err := kv.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { kvStore.Close() })

	conversations, err := state.Open(kvStore)
	require.NoError(t, err)
	settingsStore, err := settings.Open(kvStore)
	require.NoError(t, err)

	settingsStore.SetModels(settings.ModelConfig{
		BaseURL:          "mock://test",
		TranslationModel: "trans-model",
		ReplyModel:       "reply-model",
	})

	notifier := &recordingNotifier{}
	w := New(conversations, settingsStore, notifier)
	return &fixture{workflow: w, conversations: conversations, settings: settingsStore, notifier: notifier}
}

func (f *fixture) mirror(t *testing.T, conversationID, rowID string) *conversation.Mirror {
	t.Helper()
	c, ok := f.conversations.Snapshot().Conversations[conversationID]
	require.True(t, ok)
	row := c.Row(rowID)
	require.NotNil(t, row)
	return row.Mirror
}

func TestTranslateLifecycle(t *testing.T) {
	f := newFixture(t)
	convID, _ := f.conversations.Create("Supplier")
	rowID, _ := f.conversations.AddPartnerMessage(convID, "我们周五前需要发货")

	require.Equal(t, conversation.StatusIdle, f.mirror(t, convID, rowID).Status)

	var statusAtInvoke conversation.Status
	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		statusAtInvoke = f.mirror(t, convID, rowID).Status
		require.Equal(t, aiclient.TaskTranslate, req.Task)
		require.Contains(t, req.Translation.User, "我们周五前需要发货")
		require.Equal(t, "trans-model", req.Config.Model)
		return aiclient.Response{Content: "We need the shipment before Friday."}, nil
	}

	require.NoError(t, f.workflow.TranslatePartnerMessage(context.Background(), rowID))

	require.Equal(t, conversation.StatusLoading, statusAtInvoke)
	mirror := f.mirror(t, convID, rowID)
	require.Equal(t, conversation.StatusReady, mirror.Status)
	require.Equal(t, "We need the shipment before Friday.", mirror.Content)
	require.Empty(t, mirror.Error)
}

func TestTranslateUsesConfiguredTarget(t *testing.T) {
	f := newFixture(t)
	f.workflow.TranslationTarget = "Español"
	convID, _ := f.conversations.Create("Supplier")
	rowID, _ := f.conversations.AddPartnerMessage(convID, "我们周五前需要发货")

	var user string
	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		user = req.Translation.User
		return aiclient.Response{Content: "Necesitamos el envío antes del viernes."}, nil
	}

	require.NoError(t, f.workflow.TranslatePartnerMessage(context.Background(), rowID))
	require.Contains(t, user, "Español")
	require.NotContains(t, user, prompt.DefaultTranslationTarget)
}

func TestTranslateFailureSettlesMirror(t *testing.T) {
	f := newFixture(t)
	convID, _ := f.conversations.Create("Supplier")
	rowID, _ := f.conversations.AddPartnerMessage(convID, "报价能再低一点吗")

	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		return aiclient.Response{}, perrors.NewServer()
	}

	err := f.workflow.TranslatePartnerMessage(context.Background(), rowID)
	require.True(t, perrors.Is(err, perrors.ErrServer))

	mirror := f.mirror(t, convID, rowID)
	require.Equal(t, conversation.StatusError, mirror.Status)
	require.NotEmpty(t, mirror.Error)
	require.NotEmpty(t, f.notifier.errors)
}

func TestTranslateMissingConfig(t *testing.T) {
	f := newFixture(t)
	f.settings.SetModels(settings.ModelConfig{})
	convID, _ := f.conversations.Create("Supplier")
	rowID, _ := f.conversations.AddPartnerMessage(convID, "hello")

	invoked := false
	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		invoked = true
		return aiclient.Response{}, nil
	}

	err := f.workflow.TranslatePartnerMessage(context.Background(), rowID)
	require.True(t, perrors.Is(err, perrors.ErrMissingConfig))
	require.False(t, invoked)

	mirror := f.mirror(t, convID, rowID)
	require.Equal(t, conversation.StatusError, mirror.Status)
	require.NotEmpty(t, mirror.Error)
}

func TestTranslateIgnoresSelfRows(t *testing.T) {
	f := newFixture(t)
	convID, _ := f.conversations.Create("Supplier")
	rowID, _ := f.conversations.AddSelfMessage(convID, "Sounds good.", "agree")

	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		t.Fatal("invoker called for a self row")
		return aiclient.Response{}, nil
	}

	require.NoError(t, f.workflow.TranslatePartnerMessage(context.Background(), rowID))
	require.Equal(t, conversation.StatusReady, f.mirror(t, convID, rowID).Status)
}

func TestGenerateReplyAppendsDraft(t *testing.T) {
	f := newFixture(t)
	convID, _ := f.conversations.Create("Supplier")
	f.conversations.AddPartnerMessage(convID, "Can you deliver by Friday?")

	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		require.Equal(t, aiclient.TaskReply, req.Task)
		require.Equal(t, "reply-model", req.Config.Model)
		require.NotNil(t, req.Config.Temperature)
		require.InDelta(t, 0.6, float64(*req.Config.Temperature), 0.001)
		require.NotNil(t, req.Reply.Intent)
		require.Equal(t, "confirm Friday delivery", *req.Reply.Intent)
		return aiclient.Response{Content: "Yes, Friday delivery is confirmed."}, nil
	}

	result, err := f.workflow.GenerateReply(context.Background(), "confirm Friday delivery", GenerateReplyOptions{})
	require.NoError(t, err)
	require.NotNil(t, result)

	c := f.conversations.Snapshot().Conversations[convID]
	row := c.Row(result.RowID)
	require.NotNil(t, row)
	require.Equal(t, conversation.RoleSelf, row.Message.Role)
	require.Equal(t, "Yes, Friday delivery is confirmed.", row.Message.Content)
	require.Equal(t, conversation.StatusReady, row.Mirror.Status)
	require.Equal(t, "confirm Friday delivery", row.Mirror.Content)
	require.Equal(t, []string{"Reply generated"}, f.notifier.successes)
}

func TestGenerateReplyFailureMarksDraft(t *testing.T) {
	f := newFixture(t)
	f.conversations.Create("Supplier")

	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		return aiclient.Response{}, perrors.NewNetwork(nil)
	}

	_, err := f.workflow.GenerateReply(context.Background(), "negotiate the price", GenerateReplyOptions{})
	require.True(t, perrors.Is(err, perrors.ErrNetwork))

	snapshot := f.conversations.Snapshot()
	active, ok := snapshot.Active()
	require.True(t, ok)
	require.Len(t, active.Feed, 1)
	row := active.Feed[0]
	require.Equal(t, GenerationFailedContent, row.Message.Content)
	require.Equal(t, conversation.StatusError, row.Mirror.Status)
	require.NotEmpty(t, row.Mirror.Error)
}

func TestGenerateReplyRegeneratesInPlace(t *testing.T) {
	f := newFixture(t)
	convID, _ := f.conversations.Create("Supplier")
	f.conversations.AddPartnerMessage(convID, "The quote is attached.")
	rowID, _ := f.conversations.AddSelfMessage(convID, "First draft reply", "ask about volume discount")

	var history []string
	f.workflow.Invoke = func(ctx context.Context, req aiclient.Request) (aiclient.Response, error) {
		for _, item := range req.Reply.History {
			history = append(history, item.Content)
		}
		return aiclient.Response{Content: "Could we discuss a volume discount?"}, nil
	}

	// Blank intent falls back to the row's stored intent.
	result, err := f.workflow.GenerateReply(context.Background(), "", GenerateReplyOptions{RowID: rowID})
	require.NoError(t, err)
	require.Equal(t, rowID, result.RowID)
	require.NotNil(t, result.Payload.Intent)
	require.Equal(t, "ask about volume discount", *result.Payload.Intent)

	// The regenerated row is excluded from its own history.
	require.NotContains(t, history, "First draft reply")
	require.Contains(t, history, "The quote is attached.")

	row := f.conversations.Snapshot().Conversations[convID].Row(rowID)
	require.Equal(t, "Could we discuss a volume discount?", row.Message.Content)
	require.Equal(t, conversation.StatusReady, row.Mirror.Status)
}

func TestGenerateReplyMissingConfigLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.settings.SetModels(settings.ModelConfig{BaseURL: "mock://test"})
	convID, _ := f.conversations.Create("Supplier")

	_, err := f.workflow.GenerateReply(context.Background(), "anything", GenerateReplyOptions{})
	require.True(t, perrors.Is(err, perrors.ErrMissingConfig))
	require.Empty(t, f.conversations.Snapshot().Conversations[convID].Feed)
}

func TestGenerateReplyRequiresActiveConversation(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.GenerateReply(context.Background(), "anything", GenerateReplyOptions{})
	require.True(t, perrors.Is(err, perrors.ErrInvalidRequest))
}

func TestBuildReplyPromptPreview(t *testing.T) {
	f := newFixture(t)
	refID, _ := f.settings.AddReference("Pricing policy", "List price minus 5% for repeat buyers.")
	convID, _ := f.conversations.Create("Supplier")
	f.conversations.AddPartnerMessage(convID, "What is your best price?")
	f.conversations.Dispatch(state.SetSelectedReferenceIDs{ConversationID: convID, IDs: []string{refID}})

	preview, err := f.workflow.BuildReplyPromptPreview("offer the repeat-buyer discount")
	require.NoError(t, err)
	require.Equal(t, "reply", preview.Payload.Task)
	require.Len(t, preview.Payload.Context.References, 1)
	require.Contains(t, preview.Payload.Context.References[0], "Pricing policy")
	require.Contains(t, preview.JSON, "offer the repeat-buyer discount")
	require.Len(t, preview.Payload.History, 1)
}
