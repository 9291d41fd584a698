package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = map[string]any{"type": "string"}

var createToolDef = mcp.NewTool("conversation_create",
	mcp.WithDescription("Create a new conversation and make it active. A blank title gets an auto-numbered default."),
	mcp.WithString("title", mcp.Description("Conversation title")),
)

var listToolDef = mcp.NewTool("conversation_list",
	mcp.WithDescription("List conversations grouped into pinned, recent, and archived views."),
	mcp.WithString("view", mcp.Description("One of: pinned, recent, archived, all (default all)")),
	mcp.WithString("tag_id", mcp.Description("Only include conversations carrying this tag")),
)

var getToolDef = mcp.NewTool("conversation_get",
	mcp.WithDescription("Fetch one conversation with its full feed. Defaults to the active conversation."),
	mcp.WithString("id", mcp.Description("Conversation id (default: active conversation)")),
)

var setActiveToolDef = mcp.NewTool("conversation_set_active",
	mcp.WithDescription("Switch the active conversation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
)

var renameToolDef = mcp.NewTool("conversation_rename",
	mcp.WithDescription("Rename a conversation. A blank title falls back to the auto-numbered default."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
	mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
)

var togglePinToolDef = mcp.NewTool("conversation_toggle_pin",
	mcp.WithDescription("Pin or unpin a conversation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
)

var toggleArchiveToolDef = mcp.NewTool("conversation_toggle_archive",
	mcp.WithDescription("Archive or unarchive a conversation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
)

var deleteToolDef = mcp.NewTool("conversation_delete",
	mcp.WithDescription("Delete a conversation permanently."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
)

var addPartnerMessageToolDef = mcp.NewTool("conversation_add_partner_message",
	mcp.WithDescription("Record an incoming partner message on the active conversation. Optionally translate it immediately."),
	mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
	mcp.WithBoolean("translate", mcp.Description("Translate the message after recording it (default false)")),
)

var addSelfMessageToolDef = mcp.NewTool("conversation_add_self_message",
	mcp.WithDescription("Record an outgoing self message on the active conversation."),
	mcp.WithString("content", mcp.Required(), mcp.Description("Message text")),
	mcp.WithString("intent", mcp.Description("The intent the message was written from")),
)

var removeRowToolDef = mcp.NewTool("conversation_remove_row",
	mcp.WithDescription("Remove one feed row from the active conversation."),
	mcp.WithString("row_id", mcp.Required(), mcp.Description("Feed row id")),
)

var setPreferencesToolDef = mcp.NewTool("conversation_set_preferences",
	mcp.WithDescription("Update the active conversation's generation preferences. Omitted fields are left unchanged."),
	mcp.WithString("reply_language", mcp.Description("Reply language, \"auto\" means match the partner's language")),
	mcp.WithString("tone_preset", mcp.Description("Tone preset: concise, business, or casual")),
	mcp.WithArray("reference_ids", mcp.Description("Selected reference library ids"), mcp.Items(stringItems)),
	mcp.WithArray("quote_ids", mcp.Description("Selected quote library ids"), mcp.Items(stringItems)),
)

var translateRowToolDef = mcp.NewTool("conversation_translate_row",
	mcp.WithDescription("Translate a partner row of the active conversation into the configured target language."),
	mcp.WithString("row_id", mcp.Required(), mcp.Description("Feed row id")),
)

var generateReplyToolDef = mcp.NewTool("conversation_generate_reply",
	mcp.WithDescription("Generate a reply draft for the active conversation from an intent. Pass row_id to regenerate an existing draft in place."),
	mcp.WithString("intent", mcp.Description("What the reply should accomplish")),
	mcp.WithString("row_id", mcp.Description("Existing draft row to regenerate")),
)

var replyPreviewToolDef = mcp.NewTool("conversation_reply_preview",
	mcp.WithDescription("Compose the reply prompt payload for the active conversation without calling the model."),
	mcp.WithString("intent", mcp.Description("Draft intent to include")),
)

var tagCreateToolDef = mcp.NewTool("tag_create",
	mcp.WithDescription("Create a tag. Names are unique; duplicates are rejected."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
	mcp.WithString("color", mcp.Description("Style token, e.g. a hex color")),
)

var tagDeleteToolDef = mcp.NewTool("tag_delete",
	mcp.WithDescription("Delete a tag and remove it from every conversation."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Tag id")),
)

var tagToggleToolDef = mcp.NewTool("tag_toggle",
	mcp.WithDescription("Add or remove a tag on a conversation."),
	mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation id")),
	mcp.WithString("tag_id", mcp.Required(), mcp.Description("Tag id")),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Read the current settings. The API key and GitHub token are redacted."),
)

var settingsSetModelsToolDef = mcp.NewTool("settings_set_models",
	mcp.WithDescription("Configure the model endpoint. An empty or mock:-prefixed base URL keeps the client in mock mode."),
	mcp.WithString("base_url", mcp.Description("OpenAI-compatible endpoint base URL")),
	mcp.WithString("api_key", mcp.Description("API key, sent as a Bearer token")),
	mcp.WithString("translation_model", mcp.Description("Model used for translation")),
	mcp.WithString("reply_model", mcp.Description("Model used for reply generation")),
)

var backupSyncToolDef = mcp.NewTool("backup_sync",
	mcp.WithDescription("Upload the full snapshot (conversations, tags, settings) to the configured GitHub repository."),
)

var backupRestoreToolDef = mcp.NewTool("backup_restore",
	mcp.WithDescription("Download the latest backup from GitHub and replace local state with it."),
)
