package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
	"github.com/parleyhq/parley/internal/workflow"
)

// KnownTypes lists all valid tool family names.
var KnownTypes = []string{"conversation", "tag", "settings", "backup"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"conversation_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"conversation_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"conversation_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"conversation_set_active": {
		def:     setActiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetActive },
	},
	"conversation_rename": {
		def:     renameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRename },
	},
	"conversation_toggle_pin": {
		def:     togglePinToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTogglePin },
	},
	"conversation_toggle_archive": {
		def:     toggleArchiveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToggleArchive },
	},
	"conversation_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"conversation_add_partner_message": {
		def:     addPartnerMessageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddPartnerMessage },
	},
	"conversation_add_self_message": {
		def:     addSelfMessageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddSelfMessage },
	},
	"conversation_remove_row": {
		def:     removeRowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemoveRow },
	},
	"conversation_set_preferences": {
		def:     setPreferencesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetPreferences },
	},
	"conversation_translate_row": {
		def:     translateRowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTranslateRow },
	},
	"conversation_generate_reply": {
		def:     generateReplyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGenerateReply },
	},
	"conversation_reply_preview": {
		def:     replyPreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReplyPreview },
	},
	"tag_create": {
		def:     tagCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTagCreate },
	},
	"tag_delete": {
		def:     tagDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTagDelete },
	},
	"tag_toggle": {
		def:     tagToggleToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTagToggle },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_set_models": {
		def:     settingsSetModelsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsSetModels },
	},
	"backup_sync": {
		def:     backupSyncToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBackupSync },
	},
	"backup_restore": {
		def:     backupRestoreToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBackupRestore },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the family name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "tag_create" → "tag").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Parley tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(conversations *state.Store, settingsStore *settings.Store, wf *workflow.Workflow, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"parley",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(conversations, settingsStore, wf, cfg)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(conversations *state.Store, settingsStore *settings.Store, wf *workflow.Workflow, cfg *config.Config, version string) error {
	s := NewServer(conversations, settingsStore, wf, cfg, version)
	return server.ServeStdio(s)
}
