package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/conversation"
	"github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/prompt"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
	gsync "github.com/parleyhq/parley/internal/sync"
	"github.com/parleyhq/parley/internal/web"
	"github.com/parleyhq/parley/internal/workflow"
)

// appEnv bundles the stores and services the CLI commands operate on.
type appEnv struct {
	conversations *state.Store
	settings      *settings.Store
	workflow      *workflow.Workflow
	cfg           *config.Config
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "parley",
		Usage:   "Local conversation assistant",
		Version: Version,
		Commands: []*cli.Command{
			newCmd(env),
			listCmd(env),
			showCmd(env),
			useCmd(env),
			renameCmd(env),
			pinCmd(env),
			archiveCmd(env),
			deleteCmd(env),
			partnerCmd(env),
			selfCmd(env),
			translateCmd(env),
			replyCmd(env),
			previewCmd(env),
			removeRowCmd(env),
			copyCmd(env),
			setLanguageCmd(env),
			setToneCmd(env),
			useRefsCmd(env),
			useQuotesCmd(env),
			tagCmd(env),
			settingsCmd(env),
			refCmd(env),
			quoteCmd(env),
			backupCmd(env),
			webCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// Conversation output shapes

type convSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	UpdatedAt string   `json:"updatedAt"`
	Pinned    bool     `json:"pinned"`
	Archived  bool     `json:"archived"`
	Active    bool     `json:"active"`
	Tags      []string `json:"tags,omitempty"`
	Rows      int      `json:"rows"`
}

type rowOutput struct {
	ID      string               `json:"id"`
	Role    conversation.Role    `json:"role"`
	Content string               `json:"content"`
	Time    string               `json:"time"`
	Mirror  *conversation.Mirror `json:"mirror,omitempty"`
}

type convDetail struct {
	convSummary
	ReplyLanguage        string      `json:"replyLanguage"`
	TonePresetID         string      `json:"tonePresetId"`
	SelectedReferenceIDs []string    `json:"selectedReferenceIds,omitempty"`
	SelectedQuoteIDs     []string    `json:"selectedQuoteIds,omitempty"`
	Feed                 []rowOutput `json:"feed"`
}

func summarize(c conversation.Conversation, activeID string) convSummary {
	return convSummary{
		ID:        c.ID,
		Title:     c.Title,
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
		Pinned:    c.PinnedAt != nil,
		Archived:  c.ArchivedAt != nil,
		Active:    c.ID == activeID,
		Tags:      c.Tags,
		Rows:      len(c.Feed),
	}
}

func detail(c conversation.Conversation, activeID string) convDetail {
	d := convDetail{
		convSummary:          summarize(c, activeID),
		ReplyLanguage:        c.ReplyLanguage,
		TonePresetID:         c.TonePresetID,
		SelectedReferenceIDs: c.SelectedReferenceIDs,
		SelectedQuoteIDs:     c.SelectedQuoteIDs,
		Feed:                 make([]rowOutput, 0, len(c.Feed)),
	}
	for _, row := range c.Feed {
		d.Feed = append(d.Feed, rowOutput{
			ID:      row.ID,
			Role:    row.Message.Role,
			Content: row.Message.Content,
			Time:    row.Message.Timestamp.UTC().Format(time.RFC3339),
			Mirror:  row.Mirror,
		})
	}
	return d
}

// activeConversation resolves the active conversation or fails.
func activeConversation(env *appEnv) (conversation.Conversation, error) {
	c, ok := env.conversations.Snapshot().Active()
	if !ok {
		return conversation.Conversation{}, errors.NewInvalidRequest("no active conversation; run 'parley new' or 'parley use <id>'")
	}
	return c, nil
}

// Conversation commands

func newCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a conversation and make it active",
		ArgsUsage: "[title]",
		Action: func(c *cli.Context) error {
			title := strings.Join(c.Args().Slice(), " ")
			id, next := env.conversations.Create(title)
			return outputJSON(detail(next.Conversations[id], next.ActiveID))
		},
	}
}

func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List conversations grouped by pinned, recent and archived",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Usage: "Only list conversations carrying this tag id"},
		},
		Action: func(c *cli.Context) error {
			snapshot := env.conversations.Snapshot()
			tagID := c.String("tag")

			include := func(cs []conversation.Conversation) []convSummary {
				out := make([]convSummary, 0, len(cs))
				for _, cv := range cs {
					if tagID != "" && !containsID(cv.Tags, tagID) {
						continue
					}
					out = append(out, summarize(cv, snapshot.ActiveID))
				}
				return out
			}

			return outputJSON(map[string]any{
				"activeId": snapshot.ActiveID,
				"pinned":   include(state.PinnedConversations(snapshot)),
				"recent":   include(state.RecentConversations(snapshot)),
				"archived": include(state.ArchivedConversations(snapshot)),
			})
		},
	}
}

func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a conversation's feed (defaults to the active one)",
		ArgsUsage: "[id]",
		Action: func(c *cli.Context) error {
			snapshot := env.conversations.Snapshot()
			id := c.Args().First()
			if id == "" {
				id = snapshot.ActiveID
			}
			cv, ok := snapshot.Conversations[id]
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(detail(cv, snapshot.ActiveID))
		},
	}
}

func useCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Make a conversation active",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("conversation id is required"))
			}
			if _, ok := env.conversations.Snapshot().Conversations[id]; !ok {
				return outputError(errors.NewNotFound(id))
			}
			next := env.conversations.Dispatch(state.SetActive{ID: id})
			return outputJSON(map[string]any{"activeId": next.ActiveID})
		},
	}
}

func renameCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a conversation (blank restores the default title)",
		ArgsUsage: "<id> [title]",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("conversation id is required"))
			}
			title := strings.Join(c.Args().Tail(), " ")
			next := env.conversations.Dispatch(state.Rename{ID: id, Title: title})
			cv, ok := next.Conversations[id]
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(summarize(cv, next.ActiveID))
		},
	}
}

func pinCmd(env *appEnv) *cli.Command {
	return toggleCmd(env, "pin", "Toggle a conversation's pinned state", func(id string) state.Action {
		return state.TogglePin{ID: id}
	})
}

func archiveCmd(env *appEnv) *cli.Command {
	return toggleCmd(env, "archive", "Toggle a conversation's archived state", func(id string) state.Action {
		return state.ToggleArchive{ID: id}
	})
}

func toggleCmd(env *appEnv, name, usage string, action func(id string) state.Action) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("conversation id is required"))
			}
			next := env.conversations.Dispatch(action(id))
			cv, ok := next.Conversations[id]
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(summarize(cv, next.ActiveID))
		},
	}
}

func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a conversation",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return outputError(errors.NewInvalidRequest("conversation id is required"))
			}
			if _, ok := env.conversations.Snapshot().Conversations[id]; !ok {
				return outputError(errors.NewNotFound(id))
			}
			next := env.conversations.Dispatch(state.Delete{ID: id})
			return outputJSON(map[string]any{"deleted": id, "activeId": next.ActiveID})
		},
	}
}

// Feed commands

func partnerCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "partner",
		Usage:     "Append a partner message to the active conversation (argument or stdin)",
		ArgsUsage: "[content]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "translate", Aliases: []string{"t"}, Usage: "Translate the message immediately"},
		},
		Action: func(c *cli.Context) error {
			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}

			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}

			rowID, next := env.conversations.AddPartnerMessage(cv.ID, content)
			if next.Conversations[cv.ID].Row(rowID) == nil {
				return outputError(errors.NewInvalidRequest("message content must not be blank"))
			}

			if c.Bool("translate") {
				if err := env.workflow.TranslatePartnerMessage(c.Context, rowID); err != nil {
					return outputError(err)
				}
				next = env.conversations.Snapshot()
			}

			row := next.Conversations[cv.ID].Row(rowID)
			return outputJSON(rowOutput{
				ID:      row.ID,
				Role:    row.Message.Role,
				Content: row.Message.Content,
				Time:    row.Message.Timestamp.UTC().Format(time.RFC3339),
				Mirror:  row.Mirror,
			})
		},
	}
}

func selfCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "self",
		Usage:     "Append a message you already sent (argument or stdin)",
		ArgsUsage: "[content]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "intent", Aliases: []string{"i"}, Usage: "The intent behind the message"},
		},
		Action: func(c *cli.Context) error {
			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}

			content, err := contentArg(c)
			if err != nil {
				return outputError(err)
			}

			rowID, next := env.conversations.AddSelfMessage(cv.ID, content, c.String("intent"))
			row := next.Conversations[cv.ID].Row(rowID)
			if row == nil {
				return outputError(errors.NewInvalidRequest("message content must not be blank"))
			}
			return outputJSON(rowOutput{
				ID:      row.ID,
				Role:    row.Message.Role,
				Content: row.Message.Content,
				Time:    row.Message.Timestamp.UTC().Format(time.RFC3339),
				Mirror:  row.Mirror,
			})
		},
	}
}

func translateCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "translate",
		Usage:     "Translate a partner message",
		ArgsUsage: "<rowID>",
		Action: func(c *cli.Context) error {
			rowID := c.Args().First()
			if rowID == "" {
				return outputError(errors.NewInvalidRequest("row id is required"))
			}

			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			row := cv.Row(rowID)
			if row == nil {
				return outputError(errors.NewNotFound(rowID))
			}
			if row.Message.Role != conversation.RolePartner {
				return outputError(errors.NewInvalidRequest("only partner rows can be translated"))
			}

			if err := env.workflow.TranslatePartnerMessage(c.Context, rowID); err != nil {
				return outputError(err)
			}

			next := env.conversations.Snapshot()
			return outputJSON(map[string]any{
				"rowId":  rowID,
				"mirror": next.Conversations[cv.ID].Row(rowID).Mirror,
			})
		},
	}
}

func replyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "reply",
		Usage:     "Generate a reply draft for the active conversation",
		ArgsUsage: "[intent]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "row", Usage: "Regenerate an existing draft row in place"},
		},
		Action: func(c *cli.Context) error {
			intent := strings.Join(c.Args().Slice(), " ")
			result, err := env.workflow.GenerateReply(c.Context, intent, workflow.GenerateReplyOptions{
				RowID: c.String("row"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"rowId":   result.RowID,
				"content": result.Response.Content,
			})
		},
	}
}

func previewCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Print the reply prompt that would be sent, without calling the model",
		ArgsUsage: "[intent]",
		Action: func(c *cli.Context) error {
			intent := strings.Join(c.Args().Slice(), " ")
			preview, err := env.workflow.BuildReplyPromptPreview(intent)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(preview.Payload)
		},
	}
}

func removeRowCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "remove-row",
		Usage:     "Remove a feed row from the active conversation",
		ArgsUsage: "<rowID>",
		Action: func(c *cli.Context) error {
			rowID := c.Args().First()
			if rowID == "" {
				return outputError(errors.NewInvalidRequest("row id is required"))
			}

			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			if cv.Row(rowID) == nil {
				return outputError(errors.NewNotFound(rowID))
			}

			env.conversations.Dispatch(state.RemoveFeedRow{ConversationID: cv.ID, RowID: rowID})
			return outputJSON(map[string]any{"removed": rowID})
		},
	}
}

func copyCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Print a row's raw content for piping (message by default)",
		ArgsUsage: "<rowID>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "mirror", Usage: "Print the mirror content instead of the message"},
		},
		Action: func(c *cli.Context) error {
			rowID := c.Args().First()
			if rowID == "" {
				return outputError(errors.NewInvalidRequest("row id is required"))
			}

			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			row := cv.Row(rowID)
			if row == nil {
				return outputError(errors.NewNotFound(rowID))
			}

			if c.Bool("mirror") {
				if row.Mirror == nil {
					return outputError(errors.NewNotFound(rowID + " mirror"))
				}
				fmt.Println(row.Mirror.Content)
				return nil
			}
			fmt.Println(row.Message.Content)
			return nil
		},
	}
}

// Preference commands

func setLanguageCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "set-language",
		Usage:     "Set the reply language of the active conversation",
		ArgsUsage: "<language>",
		Action: func(c *cli.Context) error {
			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			next := env.conversations.Dispatch(state.SetReplyLanguage{
				ConversationID: cv.ID,
				ReplyLanguage:  c.Args().First(),
			})
			return outputJSON(map[string]any{
				"replyLanguage": next.Conversations[cv.ID].ReplyLanguage,
			})
		},
	}
}

func setToneCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "set-tone",
		Usage:     "Set the tone preset of the active conversation",
		ArgsUsage: "<tone>",
		Action: func(c *cli.Context) error {
			tone := c.Args().First()
			if tone != "" && !containsID(prompt.ToneIDs(), tone) {
				return outputError(errors.NewInvalidRequest(
					"unknown tone preset; valid presets: " + strings.Join(prompt.ToneIDs(), ", ")))
			}
			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			next := env.conversations.Dispatch(state.SetTonePreset{
				ConversationID: cv.ID,
				TonePresetID:   tone,
			})
			return outputJSON(map[string]any{
				"tonePresetId": next.Conversations[cv.ID].TonePresetID,
			})
		},
	}
}

func useRefsCmd(env *appEnv) *cli.Command {
	return selectionCmd(env, "use-refs", "Select reference entries for reply context", func(convID string, ids []string) state.Action {
		return state.SetSelectedReferenceIDs{ConversationID: convID, IDs: ids}
	})
}

func useQuotesCmd(env *appEnv) *cli.Command {
	return selectionCmd(env, "use-quotes", "Select quote entries for reply context", func(convID string, ids []string) state.Action {
		return state.SetSelectedQuoteIDs{ConversationID: convID, IDs: ids}
	})
}

func selectionCmd(env *appEnv, name, usage string, action func(convID string, ids []string) state.Action) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage + " (no arguments clears the selection)",
		ArgsUsage: "[id...]",
		Action: func(c *cli.Context) error {
			cv, err := activeConversation(env)
			if err != nil {
				return outputError(err)
			}
			next := env.conversations.Dispatch(action(cv.ID, c.Args().Slice()))
			updated := next.Conversations[cv.ID]
			return outputJSON(map[string]any{
				"selectedReferenceIds": updated.SelectedReferenceIDs,
				"selectedQuoteIds":     updated.SelectedQuoteIDs,
			})
		},
	}
}

// Tag commands

func tagCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a tag",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Usage: "Display color, e.g. #336699"},
				},
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), " ")
					id, next := env.conversations.CreateTag(name, c.String("color"))
					if id == "" {
						return outputError(errors.NewInvalidRequest("tag name is blank or already in use"))
					}
					return outputJSON(next.Tags[id])
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a tag and detach it everywhere",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if _, ok := env.conversations.Snapshot().Tags[id]; !ok {
						return outputError(errors.NewNotFound(id))
					}
					env.conversations.Dispatch(state.DeleteTag{ID: id})
					return outputJSON(map[string]any{"deleted": id})
				},
			},
			{
				Name:      "toggle",
				Usage:     "Attach or detach a tag on a conversation",
				ArgsUsage: "<conversationID> <tagID>",
				Action: func(c *cli.Context) error {
					convID, tagID := c.Args().Get(0), c.Args().Get(1)
					snapshot := env.conversations.Snapshot()
					if _, ok := snapshot.Conversations[convID]; !ok {
						return outputError(errors.NewNotFound(convID))
					}
					if _, ok := snapshot.Tags[tagID]; !ok {
						return outputError(errors.NewNotFound(tagID))
					}
					next := env.conversations.Dispatch(state.ToggleConversationTag{
						ConversationID: convID,
						TagID:          tagID,
					})
					return outputJSON(summarize(next.Conversations[convID], next.ActiveID))
				},
			},
			{
				Name:  "list",
				Usage: "List all tags",
				Action: func(c *cli.Context) error {
					return outputJSON(state.AllTags(env.conversations.Snapshot()))
				},
			},
		},
	}
}

// Settings commands

func settingsCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print settings (secrets redacted)",
				Action: func(c *cli.Context) error {
					s := env.settings.Get()
					s.Models.APIKey = redactSecret(s.Models.APIKey)
					if s.Sync != nil {
						s.Sync.GithubToken = redactSecret(s.Sync.GithubToken)
					}
					return outputJSON(s)
				},
			},
			{
				Name:  "set-models",
				Usage: "Configure the AI endpoint and models",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base-url", Usage: "OpenAI-compatible endpoint, or mock: for offline use"},
					&cli.StringFlag{Name: "api-key", Usage: "API key"},
					&cli.StringFlag{Name: "translation-model", Usage: "Model used for translation"},
					&cli.StringFlag{Name: "reply-model", Usage: "Model used for reply generation"},
				},
				Action: func(c *cli.Context) error {
					next := env.settings.Update(func(s *settings.Settings) {
						if c.IsSet("base-url") {
							s.Models.BaseURL = c.String("base-url")
						}
						if c.IsSet("api-key") {
							s.Models.APIKey = c.String("api-key")
						}
						if c.IsSet("translation-model") {
							s.Models.TranslationModel = c.String("translation-model")
						}
						if c.IsSet("reply-model") {
							s.Models.ReplyModel = c.String("reply-model")
						}
					})
					next.Models.APIKey = redactSecret(next.Models.APIKey)
					return outputJSON(next.Models)
				},
			},
			{
				Name:  "set-sync",
				Usage: "Configure GitHub backup (no flags clears the config)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Usage: "GitHub token"},
					&cli.StringFlag{Name: "username", Usage: "GitHub username"},
					&cli.StringFlag{Name: "repo", Usage: "Backup repository name"},
				},
				Action: func(c *cli.Context) error {
					if !c.IsSet("token") && !c.IsSet("username") && !c.IsSet("repo") {
						env.settings.SetSync(nil)
						return outputJSON(map[string]any{"sync": nil})
					}
					next := env.settings.SetSync(&settings.SyncConfig{
						GithubToken:    c.String("token"),
						GithubUsername: c.String("username"),
						GithubRepo:     c.String("repo"),
					})
					cfg := *next.Sync
					cfg.GithubToken = redactSecret(cfg.GithubToken)
					return outputJSON(cfg)
				},
			},
		},
	}
}

// Library commands

func refCmd(env *appEnv) *cli.Command {
	return libraryCmd(env, "ref", "reference",
		func(title, content string) (string, settings.Settings) { return env.settings.AddReference(title, content) },
		func(id string) settings.Settings { return env.settings.RemoveReference(id) },
		func(s settings.Settings) []settings.Item { return s.References },
	)
}

func quoteCmd(env *appEnv) *cli.Command {
	return libraryCmd(env, "quote", "quote",
		func(title, content string) (string, settings.Settings) { return env.settings.AddQuote(title, content) },
		func(id string) settings.Settings { return env.settings.RemoveQuote(id) },
		func(s settings.Settings) []settings.Item { return s.Quotes },
	)
}

func libraryCmd(env *appEnv, name, kind string,
	add func(title, content string) (string, settings.Settings),
	remove func(id string) settings.Settings,
	list func(settings.Settings) []settings.Item,
) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: "Manage " + kind + " library entries",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a " + kind + " entry (content from argument or stdin)",
				ArgsUsage: "[content]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Entry title"},
				},
				Action: func(c *cli.Context) error {
					content, err := contentArg(c)
					if err != nil {
						return outputError(err)
					}
					id, next := add(c.String("title"), content)
					for _, item := range list(next) {
						if item.ID == id {
							return outputJSON(item)
						}
					}
					return outputError(errors.NewInternal(fmt.Errorf("stored %s entry not found", kind)))
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a " + kind + " entry",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					found := false
					for _, item := range list(env.settings.Get()) {
						if item.ID == id {
							found = true
						}
					}
					if !found {
						return outputError(errors.NewNotFound(id))
					}
					remove(id)
					return outputJSON(map[string]any{"removed": id})
				},
			},
			{
				Name:  "list",
				Usage: "List " + kind + " entries",
				Action: func(c *cli.Context) error {
					return outputJSON(list(env.settings.Get()))
				},
			},
		},
	}
}

// Backup commands

func backupCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Push or pull the GitHub backup",
		Subcommands: []*cli.Command{
			{
				Name:  "push",
				Usage: "Upload the full state to the configured GitHub repository",
				Action: func(c *cli.Context) error {
					service, err := backupService(env)
					if err != nil {
						return outputError(err)
					}
					snapshot := env.conversations.Snapshot()
					backup := gsync.NewBackup(snapshot.Conversations, snapshot.Tags, snapshot.ActiveID, env.settings.Get())
					if err := service.Upload(c.Context, backup); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{
						"uploaded":      true,
						"conversations": len(snapshot.Conversations),
						"timestamp":     backup.Timestamp,
					})
				},
			},
			{
				Name:  "pull",
				Usage: "Replace local state with the GitHub backup",
				Action: func(c *cli.Context) error {
					service, err := backupService(env)
					if err != nil {
						return outputError(err)
					}
					backup, err := service.Download(c.Context)
					if err != nil {
						return outputError(err)
					}
					if backup == nil {
						return outputError(errors.NewNotFound("remote backup"))
					}

					next := env.conversations.Dispatch(state.Import{State: importedState(backup)})
					env.settings.Replace(backup.Settings)
					return outputJSON(map[string]any{
						"restored":      true,
						"conversations": len(next.Conversations),
						"tags":          len(next.Tags),
						"activeId":      next.ActiveID,
					})
				},
			},
		},
	}
}

func backupService(env *appEnv) (*gsync.Service, error) {
	s := env.settings.Get()
	if s.Sync == nil || s.Sync.GithubToken == "" || s.Sync.GithubRepo == "" {
		return nil, errors.NewMissingConfig("GitHub sync is not configured; run 'parley settings set-sync'")
	}
	return gsync.NewServiceFromConfig(*s.Sync), nil
}

// importedState normalizes a downloaded backup through the same hydration
// rules as a persisted snapshot before it is dispatched into the store.
func importedState(backup *gsync.Backup) state.State {
	activeID := ""
	if backup.ActiveID != nil {
		activeID = *backup.ActiveID
	}
	return state.DecodeImported(backup.Conversations, backup.Tags, activeID, time.Now())
}

// Web command

func webCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only web viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (host:port)"},
		},
		Action: func(c *cli.Context) error {
			addr := c.String("addr")
			if addr == "" {
				addr = env.cfg.WebAddr
			}
			srv := web.NewServer(env.conversations, Version, addr)
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.AssistError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// contentArg returns the positional content argument, falling back to stdin.
func contentArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("content is required (argument or stdin)")
	}
	content, err := readStdin()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if content == "" {
		return "", errors.NewInvalidRequest("content is required (argument or stdin)")
	}
	return content, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// stderrNotifier prints transient workflow feedback to stderr, keeping
// stdout clean for JSON output and piping.
type stderrNotifier struct{}

func (stderrNotifier) Success(message, description string) {
	printNotification(message, description)
}

func (stderrNotifier) Error(message, description string) {
	printNotification(message, description)
}

func printNotification(message, description string) {
	if description != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", message, description)
		return
	}
	fmt.Fprintln(os.Stderr, message)
}

// redactSecret masks a stored credential in command output. Empty values
// stay empty so an unconfigured field reads as such.
func redactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "(redacted)"
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
