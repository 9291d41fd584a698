package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/kv"
	"github.com/parleyhq/parley/internal/mcp"
	"github.com/parleyhq/parley/internal/settings"
	"github.com/parleyhq/parley/internal/state"
	"github.com/parleyhq/parley/internal/workflow"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"new": true, "list": true, "show": true, "use": true,
	"rename": true, "pin": true, "archive": true, "delete": true,
	"partner": true, "self": true, "translate": true, "reply": true,
	"preview": true, "remove-row": true, "copy": true,
	"set-language": true, "set-tone": true, "use-refs": true, "use-quotes": true,
	"tag": true, "settings": true, "ref": true, "quote": true,
	"backup": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___          _
  | _ \__ _ _ _| |___ _  _
  |  _/ _' | '_| / -_) || |
  |_| \__,_|_| |_\___|\_, |
                      |__/

  Local conversation assistant

  Usage: parley <command> [options]
         parley --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before store init (no store needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".parley")

	kvStore, err := kv.Open(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer kvStore.Close()

	conversations, err := state.Open(kvStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load conversations: %v\n", err)
		os.Exit(1)
	}
	settingsStore, err := settings.Open(kvStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load settings: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown disabled_tools in config: %v\n", unknown)
		os.Exit(1)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "error: unknown disabled_types in config: %v\n", unknown)
		os.Exit(1)
	}

	// MCP stdio mode stays quiet; CLI commands surface workflow toasts on
	// stderr so stdout remains pipeable JSON.
	var notifier workflow.Notifier = workflow.NopNotifier{}
	if isCLIMode() {
		notifier = stderrNotifier{}
	}
	wf := workflow.New(conversations, settingsStore, notifier)
	wf.TranslationTarget = cfg.TranslationTarget

	env := &appEnv{
		conversations: conversations,
		settings:      settingsStore,
		workflow:      wf,
		cfg:           cfg,
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'parley --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(conversations, settingsStore, wf, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
