// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level command handlers for pinlock.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdPrompt
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdPrompt:
		return "prompt"
	case CmdConfig:
		return "config"
	case CmdHistory:
		return "history"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	ASCII      bool   // Force ASCII glyphs
	NoAudit    bool   // Disable the audit log for this run
	ConfigPath string // Explicit config file

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Limit      int

	// Raw args (remaining after flag parsing)
	Raw []string

	// Options holds command-specific named options (e.g., --before)
	Options map[string]string
}

const usageText = `pinlock - PIN lock screen for the terminal

Usage:
  pinlock                      Start the lock screen TUI (default)
  pinlock tui                  Same as above
  pinlock prompt               Line-mode unlock (no full-screen UI)
  pinlock config [subcommand]  Configuration
  pinlock history [subcommand] Lock event history
  pinlock version              Show version
  pinlock help                 Show this help

Config Commands:
  pinlock config show          Show configuration (PIN redacted)
  pinlock config get <key>     Show one value
  pinlock config set <key> <v> Set a value (e.g. lock.auto_lock_minutes 5)
  pinlock config keys          List all keys
  pinlock config reset         Restore defaults
  pinlock config path          Show config file path

History Commands:
  pinlock history [list]       Recent events (--limit N, default 20)
  pinlock history stats        Event counts by kind
  pinlock history prune        Delete events older than --before (e.g. 720h)

TUI Keys:
  0-9                          Enter digit
  Backspace                    Delete digit
  r                            Reset PIN (unlock screen)
  Esc                          Cancel PIN change
  Ctrl+Z                       Suspend (counts as background time)
  Ctrl+L                       Lock now
  Ctrl+C                       Quit

Global Flags:
  --config <path>              Use a specific config file
  --ascii                      ASCII glyphs for PIN dots
  --no-audit                   Do not write the audit log
  --json                       JSON output (config, history, version)
  -q, --quiet                  Minimal output
  -v, --verbose                Verbose output

Environment:
  PINLOCK_HOME                 Config directory (default ~/.pinlock)
  PINLOCK_PIN                  Override lock.correct_pin
  PINLOCK_LOCK_ON_RESUME       Override lock.lock_on_resume
  PINLOCK_AUTO_LOCK_MINUTES    Override lock.auto_lock_minutes
  PINLOCK_AUDIT                Override audit.enabled

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("pinlock version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui", "lock":
		return CmdTUI, parsedArgs

	case "prompt", "unlock":
		return CmdPrompt, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "history", "log":
		parseHistoryArgs(&parsedArgs, remaining)
		return CmdHistory, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{
		Options: make(map[string]string),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--ascii":
			parsedArgs.ASCII = true
		case "--no-audit":
			parsedArgs.NoAudit = true
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// parseHistoryArgs parses history command specific arguments.
func parseHistoryArgs(args *Args, remaining []string) {
	args.Limit = 20

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch {
		case arg == "--limit" || arg == "-n":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil {
					args.Limit = n
				}
			}
		case strings.HasPrefix(arg, "--limit="):
			if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--limit=")); err == nil {
				args.Limit = n
			}
		case arg == "--before" && i+1 < len(remaining):
			args.Options["before"] = remaining[i+1]
			i++
		case strings.HasPrefix(arg, "--before="):
			args.Options["before"] = strings.TrimPrefix(arg, "--before=")
		case !strings.HasPrefix(arg, "-") && args.Subcommand == "":
			args.Subcommand = strings.ToLower(arg)
		}
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		NewJSONResponse("version", data).Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command. An unknown command is reported
// before the usage text and makes the process exit with a usage error.
func HandleHelp(args Args) {
	if len(args.Raw) > 0 {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args.Raw[0])
		PrintUsage()
		os.Exit(ExitUsageError)
	}
	PrintUsage()
}
