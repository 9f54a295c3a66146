package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// ErrNoCommand is returned when no command is provided after "run"
var ErrNoCommand = errors.New("no command provided: usage: envin run [flags] <command> [args...]")

// ErrNoSubcommand is returned when no subcommand is provided
var ErrNoSubcommand = errors.New("missing subcommand: usage: envin <check|run|vars|defaults|presets|watch> [flags]")

// ErrUnknownSubcommand is returned for a first argument that names no subcommand
var ErrUnknownSubcommand = errors.New("unknown subcommand")

// ErrUnexpectedArgument is returned when a subcommand other than run gets
// positional arguments
var ErrUnexpectedArgument = errors.New("unexpected argument")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandCheck    Subcommand = "check"
	SubcommandRun      Subcommand = "run"
	SubcommandVars     Subcommand = "vars"
	SubcommandDefaults Subcommand = "defaults"
	SubcommandPresets  Subcommand = "presets"
	SubcommandWatch    Subcommand = "watch"
)

// Subcommands lists every subcommand in usage order.
func Subcommands() []Subcommand {
	return []Subcommand{SubcommandCheck, SubcommandRun, SubcommandVars, SubcommandDefaults, SubcommandPresets, SubcommandWatch}
}

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand
	Target     string   // The command to execute - only for run
	Args       []string // Arguments passed to Target unchanged

	ConfigPath string // --config <path>
	Mode       string // --mode development|production
	Client     bool   // --client validates as the client would see it
	JSONOutput bool   // --json
	CIMode     bool   // --ci
	Skip       bool   // --skip binds defaults without validating
	LogLevel   string // --log-level
	Help       bool   // --help
}

func newFlagSet(sub Subcommand, cmd *Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet("envin "+string(sub), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&cmd.Help, "help", "h", false, "show help")
	fs.StringVar(&cmd.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&cmd.JSONOutput, "json", false, "print machine-readable JSON")
	if sub == SubcommandPresets {
		return fs
	}
	fs.StringVarP(&cmd.ConfigPath, "config", "c", "", "config file (default: env.config.{yaml,yml,jsonc,json,lua})")
	fs.StringVarP(&cmd.Mode, "mode", "m", "", "which .env files to read: development or production")
	fs.BoolVar(&cmd.Client, "client", false, "validate in client context")
	fs.BoolVar(&cmd.CIMode, "ci", false, "emit CI annotations")
	fs.BoolVar(&cmd.Skip, "skip", false, "skip validation and use defaults for missing values")
	return fs
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
// For run, parsing stops at the first non-flag argument, which becomes the
// target; everything after it is passed through untouched.
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}
	switch args[0] {
	case "help", "-h", "--help":
		return Command{Help: true}, nil
	}

	sub := Subcommand(args[0])
	if !isSubcommand(sub) {
		return Command{}, fmt.Errorf("%w %q: usage: envin <check|run|vars|defaults|presets|watch> [flags]", ErrUnknownSubcommand, args[0])
	}

	cmd := Command{Subcommand: sub}
	fs := newFlagSet(sub, &cmd)
	if sub == SubcommandRun {
		fs.SetInterspersed(false)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return Command{}, fmt.Errorf("%s: %w", sub, err)
	}
	if cmd.Help {
		return cmd, nil
	}

	rest := fs.Args()
	if sub == SubcommandRun {
		if len(rest) == 0 {
			return Command{}, ErrNoCommand
		}
		cmd.Target = rest[0]
		if len(rest) > 1 {
			cmd.Args = rest[1:]
		}
		return cmd, nil
	}
	if len(rest) > 0 {
		return Command{}, fmt.Errorf("%s: %w: %s", sub, ErrUnexpectedArgument, rest[0])
	}
	return cmd, nil
}

func isSubcommand(s Subcommand) bool {
	for _, known := range Subcommands() {
		if s == known {
			return true
		}
	}
	return false
}

// ApplyEnv fills unset options from the environment: ENVIN_CONFIG,
// ENVIN_MODE, ENVIN_LOG_LEVEL, and CI or ENVIN_CI for CI mode. Flags take
// precedence.
func ApplyEnv(cmd Command, environ []string) Command {
	if cmd.ConfigPath == "" {
		cmd.ConfigPath, _ = LookupEnv(environ, "ENVIN_CONFIG")
	}
	if cmd.Mode == "" {
		cmd.Mode, _ = LookupEnv(environ, "ENVIN_MODE")
	}
	if cmd.LogLevel == "" {
		cmd.LogLevel, _ = LookupEnv(environ, "ENVIN_LOG_LEVEL")
	}
	if !cmd.CIMode {
		cmd.CIMode = EnvBool(environ, "ENVIN_CI") || EnvBool(environ, "CI")
	}
	return cmd
}

// LookupEnv returns the value of name in an environ slice.
func LookupEnv(environ []string, name string) (string, bool) {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			return strings.TrimPrefix(env, prefix), true
		}
	}
	return "", false
}

// EnvBool checks if an environment variable is set to a truthy value
func EnvBool(environ []string, name string) bool {
	val, ok := LookupEnv(environ, name)
	if !ok {
		return false
	}
	val = strings.ToLower(val)
	return val == "true" || val == "1" || val == "yes"
}

// Usage is the top-level help text.
const Usage = `envin validates environment variables against a composed schema.

Usage:
  envin check    [flags]                    validate and report
  envin run      [flags] <command> [args]   validate, then exec command
  envin vars     [flags]                    list every declared variable
  envin defaults [flags]                    print resolved defaults
  envin presets  [--json]                   list built-in platform presets
  envin watch    [flags]                    re-validate on file changes

Flags:
  -c, --config <path>   config file (default: env.config.{yaml,yml,jsonc,json,lua})
  -m, --mode <mode>     development (default) or production
      --client          validate in client context
      --skip            skip validation and use defaults
      --json            print JSON
      --ci              emit CI annotations
      --log-level <l>   debug, info, warn (default) or error

Environment:
  ENVIN_CONFIG, ENVIN_MODE, ENVIN_LOG_LEVEL, CI / ENVIN_CI
`
