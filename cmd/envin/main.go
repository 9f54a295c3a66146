package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"envin/internal/cli"
	"envin/internal/defaults"
	"envin/internal/env"
	"envin/internal/launcher"
	"envin/internal/loader"
	"envin/internal/logging"
	"envin/internal/preset"
	"envin/internal/report"
	"envin/internal/resolver"
	"envin/internal/standard"
	"envin/internal/watch"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitConfig  = 3
)

func main() {
	exitCode := run(os.Args[1:], os.Environ(), ".")
	os.Exit(exitCode)
}

// run orchestrates the full execution flow and returns the exit code.
func run(args []string, environ []string, dir string) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitInvalid
	}
	if cmd.Help {
		fmt.Print(cli.Usage)
		return exitOK
	}
	cmd = cli.ApplyEnv(cmd, environ)

	level, err := logging.ParseLevel(cmd.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitInvalid
	}
	logger := logging.New(os.Stderr, level)
	defer func() { _ = logger.Sync() }()
	defer zap.ReplaceGlobals(logger)()

	if cmd.Subcommand == cli.SubcommandPresets {
		return runPresets(cmd)
	}

	mode, err := resolver.ParseMode(cmd.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitInvalid
	}

	configPath, err := resolveConfigPath(cmd.ConfigPath, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config file not found: %v\n", err)
		return exitConfig
	}

	if cmd.Subcommand == cli.SubcommandWatch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd, environ, dir, configPath, mode, logger)
	}

	cfg, code := loadConfig(context.Background(), configPath)
	if cfg == nil {
		return code
	}
	logger.Debug("Config loaded",
		zap.String("path", configPath),
		zap.String("format", string(cfg.Format)),
		zap.String("mode", string(mode)))

	out := evaluate(cfg, cmd, environ, dir, mode, logger)
	if out.err != nil {
		fmt.Fprintln(os.Stderr, "Error:", out.err)
		return errorExitCode(out.err)
	}

	switch cmd.Subcommand {
	case cli.SubcommandVars:
		return runVars(cmd, cfg, out)
	case cli.SubcommandDefaults:
		return runDefaults(cmd, cfg, logger)
	case cli.SubcommandRun:
		if len(out.issues) > 0 {
			report.WriteIssues(os.Stderr, out.issues, cmd.CIMode, displayPath(configPath, dir))
			return exitInvalid
		}
		err := launcher.Exec(cmd.Target, cmd.Args, execEnviron(environ, out.env, cmd.Client))
		fmt.Fprintf(os.Stderr, "Error: cannot execute %s: %v\n", cmd.Target, err)
		return launcher.ExitCode(err)
	}
	return printCheck(cmd, configPath, dir, mode, out)
}

// outcome is the result of one validation pass.
type outcome struct {
	src    *resolver.Source
	env    *env.Env
	issues standard.Issues
	err    error
}

func evaluate(cfg *loader.Config, cmd cli.Command, environ []string, dir string, mode resolver.Mode, logger *zap.Logger) outcome {
	src, err := resolver.Resolve(dir, mode, environ)
	if err != nil {
		return outcome{err: err}
	}
	logger.Debug("Values resolved", zap.Strings("files", src.Files), zap.Int("variables", len(src.Values)))

	e, err := env.Define(env.Options{
		Preset:    cfg.Preset,
		Values:    env.LooseStrings(src.Values),
		IsServer:  env.Server(!cmd.Client),
		Skip:      cmd.Skip,
		Transform: cfg.Transform(),
		Logger:    logger,
		OnError: func(issues standard.Issues) error {
			logger.Debug("Validation failed", zap.Int("issues", len(issues)))
			return nil
		},
	})
	if err != nil {
		var envErr *env.EnvError
		if errors.As(err, &envErr) {
			return outcome{src: src, issues: envErr.Issues}
		}
		return outcome{src: src, err: err}
	}
	return outcome{src: src, env: e}
}

func errorExitCode(err error) int {
	var prefixErr *preset.PrefixError
	if errors.As(err, &prefixErr) {
		return exitConfig
	}
	return exitInvalid
}

func loadConfig(ctx context.Context, path string) (*loader.Config, int) {
	cfg, err := loader.Load(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config file not found: %s\n", path)
			return nil, exitConfig
		}
		fmt.Fprintf(os.Stderr, "failed to parse config: %v\n", err)
		return nil, exitConfig
	}
	return cfg, exitOK
}

// resolveConfigPath determines the config path from the flag (or
// ENVIN_CONFIG) or by discovery in dir.
func resolveConfigPath(value string, dir string) (string, error) {
	if value == "" {
		return loader.Discover(dir)
	}
	if filepath.IsAbs(value) {
		return value, nil
	}
	return filepath.Join(dir, value), nil
}

// displayPath is the config path as shown in annotations.
func displayPath(path, dir string) string {
	if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func printCheck(cmd cli.Command, configPath, dir string, mode resolver.Mode, out outcome) int {
	valid := len(out.issues) == 0
	if cmd.JSONOutput {
		doc := report.Check{
			Valid:   valid,
			Config:  displayPath(configPath, dir),
			Mode:    string(mode),
			Server:  !cmd.Client,
			Skipped: out.env != nil && out.env.Skipped(),
			Issues:  report.IssuesJSON(out.issues),
		}
		if err := report.WriteJSON(os.Stdout, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot format results: %v\n", err)
			return exitInvalid
		}
		if !valid {
			return exitInvalid
		}
		return exitOK
	}

	if !valid {
		report.WriteIssues(os.Stderr, out.issues, cmd.CIMode, displayPath(configPath, dir))
		return exitInvalid
	}
	if out.env.Skipped() {
		fmt.Println("✓ Validation skipped, defaults applied")
		return exitOK
	}
	fmt.Printf("✓ Environment valid (%d variables)\n", len(out.env.Schema()))
	return exitOK
}

func runVars(cmd cli.Command, cfg *loader.Config, out outcome) int {
	rows := report.Rows(preset.Variables(cfg.Preset, !cmd.Client, nil), out.src, out.issues)
	if cmd.JSONOutput {
		if err := report.WriteJSON(os.Stdout, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot format variables: %v\n", err)
			return exitInvalid
		}
		return exitOK
	}
	if err := report.WriteTable(os.Stdout, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitInvalid
	}
	return exitOK
}

func runDefaults(cmd cli.Command, cfg *loader.Config, logger *zap.Logger) int {
	reg := defaults.Default()
	logger.Debug("resolving defaults", zap.Strings("strategies", reg.Names()))
	values := reg.Dictionary(preset.Compose(cfg.Preset, !cmd.Client))
	if cmd.JSONOutput {
		if err := report.WriteJSON(os.Stdout, values); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot format defaults: %v\n", err)
			return exitInvalid
		}
		return exitOK
	}
	report.WriteDefaults(os.Stdout, values)
	return exitOK
}

type presetInfo struct {
	ID        string   `json:"id"`
	Prefix    string   `json:"prefix,omitempty"`
	Variables []string `json:"variables"`
}

func runPresets(cmd cli.Command) int {
	var infos []presetInfo
	for _, id := range preset.CatalogIDs() {
		p, _ := preset.Lookup(id)
		infos = append(infos, presetInfo{ID: id, Prefix: p.Prefix, Variables: preset.Compose(p, true).Keys()})
	}
	if cmd.JSONOutput {
		if err := report.WriteJSON(os.Stdout, infos); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot format presets: %v\n", err)
			return exitInvalid
		}
		return exitOK
	}
	for _, info := range infos {
		fmt.Printf("%-16s %s\n", info.ID, strings.Join(info.Variables, ", "))
	}
	return exitOK
}

// execEnviron overlays the validated values on the process environment.
// Unset optional values are left out. With client set, only client-visible
// values are injected.
func execEnviron(environ []string, e *env.Env, client bool) []string {
	validated := e.Map()
	if client {
		validated = e.Public()
	}
	values := resolver.ParseEnviron(environ)
	for k, v := range validated {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return resolver.Environ(values)
}

// runWatch re-validates whenever the config or a .env file changes. A
// failing pass is reported and watching continues.
func runWatch(ctx context.Context, cmd cli.Command, environ []string, dir, configPath string, mode resolver.Mode, logger *zap.Logger) int {
	files := []string{configPath}
	for _, name := range resolver.Files(mode) {
		files = append(files, filepath.Join(dir, name))
	}

	w := watch.New(logger, watch.DefaultDebounce, files...)
	err := w.Run(ctx, func(ctx context.Context) {
		fmt.Printf("\n[%s] validating %s\n", time.Now().Format("15:04:05"), displayPath(configPath, dir))
		cfg, _ := loadConfig(ctx, configPath)
		if cfg == nil {
			return
		}
		out := evaluate(cfg, cmd, environ, dir, mode, logger)
		if out.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", out.err)
			return
		}
		printCheck(cmd, configPath, dir, mode, out)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitInvalid
	}
	return exitOK
}
