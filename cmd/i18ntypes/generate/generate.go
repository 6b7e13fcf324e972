package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/i18n-typegen/internal/compiler"
	"github.com/meza/i18n-typegen/internal/config"
	"github.com/meza/i18n-typegen/internal/constants"
	"github.com/meza/i18n-typegen/internal/dialect"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/fileutils"
	"github.com/meza/i18n-typegen/internal/i18n"
	"github.com/meza/i18n-typegen/internal/ignore"
	"github.com/meza/i18n-typegen/internal/lifecycle"
	"github.com/meza/i18n-typegen/internal/logger"
	"github.com/meza/i18n-typegen/internal/perf"
	"github.com/meza/i18n-typegen/internal/polyglot"
	"github.com/meza/i18n-typegen/internal/telemetry"
	"github.com/meza/i18n-typegen/internal/tui"
)

const (
	commandName = "generate"
	// signalGrace bounds how long a signal waits for the watch loop to stop.
	signalGrace = 2 * time.Second
)

type generateOptions struct {
	ConfigPath   string
	Quiet        bool
	Debug        bool
	Entry        string
	OutDir       string
	Recursive    bool
	Watch        bool
	Interval     time.Duration
	Dialect      string
	Prefix       string
	Suffix       string
	PhraseName   string
	PhrasesName  string
	PolyglotName string
	NoHeritage   bool

	// Changed holds the flags given on the command line. Only those override
	// boolean values from the config file.
	Changed map[string]bool
}

type generateDeps struct {
	fs            afero.Fs
	cwd           string
	logger        *logger.Logger
	colorize      bool
	width         int
	telemetry     func(telemetry.CommandTelemetry)
	compile       func(context.Context, afero.Fs, string, ...compiler.Processor) ([]compiler.Result, error)
	watch         func(context.Context, afero.Fs, string, compiler.WatchOptions, ...compiler.Processor) error
	signalContext func(context.Context) (context.Context, func())
}

// settings is the merge of the config file and the flags.
type settings struct {
	entry     string
	outDir    string
	recursive bool
	dialect   dialect.Options
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     commandName + " [entry]",
		Aliases: []string{"gen"},
		Short:   i18n.T("cmd.generate.short"),
		Long:    i18n.T("cmd.generate.long"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, span := perf.StartSpan(cmd.Context(), "app.command."+commandName)
			defer span.End()

			opts, err := optionsFromFlags(cmd, args)
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				return err
			}
			cmd.SilenceUsage = true

			cwd, err := os.Getwd()
			if err != nil {
				span.SetAttributes(attribute.Bool("success", false))
				return err
			}

			out := cmd.OutOrStdout()
			deps := generateDeps{
				fs:        afero.NewOsFs(),
				cwd:       cwd,
				logger:    logger.New(out, cmd.ErrOrStderr(), opts.Quiet, opts.Debug),
				colorize:  tui.ShouldColorize(out),
				width:     tui.TerminalWidth(out),
				telemetry: telemetry.RecordCommand,
				compile:   compiler.Compile,
				watch:     compiler.Watch,
				signalContext: func(parent context.Context) (context.Context, func()) {
					return lifecycle.CancelOnSignal(parent, signalGrace)
				},
			}
			telemetry.SetLogger(deps.logger)

			// runGenerate reports its own failures.
			cmd.SilenceErrors = true
			payload, err := runGenerate(ctx, opts, deps)
			span.SetAttributes(attribute.Bool("success", err == nil))

			if deps.telemetry != nil {
				deps.telemetry(payload)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringP("out-dir", "o", "", i18n.T("cmd.generate.flag.out_dir"))
	flags.BoolP("recursive", "r", false, i18n.T("cmd.generate.flag.recursive"))
	flags.BoolP("watch", "w", false, i18n.T("cmd.generate.flag.watch"))
	flags.Duration("interval", compiler.DefaultWatchInterval, i18n.T("cmd.generate.flag.interval"))
	flags.String("dialect", "", i18n.T("cmd.generate.flag.dialect", i18n.Tvars{
		Data: &i18n.TData{"dialects": dialectNames()},
	}))
	flags.String("prefix", "", i18n.T("cmd.generate.flag.prefix"))
	flags.String("suffix", "", i18n.T("cmd.generate.flag.suffix"))
	flags.String("phrase-name", "", i18n.T("cmd.generate.flag.phrase_name"))
	flags.String("phrases-name", "", i18n.T("cmd.generate.flag.phrases_name"))
	flags.String("polyglot-name", "", i18n.T("cmd.generate.flag.polyglot_name"))
	flags.Bool("no-heritage", false, i18n.T("cmd.generate.flag.no_heritage"))

	return cmd
}

func optionsFromFlags(cmd *cobra.Command, args []string) (generateOptions, error) {
	opts := generateOptions{Changed: map[string]bool{}}
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"config":        &opts.ConfigPath,
		"out-dir":       &opts.OutDir,
		"dialect":       &opts.Dialect,
		"prefix":        &opts.Prefix,
		"suffix":        &opts.Suffix,
		"phrase-name":   &opts.PhraseName,
		"phrases-name":  &opts.PhrasesName,
		"polyglot-name": &opts.PolyglotName,
	}
	for name, target := range stringFlags {
		if flags.Lookup(name) == nil {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return opts, err
		}
		*target = value
	}

	boolFlags := map[string]*bool{
		"quiet":       &opts.Quiet,
		"debug":       &opts.Debug,
		"recursive":   &opts.Recursive,
		"watch":       &opts.Watch,
		"no-heritage": &opts.NoHeritage,
	}
	for name, target := range boolFlags {
		if flags.Lookup(name) == nil {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return opts, err
		}
		*target = value
	}

	interval, err := flags.GetDuration("interval")
	if err != nil {
		return opts, err
	}
	opts.Interval = interval

	flags.Visit(func(flag *pflag.Flag) {
		opts.Changed[flag.Name] = true
	})

	if len(args) > 0 {
		opts.Entry = args[0]
	}
	return opts, nil
}

func runGenerate(ctx context.Context, opts generateOptions, deps generateDeps) (telemetry.CommandTelemetry, error) {
	cfg, err := config.Load(ctx, deps.fs, opts.ConfigPath, deps.cwd)
	if err != nil {
		deps.logger.Error(err.Error())
		return failure(opts, err), err
	}
	if cfg.Path != "" {
		deps.logger.Debugf("using configuration %s", cfg.Path)
	}

	resolved, err := resolveSettings(opts, cfg, deps.cwd)
	if err != nil {
		deps.logger.Error(err.Error())
		return failure(opts, err), err
	}

	if !fileutils.FileExists(resolved.entry, deps.fs) {
		err := errors.New(i18n.T("cmd.generate.error.entry_missing", i18n.Tvars{
			Data: &i18n.TData{"entry": displayPath(deps.cwd, resolved.entry)},
		}))
		deps.logger.Error(err.Error())
		return failure(opts, err), err
	}

	processor, err := buildProcessor(deps, resolved)
	if err != nil {
		deps.logger.Error(err.Error())
		return failure(opts, err), err
	}

	if opts.Watch {
		return runWatch(ctx, opts, deps, resolved, processor)
	}

	results, compileErr := deps.compile(ctx, deps.fs, resolved.entry, processor)
	reportResults(deps, results)
	failed := reportErrors(deps, compileErr)

	payload := telemetry.CommandTelemetry{
		Command:   commandName,
		Success:   compileErr == nil,
		Arguments: arguments(opts, resolved),
		Extra: map[string]interface{}{
			"files":  len(results),
			"failed": failed,
		},
	}

	if compileErr != nil {
		err := errors.New(i18n.T("cmd.generate.error.failed_files", i18n.Tvars{
			Data: &i18n.TData{"count": failed},
		}))
		deps.logger.Error(err.Error())
		payload.ExitCode = 1
		payload.Error = compileErr
		return payload, err
	}

	if len(results) == 0 {
		deps.logger.Log(i18n.T("cmd.generate.nothing", i18n.Tvars{
			Data: &i18n.TData{"entry": displayPath(deps.cwd, resolved.entry)},
		}), false)
		return payload, nil
	}

	deps.logger.Log(i18n.T("cmd.generate.summary", i18n.Tvars{
		Data: &i18n.TData{"count": len(results)},
	}), false)
	return payload, nil
}

func runWatch(ctx context.Context, opts generateOptions, deps generateDeps, resolved settings, processor compiler.Processor) (telemetry.CommandTelemetry, error) {
	entry := displayPath(deps.cwd, resolved.entry)
	watching := i18n.T("cmd.generate.watching", i18n.Tvars{
		Data: &i18n.TData{"entry": entry},
	})
	if deps.colorize {
		deps.logger.Log(tui.Banner(tui.BannerConfig{
			App:     constants.CommandName,
			Version: environment.AppVersion(),
			Extras:  []string{entry},
		}, deps.width), false)
	}
	deps.logger.Log(fmt.Sprintf("%s %s", tui.WatchIcon(deps.colorize), watching), false)

	if deps.signalContext != nil {
		var release func()
		ctx, release = deps.signalContext(ctx)
		defer release()
	}

	written := 0
	failed := 0
	err := deps.watch(ctx, deps.fs, resolved.entry, compiler.WatchOptions{
		Interval: opts.Interval,
		OnResult: func(results []compiler.Result) {
			written += len(results)
			reportResults(deps, results)
		},
		OnError: func(err error) {
			failed += reportErrors(deps, err)
		},
	}, processor)

	payload := telemetry.CommandTelemetry{
		Command:   commandName,
		Success:   err == nil,
		Arguments: arguments(opts, resolved),
		Extra: map[string]interface{}{
			"files":  written,
			"failed": failed,
		},
	}
	if err != nil {
		deps.logger.Error(err.Error())
		payload.ExitCode = 1
		payload.Error = err
		return payload, err
	}

	deps.logger.Log(i18n.T("cmd.generate.stopped", i18n.Tvars{
		Data: &i18n.TData{"entry": entry},
	}), false)
	return payload, nil
}

func resolveSettings(opts generateOptions, cfg config.Config, cwd string) (settings, error) {
	resolved := settings{
		entry:     cfg.Entry,
		outDir:    cfg.OutDir,
		recursive: cfg.Recursive,
		dialect:   cfg.DialectOptions(),
	}

	if opts.Entry != "" {
		resolved.entry = absolute(cwd, opts.Entry)
	}
	if resolved.entry == "" {
		configFile := cfg.Path
		if configFile == "" {
			configFile = constants.DefaultConfigFile
		}
		return settings{}, errors.New(i18n.T("cmd.generate.error.no_entry", i18n.Tvars{
			Data: &i18n.TData{"configFile": configFile},
		}))
	}
	if opts.OutDir != "" {
		resolved.outDir = absolute(cwd, opts.OutDir)
	}
	if opts.Changed["recursive"] {
		resolved.recursive = opts.Recursive
	}

	if opts.Dialect != "" {
		resolved.dialect.Name = dialect.Name(opts.Dialect)
	}
	applyPolyglotFlags(&resolved.dialect.Polyglot, opts)

	return resolved, nil
}

func applyPolyglotFlags(target *polyglot.Options, opts generateOptions) {
	if opts.Prefix != "" {
		target.Prefix = opts.Prefix
	}
	if opts.Suffix != "" {
		target.Suffix = opts.Suffix
	}
	if opts.PhraseName != "" {
		target.Names.Phrase = opts.PhraseName
	}
	if opts.PhrasesName != "" {
		target.Names.Phrases = opts.PhrasesName
	}
	if opts.PolyglotName != "" {
		target.Names.Polyglot = opts.PolyglotName
	}
	if opts.Changed["no-heritage"] && opts.NoHeritage {
		target.HeritageClauses = []polyglot.HeritageClause{}
	}
}

func dialectNames() string {
	names := make([]string, 0, len(dialect.Names()))
	for _, name := range dialect.Names() {
		names = append(names, string(name))
	}
	return strings.Join(names, ", ")
}

func buildProcessor(deps generateDeps, resolved settings) (compiler.Processor, error) {
	transform, err := dialect.New(resolved.dialect)
	if err != nil {
		return compiler.Processor{}, err
	}

	root := resolved.entry
	if !fileutils.IsDir(root, deps.fs) {
		root = filepath.Dir(root)
	}
	filter, err := ignore.Load(deps.fs, root)
	if err != nil {
		return compiler.Processor{}, pkgerrors.Wrapf(err, "cannot read %s", filepath.Join(root, ignore.FileName))
	}
	deps.logger.Debugf("ignoring %s", strings.Join(filter.Patterns(), ", "))

	return compiler.NewProcessor(compiler.ProcessorOptions{
		OutDir:    resolved.outDir,
		Recursive: resolved.recursive,
		Include:   filter.Include,
		Transform: compiler.Transform(transform),
	}), nil
}

func reportResults(deps generateDeps, results []compiler.Result) {
	for _, result := range results {
		message := i18n.T("cmd.generate.written", i18n.Tvars{
			Data: &i18n.TData{
				"input":  tui.Path(displayPath(deps.cwd, result.Input), deps.colorize),
				"output": tui.Path(displayPath(deps.cwd, result.Output), deps.colorize),
			},
		})
		deps.logger.Log(fmt.Sprintf("%s %s", tui.SuccessIcon(deps.colorize), message), false)
	}
}

// reportErrors logs every failure inside err and returns how many there were.
func reportErrors(deps generateDeps, err error) int {
	if err == nil {
		return 0
	}

	failures := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		failures = joined.Unwrap()
	}

	for _, failure := range failures {
		var fileErr *compiler.FileError
		message := failure.Error()
		if errors.As(failure, &fileErr) {
			message = i18n.T("cmd.generate.failed", i18n.Tvars{
				Data: &i18n.TData{
					"input": displayPath(deps.cwd, fileErr.Path),
					"error": fileErr.Err.Error(),
				},
			})
		}
		deps.logger.Error(fmt.Sprintf("%s %s", tui.ErrorIcon(deps.colorize), message))
	}
	return len(failures)
}

func failure(opts generateOptions, err error) telemetry.CommandTelemetry {
	return telemetry.CommandTelemetry{
		Command:  commandName,
		Success:  false,
		ExitCode: 1,
		Error:    err,
		Arguments: map[string]interface{}{
			"watch": opts.Watch,
		},
	}
}

func arguments(opts generateOptions, resolved settings) map[string]interface{} {
	name := resolved.dialect.Name
	if name == "" {
		name = dialect.Default
	}
	return map[string]interface{}{
		"watch":     opts.Watch,
		"recursive": resolved.recursive,
		"out_dir":   resolved.outDir != "",
		"dialect":   string(name),
	}
}

func absolute(cwd string, path string) string {
	if filepath.IsAbs(path) || cwd == "" {
		return path
	}
	return filepath.Join(cwd, path)
}

// displayPath prefers a path relative to cwd when it stays below it.
func displayPath(cwd string, path string) string {
	if cwd == "" {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
