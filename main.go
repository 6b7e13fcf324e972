package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/i18n-typegen/cmd/i18ntypes"
	"github.com/meza/i18n-typegen/internal/constants"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/lifecycle"
	"github.com/meza/i18n-typegen/internal/perf"
	"github.com/meza/i18n-typegen/internal/telemetry"
)

const (
	perfLifecycleStartup  = perf.LifecycleSpanName + ".startup"
	perfLifecycleExecute  = perf.LifecycleSpanName + ".execute"
	perfLifecycleShutdown = perf.LifecycleSpanName + ".shutdown"

	telemetryShutdownTimeout = 3 * time.Second
)

type shutdownTrigger string

const (
	shutdownTriggerNormal shutdownTrigger = "normal"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(context.Context) error
	telemetryInit     func()
	telemetryShutdown func(context.Context)
	register          func(lifecycle.Handler) lifecycle.HandlerID
	unregister        func(lifecycle.HandlerID)
	args              []string
	cwd               string
	fs                afero.Fs
	stderr            io.Writer
}

type perfExportConfig struct {
	enabled bool
	debug   bool
	baseDir string
	outDir  string
}

func main() {
	os.Exit(run())
}

func run() int {
	args := os.Args[1:]
	cwd, _ := os.Getwd()
	return runWithDeps(runDeps{
		execute: func(ctx context.Context) error {
			return i18ntypes.ExecuteContext(ctx, args)
		},
		telemetryInit:     telemetry.Init,
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		args:              args,
		cwd:               cwd,
		fs:                afero.NewOsFs(),
		stderr:            os.Stderr,
	})
}

func runWithDeps(deps runDeps) int {
	if deps.stderr == nil {
		deps.stderr = io.Discard
	}
	if deps.fs == nil {
		deps.fs = afero.NewOsFs()
	}

	perfCfg := perfExportConfigFromArgs(deps.args, deps.cwd)
	// Spans are always recorded in memory for the telemetry session event.
	// --perf only controls the export file.
	if err := perf.Init(perf.Config{Enabled: true}); err != nil {
		fmt.Fprintf(deps.stderr, "cannot start performance recording: %v\n", err)
	}

	ctx, lifecycleSpan := perf.StartSpan(context.Background(), perf.LifecycleSpanName)

	_, startupSpan := perf.StartSpan(ctx, perfLifecycleStartup)
	deps.telemetryInit()
	telemetry.SetPerfBaseDir(perfCfg.baseDir)
	telemetry.SetSessionNameHint(commandHint(deps.args))

	var once sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		once.Do(func() {
			attrs := []attribute.KeyValue{attribute.String("trigger", string(trigger))}
			if sig != nil {
				attrs = append(attrs, attribute.String("signal", sig.String()))
			}
			_, shutdownSpan := perf.StartSpan(ctx, perfLifecycleShutdown, perf.WithAttributes(attrs...))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
			deps.telemetryShutdown(shutdownCtx)
			cancel()

			shutdownSpan.End()
			lifecycleSpan.End()
			exportPerf(deps, perfCfg)
		})
	}

	handlerID := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startupSpan.End()

	execCtx, execSpan := perf.StartSpan(ctx, perfLifecycleExecute)
	err := deps.execute(execCtx)
	execSpan.SetAttributes(attribute.Bool("success", err == nil))
	execSpan.End()

	shutdown(shutdownTriggerNormal, nil)
	deps.unregister(handlerID)

	if err != nil {
		return 1
	}
	return 0
}

func exportPerf(deps runDeps, cfg perfExportConfig) {
	if !cfg.enabled {
		return
	}

	spans, err := perf.GetSpans()
	if err != nil {
		fmt.Fprintf(deps.stderr, "cannot collect performance spans: %v\n", err)
		return
	}

	path, err := perf.ExportToFile(deps.fs, cfg.outDir, cfg.baseDir, spans)
	if err != nil {
		fmt.Fprintf(deps.stderr, "cannot write performance report: %v\n", err)
		return
	}
	if cfg.debug {
		fmt.Fprintf(deps.stderr, "performance report written to %s\n", path)
	}
}

// perfExportConfigFromArgs reads the perf flags before cobra runs so the
// export location is known even when the command fails to parse. Paths are
// anchored at the directory of the configuration file.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	flags := newPreflightFlags()
	_ = flags.Parse(args)

	enabled, _ := flags.GetBool("perf")
	debug, _ := flags.GetBool("debug")
	configPath, _ := flags.GetString("config")
	outDir, _ := flags.GetString("perf-out-dir")

	if strings.TrimSpace(configPath) == "" {
		configPath, _ = environment.ConfigPath()
	}
	if strings.TrimSpace(configPath) == "" {
		configPath = constants.DefaultConfigFile
	}

	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cwd, configPath)
	}
	if abs, err := filepath.Abs(configPath); err == nil {
		configPath = abs
	}
	baseDir := filepath.Dir(configPath)

	switch {
	case strings.TrimSpace(outDir) == "":
		outDir = baseDir
	case !filepath.IsAbs(outDir):
		outDir = filepath.Join(baseDir, outDir)
	}

	return perfExportConfig{
		enabled: enabled,
		debug:   debug,
		baseDir: baseDir,
		outDir:  outDir,
	}
}

// commandHint is the first positional argument, which names the subcommand.
func commandHint(args []string) string {
	flags := newPreflightFlags()
	if err := flags.Parse(args); err != nil {
		return ""
	}
	if flags.NArg() == 0 {
		return ""
	}
	return flags.Arg(0)
}

func newPreflightFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet(constants.CommandName, pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	flags.StringP("config", "c", "", "")
	flags.BoolP("quiet", "q", false, "")
	flags.Bool("debug", false, "")
	flags.Bool("perf", false, "")
	flags.String("perf-out-dir", "", "")
	flags.BoolP("help", "h", false, "")
	return flags
}
