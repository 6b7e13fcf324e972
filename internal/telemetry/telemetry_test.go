package telemetry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/i18n-typegen/internal/compiler"
	"github.com/meza/i18n-typegen/internal/config"
	"github.com/meza/i18n-typegen/internal/dialect"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/perf"
	"github.com/meza/i18n-typegen/internal/polyglot"
	"github.com/meza/i18n-typegen/internal/translation"
)

type fakePosthog struct {
	mu         sync.Mutex
	events     []posthog.Capture
	enqueueErr error
	closeErr   error
	closeDelay time.Duration
	closed     int
}

func (fake *fakePosthog) Enqueue(msg posthog.Message) error {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if capture, ok := msg.(posthog.Capture); ok {
		fake.events = append(fake.events, capture)
	}
	return fake.enqueueErr
}

func (fake *fakePosthog) Close() error {
	fake.mu.Lock()
	fake.closed++
	fake.mu.Unlock()
	time.Sleep(fake.closeDelay)
	return fake.closeErr
}

func (fake *fakePosthog) only(t *testing.T) posthog.Capture {
	t.Helper()
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !assert.Len(t, fake.events, 1) {
		t.FailNow()
	}
	return fake.events[0]
}

type debugLog struct {
	lines []string
}

func (log *debugLog) Debugf(format string, args ...interface{}) {
	log.lines = append(log.lines, fmt.Sprintf(format, args...))
}

func (log *debugLog) String() string {
	return strings.Join(log.lines, "\n")
}

type fixture struct {
	client   *fakePosthog
	log      *debugLog
	builds   int
	key      string
	endpoint string
}

// setup enables telemetry against a fake client. Perf recording starts off.
func setup(t *testing.T, apiKey string) *fixture {
	t.Helper()
	Reset()
	perf.Reset()
	t.Cleanup(Reset)
	t.Cleanup(perf.Reset)

	t.Setenv(environment.DisableTelemetryVar, "")
	t.Setenv(environment.PosthogAPIKeyVar, apiKey)
	t.Setenv(machineIDEnvVar, "")

	fx := &fixture{client: &fakePosthog{}, log: &debugLog{}}
	SetLogger(fx.log)
	machineIDProvider = func() (string, error) { return "machine-1", nil }
	clientBuilder = func(key, url string) (Client, error) {
		fx.builds++
		fx.key = key
		fx.endpoint = url
		return fx.client, nil
	}
	return fx
}

func recordPerf(t *testing.T, build func(ctx context.Context)) {
	t.Helper()
	assert.NoError(t, perf.Init(perf.Config{Enabled: true}))
	ctx, lifecycle := perf.StartSpan(context.Background(), perf.LifecycleSpanName)
	build(ctx)
	lifecycle.End()
}

func endSpan(ctx context.Context, name string, sleep time.Duration) {
	_, span := perf.StartSpan(ctx, name)
	time.Sleep(sleep)
	span.End()
}

func TestInitConditions(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		disabled  string
		wantBuild bool
	}{
		{name: "key present", apiKey: " secret ", wantBuild: true},
		{name: "no key", apiKey: ""},
		{name: "linker placeholder", apiKey: "REPL_POSTHOG_API_KEY"},
		{name: "disabled by env", apiKey: "secret", disabled: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, tt.apiKey)
			t.Setenv(environment.DisableTelemetryVar, tt.disabled)

			Init()
			Init()

			if tt.wantBuild {
				assert.Equal(t, 1, fx.builds)
				assert.Equal(t, "secret", fx.key)
				assert.Equal(t, endpoint, fx.endpoint)
			} else {
				assert.Zero(t, fx.builds)
			}
		})
	}
}

func TestInitReportsBuilderFailure(t *testing.T) {
	fx := setup(t, "secret")
	clientBuilder = func(string, string) (Client, error) {
		return nil, errors.New("no network")
	}

	Init()
	Shutdown(context.Background())

	assert.Contains(t, fx.log.String(), "telemetry disabled: no network")
}

func TestDistinctID(t *testing.T) {
	t.Run("machine id", func(t *testing.T) {
		fx := setup(t, "secret")
		Init()
		Shutdown(context.Background())
		assert.Equal(t, "machine-1", fx.client.only(t).DistinctId)
	})

	t.Run("environment override", func(t *testing.T) {
		fx := setup(t, "secret")
		t.Setenv(machineIDEnvVar, "ci-runner")
		Init()
		Shutdown(context.Background())
		assert.Equal(t, "ci-runner", fx.client.only(t).DistinctId)
	})

	t.Run("anonymous fallback", func(t *testing.T) {
		fx := setup(t, "secret")
		machineIDProvider = func() (string, error) { return "", errors.New("no id") }
		Init()
		Shutdown(context.Background())
		assert.Equal(t, anonymousMachine, fx.client.only(t).DistinctId)
	})
}

func TestCommandsWaitForShutdown(t *testing.T) {
	fx := setup(t, "secret")
	Init()

	RecordCommand(CommandTelemetry{
		Command:   "generate",
		Error:     errors.New("2 files failed"),
		ExitCode:  1,
		Arguments: map[string]interface{}{"watch": false},
		Extra:     map[string]interface{}{"files": 3, "failed": 2},
		Duration:  150 * time.Millisecond,
	})
	RecordCommand(CommandTelemetry{Command: "  "})
	assert.Empty(t, fx.client.events)

	Shutdown(context.Background())
	Shutdown(context.Background())

	capture := fx.client.only(t)
	assert.Equal(t, 1, fx.client.closed)
	assert.Equal(t, "generate", capture.Event)
	assert.Equal(t, "session", capture.Properties["type"])
	assert.Equal(t, environment.AppVersion(), capture.Properties["version"])
	assert.NotContains(t, capture.Properties, "performance")
	assert.NotContains(t, capture.Properties, "total_time_ms")
	assert.Equal(t, []map[string]interface{}{{
		"name":           "generate",
		"success":        false,
		"exit_code":      1,
		"error_category": "unknown",
		"error":          "2 files failed",
		"arguments":      map[string]interface{}{"watch": false},
		"extra":          map[string]interface{}{"files": 3, "failed": 2},
		"duration_ms":    int64(150),
	}}, capture.Properties["commands"])
}

func TestRecordCommandWithoutClientIsDropped(t *testing.T) {
	setup(t, "")
	Init()

	RecordCommand(CommandTelemetry{Command: "generate", Success: true})

	recorderMu.Lock()
	defer recorderMu.Unlock()
	assert.Empty(t, active.commands)
}

func TestSessionCarriesPerformance(t *testing.T) {
	fx := setup(t, "secret")
	recordPerf(t, func(ctx context.Context) {
		endSpan(ctx, "app.command.generate", 5*time.Millisecond)
		endSpan(ctx, "compiler.watch.wait", 10*time.Millisecond)
	})
	Init()

	RecordCommand(CommandTelemetry{Command: "generate", Success: true})
	Shutdown(context.Background())

	props := fx.client.only(t).Properties
	assert.NotEmpty(t, props["performance"])

	commands := props["commands"].([]map[string]interface{})
	assert.Contains(t, commands[0], "duration_ms")

	total := props["total_time_ms"].(int64)
	idle := props["idle_time_ms"].(int64)
	work := props["work_time_ms"].(int64)
	assert.GreaterOrEqual(t, idle, int64(10))
	assert.LessOrEqual(t, idle+work, total)
}

func TestSessionNameFromCommandSpan(t *testing.T) {
	t.Run("no command recorded", func(t *testing.T) {
		fx := setup(t, "secret")
		recordPerf(t, func(ctx context.Context) {
			endSpan(ctx, "app.command.generate", 0)
		})
		Init()
		SetSessionNameHint("gen")

		Shutdown(context.Background())

		capture := fx.client.only(t)
		assert.Equal(t, "generate", capture.Event)
		assert.Empty(t, capture.Properties["commands"])
	})

	t.Run("alias is canonicalised", func(t *testing.T) {
		fx := setup(t, "secret")
		recordPerf(t, func(ctx context.Context) {
			endSpan(ctx, "app.command.generate", 0)
		})
		Init()
		RecordCommand(CommandTelemetry{Command: "gen", Success: true})

		Shutdown(context.Background())

		capture := fx.client.only(t)
		assert.Equal(t, "generate", capture.Event)
		assert.Equal(t, "generate", capture.Properties["commands"].([]map[string]interface{})[0]["name"])
	})

	t.Run("several commands", func(t *testing.T) {
		fx := setup(t, "secret")
		Init()
		RecordCommand(CommandTelemetry{Command: "generate", Success: true})
		RecordCommand(CommandTelemetry{Command: "version", Success: true})

		Shutdown(context.Background())

		assert.Equal(t, multiCommandSession, fx.client.only(t).Event)
	})
}

func TestPerfPathsAreRelativeToBaseDir(t *testing.T) {
	fx := setup(t, "secret")
	baseDir := t.TempDir()
	recordPerf(t, func(ctx context.Context) {
		_, file := perf.StartSpan(ctx, "compiler.file",
			perf.WithAttributes(attribute.String("input_path", filepath.Join(baseDir, "locales", "en.json"))))
		file.End()
	})
	Init()
	SetPerfBaseDir(" ")
	SetPerfBaseDir(baseDir)

	Shutdown(context.Background())

	spans := fx.client.only(t).Properties["performance"].([]perf.ExportSpan)
	file, ok := findExported(spans, "compiler.file")
	assert.True(t, ok)
	assert.Equal(t, "locales/en.json", file.Attributes["input_path"])
}

func findExported(spans []perf.ExportSpan, name string) (perf.ExportSpan, bool) {
	for _, span := range spans {
		if span.Name == name {
			return span, true
		}
	}
	return perf.ExportSpan{}, false
}

func TestShutdownFlush(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakePosthog
		cancel  bool
		timeout time.Duration
		wantLog string
	}{
		{name: "close error", client: &fakePosthog{closeErr: errors.New("flush failed")}, timeout: time.Second, wantLog: "flush failed"},
		{name: "enqueue error", client: &fakePosthog{enqueueErr: errors.New("queue full")}, timeout: time.Second, wantLog: "queue full"},
		{name: "slow close", client: &fakePosthog{closeDelay: 200 * time.Millisecond}, timeout: 10 * time.Millisecond, wantLog: "timed out"},
		{name: "canceled context", client: &fakePosthog{closeDelay: 200 * time.Millisecond}, cancel: true, timeout: time.Second, wantLog: "abandoned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, "secret")
			fx.client = tt.client
			Init()
			update(func(rec *recorder) { rec.flushTimeout = tt.timeout })

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			}
			defer cancel()

			started := time.Now()
			Shutdown(ctx)

			assert.Less(t, time.Since(started), 150*time.Millisecond)
			assert.Contains(t, fx.log.String(), tt.wantLog)
		})
	}
}

func TestSendSkipsEmptyEvent(t *testing.T) {
	client := &fakePosthog{}
	outlet{client: client, logger: silentLogger{}}.send("", map[string]interface{}{"type": "session"})
	assert.Empty(t, client.events)

	assert.NotPanics(t, func() {
		outlet{}.send("generate", nil)
	})
}

func TestSessionName(t *testing.T) {
	named := func(names ...string) []CommandTelemetry {
		commands := make([]CommandTelemetry, 0, len(names))
		for _, name := range names {
			commands = append(commands, CommandTelemetry{Command: name})
		}
		return commands
	}

	assert.Equal(t, "session", sessionName("gen", "generate", named("generate", "version")))
	assert.Equal(t, "version", sessionName("gen", "generate", named("version")))
	assert.Equal(t, "generate", sessionName("gen", "generate", named(" ")))
	assert.Equal(t, "generate", sessionName("gen", "generate", nil))
	assert.Equal(t, "version", sessionName("version", "", nil))
	assert.Equal(t, "unknown", sessionName("", "", nil))
}

func TestSummarizeCommands(t *testing.T) {
	performance := []perf.ExportSpan{{Name: "app.command.generate", DurationNS: int64(time.Second)}}

	assert.Equal(t, []map[string]interface{}{}, summarizeCommands(nil, nil))

	summaries := summarizeCommands([]CommandTelemetry{{Command: "generate", Duration: 3 * time.Millisecond}}, performance)
	assert.Equal(t, int64(3), summaries[0]["duration_ms"])

	summaries = summarizeCommands([]CommandTelemetry{{Command: "generate"}}, performance)
	assert.Equal(t, int64(1000), summaries[0]["duration_ms"])

	summaries = summarizeCommands([]CommandTelemetry{{Command: "version", Success: true}}, performance)
	assert.Equal(t, map[string]interface{}{"name": "version", "success": true, "exit_code": 0}, summaries[0])
}

func TestCommandSpans(t *testing.T) {
	assert.Equal(t, "generate", commandFromSpan("app.command.generate"))
	assert.Empty(t, commandFromSpan("app.command."+"generate.compile"))
	assert.Empty(t, commandFromSpan(perf.LifecycleSpanName))

	base := time.Now()
	assert.Empty(t, firstCommandSpan(nil))
	assert.Empty(t, firstCommandSpan([]perf.ExportSpan{{Name: perf.LifecycleSpanName}}))
	assert.Equal(t, "generate", firstCommandSpan([]perf.ExportSpan{
		{Name: "app.command.version", Start: base.Add(time.Second)},
		{Name: "app.command.generate", Start: base},
	}))

	assert.Zero(t, spanDuration("", []perf.ExportSpan{{Name: "app.command."}}))
	assert.Zero(t, spanDuration("generate", []perf.ExportSpan{{Name: "compiler.compile", DurationNS: 5}}))
	assert.Equal(t, 2*time.Millisecond, spanDuration("generate", []perf.ExportSpan{
		{Name: "app.command.generate", DurationNS: int64(2 * time.Millisecond), End: base.Add(time.Second)},
		{Name: "app.command.generate", DurationNS: int64(time.Millisecond), End: base},
	}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(CommandTelemetry{Success: true, ExitCode: 2}))
	assert.Equal(t, 0, exitCode(CommandTelemetry{Success: true}))
	assert.Equal(t, 1, exitCode(CommandTelemetry{}))
}

func TestErrorCategory(t *testing.T) {
	shape := &translation.InputShapeError{Path: "a", Kind: "number"}

	categories := map[string]error{
		"":                  nil,
		"canceled":          pkgerrors.Wrap(context.Canceled, "watch"),
		"timeout":           context.DeadlineExceeded,
		"input_shape":       &compiler.FileError{Path: "en.json", Err: pkgerrors.Wrap(shape, "cannot transform")},
		"input_syntax":      &translation.InputSyntaxError{Size: 3},
		"configuration":     &polyglot.ConfigurationError{Field: "prefix", Value: "||||"},
		"unknown_dialect":   &dialect.UnknownDialectError{Dialect: "i18next"},
		"config_not_found":  &config.ConfigFileNotFoundError{Path: "i18ntypes.toml"},
		"config_invalid":    &config.ConfigFileInvalidError{Path: "i18ntypes.toml", Err: errors.New("bad")},
		"missing_transform": &compiler.MissingTransformError{},
		"file":              &compiler.FileError{Path: "en.json", Err: errors.New("denied")},
		"unknown":           errors.New("boom"),
	}

	for want, err := range categories {
		assert.Equal(t, want, errorCategory(err), "%v", err)
	}
}
