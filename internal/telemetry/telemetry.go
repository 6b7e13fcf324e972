// Package telemetry collects anonymous usage data. Commands are recorded
// during the run and sent as a single session event on Shutdown.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/meza/i18n-typegen/internal/compiler"
	"github.com/meza/i18n-typegen/internal/config"
	"github.com/meza/i18n-typegen/internal/dialect"
	"github.com/meza/i18n-typegen/internal/environment"
	"github.com/meza/i18n-typegen/internal/perf"
	"github.com/meza/i18n-typegen/internal/polyglot"
	"github.com/meza/i18n-typegen/internal/translation"
)

const (
	endpoint            = "https://eu.i.posthog.com"
	defaultFlushTimeout = 2 * time.Second
	commandSpanPrefix   = "app.command."
	multiCommandSession = "session"
	unknownSession      = "unknown"
	anonymousMachine    = "anonymous"
	machineIDEnvVar     = "MACHINE_ID"
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

// Logger receives diagnostics about delivery failures.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type silentLogger struct{}

func (silentLogger) Debugf(string, ...interface{}) {}

type CommandTelemetry struct {
	Command   string
	Success   bool
	ExitCode  int
	Error     error
	Arguments map[string]interface{}
	Extra     map[string]interface{}
	Duration  time.Duration
}

// outlet is what a session event needs to leave the process.
type outlet struct {
	client       Client
	distinctID   string
	logger       Logger
	flushTimeout time.Duration
}

type recorder struct {
	outlet
	sessionHint string
	perfBaseDir string
	commands    []CommandTelemetry
}

var (
	recorderMu sync.Mutex
	active     = newRecorder()

	clientBuilder     = newPosthogClient
	machineIDProvider = machineid.ID
)

func newRecorder() recorder {
	return recorder{outlet: outlet{logger: silentLogger{}, flushTimeout: defaultFlushTimeout}}
}

func newPosthogClient(apiKey, endpoint string) (Client, error) {
	return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
}

// Init creates the client unless telemetry is disabled or no API key was
// built in. Calling it again is a no-op.
func Init() {
	recorderMu.Lock()
	defer recorderMu.Unlock()

	if active.client != nil || environment.TelemetryDisabled() {
		return
	}

	apiKey := strings.TrimSpace(environment.PosthogAPIKey())
	if apiKey == "" || strings.HasPrefix(apiKey, "REPL_") {
		return
	}

	client, err := clientBuilder(apiKey, endpoint)
	if err != nil || client == nil {
		active.logger.Debugf("telemetry disabled: %v", err)
		return
	}

	active.client = client
	active.distinctID = distinctID()
}

func distinctID() string {
	if id := strings.TrimSpace(os.Getenv(machineIDEnvVar)); id != "" {
		return id
	}
	if id, err := machineIDProvider(); err == nil && id != "" {
		return id
	}
	return anonymousMachine
}

func SetLogger(logger Logger) {
	if logger == nil {
		logger = silentLogger{}
	}
	update(func(rec *recorder) { rec.logger = logger })
}

// SetSessionNameHint names the session when no command gets recorded, for
// example when argument parsing fails.
func SetSessionNameHint(name string) {
	if name = strings.TrimSpace(name); name != "" {
		update(func(rec *recorder) { rec.sessionHint = name })
	}
}

// SetPerfBaseDir relativises path attributes in the performance payload.
func SetPerfBaseDir(dir string) {
	if dir = strings.TrimSpace(dir); dir != "" {
		update(func(rec *recorder) { rec.perfBaseDir = dir })
	}
}

func update(change func(*recorder)) {
	recorderMu.Lock()
	change(&active)
	recorderMu.Unlock()
}

// RecordCommand stores the outcome of a command for the session event.
func RecordCommand(command CommandTelemetry) {
	command.Command = strings.TrimSpace(command.Command)
	if command.Command == "" {
		return
	}

	recorderMu.Lock()
	defer recorderMu.Unlock()
	if active.client != nil {
		active.commands = append(active.commands, command)
	}
}

// Shutdown sends the session event and flushes the client. It gives up after
// the flush timeout or when ctx is done. Later calls do nothing.
func Shutdown(ctx context.Context) {
	recorderMu.Lock()
	finished := active
	active.client = nil
	active.commands = nil
	recorderMu.Unlock()

	if finished.client == nil {
		return
	}

	event, properties := finished.sessionEvent()
	finished.send(event, properties)
	finished.close(ctx)
}

// Reset drops the client and everything recorded.
func Reset() {
	recorderMu.Lock()
	defer recorderMu.Unlock()
	active = newRecorder()
	clientBuilder = newPosthogClient
	machineIDProvider = machineid.ID
}

func (rec recorder) sessionEvent() (string, map[string]interface{}) {
	var performance []perf.ExportSpan
	if spans, err := perf.GetSpans(); err == nil {
		performance = perf.ExportSpans(spans, rec.perfBaseDir)
	}

	commands := rec.commands
	canonical := firstCommandSpan(performance)
	if canonical != "" && len(commands) == 1 {
		commands[0].Command = canonical
	}

	properties := map[string]interface{}{
		"type":     "session",
		"commands": summarizeCommands(commands, performance),
	}
	if len(performance) > 0 {
		properties["performance"] = performance
	}
	if durations, err := perf.GetSessionDurations(); err == nil {
		properties["total_time_ms"] = durations.Total.Milliseconds()
		properties["idle_time_ms"] = durations.Idle.Milliseconds()
		properties["work_time_ms"] = durations.Work.Milliseconds()
	}

	return sessionName(rec.sessionHint, canonical, commands), properties
}

func (out outlet) send(event string, properties map[string]interface{}) {
	if out.client == nil || event == "" {
		return
	}

	payload := posthog.NewProperties()
	for key, value := range properties {
		payload.Set(key, value)
	}
	payload.Set("version", environment.AppVersion())

	err := out.client.Enqueue(posthog.Capture{
		Event:      event,
		DistinctId: out.distinctID,
		Properties: payload,
	})
	if err != nil {
		out.logger.Debugf("telemetry enqueue failed: %v", err)
	}
}

func (out outlet) close(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	closed := make(chan error, 1)
	go func() {
		closed <- out.client.Close()
	}()

	timer := time.NewTimer(out.flushTimeout)
	defer timer.Stop()

	select {
	case err := <-closed:
		if err != nil {
			out.logger.Debugf("telemetry flush failed: %v", err)
		}
	case <-timer.C:
		out.logger.Debugf("telemetry flush timed out after %s", out.flushTimeout)
	case <-ctx.Done():
		out.logger.Debugf("telemetry flush abandoned: %v", ctx.Err())
	}
}

func sessionName(hint string, canonical string, commands []CommandTelemetry) string {
	switch {
	case len(commands) > 1:
		return multiCommandSession
	case len(commands) == 1 && strings.TrimSpace(commands[0].Command) != "":
		return commands[0].Command
	case canonical != "":
		return canonical
	case hint != "":
		return hint
	default:
		return unknownSession
	}
}

func summarizeCommands(commands []CommandTelemetry, performance []perf.ExportSpan) []map[string]interface{} {
	summaries := make([]map[string]interface{}, 0, len(commands))
	for _, command := range commands {
		summary := map[string]interface{}{
			"name":      command.Command,
			"success":   command.Success,
			"exit_code": exitCode(command),
		}
		if command.Error != nil {
			summary["error_category"] = errorCategory(command.Error)
			summary["error"] = command.Error.Error()
		}
		if command.Arguments != nil {
			summary["arguments"] = command.Arguments
		}
		if command.Extra != nil {
			summary["extra"] = command.Extra
		}

		duration := command.Duration
		if duration == 0 {
			duration = spanDuration(command.Command, performance)
		}
		if duration > 0 {
			summary["duration_ms"] = duration.Milliseconds()
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// commandFromSpan accepts only top-level command spans such as
// "app.command.generate".
func commandFromSpan(spanName string) string {
	name, ok := strings.CutPrefix(spanName, commandSpanPrefix)
	if !ok || strings.Contains(name, ".") {
		return ""
	}
	return name
}

// firstCommandSpan names the command whose span started first.
func firstCommandSpan(performance []perf.ExportSpan) string {
	var commands []perf.ExportSpan
	for _, span := range performance {
		if commandFromSpan(span.Name) != "" {
			commands = append(commands, span)
		}
	}
	if len(commands) == 0 {
		return ""
	}

	sort.SliceStable(commands, func(left, right int) bool {
		return commands[left].Start.Before(commands[right].Start)
	})
	return commandFromSpan(commands[0].Name)
}

// spanDuration reads the command span that ended last.
func spanDuration(command string, performance []perf.ExportSpan) time.Duration {
	var latest *perf.ExportSpan
	for index := range performance {
		span := &performance[index]
		if command == "" || span.Name != commandSpanPrefix+command {
			continue
		}
		if latest == nil || span.End.After(latest.End) {
			latest = span
		}
	}
	if latest == nil {
		return 0
	}
	return time.Duration(latest.DurationNS)
}

func exitCode(command CommandTelemetry) int {
	switch {
	case command.ExitCode != 0:
		return command.ExitCode
	case command.Success:
		return 0
	default:
		return 1
	}
}

func errorCategory(err error) string {
	var (
		shapeErr     *translation.InputShapeError
		syntaxErr    *translation.InputSyntaxError
		configErr    *polyglot.ConfigurationError
		dialectErr   *dialect.UnknownDialectError
		notFoundErr  *config.ConfigFileNotFoundError
		invalidErr   *config.ConfigFileInvalidError
		fileErr      *compiler.FileError
		transformErr *compiler.MissingTransformError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &shapeErr):
		return "input_shape"
	case errors.As(err, &syntaxErr):
		return "input_syntax"
	case errors.As(err, &configErr):
		return "configuration"
	case errors.As(err, &dialectErr):
		return "unknown_dialect"
	case errors.As(err, &notFoundErr):
		return "config_not_found"
	case errors.As(err, &invalidErr):
		return "config_invalid"
	case errors.As(err, &transformErr):
		return "missing_transform"
	case errors.As(err, &fileErr):
		return "file"
	default:
		return "unknown"
	}
}
