// Package telemetry sends one anonymous usage event per process run.
package telemetry

import (
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/environment"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
)

const (
	defaultPosthogHost  = "https://eu.i.posthog.com"
	defaultFlushTimeout = 2 * time.Second

	disableEnvVar    = "VSMM_DISABLE_TELEMETRY"
	machineIDEnvVar  = "MACHINE_ID"
	unknownMachineID = "unknown"

	commandSpanPrefix = "app.command."
	multiCommandEvent = "tui"
	unknownEvent      = "unknown"
)

type Client interface {
	io.Closer
	Enqueue(posthog.Message) error
}

type Logger interface {
	Debugf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}

type CommandTelemetry struct {
	Command     string                 `json:"command"`
	Success     bool                   `json:"success"`
	Config      *config.Config         `json:"config,omitempty"`
	Error       error                  `json:"error,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	Arguments   map[string]interface{} `json:"arguments,omitempty"`
	Duration    time.Duration          `json:"duration,omitempty"`
	ExitCode    int                    `json:"exit_code"`
	Interactive bool                   `json:"interactive"`
}

type recordedCommand struct {
	Name          string
	Success       bool
	ExitCode      int
	Interactive   bool
	ErrorCategory string
	ErrorMessage  string
	Arguments     map[string]interface{}
	Extra         map[string]interface{}
	Config        map[string]interface{}
	Duration      time.Duration
}

type telemetryState struct {
	mu              sync.Mutex
	client          Client
	machineID       string
	logger          Logger
	flushTimeout    time.Duration
	enabled         bool
	sessionNameHint string
	perfBaseDir     string
	commands        []recordedCommand
}

type telemetrySnapshot struct {
	client       Client
	machineID    string
	logger       Logger
	flushTimeout time.Duration
	enabled      bool
}

func (s *telemetryState) snapshot() telemetrySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *telemetryState) snapshotLocked() telemetrySnapshot {
	return telemetrySnapshot{
		client:       s.client,
		machineID:    s.machineID,
		logger:       s.logger,
		flushTimeout: s.flushTimeout,
		enabled:      s.enabled,
	}
}

var (
	state = &telemetryState{}

	machineIDProvider        = defaultMachineID
	clientBuilder            = defaultClientFactory
	baseFlushTimeout         = defaultFlushTimeout
	baseLogger        Logger = noopLogger{}
)

func defaultMachineID() (string, error) {
	return machineid.ProtectedID(constants.AppName)
}

func defaultClientFactory(apiKey, endpoint string) (Client, error) {
	return posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
}

// Init creates the client unless telemetry is opted out or no API key is configured.
func Init() {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.enabled {
		return
	}

	logger := baseLogger
	if logger == nil {
		logger = noopLogger{}
	}

	if disabledByEnvironment() {
		logger.Debugf("telemetry disabled by environment")
		return
	}

	apiKey := strings.TrimSpace(environment.PosthogAPIKey())
	if apiKey == "" || strings.HasPrefix(apiKey, "REPL_") {
		return
	}

	client, err := clientBuilder(apiKey, defaultPosthogHost)
	if err != nil || client == nil {
		logger.Debugf("telemetry client unavailable: %v", err)
		return
	}

	flushTimeout := baseFlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}

	state.client = client
	state.machineID = resolveMachineID()
	state.logger = logger
	state.flushTimeout = flushTimeout
	state.enabled = true
}

// Reset drops all state and restores the default collaborators.
func Reset() {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.client = nil
	state.machineID = ""
	state.logger = nil
	state.flushTimeout = 0
	state.enabled = false
	state.sessionNameHint = ""
	state.perfBaseDir = ""
	state.commands = nil

	machineIDProvider = defaultMachineID
	clientBuilder = defaultClientFactory
	baseFlushTimeout = defaultFlushTimeout
	baseLogger = noopLogger{}
}

func disabledByEnvironment() bool {
	if value, present := os.LookupEnv(disableEnvVar); present {
		if disabled, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil && disabled {
			return true
		}
	}
	return environment.TelemetryDisabled()
}

func resolveMachineID() string {
	if value, present := os.LookupEnv(machineIDEnvVar); present && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	id, err := machineIDProvider()
	if err != nil || strings.TrimSpace(id) == "" {
		return unknownMachineID
	}
	return id
}

// SetSessionNameHint names the session event when no command span identifies it.
func SetSessionNameHint(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	state.mu.Lock()
	state.sessionNameHint = name
	state.mu.Unlock()
}

// SetPerfBaseDir makes exported span paths relative to dir.
func SetPerfBaseDir(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	state.mu.Lock()
	state.perfBaseDir = dir
	state.mu.Unlock()
}

func Capture(event string, properties map[string]interface{}) {
	captureWithSnapshot(state.snapshot(), event, properties)
}

func captureWithSnapshot(snap telemetrySnapshot, event string, properties map[string]interface{}) {
	if !snap.enabled || snap.client == nil || strings.TrimSpace(event) == "" {
		return
	}

	props := posthog.NewProperties()
	for key, value := range properties {
		props[key] = value
	}
	props["version"] = environment.AppVersion()
	props["os"] = runtime.GOOS
	props["arch"] = runtime.GOARCH

	err := snap.client.Enqueue(posthog.Capture{
		DistinctId: snap.machineID,
		Event:      event,
		Properties: props,
	})
	if err != nil && snap.logger != nil {
		snap.logger.Debugf("telemetry enqueue failed: %v", err)
	}
}

// RecordCommand stores a command outcome for the session event sent by Shutdown.
func RecordCommand(command CommandTelemetry) {
	name := strings.TrimSpace(command.Command)
	if name == "" {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if !state.enabled {
		return
	}

	recorded := recordedCommand{
		Name:          name,
		Success:       command.Success,
		ExitCode:      commandExitCode(command),
		Interactive:   command.Interactive,
		ErrorCategory: errorCategory(command.Error),
		Arguments:     command.Arguments,
		Extra:         command.Extra,
		Duration:      command.Duration,
	}
	if command.Error != nil {
		recorded.ErrorMessage = command.Error.Error()
	}
	if !command.Success && command.Config != nil {
		recorded.Config = configSummary(command.Config)
	}
	state.commands = append(state.commands, recorded)
}

// Shutdown emits the session event and flushes the client, waiting at most the flush timeout.
func Shutdown(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	state.mu.Lock()
	if !state.enabled || state.client == nil {
		state.mu.Unlock()
		return
	}
	snap := state.snapshotLocked()
	commands := append([]recordedCommand(nil), state.commands...)
	hint := state.sessionNameHint
	baseDir := state.perfBaseDir
	state.enabled = false
	state.client = nil
	state.commands = nil
	state.mu.Unlock()

	performance := sessionPerformance(baseDir)
	canonical, _ := topCommandNameFromPerformance(performance)
	if len(commands) == 1 && canonical != "" {
		commands[0].Name = canonical
	}

	properties := map[string]interface{}{
		"type":     "session",
		"commands": buildCommandSummaries(commands, performance),
	}
	if len(performance) > 0 {
		properties["performance"] = performance
	}
	if durations, err := perf.GetSessionDurations(); err == nil {
		properties["total_time_ms"] = durations.Total.Milliseconds()
		properties["work_time_ms"] = durations.Work.Milliseconds()
		properties["wait_time_ms"] = durations.Waiting.Milliseconds()
	}

	captureWithSnapshot(snap, resolveSessionName(hint, canonical, commands), properties)
	closeWithTimeout(ctx, snap)
}

func closeWithTimeout(ctx context.Context, snap telemetrySnapshot) {
	logger := snap.logger
	if logger == nil {
		logger = noopLogger{}
	}

	done := make(chan error, 1)
	go func() {
		done <- snap.client.Close()
	}()

	timer := time.NewTimer(snap.flushTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			logger.Debugf("telemetry close failed: %v", err)
		}
	case <-timer.C:
		logger.Debugf("telemetry flush timed out after %s", snap.flushTimeout)
	case <-ctx.Done():
		logger.Debugf("telemetry flush timed out: %v", ctx.Err())
	}
}
