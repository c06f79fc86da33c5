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
	"go.opentelemetry.io/otel/attribute"

	"github.com/meza/vintage-story-mod-manager/cmd/vsmm"
	"github.com/meza/vintage-story-mod-manager/cmd/vsmm/cmdutil"
	"github.com/meza/vintage-story-mod-manager/internal/lifecycle"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/telemetry"
)

const (
	perfLifecycleStartup  = "app.lifecycle.startup"
	perfLifecycleExecute  = "app.lifecycle.execute"
	perfLifecycleShutdown = "app.lifecycle.shutdown"

	telemetryFlushTimeout = 3 * time.Second
)

type shutdownTrigger string

const (
	shutdownTriggerExit   shutdownTrigger = "exit"
	shutdownTriggerSignal shutdownTrigger = "signal"
)

type runDeps struct {
	execute           func(context.Context) error
	telemetryInit     func()
	telemetryShutdown func(context.Context)
	register          func(lifecycle.Handler) lifecycle.HandlerID
	unregister        func(lifecycle.HandlerID)
	fs                afero.Fs
	stderr            io.Writer
	args              []string
}

type perfExportConfig struct {
	enabled bool
	debug   bool
	baseDir string
	outDir  string
}

func main() {
	os.Exit(runWithDeps(runDeps{
		execute:           vsmm.ExecuteContext,
		telemetryInit:     telemetry.Init,
		telemetryShutdown: telemetry.Shutdown,
		register:          lifecycle.Register,
		unregister:        lifecycle.Unregister,
		fs:                afero.NewOsFs(),
		stderr:            os.Stderr,
		args:              os.Args[1:],
	}))
}

func runWithDeps(deps runDeps) int {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	perfCfg := perfExportConfigFromArgs(deps.args, cwd)

	// spans back the telemetry session summary, so recording is always on
	_ = perf.Init(perf.Config{Enabled: true})
	telemetry.SetPerfBaseDir(perfCfg.baseDir)

	ctx, lifecycleSpan := perf.StartSpan(context.Background(), perf.LifecycleSpanName)

	_, startup := perf.StartSpan(ctx, perfLifecycleStartup)
	deps.telemetryInit()
	var once sync.Once
	shutdown := func(trigger shutdownTrigger, sig os.Signal) {
		once.Do(func() {
			attrs := []attribute.KeyValue{attribute.String("trigger", string(trigger))}
			if sig != nil {
				attrs = append(attrs, attribute.String("signal", sig.String()))
			}
			shutdownCtx, span := perf.StartSpan(ctx, perfLifecycleShutdown, perf.WithAttributes(attrs...))
			flushCtx, cancel := context.WithTimeout(shutdownCtx, telemetryFlushTimeout)
			deps.telemetryShutdown(flushCtx)
			cancel()
			span.End()
			lifecycleSpan.End()
			exportPerf(deps, perfCfg)
		})
	}
	handlerID := deps.register(func(sig os.Signal) {
		shutdown(shutdownTriggerSignal, sig)
	})
	startup.End()

	executeCtx, execute := perf.StartSpan(ctx, perfLifecycleExecute)
	err = deps.execute(executeCtx)
	execute.SetAttributes(attribute.Bool("success", err == nil))
	execute.End()

	shutdown(shutdownTriggerExit, nil)
	deps.unregister(handlerID)

	if err != nil {
		if deps.stderr != nil {
			_, _ = fmt.Fprintln(deps.stderr, cmdutil.DescribeError(err))
		}
		return 1
	}
	return 0
}

func exportPerf(deps runDeps, cfg perfExportConfig) {
	if !cfg.enabled || deps.fs == nil {
		return
	}
	spans, err := perf.GetSpans()
	if err != nil {
		return
	}
	path, err := perf.ExportToFile(deps.fs, cfg.outDir, cfg.baseDir, spans)
	if deps.stderr == nil || !cfg.debug {
		return
	}
	if err != nil {
		_, _ = fmt.Fprintf(deps.stderr, "failed to write performance data: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(deps.stderr, "performance data written to %s\n", path)
}

// perfExportConfigFromArgs reads the flags that matter before cobra parses anything.
// The output directory defaults to the directory of the config file.
func perfExportConfigFromArgs(args []string, cwd string) perfExportConfig {
	cfg := perfExportConfig{baseDir: cwd}
	configPath := ""
	outDir := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--perf":
			cfg.enabled = !hasValue || value == "true"
		case "--debug", "-d":
			cfg.debug = !hasValue || value == "true"
		case "--config", "-c", "--perf-out-dir":
			if !hasValue {
				if i+1 >= len(args) {
					continue
				}
				i++
				value = args[i]
			}
			if name == "--perf-out-dir" {
				outDir = value
			} else {
				configPath = value
			}
		}
	}

	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(cwd, configPath)
		}
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
		cfg.baseDir = filepath.Dir(configPath)
	}

	cfg.outDir = cfg.baseDir
	if outDir != "" {
		if filepath.IsAbs(outDir) {
			cfg.outDir = outDir
		} else {
			cfg.outDir = filepath.Join(cfg.baseDir, outDir)
		}
	}
	return cfg
}
