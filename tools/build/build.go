package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

const (
	executableName    = "vsmm"
	environmentImport = "github.com/meza/vintage-story-mod-manager/internal/environment"
)

// buildVariable ties an environment variable to the package variable it overrides at link time.
type buildVariable struct {
	envVar   string
	symbol   string
	required bool
}

var buildVariables = []buildVariable{
	{envVar: "POSTHOG_API_KEY", symbol: "posthogAPIKeyDefault", required: true},
	{envVar: "VSMM_VERSION", symbol: "appVersionDefault"},
	{envVar: "VSMM_HELP_URL", symbol: "helpURLDefault"},
}

var buildTargets = []buildTarget{
	{goos: "darwin", goarch: "amd64"},
	{goos: "darwin", goarch: "arm64"},
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "windows", goarch: "amd64"},
	{goos: "windows", goarch: "arm64"},
}

type buildTarget struct {
	goos   string
	goarch string
}

func (target buildTarget) outputName() string {
	if target.goos == "windows" {
		return executableName + ".exe"
	}
	return executableName
}

type commandRunner interface {
	Run(*exec.Cmd) error
}

type logger interface {
	Printf(format string, args ...any)
}

type execRunner struct{}

func (execRunner) Run(command *exec.Cmd) error {
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	return command.Run()
}

type envFileReader func(string) (map[string]string, error)

type buildTool struct {
	repoRoot      string
	baseEnv       []string
	goBinary      string
	commandRunner commandRunner
	envFileReader envFileReader
	logger        logger
}

var getWorkingDirectory = os.Getwd
var newBuildToolFunc = newBuildTool
var exit = os.Exit

func newBuildTool() (*buildTool, error) {
	workingDirectory, err := getWorkingDirectory()
	if err != nil {
		return nil, fmt.Errorf("error: failed to determine working directory: %w", err)
	}

	repoRoot, err := findRepoRoot(workingDirectory)
	if err != nil {
		return nil, err
	}

	return &buildTool{
		repoRoot:      repoRoot,
		baseEnv:       os.Environ(),
		goBinary:      "go",
		commandRunner: execRunner{},
		envFileReader: readEnvFile,
		logger:        log.New(os.Stdout, "build: ", 0),
	}, nil
}

func main() {
	exit(runMain())
}

func runMain() int {
	tool, err := newBuildToolFunc()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := tool.run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func (tool *buildTool) run() error {
	envFilePath := filepath.Join(tool.repoRoot, ".env")
	tool.logger.Printf("loading %s", envFilePath)
	envFileValues, err := tool.envFileReader(envFilePath)
	if err != nil {
		return fmt.Errorf("error: failed to read .env: %w", err)
	}

	envMap := buildEnvMap(tool.baseEnv, envFileValues)
	if missing := missingRequired(envMap); len(missing) > 0 {
		return fmt.Errorf("error: missing build variable(s): %s\nhint: export them or add them to ./.env in the repo root", strings.Join(missing, " "))
	}

	ldflags := ldflagsFor(envMap)
	for _, target := range buildTargets {
		tool.logger.Printf("building %s/%s", target.goos, target.goarch)
		if err := tool.buildTarget(target, envMap, ldflags); err != nil {
			return err
		}
	}

	tool.logger.Printf("build complete")
	return nil
}

func (tool *buildTool) buildTarget(target buildTarget, envMap map[string]string, ldflags string) error {
	outputDir := filepath.Join(tool.repoRoot, "build", target.goos, target.goarch)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("error: create build directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, target.outputName())

	environment := make(map[string]string, len(envMap)+3)
	for key, value := range envMap {
		environment[key] = value
	}
	environment["GOOS"] = target.goos
	environment["GOARCH"] = target.goarch
	environment["CGO_ENABLED"] = "0"

	command := exec.Command(tool.goBinary, "build", "-trimpath", "-ldflags", ldflags, "-o", outputPath, "main.go")
	command.Env = envMapToSlice(environment)

	tool.logger.Printf("output %s", outputPath)
	if err := tool.commandRunner.Run(command); err != nil {
		return fmt.Errorf("build %s/%s: %w", target.goos, target.goarch, err)
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Parse(bytes.NewReader(data))
}

func findRepoRoot(startDir string) (string, error) {
	current := startDir
	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("error: failed to locate repo root (missing go.mod); run from repo root")
		}
		current = parent
	}
}

// buildEnvMap fills build variables from the .env file only where the process environment lacks them.
func buildEnvMap(baseEnv []string, envFileValues map[string]string) map[string]string {
	envMap := envSliceToMap(baseEnv)
	for _, variable := range buildVariables {
		if _, exists := envMap[variable.envVar]; exists {
			continue
		}
		if value, ok := envFileValues[variable.envVar]; ok {
			envMap[variable.envVar] = value
		}
	}
	return envMap
}

func envSliceToMap(baseEnv []string) map[string]string {
	envMap := make(map[string]string, len(baseEnv))
	for _, entry := range baseEnv {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		envMap[key] = value
	}
	return envMap
}

func envMapToSlice(envMap map[string]string) []string {
	keys := make([]string, 0, len(envMap))
	for key := range envMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, key+"="+envMap[key])
	}
	return entries
}

func missingRequired(envMap map[string]string) []string {
	var missing []string
	for _, variable := range buildVariables {
		if variable.required && envMap[variable.envVar] == "" {
			missing = append(missing, variable.envVar)
		}
	}
	return missing
}

// ldflagsFor links every non-empty build variable; empty optional ones keep their placeholder.
func ldflagsFor(envMap map[string]string) string {
	flags := []string{"-s", "-w"}
	for _, variable := range buildVariables {
		value := envMap[variable.envVar]
		if value == "" {
			continue
		}
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", environmentImport, variable.symbol, value))
	}
	return strings.Join(flags, " ")
}
