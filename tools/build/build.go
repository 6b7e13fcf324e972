// Command build cross-compiles the i18ntypes binary with the release values
// linked into internal/environment.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	executableName = "i18ntypes"
	environmentPkg = "github.com/meza/i18n-typegen/internal/environment"

	posthogEnvVar = "POSTHOG_API_KEY"
	versionEnvVar = "I18NTYPES_VERSION"
	helpURLEnvVar = "I18NTYPES_HELP_URL"

	defaultVersion = "dev"
	defaultHelpURL = "https://github.com/meza/i18n-typegen#readme"
)

var errMissingValues = errors.New("missing build value(s)")

type buildTarget struct {
	goos   string
	goarch string
}

var buildTargets = []buildTarget{
	{goos: "darwin", goarch: "amd64"},
	{goos: "darwin", goarch: "arm64"},
	{goos: "linux", goarch: "amd64"},
	{goos: "linux", goarch: "arm64"},
	{goos: "windows", goarch: "amd64"},
	{goos: "windows", goarch: "arm64"},
}

func (target buildTarget) String() string {
	return target.goos + "/" + target.goarch
}

func (target buildTarget) outputName() string {
	if target.goos == "windows" {
		return executableName + ".exe"
	}
	return executableName
}

// linkedValue is a package variable overwritten with -X at link time. One
// without a fallback must be provided.
type linkedValue struct {
	envVar   string
	symbol   string
	fallback string
}

var linkedValues = []linkedValue{
	{envVar: posthogEnvVar, symbol: "posthogAPIKeyDefault"},
	{envVar: versionEnvVar, symbol: "appVersion", fallback: defaultVersion},
	{envVar: helpURLEnvVar, symbol: "helpURL", fallback: defaultHelpURL},
}

type runner func(*exec.Cmd) error

func runAttached(command *exec.Cmd) error {
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	return command.Run()
}

type builder struct {
	fs       afero.Fs
	repoRoot string
	environ  []string
	goBinary string
	run      runner
	log      *log.Logger
}

var (
	getWorkingDirectory = os.Getwd
	newBuilderFunc      = newBuilder
	exit                = os.Exit
)

func newBuilder() (*builder, error) {
	fs := afero.NewOsFs()
	cwd, err := getWorkingDirectory()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine working directory")
	}

	repoRoot, err := findRepoRoot(fs, cwd)
	if err != nil {
		return nil, err
	}

	return &builder{
		fs:       fs,
		repoRoot: repoRoot,
		environ:  os.Environ(),
		goBinary: "go",
		run:      runAttached,
		log:      log.New(os.Stdout, "build: ", 0),
	}, nil
}

func main() {
	exit(runMain())
}

func runMain() int {
	tool, err := newBuilderFunc()
	if err == nil {
		err = tool.buildAll()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errMissingValues) {
			fmt.Fprintln(os.Stderr, "hint: set them as environment variables or add them to ./.env (repo root) before building")
		}
		return 1
	}
	return 0
}

func (tool *builder) buildAll() error {
	envFile := filepath.Join(tool.repoRoot, ".env")
	tool.log.Printf("loading %s", envFile)
	fileValues, err := readEnvFile(tool.fs, envFile)
	if err != nil {
		return errors.Wrap(err, "failed to read .env")
	}

	values := buildEnvMap(tool.environ, fileValues)
	if missing := missingValueNames(values); len(missing) > 0 {
		return errors.Wrap(errMissingValues, strings.Join(missing, " "))
	}

	ldflags := ldflagsFromValues(values)
	for _, target := range buildTargets {
		if err := tool.build(target, values, ldflags); err != nil {
			return err
		}
	}

	tool.log.Printf("build complete")
	return nil
}

func (tool *builder) build(target buildTarget, values map[string]string, ldflags string) error {
	outputDir := filepath.Join(tool.repoRoot, "build", target.goos, target.goarch)
	if err := tool.fs.MkdirAll(outputDir, 0o755); err != nil {
		return errors.Wrap(err, "create build directory")
	}
	output := filepath.Join(outputDir, target.outputName())
	tool.log.Printf("building %s into %s", target, output)

	command := exec.Command(tool.goBinary, "build", "-trimpath", "-ldflags", ldflags, "-o", output, ".")
	command.Dir = tool.repoRoot
	command.Env = targetEnv(values, target)
	return errors.Wrapf(tool.run(command), "build %s", target)
}

func targetEnv(values map[string]string, target buildTarget) []string {
	env := make([]string, 0, len(values)+3)
	for key, value := range values {
		switch key {
		case "GOOS", "GOARCH", "CGO_ENABLED":
			continue
		}
		env = append(env, key+"="+value)
	}
	env = append(env, "GOOS="+target.goos, "GOARCH="+target.goarch, "CGO_ENABLED=0")
	slices.Sort(env)
	return env
}

// readEnvFile treats a missing file as empty.
func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, afero.ErrFileNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return godotenv.Parse(bytes.NewReader(data))
}

func findRepoRoot(fs afero.Fs, dir string) (string, error) {
	for {
		if found, _ := afero.Exists(fs, filepath.Join(dir, "go.mod")); found {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("failed to locate repo root (missing go.mod); run from repo root")
		}
		dir = parent
	}
}

// buildEnvMap fills linked values missing from the process environment with
// the .env file's values.
func buildEnvMap(environ []string, fileValues map[string]string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			values[key] = value
		}
	}

	for _, linked := range linkedValues {
		if _, set := values[linked.envVar]; set {
			continue
		}
		if value, ok := fileValues[linked.envVar]; ok {
			values[linked.envVar] = value
		}
	}
	return values
}

func missingValueNames(values map[string]string) []string {
	var missing []string
	for _, linked := range linkedValues {
		if linked.fallback == "" && strings.TrimSpace(values[linked.envVar]) == "" {
			missing = append(missing, linked.envVar)
		}
	}
	return missing
}

func ldflagsFromValues(values map[string]string) string {
	flags := []string{"-s", "-w"}
	for _, linked := range linkedValues {
		value := strings.TrimSpace(values[linked.envVar])
		if value == "" {
			value = linked.fallback
		}
		flags = append(flags, fmt.Sprintf("-X %s.%s=%s", environmentPkg, linked.symbol, value))
	}
	return strings.Join(flags, " ")
}
