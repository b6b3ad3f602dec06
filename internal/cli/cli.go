package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/xpigraph/internal/app"
	"github.com/specialistvlad/xpigraph/internal/parameters"
	"github.com/specialistvlad/xpigraph/internal/render"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("xpigraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
xpigraph - Generates the CI task graph of an XPI monorepo.

Usage:
  xpigraph [options] [ROOT]

Arguments:
  ROOT
    Path to the checkout. Defaults to the current directory.

Environment:
  XPI_SIGNING_TYPE        Signing format: privileged, system or mozillaonline-privileged.
  XPI_HEAD_REPOSITORY     Remote URL used to scope cache keys.
  <PREFIX>_SSH_SECRET_NAME
                          ssh secret of the repository with that prefix.

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("root", "", "Path to the checkout (overrides ROOT).")
	configFlag := flagSet.String("config", "", "Path to the graph configuration. Defaults to ROOT/taskcluster/config.hcl.")
	kindsFlag := flagSet.String("kinds", "", "Directory of kind definitions. Defaults to ROOT/taskcluster/kinds.")
	envFileFlag := flagSet.String("env-file", ".env", "Optional .env file loaded before reading the environment.")
	levelFlag := flagSet.String("level", "1", "Deployment level. Options: '1', '2', '3'.")
	fastFlag := flagSet.Bool("fast", false, "Skip cache key derivation.")
	headRepoFlag := flagSet.String("head-repository", "", "Remote URL of the checkout. Defaults to the origin remote.")
	projectFlag := flagSet.String("project", "", "Project name the graph is generated for.")
	formatFlag := flagSet.String("format", "json", "Output format. Options: 'json' or 'yaml'.")
	outputFlag := flagSet.String("output", "-", "File to write the task graph to. '-' is standard output.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	root := "."
	if *rootFlag != "" {
		root = *rootFlag
	} else if flagSet.NArg() > 0 {
		root = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected at most one ROOT argument, got %d", flagSet.NArg())
	}
	slog.Debug("Checkout root determined.", "root", root)

	format, err := render.ParseFormat(*formatFlag)
	if err != nil {
		return nil, false, usageError("invalid format: %s", err)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Root:       root,
		ConfigPath: *configFlag,
		KindsDir:   *kindsFlag,
		EnvFile:    *envFileFlag,
		Params: parameters.Parameters{
			Level:          *levelFlag,
			Fast:           *fastFlag,
			HeadRepository: *headRepoFlag,
			Project:        *projectFlag,
		},
		Format:     format,
		OutputPath: *outputFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
