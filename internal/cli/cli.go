package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/opgrid/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("opgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
opgrid - runs named numerical operations over a shared data registry.

Usage:
  opgrid [options] -interface INTERFACE_FILE [APP_PATH]

Arguments:
  APP_PATH
    Path to a single .hcl operations file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	ifaceFlag := flagSet.String("interface", "", "Path to the interface file.")
	iFlag := flagSet.String("i", "", "Path to the interface file (shorthand).")
	appFlag := flagSet.String("app", "", "Path to the operations file or directory.")
	aFlag := flagSet.String("a", "", "Path to the operations file or directory (shorthand).")
	meshFlag := flagSet.String("mesh", "", "Path to a mesh decomposition file. Overrides the interface's mesh block.")
	ranksFlag := flagSet.Int("ranks", 1, "Number of in-process ranks.")
	hostURLFlag := flagSet.String("host-url", "", "socket.io URL of a host controller to serve instead of running stages.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	ifacePath := firstNonEmpty(*ifaceFlag, *iFlag)
	appPath := firstNonEmpty(*appFlag, *aFlag)
	if appPath == "" && flagSet.NArg() > 0 {
		appPath = flagSet.Arg(0)
	}
	slog.Debug("Paths determined.", "interface", ifacePath, "app", appPath)

	if ifacePath == "" && appPath == "" {
		slog.Debug("No paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		InterfacePath:   ifacePath,
		AppPath:         appPath,
		MeshPath:        *meshFlag,
		Ranks:           *ranksFlag,
		HostURL:         *hostURLFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
