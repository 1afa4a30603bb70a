// Package export turns a Discord chat into a PDF document by driving
// DiscordChatExporter and a HTML-to-PDF converter.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ExporterBinary is the conventional name of the DiscordChatExporter CLI.
	ExporterBinary = "DiscordChatExporter.Cli"
	// DefaultConverter is the HTML to PDF converter looked up in PATH.
	DefaultConverter = "weasyprint"
)

var (
	ErrExporterNotFound  = errors.New("exporter not found")
	ErrConverterNotFound = errors.New("converter not found")
)

// testExeDir overrides the executable directory in tests.
var testExeDir string

// FindExporter locates the DiscordChatExporter CLI.
// If configPath is non-empty, it validates that path exists.
// Otherwise a copy bundled next to this executable is preferred, then PATH
// is searched.
func FindExporter(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", fmt.Errorf("%w: not found at %s", ErrExporterNotFound, configPath)
	}
	if dir := executableDir(); dir != "" {
		if path, err := findExporterInDir(dir); err == nil {
			return path, nil
		}
	}
	path, err := exec.LookPath(ExporterBinary)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH - install from https://github.com/Tyrrrz/DiscordChatExporter", ErrExporterNotFound, ExporterBinary)
	}
	return path, nil
}

func executableDir() string {
	if testExeDir != "" {
		return testExeDir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

func findExporterInDir(dir string) (string, error) {
	name := ExporterBinary
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(dir, name)
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}

// FindConverter resolves the converter command. A bare name is looked up in
// PATH, anything containing a path separator must exist.
func FindConverter(configured string) (string, error) {
	if configured == "" {
		configured = DefaultConverter
	}
	if strings.ContainsRune(configured, os.PathSeparator) || strings.Contains(configured, "/") {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: not found at %s", ErrConverterNotFound, configured)
		}
		return configured, nil
	}
	path, err := exec.LookPath(configured)
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH", ErrConverterNotFound, configured)
	}
	return path, nil
}

// ToolError is returned when an external tool exits unsuccessfully.
type ToolError struct {
	Tool     string
	ExitCode int // -1 if the process did not start or was killed
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	}
	if d := e.Diagnostic(); d != "" {
		msg += ": " + d
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Diagnostic returns the captured stderr, or stdout if stderr is empty.
func (e *ToolError) Diagnostic() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, capturing their output.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		te := &ToolError{
			Tool:     filepath.Base(name),
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			te.ExitCode = ee.ExitCode()
		}
		return te
	}
	slog.Debug("command finished", "tool", filepath.Base(name), "stdout_bytes", stdout.Len())
	return nil
}

// redact replaces secret in args for logging.
func redact(args []string, secret string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if secret != "" && a == secret {
			a = "[REDACTED]"
		}
		out[i] = a
	}
	return out
}
