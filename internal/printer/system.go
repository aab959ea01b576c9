package printer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Runner runs an external command and returns its combined output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec in the C locale
type ExecRunner struct{}

// Run executes name. On failure the error carries the command's own message
// when it printed one.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")

	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return out, errors.New(msg)
		}
		return out, err
	}
	return out, nil
}

// System talks to the operating system's print spooler
type System struct {
	runner Runner
	goos   string
}

// NewSystem creates a spooler client for the running OS. A nil runner means
// ExecRunner.
func NewSystem(runner Runner) *System {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &System{runner: runner, goos: runtime.GOOS}
}

// Print submits the file at path to the named queue. The error message is
// the spooler's own.
func (s *System) Print(ctx context.Context, path, name string) error {
	var err error
	if s.goos == "windows" {
		_, err = s.runner.Run(ctx, "mspaint", "/pt", path, name)
	} else {
		_, err = s.runner.Run(ctx, "lp", "-d", name, path)
	}
	return err
}

// Enumerate lists the spooler's queues with the default flagged.
func (s *System) Enumerate(ctx context.Context) ([]Descriptor, error) {
	if s.goos == "windows" {
		return s.enumerateWindows(ctx)
	}
	return s.enumerateCUPS(ctx)
}

func (s *System) enumerateCUPS(ctx context.Context) ([]Descriptor, error) {
	out, err := s.runner.Run(ctx, "lpstat", "-p")
	if err != nil {
		if isNoDestinations(err.Error()) {
			return []Descriptor{}, nil
		}
		return nil, fmt.Errorf("lpstat -p: %w", err)
	}
	names := parseLpstatPrinters(out)

	// A missing default is normal; lpstat exits non-zero for it on some systems
	var def string
	if out, err := s.runner.Run(ctx, "lpstat", "-d"); err == nil {
		def = parseLpstatDefault(out)
	}

	printers := make([]Descriptor, 0, len(names))
	for _, name := range names {
		printers = append(printers, Descriptor{Name: name, IsDefault: name == def})
	}
	return printers, nil
}

func isNoDestinations(msg string) bool {
	return strings.Contains(msg, "No destinations added")
}

// parseLpstatPrinters reads `lpstat -p` output. Continuation lines are
// indented and skipped.
func parseLpstatPrinters(out []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "printer" {
			names = append(names, fields[1])
		}
	}
	return names
}

// parseLpstatDefault reads `lpstat -d` output.
func parseLpstatDefault(out []byte) string {
	line := strings.TrimSpace(string(out))
	if i := strings.LastIndex(line, ":"); i >= 0 && strings.HasPrefix(line, "system default destination") {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

type windowsPrinter struct {
	Name    string `json:"Name"`
	Default bool   `json:"Default"`
}

func (s *System) enumerateWindows(ctx context.Context) ([]Descriptor, error) {
	out, err := s.runner.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command",
		"Get-CimInstance Win32_Printer | Select-Object Name,Default | ConvertTo-Json -Compress")
	if err != nil {
		return nil, fmt.Errorf("Get-CimInstance Win32_Printer: %w", err)
	}
	return parseWindowsPrinters(out)
}

// parseWindowsPrinters reads ConvertTo-Json output, which is a bare object
// when there is exactly one printer.
func parseWindowsPrinters(out []byte) ([]Descriptor, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return []Descriptor{}, nil
	}

	var list []windowsPrinter
	if out[0] == '{' {
		var one windowsPrinter
		if err := json.Unmarshal(out, &one); err != nil {
			return nil, fmt.Errorf("failed to parse printer list: %w", err)
		}
		list = append(list, one)
	} else if err := json.Unmarshal(out, &list); err != nil {
		return nil, fmt.Errorf("failed to parse printer list: %w", err)
	}

	printers := make([]Descriptor, 0, len(list))
	for _, p := range list {
		printers = append(printers, Descriptor{Name: p.Name, IsDefault: p.Default})
	}
	return printers, nil
}
