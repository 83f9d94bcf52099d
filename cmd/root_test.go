package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klytics/pipekit/internal/audit"
	"github.com/klytics/pipekit/internal/output"
)

// setup isolates the config directory and disables color.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PIPEKIT_COLOR", "false")
	t.Setenv("PIPEKIT_DELIMITER", "/")
	t.Setenv("PIPEKIT_AUDIT_ENABLED", "false")
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), status
}

func TestRunPipeline(t *testing.T) {
	setup(t)
	out, stderr, status := run(t, "", "echo", "hello", "/", "upper")
	if status != output.ExitOK {
		t.Fatalf("status %d: %s", status, stderr)
	}
	if out != "HELLO\n" {
		t.Errorf("expected HELLO, got %q", out)
	}
}

func TestRunReadsStdin(t *testing.T) {
	setup(t)
	out, _, status := run(t, "b\na\nb\n", "sort", "-u", "/", "wc", "-l")
	if status != 0 || strings.TrimSpace(out) != "2" {
		t.Errorf("got %q (%d)", out, status)
	}
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	setup(t)
	out, _, status := run(t, "")
	if status != output.ExitOK {
		t.Errorf("expected status 0, got %d", status)
	}
	if !strings.Contains(out, "pipekit <command>") || !strings.Contains(out, "upper") {
		t.Errorf("expected usage listing commands, got %q", out)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	setup(t)
	out, stderr, status := run(t, "", "badcmd")
	if status != output.ExitUserError {
		t.Errorf("expected status %d, got %d", output.ExitUserError, status)
	}
	if out != "" {
		t.Errorf("expected empty stdout, got %q", out)
	}
	if !strings.Contains(stderr, `unknown command "badcmd"`) {
		t.Errorf("expected diagnostic, got %q", stderr)
	}
}

func TestRunVersion(t *testing.T) {
	setup(t)
	out, _, status := run(t, "", "version", "/", "upper")
	if status != 0 || out != "PIPEKIT DEV\n" {
		t.Errorf("got %q (%d)", out, status)
	}

	out, _, status = run(t, "", "--version")
	if status != 0 || out != "pipekit dev\n" {
		t.Errorf("got %q (%d)", out, status)
	}
}

func TestRunCustomDelimiter(t *testing.T) {
	setup(t)
	t.Setenv("PIPEKIT_DELIMITER", "::")
	out, _, status := run(t, "", "echo", "a/b", "::", "upper")
	if status != 0 || out != "A/B\n" {
		t.Errorf("got %q (%d)", out, status)
	}
}

func TestRunRejectsInvalidDelimiter(t *testing.T) {
	setup(t)
	t.Setenv("PIPEKIT_DELIMITER", "-p")
	_, stderr, status := run(t, "", "echo", "x")
	if status != output.ExitUserError || !strings.Contains(stderr, "delimiter") {
		t.Errorf("expected config error, got %d %q", status, stderr)
	}
}

func TestRunShellRejectsArguments(t *testing.T) {
	setup(t)
	_, stderr, status := run(t, "", "--shell", "echo")
	if status != output.ExitUserError || !strings.Contains(stderr, "--shell") {
		t.Errorf("got %d %q", status, stderr)
	}
}

func TestRunPlugin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins are not supported on windows")
	}
	home := setup(t)
	dir := filepath.Join(home, ".pipekit", "plugins")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ntr 'a-z' 'A-Z'\n"
	if err := os.WriteFile(filepath.Join(dir, "pipekit-shout"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	out, stderr, status := run(t, "", "echo", "quiet", "/", "shout")
	if status != 0 {
		t.Fatalf("status %d: %s", status, stderr)
	}
	if out != "QUIET\n" {
		t.Errorf("expected plugin output, got %q", out)
	}
}

func TestRunAudit(t *testing.T) {
	home := setup(t)
	path := filepath.Join(home, "audit.jsonl")
	t.Setenv("PIPEKIT_AUDIT_ENABLED", "true")
	t.Setenv("PIPEKIT_AUDIT_PATH", path)

	if _, _, status := run(t, "", "echo", "x", "/", "nosuch"); status != output.ExitUserError {
		t.Fatalf("expected usage failure, got %d", status)
	}

	entries, err := audit.ReadEntries(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != entries[1].RunID {
		t.Error("segments of one run should share a run ID")
	}
	if entries[1].Command != "nosuch" || entries[1].ExitCode != output.ExitUserError {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestRunAuditCommand(t *testing.T) {
	home := setup(t)
	path := filepath.Join(home, "audit.jsonl")
	t.Setenv("PIPEKIT_AUDIT_ENABLED", "true")
	t.Setenv("PIPEKIT_AUDIT_PATH", path)

	if _, _, status := run(t, "", "echo", "x", "/", "upper"); status != 0 {
		t.Fatalf("first run failed: %d", status)
	}
	out, stderr, status := run(t, "", "audit", "--command", "upper", "/", "wc", "-l")
	if status != 0 {
		t.Fatalf("audit failed: %d %s", status, stderr)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("expected one recorded upper segment, got %q", out)
	}
}
