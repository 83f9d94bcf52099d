package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	auditpkg "github.com/klytics/pipekit/internal/audit"
	"github.com/klytics/pipekit/internal/output"
	"github.com/klytics/pipekit/internal/pipeline"
	"github.com/klytics/pipekit/internal/registry"
)

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l := auditpkg.NewLogger(path, true)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, e := range []auditpkg.Entry{
		{RunID: "run-a", Segment: 0, Command: "cat", Args: []string{"notes.txt"}, Outcome: "returned"},
		{RunID: "run-a", Segment: 1, Command: "upper", Outcome: "returned"},
		{RunID: "run-b", Segment: 0, Command: "cat", ExitCode: 2, Outcome: "execution"},
	} {
		e.Timestamp = ts.Add(time.Duration(i) * time.Second)
		if err := l.Log(context.Background(), e); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func runAudit(path string, args ...string) (string, string, int) {
	reg := registry.New()
	Register(reg, func() string { return path })

	var stdout, stderr bytes.Buffer
	exec := pipeline.NewExecutor(reg, strings.NewReader(""), &stdout, &stderr)
	status := exec.Run(context.Background(), pipeline.Split(args, pipeline.DefaultDelimiter))
	return stdout.String(), stderr.String(), status
}

func TestAuditEmitsLines(t *testing.T) {
	path := writeLog(t)
	out, stderr, status := runAudit(path, "audit")
	if status != output.ExitOK {
		t.Fatalf("status %d: %s", status, stderr)
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	want := "2026-01-02T03:04:05Z\trun-a\t0\tcat\t0\treturned\t0ms\tnotes.txt"
	if lines[0] != want {
		t.Errorf("first line = %q, want %q", lines[0], want)
	}
}

func TestAuditFilters(t *testing.T) {
	path := writeLog(t)

	out, _, _ := runAudit(path, "audit", "--command", "cat", "--last", "1")
	if !strings.Contains(out, "run-b") || strings.Contains(out, "run-a") {
		t.Errorf("expected only the last cat entry, got %q", out)
	}

	out, _, _ = runAudit(path, "audit", "--run", "run-a", "--json")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %q", out)
	}
	var e auditpkg.Entry
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatal(err)
	}
	if e.Command != "upper" || e.Segment != 1 {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestAuditErrors(t *testing.T) {
	_, _, status := runAudit("", "audit")
	if status != output.ExitSystemError {
		t.Errorf("missing path: status %d, want %d", status, output.ExitSystemError)
	}

	_, stderr, status := runAudit(writeLog(t), "audit", "--last", "-1")
	if status != output.ExitUserError || !strings.Contains(stderr, "--last") {
		t.Errorf("negative --last: status %d, stderr %q", status, stderr)
	}

	out, _, status := runAudit(filepath.Join(t.TempDir(), "none.jsonl"), "audit")
	if status != output.ExitOK || out != "" {
		t.Errorf("missing log file should emit nothing, got %q (%d)", out, status)
	}
}
