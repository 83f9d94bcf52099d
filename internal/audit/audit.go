// Package audit records one JSON line per executed pipeline segment.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Segment    int       `json:"segment"`
	Machine    string    `json:"machine"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	ExitCode   int       `json:"exit_code"`
	Outcome    string    `json:"outcome"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Logger appends audit entries to a JSONL file.
type Logger struct {
	FilePath string
	Enabled  bool
	machine  string
}

// NewLogger creates a Logger. A disabled logger or an empty path makes
// every Log call a no-op.
func NewLogger(filePath string, enabled bool) *Logger {
	host, _ := os.Hostname()
	return &Logger{
		FilePath: filePath,
		Enabled:  enabled && filePath != "",
		machine:  host,
	}
}

// NewRunID returns an identifier shared by all segments of one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Log writes a single audit entry. Best-effort: failures never block the
// pipeline.
func (l *Logger) Log(_ context.Context, entry Entry) error {
	if l == nil || !l.Enabled {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Machine == "" {
		entry.Machine = l.machine
	}
	entry.Args = Redact(entry.Args)

	if err := os.MkdirAll(filepath.Dir(l.FilePath), 0755); err != nil {
		return nil
	}

	f, err := os.OpenFile(l.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
	return nil
}

// ReadEntries reads all audit entries from the log file.
func ReadEntries(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue // skip malformed lines
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FilterEntries keeps entries matching command and runID. Empty filters
// match everything. runID may be a prefix of the full ID.
func FilterEntries(entries []Entry, command, runID string) []Entry {
	var filtered []Entry
	for _, e := range entries {
		if command != "" && e.Command != command {
			continue
		}
		if runID != "" && !strings.HasPrefix(e.RunID, runID) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

// sensitiveFlags are flags whose following value should be redacted.
var sensitiveFlags = map[string]bool{
	"--key": true, "--token": true, "--password": true,
	"--secret": true, "--api-key": true, "--apikey": true,
}

// sensitivePatterns are value prefixes that indicate secrets.
var sensitivePatterns = []string{"sk-", "Bearer ", "ghp_"}

// Redact sanitizes args to remove secrets, including --flag=value forms.
func Redact(args []string) []string {
	result := make([]string, len(args))
	redactNext := false
	for i, arg := range args {
		if redactNext {
			result[i] = "[REDACTED]"
			redactNext = false
			continue
		}
		if sensitiveFlags[arg] {
			result[i] = arg
			redactNext = true
			continue
		}
		if name, _, ok := strings.Cut(arg, "="); ok && sensitiveFlags[name] {
			result[i] = name + "=[REDACTED]"
			continue
		}
		result[i] = arg
		for _, pat := range sensitivePatterns {
			if strings.HasPrefix(arg, pat) {
				result[i] = "[REDACTED]"
				break
			}
		}
	}
	return result
}
