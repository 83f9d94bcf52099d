package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestWriteErrorPlain(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	var buf bytes.Buffer
	WriteError(&buf, "unknown command %q", "badcmd")

	if got, want := buf.String(), "Error: unknown command \"badcmd\"\n"; got != want {
		t.Errorf("WriteError = %q, want %q", got, want)
	}
}

func TestWriteErrorKeepsPercentInArgs(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	var buf bytes.Buffer
	WriteError(&buf, "%s", errors.New("100% broken"))

	if !strings.Contains(buf.String(), "100% broken") {
		t.Errorf("expected message to survive formatting, got %q", buf.String())
	}
}

func TestWriteWarningAndHint(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	var buf bytes.Buffer
	WriteWarning(&buf, "plugin %s skipped", "x")
	WriteHint(&buf, "run '%s --help'", "pipekit")

	want := "Warning: plugin x skipped\n  run 'pipekit --help'\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
