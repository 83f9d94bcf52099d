package parse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/registry"
)

func noop(context.Context, *registry.Invocation, io.Reader, io.Writer) (int, error) { return 0, nil }

func newTestRegistry() *registry.Registry {
	r := registry.New()
	r.Register(registry.Descriptor{
		Name:  "head",
		Short: "Print the first lines",
		Args:  cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("lines", "n", 10, "number of lines")
		},
		Run: noop,
	})
	r.Register(registry.Descriptor{
		Name:     "tee",
		Short:    "Copy input to a file",
		Flags:    func(fs *pflag.FlagSet) { fs.String("file", "", "destination") },
		Required: []string{"file"},
		Run:      noop,
	})
	r.Register(registry.Descriptor{Name: "pick", Short: "two names", Args: cobra.RangeArgs(1, 2), Run: noop})
	r.Register(registry.Descriptor{Name: "plug", Short: "raw plugin", RawArgs: true, Run: noop})
	return r
}

func testOptions() (Options, *bytes.Buffer) {
	var stdout bytes.Buffer
	return Options{Program: "pipekit", Version: "1.2.3", Stdout: &stdout, Stderr: io.Discard}, &stdout
}

func TestParseBindsOptions(t *testing.T) {
	opts, _ := testOptions()

	res, err := Parse([]string{"head", "-n", "3"}, newTestRegistry(), opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.ShortCircuit || res.Invocation == nil {
		t.Fatalf("expected bound invocation, got %+v", res)
	}
	if res.Invocation.Descriptor.Name != "head" {
		t.Errorf("bound %q, want head", res.Invocation.Descriptor.Name)
	}
	if n, _ := res.Invocation.Flags.GetInt("lines"); n != 3 {
		t.Errorf("lines = %d, want 3", n)
	}
	if diff := cmp.Diff(map[string]string{"lines": "3"}, res.Invocation.Options()); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIsolatesFlagState(t *testing.T) {
	opts, _ := testOptions()
	reg := newTestRegistry()

	if _, err := Parse([]string{"head", "-n", "3"}, reg, opts); err != nil {
		t.Fatal(err)
	}
	res, err := Parse([]string{"head"}, reg, opts)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := res.Invocation.Flags.GetInt("lines"); n != 10 {
		t.Errorf("lines = %d, want default 10 on a fresh parse", n)
	}
}

func TestParseEmptyTokensShowsHelp(t *testing.T) {
	opts, stdout := testOptions()

	res, err := Parse(nil, newTestRegistry(), opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !res.ShortCircuit {
		t.Fatal("expected short circuit for empty tokens")
	}
	if !strings.Contains(stdout.String(), "Usage:") || !strings.Contains(stdout.String(), "head") {
		t.Errorf("expected usage listing commands, got %q", stdout.String())
	}
}

func TestParseVersion(t *testing.T) {
	for _, flag := range []string{"-V", "--version"} {
		opts, stdout := testOptions()

		res, err := Parse([]string{flag}, newTestRegistry(), opts)
		if err != nil {
			t.Fatalf("%s: %v", flag, err)
		}
		if !res.ShortCircuit {
			t.Errorf("%s: expected short circuit", flag)
		}
		if got := stdout.String(); got != "pipekit 1.2.3\n" {
			t.Errorf("%s: version output = %q", flag, got)
		}
	}
}

func TestParseCommandHelp(t *testing.T) {
	opts, stdout := testOptions()

	res, err := Parse([]string{"head", "--help"}, newTestRegistry(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.ShortCircuit {
		t.Fatal("expected short circuit for command help")
	}
	if !strings.Contains(stdout.String(), "--lines") {
		t.Errorf("expected head's flags in help, got %q", stdout.String())
	}
}

func TestParseUnknownCommand(t *testing.T) {
	opts, _ := testOptions()

	_, err := Parse([]string{"badcmd", "-x"}, newTestRegistry(), opts)
	var unknown *cmderr.UnknownCommandError
	if !errors.As(err, &unknown) || unknown.Name != "badcmd" {
		t.Fatalf("expected UnknownCommandError for badcmd, got %v", err)
	}
}

func TestParseArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		command string
		token   string
	}{
		{"unknown flag", []string{"head", "--bogus"}, "head", "--bogus"},
		{"wrong type", []string{"head", "-n", "many"}, "head", "many"},
		{"missing value", []string{"head", "--lines"}, "head", "--lines"},
		{"missing required", []string{"tee"}, "tee", "--file"},
		{"unexpected positional", []string{"head", "extra"}, "head", "extra"},
		{"second unexpected positional", []string{"head", "a", "b"}, "head", "a"},
		{"too many positionals", []string{"pick", "x", "y", "z"}, "pick", "z"},
		{"too few positionals", []string{"pick"}, "pick", ""},
		{"unknown global flag", []string{"--bogus"}, "pipekit", "--bogus"},
	}

	for _, tt := range tests {
		opts, _ := testOptions()
		_, err := Parse(tt.tokens, newTestRegistry(), opts)

		var argErr *cmderr.ArgumentError
		if !errors.As(err, &argErr) {
			t.Errorf("%s: expected ArgumentError, got %v", tt.name, err)
			continue
		}
		if argErr.Command != tt.command {
			t.Errorf("%s: command = %q, want %q", tt.name, argErr.Command, tt.command)
		}
		if argErr.Token != tt.token {
			t.Errorf("%s: token = %q, want %q", tt.name, argErr.Token, tt.token)
		}
		if argErr.Cause == nil {
			t.Errorf("%s: missing cause", tt.name)
		}
	}
}

func TestParseUnexpectedArgumentMessage(t *testing.T) {
	opts, _ := testOptions()
	_, err := Parse([]string{"head", "extra"}, newTestRegistry(), opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if strings.Contains(err.Error(), "unknown command") {
		t.Errorf("a surplus argument must not read as an unknown command: %q", err)
	}
	if want := `head: invalid argument "extra": unexpected argument`; err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}
}

func TestParseRawArgsPassThrough(t *testing.T) {
	opts, _ := testOptions()

	res, err := Parse([]string{"plug", "--anything", "x"}, newTestRegistry(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"--anything", "x"}, res.Invocation.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
}
