// Package audit provides the audit command, which replays the audit log
// into the pipeline.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	auditpkg "github.com/klytics/pipekit/internal/audit"
	"github.com/klytics/pipekit/internal/cmderr"
	"github.com/klytics/pipekit/internal/registry"
)

// Register adds the audit command. path is consulted on every run so a
// reloaded configuration takes effect.
func Register(r *registry.Registry, path func() string) {
	r.Register(registry.Descriptor{
		Name:  "audit",
		Short: "Emit recorded pipeline segments as tab-separated lines",
		Long: `Reads the audit log and writes one line per recorded segment:
timestamp, run ID, segment, command, exit code, outcome, duration and arguments.
The current run is never included, since a segment is recorded after it finishes.`,
		Args: cobra.NoArgs,
		Flags: func(fs *pflag.FlagSet) {
			fs.Int("last", 20, "Emit only the last N entries (0 for all)")
			fs.String("command", "", "Filter by command name")
			fs.String("run", "", "Filter by run ID or run ID prefix")
			fs.Bool("json", false, "Emit one JSON object per line")
		},
		Run: func(ctx context.Context, inv *registry.Invocation, in io.Reader, out io.Writer) (int, error) {
			return run(ctx, inv, out, path())
		},
	})
}

func run(_ context.Context, inv *registry.Invocation, out io.Writer, path string) (int, error) {
	last, _ := inv.Flags.GetInt("last")
	command, _ := inv.Flags.GetString("command")
	runID, _ := inv.Flags.GetString("run")
	jsonOut, _ := inv.Flags.GetBool("json")

	if last < 0 {
		return 0, &cmderr.ArgumentError{Command: "audit", Token: fmt.Sprint(last), Cause: fmt.Errorf("--last must not be negative")}
	}
	if path == "" {
		return 0, fmt.Errorf("no audit log configured; set audit.path")
	}

	entries, err := auditpkg.ReadEntries(path)
	if err != nil {
		return 0, fmt.Errorf("could not read audit log: %w", err)
	}
	filtered := auditpkg.FilterEntries(entries, command, runID)
	if last > 0 && len(filtered) > last {
		filtered = filtered[len(filtered)-last:]
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		for _, e := range filtered {
			if err := enc.Encode(e); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	for _, e := range filtered {
		if _, err := fmt.Fprintf(out, "%s\t%s\t%d\t%s\t%d\t%s\t%dms\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.RunID, e.Segment, e.Command,
			e.ExitCode, e.Outcome, e.DurationMs, strings.Join(e.Args, " ")); err != nil {
			return 0, err
		}
	}
	return 0, nil
}
