// Package registry holds the set of commands a pipeline segment can name.
// Built-in commands register through a static table at startup; external
// plugins are discovered once from the plugin directory.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/klytics/pipekit/internal/cmderr"
)

// ReservedPrefix marks names that are never exposed as commands.
const ReservedPrefix = "_"

// RunFunc is a command entry point. It reads the segment input from stdin,
// writes the segment output to stdout and returns the command's status.
// A non-nil error is translated into a diagnostic and an exit code.
type RunFunc func(ctx context.Context, inv *Invocation, stdin io.Reader, stdout io.Writer) (int, error)

// Descriptor is the registry's record for one command.
type Descriptor struct {
	Name  string
	Short string
	Long  string
	// Usage is appended to the name in help output, e.g. "[files...]".
	Usage string
	// Args validates positional arguments; nil accepts any.
	Args cobra.PositionalArgs
	// Flags registers the command's option schema.
	Flags func(fs *pflag.FlagSet)
	// Required lists flags that must be set.
	Required []string
	// RawArgs passes every token through untouched, flags included.
	RawArgs bool
	Run     RunFunc
}

// Invocation is a descriptor bound to validated arguments for one segment.
type Invocation struct {
	Descriptor *Descriptor
	Flags      *pflag.FlagSet
	Args       []string
	// Stderr is the diagnostic stream; it never carries pipeline data.
	Stderr io.Writer
}

// Options returns every option's validated value keyed by name.
func (inv *Invocation) Options() map[string]string {
	opts := make(map[string]string)
	if inv.Flags == nil {
		return opts
	}
	inv.Flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		opts[f.Name] = f.Value.String()
	})
	return opts
}

// Registry maps command names to descriptors.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{commands: make(map[string]*Descriptor)}
}

// Register adds d to the registry. Names with the reserved prefix are
// skipped. It panics if d is malformed or the name is already registered.
func (r *Registry) Register(d Descriptor) {
	if err := r.add(d); err != nil {
		panic(err.Error())
	}
}

func (r *Registry) add(d Descriptor) error {
	if d.Name == "" || strings.ContainsAny(d.Name, " \t\n") {
		return fmt.Errorf("invalid command name %q", d.Name)
	}
	if d.Run == nil {
		return fmt.Errorf("command %s has no entry point", d.Name)
	}
	if strings.HasPrefix(d.Name, ReservedPrefix) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[d.Name]; exists {
		return fmt.Errorf("command %s already registered", d.Name)
	}
	r.commands[d.Name] = &d
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	if !ok {
		return nil, &cmderr.UnknownCommandError{Name: name}
	}
	return d, nil
}

// List returns all command names sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all descriptors sorted by name.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Name < ds[j].Name })
	return ds
}
