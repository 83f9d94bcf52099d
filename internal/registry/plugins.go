package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/klytics/pipekit/internal/cmderr"
)

// PluginPrefix is the executable name prefix that marks a plugin.
const PluginPrefix = "pipekit-"

// Plugin is an external executable exposed as a command.
type Plugin struct {
	Name     string
	Path     string
	Manifest *Manifest
}

// Manifest is the optional plugin.yaml stored next to a plugin executable.
type Manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Usage       string `yaml:"usage"`
	Author      string `yaml:"author"`
}

// DiscoverPlugins scans dir for plugins. Both dir/pipekit-<name> and
// dir/<name>/pipekit-<name> layouts are recognised. A missing directory
// yields no plugins. The result is sorted by name.
func DiscoverPlugins(dir string) ([]Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read plugin directory %s: %w", dir, err)
	}

	var plugins []Plugin
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			sub := filepath.Join(dir, name, PluginPrefix+name)
			if isExecutable(sub) {
				p := Plugin{Name: name, Path: sub}
				if m, err := LoadManifest(filepath.Join(dir, name)); err == nil {
					p.Manifest = m
				}
				plugins = append(plugins, p)
			}
			continue
		}
		if strings.HasPrefix(name, PluginPrefix) {
			full := filepath.Join(dir, name)
			if isExecutable(full) {
				pluginName := strings.TrimSuffix(strings.TrimPrefix(name, PluginPrefix), filepath.Ext(name))
				// Flat plugins have no manifest; a plugin.yaml here belongs to no one.
				plugins = append(plugins, Plugin{Name: pluginName, Path: full})
			}
		}
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Name < plugins[j].Name })
	return plugins, nil
}

// LoadPlugins discovers plugins in dir and registers each one. Plugins with
// the reserved prefix are ignored and a plugin never shadows an existing
// command; conflicts are logged and skipped.
func (r *Registry) LoadPlugins(dir string, log logrus.FieldLogger) ([]Plugin, error) {
	plugins, err := DiscoverPlugins(dir)
	if err != nil {
		return nil, err
	}

	var loaded []Plugin
	for _, p := range plugins {
		if p.Name == "" || strings.HasPrefix(p.Name, ReservedPrefix) {
			continue
		}
		if err := r.add(p.Descriptor()); err != nil {
			log.WithField("plugin", p.Path).Warnf("skipping plugin: %s", err)
			continue
		}
		log.WithField("plugin", p.Name).Debug("registered plugin")
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Descriptor exposes the plugin as a command. Every token after the plugin
// name is handed to the executable unparsed.
func (p Plugin) Descriptor() Descriptor {
	short := "External plugin " + p.Path
	usage := "[args...]"
	if p.Manifest != nil {
		if p.Manifest.Description != "" {
			short = p.Manifest.Description
		}
		if p.Manifest.Usage != "" {
			usage = p.Manifest.Usage
		}
	}
	return Descriptor{
		Name:    p.Name,
		Short:   short,
		Usage:   usage,
		RawArgs: true,
		Run:     p.run,
	}
}

func (p Plugin) run(ctx context.Context, inv *Invocation, stdin io.Reader, stdout io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, p.Path, inv.Args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = inv.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = append(os.Environ(), "PIPEKIT_PLUGIN="+p.Name)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			// The plugin reported its own failure on stderr.
			return exitErr.ExitCode(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, cmderr.Unrecoverable(ctxErr)
		}
		return 0, fmt.Errorf("could not run plugin %s: %w", p.Path, err)
	}
	return 0, nil
}

// LoadManifest reads plugin.yaml from dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "plugin.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin.yaml not found in %s", dir)
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid plugin.yaml: %w", err)
	}
	return &m, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		ext := strings.ToLower(filepath.Ext(path))
		return ext == ".exe" || ext == ".bat" || ext == ".cmd"
	}
	return info.Mode()&0111 != 0
}
