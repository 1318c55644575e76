// Package hooks runs user commands around tv exports.
//
// Hooks live in .treeview/hooks.yaml of the project directory:
//
//	hooks:
//	  pre-export:
//	    - name: lint
//	      command: test "$TREEVIEW_SELECTED_COUNT" -gt 0
//	  post-export:
//	    - command: cp "$TREEVIEW_EXPORT_PATH" ~/Sync/
//	      timeout: 10s
//	      on_error: fail
//
// A failing pre-export hook cancels the export; post-export failures are
// reported and leave the written file in place.
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase is the point of the export a hook runs at.
type HookPhase string

const (
	PreExport  HookPhase = "pre-export"
	PostExport HookPhase = "post-export"
)

// ErrorPolicy decides whether a failing hook fails the export.
type ErrorPolicy string

const (
	OnErrorFail     ErrorPolicy = "fail"
	OnErrorContinue ErrorPolicy = "continue"
)

func (p HookPhase) defaultPolicy() ErrorPolicy {
	if p == PreExport {
		return OnErrorFail
	}
	return OnErrorContinue
}

// Hook is one shell command. Env values may reference ${VAR}.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError ErrorPolicy       `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// For returns the hooks of phase, nil for an unknown phase.
func (c *Config) For(phase HookPhase) []Hook {
	if c == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return len(c.For(PreExport)) == 0 && len(c.For(PostExport)) == 0
}

// ExportContext describes the export to the hook commands.
type ExportContext struct {
	ExportPath    string
	ExportFormat  string // markdown, svg, png or json
	NodeCount     int
	SelectedCount int
	Timestamp     time.Time
}

// ToEnv renders the context as TREEVIEW_* variables.
func (c ExportContext) ToEnv() []string {
	return []string{
		"TREEVIEW_EXPORT_PATH=" + c.ExportPath,
		"TREEVIEW_EXPORT_FORMAT=" + c.ExportFormat,
		"TREEVIEW_NODE_COUNT=" + strconv.Itoa(c.NodeCount),
		"TREEVIEW_SELECTED_COUNT=" + strconv.Itoa(c.SelectedCount),
		"TREEVIEW_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

const DefaultTimeout = 30 * time.Second

// ConfigFile is the hooks file relative to the project directory.
var ConfigFile = filepath.Join(".treeview", "hooks.yaml")

// Loader reads the hooks file of one project directory.
type Loader struct {
	projectDir string
	config     *Config
	warnings   []string
}

type LoaderOption func(*Loader)

// WithProjectDir sets the directory holding .treeview/. Defaults to the
// working directory.
func WithProjectDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.projectDir = dir
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.projectDir == "" {
		l.projectDir, _ = os.Getwd()
	}
	return l
}

// Load reads and normalizes the hooks file. A missing file means no hooks.
func (l *Loader) Load() error {
	path := filepath.Join(l.projectDir, ConfigFile)
	l.config, l.warnings = &Config{}, nil

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Hooks.PreExport = l.normalize(PreExport, cfg.Hooks.PreExport)
	cfg.Hooks.PostExport = l.normalize(PostExport, cfg.Hooks.PostExport)
	l.config = &cfg
	return nil
}

// normalize fills in names, timeouts and error policies, dropping hooks
// without a command.
func (l *Loader) normalize(phase HookPhase, in []Hook) []Hook {
	var out []Hook
	for i, h := range in {
		if strings.TrimSpace(h.Command) == "" {
			l.warnf("%s hook %d has empty command; skipping", phase, i+1)
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		switch h.OnError {
		case OnErrorFail, OnErrorContinue:
		case "":
			h.OnError = phase.defaultPolicy()
		default:
			l.warnf("%s hook %q: unknown on_error %q, using %q", phase, h.Name, h.OnError, phase.defaultPolicy())
			h.OnError = phase.defaultPolicy()
		}
		out = append(out, h)
	}
	return out
}

func (l *Loader) warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

// Config returns the loaded hooks, empty before Load.
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

func (l *Loader) HasHooks() bool {
	return !l.Config().Empty()
}

func (l *Loader) GetHooks(phase HookPhase) []Hook {
	return l.config.For(phase)
}

func (l *Loader) Warnings() []string {
	return l.warnings
}

// LoadDefault loads the hooks of the working directory.
func LoadDefault() (*Loader, error) {
	l := NewLoader()
	if err := l.Load(); err != nil {
		return nil, err
	}
	return l, nil
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds ("5").
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type plain Hook
	if node.Kind != yaml.MappingNode {
		return node.Decode((*plain)(h))
	}

	rest := *node
	rest.Content = nil
	var timeout *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "timeout" {
			timeout = node.Content[i+1]
			continue
		}
		rest.Content = append(rest.Content, node.Content[i], node.Content[i+1])
	}
	if err := rest.Decode((*plain)(h)); err != nil {
		return err
	}
	if timeout != nil {
		d, err := parseTimeout(timeout.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", timeout.Line, err)
		}
		h.Timeout = d
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
