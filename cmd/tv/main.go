package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/internal/datasource"
	"github.com/vanderheijden86/treeview/pkg/config"
	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
	"github.com/vanderheijden86/treeview/pkg/ui"
	"github.com/vanderheijden86/treeview/pkg/version"
	"github.com/vanderheijden86/treeview/pkg/watcher"
)

// stringList is a repeatable flag whose values may also be comma-separated.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

type cliOptions struct {
	data       stringList
	configPath string
	configure  bool

	search    string
	selectIDs stringList
	expandAll bool

	robot      bool
	stats      bool
	showMetric bool
	export     string
	convert    string
	noHooks    bool

	watch   bool
	noWatch bool
	theme   string

	// tree option overrides, applied only when given
	overrides map[string]bool

	debug      bool
	cpuProfile string
	version    bool
	help       bool
}

// overrideFlags maps boolean flags onto tree options.
var overrideFlags = []struct {
	name, usage string
}{
	{"multi", "Allow selecting several nodes"},
	{"cascade", "Selecting a node selects its subtree (single-select only)"},
	{"checkbox", "Show checkboxes"},
	{"expanded", "Expand every node on load"},
	{"searchable", "Enable the search input"},
	{"select-all", "Show the select-all control"},
	{"expand-controls", "Show expand all / collapse all"},
	{"selection", "Enable node selection"},
	{"restore-expansion", "Keep expansion when a search is cleared"},
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("tv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&o.data, "data", "Data file to show (.json, .jsonl, .yaml, .db); repeatable or comma-separated")
	fs.StringVar(&o.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/treeview/config.yaml)")
	fs.BoolVar(&o.configure, "configure", false, "Edit the configuration interactively and save it")
	fs.StringVar(&o.search, "search", "", "Apply a search before showing the tree")
	fs.Var(&o.selectIDs, "select", "Node keys to select, in order; repeatable or comma-separated")
	fs.BoolVar(&o.expandAll, "expand-all", false, "Expand every node before showing the tree")
	fs.BoolVar(&o.robot, "robot", os.Getenv("TREEVIEW_ROBOT") == "1", "Print the tree state as JSON instead of starting the UI")
	fs.BoolVar(&o.stats, "stats", false, "Print tree statistics and exit")
	fs.BoolVar(&o.showMetric, "metrics", false, "Print timing metrics to stderr on exit")
	fs.StringVar(&o.export, "export", "", "Write the displayed tree to a file (.md, .svg, .png, .json) and exit")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip the export hooks in .treeview/hooks.yaml")
	fs.StringVar(&o.convert, "convert", "", "Write the loaded data to another format (.json, .jsonl, .yaml, .db) and exit")
	fs.BoolVar(&o.watch, "watch", false, "Reload when data files change")
	fs.BoolVar(&o.noWatch, "no-watch", false, "Do not reload when data files change")
	fs.StringVar(&o.theme, "theme", "", "Color theme: auto, dark or light")
	fs.BoolVar(&o.debug, "debug", false, "Write debug logging (to the state directory while the UI runs)")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")

	values := make(map[string]*bool, len(overrideFlags))
	for _, f := range overrideFlags {
		values[f.name] = fs.Bool(f.name, false, f.usage)
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.data = append(o.data, fs.Args()...)

	o.overrides = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		if v, ok := values[f.Name]; ok {
			o.overrides[f.Name] = *v
		}
	})

	if o.watch && o.noWatch {
		return o, errors.New("--watch and --no-watch are mutually exclusive")
	}
	if o.help {
		fmt.Fprintln(stderr, "Usage: tv [options] [data files...]")
		fmt.Fprintln(stderr, "\nAn interactive tree browser for hierarchical JSON, YAML and SQLite data.")
		fs.PrintDefaults()
	}
	return o, nil
}

// applyOverrides folds the command line into cfg.
func applyOverrides(cfg *config.Config, o cliOptions) {
	t := &cfg.Tree
	for name, v := range o.overrides {
		switch name {
		case "multi":
			t.MultiSelectEnabled = v
		case "cascade":
			t.CascadeSelectChildren = v
		case "checkbox":
			t.CheckboxSelectionEnabled = v
		case "expanded":
			t.InitiallyExpanded = v
		case "searchable":
			t.SearchEnabled = v
		case "select-all":
			t.ShowSelectAllButton = v
		case "expand-controls":
			t.ShowExpandCollapseAllButtons = v
		case "selection":
			t.NodeSelectionEnabled = v
		case "restore-expansion":
			t.RestoreExpansionAfterSearch = v
		}
	}
	if o.search != "" {
		t.SearchEnabled = true
	}
	if o.watch {
		cfg.Watch.Enabled = true
	}
	if o.noWatch {
		cfg.Watch.Enabled = false
	}
	if o.theme != "" {
		cfg.UI.Theme = o.theme
	}
}

// dataPaths returns the files to open: the command line, or the most
// recently opened file that still exists.
func dataPaths(o cliOptions, cfg config.Config) ([]string, error) {
	if len(o.data) > 0 {
		return o.data, nil
	}
	for _, p := range cfg.Recent {
		if _, err := os.Stat(p); err == nil {
			return []string{p}, nil
		}
	}
	return nil, errors.New("no data file given (use --data FILE)")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if opts.help {
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "tv %s\n", version.Version)
		return 0
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}
	if opts.debug {
		debug.SetEnabled(true)
	}
	if opts.showMetric {
		defer printMetrics(stderr)
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = config.ConfigPath()
	}
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v; using defaults\n", err)
		} else {
			cfg = loaded
		}
	}

	if opts.configure {
		edited, err := config.RunWizard(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Configuration cancelled: %v\n", err)
			return 1
		}
		if err := config.SaveTo(edited, configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Saved %s\n", configPath)
		return 0
	}

	applyOverrides(&cfg, opts)

	paths, err := dataPaths(opts, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	roots, err := datasource.LoadAll(ctx, paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading data: %v\n", err)
		return 1
	}

	headless := opts.robot || opts.stats || opts.export != "" || opts.convert != ""
	if headless {
		if err := runHeadless(ctx, stdout, stderr, roots, cfg, opts); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	for _, p := range paths {
		cfg.AddRecent(p)
	}
	if configPath != "" {
		if err := config.SaveTo(cfg, configPath); err != nil {
			debug.Log("saving recent files: %v", err)
		}
	}

	selected, err := runTUI(ctx, roots, paths, cfg, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error running tree view: %v\n", err)
		return 1
	}
	for _, n := range selected {
		fmt.Fprintln(stdout, selectionLine(n))
	}
	return 0
}

func selectionLine(n model.TreeNode) string {
	if n.ID == "" {
		return n.Name
	}
	return n.ID + "\t" + n.Name
}

// runTUI starts the interactive browser and returns the selection when the
// user confirmed it.
func runTUI(ctx context.Context, roots []model.TreeNode, paths []string, cfg config.Config, opts cliOptions) ([]model.TreeNode, error) {
	if dir := config.StateDir(); debug.Enabled() && dir != "" {
		if restore, err := debug.SetFile(filepath.Join(dir, "debug.log")); err == nil {
			defer restore()
		}
	}

	uiOpts := []ui.Option{
		ui.WithTitle(strings.Join(displayNames(paths), ", ")),
		ui.WithReload(func(ctx context.Context) ([]model.TreeNode, error) {
			return datasource.LoadAll(ctx, paths)
		}),
	}

	if cfg.Watch.Enabled {
		w, err := watcher.New(paths,
			watcher.WithDebounceDuration(cfg.Watch.Debounce),
			watcher.WithPollInterval(cfg.Watch.PollInterval),
			watcher.WithForcePoll(cfg.Watch.ForcePoll),
			watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
		)
		if err == nil {
			err = w.Start(ctx)
		}
		if err != nil {
			debug.Log("live reload unavailable: %v", err)
		} else {
			defer w.Stop()
			uiOpts = append(uiOpts, ui.WithWatcher(w))
		}
	}

	m, err := ui.NewModel(roots, cfg.Tree, cfg.UI, uiOpts...).Apply(func(tv *tree.Treeview) error {
		return prepare(tv, opts)
	})
	if err != nil {
		return nil, err
	}

	final, err := runTUIProgram(ctx, m)
	if err != nil {
		return nil, err
	}
	if fm, ok := final.(ui.Model); ok && fm.Confirmed() {
		return fm.Treeview().SelectedNodes(), nil
	}
	return nil, nil
}

func displayNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func runTUIProgram(ctx context.Context, m ui.Model) (tea.Model, error) {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Optional auto-quit for automated tests: set TREEVIEW_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("TREEVIEW_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return final, nil
	}
	return final, err
}
