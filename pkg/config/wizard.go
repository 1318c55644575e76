package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Selection modes offered by the wizard. Each maps onto a combination of
// the tree selection switches.
const (
	ModeNone    = "none"
	ModeSingle  = "single"
	ModeCascade = "cascade"
	ModeMulti   = "multi"
)

// SelectionMode names the selection behaviour cfg configures.
func SelectionMode(cfg Config) string {
	o := cfg.Tree
	switch {
	case !o.NodeSelectionEnabled:
		return ModeNone
	case o.MultiSelectEnabled:
		return ModeMulti
	case o.CascadeSelectChildren:
		return ModeCascade
	default:
		return ModeSingle
	}
}

// ApplySelectionMode sets the selection switches of cfg for mode.
func ApplySelectionMode(cfg *Config, mode string) error {
	o := &cfg.Tree
	switch mode {
	case ModeNone:
		o.NodeSelectionEnabled = false
		o.MultiSelectEnabled = false
		o.CascadeSelectChildren = false
	case ModeSingle:
		o.NodeSelectionEnabled = true
		o.MultiSelectEnabled = false
		o.CascadeSelectChildren = false
	case ModeCascade:
		o.NodeSelectionEnabled = true
		o.MultiSelectEnabled = false
		o.CascadeSelectChildren = true
	case ModeMulti:
		o.NodeSelectionEnabled = true
		o.MultiSelectEnabled = true
		o.CascadeSelectChildren = false
	default:
		return fmt.Errorf("unknown selection mode %q", mode)
	}
	if !o.NodeSelectionEnabled {
		o.CheckboxSelectionEnabled = false
		o.ShowSelectAllButton = false
	}
	return nil
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard edits cfg interactively and returns the result. cfg is left
// untouched when the form is aborted.
func RunWizard(cfg Config) (Config, error) {
	out := cfg
	mode := SelectionMode(cfg)

	fmt.Println("treeview configuration")
	fmt.Println("──────────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Selection").
				Options(
					huh.NewOption("Off", ModeNone),
					huh.NewOption("One node at a time", ModeSingle),
					huh.NewOption("One node with its subtree", ModeCascade),
					huh.NewOption("Any number of nodes", ModeMulti),
				).
				Value(&mode),
			huh.NewConfirm().
				Title("Show checkboxes?").
				Value(&out.Tree.CheckboxSelectionEnabled),
			huh.NewConfirm().
				Title("Show the select-all control?").
				Description("Only effective with multi-select").
				Value(&out.Tree.ShowSelectAllButton),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable search?").
				Value(&out.Tree.SearchEnabled),
			huh.NewConfirm().
				Title("Expand every node on load?").
				Value(&out.Tree.InitiallyExpanded),
			huh.NewConfirm().
				Title("Show expand all / collapse all?").
				Value(&out.Tree.ShowExpandCollapseAllButtons),
			huh.NewConfirm().
				Title("Restore expansion after a search is cleared?").
				Value(&out.Tree.RestoreExpansionAfterSearch),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions("auto", "dark", "light")...).
				Value(&out.UI.Theme),
			huh.NewConfirm().
				Title("Show the detail pane?").
				Value(&out.UI.DetailPane),
			huh.NewConfirm().
				Title("Reload when data files change?").
				Value(&out.Watch.Enabled),
		),
	)

	if err := form.Run(); err != nil {
		return cfg, err
	}
	if err := ApplySelectionMode(&out, mode); err != nil {
		return cfg, err
	}
	return out, nil
}
