package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/internal/datasource"
	"github.com/vanderheijden86/treeview/pkg/config"
	"github.com/vanderheijden86/treeview/pkg/export"
	"github.com/vanderheijden86/treeview/pkg/hooks"
	"github.com/vanderheijden86/treeview/pkg/metrics"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// prepare applies the --expand-all, --select and --search flags, in that order.
func prepare(tv *tree.Treeview, opts cliOptions) error {
	if opts.expandAll {
		if err := tv.ExpandAll(); err != nil {
			return err
		}
	}
	for _, key := range opts.selectIDs {
		if err := tv.SetChecked(key, true); err != nil {
			return fmt.Errorf("--select %s: %w", key, err)
		}
	}
	if opts.search != "" {
		if err := tv.Search(opts.search); err != nil {
			return err
		}
	}
	return nil
}

// runHeadless serves --robot, --stats, --export and --convert without a terminal.
func runHeadless(ctx context.Context, stdout, stderr io.Writer, roots []model.TreeNode, cfg config.Config, opts cliOptions) error {
	if opts.convert != "" {
		if err := datasource.Save(ctx, opts.convert, roots); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Wrote %d nodes to %s\n", model.Count(roots), opts.convert)
	}

	if opts.stats {
		st := export.Stats(roots)
		if opts.robot {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
		} else {
			fmt.Fprint(stdout, st.String())
		}
	}

	if !opts.robot && opts.export == "" {
		return nil
	}

	tv := tree.New(tree.Headless, roots, cfg.Tree,
		tree.WithLogger(log.New(stderr, "", 0)))
	if err := prepare(tv, opts); err != nil {
		return err
	}

	if opts.export != "" {
		if err := exportWithHooks(stderr, tv, opts); err != nil {
			return err
		}
	}
	if opts.robot && !opts.stats {
		return export.JSON(stdout, tv)
	}
	return nil
}

// exportWithHooks writes the export file between the pre-export and
// post-export hooks of the current directory.
func exportWithHooks(stderr io.Writer, tv *tree.Treeview, opts cliOptions) error {
	format, err := export.Format(opts.export)
	if err != nil {
		return err
	}
	executor, err := hooks.RunHooks("", hooks.ExportContext{
		ExportPath:    opts.export,
		ExportFormat:  format,
		NodeCount:     tv.Len(),
		SelectedCount: tv.SelectedCount(),
		Timestamp:     time.Now(),
	}, opts.noHooks)
	if err != nil {
		return err
	}

	if executor != nil {
		if err := executor.RunPreExport(); err != nil {
			fmt.Fprint(stderr, executor.Summary())
			return fmt.Errorf("export cancelled: %w", err)
		}
	}
	if err := export.Save(opts.export, tv, export.Options{}); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Exported %s to %s\n", tv.Describe(), opts.export)

	if executor != nil {
		err := executor.RunPostExport()
		fmt.Fprint(stderr, executor.Summary())
		return err
	}
	return nil
}

func printMetrics(w io.Writer) {
	_ = metrics.WriteTable(w)
}
