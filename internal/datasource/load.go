package datasource

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/metrics"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// maxParallelLoads bounds concurrent file loads in LoadAll.
const maxParallelLoads = 4

// Load reads the roots stored in path, dispatching on its extension.
func Load(ctx context.Context, path string) ([]model.TreeNode, error) {
	source, err := Describe(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(ctx, source)
}

// LoadFromSource loads roots from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource) ([]model.TreeNode, error) {
	done := metrics.Timer(metrics.DataLoad)
	defer done()

	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadTree(ctx)

	case SourceTypeJSONL:
		f, err := os.Open(source.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseJSONL(f, JSONLOptions{})

	case SourceTypeJSON, SourceTypeYAML:
		data, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, err
		}
		var roots []model.TreeNode
		if source.Type == SourceTypeJSON {
			roots, err = model.DecodeJSON(stripBOM(data))
		} else {
			roots, err = model.DecodeYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", source.Path, err)
		}
		return roots, nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// LoadAll loads several files concurrently and concatenates their roots in
// argument order. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, paths []string) ([]model.TreeNode, error) {
	results := make([][]model.TreeNode, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			roots, err := Load(ctx, path)
			if err != nil {
				return err
			}
			results[i] = roots
			debug.LogTiming("load "+path, time.Since(start))
			debug.LogIf(len(roots) == 0, "%s holds no nodes", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.TreeNode
	for _, roots := range results {
		all = append(all, roots...)
	}
	return all, nil
}

// Save writes roots to path in the format its extension selects.
func Save(ctx context.Context, path string, roots []model.TreeNode) error {
	typ, err := DetectType(path)
	if err != nil {
		return err
	}
	switch typ {
	case SourceTypeSQLite:
		return WriteSQLite(ctx, path, roots)
	case SourceTypeJSONL:
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteJSONL(f, roots); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case SourceTypeYAML:
		data, err := model.EncodeYAML(roots)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		data, err := model.EncodeJSON(roots)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
}
