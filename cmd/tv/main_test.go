package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/internal/datasource"
	"github.com/vanderheijden86/treeview/pkg/config"
	"github.com/vanderheijden86/treeview/pkg/export"
	"github.com/vanderheijden86/treeview/pkg/testutil"
)

const fruitJSON = `[
	{"id": "a", "name": "Apple", "color": "red"},
	{"id": "b", "name": "Banana", "children": [{"id": "b1", "name": "Banana Jr"}]}
]`

func writeData(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "fruit.json")
	if err := os.WriteFile(path, []byte(fruitJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestStringListSplitsAndRepeats(t *testing.T) {
	var s stringList
	for _, v := range []string{"a.json, b.json", "c.yaml", " , "} {
		if err := s.Set(v); err != nil {
			t.Fatal(err)
		}
	}
	testutil.AssertIDs(t, "list", s, "a.json", "b.json", "c.yaml")
	if s.String() != "a.json,b.json,c.yaml" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{
		"--data", "one.json", "--select", "x,y", "--multi", "--checkbox=false", "--search", "ap", "two.yaml",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	testutil.AssertIDs(t, "data", o.data, "one.json", "two.yaml")
	testutil.AssertIDs(t, "select", o.selectIDs, "x", "y")
	if o.search != "ap" {
		t.Errorf("search = %q", o.search)
	}
	if len(o.overrides) != 2 || !o.overrides["multi"] {
		t.Errorf("overrides = %v", o.overrides)
	}
	if v, ok := o.overrides["checkbox"]; !ok || v {
		t.Errorf("--checkbox=false should be recorded as an explicit false, got %v", o.overrides)
	}
}

func TestParseFlagsRejectsWatchConflict(t *testing.T) {
	if _, err := parseFlags([]string{"--watch", "--no-watch"}, io.Discard); err == nil {
		t.Error("expected an error for --watch with --no-watch")
	}
}

func TestApplyOverridesOnlyTouchesGivenFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tree.CheckboxSelectionEnabled = true

	o, err := parseFlags([]string{"--multi", "--theme", "light", "--no-watch"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	applyOverrides(&cfg, o)

	if !cfg.Tree.MultiSelectEnabled {
		t.Error("--multi not applied")
	}
	if !cfg.Tree.CheckboxSelectionEnabled {
		t.Error("an absent flag must keep the configured value")
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.Watch.Enabled {
		t.Error("--no-watch not applied")
	}
}

func TestApplyOverridesSearchEnablesSearch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tree.SearchEnabled = false
	applyOverrides(&cfg, cliOptions{search: "x"})
	if !cfg.Tree.SearchEnabled {
		t.Error("--search should turn search on")
	}
}

func TestDataPathsFallsBackToRecent(t *testing.T) {
	_, path := writeData(t)
	cfg := config.DefaultConfig()
	cfg.Recent = []string{filepath.Join(t.TempDir(), "gone.json"), path}

	got, err := dataPaths(cliOptions{}, cfg)
	if err != nil {
		t.Fatalf("dataPaths: %v", err)
	}
	testutil.AssertIDs(t, "paths", got, path)

	if _, err := dataPaths(cliOptions{}, config.DefaultConfig()); err == nil {
		t.Error("expected an error with no data and no recent files")
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.HasPrefix(out.String(), "tv ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunRobotSnapshot(t *testing.T) {
	dir, path := writeData(t)
	var out, errOut bytes.Buffer
	code := run([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--robot", "--multi", "--select", "b,a", "--search", "banana",
		path,
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}

	var snap export.Snapshot
	if err := json.Unmarshal(out.Bytes(), &snap); err != nil {
		t.Fatalf("decoding snapshot: %v\n%s", err, out.String())
	}
	if snap.Query != "banana" {
		t.Errorf("query = %q", snap.Query)
	}
	testutil.AssertIDs(t, "selected", testutil.NodeIDs(snap.Selected), "b", "a")
	var keys []string
	for _, r := range snap.Rows {
		keys = append(keys, r.Key)
	}
	testutil.AssertIDs(t, "rows", keys, "b", "b1")

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
		t.Error("headless runs must not write the config file")
	}
}

func TestRunUnknownSelectFails(t *testing.T) {
	dir, path := writeData(t)
	var errOut bytes.Buffer
	code := run([]string{"--config", filepath.Join(dir, "c.yaml"), "--robot", "--select", "zzz", path}, io.Discard, &errOut)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "zzz") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestRunStats(t *testing.T) {
	dir, path := writeData(t)
	var out bytes.Buffer
	if code := run([]string{"--config", filepath.Join(dir, "c.yaml"), "--stats", path}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "nodes:") {
		t.Errorf("stats output = %q", out.String())
	}
}

func TestRunExportAndConvert(t *testing.T) {
	dir, path := writeData(t)
	mdPath := filepath.Join(dir, "out.md")
	yamlPath := filepath.Join(dir, "out.yaml")
	code := run([]string{
		"--config", filepath.Join(dir, "c.yaml"),
		"--expand-all", "--export", mdPath, "--convert", yamlPath, path,
	}, io.Discard, io.Discard)
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(md), "Banana Jr") {
		t.Errorf("expanded export should list the child:\n%s", md)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	roots, err := datasource.Load(ctx, yamlPath)
	if err != nil {
		t.Fatalf("loading converted file: %v", err)
	}
	testutil.AssertIDs(t, "converted", testutil.AllIDs(roots), "a", "b", "b1")
}

func TestRunMissingData(t *testing.T) {
	dir := t.TempDir()
	var errOut bytes.Buffer
	if code := run([]string{"--config", filepath.Join(dir, "c.yaml"), "--robot"}, io.Discard, &errOut); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestSelectionLine(t *testing.T) {
	roots := testutil.Fruit()
	if got := selectionLine(roots[0]); got != "a\tApple" {
		t.Errorf("selectionLine = %q", got)
	}
	roots[0].ID = ""
	if got := selectionLine(roots[0]); got != "Apple" {
		t.Errorf("selectionLine without id = %q", got)
	}
}

func TestRunExportHooks(t *testing.T) {
	dir, path := writeData(t)
	hooksDir := filepath.Join(dir, ".treeview")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	hooksYAML := "hooks:\n  pre-export:\n    - name: gate\n      command: test \"$TREEVIEW_EXPORT_FORMAT\" = svg\n"
	if err := os.WriteFile(filepath.Join(hooksDir, "hooks.yaml"), []byte(hooksYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfgPath := filepath.Join(dir, "c.yaml")
	md := filepath.Join(dir, "out.md")
	var errOut bytes.Buffer
	if code := run([]string{"--config", cfgPath, "--export", md, path}, io.Discard, &errOut); code != 1 {
		t.Fatalf("failing pre-export hook: exit code %d, want 1", code)
	}
	if _, err := os.Stat(md); err == nil {
		t.Error("a failed pre-export hook must cancel the export")
	}
	if !strings.Contains(errOut.String(), "export cancelled") {
		t.Errorf("stderr = %q", errOut.String())
	}

	svgPath := filepath.Join(dir, "out.svg")
	if code := run([]string{"--config", cfgPath, "--export", svgPath, path}, io.Discard, io.Discard); code != 0 {
		t.Fatalf("passing hook: exit code %d", code)
	}
	if code := run([]string{"--config", cfgPath, "--no-hooks", "--export", md, path}, io.Discard, io.Discard); code != 0 {
		t.Fatalf("--no-hooks: exit code %d", code)
	}
	if _, err := os.Stat(md); err != nil {
		t.Errorf("--no-hooks export missing: %v", err)
	}
}

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		args  []string
		robot bool
		want  bool
	}{
		{nil, false, false},
		{nil, true, true},
		{[]string{"--robot"}, false, true},
		{[]string{"-export=out.svg", "data.json"}, false, true},
		{[]string{"--stats"}, false, true},
		{[]string{"--multi", "data.json"}, false, false},
		{[]string{"robot.json"}, false, false},
	}
	for _, tt := range tests {
		if got := shouldSuppressTTYQueries(tt.args, tt.robot); got != tt.want {
			t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v, want %v", tt.args, tt.robot, got, tt.want)
		}
	}
}
