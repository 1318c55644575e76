package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestExportContextToEnv(t *testing.T) {
	ctx := ExportContext{
		ExportPath:    "/tmp/orchard.svg",
		ExportFormat:  "svg",
		NodeCount:     9,
		SelectedCount: 2,
		Timestamp:     time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	got := strings.Join(ctx.ToEnv(), "\n")
	for _, want := range []string{
		"TREEVIEW_EXPORT_PATH=/tmp/orchard.svg",
		"TREEVIEW_EXPORT_FORMAT=svg",
		"TREEVIEW_NODE_COUNT=9",
		"TREEVIEW_SELECTED_COUNT=2",
		"TREEVIEW_TIMESTAMP=2026-03-01T10:30:00Z",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("env missing %q:\n%s", want, got)
		}
	}
}

func TestLoaderNoConfig(t *testing.T) {
	loader := NewLoader(WithProjectDir(t.TempDir()))
	if err := loader.Load(); err != nil {
		t.Fatalf("expected no error for missing config, got: %v", err)
	}
	if loader.HasHooks() {
		t.Error("expected no hooks when config is missing")
	}
}

func TestLoaderWithValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	writeHooksFile(t, tmpDir, `
hooks:
  pre-export:
    - name: validate
      command: echo "validating"
      timeout: 5s
  post-export:
    - name: publish
      command: cp "$TREEVIEW_EXPORT_PATH" /tmp/
      timeout: 10
      env:
        TARGET: site
`)

	loader := NewLoader(WithProjectDir(tmpDir))
	if err := loader.Load(); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	pre := loader.GetHooks(PreExport)
	if len(pre) != 1 {
		t.Fatalf("expected 1 pre-export hook, got %d", len(pre))
	}
	if pre[0].Name != "validate" || pre[0].Timeout != 5*time.Second || pre[0].OnError != "fail" {
		t.Errorf("unexpected pre-export hook: %+v", pre[0])
	}

	post := loader.GetHooks(PostExport)
	if len(post) != 1 {
		t.Fatalf("expected 1 post-export hook, got %d", len(post))
	}
	if post[0].Timeout != 10*time.Second {
		t.Errorf("bare seconds timeout = %v, want 10s", post[0].Timeout)
	}
	if post[0].OnError != "continue" {
		t.Errorf("expected on_error 'continue' for post-export, got %s", post[0].OnError)
	}
	if post[0].Env["TARGET"] != "site" {
		t.Errorf("expected TARGET env, got %v", post[0].Env)
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeHooksFile(t, tmpDir, "hooks:\n  pre-export:\n    - name: [invalid yaml\n")

	if err := NewLoader(WithProjectDir(tmpDir)).Load(); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoaderSkipsEmptyCommands(t *testing.T) {
	tmpDir := t.TempDir()
	writeHooksFile(t, tmpDir, `
hooks:
  pre-export:
    - name: empty
      command: ""
  post-export:
    - command: "   "
`)

	loader := NewLoader(WithProjectDir(tmpDir))
	if err := loader.Load(); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loader.HasHooks() {
		t.Error("hooks with empty commands should be skipped")
	}
	if len(loader.Warnings()) != 2 {
		t.Errorf("warnings = %v, want one per skipped hook", loader.Warnings())
	}
}

func TestLoaderUnknownErrorPolicy(t *testing.T) {
	tmpDir := t.TempDir()
	writeHooksFile(t, tmpDir, `
hooks:
  post-export:
    - name: notify
      command: echo done
      on_error: ignore
`)

	loader := NewLoader(WithProjectDir(tmpDir))
	if err := loader.Load(); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	post := loader.GetHooks(PostExport)
	if len(post) != 1 || post[0].OnError != OnErrorContinue {
		t.Fatalf("unknown on_error should fall back to continue, got %+v", post)
	}
	if len(loader.Warnings()) != 1 || !strings.Contains(loader.Warnings()[0], "ignore") {
		t.Errorf("warnings = %v", loader.Warnings())
	}
}

func TestLoaderGetHooksUnknownPhase(t *testing.T) {
	loader := &Loader{config: &Config{Hooks: HooksByPhase{
		PreExport: []Hook{{Name: "test", Command: "echo ok"}},
	}}}
	if hooks := loader.GetHooks(HookPhase("unknown")); hooks != nil {
		t.Fatalf("expected nil for unknown phase, got %#v", hooks)
	}
}

func TestHookUnmarshalYAMLInvalidTimeout(t *testing.T) {
	var h Hook
	if err := yaml.Unmarshal([]byte("name: bad\ntimeout: nope\ncommand: echo hi\n"), &h); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestExecutorRunSimpleHook(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "echo-test", Command: "echo hello", Timeout: 5 * time.Second, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{ExportPath: "/tmp/test.md", ExportFormat: "markdown"})
	if err := executor.RunPreExport(); err != nil {
		t.Fatalf("expected hook to succeed, got: %v", err)
	}

	results := executor.Results()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Success || results[0].Stdout != "hello" {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].Phase != PreExport {
		t.Errorf("phase = %q", results[0].Phase)
	}
}

func TestRunPreExportStopsOnFail(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "fail-fast", Command: "exit 1", Timeout: time.Second, OnError: "fail"},
		{Name: "should-not-run", Command: "echo nope", Timeout: time.Second, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err == nil {
		t.Fatal("expected error from failing pre-export hook")
	}
	results := executor.Results()
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected a single failed result, got %+v", results)
	}
}

func TestRunPreExportContinueOnError(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "lint", Command: "exit 3", Timeout: time.Second, OnError: "continue"},
		{Name: "after", Command: "echo ran", Timeout: time.Second, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err != nil {
		t.Fatalf("on_error=continue should not fail the phase: %v", err)
	}
	if got := executor.Results(); len(got) != 2 || got[1].Stdout != "ran" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestRunPostExportFailOnErrorStillRunsAll(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PostExport: []Hook{
		{Name: "fail", Command: "exit 1", Timeout: time.Second, OnError: "fail"},
		{Name: "after", Command: "echo ok", Timeout: time.Second, OnError: "continue"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPostExport(); err == nil {
		t.Fatal("expected error for post-export hook with on_error=fail")
	}
	results := executor.Results()
	if len(results) != 2 {
		t.Fatalf("expected both hooks to run, got %d", len(results))
	}
	if results[1].Stdout != "ok" {
		t.Errorf("expected second hook to run despite earlier failure, got stdout %q", results[1].Stdout)
	}
}

func TestExecutorHookTimeout(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "slow-hook", Command: "sleep 10", Timeout: 100 * time.Millisecond, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err == nil {
		t.Error("expected timeout error")
	}
	results := executor.Results()
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected a failed result, got %+v", results)
	}
	if results[0].Duration < 100*time.Millisecond {
		t.Errorf("expected duration >= 100ms, got %v", results[0].Duration)
	}
	if !strings.Contains(results[0].Error.Error(), "timed out") {
		t.Errorf("error = %v", results[0].Error)
	}
}

func TestExecutorEnvironmentVariables(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "env-test", Command: "echo $TREEVIEW_EXPORT_PATH $TREEVIEW_NODE_COUNT", Timeout: 5 * time.Second},
	}}}

	executor := NewExecutor(config, ExportContext{ExportPath: "/custom/path.md", NodeCount: 99})
	if err := executor.RunPreExport(); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if got := executor.Results()[0].Stdout; got != "/custom/path.md 99" {
		t.Errorf("expected env vars in output, got %q", got)
	}
}

func TestExecutorCustomEnvExpansion(t *testing.T) {
	t.Setenv("TEST_HOOK_VAR", "expanded_value")

	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{{
		Name:    "env-expand",
		Command: "echo $CUSTOM_VAR",
		Timeout: 5 * time.Second,
		Env:     map[string]string{"CUSTOM_VAR": "${TEST_HOOK_VAR}"},
	}}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
	if got := executor.Results()[0].Stdout; got != "expanded_value" {
		t.Errorf("expected env expansion, got %q", got)
	}
}

func TestExecutorCommandNotFound(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "missing", Command: "definitely-not-a-real-command-xyz", Timeout: time.Second, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err == nil {
		t.Fatalf("expected error for missing command")
	}
	results := executor.Results()
	if len(results) != 1 || results[0].Success || results[0].Stderr == "" {
		t.Fatalf("expected failure with shell error output, got %+v", results)
	}
}

func TestExecutorPermissionDenied(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho nope\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	config := &Config{Hooks: HooksByPhase{PreExport: []Hook{
		{Name: "perm", Command: script, Timeout: time.Second, OnError: "fail"},
	}}}

	executor := NewExecutor(config, ExportContext{})
	if err := executor.RunPreExport(); err == nil {
		t.Fatalf("expected permission error")
	}
}

func TestExecutorSummary(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{
		PreExport:  []Hook{{Name: "success-hook", Command: "echo ok", Timeout: 5 * time.Second, OnError: "continue"}},
		PostExport: []Hook{{Name: "fail-hook", Command: "exit 1", Timeout: 5 * time.Second, OnError: "continue"}},
	}}

	executor := NewExecutor(config, ExportContext{})
	if got := executor.Summary(); got != "No hooks run" {
		t.Errorf("summary before running = %q", got)
	}
	_ = executor.RunPreExport()
	_ = executor.RunPostExport()

	summary := executor.Summary()
	if !strings.Contains(summary, "1 succeeded") || !strings.Contains(summary, "1 failed") {
		t.Errorf("summary should mention success and failure count: %s", summary)
	}
	if !strings.Contains(summary, "fail-hook") {
		t.Errorf("summary should name the failed hook: %s", summary)
	}
}

func TestExecutorLargeStderrTruncatedInSummary(t *testing.T) {
	config := &Config{Hooks: HooksByPhase{PostExport: []Hook{{
		Name:    "noisy",
		Command: "printf '%0300d' 0 1>&2; exit 1",
		OnError: "continue",
		Timeout: time.Second,
	}}}}

	executor := NewExecutor(config, ExportContext{})
	_ = executor.RunPostExport()

	summary := executor.Summary()
	if !strings.Contains(summary, "stderr:") {
		t.Fatalf("expected stderr line in summary: %s", summary)
	}
	for _, line := range strings.Split(summary, "\n") {
		if strings.Contains(line, "stderr:") && len(line) > 230 {
			t.Fatalf("expected truncated stderr line, got length %d", len(line))
		}
	}
	if !strings.Contains(summary, "...") {
		t.Fatalf("expected ellipsis indicating truncation")
	}
}
