package configloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yaklabco/mdsync/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func isolated(dir string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		IgnoreEnv:          true,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Config == nil {
		t.Fatal("Load() returned nil config")
	}

	want := config.NewConfig()
	if result.Config.Server.Addr != want.Server.Addr {
		t.Errorf("expected addr %q, got %q", want.Server.Addr, result.Config.Server.Addr)
	}
	if result.Config.Scroll.Suppress != 200*time.Millisecond {
		t.Errorf("expected suppress 200ms, got %s", result.Config.Scroll.Suppress)
	}
	if len(result.LoadedFrom) != 0 {
		t.Errorf("expected no loaded files, got %v", result.LoadedFrom)
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".mdsync.yml"), `
render:
  style: monokai
  hard_wraps: false
scroll:
  suppress: 300ms
`)

	result, err := Load(context.Background(), isolated(tmpDir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := result.Config
	if cfg.Render.Style != "monokai" {
		t.Errorf("expected style monokai, got %q", cfg.Render.Style)
	}
	if config.Enabled(cfg.Render.HardWraps) {
		t.Error("expected hard_wraps to be disabled")
	}
	if !config.Enabled(cfg.Render.DetectLanguage) {
		t.Error("expected detect_language to keep its default")
	}
	if cfg.Scroll.Suppress != 300*time.Millisecond {
		t.Errorf("expected suppress 300ms, got %s", cfg.Scroll.Suppress)
	}
	if cfg.Scroll.Settle != 90*time.Millisecond {
		t.Errorf("expected settle default 90ms, got %s", cfg.Scroll.Settle)
	}
	if len(result.LoadedFrom) != 1 {
		t.Errorf("expected 1 loaded file, got %d", len(result.LoadedFrom))
	}
}

func TestLoad_ProjectConfigFoundUpward(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "docs", "guide")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "mdsync.yaml"), "server:\n  addr: 127.0.0.1:9999\n")

	result, err := Load(context.Background(), isolated(nested))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Config.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("expected project addr, got %q", result.Config.Server.Addr)
	}
}

func TestLoad_ExplicitOverridesProject(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".mdsync.yml"), "export:\n  paper: a4\n  browser: /opt/a\n")
	custom := filepath.Join(tmpDir, "custom.yml")
	writeFile(t, custom, "export:\n  paper: letter\n")

	opts := isolated(tmpDir)
	opts.ExplicitPath = custom

	result, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Config.Export.Paper != config.PaperLetter {
		t.Errorf("expected paper letter, got %q", result.Config.Export.Paper)
	}
	if result.Config.Export.Browser != "/opt/a" {
		t.Errorf("expected browser from project config, got %q", result.Config.Export.Browser)
	}
	if result.Paths.Explicit != custom {
		t.Errorf("expected explicit path %q, got %q", custom, result.Paths.Explicit)
	}
	if len(result.LoadedFrom) != 2 {
		t.Errorf("expected 2 loaded files, got %v", result.LoadedFrom)
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".mdsync.yml"), "server:\n  addr: 127.0.0.1:8000\n  open: true\n")

	open := false
	opts := isolated(tmpDir)
	opts.CLIConfig = &config.Config{
		Server:  config.ServerConfig{Addr: "127.0.0.1:9000", Open: &open},
		Verbose: true,
	}

	result, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Config.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected CLI addr, got %q", result.Config.Server.Addr)
	}
	if config.Enabled(result.Config.Server.Open) {
		t.Error("expected open false (CLI override)")
	}
	if !result.Config.Verbose {
		t.Error("expected verbose true (CLI override)")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bad paper":    "export:\n  paper: tabloid\n",
		"bad addr":     "server:\n  addr: nope\n",
		"negative":     "chunks:\n  target_lines: -5\n",
		"bad duration": "scroll:\n  suppress: later\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			path := filepath.Join(tmpDir, ".mdsync.yml")
			writeFile(t, path, content)

			_, err := Load(context.Background(), isolated(tmpDir))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("expected error to name %s, got %v", path, err)
			}
		})
	}
}

func TestLoad_Warnings(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".mdsync.yml"), "render:\n  style: no-such-style\n")

	result, err := Load(context.Background(), isolated(tmpDir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "no-such-style") {
		t.Errorf("expected unknown style warning, got %v", result.Warnings)
	}
}

func TestLoad_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, isolated(t.TempDir()))
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MDSYNC_ADDR", "0.0.0.0:1234")
	t.Setenv("MDSYNC_HARD_WRAPS", "false")
	t.Setenv("MDSYNC_TARGET_LINES", "250")
	t.Setenv("MDSYNC_SUPPRESS", "150ms")

	cfg := config.NewConfig()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:1234" {
		t.Errorf("expected env addr, got %q", cfg.Server.Addr)
	}
	if config.Enabled(cfg.Render.HardWraps) {
		t.Error("expected hard_wraps false from env")
	}
	if cfg.Chunks.TargetLines != 250 {
		t.Errorf("expected target_lines 250, got %d", cfg.Chunks.TargetLines)
	}
	if cfg.Scroll.Suppress != 150*time.Millisecond {
		t.Errorf("expected suppress 150ms, got %s", cfg.Scroll.Suppress)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("MDSYNC_EXPORT_TIMEOUT", "forever")

	err := LoadFromEnv(config.NewConfig())
	if err == nil || !strings.Contains(err.Error(), "MDSYNC_EXPORT_TIMEOUT") {
		t.Fatalf("expected invalid duration error, got %v", err)
	}
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := ListEnvVars()
	if len(vars) != len(envMappings) {
		t.Fatalf("expected %d vars, got %d", len(envMappings), len(vars))
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1].Name >= vars[i].Name {
			t.Errorf("vars not sorted: %s before %s", vars[i-1].Name, vars[i].Name)
		}
	}
	if GetEnvVarName("scroll.suppress") != "MDSYNC_SUPPRESS" {
		t.Errorf("unexpected env name %q", GetEnvVarName("scroll.suppress"))
	}
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	a := &config.Config{Render: config.RenderConfig{Style: "a"}}
	b := &config.Config{Render: config.RenderConfig{Style: "b"}, Chunks: config.ChunkConfig{Eager: 3}}
	c := &config.Config{Chunks: config.ChunkConfig{IdleBatch: 4}}

	got := MergeAll(a, b, c)
	if got.Render.Style != "b" || got.Chunks.Eager != 3 || got.Chunks.IdleBatch != 4 {
		t.Errorf("unexpected merge result: %+v", got)
	}
	if a.Render.Style != "a" {
		t.Error("merge modified its base")
	}
	if MergeAll() != nil {
		t.Error("expected nil for no configs")
	}
}

func TestFindProjectConfigStopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, ".mdsync.yml"), "server:\n  addr: 127.0.0.1:1\n")
	repo := filepath.Join(outer, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := FindProjectConfig(context.Background(), repo)
	if err != nil {
		t.Fatalf("FindProjectConfig() error = %v", err)
	}
	if path != "" {
		t.Errorf("expected search to stop at the repository root, found %s", path)
	}

	path, err = FindProjectConfig(context.Background(), outer)
	if err != nil {
		t.Fatalf("FindProjectConfig() error = %v", err)
	}
	if path != filepath.Join(outer, ".mdsync.yml") {
		t.Errorf("unexpected project config %q", path)
	}
}

func TestLayersSkipIgnoredLevels(t *testing.T) {
	t.Parallel()

	paths := &ConfigPaths{System: "/s", User: "/u", Project: "/p", Explicit: "/e"}

	var got []string
	for _, l := range paths.layers(LoadOptions{IgnoreUserConfig: true}) {
		got = append(got, l.name)
	}
	want := []string{"system", "project", "explicit"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected layers %v, got %v", want, got)
	}
}

func TestXDGDirs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := UserConfigDir(); got != filepath.Join(dir, "mdsync") {
		t.Errorf("unexpected config dir %q", got)
	}
	if got := UserStateDir(); got != filepath.Join(dir, "state", "mdsync") {
		t.Errorf("unexpected state dir %q", got)
	}
}
