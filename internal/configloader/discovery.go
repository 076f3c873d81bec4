package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/samber/lo"
)

// appName names the system, user and state directories.
const appName = "mdsync"

// ConfigPaths lists the configuration files found for one document.
// Empty fields mean no file was found at that level.
type ConfigPaths struct {
	System   string // /etc/mdsync/config.yaml
	User     string // $XDG_CONFIG_HOME/mdsync/config.yaml
	Project  string // .mdsync.yml next to or above the document
	Explicit string // --config
}

// layer is one configuration file in merge order.
type layer struct {
	name string
	path string
}

// layers returns the non-empty paths in merge order, lowest precedence first,
// leaving out the levels opts ignores.
func (p *ConfigPaths) layers(opts LoadOptions) []layer {
	all := []layer{
		{"system", lo.Ternary(opts.IgnoreSystemConfig, "", p.System)},
		{"user", lo.Ternary(opts.IgnoreUserConfig, "", p.User)},
		{"project", lo.Ternary(opts.IgnoreProjectConfig, "", p.Project)},
		{"explicit", p.Explicit},
	}
	return lo.Filter(all, func(l layer, _ int) bool { return l.path != "" })
}

//nolint:gochecknoglobals // Read-only lookup tables.
var (
	projectConfigFiles = []string{".mdsync.yml", ".mdsync.yaml", "mdsync.yml", "mdsync.yaml"}
	dirConfigFiles     = []string{"config.yaml", "config.yml"}
	vcsRootMarkers     = []string{".git", ".hg", ".svn"}
)

// DiscoverPaths finds the system, user and project configuration files.
// The project search starts at workDir, normally the document's directory.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	project, err := FindProjectConfig(ctx, workDir)
	if err != nil {
		return nil, err
	}

	return &ConfigPaths{
		System:  firstFile(systemConfigDir(), dirConfigFiles),
		User:    firstFile(UserConfigDir(), dirConfigFiles),
		Project: project,
	}, nil
}

func systemConfigDir() string {
	if runtime.GOOS == "windows" {
		programData := os.Getenv("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, appName)
	}
	return filepath.Join("/etc", appName)
}

// UserConfigDir returns $XDG_CONFIG_HOME/mdsync, falling back to
// ~/.config/mdsync, or "" when no home directory is known.
func UserConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// UserStateDir returns $XDG_STATE_HOME/mdsync, falling back to
// ~/.local/state/mdsync, or "" when no home directory is known. The scroll
// store lives here.
func UserStateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(envVar string, homeRelative ...string) string {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(append([]string{home}, homeRelative...)...)
	}
	return filepath.Join(base, appName)
}

// firstFile returns the first of names that exists as a file in dir.
func firstFile(dir string, names []string) string {
	if dir == "" {
		return ""
	}
	path, _ := lo.Find(lo.Map(names, func(name string, _ int) string {
		return filepath.Join(dir, name)
	}), isFile)
	return path
}

// FindProjectConfig walks upward from startDir looking for a project config
// file. The walk stops at a VCS root, the home directory or the filesystem
// root; "" means none was found.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		startDir = wd
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	home, _ := os.UserHomeDir()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}
		if path := firstFile(dir, projectConfigFiles); path != "" {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if isVCSRoot(dir) || dir == home || parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func isVCSRoot(dir string) bool {
	return lo.SomeBy(vcsRootMarkers, func(marker string) bool {
		info, err := os.Stat(filepath.Join(dir, marker))
		return err == nil && info.IsDir()
	})
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
